package cmd

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgpkg "github.com/KaramelBytes/errmech-cli/internal/config"
	"github.com/KaramelBytes/errmech-cli/internal/hypothesis"
	"github.com/KaramelBytes/errmech-cli/internal/learn"
	"github.com/KaramelBytes/errmech-cli/internal/mechanism"
	"github.com/KaramelBytes/errmech-cli/internal/pipeline"
	"github.com/KaramelBytes/errmech-cli/internal/report"
	"github.com/KaramelBytes/errmech-cli/internal/study"
	"github.com/KaramelBytes/errmech-cli/internal/utils"
)

// inferOptions are the flags shared by the commands that run the pipeline.
// Unset flags fall back to the loaded configuration.
type inferOptions struct {
	seed       int64
	folds      int
	estimators int
	test       string
	metric     string
	marRule    string
}

func (o *inferOptions) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int64Var(&o.seed, "seed", 0, "seed for label shuffling and fold assignment (0 draws one)")
	f.IntVar(&o.folds, "folds", 0, "number of stratified folds (overrides config)")
	f.IntVar(&o.estimators, "estimators", 0, "boosting rounds per fold (overrides config)")
	f.StringVar(&o.test, "test", "", "paired test: "+strings.Join(hypothesis.Names(), "|"))
	f.StringVar(&o.metric, "metric", "", "fold score: accuracy|balanced_accuracy|roc_auc|f1|log_loss")
	f.StringVar(&o.marRule, "mar-rule", "", "MAR rule on err vs obs: literal|documented")
}

// settings merges flags over configuration and normalises names. A zero seed
// is replaced by a freshly drawn one so the run can be reproduced.
func (o *inferOptions) settings(cmd *cobra.Command, c *cfgpkg.Global) (study.Settings, error) {
	s := study.Settings{
		Seed:       c.Seed,
		Folds:      c.Folds,
		Estimators: c.Estimators,
		Test:       c.Test,
		Metric:     c.Metric,
		Rule:       c.MARRule,
		MNARAlpha:  c.MNARAlpha,
		MARAlpha:   c.MARAlpha,
	}
	f := cmd.Flags()
	if f.Changed("seed") {
		s.Seed = o.seed
	}
	if f.Changed("folds") {
		s.Folds = o.folds
	}
	if f.Changed("estimators") {
		s.Estimators = o.estimators
	}
	if f.Changed("test") {
		s.Test = o.test
	}
	if f.Changed("metric") {
		s.Metric = o.metric
	}
	if f.Changed("mar-rule") {
		s.Rule = o.marRule
	}

	if s.Folds < 2 {
		return s, fmt.Errorf("folds must be at least 2, got %d", s.Folds)
	}
	if s.Estimators < 1 {
		return s, fmt.Errorf("estimators must be positive, got %d", s.Estimators)
	}
	if s.MNARAlpha <= 0 || s.MNARAlpha >= 1 || s.MARAlpha <= 0 || s.MARAlpha >= 1 {
		return s, fmt.Errorf("significance levels must lie in (0, 1): mnar=%g mar=%g", s.MNARAlpha, s.MARAlpha)
	}
	test, err := hypothesis.ByName(s.Test)
	if err != nil {
		return s, err
	}
	s.Test = test.Name()
	metric, err := learn.ParseMetric(s.Metric)
	if err != nil {
		return s, err
	}
	s.Metric = metric.String()
	rule, err := mechanism.ParseRule(s.Rule)
	if err != nil {
		return s, err
	}
	s.Rule = string(rule)

	for s.Seed == 0 {
		s.Seed = rand.Int63()
	}
	return s, nil
}

// newRunner builds a pipeline runner for already validated settings.
func newRunner(s study.Settings, c *cfgpkg.Global, log *zap.Logger) (*pipeline.Runner, error) {
	test, err := hypothesis.ByName(s.Test)
	if err != nil {
		return nil, err
	}
	metric, err := learn.ParseMetric(s.Metric)
	if err != nil {
		return nil, err
	}
	rule, err := mechanism.ParseRule(s.Rule)
	if err != nil {
		return nil, err
	}
	params := learn.DefaultParams()
	params.Estimators = s.Estimators
	if c.LearningRate > 0 {
		params.LearningRate = c.LearningRate
	}
	if c.MaxDepth > 0 {
		params.MaxDepth = c.MaxDepth
	}

	r := pipeline.NewRunner(s.Seed, log)
	r.Fitter = &learn.Bagger{Params: params, Folds: s.Folds, Metric: metric}
	r.Classifier = &mechanism.Classifier{
		Test:       test,
		Thresholds: mechanism.Thresholds{MNAR: s.MNARAlpha, MAR: s.MARAlpha},
		Rule:       rule,
	}
	r.Digits = c.RoundDigits
	return r, nil
}

// dataDir resolves the dataset base directory from the flag or configuration.
func dataDir(cmd *cobra.Command, flagValue string, c *cfgpkg.Global) (string, error) {
	dir := c.DataDir
	if cmd.Flags().Changed("data-dir") {
		dir = flagValue
	}
	if strings.TrimSpace(dir) == "" {
		return "", fmt.Errorf("data directory is not set (use --data-dir or config data_dir)")
	}
	return utils.ExpandHome(dir)
}

// emitResults renders results to outPath, or to the command's stdout when empty.
func emitResults(cmd *cobra.Command, results []pipeline.ColumnResult, format report.Format, outPath string) error {
	b, err := report.Render(results, format)
	if err != nil {
		return err
	}
	if outPath == "" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(string(b), "\n"))
		return err
	}
	if dir := filepath.Dir(outPath); dir != "." {
		if err := utils.EnsureDir(dir); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := utils.SafeWriteFile(outPath, b); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d result(s) to %s\n", len(results), outPath)
	return nil
}

// openStudy loads a study by name; empty name returns nil.
func openStudy(name string) (*study.Study, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	dir, err := resolveStudyDirByName(name)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("study %q not found (run: errmech init %s)", name, name)
	}
	return study.LoadStudy(dir)
}
