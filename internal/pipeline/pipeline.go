package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/montanaflynn/stats"
	"go.uber.org/zap"

	"github.com/KaramelBytes/errmech-cli/internal/features"
	"github.com/KaramelBytes/errmech-cli/internal/learn"
	"github.com/KaramelBytes/errmech-cli/internal/mask"
	"github.com/KaramelBytes/errmech-cli/internal/mechanism"
	"github.com/KaramelBytes/errmech-cli/internal/table"
)

// ErrInconsistentFolds is returned when the four fits of a column disagree on
// fold count or metric, which would make the paired tests meaningless.
var ErrInconsistentFolds = errors.New("fits report different folds or metrics")

// ColumnResult is the outcome for one tested column.
type ColumnResult struct {
	Dataset             string              `json:"dataset" yaml:"dataset"`
	Label               string              `json:"label" yaml:"label"`
	Errors              int                 `json:"errors" yaml:"errors"`
	FractionOfAllErrors float64             `json:"fraction_of_all_errors" yaml:"fraction_of_all_errors"`
	Mechanism           mechanism.Mechanism `json:"mechanism" yaml:"mechanism"`
	PerfErr             []float64           `json:"perf_err" yaml:"perf_err"`
	PerfErrShuffled     []float64           `json:"perf_err_rnd" yaml:"perf_err_rnd"`
	PerfObs             []float64           `json:"perf_obs" yaml:"perf_obs"`
	PerfObsShuffled     []float64           `json:"perf_obs_rnd" yaml:"perf_obs_rnd"`
	Metric              string              `json:"eval_metric" yaml:"eval_metric"`
	Decision            *mechanism.Decision `json:"p_values,omitempty" yaml:"p_values,omitempty"`
}

// Runner drives the per-column pipeline: mask, feature sets, four fits and
// the mechanism decision. A Runner with the same Seed produces the same
// results for the same tables.
type Runner struct {
	Fitter     learn.Fitter
	Classifier *mechanism.Classifier
	Seed       int64
	// Digits is the rounding applied to fold scores; negative disables it.
	Digits int
	Logger *zap.Logger
}

// NewRunner returns a Runner with the default bagger and classifier.
func NewRunner(seed int64, logger *zap.Logger) *Runner {
	return &Runner{
		Fitter:     learn.NewBagger(),
		Classifier: mechanism.NewClassifier(),
		Seed:       seed,
		Digits:     4,
		Logger:     logger,
	}
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

// RunDataset loads <base>/<name>/{clean,dirty}.csv and runs every corrupted column.
func (r *Runner) RunDataset(ctx context.Context, base, name string) ([]ColumnResult, error) {
	clean, dirty, err := table.LoadDataset(base, name)
	if err != nil {
		return nil, err
	}
	return r.RunTables(ctx, name, clean, dirty)
}

// RunTables runs the pipeline on in-memory tables. Columns without errors
// are skipped; results follow schema order.
func (r *Runner) RunTables(ctx context.Context, dataset string, clean, dirty *table.Table) ([]ColumnResult, error) {
	if r.Fitter == nil {
		return nil, errors.New("pipeline: no fitter configured")
	}
	m, err := mask.Build(clean, dirty)
	if err != nil {
		return nil, err
	}
	log := r.logger().With(zap.String("dataset", dataset))
	labels := m.ErrorColumns()
	log.Info("error mask built",
		zap.Int("rows", m.Rows()),
		zap.Int("columns", len(m.Columns())),
		zap.Int("total_errors", m.Total()),
		zap.Strings("tested", labels))

	rng := rand.New(rand.NewSource(r.Seed))
	results := make([]ColumnResult, 0, len(labels))
	for _, label := range labels {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := r.runColumn(ctx, log.With(zap.String("label", label)), dataset, clean, m, label, rng)
		if err != nil {
			return results, fmt.Errorf("column %s: %w", label, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (r *Runner) runColumn(ctx context.Context, log *zap.Logger, dataset string, clean *table.Table, m *mask.Mask, label string, rng *rand.Rand) (ColumnResult, error) {
	res := ColumnResult{
		Dataset:             dataset,
		Label:               label,
		Errors:              m.Count(label),
		FractionOfAllErrors: round(m.Fraction(label), 2),
	}
	sets, err := features.Build(clean, m, label, rng)
	if errors.Is(err, features.ErrNoVariation) {
		log.Warn("error indicator has a single class, skipping fits", zap.Int("errors", res.Errors))
		res.Mechanism = mechanism.ECAR
		return res, nil
	}
	if err != nil {
		return res, err
	}

	fits := make([]*learn.FoldResult, 0, 4)
	for _, set := range []features.TrainingSet{sets.Err, sets.Obs, sets.ErrShuffled, sets.ObsShuffled} {
		fr, err := r.Fitter.FitFolds(ctx, set.Matrix(), set.Y, rng)
		if err != nil {
			return res, fmt.Errorf("fit %s: %w", set.Name(), err)
		}
		log.Debug("fitted", zap.String("variant", set.Name()), zap.Float64("mean_score", fr.Mean()), zap.Int("folds", len(fr.Scores)))
		fits = append(fits, fr)
	}
	for _, fr := range fits[1:] {
		if len(fr.Scores) != len(fits[0].Scores) || fr.Metric != fits[0].Metric {
			return res, ErrInconsistentFolds
		}
	}

	decision, err := r.classifier().Classify(mechanism.Performance{
		Err:         fits[0].Scores,
		Obs:         fits[1].Scores,
		ErrShuffled: fits[2].Scores,
		ObsShuffled: fits[3].Scores,
	})
	if err != nil {
		return res, err
	}
	res.Mechanism = decision.Mechanism
	res.Decision = &decision
	res.Metric = fits[0].Metric
	res.PerfErr = r.roundAll(fits[0].Scores)
	res.PerfObs = r.roundAll(fits[1].Scores)
	res.PerfErrShuffled = r.roundAll(fits[2].Scores)
	res.PerfObsShuffled = r.roundAll(fits[3].Scores)

	fields := []zap.Field{
		zap.String("mechanism", decision.Mechanism.String()),
		zap.Int("errors", res.Errors),
		zap.Float64("p_err_obs", decision.P1),
		zap.Float64("p_err_rnd", decision.P2),
	}
	if decision.P3 != nil {
		fields = append(fields, zap.Float64("p_obs_rnd", *decision.P3))
	}
	log.Info("mechanism inferred", fields...)
	return res, nil
}

func (r *Runner) classifier() *mechanism.Classifier {
	if r.Classifier == nil {
		return mechanism.NewClassifier()
	}
	return r.Classifier
}

func (r *Runner) roundAll(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		if r.Digits < 0 {
			out[i] = x
		} else {
			out[i] = round(x, r.Digits)
		}
	}
	return out
}

func round(x float64, places int) float64 {
	v, err := stats.Round(x, places)
	if err != nil {
		return x
	}
	return v
}

// Summary counts results per mechanism.
func Summary(results []ColumnResult) map[mechanism.Mechanism]int {
	out := make(map[mechanism.Mechanism]int)
	for _, r := range results {
		out[r.Mechanism]++
	}
	return out
}
