package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/errmech-cli/internal/mechanism"
	"github.com/KaramelBytes/errmech-cli/internal/pipeline"
	"github.com/KaramelBytes/errmech-cli/internal/report"
	"github.com/KaramelBytes/errmech-cli/internal/table"
)

var (
	ibOpts            inferOptions
	ibDataDir         string
	ibAll             bool
	ibFormat          string
	ibOutDir          string
	ibStudy           string
	ibQuiet           bool
	ibContinueOnError bool
)

var inferBatchCmd = &cobra.Command{
	Use:   "infer-batch [datasets...]",
	Short: "Infer error mechanisms for several datasets with progress and optional study recording",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		settings, err := ibOpts.settings(cmd, c)
		if err != nil {
			return err
		}
		format, err := report.ParseFormat(ibFormat)
		if err != nil {
			return err
		}
		base, err := dataDir(cmd, ibDataDir, c)
		if err != nil {
			return err
		}
		names := dedupe(args)
		if ibAll {
			found, err := discoverDatasets(base)
			if err != nil {
				return err
			}
			names = dedupe(append(names, found...))
		}
		if len(names) == 0 {
			return fmt.Errorf("no datasets given (pass names or --all)")
		}
		st, err := openStudy(ibStudy)
		if err != nil {
			return err
		}
		runner, err := newRunner(settings, c, currentLogger())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		total := len(names)
		var failed []string
		var all []pipeline.ColumnResult
		for i, name := range names {
			if !ibQuiet {
				fmt.Fprintf(out, "[%d/%d] Processing %s...\n", i+1, total, name)
			}
			results, err := runner.RunDataset(cmd.Context(), base, name)
			if err != nil {
				if !ibContinueOnError || cmd.Context().Err() != nil {
					return fmt.Errorf("infer %s: %w", name, err)
				}
				currentLogger().Warn("dataset failed", zap.String("dataset", name), zap.Error(err))
				fmt.Fprintf(out, "⚠ Skipping %s: %v\n", name, err)
				failed = append(failed, name)
				continue
			}
			all = append(all, results...)

			if ibOutDir != "" {
				path := filepath.Join(ibOutDir, name+"."+extension(format))
				if err := emitResults(cmd, results, format, path); err != nil {
					return err
				}
			} else if !ibQuiet {
				if err := emitResults(cmd, results, format, ""); err != nil {
					return err
				}
			}
			if st != nil {
				run := st.AddRun(name, settings, results)
				if err := st.Save(); err != nil {
					return err
				}
				if !ibQuiet {
					fmt.Fprintf(out, "✓ Recorded run %s in study '%s'\n", run.ID, st.Name)
				}
			}
		}

		counts := pipeline.Summary(all)
		keys := make([]string, 0, len(counts))
		for k := range counts {
			keys = append(keys, string(k))
		}
		sort.Strings(keys)
		fmt.Fprintf(out, "✓ Processed %d/%d dataset(s), %d column(s), seed %d\n", total-len(failed), total, len(all), settings.Seed)
		for _, k := range keys {
			fmt.Fprintf(out, "  %s: %d\n", k, counts[mechanism.Mechanism(k)])
		}
		if len(failed) > 0 {
			return fmt.Errorf("%d dataset(s) failed: %v", len(failed), failed)
		}
		return nil
	},
}

// discoverDatasets lists subdirectories of base holding both clean and dirty files.
func discoverDatasets(base string) ([]string, error) {
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(base, e.Name())
		if fileExists(filepath.Join(dir, table.CleanFile)) && fileExists(filepath.Join(dir, table.DirtyFile)) {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func extension(f report.Format) string {
	if f == report.Text {
		return "md"
	}
	return string(f)
}

func init() {
	rootCmd.AddCommand(inferBatchCmd)
	ibOpts.register(inferBatchCmd)
	inferBatchCmd.Flags().StringVar(&ibDataDir, "data-dir", "", "base directory holding the datasets (overrides config)")
	inferBatchCmd.Flags().BoolVar(&ibAll, "all", false, "process every dataset found under the data directory")
	inferBatchCmd.Flags().StringVar(&ibFormat, "format", "text", "output format: text|json|yaml|csv")
	inferBatchCmd.Flags().StringVar(&ibOutDir, "out-dir", "", "write one result file per dataset into this directory")
	inferBatchCmd.Flags().StringVarP(&ibStudy, "study", "s", "", "record each run in this study")
	inferBatchCmd.Flags().BoolVar(&ibQuiet, "quiet", false, "suppress progress and per-dataset output")
	inferBatchCmd.Flags().BoolVar(&ibContinueOnError, "continue-on-error", false, "skip datasets that fail instead of stopping")
}
