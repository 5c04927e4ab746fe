package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/errmech-cli/internal/report"
)

var (
	inferOpts    inferOptions
	inferDataDir string
	inferFormat  string
	inferOutput  string
	inferStudy   string
)

var inferCmd = &cobra.Command{
	Use:   "infer <dataset>",
	Short: "Infer the error mechanism of every corrupted column in a dataset",
	Long: `Loads <data-dir>/<dataset>/clean.csv and dirty.csv, builds the error mask and, for
each column with at least one error, trains the four bagged classifiers (err, obs and
their shuffled-label baselines) before testing their fold scores.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		settings, err := inferOpts.settings(cmd, c)
		if err != nil {
			return err
		}
		format, err := report.ParseFormat(inferFormat)
		if err != nil {
			return err
		}
		base, err := dataDir(cmd, inferDataDir, c)
		if err != nil {
			return err
		}
		st, err := openStudy(inferStudy)
		if err != nil {
			return err
		}

		log := currentLogger()
		log.Info("starting inference",
			zap.String("dataset", args[0]),
			zap.Int64("seed", settings.Seed),
			zap.String("test", settings.Test),
			zap.String("metric", settings.Metric))
		runner, err := newRunner(settings, c, log)
		if err != nil {
			return err
		}
		results, err := runner.RunDataset(cmd.Context(), base, args[0])
		if err != nil {
			return fmt.Errorf("infer %s: %w", args[0], err)
		}
		if err := emitResults(cmd, results, format, inferOutput); err != nil {
			return err
		}
		if st != nil {
			run := st.AddRun(args[0], settings, results)
			if err := st.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Recorded run %s in study '%s' (seed %d)\n", run.ID, st.Name, settings.Seed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inferCmd)
	inferOpts.register(inferCmd)
	inferCmd.Flags().StringVar(&inferDataDir, "data-dir", "", "base directory holding <dataset>/{clean,dirty}.csv (overrides config)")
	inferCmd.Flags().StringVar(&inferFormat, "format", "text", "output format: text|json|yaml|csv")
	inferCmd.Flags().StringVarP(&inferOutput, "output", "o", "", "write results to file instead of stdout")
	inferCmd.Flags().StringVarP(&inferStudy, "study", "s", "", "record the run in this study")
}
