package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/errmech-cli/internal/report"
	"github.com/KaramelBytes/errmech-cli/internal/table"
)

var (
	cmpOpts   inferOptions
	cmpName   string
	cmpFormat string
	cmpOutput string
	cmpStudy  string
)

var compareCmd = &cobra.Command{
	Use:   "compare <clean.csv> <dirty.csv>",
	Short: "Infer error mechanisms for an explicit clean/dirty file pair",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		settings, err := cmpOpts.settings(cmd, c)
		if err != nil {
			return err
		}
		format, err := report.ParseFormat(cmpFormat)
		if err != nil {
			return err
		}
		st, err := openStudy(cmpStudy)
		if err != nil {
			return err
		}
		clean, err := table.LoadCSV(args[0])
		if err != nil {
			return fmt.Errorf("load clean: %w", err)
		}
		dirty, err := table.LoadCSV(args[1])
		if err != nil {
			return fmt.Errorf("load dirty: %w", err)
		}
		name := strings.TrimSpace(cmpName)
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(args[1]), filepath.Ext(args[1]))
		}

		runner, err := newRunner(settings, c, currentLogger())
		if err != nil {
			return err
		}
		results, err := runner.RunTables(cmd.Context(), name, clean, dirty)
		if err != nil {
			return fmt.Errorf("compare %s: %w", name, err)
		}
		if err := emitResults(cmd, results, format, cmpOutput); err != nil {
			return err
		}
		if st != nil {
			run := st.AddRun(name, settings, results)
			if err := st.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Recorded run %s in study '%s' (seed %d)\n", run.ID, st.Name, settings.Seed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(compareCmd)
	cmpOpts.register(compareCmd)
	compareCmd.Flags().StringVar(&cmpName, "name", "", "dataset name reported in results (default: dirty file stem)")
	compareCmd.Flags().StringVar(&cmpFormat, "format", "text", "output format: text|json|yaml|csv")
	compareCmd.Flags().StringVarP(&cmpOutput, "output", "o", "", "write results to file instead of stdout")
	compareCmd.Flags().StringVarP(&cmpStudy, "study", "s", "", "record the run in this study")
}
