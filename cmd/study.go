package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/errmech-cli/internal/report"
)

var (
	studyRunID  string
	studyFormat string
)

var studyCmd = &cobra.Command{
	Use:   "study",
	Short: "Inspect recorded studies",
}

var studyShowCmd = &cobra.Command{
	Use:   "show <study>",
	Short: "Show a study's latest mechanism per dataset, or one run with --run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStudy(args[0])
		if err != nil {
			return err
		}
		format, err := report.ParseFormat(studyFormat)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if studyRunID != "" {
			run, ok := s.Runs[studyRunID]
			if !ok {
				return fmt.Errorf("run %s not found in study '%s'", studyRunID, s.Name)
			}
			return emitResults(cmd, run.Results, format, "")
		}

		fmt.Fprintf(out, "Study: %s\n", s.Name)
		if s.Description != "" {
			fmt.Fprintf(out, "Description: %s\n", s.Description)
		}
		fmt.Fprintf(out, "Runs: %d (updated %s)\n", len(s.Runs), s.UpdatedAt.Format("2006-01-02 15:04"))
		latest := s.Latest()
		if len(latest) == 0 {
			return nil
		}
		for _, r := range s.SortedRuns() {
			if latest[r.Dataset] != r {
				continue
			}
			fmt.Fprintf(out, "\n# %s (run %s, seed %d)\n", r.Dataset, r.ID, r.Settings.Seed)
			if err := emitResults(cmd, r.Results, format, ""); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(studyCmd)
	studyCmd.AddCommand(studyShowCmd)
	studyShowCmd.Flags().StringVar(&studyRunID, "run", "", "show a single run by ID")
	studyShowCmd.Flags().StringVar(&studyFormat, "format", "text", "output format: text|json|yaml|csv")
}
