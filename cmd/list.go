package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/errmech-cli/internal/mechanism"
	"github.com/KaramelBytes/errmech-cli/internal/study"
)

var (
	listStudies   bool
	listRuns      bool
	listStudyName string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List studies or the runs recorded in a study",
	RunE: func(cmd *cobra.Command, args []string) error {
		if listStudies == listRuns { // either both true or both false
			return fmt.Errorf("specify exactly one of --studies or --runs")
		}
		out := cmd.OutOrStdout()
		if listStudies {
			return listAllStudies(cmd)
		}
		if listStudyName == "" {
			return fmt.Errorf("--study is required when using --runs")
		}
		s, err := openStudy(listStudyName)
		if err != nil {
			return err
		}
		runs := s.SortedRuns()
		if len(runs) == 0 {
			fmt.Fprintln(out, "(no runs)")
			return nil
		}
		for _, r := range runs {
			fmt.Fprintf(out, "- %s: %s [%s] seed=%d test=%s metric=%s\n",
				r.ID, r.Dataset, formatCounts(r.Counts()), r.Settings.Seed, r.Settings.Test, r.Settings.Metric)
		}
		return nil
	},
}

func listAllStudies(cmd *cobra.Command) error {
	root, err := defaultStudiesDir()
	if err != nil {
		return err
	}
	dirs, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	found := false
	for _, e := range dirs {
		if !e.IsDir() {
			continue
		}
		if study.Exists(filepath.Join(root, e.Name())) {
			fmt.Fprintf(out, "- %s\n", e.Name())
			found = true
		}
	}
	if !found {
		fmt.Fprintln(out, "(no studies)")
	}
	return nil
}

// formatCounts renders mechanism counts in a stable order, e.g. "MAR=1 MCAR=2".
func formatCounts(counts map[mechanism.Mechanism]int) string {
	if len(counts) == 0 {
		return "no corrupted columns"
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[mechanism.Mechanism(k)]))
	}
	return strings.Join(parts, " ")
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listStudies, "studies", false, "list studies")
	listCmd.Flags().BoolVar(&listRuns, "runs", false, "list runs in a study")
	listCmd.Flags().StringVarP(&listStudyName, "study", "s", "", "study name for --runs")
}
