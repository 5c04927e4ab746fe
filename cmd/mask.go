package cmd

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/errmech-cli/internal/mask"
	"github.com/KaramelBytes/errmech-cli/internal/table"
	"github.com/KaramelBytes/errmech-cli/internal/utils"
)

var (
	maskDataDir string
	maskOutput  string
)

var maskCmd = &cobra.Command{
	Use:   "mask <dataset>",
	Short: "Show per-column error counts or export the error mask",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		base, err := dataDir(cmd, maskDataDir, c)
		if err != nil {
			return err
		}
		clean, dirty, err := table.LoadDataset(base, args[0])
		if err != nil {
			return err
		}
		m, err := mask.Build(clean, dirty)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if maskOutput != "" {
			t, err := m.Table()
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := t.WriteCSV(&buf); err != nil {
				return err
			}
			if err := utils.SafeWriteFile(maskOutput, buf.Bytes()); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Wrote %dx%d error mask to %s\n", m.Rows(), len(m.Columns()), maskOutput)
			return nil
		}

		fmt.Fprintf(out, "Dataset: %s (%d rows, %d columns)\n", args[0], m.Rows(), len(m.Columns()))
		for _, col := range m.Columns() {
			n := m.Count(col)
			note := ""
			switch {
			case n == 0:
				note = " (skipped)"
			case m.SingleClass(col):
				note = " (every row corrupted)"
			}
			fmt.Fprintf(out, "- %s: %d errors, %.0f%% of all%s\n", col, n, m.Fraction(col)*100, note)
		}
		fmt.Fprintf(out, "Total errors: %d\n", m.Total())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(maskCmd)
	maskCmd.Flags().StringVar(&maskDataDir, "data-dir", "", "base directory holding <dataset>/{clean,dirty}.csv (overrides config)")
	maskCmd.Flags().StringVarP(&maskOutput, "output", "o", "", "write the pos_ mask as CSV to this path")
}
