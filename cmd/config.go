package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/errmech-cli/internal/config"
	"github.com/KaramelBytes/errmech-cli/internal/hypothesis"
	"github.com/KaramelBytes/errmech-cli/internal/learn"
	"github.com/KaramelBytes/errmech-cli/internal/logging"
	"github.com/KaramelBytes/errmech-cli/internal/mechanism"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set errmech configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "data_dir: %s\n", c.DataDir)
		fmt.Fprintf(out, "studies_dir: %s\n", c.StudiesDir)
		fmt.Fprintf(out, "folds: %d\n", c.Folds)
		fmt.Fprintf(out, "estimators: %d\n", c.Estimators)
		fmt.Fprintf(out, "learning_rate: %.3f\n", c.LearningRate)
		fmt.Fprintf(out, "max_depth: %d\n", c.MaxDepth)
		fmt.Fprintf(out, "metric: %s\n", c.Metric)
		fmt.Fprintf(out, "test: %s\n", c.Test)
		fmt.Fprintf(out, "mar_rule: %s\n", c.MARRule)
		fmt.Fprintf(out, "mnar_alpha: %g\n", c.MNARAlpha)
		fmt.Fprintf(out, "mar_alpha: %g\n", c.MARAlpha)
		if c.Seed != 0 {
			fmt.Fprintf(out, "seed: %d\n", c.Seed)
		} else {
			fmt.Fprintln(out, "seed: 0 (drawn per run)")
		}
		fmt.Fprintf(out, "round_digits: %d\n", c.RoundDigits)
		fmt.Fprintf(out, "log_level: %s\n", c.LogLevel)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := currentConfig()
		if err != nil {
			return err
		}
		if err := applySetting(c, key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func applySetting(c *cfgpkg.Global, key, val string) error {
	switch key {
	case "data_dir":
		c.DataDir = val
	case "studies_dir":
		c.StudiesDir = val
	case "folds":
		i, err := strconv.Atoi(val)
		if err != nil || i < 2 {
			return fmt.Errorf("invalid int for folds (need >= 2): %v", val)
		}
		c.Folds = i
	case "estimators":
		i, err := strconv.Atoi(val)
		if err != nil || i < 1 {
			return fmt.Errorf("invalid int for estimators: %v", val)
		}
		c.Estimators = i
	case "learning_rate":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("invalid float for learning_rate: %v", val)
		}
		c.LearningRate = f
	case "max_depth":
		i, err := strconv.Atoi(val)
		if err != nil || i < 1 {
			return fmt.Errorf("invalid int for max_depth: %v", val)
		}
		c.MaxDepth = i
	case "metric":
		m, err := learn.ParseMetric(val)
		if err != nil {
			return err
		}
		c.Metric = m.String()
	case "test":
		t, err := hypothesis.ByName(val)
		if err != nil {
			return err
		}
		c.Test = t.Name()
	case "mar_rule":
		r, err := mechanism.ParseRule(val)
		if err != nil {
			return err
		}
		c.MARRule = string(r)
	case "mnar_alpha", "mar_alpha":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f <= 0 || f >= 1 {
			return fmt.Errorf("invalid float for %s (need 0 < a < 1): %v", key, val)
		}
		if key == "mnar_alpha" {
			c.MNARAlpha = f
		} else {
			c.MARAlpha = f
		}
	case "seed":
		i, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid int for seed: %w", err)
		}
		c.Seed = i
	case "round_digits":
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for round_digits: %w", err)
		}
		c.RoundDigits = i
	case "log_level":
		if _, err := logging.New(val); err != nil {
			return err
		}
		c.LogLevel = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
