package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	DataDir    string `mapstructure:"data_dir" yaml:"data_dir"`
	StudiesDir string `mapstructure:"studies_dir" yaml:"studies_dir"`

	// Classifier trainer
	Folds        int     `mapstructure:"folds" yaml:"folds"`
	Estimators   int     `mapstructure:"estimators" yaml:"estimators"`
	LearningRate float64 `mapstructure:"learning_rate" yaml:"learning_rate"`
	MaxDepth     int     `mapstructure:"max_depth" yaml:"max_depth"`
	Metric       string  `mapstructure:"metric" yaml:"metric"`

	// Mechanism decision
	Test      string  `mapstructure:"test" yaml:"test"`
	MARRule   string  `mapstructure:"mar_rule" yaml:"mar_rule"`
	MNARAlpha float64 `mapstructure:"mnar_alpha" yaml:"mnar_alpha"`
	MARAlpha  float64 `mapstructure:"mar_alpha" yaml:"mar_alpha"`

	// Seed for label shuffling and fold assignment; 0 draws a fresh one per run.
	Seed        int64  `mapstructure:"seed" yaml:"seed"`
	RoundDigits int    `mapstructure:"round_digits" yaml:"round_digits"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".errmech"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.errmech/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := configDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env (.env included) > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	// A missing .env is the common case.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("ERRMECH")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data_dir", "datasets")
	v.SetDefault("studies_dir", "")
	v.SetDefault("folds", 20)
	v.SetDefault("estimators", 100)
	v.SetDefault("learning_rate", 0.1)
	v.SetDefault("max_depth", 6)
	v.SetDefault("metric", "accuracy")
	v.SetDefault("test", "ttest")
	v.SetDefault("mar_rule", "literal")
	v.SetDefault("mnar_alpha", 0.025)
	v.SetDefault("mar_alpha", 0.05)
	v.SetDefault("seed", 0)
	v.SetDefault("round_digits", 4)
	v.SetDefault("log_level", "info")

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// Resolve studies_dir default: ~/.errmech/studies
	if c.StudiesDir == "" {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		c.StudiesDir = filepath.Join(dir, "studies")
	}
	return &c, nil
}
