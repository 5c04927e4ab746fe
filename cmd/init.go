package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/errmech-cli/internal/study"
	"github.com/KaramelBytes/errmech-cli/internal/utils"
)

var (
	initDescription string
)

var initCmd = &cobra.Command{
	Use:   "init <study-name>",
	Short: "Initialize a new study to record inference runs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		studyDir, err := resolveStudyDirByName(name)
		if err != nil {
			return err
		}
		// Refuse to overwrite an existing study.
		if info, err := os.Stat(studyDir); err == nil && info.IsDir() {
			if study.Exists(studyDir) {
				return fmt.Errorf("study already exists at %s", studyDir)
			}
			entries, err := os.ReadDir(studyDir)
			if err != nil {
				return fmt.Errorf("inspect study directory: %w", err)
			}
			if len(entries) > 0 {
				return fmt.Errorf("directory %s already exists and is not empty; refusing to initialize study", studyDir)
			}
		} else if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("stat study directory: %w", err)
		}
		if err := utils.EnsureDir(studyDir); err != nil {
			return err
		}
		s := study.NewStudy(name, initDescription, studyDir)
		if err := s.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Study initialized: %s\n", studyDir)
		return nil
	},
}

func defaultStudiesDir() (string, error) {
	c, err := currentConfig()
	if err != nil {
		return "", err
	}
	dir, err := utils.ExpandHome(c.StudiesDir)
	if err != nil {
		return "", err
	}
	if err := utils.EnsureDir(dir); err != nil {
		return "", err
	}
	return dir, nil
}

func resolveStudyDirByName(name string) (string, error) {
	if name == "" {
		return "", errors.New("study name is required")
	}
	if name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid study name %q", name)
	}
	root, err := defaultStudiesDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, name), nil
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVarP(&initDescription, "desc", "d", "", "study description")
}
