package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/errmech-cli/internal/config"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	chdir(t, home)

	c, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "datasets", c.DataDir)
	assert.Equal(t, filepath.Join(home, ".errmech", "studies"), c.StudiesDir)
	assert.Equal(t, 20, c.Folds)
	assert.Equal(t, 100, c.Estimators)
	assert.Equal(t, 0.1, c.LearningRate)
	assert.Equal(t, 6, c.MaxDepth)
	assert.Equal(t, "ttest", c.Test)
	assert.Equal(t, "literal", c.MARRule)
	assert.Equal(t, 0.025, c.MNARAlpha)
	assert.Equal(t, 0.05, c.MARAlpha)
	assert.Equal(t, int64(0), c.Seed)
}

func TestSaveAndReloadWithEnvOverride(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	chdir(t, home)
	path := filepath.Join(home, "cfg.yaml")

	c, err := config.Load(path)
	require.NoError(t, err)
	c.Folds = 10
	c.Test = "wilcoxon"
	require.NoError(t, config.Save(c, path))

	t.Setenv("ERRMECH_SEED", "1234")
	got, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Folds)
	assert.Equal(t, "wilcoxon", got.Test)
	assert.Equal(t, int64(1234), got.Seed)
}

func TestDotEnvIsLoaded(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	chdir(t, home)
	require.NoError(t, os.WriteFile(filepath.Join(home, ".env"), []byte("ERRMECH_METRIC=roc_auc\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("ERRMECH_METRIC") })

	c, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "roc_auc", c.Metric)
}
