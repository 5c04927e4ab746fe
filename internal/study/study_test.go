package study_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/errmech-cli/internal/mechanism"
	"github.com/KaramelBytes/errmech-cli/internal/pipeline"
	"github.com/KaramelBytes/errmech-cli/internal/study"
)

func TestSaveLoadRoundTripsRuns(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "s1")
	s := study.NewStudy("s1", "hospital sweep", dir)
	assert.False(t, study.Exists(dir))

	p3 := 0.2
	run := s.AddRun(" hospital ", study.Settings{Seed: 7, Folds: 20, Test: "ttest", Metric: "accuracy", Rule: "literal"},
		[]pipeline.ColumnResult{
			{Dataset: "hospital", Label: "city", Errors: 3, Mechanism: mechanism.MCAR,
				Decision: &mechanism.Decision{Mechanism: mechanism.MCAR, P1: 0.5, P2: 0.4, P3: &p3, Method: "ttest"}},
			{Dataset: "hospital", Label: "zip", Errors: 1, Mechanism: mechanism.ECAR},
		})
	require.NotEmpty(t, run.ID)
	assert.Equal(t, "hospital", run.Dataset)
	require.NoError(t, s.Save())
	assert.True(t, study.Exists(dir))

	got, err := study.LoadStudy(dir)
	require.NoError(t, err)
	assert.Equal(t, "hospital sweep", got.Description)
	assert.Equal(t, dir, got.RootDir())
	require.Contains(t, got.Runs, run.ID)
	loaded := got.Runs[run.ID]
	assert.Equal(t, int64(7), loaded.Settings.Seed)
	require.Len(t, loaded.Results, 2)
	assert.Equal(t, 0.2, *loaded.Results[0].Decision.P3)
	assert.Nil(t, loaded.Results[1].Decision)

	counts := loaded.Counts()
	assert.Equal(t, 1, counts[mechanism.MCAR])
	assert.Equal(t, 1, counts[mechanism.ECAR])
}

func TestLoadStudyMissing(t *testing.T) {
	_, err := study.LoadStudy(t.TempDir())
	assert.ErrorContains(t, err, "study not found")
}

func TestSaveRequiresRoot(t *testing.T) {
	var s study.Study
	assert.Error(t, s.Save())
}

func TestLatestPicksNewestPerDataset(t *testing.T) {
	s := study.NewStudy("s", "", t.TempDir())
	old := s.AddRun("a", study.Settings{Seed: 1}, nil)
	old.CreatedAt = time.Now().Add(-time.Hour)
	newer := s.AddRun("a", study.Settings{Seed: 2}, nil)
	other := s.AddRun("b", study.Settings{Seed: 3}, nil)

	runs := s.SortedRuns()
	require.Len(t, runs, 3)
	assert.Equal(t, old.ID, runs[0].ID)

	latest := s.Latest()
	assert.Equal(t, newer.ID, latest["a"].ID)
	assert.Equal(t, other.ID, latest["b"].ID)
}
