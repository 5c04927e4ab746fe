package features_test

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/errmech-cli/internal/features"
	"github.com/KaramelBytes/errmech-cli/internal/mask"
	"github.com/KaramelBytes/errmech-cli/internal/table"
)

func fixture(t *testing.T) (*table.Table, *mask.Mask) {
	t.Helper()
	clean, err := table.FromRecords("clean", [][]string{
		{"city", "zip", "temp"},
		{"berlin", "10115", "1.5"},
		{"paris", "75001", ""},
		{"berlin", "10117", "3"},
		{"rome", "00118", "4.25"},
		{"paris", "75002", "5"},
		{"rome", "00119", "6"},
	})
	require.NoError(t, err)
	dirty, err := table.FromRecords("dirty", [][]string{
		{"city", "zip", "temp"},
		{"berlln", "10115", "1.5"},
		{"paris", "75001", ""},
		{"berlin", "10117", "3"},
		{"rone", "00118", "4.25"},
		{"paris", "75002", "5"},
		{"rome", "00119", "6"},
	})
	require.NoError(t, err)
	m, err := mask.Build(clean, dirty)
	require.NoError(t, err)
	return clean, m
}

func TestBuildFeatureSets(t *testing.T) {
	clean, m := fixture(t)
	sets, err := features.Build(clean, m, "city", rand.New(rand.NewSource(7)))
	require.NoError(t, err)

	assert.Equal(t, []string{"city", "zip", "temp"}, sets.Err.Features)
	assert.Equal(t, []string{"zip", "temp"}, sets.Obs.Features)
	assert.Equal(t, "pos_city", sets.Err.Target)
	assert.Equal(t, "pos_city", sets.Obs.Target)
	assert.Equal(t, []bool{true, false, false, true, false, false}, sets.Err.Y)
	assert.Equal(t, sets.Err.Y, sets.Obs.Y)

	r, c := sets.Err.X.Dims()
	assert.Equal(t, 6, r)
	assert.Equal(t, 3, c)
	_, c = sets.Obs.X.Dims()
	assert.Equal(t, 2, c)

	assert.Equal(t, "err", sets.Err.Name())
	assert.Equal(t, "obs_rnd", sets.ObsShuffled.Name())
}

func TestShuffledLabelIsSharedPermutation(t *testing.T) {
	clean, m := fixture(t)
	sets, err := features.Build(clean, m, "city", rand.New(rand.NewSource(42)))
	require.NoError(t, err)

	assert.Equal(t, sets.ErrShuffled.Y, sets.ObsShuffled.Y)
	assert.ElementsMatch(t, sets.Err.Y, sets.ErrShuffled.Y)
	assert.Same(t, sets.Err.X, sets.ErrShuffled.X)

	again, err := features.Build(clean, m, "city", rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	assert.Equal(t, sets.ErrShuffled.Y, again.ErrShuffled.Y)
}

func TestBuildRejectsSingleClassLabel(t *testing.T) {
	clean, m := fixture(t)
	_, err := features.Build(clean, m, "zip", rand.New(rand.NewSource(1)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, features.ErrNoVariation))
}

func TestEncodeKinds(t *testing.T) {
	clean, _ := fixture(t)
	x, kinds := features.Encode(clean)
	assert.Equal(t, []features.Kind{features.Categorical, features.Numeric, features.Numeric}, kinds)

	// city codes follow first appearance: berlin=0, paris=1, rome=2
	assert.Equal(t, []float64{0, 1, 0, 2, 1, 2}, []float64{x.At(0, 0), x.At(1, 0), x.At(2, 0), x.At(3, 0), x.At(4, 0), x.At(5, 0)})
	assert.True(t, math.IsNaN(x.At(1, 2)))
	assert.Equal(t, 118.0, x.At(3, 1))
}
