package learn

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// separable returns n rows where y is true exactly when feature 0 > 0.5;
// feature 1 is noise.
func separable(n int, seed int64) (*mat.Dense, []bool) {
	rng := rand.New(rand.NewSource(seed))
	x := mat.NewDense(n, 2, nil)
	y := make([]bool, n)
	for i := 0; i < n; i++ {
		v := rng.Float64()
		x.Set(i, 0, v)
		x.Set(i, 1, rng.Float64())
		y[i] = v > 0.5
	}
	return x, y
}

func TestBoosterLearnsThreshold(t *testing.T) {
	x, y := separable(200, 1)
	bst := Fit(Params{Estimators: 30}, x, y)
	assert.Equal(t, 30, bst.Trees())

	proba := bst.PredictProba(x)
	assert.GreaterOrEqual(t, Accuracy.Score(y, proba), 0.97)
}

func TestBoosterWithoutFeaturesPredictsBaseRate(t *testing.T) {
	y := []bool{true, false, false, false}
	bst := Fit(Params{Estimators: 5}, nil, y)
	assert.Nil(t, bst.PredictProba(nil))
	assert.InDelta(t, 0.25, bst.probaBinned(nil, 0), 0.05)
}

func TestStratifiedFoldsPartitionRows(t *testing.T) {
	y := make([]bool, 50)
	for i := 0; i < 10; i++ {
		y[i] = true
	}
	folds := StratifiedFolds(y, 5, rand.New(rand.NewSource(3)))
	require.Len(t, folds, 5)

	var all []int
	for _, f := range folds {
		pos := 0
		for _, r := range f {
			if y[r] {
				pos++
			}
		}
		assert.Equal(t, 2, pos)
		assert.Len(t, f, 10)
		all = append(all, f...)
	}
	sort.Ints(all)
	for i, r := range all {
		assert.Equal(t, i, r)
	}
}

func TestBaggerScoresEveryFold(t *testing.T) {
	x, y := separable(120, 2)
	b := &Bagger{Params: Params{Estimators: 20}, Folds: 6, Metric: Accuracy}
	res, err := b.FitFolds(context.Background(), x, y, rand.New(rand.NewSource(9)))
	require.NoError(t, err)
	assert.Equal(t, "accuracy", res.Metric)
	require.Len(t, res.Scores, 6)
	assert.Greater(t, res.Mean(), 0.85)

	again, err := b.FitFolds(context.Background(), x, y, rand.New(rand.NewSource(9)))
	require.NoError(t, err)
	assert.Equal(t, res.Scores, again.Scores)
}

func TestBaggerRejectsTooFewRows(t *testing.T) {
	x, y := separable(4, 3)
	_, err := NewBagger().FitFolds(context.Background(), x, y, rand.New(rand.NewSource(1)))
	assert.True(t, errors.Is(err, ErrTooFewRows))
}

func TestBaggerHonoursCancellation(t *testing.T) {
	x, y := separable(40, 4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := &Bagger{Params: Params{Estimators: 5}, Folds: 4}
	_, err := b.FitFolds(ctx, x, y, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMetrics(t *testing.T) {
	y := []bool{true, true, false, false}
	p := []float64{0.9, 0.4, 0.6, 0.1}

	assert.InDelta(t, 0.5, Accuracy.Score(y, p), 1e-12)
	assert.InDelta(t, 0.5, BalancedAccuracy.Score(y, p), 1e-12)
	assert.InDelta(t, 0.5, F1.Score(y, p), 1e-12)
	assert.InDelta(t, 0.75, ROCAUC.Score(y, p), 1e-12)
	assert.Less(t, LogLoss.Score(y, p), 0.0)

	assert.Equal(t, 0.5, ROCAUC.Score([]bool{true, true}, []float64{0.2, 0.8}))
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric("")
	require.NoError(t, err)
	assert.Equal(t, Accuracy, m)

	m, err = ParseMetric(" ROC_AUC ")
	require.NoError(t, err)
	assert.Equal(t, ROCAUC, m)

	_, err = ParseMetric("mcc")
	assert.ErrorIs(t, err, ErrUnknownMetric)
}
