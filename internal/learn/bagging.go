package learn

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrTooFewRows is returned when a dataset has fewer rows than folds.
var ErrTooFewRows = errors.New("fewer rows than bagging folds")

// DefaultFolds is the number of bagged folds per fit.
const DefaultFolds = 20

// FoldResult holds one validation score per bagged fold.
type FoldResult struct {
	Scores []float64
	Metric string
}

// Mean is the average fold score.
func (r *FoldResult) Mean() float64 {
	if r == nil || len(r.Scores) == 0 {
		return 0
	}
	return stat.Mean(r.Scores, nil)
}

// Fitter fits a binary classifier and reports out-of-fold scores.
type Fitter interface {
	FitFolds(ctx context.Context, x mat.Matrix, y []bool, rng *rand.Rand) (*FoldResult, error)
}

// Bagger trains one booster per stratified fold on the remaining folds and
// scores it on the held-out one. Models are not stacked or kept.
type Bagger struct {
	Params Params
	Folds  int
	Metric Metric
}

// NewBagger returns a Bagger with the default ensemble configuration.
func NewBagger() *Bagger {
	return &Bagger{Params: DefaultParams(), Folds: DefaultFolds, Metric: DefaultMetric}
}

// FitFolds implements Fitter. x may be nil when there are no feature columns.
func (b *Bagger) FitFolds(ctx context.Context, x mat.Matrix, y []bool, rng *rand.Rand) (*FoldResult, error) {
	if rng == nil {
		return nil, errors.New("bagger: nil random source")
	}
	k := b.Folds
	if k <= 0 {
		k = DefaultFolds
	}
	metric := b.Metric
	if metric == "" {
		metric = DefaultMetric
	}
	n := len(y)
	if x != nil {
		if r, _ := x.Dims(); r != n {
			return nil, fmt.Errorf("bagger: %d feature rows for %d labels", r, n)
		}
	}
	if n < k {
		return nil, fmt.Errorf("%w: %d rows, %d folds", ErrTooFewRows, n, k)
	}

	p := b.Params.withDefaults()
	bn := newBinner(x, p.MaxBins)
	var bins [][]int
	if x != nil {
		bins = bn.transform(x, n)
	}

	folds := StratifiedFolds(y, k, rng)
	inFold := make([]int, n)
	for f, rows := range folds {
		for _, r := range rows {
			inFold[r] = f
		}
	}
	res := &FoldResult{Scores: make([]float64, 0, k), Metric: metric.String()}
	train := make([]int, 0, n)
	for f, held := range folds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		train = train[:0]
		for r := 0; r < n; r++ {
			if inFold[r] != f {
				train = append(train, r)
			}
		}
		bst := fitBooster(p, bn, bins, y, train)
		yv := make([]bool, len(held))
		pv := make([]float64, len(held))
		for i, r := range held {
			yv[i] = y[r]
			pv[i] = bst.probaBinned(bins, r)
		}
		res.Scores = append(res.Scores, metric.Score(yv, pv))
	}
	return res, nil
}

// StratifiedFolds splits row indices into k folds keeping the class ratio
// of y roughly equal across folds. Requires len(y) >= k.
func StratifiedFolds(y []bool, k int, rng *rand.Rand) [][]int {
	var pos, neg []int
	for i, v := range y {
		if v {
			pos = append(pos, i)
		} else {
			neg = append(neg, i)
		}
	}
	rng.Shuffle(len(pos), func(i, j int) { pos[i], pos[j] = pos[j], pos[i] })
	rng.Shuffle(len(neg), func(i, j int) { neg[i], neg[j] = neg[j], neg[i] })
	folds := make([][]int, k)
	f := 0
	for _, r := range append(pos, neg...) {
		folds[f] = append(folds[f], r)
		f = (f + 1) % k
	}
	return folds
}
