package learn

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Params configures a gradient-boosted tree ensemble for a binary target.
type Params struct {
	Estimators     int
	LearningRate   float64
	MaxDepth       int
	MinChildWeight float64 // minimum hessian sum per leaf
	Lambda         float64 // L2 regularisation on leaf weights
	MaxBins        int
}

// DefaultParams returns the fixed ensemble configuration: 100 trees,
// learning rate 0.1, depth 6.
func DefaultParams() Params {
	return Params{
		Estimators:     100,
		LearningRate:   0.1,
		MaxDepth:       6,
		MinChildWeight: 1,
		Lambda:         1,
		MaxBins:        255,
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.Estimators <= 0 {
		p.Estimators = d.Estimators
	}
	if p.LearningRate <= 0 {
		p.LearningRate = d.LearningRate
	}
	if p.MaxDepth <= 0 {
		p.MaxDepth = d.MaxDepth
	}
	if p.MinChildWeight < 0 {
		p.MinChildWeight = 0
	}
	if p.Lambda < 0 {
		p.Lambda = 0
	}
	if p.MaxBins < 2 {
		p.MaxBins = d.MaxBins
	}
	return p
}

// binner maps raw feature values to histogram bins. The last bin of every
// feature holds missing (NaN) values.
type binner struct {
	upper [][]float64
}

func newBinner(x mat.Matrix, maxBins int) *binner {
	if x == nil {
		return &binner{}
	}
	rows, cols := x.Dims()
	b := &binner{upper: make([][]float64, cols)}
	vals := make([]float64, 0, rows)
	for j := 0; j < cols; j++ {
		vals = vals[:0]
		for i := 0; i < rows; i++ {
			if v := x.At(i, j); !math.IsNaN(v) {
				vals = append(vals, v)
			}
		}
		sort.Float64s(vals)
		uniq := vals[:0:0]
		for i, v := range vals {
			if i == 0 || v != vals[i-1] {
				uniq = append(uniq, v)
			}
		}
		if len(uniq) <= maxBins {
			b.upper[j] = uniq
			continue
		}
		edges := make([]float64, 0, maxBins)
		for k := 1; k < maxBins; k++ {
			e := vals[k*len(vals)/maxBins]
			if len(edges) == 0 || e > edges[len(edges)-1] {
				edges = append(edges, e)
			}
		}
		if last := uniq[len(uniq)-1]; edges[len(edges)-1] < last {
			edges = append(edges, last)
		}
		b.upper[j] = edges
	}
	return b
}

func (b *binner) features() int { return len(b.upper) }

// nbins includes the missing bin.
func (b *binner) nbins(j int) int { return len(b.upper[j]) + 1 }

func (b *binner) bin(j int, v float64) int {
	u := b.upper[j]
	if math.IsNaN(v) {
		return len(u)
	}
	i := sort.SearchFloat64s(u, v)
	if i >= len(u) {
		i = len(u) - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// transform returns the binned matrix, feature-major.
func (b *binner) transform(x mat.Matrix, rows int) [][]int {
	out := make([][]int, b.features())
	for j := range out {
		col := make([]int, rows)
		for i := 0; i < rows; i++ {
			col[i] = b.bin(j, x.At(i, j))
		}
		out[j] = col
	}
	return out
}

type node struct {
	feature   int // -1 for leaves
	threshold int // rows with bin <= threshold go left
	left      int
	right     int
	value     float64
}

type tree struct {
	nodes []node
}

func (t *tree) predict(bins [][]int, row int) float64 {
	i := 0
	for {
		n := t.nodes[i]
		if n.feature < 0 {
			return n.value
		}
		if bins[n.feature][row] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
}

// Booster is a fitted ensemble of regression trees on the logistic loss.
type Booster struct {
	params Params
	binner *binner
	base   float64
	trees  []*tree
}

// Trees returns the number of fitted trees.
func (b *Booster) Trees() int { return len(b.trees) }

// fit trains on the given rows of a pre-binned matrix.
func fitBooster(p Params, bn *binner, bins [][]int, y []bool, rows []int) *Booster {
	bst := &Booster{params: p, binner: bn}
	pos := 0
	for _, r := range rows {
		if y[r] {
			pos++
		}
	}
	rate := clamp(float64(pos)/float64(len(rows)), 1e-6, 1-1e-6)
	bst.base = math.Log(rate / (1 - rate))

	n := len(y)
	margin := make([]float64, n)
	for _, r := range rows {
		margin[r] = bst.base
	}
	g := make([]float64, n)
	h := make([]float64, n)
	work := make([]int, len(rows))
	for k := 0; k < p.Estimators; k++ {
		for _, r := range rows {
			pr := sigmoid(margin[r])
			t := 0.0
			if y[r] {
				t = 1
			}
			g[r] = pr - t
			h[r] = math.Max(pr*(1-pr), 1e-16)
		}
		copy(work, rows)
		tr := &tree{}
		grow(tr, p, bn, bins, work, g, h, 0)
		bst.trees = append(bst.trees, tr)
		for _, r := range rows {
			margin[r] += tr.predict(bins, r)
		}
	}
	return bst
}

// grow appends the subtree for rows to tr and returns its root index.
// rows is reordered in place.
func grow(tr *tree, p Params, bn *binner, bins [][]int, rows []int, g, h []float64, depth int) int {
	idx := len(tr.nodes)
	tr.nodes = append(tr.nodes, node{feature: -1})

	var G, H float64
	for _, r := range rows {
		G += g[r]
		H += h[r]
	}
	leaf := -G / (H + p.Lambda) * p.LearningRate
	if depth >= p.MaxDepth || len(rows) < 2 || H < 2*p.MinChildWeight {
		tr.nodes[idx].value = leaf
		return idx
	}

	parent := G * G / (H + p.Lambda)
	bestGain, bestFeat, bestThr := 1e-12, -1, 0
	for j := 0; j < bn.features(); j++ {
		nb := bn.nbins(j)
		if nb < 2 {
			continue
		}
		hg := make([]float64, nb)
		hh := make([]float64, nb)
		col := bins[j]
		for _, r := range rows {
			hg[col[r]] += g[r]
			hh[col[r]] += h[r]
		}
		var GL, HL float64
		for t := 0; t < nb-1; t++ {
			GL += hg[t]
			HL += hh[t]
			HR := H - HL
			if HL < p.MinChildWeight || HR < p.MinChildWeight {
				continue
			}
			GR := G - GL
			gain := GL*GL/(HL+p.Lambda) + GR*GR/(HR+p.Lambda) - parent
			if gain > bestGain {
				bestGain, bestFeat, bestThr = gain, j, t
			}
		}
	}
	if bestFeat < 0 {
		tr.nodes[idx].value = leaf
		return idx
	}

	col := bins[bestFeat]
	i, k := 0, len(rows)-1
	for i <= k {
		if col[rows[i]] <= bestThr {
			i++
		} else {
			rows[i], rows[k] = rows[k], rows[i]
			k--
		}
	}
	left := grow(tr, p, bn, bins, rows[:i], g, h, depth+1)
	right := grow(tr, p, bn, bins, rows[i:], g, h, depth+1)
	tr.nodes[idx] = node{feature: bestFeat, threshold: bestThr, left: left, right: right}
	return idx
}

func (b *Booster) probaBinned(bins [][]int, row int) float64 {
	m := b.base
	for _, t := range b.trees {
		m += t.predict(bins, row)
	}
	return sigmoid(m)
}

// PredictProba returns P(y=true) for every row of x.
func (b *Booster) PredictProba(x mat.Matrix) []float64 {
	if x == nil {
		return nil
	}
	rows, _ := x.Dims()
	bins := b.binner.transform(x, rows)
	out := make([]float64, rows)
	for i := range out {
		out[i] = b.probaBinned(bins, i)
	}
	return out
}

// Fit trains a booster on every row of x.
func Fit(p Params, x mat.Matrix, y []bool) *Booster {
	p = p.withDefaults()
	bn := newBinner(x, p.MaxBins)
	var bins [][]int
	if x != nil {
		bins = bn.transform(x, len(y))
	}
	rows := make([]int, len(y))
	for i := range rows {
		rows[i] = i
	}
	return fitBooster(p, bn, bins, y, rows)
}

func sigmoid(m float64) float64 { return 1 / (1 + math.Exp(-m)) }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
