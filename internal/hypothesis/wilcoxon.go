package hypothesis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// exactLimit is the largest number of non-zero differences for which the
// exact null distribution is enumerated.
const exactLimit = 50

// Wilcoxon is the paired signed-rank test. Zero differences are dropped.
// The statistic is the positive rank sum.
type Wilcoxon struct{}

func (Wilcoxon) Name() string { return "wilcoxon" }

func (Wilcoxon) Paired(a, b []float64, alt Alternative) (Result, error) {
	d, err := differences(a, b)
	if err != nil {
		return Result{}, err
	}
	nz := d[:0:0]
	for _, v := range d {
		if v != 0 {
			nz = append(nz, v)
		}
	}
	res := Result{Method: "wilcoxon"}
	n := len(nz)
	if n == 0 {
		res.PValue = 1
		return res, nil
	}
	ranks, ties := absRanks(nz)
	var wPlus float64
	for i, v := range nz {
		if v > 0 {
			wPlus += ranks[i]
		}
	}
	res.Statistic = wPlus

	if n <= exactLimit && len(ties) == 0 {
		res.PValue = exactPValue(n, int(wPlus), alt)
		return res, nil
	}

	fn := float64(n)
	mean := fn * (fn + 1) / 4
	variance := fn * (fn + 1) * (2*fn + 1) / 24
	for _, t := range ties {
		ft := float64(t)
		variance -= (ft*ft*ft - ft) / 48
	}
	if variance <= 0 {
		res.PValue = 1
		return res, nil
	}
	z := (wPlus - mean) / math.Sqrt(variance)
	switch alt {
	case Greater:
		res.PValue = distuv.UnitNormal.Survival(z)
	case Less:
		res.PValue = distuv.UnitNormal.CDF(z)
	default:
		res.PValue = math.Min(1, 2*distuv.UnitNormal.Survival(math.Abs(z)))
	}
	return res, nil
}

// absRanks ranks |v| with averaged ranks for ties and returns the sizes of
// the tie groups.
func absRanks(v []float64) ([]float64, []int) {
	n := len(v)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return math.Abs(v[idx[a]]) < math.Abs(v[idx[b]]) })
	ranks := make([]float64, n)
	var ties []int
	for i := 0; i < n; {
		j := i
		for j+1 < n && math.Abs(v[idx[j+1]]) == math.Abs(v[idx[i]]) {
			j++
		}
		r := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = r
		}
		if j > i {
			ties = append(ties, j-i+1)
		}
		i = j + 1
	}
	return ranks, ties
}

// exactPValue enumerates the null distribution of the positive rank sum for
// ranks 1..n.
func exactPValue(n, w int, alt Alternative) float64 {
	top := n * (n + 1) / 2
	counts := make([]float64, top+1)
	counts[0] = 1
	for r := 1; r <= n; r++ {
		for s := top; s >= r; s-- {
			counts[s] += counts[s-r]
		}
	}
	total := math.Pow(2, float64(n))
	upper := func(w int) float64 {
		var c float64
		for s := w; s <= top; s++ {
			c += counts[s]
		}
		return c / total
	}
	lower := func(w int) float64 {
		var c float64
		for s := 0; s <= w; s++ {
			c += counts[s]
		}
		return c / total
	}
	switch alt {
	case Greater:
		return upper(w)
	case Less:
		return lower(w)
	default:
		return math.Min(1, 2*math.Min(upper(w), lower(w)))
	}
}
