package hypothesis

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// TTest is the paired Student t-test.
type TTest struct{}

func (TTest) Name() string { return "ttest" }

// Paired tests the mean of a - b against zero. When the differences have no
// spread the statistic is ±Inf (p 0 or 1 by direction), or 0 with p = 1 when
// they are all zero.
func (TTest) Paired(a, b []float64, alt Alternative) (Result, error) {
	d, err := differences(a, b)
	if err != nil {
		return Result{}, err
	}
	n := float64(len(d))
	mean, sd := stat.MeanStdDev(d, nil)
	res := Result{Method: "ttest"}
	if sd == 0 || math.IsNaN(sd) {
		switch {
		case mean > 0:
			res.Statistic = math.Inf(1)
		case mean < 0:
			res.Statistic = math.Inf(-1)
		default:
			res.PValue = 1
			return res, nil
		}
		res.PValue = degeneratePValue(res.Statistic, alt)
		return res, nil
	}
	t := mean / (sd / math.Sqrt(n))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: n - 1}
	res.Statistic = t
	switch alt {
	case Greater:
		res.PValue = dist.Survival(t)
	case Less:
		res.PValue = dist.CDF(t)
	default:
		res.PValue = math.Min(1, 2*dist.Survival(math.Abs(t)))
	}
	return res, nil
}

func degeneratePValue(t float64, alt Alternative) float64 {
	switch alt {
	case Greater:
		if t > 0 {
			return 0
		}
		return 1
	case Less:
		if t < 0 {
			return 0
		}
		return 1
	default:
		return 0
	}
}
