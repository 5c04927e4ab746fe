package hypothesis

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Auto runs the t-test when the paired differences look normal and the
// signed-rank test otherwise. Normality is judged by Jarque-Bera at Alpha.
type Auto struct {
	Alpha float64
}

func (Auto) Name() string { return "auto" }

func (a Auto) Paired(x, y []float64, alt Alternative) (Result, error) {
	d, err := differences(x, y)
	if err != nil {
		return Result{}, err
	}
	alpha := a.Alpha
	if alpha <= 0 {
		alpha = 0.05
	}
	if _, p := JarqueBera(d); p < alpha {
		return Wilcoxon{}.Paired(x, y, alt)
	}
	return TTest{}.Paired(x, y, alt)
}

// JarqueBera tests the normality of x. Constant samples count as normal.
func JarqueBera(x []float64) (jb, p float64) {
	n := float64(len(x))
	if n < 4 {
		return 0, 1
	}
	if _, sd := stat.MeanStdDev(x, nil); sd == 0 || math.IsNaN(sd) {
		return 0, 1
	}
	s := stat.Skew(x, nil)
	k := stat.ExKurtosis(x, nil)
	jb = n / 6 * (s*s + k*k/4)
	if math.IsNaN(jb) {
		return 0, 1
	}
	return jb, distuv.ChiSquared{K: 2}.Survival(jb)
}
