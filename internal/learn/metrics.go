package learn

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ErrUnknownMetric is returned by ParseMetric for unsupported names.
var ErrUnknownMetric = errors.New("unknown evaluation metric")

// Metric is a validation score where higher is better.
type Metric string

const (
	Accuracy         Metric = "accuracy"
	BalancedAccuracy Metric = "balanced_accuracy"
	ROCAUC           Metric = "roc_auc"
	F1               Metric = "f1"
	LogLoss          Metric = "log_loss"
)

// DefaultMetric is used for binary targets when none is configured.
const DefaultMetric = Accuracy

// Metrics lists the supported metric names.
func Metrics() []Metric {
	return []Metric{Accuracy, BalancedAccuracy, ROCAUC, F1, LogLoss}
}

// ParseMetric resolves a metric name; empty selects DefaultMetric.
func ParseMetric(s string) (Metric, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultMetric, nil
	}
	for _, m := range Metrics() {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownMetric, s)
}

func (m Metric) String() string { return string(m) }

// Score evaluates predicted probabilities against the true labels.
// log_loss is negated so that higher is better for every metric.
func (m Metric) Score(y []bool, proba []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	switch m {
	case BalancedAccuracy:
		return balancedAccuracy(y, proba)
	case ROCAUC:
		return rocAUC(y, proba)
	case F1:
		return f1(y, proba)
	case LogLoss:
		return -logLoss(y, proba)
	default:
		return accuracy(y, proba)
	}
}

type confusion struct{ tp, tn, fp, fn int }

func confuse(y []bool, proba []float64) confusion {
	var c confusion
	for i, truth := range y {
		pred := proba[i] >= 0.5
		switch {
		case truth && pred:
			c.tp++
		case truth && !pred:
			c.fn++
		case !truth && pred:
			c.fp++
		default:
			c.tn++
		}
	}
	return c
}

func accuracy(y []bool, proba []float64) float64 {
	c := confuse(y, proba)
	return float64(c.tp+c.tn) / float64(len(y))
}

// balancedAccuracy averages the recall of the classes present in y.
func balancedAccuracy(y []bool, proba []float64) float64 {
	c := confuse(y, proba)
	var sum float64
	var k int
	if c.tp+c.fn > 0 {
		sum += float64(c.tp) / float64(c.tp+c.fn)
		k++
	}
	if c.tn+c.fp > 0 {
		sum += float64(c.tn) / float64(c.tn+c.fp)
		k++
	}
	return sum / float64(k)
}

func f1(y []bool, proba []float64) float64 {
	c := confuse(y, proba)
	d := 2*c.tp + c.fp + c.fn
	if d == 0 {
		return 0
	}
	return float64(2*c.tp) / float64(d)
}

// rocAUC is the Mann-Whitney estimate with averaged ranks for ties.
// A fold holding a single class scores 0.5.
func rocAUC(y []bool, proba []float64) float64 {
	n := len(y)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return proba[idx[a]] < proba[idx[b]] })
	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && proba[idx[j+1]] == proba[idx[i]] {
			j++
		}
		r := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = r
		}
		i = j + 1
	}
	var pos, neg int
	var sumPos float64
	for i, truth := range y {
		if truth {
			pos++
			sumPos += ranks[i]
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0.5
	}
	return (sumPos - float64(pos*(pos+1))/2) / float64(pos*neg)
}

func logLoss(y []bool, proba []float64) float64 {
	const eps = 1e-15
	var sum float64
	for i, truth := range y {
		p := clamp(proba[i], eps, 1-eps)
		if truth {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(len(y))
}
