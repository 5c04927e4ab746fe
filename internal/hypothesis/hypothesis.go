// Package hypothesis implements the paired significance tests used to
// compare fold score vectors.
package hypothesis

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrLengthMismatch = errors.New("paired samples differ in length")
	ErrTooFewSamples  = errors.New("paired test needs at least two pairs")
	ErrUnknownTest    = errors.New("unknown significance test")
)

// Alternative is the direction of the alternative hypothesis for a - b.
type Alternative int

const (
	TwoSided Alternative = iota
	Greater
	Less
)

func (a Alternative) String() string {
	switch a {
	case Greater:
		return "greater"
	case Less:
		return "less"
	default:
		return "two-sided"
	}
}

// Result is a test statistic and its p-value. Method names the test that
// actually ran, which differs from the configured one for Auto.
type Result struct {
	Statistic float64
	PValue    float64
	Method    string
}

// Test compares two paired samples.
type Test interface {
	Name() string
	Paired(a, b []float64, alt Alternative) (Result, error)
}

// ByName returns the test registered under name: ttest, wilcoxon or auto.
// An empty name selects the paired t-test.
func ByName(name string) (Test, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "ttest", "t", "t-test":
		return TTest{}, nil
	case "wilcoxon", "signed-rank":
		return Wilcoxon{}, nil
	case "auto":
		return Auto{Alpha: 0.05}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTest, name)
	}
}

// Names lists the accepted test names.
func Names() []string { return []string{"ttest", "wilcoxon", "auto"} }

func differences(a, b []float64) ([]float64, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(a), len(b))
	}
	if len(a) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewSamples, len(a))
	}
	d := make([]float64, len(a))
	for i := range a {
		d[i] = a[i] - b[i]
	}
	return d, nil
}
