package mechanism_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/errmech-cli/internal/hypothesis"
	"github.com/KaramelBytes/errmech-cli/internal/mechanism"
)

var (
	obs    = []float64{0.80, 0.82, 0.81, 0.79, 0.83, 0.80, 0.81, 0.82}
	obsRnd = []float64{0.50, 0.52, 0.49, 0.51, 0.50, 0.48, 0.53, 0.50}
)

func add(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}

func TestClassifyMNAR(t *testing.T) {
	perf := mechanism.Performance{
		Err:         add(obs, []float64{0.10, 0.12, 0.09, 0.11, 0.10, 0.13, 0.08, 0.11}),
		ErrShuffled: obsRnd,
		Obs:         obs,
		ObsShuffled: obsRnd,
	}
	for _, tst := range []hypothesis.Test{hypothesis.TTest{}, hypothesis.Wilcoxon{}} {
		c := mechanism.NewClassifier()
		c.Test = tst
		d, err := c.Classify(perf)
		require.NoError(t, err)
		assert.Equal(t, mechanism.MNAR, d.Mechanism, tst.Name())
		assert.Nil(t, d.P3, "MNAR returns before the third test")
		assert.Less(t, d.P1, 0.025)
		assert.Less(t, d.P2, 0.025)
	}
}

func TestClassifyMARWithoutAddedValueFromTargetColumn(t *testing.T) {
	err := add(obs, []float64{0.01, -0.01, 0.00, 0.02, -0.02, 0.01, -0.01, 0.00})
	perf := mechanism.Performance{
		Err:         err,
		ErrShuffled: add(err, []float64{0.02, -0.01, 0.01, -0.02, 0.01, -0.01, 0.02, -0.02}),
		Obs:         obs,
		ObsShuffled: obsRnd,
	}

	c := mechanism.NewClassifier()
	c.Rule = mechanism.RuleDocumented
	d, e := c.Classify(perf)
	require.NoError(t, e)
	assert.Equal(t, mechanism.MAR, d.Mechanism)
	require.NotNil(t, d.P3)
	assert.Less(t, *d.P3, 0.05)
	assert.GreaterOrEqual(t, d.P1, 0.05)

	// the literal rule needs err to beat obs, so the same scores are MCAR
	d, e = mechanism.NewClassifier().Classify(perf)
	require.NoError(t, e)
	assert.Equal(t, mechanism.MCAR, d.Mechanism)
}

func TestClassifyMARLiteralRule(t *testing.T) {
	err := add(obs, []float64{0.02, 0.03, 0.01, 0.04, 0.02, 0.03, 0.05, 0.01})
	perf := mechanism.Performance{
		Err:         err,
		ErrShuffled: add(err, []float64{0.01, -0.01, 0.02, -0.02, 0.01, -0.01, 0.02, -0.02}),
		Obs:         obs,
		ObsShuffled: obsRnd,
	}
	d, e := mechanism.NewClassifier().Classify(perf)
	require.NoError(t, e)
	assert.Equal(t, mechanism.MAR, d.Mechanism)
	assert.Less(t, d.P1, 0.05)
	assert.GreaterOrEqual(t, d.P2, 0.025)

	c := mechanism.NewClassifier()
	c.Rule = mechanism.RuleDocumented
	d, e = c.Classify(perf)
	require.NoError(t, e)
	assert.Equal(t, mechanism.MCAR, d.Mechanism)
}

func TestClassifyMCAR(t *testing.T) {
	noise := []float64{0.01, -0.01, 0.02, -0.02, 0.01, -0.01, 0.02, -0.02}
	perf := mechanism.Performance{
		Err:         add(obs, noise),
		ErrShuffled: obs,
		Obs:         obs,
		ObsShuffled: add(obs, []float64{-0.01, 0.01, -0.02, 0.02, 0.02, -0.02, 0.01, -0.01}),
	}
	for _, rule := range []mechanism.Rule{mechanism.RuleLiteral, mechanism.RuleDocumented} {
		c := mechanism.NewClassifier()
		c.Rule = rule
		d, err := c.Classify(perf)
		require.NoError(t, err)
		assert.Equal(t, mechanism.MCAR, d.Mechanism, string(rule))
	}
}

func TestClassifyPropagatesTestErrors(t *testing.T) {
	_, err := mechanism.NewClassifier().Classify(mechanism.Performance{
		Err: []float64{1, 2, 3}, Obs: []float64{1, 2}, ErrShuffled: []float64{1, 2, 3}, ObsShuffled: []float64{1, 2},
	})
	assert.ErrorIs(t, err, hypothesis.ErrLengthMismatch)
}

func TestParseRule(t *testing.T) {
	r, err := mechanism.ParseRule("")
	require.NoError(t, err)
	assert.Equal(t, mechanism.RuleLiteral, r)
	r, err = mechanism.ParseRule("Documented")
	require.NoError(t, err)
	assert.Equal(t, mechanism.RuleDocumented, r)
	_, err = mechanism.ParseRule("strict")
	assert.ErrorIs(t, err, mechanism.ErrUnknownRule)
}
