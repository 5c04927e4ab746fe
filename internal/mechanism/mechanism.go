package mechanism

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/errmech-cli/internal/hypothesis"
)

// Mechanism is the inferred error mechanism of a column.
type Mechanism string

const (
	MCAR Mechanism = "MCAR"
	MAR  Mechanism = "MAR"
	MNAR Mechanism = "MNAR"
	// ECAR marks a column whose error indicator has a single class; no
	// mechanism can be tested for it.
	ECAR Mechanism = "ECAR"
)

func (m Mechanism) String() string { return string(m) }

// Rule selects how the MAR branch reads p1 (err vs obs).
type Rule string

const (
	// RuleLiteral labels MAR when p1 < MAR alpha and p3 < MAR alpha.
	RuleLiteral Rule = "literal"
	// RuleDocumented labels MAR when p1 >= MAR alpha and p3 < MAR alpha,
	// i.e. the tested column adds nothing over the other columns.
	RuleDocumented Rule = "documented"
)

var ErrUnknownRule = errors.New("unknown MAR rule")

// ParseRule resolves a rule name; empty selects RuleLiteral.
func ParseRule(s string) (Rule, error) {
	switch Rule(strings.ToLower(strings.TrimSpace(s))) {
	case "", RuleLiteral:
		return RuleLiteral, nil
	case RuleDocumented:
		return RuleDocumented, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownRule, s)
	}
}

// Thresholds are the significance levels of the decision procedure. MNAR is
// Bonferroni corrected for its two tests.
type Thresholds struct {
	MNAR float64
	MAR  float64
}

func DefaultThresholds() Thresholds { return Thresholds{MNAR: 0.05 / 2, MAR: 0.05} }

// Performance holds the four fold score vectors of one column.
type Performance struct {
	Err         []float64
	ErrShuffled []float64
	Obs         []float64
	ObsShuffled []float64
}

// Decision is the classification together with the p-values behind it.
// P3 is only set when the MNAR branch did not return early.
type Decision struct {
	Mechanism Mechanism `json:"mechanism" yaml:"mechanism"`
	P1        float64   `json:"p_err_vs_obs" yaml:"p_err_vs_obs"`
	P2        float64   `json:"p_err_vs_err_rnd" yaml:"p_err_vs_err_rnd"`
	P3        *float64  `json:"p_obs_vs_obs_rnd,omitempty" yaml:"p_obs_vs_obs_rnd,omitempty"`
	Method    string    `json:"test" yaml:"test"`
}

// Classifier runs the one-sided paired tests over a column's scores.
type Classifier struct {
	Test       hypothesis.Test
	Thresholds Thresholds
	Rule       Rule
}

// NewClassifier uses the paired t-test, default thresholds and the literal rule.
func NewClassifier() *Classifier {
	return &Classifier{Test: hypothesis.TTest{}, Thresholds: DefaultThresholds(), Rule: RuleLiteral}
}

// Classify decides MNAR, MAR or MCAR:
//
//	p1: err > obs, p2: err > err_rnd
//	p1 < MNAR and p2 < MNAR            -> MNAR
//	p3: obs > obs_rnd
//	rule(p1) and p3 < MAR              -> MAR
//	otherwise                          -> MCAR
func (c *Classifier) Classify(p Performance) (Decision, error) {
	test := c.Test
	if test == nil {
		test = hypothesis.TTest{}
	}
	th := c.Thresholds
	if th.MNAR <= 0 || th.MAR <= 0 {
		th = DefaultThresholds()
	}

	r1, err := test.Paired(p.Err, p.Obs, hypothesis.Greater)
	if err != nil {
		return Decision{}, fmt.Errorf("err vs obs: %w", err)
	}
	r2, err := test.Paired(p.Err, p.ErrShuffled, hypothesis.Greater)
	if err != nil {
		return Decision{}, fmt.Errorf("err vs err_rnd: %w", err)
	}
	d := Decision{P1: r1.PValue, P2: r2.PValue, Method: r1.Method}
	if r2.PValue < th.MNAR && r1.PValue < th.MNAR {
		d.Mechanism = MNAR
		return d, nil
	}

	r3, err := test.Paired(p.Obs, p.ObsShuffled, hypothesis.Greater)
	if err != nil {
		return Decision{}, fmt.Errorf("obs vs obs_rnd: %w", err)
	}
	p3 := r3.PValue
	d.P3 = &p3

	var p1Holds bool
	if c.Rule == RuleDocumented {
		p1Holds = r1.PValue >= th.MAR
	} else {
		p1Holds = r1.PValue < th.MAR
	}
	if p1Holds && p3 < th.MAR {
		d.Mechanism = MAR
	} else {
		d.Mechanism = MCAR
	}
	return d, nil
}
