package features

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/KaramelBytes/errmech-cli/internal/mask"
	"github.com/KaramelBytes/errmech-cli/internal/table"
)

// ErrNoVariation is returned when a column's error indicator has a single
// class, so no classifier can be fitted for it.
var ErrNoVariation = errors.New("error indicator has a single class")

// Variant names the feature set a training set was built from.
type Variant string

const (
	// VariantErr uses every clean column, the tested one included.
	VariantErr Variant = "err"
	// VariantObs drops the tested column.
	VariantObs Variant = "obs"
)

// Kind is how a clean column was encoded.
type Kind int

const (
	Numeric Kind = iota
	Categorical
)

func (k Kind) String() string {
	if k == Numeric {
		return "numeric"
	}
	return "categorical"
}

// TrainingSet pairs an encoded feature matrix with a binary target.
type TrainingSet struct {
	Variant  Variant
	Shuffled bool
	Target   string
	Features []string
	Kinds    []Kind
	X        *mat.Dense
	Y        []bool
}

// Name is the short identifier used in logs and results (err, err_rnd, ...).
func (s TrainingSet) Name() string {
	if s.Shuffled {
		return string(s.Variant) + "_rnd"
	}
	return string(s.Variant)
}

// Matrix returns X as a mat.Matrix, or nil when the set has no feature columns.
func (s TrainingSet) Matrix() mat.Matrix {
	if s.X == nil {
		return nil
	}
	return s.X
}

// Sets are the four training sets fitted for one column.
type Sets struct {
	Label       string
	Err         TrainingSet
	Obs         TrainingSet
	ErrShuffled TrainingSet
	ObsShuffled TrainingSet
}

// Build constructs the err/obs training sets for label, plus their
// shuffled-label twins. The permutation is drawn once from rng and shared by
// both shuffled sets. ErrNoVariation is returned before anything is encoded
// when the label has a single class.
func Build(clean *table.Table, m *mask.Mask, label string, rng *rand.Rand) (*Sets, error) {
	if !clean.Has(label) {
		return nil, &table.ColumnNotFoundError{Table: clean.Name, Column: label}
	}
	y, err := m.Label(label)
	if err != nil {
		return nil, err
	}
	if m.SingleClass(label) {
		return nil, fmt.Errorf("%s: %w", label, ErrNoVariation)
	}
	if rng == nil {
		return nil, errors.New("features: nil random source")
	}

	xErr, kErr := Encode(clean)
	obsTable, err := clean.Drop(label)
	if err != nil {
		return nil, err
	}
	xObs, kObs := Encode(obsTable)

	perm := rng.Perm(len(y))
	shuffled := make([]bool, len(y))
	for i, j := range perm {
		shuffled[i] = y[j]
	}

	target := mask.PositiveName(label)
	errSet := TrainingSet{Variant: VariantErr, Target: target, Features: clean.Names(), Kinds: kErr, X: xErr, Y: y}
	obsSet := TrainingSet{Variant: VariantObs, Target: target, Features: obsTable.Names(), Kinds: kObs, X: xObs, Y: y}

	errRnd := errSet
	errRnd.Shuffled = true
	errRnd.Y = shuffled
	obsRnd := obsSet
	obsRnd.Shuffled = true
	obsRnd.Y = shuffled

	return &Sets{Label: label, Err: errSet, Obs: obsSet, ErrShuffled: errRnd, ObsShuffled: obsRnd}, nil
}

// Encode turns string cells into a dense float matrix. A column whose
// non-empty cells all parse as numbers is numeric with empty cells as NaN;
// any other column is categorical, coded by order of first appearance.
func Encode(t *table.Table) (*mat.Dense, []Kind) {
	rows, cols := t.Nrow(), t.Ncol()
	kinds := make([]Kind, cols)
	if rows == 0 || cols == 0 {
		return nil, kinds
	}
	x := mat.NewDense(rows, cols, nil)
	for c := 0; c < cols; c++ {
		cells := t.ColumnAt(c)
		if vals, ok := parseNumeric(cells); ok {
			kinds[c] = Numeric
			x.SetCol(c, vals)
			continue
		}
		kinds[c] = Categorical
		codes := make(map[string]float64)
		for r, s := range cells {
			code, seen := codes[s]
			if !seen {
				code = float64(len(codes))
				codes[s] = code
			}
			x.Set(r, c, code)
		}
	}
	return x, kinds
}

func parseNumeric(cells []string) ([]float64, bool) {
	out := make([]float64, len(cells))
	seen := false
	for i, s := range cells {
		s = strings.TrimSpace(s)
		if s == "" {
			out[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(v, 0) {
			return nil, false
		}
		out[i] = v
		seen = true
	}
	return out, seen
}
