package mask

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/errmech-cli/internal/table"
)

// Prefix is prepended to column names in the exported mask so it can sit
// next to the original schema without collisions.
const Prefix = "pos_"

// ErrMisaligned is matched by every AlignmentError.
var ErrMisaligned = errors.New("clean and dirty tables are not aligned")

// AlignmentError describes why two tables cannot be compared cell by cell.
type AlignmentError struct {
	Reason string
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMisaligned.Error(), e.Reason)
}

func (e *AlignmentError) Is(target error) bool { return target == ErrMisaligned }

// Mask marks every cell where the dirty table differs from the clean one.
type Mask struct {
	names  []string
	cells  [][]bool // column-major
	counts []int
	index  map[string]int
	total  int
	rows   int
}

// PositiveName returns the mask column name for an original column.
func PositiveName(col string) string { return Prefix + col }

// Build compares clean and dirty cell by cell. Both tables must have the
// same columns in the same order and the same number of rows.
func Build(clean, dirty *table.Table) (*Mask, error) {
	if clean == nil || dirty == nil {
		return nil, &AlignmentError{Reason: "missing table"}
	}
	if clean.Ncol() != dirty.Ncol() {
		return nil, &AlignmentError{Reason: fmt.Sprintf("column count %d != %d", clean.Ncol(), dirty.Ncol())}
	}
	if clean.Nrow() != dirty.Nrow() {
		return nil, &AlignmentError{Reason: fmt.Sprintf("row count %d != %d", clean.Nrow(), dirty.Nrow())}
	}
	cn, dn := clean.Names(), dirty.Names()
	for i := range cn {
		if cn[i] != dn[i] {
			return nil, &AlignmentError{Reason: fmt.Sprintf("column %d is %q in clean but %q in dirty", i, cn[i], dn[i])}
		}
	}
	rows := clean.Nrow()
	m := &Mask{
		names:  cn,
		cells:  make([][]bool, len(cn)),
		counts: make([]int, len(cn)),
		index:  make(map[string]int, len(cn)),
		rows:   rows,
	}
	for c := range cn {
		m.index[cn[c]] = c
		cc, dc := clean.ColumnAt(c), dirty.ColumnAt(c)
		col := make([]bool, rows)
		for r := 0; r < rows; r++ {
			if cc[r] != dc[r] {
				col[r] = true
				m.counts[c]++
			}
		}
		m.cells[c] = col
		m.total += m.counts[c]
	}
	return m, nil
}

func (m *Mask) Rows() int { return m.rows }

// Columns returns the original column names in schema order.
func (m *Mask) Columns() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Names returns the prefixed mask column names in schema order.
func (m *Mask) Names() []string {
	out := make([]string, len(m.names))
	for i, n := range m.names {
		out[i] = PositiveName(n)
	}
	return out
}

// Count returns the number of corrupted cells in col, or 0 for unknown columns.
func (m *Mask) Count(col string) int {
	i, ok := m.index[col]
	if !ok {
		return 0
	}
	return m.counts[i]
}

// Counts maps each original column to its corrupted-cell count.
func (m *Mask) Counts() map[string]int {
	out := make(map[string]int, len(m.names))
	for i, n := range m.names {
		out[n] = m.counts[i]
	}
	return out
}

// Total is the number of corrupted cells in the whole table.
func (m *Mask) Total() int { return m.total }

// ErrorColumns lists the columns with at least one corrupted cell, in schema order.
func (m *Mask) ErrorColumns() []string {
	var out []string
	for i, n := range m.names {
		if m.counts[i] > 0 {
			out = append(out, n)
		}
	}
	return out
}

// Label returns the error indicator for col.
func (m *Mask) Label(col string) ([]bool, error) {
	i, ok := m.index[col]
	if !ok {
		return nil, &table.ColumnNotFoundError{Table: "mask", Column: col}
	}
	out := make([]bool, m.rows)
	copy(out, m.cells[i])
	return out, nil
}

// Fraction is col's share of all corrupted cells; 0 when the table has none.
func (m *Mask) Fraction(col string) float64 {
	if m.total == 0 {
		return 0
	}
	return float64(m.Count(col)) / float64(m.total)
}

// SingleClass reports whether every row of col is flagged, or none is.
func (m *Mask) SingleClass(col string) bool {
	n := m.Count(col)
	return n == 0 || n == m.rows
}

// Table exports the mask as a string table with prefixed column names.
func (m *Mask) Table() (*table.Table, error) {
	records := make([][]string, 0, m.rows+1)
	records = append(records, m.Names())
	for r := 0; r < m.rows; r++ {
		row := make([]string, len(m.names))
		for c := range m.names {
			if m.cells[c][r] {
				row[c] = "True"
			} else {
				row[c] = "False"
			}
		}
		records = append(records, row)
	}
	return table.FromRecords("mask", records)
}
