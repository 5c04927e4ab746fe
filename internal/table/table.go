package table

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

const (
	CleanFile = "clean.csv"
	DirtyFile = "dirty.csv"
)

// Table is an immutable, string-typed view over a loaded dataset.
type Table struct {
	Name string

	names []string
	cols  [][]string // column-major
	index map[string]int
}

// ColumnNotFoundError reports a lookup of a column the table does not have.
type ColumnNotFoundError struct {
	Table  string
	Column string
}

func (e *ColumnNotFoundError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("column %q not found in %s", e.Column, e.Table)
	}
	return fmt.Sprintf("column %q not found", e.Column)
}

// loadOptions keep every cell as the literal string found in the file.
func loadOptions() []dataframe.LoadOption {
	return []dataframe.LoadOption{
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	}
}

// LoadCSV reads a comma separated file with a header row. No value is
// coerced to a missing marker.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	df := dataframe.ReadCSV(f, loadOptions()...)
	if df.Err != nil {
		return nil, fmt.Errorf("read csv %s: %w", filepath.Base(path), df.Err)
	}
	return fromDataFrame(filepath.Base(path), df), nil
}

// FromRecords builds a table from in-memory records. The first record is the header.
func FromRecords(name string, records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("records for %s: missing header", name)
	}
	if len(records) == 1 {
		// gota needs at least one data row; keep the header only.
		t := &Table{Name: name, index: map[string]int{}}
		for i, h := range records[0] {
			t.names = append(t.names, h)
			t.cols = append(t.cols, nil)
			t.index[h] = i
		}
		return t, nil
	}
	df := dataframe.LoadRecords(records, loadOptions()...)
	if df.Err != nil {
		return nil, fmt.Errorf("load records %s: %w", name, df.Err)
	}
	return fromDataFrame(name, df), nil
}

// LoadDataset loads <base>/<name>/clean.csv and <base>/<name>/dirty.csv.
func LoadDataset(base, name string) (clean, dirty *Table, err error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil, fmt.Errorf("dataset name is required")
	}
	dir := filepath.Join(base, name)
	clean, err = LoadCSV(filepath.Join(dir, CleanFile))
	if err != nil {
		return nil, nil, fmt.Errorf("load clean %s: %w", name, err)
	}
	dirty, err = LoadCSV(filepath.Join(dir, DirtyFile))
	if err != nil {
		return nil, nil, fmt.Errorf("load dirty %s: %w", name, err)
	}
	clean.Name = name + "/" + CleanFile
	dirty.Name = name + "/" + DirtyFile
	return clean, dirty, nil
}

func fromDataFrame(name string, df dataframe.DataFrame) *Table {
	names := df.Names()
	t := &Table{
		Name:  name,
		names: names,
		cols:  make([][]string, len(names)),
		index: make(map[string]int, len(names)),
	}
	for i, n := range names {
		t.cols[i] = df.Col(n).Records()
		t.index[n] = i
	}
	return t
}

// Names returns the column names in schema order.
func (t *Table) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

func (t *Table) Ncol() int { return len(t.names) }

func (t *Table) Nrow() int {
	if len(t.cols) == 0 {
		return 0
	}
	return len(t.cols[0])
}

// Has reports whether the table has a column with the given name.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the cells of a column. The slice must not be modified.
func (t *Table) Column(name string) ([]string, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, &ColumnNotFoundError{Table: t.Name, Column: name}
	}
	return t.cols[i], nil
}

// ColumnAt returns the cells of the i-th column.
func (t *Table) ColumnAt(i int) []string { return t.cols[i] }

func (t *Table) Cell(r, c int) string { return t.cols[c][r] }

// Drop returns a view of the table without the named column.
func (t *Table) Drop(name string) (*Table, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, &ColumnNotFoundError{Table: t.Name, Column: name}
	}
	out := &Table{Name: t.Name, index: make(map[string]int, len(t.names)-1)}
	for j, n := range t.names {
		if j == i {
			continue
		}
		out.index[n] = len(out.names)
		out.names = append(out.names, n)
		out.cols = append(out.cols, t.cols[j])
	}
	return out, nil
}

// Records returns the table row-major with the header first.
func (t *Table) Records() [][]string {
	rows := t.Nrow()
	out := make([][]string, 0, rows+1)
	out = append(out, t.Names())
	for r := 0; r < rows; r++ {
		row := make([]string, len(t.cols))
		for c := range t.cols {
			row[c] = t.cols[c][r]
		}
		out = append(out, row)
	}
	return out
}

// WriteCSV writes the table with its header.
func (t *Table) WriteCSV(w io.Writer) error {
	if t.Nrow() == 0 {
		_, err := io.WriteString(w, strings.Join(t.names, ",")+"\n")
		return err
	}
	df := dataframe.LoadRecords(t.Records(), loadOptions()...)
	if df.Err != nil {
		return fmt.Errorf("frame %s: %w", t.Name, df.Err)
	}
	if err := df.WriteCSV(w); err != nil {
		return fmt.Errorf("write csv %s: %w", t.Name, err)
	}
	return nil
}
