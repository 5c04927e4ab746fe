package table_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/errmech-cli/internal/table"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadCSVKeepsLiteralStrings(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "clean.csv")
	writeFile(t, p, "id,score,note\n1,NA,\n2,3.50,n/a\n3,NaN,ok\n")

	tb, err := table.LoadCSV(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "score", "note"}, tb.Names())
	assert.Equal(t, 3, tb.Nrow())

	score, err := tb.Column("score")
	require.NoError(t, err)
	assert.Equal(t, []string{"NA", "3.50", "NaN"}, score)

	note, err := tb.Column("note")
	require.NoError(t, err)
	assert.Equal(t, []string{"", "n/a", "ok"}, note)
}

func TestLoadDataset(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "hospital", "clean.csv"), "a,b\n1,x\n2,y\n")
	writeFile(t, filepath.Join(base, "hospital", "dirty.csv"), "a,b\n1,x\n2,z\n")

	clean, dirty, err := table.LoadDataset(base, "hospital")
	require.NoError(t, err)
	assert.Equal(t, "y", clean.Cell(1, 1))
	assert.Equal(t, "z", dirty.Cell(1, 1))

	_, _, err = table.LoadDataset(base, "missing")
	require.Error(t, err)
}

func TestDropAndColumnLookup(t *testing.T) {
	tb, err := table.FromRecords("mem", [][]string{{"a", "b", "c"}, {"1", "2", "3"}})
	require.NoError(t, err)

	dropped, err := tb.Drop("b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, dropped.Names())
	assert.Equal(t, [][]string{{"a", "c"}, {"1", "3"}}, dropped.Records())
	assert.Equal(t, 3, tb.Ncol())

	_, err = tb.Column("zz")
	var nf *table.ColumnNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "zz", nf.Column)
}

func TestWriteCSVRoundTrips(t *testing.T) {
	tb, err := table.FromRecords("m", [][]string{{"pos_a", "pos_b"}, {"True", "False"}, {"False", "False"}})
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, tb.WriteCSV(&buf))
	assert.Equal(t, "pos_a,pos_b\nTrue,False\nFalse,False\n", buf.String())

	empty, err := table.FromRecords("e", [][]string{{"x", "y"}})
	require.NoError(t, err)
	buf.Reset()
	require.NoError(t, empty.WriteCSV(&buf))
	assert.Equal(t, "x,y\n", buf.String())
}
