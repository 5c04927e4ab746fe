package report_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/errmech-cli/internal/mechanism"
	"github.com/KaramelBytes/errmech-cli/internal/pipeline"
	"github.com/KaramelBytes/errmech-cli/internal/report"
)

func sample() []pipeline.ColumnResult {
	p3 := 0.001
	return []pipeline.ColumnResult{
		{
			Dataset: "hospital", Label: "city", Errors: 30, FractionOfAllErrors: 0.75,
			Mechanism: mechanism.MAR, Metric: "accuracy",
			PerfErr: []float64{0.9, 0.8}, PerfErrShuffled: []float64{0.5, 0.5},
			PerfObs: []float64{0.85, 0.85}, PerfObsShuffled: []float64{0.5, 0.6},
			Decision: &mechanism.Decision{Mechanism: mechanism.MAR, P1: 0.04, P2: 0.03, P3: &p3, Method: "ttest"},
		},
		{Dataset: "hospital", Label: "zip", Errors: 10, FractionOfAllErrors: 0.25, Mechanism: mechanism.ECAR},
	}
}

func TestMarkdown(t *testing.T) {
	out := report.Markdown(sample())
	assert.Contains(t, out, "[ERROR MECHANISMS]")
	assert.Contains(t, out, "Dataset: hospital")
	assert.Contains(t, out, "- city: MAR (errors 30, 75% of all)")
	assert.Contains(t, out, "mean err 0.850")
	assert.Contains(t, out, "p3=0.001")
	assert.Contains(t, out, "- zip: ECAR")
	assert.Contains(t, out, "- MAR: 1")

	assert.Contains(t, report.Markdown(nil), "(no corrupted columns)")
}

func TestRenderJSONKeys(t *testing.T) {
	b, err := report.Render(sample(), report.JSON)
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(b, &rows))
	require.Len(t, rows, 2)
	for _, k := range []string{"dataset", "label", "fraction_of_all_errors", "mechanism", "perf_err", "perf_err_rnd", "perf_obs", "perf_obs_rnd", "eval_metric"} {
		assert.Contains(t, rows[0], k)
	}
	assert.NotContains(t, rows[1], "p_values")
}

func TestRenderYAML(t *testing.T) {
	b, err := report.Render(sample(), report.YAML)
	require.NoError(t, err)
	var rows []pipeline.ColumnResult
	require.NoError(t, yaml.Unmarshal(b, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, mechanism.MAR, rows[0].Mechanism)
	require.NotNil(t, rows[0].Decision)
	assert.Equal(t, 0.001, *rows[0].Decision.P3)
}

func TestRenderCSV(t *testing.T) {
	b, err := report.Render(sample(), report.CSV)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "dataset,label,errors"))
	assert.Equal(t, "hospital,city,30,0.75,MAR,accuracy,0.85,0.5,0.85,0.55,0.04,0.03,0.001", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "hospital,zip,10,0.25,ECAR"))
}

func TestParseFormat(t *testing.T) {
	f, err := report.ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, report.Text, f)
	f, err = report.ParseFormat("YML")
	require.NoError(t, err)
	assert.Equal(t, report.YAML, f)
	_, err = report.ParseFormat("xml")
	assert.ErrorIs(t, err, report.ErrUnknownFormat)
}
