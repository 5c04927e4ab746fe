package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/errmech-cli/internal/mechanism"
	"github.com/KaramelBytes/errmech-cli/internal/pipeline"
	"github.com/KaramelBytes/errmech-cli/internal/utils"
)

// Format is an output encoding for column results.
type Format string

const (
	Text Format = "text"
	JSON Format = "json"
	YAML Format = "yaml"
	CSV  Format = "csv"
)

var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat resolves a format name; empty selects Text.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", Text, "md", "markdown":
		return Text, nil
	case JSON:
		return JSON, nil
	case YAML, "yml":
		return YAML, nil
	case CSV:
		return CSV, nil
	default:
		return "", fmt.Errorf("%w: %s (use text|json|yaml|csv)", ErrUnknownFormat, s)
	}
}

// Render encodes results in the given format.
func Render(results []pipeline.ColumnResult, f Format) ([]byte, error) {
	if results == nil {
		results = []pipeline.ColumnResult{}
	}
	switch f {
	case JSON:
		return utils.PrettyJSON(results)
	case YAML:
		b, err := yaml.Marshal(results)
		if err != nil {
			return nil, fmt.Errorf("marshal yaml: %w", err)
		}
		return b, nil
	case CSV:
		return renderCSV(results)
	default:
		return []byte(Markdown(results)), nil
	}
}

// Markdown renders a compact, sectioned text summary.
func Markdown(results []pipeline.ColumnResult) string {
	var b strings.Builder
	b.WriteString("[ERROR MECHANISMS]\n")
	if len(results) == 0 {
		b.WriteString("(no corrupted columns)\n")
		return b.String()
	}
	if ds := results[0].Dataset; ds != "" {
		b.WriteString(fmt.Sprintf("Dataset: %s\n", ds))
	}
	b.WriteString(fmt.Sprintf("Columns tested: %d\n", len(results)))
	if m := results[0].Metric; m != "" {
		b.WriteString(fmt.Sprintf("Metric: %s\n", m))
	}
	b.WriteString("\n[COLUMNS]\n")
	for _, r := range results {
		b.WriteString(fmt.Sprintf("- %s: %s (errors %d, %.0f%% of all)", r.Label, r.Mechanism, r.Errors, r.FractionOfAllErrors*100))
		if r.Mechanism == mechanism.ECAR {
			b.WriteString(" (single-class error indicator, not tested)\n")
			continue
		}
		b.WriteString(fmt.Sprintf("; mean err %.3f, err_rnd %.3f, obs %.3f, obs_rnd %.3f",
			mean(r.PerfErr), mean(r.PerfErrShuffled), mean(r.PerfObs), mean(r.PerfObsShuffled)))
		if d := r.Decision; d != nil {
			b.WriteString(fmt.Sprintf("; p1=%.4g p2=%.4g", d.P1, d.P2))
			if d.P3 != nil {
				b.WriteString(fmt.Sprintf(" p3=%.4g", *d.P3))
			}
		}
		b.WriteString("\n")
	}

	counts := pipeline.Summary(results)
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	b.WriteString("\n[SUMMARY]\n")
	for _, k := range keys {
		b.WriteString(fmt.Sprintf("- %s: %d\n", k, counts[mechanism.Mechanism(k)]))
	}
	return b.String()
}

func renderCSV(results []pipeline.ColumnResult) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{"dataset", "label", "errors", "fraction_of_all_errors", "mechanism", "eval_metric",
		"mean_perf_err", "mean_perf_err_rnd", "mean_perf_obs", "mean_perf_obs_rnd", "p1", "p2", "p3"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, r := range results {
		row := []string{
			r.Dataset, r.Label, strconv.Itoa(r.Errors), ftoa(r.FractionOfAllErrors), r.Mechanism.String(), r.Metric,
			ftoa(mean(r.PerfErr)), ftoa(mean(r.PerfErrShuffled)), ftoa(mean(r.PerfObs)), ftoa(mean(r.PerfObsShuffled)),
			"", "", "",
		}
		if d := r.Decision; d != nil {
			row[10], row[11] = ftoa(d.P1), ftoa(d.P2)
			if d.P3 != nil {
				row[12] = ftoa(*d.P3)
			}
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

func mean(v []float64) float64 {
	m, err := stats.Mean(v)
	if err != nil {
		return 0
	}
	return m
}

func ftoa(f float64) string { return strconv.FormatFloat(f, 'g', 6, 64) }
