package profiler

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Format selects a report layout.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat validates a format name. The empty string means FormatText.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want text, json or csv)", s)
	}
}

// Row is one target's line in a report.
type Row struct {
	Function string  `json:"function"`
	TotalMS  float64 `json:"total_ms"`
	Calls    int64   `json:"calls"`
	AvgMS    float64 `json:"avg_ms"`
}

// Summary is a point-in-time view of the profiler results.
type Summary struct {
	Window      string    `json:"window,omitempty"`
	Enabled     bool      `json:"enabled"`
	GeneratedAt time.Time `json:"generated_at"`
	Rows        []Row     `json:"functions"`
}

func newSummary(window string, enabled bool, at time.Time, entries []Entry) Summary {
	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, Row{
			Function: e.Target.QualifiedName(),
			TotalMS:  milliseconds(e.TotalTime),
			Calls:    e.Calls,
			AvgMS:    milliseconds(e.Average()),
		})
	}
	return Summary{
		Window:      window,
		Enabled:     enabled,
		GeneratedAt: at,
		Rows:        rows,
	}
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Formatter renders a summary.
type Formatter interface {
	Format(s Summary) (string, error)
}

// NewFormatter creates a formatter for the given format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	case FormatCSV:
		return &CSVFormatter{}
	default:
		return &TextFormatter{}
	}
}

const (
	functionWidth = 40
	totalWidth    = 14
	callsWidth    = 10
	avgWidth      = 14
)

var textRule = strings.Repeat("-", functionWidth+totalWidth+callsWidth+avgWidth+9)

// TextFormatter renders the fixed-width table shown to operators.
type TextFormatter struct{}

// Format renders s as a table with columns Function, Total(ms), Calls and Avg(ms).
// nolint: errcheck
func (f *TextFormatter) Format(s Summary) (string, error) {
	var buf strings.Builder

	fmt.Fprintln(&buf, textRule)
	fmt.Fprintf(&buf, "%-*s | %*s | %*s | %*s\n",
		functionWidth, "Function",
		totalWidth, "Total(ms)",
		callsWidth, "Calls",
		avgWidth, "Avg(ms)")
	fmt.Fprintln(&buf, textRule)

	for _, row := range s.Rows {
		fmt.Fprintf(&buf, "%-*s | %*.3f | %*d | %*.3f\n",
			functionWidth, row.Function,
			totalWidth, row.TotalMS,
			callsWidth, row.Calls,
			avgWidth, row.AvgMS)
	}

	fmt.Fprintln(&buf, textRule)
	return buf.String(), nil
}

// JSONFormatter renders the summary as indented JSON.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(s Summary) (string, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	return string(data) + "\n", nil
}

// CSVFormatter renders one record per target with a header line.
type CSVFormatter struct{}

func (f *CSVFormatter) Format(s Summary) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"function", "total_ms", "calls", "avg_ms"}); err != nil {
		return "", err
	}
	for _, row := range s.Rows {
		record := []string{
			row.Function,
			strconv.FormatFloat(row.TotalMS, 'f', 3, 64),
			strconv.FormatInt(row.Calls, 10),
			strconv.FormatFloat(row.AvgMS, 'f', 3, 64),
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to write csv report: %w", err)
	}
	return buf.String(), nil
}
