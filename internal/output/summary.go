package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/curlkit/internal/stats"
)

// FormatSummary renders the result of a bench run
func FormatSummary(format OutputFormat, s stats.Summary, noColor bool) string {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(summaryData(s), "", "  ")
		if err != nil {
			return fmt.Sprintf(`{"error":"Failed to marshal summary: %s"}`, err)
		}
		return string(data) + "\n"
	case FormatYAML:
		data, err := yaml.Marshal(summaryData(s))
		if err != nil {
			return fmt.Sprintf("---\nerror: Failed to marshal summary: %s\n", err)
		}
		return "---\n" + string(data)
	default:
		return formatSummaryText(s, noColor)
	}
}

// SummaryData is the machine-readable form of a bench summary, with
// durations in milliseconds.
type SummaryData struct {
	Total       int64              `json:"total" yaml:"total"`
	Succeeded   int64              `json:"succeeded" yaml:"succeeded"`
	Failed      int64              `json:"failed" yaml:"failed"`
	SuccessRate float64            `json:"successRate" yaml:"successRate"`
	Bytes       int64              `json:"bytes" yaml:"bytes"`
	ElapsedMs   float64            `json:"elapsedMs" yaml:"elapsedMs"`
	RPS         float64            `json:"rps" yaml:"rps"`
	LatencyMs   map[string]float64 `json:"latencyMs" yaml:"latencyMs"`
	Statuses    map[int]int64      `json:"statuses,omitempty" yaml:"statuses,omitempty"`
	Errors      map[string]int64   `json:"errors,omitempty" yaml:"errors,omitempty"`
}

func summaryData(s stats.Summary) SummaryData {
	data := SummaryData{
		Total:       s.Total,
		Succeeded:   s.Succeeded,
		Failed:      s.Failed,
		SuccessRate: s.SuccessRate(),
		Bytes:       s.Bytes,
		ElapsedMs:   ms(s.Elapsed),
		RPS:         s.RPS,
		LatencyMs: map[string]float64{
			"min":  ms(s.Latency.Min),
			"mean": ms(s.Latency.Mean),
			"p50":  ms(s.Latency.P50),
			"p90":  ms(s.Latency.P90),
			"p95":  ms(s.Latency.P95),
			"p99":  ms(s.Latency.P99),
			"max":  ms(s.Latency.Max),
		},
	}
	if len(s.Statuses) > 0 {
		data.Statuses = make(map[int]int64, len(s.Statuses))
		for _, sc := range s.Statuses {
			data.Statuses[sc.Code] = sc.Count
		}
	}
	if len(s.Errors) > 0 {
		data.Errors = make(map[string]int64, len(s.Errors))
		for _, ec := range s.Errors {
			data.Errors[ec.Message] = ec.Count
		}
	}
	return data
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func formatSummaryText(s stats.Summary, noColor bool) string {
	scheme := DefaultColorScheme()
	if noColor {
		scheme = NoColorScheme()
	}
	heading := color.New(color.Bold)
	if noColor {
		heading.DisableColor()
	}

	var buf strings.Builder
	buf.WriteString(heading.Sprint("Requests") + " " + Mark(s.Failed == 0, noColor) + "\n")
	buf.WriteString(fmt.Sprintf("  Total:      %d\n", s.Total))
	buf.WriteString(fmt.Sprintf("  Succeeded:  %d (%.1f%%)\n", s.Succeeded, s.SuccessRate()*100))
	buf.WriteString(fmt.Sprintf("  Failed:     %d\n", s.Failed))
	buf.WriteString(fmt.Sprintf("  Elapsed:    %s\n", s.Elapsed.Round(time.Millisecond)))
	buf.WriteString(fmt.Sprintf("  Throughput: %.2f req/s\n", s.RPS))

	buf.WriteString(heading.Sprint("Latency") + "\n")
	for _, row := range []struct {
		label string
		value time.Duration
	}{
		{"min", s.Latency.Min},
		{"mean", s.Latency.Mean},
		{"p50", s.Latency.P50},
		{"p90", s.Latency.P90},
		{"p95", s.Latency.P95},
		{"p99", s.Latency.P99},
		{"max", s.Latency.Max},
	} {
		buf.WriteString(fmt.Sprintf("  %-5s %8.2fms\n", row.label, ms(row.value)))
	}

	if len(s.Statuses) > 0 {
		buf.WriteString(heading.Sprint("Status codes") + "\n")
		for _, sc := range s.Statuses {
			buf.WriteString(fmt.Sprintf("  %s %d\n", scheme.Status(sc.Code).Sprint(sc.Code), sc.Count))
		}
	}
	if len(s.Errors) > 0 {
		buf.WriteString(heading.Sprint("Errors") + "\n")
		for _, ec := range s.Errors {
			buf.WriteString(fmt.Sprintf("  %s %s (%d)\n", Mark(false, noColor), scheme.Error.Sprint(ec.Message), ec.Count))
		}
	}
	return buf.String()
}
