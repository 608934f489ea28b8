package stats

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleSummaries() []NamedSummary {
	return []NamedSummary{
		{Name: "maxpods=5", Summary: RequestSummary{
			TotalRequests: 12345, SuccessfulRequests: 12222, SuccessRate: 99.0037,
			MeanLatencyMs: 120.457, StdLatencyMs: 15.5, MedianLatencyMs: 118,
			P95LatencyMs: 150.1, P99LatencyMs: 170.2, MaxLatencyMs: 210,
			MeanInFlight: 64.25, MaxInFlight: 300, Throughput: 51.44,
		}},
		{Name: "maxpods=10", Summary: RequestSummary{TotalRequests: 10}},
	}
}

func TestFormatLaTeX_Layout(t *testing.T) {
	out := FormatLaTeX(sampleSummaries())
	lines := strings.Split(strings.TrimSpace(out), "\n")

	assert.Equal(t, `\begin{table}[h]`, lines[0])
	assert.Equal(t, `\end{table}`, lines[len(lines)-1])
	// 7 header lines, 11 rows per configuration, 3 footer lines
	assert.Len(t, lines, 7+2*11+3)

	assert.Equal(t, `maxpods=5 & Total Requests & 12,345 & req \\`, lines[7])
	assert.Contains(t, out, ` & Success Rate & 99.00 & \% \\`)
	assert.Contains(t, out, ` & Mean Latency & 120.46$\pm$15.50 & ms \\`)
	assert.Contains(t, out, ` & Max Concurrent Requests & 300 & req \\`)
	assert.Equal(t, `maxpods=10 & Total Requests & 10 & req \\`, lines[7+11])
}

func TestFormatLaTeX_EscapesConfigName(t *testing.T) {
	out := FormatLaTeX([]NamedSummary{{Name: "run_a"}})
	assert.Contains(t, out, `run\_a & Total Requests`)
}

func TestFormatMarkdown_Layout(t *testing.T) {
	out := FormatMarkdown(sampleSummaries())
	lines := strings.Split(strings.TrimSpace(out), "\n")

	assert.Len(t, lines, 2+2*11)
	assert.Equal(t, "| Configuration | Metric | Value | Unit |", lines[0])
	assert.Equal(t, "| maxpods=5 | Total Requests | 12,345 | req |", lines[2])
	assert.Contains(t, out, "|  | Mean Latency | 120.46 ± 15.50 | ms |")
}

func TestConfigNameFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/data/requests__maxpods=5__seed=42.csv", "maxpods=5"},
		{"requests__seed=42.csv", "requests__seed=42"},
		{"plain.csv", "plain"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ConfigNameFromPath(tt.path), tt.path)
	}
}

func TestGroupThousands(t *testing.T) {
	tests := map[int]string{0: "0", 999: "999", 1000: "1,000", 1234567: "1,234,567", -4321: "-4,321"}
	for in, want := range tests {
		assert.Equal(t, want, groupThousands(in))
	}
}
