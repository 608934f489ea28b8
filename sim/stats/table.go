package stats

import (
	"fmt"
	"path/filepath"
	"strings"
)

// NamedSummary pairs a configuration label with its request summary.
type NamedSummary struct {
	Name    string
	Summary RequestSummary
}

type metricRow struct {
	label  string
	unit   string
	format func(RequestSummary) string
}

func metricRows(pm string) []metricRow {
	return []metricRow{
		{"Total Requests", "req", func(s RequestSummary) string { return groupThousands(s.TotalRequests) }},
		{"Successful Requests", "req", func(s RequestSummary) string { return groupThousands(s.SuccessfulRequests) }},
		{"Success Rate", "%", func(s RequestSummary) string { return fmt.Sprintf("%.2f", s.SuccessRate) }},
		{"Mean Latency", "ms", func(s RequestSummary) string {
			return fmt.Sprintf("%.2f%s%.2f", s.MeanLatencyMs, pm, s.StdLatencyMs)
		}},
		{"Median Latency", "ms", func(s RequestSummary) string { return fmt.Sprintf("%.2f", s.MedianLatencyMs) }},
		{"P95 Latency", "ms", func(s RequestSummary) string { return fmt.Sprintf("%.2f", s.P95LatencyMs) }},
		{"P99 Latency", "ms", func(s RequestSummary) string { return fmt.Sprintf("%.2f", s.P99LatencyMs) }},
		{"Max Latency", "ms", func(s RequestSummary) string { return fmt.Sprintf("%.2f", s.MaxLatencyMs) }},
		{"Mean Requests in Flight", "req", func(s RequestSummary) string { return fmt.Sprintf("%.2f", s.MeanInFlight) }},
		{"Max Concurrent Requests", "req", func(s RequestSummary) string { return fmt.Sprintf("%d", s.MaxInFlight) }},
		{"Throughput", "req/s", func(s RequestSummary) string { return fmt.Sprintf("%.2f", s.Throughput) }},
	}
}

// FormatLaTeX renders one block of metric rows per configuration inside a
// four-column tabular environment.
func FormatLaTeX(configs []NamedSummary) string {
	lines := []string{
		`\begin{table}[h]`,
		`\centering`,
		`\caption{Performance Comparison Between Autoscaling Configurations}`,
		`\begin{tabular}{|l|l|r|l|}`,
		`\hline`,
		`\textbf{Configuration} & \textbf{Metric} & \textbf{Value} & \textbf{Unit} \\`,
		`\hline`,
	}
	for _, c := range configs {
		for i, m := range metricRows(`$\pm$`) {
			name := ""
			if i == 0 {
				name = latexEscape(c.Name)
			}
			unit := m.unit
			if unit == "%" {
				unit = `\%`
			}
			lines = append(lines, fmt.Sprintf("%s & %s & %s & %s \\\\", name, m.label, m.format(c.Summary), unit))
		}
	}
	lines = append(lines, `\hline`, `\end{tabular}`, `\end{table}`)
	return strings.Join(lines, "\n") + "\n"
}

// FormatMarkdown renders the same rows as FormatLaTeX as a GitHub table.
func FormatMarkdown(configs []NamedSummary) string {
	var b strings.Builder
	b.WriteString("| Configuration | Metric | Value | Unit |\n")
	b.WriteString("|---|---|--:|---|\n")
	for _, c := range configs {
		for i, m := range metricRows(" ± ") {
			name := ""
			if i == 0 {
				name = c.Name
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", name, m.label, m.format(c.Summary), m.unit)
		}
	}
	return b.String()
}

// ConfigNameFromPath returns the maxpods=N segment of a file name built
// with export.BuildFileName, or the bare file stem when there is none.
func ConfigNameFromPath(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	for _, part := range strings.Split(stem, "__") {
		if strings.HasPrefix(part, "maxpods=") {
			return part
		}
	}
	return stem
}

func latexEscape(s string) string {
	r := strings.NewReplacer(`_`, `\_`, `%`, `\%`, `&`, `\&`, `#`, `\#`)
	return r.Replace(s)
}

// groupThousands formats n with comma separators: 12345 -> "12,345".
func groupThousands(n int) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		return "-" + out
	}
	return out
}
