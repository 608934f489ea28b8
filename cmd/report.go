package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/inference-sim/autoscale-sim/sim/export"
	"github.com/inference-sim/autoscale-sim/sim/stats"
)

var (
	reportInputs []string // request CSVs to compare
	reportFormat string   // latex or markdown
	reportOutput string   // output path; stdout when empty
)

// reportCmd renders a comparison table across request-mode runs
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Compare request-mode runs in a LaTeX or Markdown table",
	Run: func(cmd *cobra.Command, args []string) {
		table, err := buildReport(reportInputs, reportFormat)
		if err != nil {
			logrus.Fatalf("Failed to generate table: %v", err)
		}
		if reportOutput == "" {
			fmt.Print(table)
			return
		}
		if dir := filepath.Dir(reportOutput); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				logrus.Fatalf("Creating output directory: %v", err)
			}
		}
		if err := os.WriteFile(reportOutput, []byte(table), 0o644); err != nil {
			logrus.Fatalf("Writing %s: %v", reportOutput, err)
		}
		logrus.Infof("Table generated successfully: %s", reportOutput)
	},
}

func registerReportFlags(fs *pflag.FlagSet) {
	fs.StringArrayVar(&reportInputs, "input", nil, "Request CSV to include (repeatable)")
	fs.StringVar(&reportFormat, "format", "latex", "Table format: latex or markdown")
	fs.StringVar(&reportOutput, "output", "", "Output file (default: stdout)")
}

// buildReport summarizes each input and renders the comparison table. Rows
// are labelled by the maxpods=N segment of each file name.
func buildReport(inputs []string, format string) (string, error) {
	if len(inputs) == 0 {
		return "", fmt.Errorf("at least one --input is required")
	}
	configs := make([]stats.NamedSummary, 0, len(inputs))
	for _, path := range inputs {
		file, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("opening %s: %w", path, err)
		}
		records, err := export.ReadRequestCSV(file)
		_ = file.Close()
		if err != nil {
			return "", fmt.Errorf("%s: %w", path, err)
		}
		configs = append(configs, stats.NamedSummary{
			Name:    stats.ConfigNameFromPath(path),
			Summary: stats.SummarizeRequests(records),
		})
		logrus.Debugf("Summarized %d requests from %s", len(records), path)
	}

	switch format {
	case "latex":
		return stats.FormatLaTeX(configs), nil
	case "markdown":
		return stats.FormatMarkdown(configs), nil
	default:
		return "", fmt.Errorf("unknown format %q (want latex or markdown)", format)
	}
}
