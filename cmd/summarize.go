package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/inference-sim/autoscale-sim/sim/export"
	"github.com/inference-sim/autoscale-sim/sim/stats"
)

var (
	summarizeCSV  string // CSV file to summarize
	summarizeKind string // aggregate, requests, or empty to detect from the header
)

// summarizeCmd prints summary statistics for a previously written CSV
var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Print summary statistics for an aggregate or request CSV",
	Run: func(cmd *cobra.Command, args []string) {
		if summarizeCSV == "" {
			logrus.Fatalf("--csv is required")
		}
		if err := summarizeFile(os.Stdout, summarizeCSV, summarizeKind); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

func registerSummarizeFlags(fs *pflag.FlagSet) {
	fs.StringVar(&summarizeCSV, "csv", "", "CSV file written by `run`")
	fs.StringVar(&summarizeKind, "kind", "", "Record kind: aggregate or requests (default: detect from header)")
}

// summarizeFile reads path as kind and prints its summary to w.
func summarizeFile(w io.Writer, path, kind string) error {
	if kind == "" {
		header, err := export.ReadHeader(path)
		if err != nil {
			return err
		}
		if kind = export.DetectKind(header); kind == "" {
			return fmt.Errorf("%s: unrecognized CSV header %v", path, header)
		}
		logrus.Debugf("Detected %s CSV: %s", kind, path)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	switch kind {
	case export.KindAggregate:
		rows, err := export.ReadAggregateCSV(file)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		printAggregateSummary(w, stats.SummarizeAggregate(rows))
		fmt.Fprintf(w, "Scaling events: %d\n", len(stats.DetectScalingEvents(rows)))
	case export.KindRequests:
		records, err := export.ReadRequestCSV(file)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		printRequestSummary(w, stats.SummarizeRequests(records))
	default:
		return fmt.Errorf("unknown kind %q (want %s or %s)", kind, export.KindAggregate, export.KindRequests)
	}
	return nil
}

func printAggregateSummary(w io.Writer, s stats.AggregateSummary) {
	fmt.Fprintln(w, "=== Simulation Summary ===")
	fmt.Fprintf(w, "Rows              : %d\n", s.Rows)
	fmt.Fprintf(w, "Duration (s)      : %.0f\n", s.DurationSeconds)
	fmt.Fprintf(w, "Average RPS       : %.2f (max %d)\n", s.MeanRPS, s.MaxRPS)
	fmt.Fprintf(w, "Average in flight : %.2f\n", s.MeanInFlight)
	fmt.Fprintf(w, "Average latency   : %.2f ms (p95 %.2f ms)\n", s.MeanLatencyMs, s.P95LatencyMs)
	fmt.Fprintf(w, "Average pods      : %.2f (max %d)\n", s.MeanPods, s.MaxPods)
	fmt.Fprintf(w, "Scale ups / downs : %d / %d\n", s.ScaleUps, s.ScaleDowns)
}

func printRequestSummary(w io.Writer, s stats.RequestSummary) {
	fmt.Fprintln(w, "=== Request Summary ===")
	fmt.Fprintf(w, "Total requests    : %d\n", s.TotalRequests)
	fmt.Fprintf(w, "Successful        : %d (%.2f%%)\n", s.SuccessfulRequests, s.SuccessRate)
	fmt.Fprintf(w, "Latency mean      : %.2f ± %.2f ms\n", s.MeanLatencyMs, s.StdLatencyMs)
	fmt.Fprintf(w, "Latency p50/95/99 : %.2f / %.2f / %.2f ms\n", s.MedianLatencyMs, s.P95LatencyMs, s.P99LatencyMs)
	fmt.Fprintf(w, "Latency max       : %.2f ms\n", s.MaxLatencyMs)
	fmt.Fprintf(w, "In flight mean/max: %.2f / %d\n", s.MeanInFlight, s.MaxInFlight)
	fmt.Fprintf(w, "Throughput        : %.2f req/s\n", s.Throughput)
}
