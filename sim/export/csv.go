// Package export writes and reads engine output as flat CSV files with a
// fixed column schema per record type, plus a YAML run header sidecar.
// This package depends only on record types from sim/.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/inference-sim/autoscale-sim/sim"
)

// CSV column headers, one schema per record type.
var (
	AggregateColumns = []string{"timestamp", "rps", "requests_in_flight", "latency_ms", "pod_count"}

	RequestColumns = []string{
		"request_id", "timestamp_offset_seconds", "latency_ms", "requests_in_flight",
		"pod_id", "pod_count", "success",
	}

	ScalingEventColumns = []string{
		"timestamp_offset_seconds", "action", "replicas_before", "replicas_after",
		"requests_in_flight", "reason",
	}
)

// WriteAggregateCSV writes a header row and one row per record.
// Timestamps use RFC 3339 in UTC.
func WriteAggregateCSV(w io.Writer, records []sim.AggregateRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(AggregateColumns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for i, r := range records {
		row := []string{
			r.Timestamp.UTC().Format(time.RFC3339Nano),
			strconv.Itoa(r.RPS),
			strconv.Itoa(r.RequestsInFlight),
			formatFloat(r.LatencyMs),
			strconv.Itoa(r.PodCount),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteRequestCSV writes a header row and one row per request.
func WriteRequestCSV(w io.Writer, records []sim.RequestRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(RequestColumns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for i, r := range records {
		row := []string{
			r.RequestID,
			formatFloat(r.TimestampOffsetSeconds),
			formatFloat(r.LatencyMs),
			strconv.Itoa(r.RequestsInFlight),
			r.PodID,
			strconv.Itoa(r.PodCount),
			strconv.FormatBool(r.Success),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteScalingEventsCSV writes one row per replica change.
func WriteScalingEventsCSV(w io.Writer, events []sim.ScalingEvent) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(ScalingEventColumns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for i, ev := range events {
		row := []string{
			formatFloat(ev.TimestampOffsetSeconds),
			string(ev.Action),
			strconv.Itoa(ev.ReplicasBefore),
			strconv.Itoa(ev.ReplicasAfter),
			strconv.Itoa(ev.RequestsInFlight),
			ev.Reason,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadAggregateCSV parses rows written by WriteAggregateCSV.
func ReadAggregateCSV(r io.Reader) ([]sim.AggregateRecord, error) {
	rows, err := readRows(r, AggregateColumns)
	if err != nil {
		return nil, err
	}
	records := make([]sim.AggregateRecord, 0, len(rows))
	for i, row := range rows {
		p := rowParser{line: i + 2}
		rec := sim.AggregateRecord{
			Timestamp:        p.time(row[0]),
			RPS:              p.int(row[1]),
			RequestsInFlight: p.int(row[2]),
			LatencyMs:        p.float(row[3]),
			PodCount:         p.int(row[4]),
		}
		if p.err != nil {
			return nil, p.err
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadRequestCSV parses rows written by WriteRequestCSV.
func ReadRequestCSV(r io.Reader) ([]sim.RequestRecord, error) {
	rows, err := readRows(r, RequestColumns)
	if err != nil {
		return nil, err
	}
	records := make([]sim.RequestRecord, 0, len(rows))
	for i, row := range rows {
		p := rowParser{line: i + 2}
		rec := sim.RequestRecord{
			RequestID:              row[0],
			TimestampOffsetSeconds: p.float(row[1]),
			LatencyMs:              p.float(row[2]),
			RequestsInFlight:       p.int(row[3]),
			PodID:                  row[4],
			PodCount:               p.int(row[5]),
			Success:                p.bool(row[6]),
		}
		if p.err != nil {
			return nil, p.err
		}
		records = append(records, rec)
	}
	return records, nil
}

// DetectKind reports whether a CSV header matches the aggregate or the
// request schema. Returns "" for anything else.
func DetectKind(header []string) string {
	switch {
	case equalColumns(header, AggregateColumns):
		return KindAggregate
	case equalColumns(header, RequestColumns):
		return KindRequests
	default:
		return ""
	}
}

// Record kinds, also used as the run header mode.
const (
	KindAggregate = "aggregate"
	KindRequests  = "requests"
)

// ReadHeader returns the first CSV row of the file at path.
func ReadHeader(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()
	header, err := csv.NewReader(file).Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header of %s: %w", path, err)
	}
	return header, nil
}

// WriteFile creates path (and its parent directory) and hands the file to
// write. The file is closed before returning.
func WriteFile(path string, write func(io.Writer) error) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, closeErr)
		}
	}()
	return write(file)
}

func readRows(r io.Reader, columns []string) ([][]string, error) {
	reader := csv.NewReader(r)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("reading CSV: missing header row")
	}
	if !equalColumns(rows[0], columns) {
		return nil, fmt.Errorf("unexpected CSV header %v, want %v", rows[0], columns)
	}
	return rows[1:], nil
}

func equalColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// rowParser keeps the first conversion error of a row.
type rowParser struct {
	line int
	err  error
}

func (p *rowParser) fail(kind, s string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("line %d: parsing %s %q: %w", p.line, kind, s, err)
	}
}

func (p *rowParser) int(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		p.fail("int", s, err)
	}
	return v
}

func (p *rowParser) float(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.fail("float", s, err)
	}
	return v
}

func (p *rowParser) bool(s string) bool {
	v, err := strconv.ParseBool(s)
	if err != nil {
		p.fail("bool", s, err)
	}
	return v
}

func (p *rowParser) time(s string) time.Time {
	v, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		p.fail("timestamp", s, err)
	}
	return v
}
