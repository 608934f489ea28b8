package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/autoscale-sim/sim"
)

// RunHeader is the YAML sidecar describing how a CSV was produced.
type RunHeader struct {
	Version         int        `yaml:"header_version"`
	Mode            string     `yaml:"mode"` // "aggregate" or "requests"
	CreatedAt       string     `yaml:"created_at,omitempty"`
	Ticks           int        `yaml:"ticks"`
	IntervalSeconds float64    `yaml:"interval_seconds"`
	Records         int        `yaml:"records"`
	ScalingEvents   int        `yaml:"scaling_events"`
	Config          sim.Config `yaml:"config"`
}

// WriteRunHeader marshals header to YAML at path.
func WriteRunHeader(path string, header *RunHeader) error {
	if header.Version == 0 {
		header.Version = 1
	}
	if header.CreatedAt == "" {
		header.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	data, err := yaml.Marshal(header)
	if err != nil {
		return fmt.Errorf("marshaling run header: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing run header: %w", err)
	}
	return nil
}

// LoadRunHeader reads a header written by WriteRunHeader.
func LoadRunHeader(path string) (*RunHeader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run header: %w", err)
	}
	var header RunHeader
	if err := yaml.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("parsing run header: %w", err)
	}
	return &header, nil
}

// BuildFileName joins prefix and metadata pairs into a file name of the
// form prefix__k1=v1__k2=v2.ext, with keys sorted.
func BuildFileName(prefix, ext string, meta map[string]string) string {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := []string{prefix}
	for _, k := range keys {
		parts = append(parts, k+"="+meta[k])
	}
	return strings.Join(parts, "__") + ext
}

// ParseFileMetadata extracts the k=v pairs from a name built by
// BuildFileName. Segments without '=' are ignored.
func ParseFileMetadata(path string) map[string]string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	meta := make(map[string]string)
	for _, part := range strings.Split(stem, "__") {
		if k, v, ok := strings.Cut(part, "="); ok && k != "" {
			meta[k] = v
		}
	}
	return meta
}

// HeaderPath returns the sidecar path for a CSV: data.csv → data.header.yaml.
func HeaderPath(csvPath string) string {
	return strings.TrimSuffix(csvPath, filepath.Ext(csvPath)) + ".header.yaml"
}
