package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/inference-sim/autoscale-sim/sim"
	"github.com/inference-sim/autoscale-sim/sim/export"
	"github.com/inference-sim/autoscale-sim/sim/metrics"
	"github.com/inference-sim/autoscale-sim/sim/stats"
)

// envPrefix namespaces environment overrides: --max-replicas ↔ AUTOSIM_MAX_REPLICAS.
const envPrefix = "AUTOSIM"

// runCmd generates a synthetic telemetry run and writes it to disk
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate aggregate or per-request telemetry for a simulated autoscaled service",
	Run: func(cmd *cobra.Command, args []string) {
		v, err := newViper(cmd.Flags())
		if err != nil {
			logrus.Fatalf("Binding flags: %v", err)
		}
		cfg, err := resolveConfig(v)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		opts := resolveRunOptions(v)

		logrus.Infof("Starting %s run: %d intervals, seed=%d, replicas %d..%d, threshold=%.4g, latency=%s",
			opts.Mode, opts.Intervals, cfg.Seed, cfg.Scaling.MinReplicas, cfg.Scaling.MaxReplicas,
			cfg.Scaling.ScaleThreshold, cfg.Latency.Model)

		startTime := time.Now()
		out, err := runSimulation(cfg, opts)
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		logrus.Infof("Wrote %s", out.DataPath)
		logrus.Infof("Wrote %s", out.EventsPath)
		logrus.Infof("Wrote %s", out.HeaderPath)
		if out.MetricsPath != "" {
			logrus.Infof("Wrote %s", out.MetricsPath)
		}

		out.PrintSummary(os.Stdout)
		logrus.Infof("Simulation complete in %s.", time.Since(startTime).Round(time.Millisecond))
	},
}

func registerRunFlags(fs *pflag.FlagSet) {
	def := sim.DefaultConfig()

	fs.String("config", "", "Path to a YAML simulation config (overrides preset and defaults)")
	fs.String("preset", "", fmt.Sprintf("Named scenario from the bundled presets %v", presetNames()))
	fs.String("mode", export.KindAggregate, "Output mode: aggregate (one row per tick) or requests (one row per request)")
	fs.Int("duration", 1440, "Number of ticks (aggregate) or intervals (requests) to simulate")
	fs.Float64("request-interval", 0, "Interval length in seconds for requests mode (0 = tick_seconds)")
	fs.String("output-dir", "output", "Directory for CSV, scaling-event and header files")
	fs.String("metrics-file", "", "If set, write Prometheus text-format metrics for the run to this path")

	fs.Int64("seed", def.Seed, "Seed for all random draws")
	fs.Float64("tick-seconds", def.TickSeconds, "Tick length in seconds")
	fs.Int("min-replicas", def.Scaling.MinReplicas, "Minimum replica count")
	fs.Int("max-replicas", def.Scaling.MaxReplicas, "Maximum replica count")
	fs.Float64("scale-threshold", def.Scaling.ScaleThreshold, "In-flight requests one replica absorbs before scaling up")
	fs.Float64("cooldown", def.Scaling.CooldownSeconds, "Minimum seconds between replica changes (0 = threshold hysteresis only)")
	fs.Float64("base-rate", def.Load.BaseRate, "Mean request rate in rps")
	fs.Float64("spike-interval", def.Load.SpikeIntervalSeconds, "Seconds between spike starts (0 disables spikes)")
	fs.Float64("spike-duration", def.Load.SpikeDurationSeconds, "Spike window length in seconds")
	fs.Float64("spike-magnitude", def.Load.SpikeMagnitude, "Spike peak rate as a multiple of base-rate")
	fs.String("latency-model", def.Latency.Model, "Latency model: linear or quadratic")
}

// configOverrides maps CLI keys onto config fields. Each is applied only when
// the key was set by a flag or an AUTOSIM_ environment variable.
var configOverrides = []struct {
	key   string
	apply func(v *viper.Viper, cfg *sim.Config)
}{
	{"seed", func(v *viper.Viper, c *sim.Config) { c.Seed = v.GetInt64("seed") }},
	{"tick-seconds", func(v *viper.Viper, c *sim.Config) { c.TickSeconds = v.GetFloat64("tick-seconds") }},
	{"min-replicas", func(v *viper.Viper, c *sim.Config) { c.Scaling.MinReplicas = v.GetInt("min-replicas") }},
	{"max-replicas", func(v *viper.Viper, c *sim.Config) { c.Scaling.MaxReplicas = v.GetInt("max-replicas") }},
	{"scale-threshold", func(v *viper.Viper, c *sim.Config) { c.Scaling.ScaleThreshold = v.GetFloat64("scale-threshold") }},
	{"cooldown", func(v *viper.Viper, c *sim.Config) { c.Scaling.CooldownSeconds = v.GetFloat64("cooldown") }},
	{"base-rate", func(v *viper.Viper, c *sim.Config) { c.Load.BaseRate = v.GetFloat64("base-rate") }},
	{"spike-interval", func(v *viper.Viper, c *sim.Config) { c.Load.SpikeIntervalSeconds = v.GetFloat64("spike-interval") }},
	{"spike-duration", func(v *viper.Viper, c *sim.Config) { c.Load.SpikeDurationSeconds = v.GetFloat64("spike-duration") }},
	{"spike-magnitude", func(v *viper.Viper, c *sim.Config) { c.Load.SpikeMagnitude = v.GetFloat64("spike-magnitude") }},
	{"latency-model", func(v *viper.Viper, c *sim.Config) { c.Latency.Model = v.GetString("latency-model") }},
}

// newViper binds fs and the AUTOSIM_ environment into a fresh viper instance.
func newViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	return v, nil
}

// resolveConfig builds the simulation config with precedence
// flag > env > config file > preset > defaults, then validates it.
func resolveConfig(v *viper.Viper) (sim.Config, error) {
	cfg := sim.DefaultConfig()
	if err := applyPreset(&cfg, v.GetString("preset")); err != nil {
		return cfg, err
	}
	if path := v.GetString("config"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
		if err := cfg.ApplyYAML(data); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}
	for _, o := range configOverrides {
		if v.IsSet(o.key) {
			o.apply(v, &cfg)
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

type runOptions struct {
	Mode            string
	Intervals       int
	IntervalSeconds float64 // requests mode; 0 = tick_seconds
	OutputDir       string
	MetricsFile     string
}

func resolveRunOptions(v *viper.Viper) runOptions {
	return runOptions{
		Mode:            v.GetString("mode"),
		Intervals:       v.GetInt("duration"),
		IntervalSeconds: v.GetFloat64("request-interval"),
		OutputDir:       v.GetString("output-dir"),
		MetricsFile:     v.GetString("metrics-file"),
	}
}

type runOutput struct {
	DataPath    string
	EventsPath  string
	HeaderPath  string
	MetricsPath string

	Aggregate *stats.AggregateSummary
	Requests  *stats.RequestSummary
	Events    []sim.ScalingEvent
}

// PrintSummary writes the human-readable run summary.
func (o *runOutput) PrintSummary(w io.Writer) {
	switch {
	case o.Aggregate != nil:
		printAggregateSummary(w, *o.Aggregate)
	case o.Requests != nil:
		printRequestSummary(w, *o.Requests)
	}
	fmt.Fprintf(w, "Scaling events: %d\n", len(o.Events))
}

// runSimulation runs the engine in the requested mode and writes the data
// CSV, the scaling-event CSV and the run header into opts.OutputDir.
func runSimulation(cfg sim.Config, opts runOptions) (*runOutput, error) {
	if opts.Intervals <= 0 {
		return nil, fmt.Errorf("duration must be > 0, got %d", opts.Intervals)
	}
	engine, err := sim.NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	logrus.Debugf("Engine ready: key=%d, mode=%s", engine.Key(), opts.Mode)

	meta := map[string]string{
		"seed":    strconv.FormatInt(cfg.Seed, 10),
		"maxpods": strconv.Itoa(cfg.Scaling.MaxReplicas),
		"latency": cfg.Latency.Model,
	}
	out := &runOutput{}
	header := &export.RunHeader{Mode: opts.Mode, Ticks: opts.Intervals, Config: cfg}

	var exporter *metrics.Exporter
	if opts.MetricsFile != "" {
		exporter = metrics.NewExporter(export.BuildFileName(opts.Mode, "", meta))
	}

	switch opts.Mode {
	case export.KindAggregate:
		records, err := engine.RunTicks(opts.Intervals)
		if err != nil {
			return nil, err
		}
		out.DataPath = filepath.Join(opts.OutputDir, export.BuildFileName(opts.Mode, ".csv", meta))
		if err := export.WriteFile(out.DataPath, func(w io.Writer) error {
			return export.WriteAggregateCSV(w, records)
		}); err != nil {
			return nil, err
		}
		summary := stats.SummarizeAggregate(records)
		out.Aggregate = &summary
		header.IntervalSeconds = cfg.TickSeconds
		header.Records = len(records)
		if exporter != nil {
			for _, r := range records {
				exporter.ObserveAggregate(r)
			}
		}

	case export.KindRequests:
		interval := opts.IntervalSeconds
		if interval == 0 {
			interval = cfg.TickSeconds
		}
		records, err := engine.RunRequests(opts.Intervals, interval)
		if err != nil {
			return nil, err
		}
		out.DataPath = filepath.Join(opts.OutputDir, export.BuildFileName(opts.Mode, ".csv", meta))
		if err := export.WriteFile(out.DataPath, func(w io.Writer) error {
			return export.WriteRequestCSV(w, records)
		}); err != nil {
			return nil, err
		}
		summary := stats.SummarizeRequests(records)
		out.Requests = &summary
		header.IntervalSeconds = interval
		header.Records = len(records)
		if exporter != nil {
			for _, r := range records {
				exporter.ObserveRequest(r)
			}
		}

	default:
		return nil, fmt.Errorf("unknown mode %q (want %s or %s)", opts.Mode, export.KindAggregate, export.KindRequests)
	}

	out.Events = engine.ScalingEvents()
	header.ScalingEvents = len(out.Events)
	out.EventsPath = filepath.Join(opts.OutputDir, export.BuildFileName("scaling_events", ".csv", meta))
	if err := export.WriteFile(out.EventsPath, func(w io.Writer) error {
		return export.WriteScalingEventsCSV(w, out.Events)
	}); err != nil {
		return nil, err
	}
	out.HeaderPath = export.HeaderPath(out.DataPath)
	if err := export.WriteRunHeader(out.HeaderPath, header); err != nil {
		return nil, err
	}

	if exporter != nil {
		for _, ev := range out.Events {
			exporter.ObserveEvent(ev)
		}
		if err := exporter.WriteTextfile(opts.MetricsFile); err != nil {
			return nil, err
		}
		out.MetricsPath = opts.MetricsFile
	}
	return out, nil
}
