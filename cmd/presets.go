package cmd

import (
	"bytes"
	_ "embed"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/inference-sim/autoscale-sim/sim"
)

//go:embed presets.yaml
var presetsYAML []byte

// Preset is a named partial configuration from presets.yaml.
type Preset struct {
	Description string    `yaml:"description"`
	Config      yaml.Node `yaml:"config"`
}

// PresetFile represents the full presets.yaml structure.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type PresetFile struct {
	Version string            `yaml:"version"`
	Presets map[string]Preset `yaml:"presets"`
}

func loadPresets(data []byte) (PresetFile, error) {
	var pf PresetFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&pf); err != nil {
		return pf, fmt.Errorf("parsing presets: %w", err)
	}
	return pf, nil
}

// presetNames lists the bundled preset names in sorted order.
func presetNames() []string {
	pf, err := loadPresets(presetsYAML)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(pf.Presets))
	for name := range pf.Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// applyPreset overlays the named bundled preset onto cfg. An unknown name
// logs a warning and leaves cfg unchanged.
func applyPreset(cfg *sim.Config, name string) error {
	if name == "" {
		return nil
	}
	pf, err := loadPresets(presetsYAML)
	if err != nil {
		return err
	}
	preset, ok := pf.Presets[name]
	if !ok {
		logrus.Warnf("Unknown preset %q (available: %v); using built-in defaults", name, presetNames())
		return nil
	}
	if preset.Config.Kind == 0 {
		return nil
	}
	data, err := yaml.Marshal(&preset.Config)
	if err != nil {
		return fmt.Errorf("preset %q: %w", name, err)
	}
	if err := cfg.ApplyYAML(data); err != nil {
		return fmt.Errorf("preset %q: %w", name, err)
	}
	logrus.Infof("Applied preset %q: %s", name, preset.Description)
	return nil
}
