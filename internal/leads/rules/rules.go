// Package rules bundles the tunable thresholds of the engine and loads
// operator overrides from YAML.
package rules

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"leadflow_backend/internal/leads/scoring"
	"leadflow_backend/internal/leads/temperature"

	"gopkg.in/yaml.v3"
)

// Set is the complete rule configuration.
type Set struct {
	Scoring     scoring.Profile        `yaml:"scoring"`
	Temperature temperature.Thresholds `yaml:"temperature"`
	Progression Progression            `yaml:"progression"`
}

// Default returns the built-in rule set.
func Default() Set {
	return Set{
		Scoring:     scoring.DefaultProfile(),
		Temperature: temperature.DefaultThresholds(),
		Progression: DefaultProgression(),
	}
}

// Load reads overrides from path on top of Default. An empty path yields
// the defaults. Keys absent from the file keep their default values.
func Load(path string) (Set, error) {
	set := Default()
	if path == "" {
		return set, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Set{}, fmt.Errorf("read rules file: %w", err)
	}
	return Decode(set, data)
}

// Decode overlays YAML data on base.
func Decode(base Set, data []byte) (Set, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&base); err != nil && !errors.Is(err, io.EOF) {
		return Set{}, fmt.Errorf("decode rules: %w", err)
	}
	if err := base.validate(); err != nil {
		return Set{}, err
	}
	return base, nil
}

func (s Set) validate() error {
	t := s.Temperature
	for name, b := range map[string]temperature.Bands{"review_bands": t.ReviewBands, "pending_bands": t.PendingBands} {
		if !(b.Hot > b.Warm && b.Warm > b.Cold) {
			return fmt.Errorf("temperature.%s must satisfy hot > warm > cold", name)
		}
	}
	if t.VelocityHotCount < t.VelocityWarmCount {
		return errors.New("temperature.velocity_hot_count must be >= velocity_warm_count")
	}
	if !(t.DecayWarmAfterDays < t.DecayColdAfterDays && t.DecayColdAfterDays < t.DecayFrozenAfterDays) {
		return errors.New("temperature decay days must be increasing")
	}
	if s.Scoring.MinBudget > s.Scoring.MaxBudget {
		return errors.New("scoring.min_budget must not exceed max_budget")
	}
	if s.Scoring.FrequencyWindowDays <= 0 {
		return errors.New("scoring.frequency_window_days must be positive")
	}
	return nil
}
