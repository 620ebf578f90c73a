package config

import (
	"github.com/johnmalek312/android-ui-collector/internal/infra/confloader"
)

// Sources maps each configuration key to the layer that set it.
type Sources map[string]confloader.Source

// Load builds the configuration from the defaults, the YAML file at path
// (optional), UICOLLECTOR_* environment variables and overrides, in that
// order of increasing priority.
func Load(path string, overrides map[string]any) (*Config, error) {
	cfg, _, err := LoadWithSources(path, overrides)
	return cfg, err
}

// LoadWithSources is Load that also reports where every key came from.
func LoadWithSources(path string, overrides map[string]any) (*Config, Sources, error) {
	cfg := Default()

	opts := []confloader.Option{}
	if path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}
	if len(overrides) > 0 {
		opts = append(opts, confloader.WithOverrides(overrides))
	}
	l := confloader.NewLoader(opts...)
	if err := l.Load(cfg); err != nil {
		return nil, nil, err
	}
	return cfg, Sources(l.Origins()), nil
}
