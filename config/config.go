// Package config loads the engine configuration: approximation and
// reflection options, the limb-darkening law, the atmosphere atlas choice
// and the table directories. Values come from an optional YAML file with
// ELISA_-prefixed environment overrides.
package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/stefanparimucha/elisa/fault"
)

// Config carries every option the engine recognises.
type Config struct {
	ReflectionEffect           bool    `yaml:"reflection_effect" mapstructure:"reflection_effect"`
	ReflectionEffectIterations int     `yaml:"reflection_effect_iterations" mapstructure:"reflection_effect_iterations"`
	MaxRelativeDRPoint         float64 `yaml:"max_relative_d_r_point" mapstructure:"max_relative_d_r_point"`
	LimbDarkeningLaw           string  `yaml:"limb_darkening_law" mapstructure:"limb_darkening_law"`
	Atlas                      string  `yaml:"atlas" mapstructure:"atlas"`
	Approximation              string  `yaml:"approximation" mapstructure:"approximation"`

	AtmosphereTables    string `yaml:"atmosphere_tables" mapstructure:"atmosphere_tables"`
	LimbDarkeningTables string `yaml:"limb_darkening_tables" mapstructure:"limb_darkening_tables"`
	PassbandTables      string `yaml:"passband_tables" mapstructure:"passband_tables"`
}

// Default returns the documented defaults.
func Default() Config {
	return Config{
		ReflectionEffect:           true,
		ReflectionEffectIterations: 2,
		MaxRelativeDRPoint:         0.1,
		LimbDarkeningLaw:           "linear",
		Atlas:                      "ck04",
		Approximation:              "auto",
	}
}

// Load reads the configuration file (optional; defaults apply when path is
// empty) and applies environment overrides.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ELISA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("reflection_effect", def.ReflectionEffect)
	v.SetDefault("reflection_effect_iterations", def.ReflectionEffectIterations)
	v.SetDefault("max_relative_d_r_point", def.MaxRelativeDRPoint)
	v.SetDefault("limb_darkening_law", def.LimbDarkeningLaw)
	v.SetDefault("atlas", def.Atlas)
	v.SetDefault("approximation", def.Approximation)
	v.SetDefault("atmosphere_tables", def.AtmosphereTables)
	v.SetDefault("limb_darkening_tables", def.LimbDarkeningTables)
	v.SetDefault("passband_tables", def.PassbandTables)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "config file %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "config unmarshal")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects unknown enumeration values and nonsensical numbers.
func (c Config) Validate() error {
	switch c.LimbDarkeningLaw {
	case "linear", "logarithmic", "square-root":
	default:
		return errors.WithMessagef(fault.InvalidInput, "limb_darkening_law %q", c.LimbDarkeningLaw)
	}
	switch c.Atlas {
	case "ck04", "k93":
	default:
		return errors.WithMessagef(fault.InvalidInput, "atlas %q", c.Atlas)
	}
	switch c.Approximation {
	case "auto", "exact", "mirror", "interpolate", "similarity":
	default:
		return errors.WithMessagef(fault.InvalidInput, "approximation %q", c.Approximation)
	}
	if c.ReflectionEffectIterations < 1 {
		return errors.WithMessagef(fault.InvalidInput,
			"reflection_effect_iterations %d must be at least 1", c.ReflectionEffectIterations)
	}
	if c.MaxRelativeDRPoint <= 0 || c.MaxRelativeDRPoint >= 1 {
		return errors.WithMessagef(fault.InvalidInput,
			"max_relative_d_r_point %g not in (0, 1)", c.MaxRelativeDRPoint)
	}
	return nil
}
