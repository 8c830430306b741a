// Package config loads generator settings from defaults, an optional
// gloo.toml, GLOO_* environment variables and command-line flags.
package config

import (
	"go/token"
	"runtime"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// Config drives one generator run.
type Config struct {
	Input     string `mapstructure:"input"`
	Output    string `mapstructure:"output"`
	Package   string `mapstructure:"package"`
	API       string `mapstructure:"api"`
	Version   string `mapstructure:"version"`
	ErrorFunc string `mapstructure:"error_func"`
	BeginFunc string `mapstructure:"begin_func"`
	EndFunc   string `mapstructure:"end_func"`

	// HostOS is the platform the platform-dependent type aliases are chosen
	// for. It defaults to the machine running the generator.
	HostOS string `mapstructure:"host_os"`

	Format bool `mapstructure:"format"`
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("input", "./api/gl.xml")
	v.SetDefault("output", "./gloo/gloo.go")
	v.SetDefault("package", "gloo")
	v.SetDefault("api", "")
	v.SetDefault("version", "0.1.0")
	v.SetDefault("error_func", "glGetError")
	v.SetDefault("begin_func", "glBegin")
	v.SetDefault("end_func", "glEnd")
	v.SetDefault("host_os", runtime.GOOS)
	v.SetDefault("format", true)
}

// New returns a viper instance with defaults, environment binding and, if
// present, the config file applied. An explicit configFile must exist; the
// implicit ./gloo.toml is optional.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("GLOO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", configFile)
		}
		return v, nil
	}

	v.SetConfigName("gloo")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "failed to read gloo.toml")
		}
	}

	return v, nil
}

// Load unmarshals and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration can produce a compilable file.
func (c *Config) Validate() error {
	if c.Input == "" {
		return errors.New("input cannot be empty")
	}
	if c.Output == "" {
		return errors.New("output cannot be empty")
	}
	if !token.IsIdentifier(c.Package) || c.Package == "_" {
		return errors.WithHint(
			errors.Newf("package %q is not a valid Go package name", c.Package),
			"use a lower-case identifier such as \"gl\"")
	}
	if c.ErrorFunc == "" {
		return errors.New("error_func cannot be empty")
	}
	if c.HostOS == "" {
		return errors.New("host_os cannot be empty")
	}
	return nil
}
