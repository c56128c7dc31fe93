// Package config resolves runtime settings from defaults, an optional pm.yaml,
// PM_* environment variables and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	appDirName = "password-manager"
	configName = "pm"
	envPrefix  = "pm"
)

// Config is the resolved application configuration. Only DataDir reaches the
// engine; the rest tunes the CLI.
type Config struct {
	DataDir     string `mapstructure:"data_dir" yaml:"data_dir"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`
	BreachCheck bool   `mapstructure:"breach_check" yaml:"breach_check"`
	MinScore    int    `mapstructure:"min_score" yaml:"min_score"`
}

// flagKeys maps CLI flag names onto config keys.
var flagKeys = map[string]string{
	"data-dir":     "data_dir",
	"log-level":    "log_level",
	"breach-check": "breach_check",
	"min-score":    "min_score",
}

// DefaultDataDir returns <user config dir>/password-manager, falling back to
// ./password-manager when the platform has no such directory.
func DefaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		return appDirName
	}
	return filepath.Join(base, appDirName)
}

// Defaults returns the baseline value of every key.
func Defaults() map[string]any {
	return map[string]any{
		"data_dir":     DefaultDataDir(),
		"log_level":    "info",
		"breach_check": false,
		"min_score":    3,
	}
}

// Load resolves the configuration. configFile, when non-empty, must exist;
// otherwise pm.yaml is looked up in the user config dir and the working
// directory and is optional. flags may be nil.
func Load(flags *pflag.FlagSet, configFile string) (Config, error) {
	var c Config
	v := viper.New()

	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		if base, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(base, appDirName))
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return c, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return c, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Validate checks values a config file or environment could get wrong.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return errors.New("config: data_dir must not be empty")
	}
	if c.MinScore < 0 || c.MinScore > 4 {
		return fmt.Errorf("config: min_score must be between 0 and 4, got %d", c.MinScore)
	}
	return nil
}
