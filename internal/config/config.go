// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config loads the wp-deploy application settings. Precedence, low
// to high: built-in defaults, wp-deploy.yaml (state directory, user config
// directory, or current directory), WP_DEPLOY_* environment variables,
// command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/toeirei/wp-deploy/internal/store"
)

const configName = "wp-deploy"

// AppConfig is the application-level configuration, distinct from the
// per-site records in sites.yaml.
type AppConfig struct {
	Language string `mapstructure:"language" yaml:"language"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	StateDir string `mapstructure:"state_dir" yaml:"state_dir"`
}

// Defaults returns the built-in settings.
func Defaults() map[string]any {
	return map[string]any{
		"language":  "en",
		"log_level": "info",
		"state_dir": "",
	}
}

// configPath returns the primary configuration file location inside the
// state directory.
func configPath() (string, error) {
	dir, err := store.DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configName+".yaml"), nil
}

// Load resolves the application configuration, binding the command's flags
// so --log-level and friends override file and environment values.
func Load(cmd *cobra.Command) (AppConfig, error) {
	var c AppConfig
	v := viper.New()

	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	if primary, err := configPath(); err == nil {
		v.AddConfigPath(filepath.Dir(primary))
	}
	if userDir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(userDir, configName))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}

	v.AutomaticEnv()
	v.AllowEmptyEnv(true)
	v.SetEnvPrefix("wp_deploy")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if cmd != nil {
		flagKeys := map[string]string{
			"language":  "language",
			"log_level": "log-level",
			"state_dir": "state-dir",
		}
		for key, name := range flagKeys {
			if f := cmd.Flags().Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return c, err
				}
			}
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}

	if c.StateDir == "" {
		dir, err := store.DefaultDir()
		if err != nil {
			return c, err
		}
		c.StateDir = dir
	}
	return c, nil
}

// WriteDefaultIfMissing persists the resolved configuration on first run,
// giving users a file to edit.
func WriteDefaultIfMissing(c AppConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return Write(c)
}

// Write persists the configuration to the primary location in the state
// directory.
func Write(c AppConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory %s: %w", filepath.Dir(path), err)
	}
	return os.WriteFile(path, data, 0o600)
}
