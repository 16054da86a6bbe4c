// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

package wpcli

import (
	"fmt"
	"os"
	"regexp"
)

// WPConfig holds the database settings extracted from a wp-config.php file.
// Used to prefill a site's database configuration.
type WPConfig struct {
	DBName      string
	DBUser      string
	DBPassword  string
	DBHost      string
	TablePrefix string
	SiteURL     string
	HomeURL     string
}

var (
	defineRe = map[string]*regexp.Regexp{
		"DB_NAME":     definePattern("DB_NAME"),
		"DB_USER":     definePattern("DB_USER"),
		"DB_PASSWORD": definePattern("DB_PASSWORD"),
		"DB_HOST":     definePattern("DB_HOST"),
		"WP_SITEURL":  definePattern("WP_SITEURL"),
		"WP_HOME":     definePattern("WP_HOME"),
	}
	tablePrefixRe = regexp.MustCompile(`\$table_prefix\s*=\s*['"]([^'"]+)['"]\s*;`)
)

func definePattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`define\s*\(\s*['"]` + name + `['"]\s*,\s*['"]([^'"]+)['"]\s*\)`)
}

// ParseWPConfig extracts database configuration from wp-config.php content.
// Missing values keep WordPress defaults (localhost host, wp_ prefix).
func ParseWPConfig(content []byte) WPConfig {
	cfg := WPConfig{DBHost: "localhost", TablePrefix: "wp_"}

	get := func(name string) string {
		if m := defineRe[name].FindSubmatch(content); m != nil {
			return string(m[1])
		}
		return ""
	}

	cfg.DBName = get("DB_NAME")
	cfg.DBUser = get("DB_USER")
	cfg.DBPassword = get("DB_PASSWORD")
	if host := get("DB_HOST"); host != "" {
		cfg.DBHost = host
	}
	cfg.SiteURL = get("WP_SITEURL")
	cfg.HomeURL = get("WP_HOME")

	if m := tablePrefixRe.FindSubmatch(content); m != nil {
		cfg.TablePrefix = string(m[1])
	}
	return cfg
}

// ParseWPConfigFile reads and parses a local wp-config.php.
func ParseWPConfigFile(path string) (WPConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return WPConfig{}, fmt.Errorf("wp-config.php not found at %s: %w", path, err)
	}
	return ParseWPConfig(data), nil
}
