// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

package wpcli

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleWPConfig = `<?php
define( 'DB_NAME', 'wordpress' );
define('DB_USER', "wpuser");
define( 'DB_PASSWORD', 'p@ss' );
define( 'DB_HOST', 'db.internal:3307' );
define( 'WP_HOME', 'https://example.com' );

$table_prefix = 'site_';

require_once ABSPATH . 'wp-settings.php';
`

func TestParseWPConfig(t *testing.T) {
	cfg := ParseWPConfig([]byte(sampleWPConfig))

	if cfg.DBName != "wordpress" {
		t.Errorf("DBName = %q", cfg.DBName)
	}
	if cfg.DBUser != "wpuser" {
		t.Errorf("DBUser = %q", cfg.DBUser)
	}
	if cfg.DBPassword != "p@ss" {
		t.Errorf("DBPassword redacted? %q", cfg.DBPassword)
	}
	if cfg.DBHost != "db.internal:3307" {
		t.Errorf("DBHost = %q", cfg.DBHost)
	}
	if cfg.TablePrefix != "site_" {
		t.Errorf("TablePrefix = %q", cfg.TablePrefix)
	}
	if cfg.HomeURL != "https://example.com" {
		t.Errorf("HomeURL = %q", cfg.HomeURL)
	}
}

func TestParseWPConfigDefaults(t *testing.T) {
	cfg := ParseWPConfig([]byte("<?php define('DB_NAME', 'x');"))
	if cfg.DBHost != "localhost" {
		t.Errorf("DBHost default = %q", cfg.DBHost)
	}
	if cfg.TablePrefix != "wp_" {
		t.Errorf("TablePrefix default = %q", cfg.TablePrefix)
	}
}

func TestParseWPConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wp-config.php")
	if err := os.WriteFile(path, []byte(sampleWPConfig), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := ParseWPConfigFile(path)
	if err != nil {
		t.Fatalf("ParseWPConfigFile: %v", err)
	}
	if cfg.DBName != "wordpress" {
		t.Errorf("DBName = %q", cfg.DBName)
	}

	if _, err := ParseWPConfigFile(filepath.Join(t.TempDir(), "missing.php")); err == nil {
		t.Error("missing file must error")
	}
}
