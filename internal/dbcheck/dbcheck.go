// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package dbcheck probes the configured local MySQL database directly,
// giving a WP-CLI-independent answer to "are the stored credentials right".
package dbcheck

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/toeirei/wp-deploy/internal/model"
	"github.com/toeirei/wp-deploy/internal/security"
)

// pingTimeout bounds the connectivity probe; a wrong host should not hang
// the UI for long.
const pingTimeout = 5 * time.Second

// Ping connects to the site's local database with the keyring password and
// reports reachability.
func Ping(cfg *model.DatabaseConfig, password security.Secret) error {
	if cfg == nil {
		return fmt.Errorf("database not configured for this site")
	}

	mc := mysql.NewConfig()
	mc.User = cfg.LocalDBUser
	mc.Passwd = password.Reveal()
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.LocalDBHost, cfg.LocalDBPort)
	mc.DBName = cfg.LocalDBName
	mc.Timeout = pingTimeout

	db, err := sql.Open("mysql", mc.FormatDSN())
	if err != nil {
		return fmt.Errorf("open database handle: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database %s at %s unreachable: %w", cfg.LocalDBName, mc.Addr, err)
	}
	return nil
}
