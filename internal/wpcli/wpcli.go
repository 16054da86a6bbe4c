// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package wpcli builds and runs WP-CLI invocations against a local or
// remote WordPress installation. All database work (export, import,
// search-replace including serialized PHP values) is delegated to `wp`;
// this package only assembles command lines and parses their plain-text
// output.
package wpcli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/toeirei/wp-deploy/internal/logging"
)

// Runner executes one shell command and returns its stdout and stderr.
// A non-zero exit must be returned as an error carrying the stderr text.
type Runner func(command string) (stdout, stderr string, err error)

// Client drives WP-CLI for a single WordPress installation.
type Client struct {
	run Runner
}

// New wraps an arbitrary runner. Used by tests and by NewLocal/NewRemote.
func New(run Runner) *Client { return &Client{run: run} }

// NewLocal returns a client that runs `wp` in the local installation
// directory.
func NewLocal(dir string) *Client {
	return &Client{run: localRunner(dir)}
}

// NewRemote returns a client that runs `wp` on the remote server through
// the given SSH runner, after changing into the remote installation path.
func NewRemote(run Runner, dir string) *Client {
	return &Client{run: func(command string) (string, string, error) {
		return run("cd " + shellQuote(dir) + " && " + command)
	}}
}

// Version returns the WP-CLI version string, verifying `wp` is available.
func (c *Client) Version() (string, error) {
	out, _, err := c.run("wp --version")
	if err != nil {
		return "", fmt.Errorf("wp-cli not available: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// ExportDatabase dumps the database to outPath via `wp db export`.
// --add-drop-table makes the resulting dump safe to import over an
// existing install.
func (c *Client) ExportDatabase(outPath string, excludeTables []string) error {
	cmd := "wp db export " + shellQuote(outPath)
	if len(excludeTables) > 0 {
		cmd += " --exclude_tables=" + shellQuote(strings.Join(excludeTables, ","))
	}
	cmd += " --add-drop-table"

	if _, _, err := c.run(cmd); err != nil {
		return fmt.Errorf("export database: %w", err)
	}
	logging.Infof("exported database to %s", outPath)
	return nil
}

// ImportDatabase loads a SQL dump via `wp db import`.
func (c *Client) ImportDatabase(path string) error {
	if _, _, err := c.run("wp db import " + shellQuote(path)); err != nil {
		return fmt.Errorf("import database: %w", err)
	}
	logging.Infof("imported database from %s", path)
	return nil
}

// Tables lists the database tables.
func (c *Client) Tables() ([]string, error) {
	out, _, err := c.run("wp db tables --format=csv")
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	var tables []string
	for _, line := range strings.Split(out, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			tables = append(tables, t)
		}
	}
	return tables, nil
}

// SearchReplace rewrites search to replace across all tables with the
// site's prefix, including inside serialized PHP values (WP-CLI handles
// that traversal). Returns the replacement count.
func (c *Client) SearchReplace(search, replace string, dryRun bool) (int, error) {
	cmd := "wp search-replace " + shellQuote(search) + " " + shellQuote(replace) +
		" --report-changed-only --format=count --all-tables-with-prefix"
	if dryRun {
		cmd += " --dry-run"
	}

	out, _, err := c.run(cmd)
	if err != nil {
		return 0, fmt.Errorf("search-replace: %w", err)
	}
	count, convErr := strconv.Atoi(strings.TrimSpace(out))
	if convErr != nil {
		// WP-CLI prints nothing when no rows changed.
		count = 0
	}
	return count, nil
}

// Query runs a raw SQL statement via `wp db query`.
func (c *Client) Query(sql string) error {
	if _, _, err := c.run("wp db query " + shellQuote(sql)); err != nil {
		return fmt.Errorf("db query: %w", err)
	}
	return nil
}

// OptionGet reads a WordPress option (e.g. siteurl).
func (c *Client) OptionGet(name string) (string, error) {
	out, _, err := c.run("wp option get " + shellQuote(name))
	if err != nil {
		return "", fmt.Errorf("get option %s: %w", name, err)
	}
	return strings.TrimSpace(out), nil
}

// UpdateOptionsPrefix rewrites option names in {prefix}options that still
// carry the old table prefix after a prefix change (wp_user_roles and
// friends).
func (c *Client) UpdateOptionsPrefix(oldPrefix, newPrefix string) error {
	if oldPrefix == newPrefix {
		return nil
	}
	sql := fmt.Sprintf(
		"UPDATE %soptions SET option_name = REPLACE(option_name, '%s', '%s') WHERE option_name LIKE '%s%%'",
		newPrefix, oldPrefix, newPrefix, oldPrefix,
	)
	return c.Query(sql)
}

// shellQuote single-quotes s for POSIX shells.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
