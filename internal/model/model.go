// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package model defines the persisted configuration and state records for
// wp-deploy: sites, their optional database configuration, per-site sync
// state, and the export envelope used to move a site between machines.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Site is the configuration record for one WordPress site. Sites are stored
// as a YAML list in sites.yaml and mutated wholesale (read-all, modify,
// write-all).
type Site struct {
	ID               string          `yaml:"id" json:"id"`
	Name             string          `yaml:"name" json:"name"`
	LocalPath        string          `yaml:"local_path" json:"local_path"`
	GitRepoPath      string          `yaml:"git_repo_path" json:"git_repo_path"`
	RemoteHost       string          `yaml:"remote_host" json:"remote_host"`
	RemotePort       int             `yaml:"remote_port" json:"remote_port"`
	RemotePath       string          `yaml:"remote_path" json:"remote_path"`
	RemoteUsername   string          `yaml:"remote_username" json:"remote_username"`
	SSHKeyFile       string          `yaml:"ssh_key_file,omitempty" json:"ssh_key_file,omitempty"`
	SiteURL          string          `yaml:"site_url" json:"site_url"`
	LastPushedCommit string          `yaml:"last_pushed_commit" json:"last_pushed_commit"`
	ExcludePatterns  []string        `yaml:"exclude_patterns" json:"exclude_patterns"`
	PullIncludePaths []string        `yaml:"pull_include_paths" json:"pull_include_paths"`
	CreatedAt        string          `yaml:"created_at" json:"created_at"`
	UpdatedAt        string          `yaml:"updated_at" json:"updated_at"`
	Database         *DatabaseConfig `yaml:"database,omitempty" json:"database,omitempty"`
}

// String returns the user@host representation of the site's remote endpoint.
func (s Site) String() string {
	return fmt.Sprintf("%s@%s", s.RemoteUsername, s.RemoteHost)
}

// Validate checks the fields every operation depends on.
func (s *Site) Validate() error {
	switch {
	case strings.TrimSpace(s.ID) == "":
		return fmt.Errorf("site has no id")
	case strings.TrimSpace(s.Name) == "":
		return fmt.Errorf("site %s has no name", s.ID)
	case strings.TrimSpace(s.LocalPath) == "":
		return fmt.Errorf("site %q has no local path", s.Name)
	case strings.TrimSpace(s.RemoteHost) == "":
		return fmt.Errorf("site %q has no remote host", s.Name)
	case strings.TrimSpace(s.RemoteUsername) == "":
		return fmt.Errorf("site %q has no remote username", s.Name)
	}
	if s.RemotePort <= 0 || s.RemotePort > 65535 {
		return fmt.Errorf("site %q has invalid remote port %d", s.Name, s.RemotePort)
	}
	if s.Database != nil {
		if err := s.Database.Validate(); err != nil {
			return fmt.Errorf("site %q: %w", s.Name, err)
		}
	}
	return nil
}

// Touch updates the modification timestamp.
func (s *Site) Touch(now time.Time) {
	s.UpdatedAt = now.Format(time.RFC3339)
	if s.CreatedAt == "" {
		s.CreatedAt = s.UpdatedAt
	}
}

// DefaultExcludePatterns returns the exclusion set applied to new sites.
// Patterns are fnmatch-style globs; a trailing slash marks a directory
// pattern matched against every path component.
func DefaultExcludePatterns() []string {
	return []string{
		"*.log",
		"wp-config.php",
		"wp-config-local.php",
		".git/",
		"node_modules/",
		".DS_Store",
		".htaccess",
		"*.sql",
		"*.sql.gz",
		".env",
		".env.local",
	}
}

// DatabaseConfig holds the per-site database connection parameters and the
// URL pair used for search-replace. Passwords are never stored here; they
// live in the OS keyring under the wp-deploy-db service.
type DatabaseConfig struct {
	LocalDBName      string `yaml:"local_db_name" json:"local_db_name"`
	LocalDBHost      string `yaml:"local_db_host" json:"local_db_host"`
	LocalDBPort      int    `yaml:"local_db_port" json:"local_db_port"`
	LocalDBUser      string `yaml:"local_db_user" json:"local_db_user"`
	LocalTablePrefix string `yaml:"local_table_prefix" json:"local_table_prefix"`

	RemoteDBName      string `yaml:"remote_db_name" json:"remote_db_name"`
	RemoteDBHost      string `yaml:"remote_db_host" json:"remote_db_host"`
	RemoteDBPort      int    `yaml:"remote_db_port" json:"remote_db_port"`
	RemoteDBUser      string `yaml:"remote_db_user" json:"remote_db_user"`
	RemoteTablePrefix string `yaml:"remote_table_prefix" json:"remote_table_prefix"`

	LocalURL  string `yaml:"local_url" json:"local_url"`
	RemoteURL string `yaml:"remote_url" json:"remote_url"`

	ExcludeTables []string `yaml:"exclude_tables" json:"exclude_tables"`

	BackupBeforeImport        bool `yaml:"backup_before_import" json:"backup_before_import"`
	RequireConfirmationOnPush bool `yaml:"require_confirmation_on_push" json:"require_confirmation_on_push"`
	SaveDatabaseBackups       bool `yaml:"save_database_backups" json:"save_database_backups"`
}

// NewDatabaseConfig returns a database configuration with the usual
// WordPress defaults filled in.
func NewDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		LocalDBHost:               "localhost",
		LocalDBPort:               3306,
		LocalDBUser:               "root",
		LocalTablePrefix:          "wp_",
		RemoteDBHost:              "localhost",
		RemoteDBPort:              3306,
		RemoteTablePrefix:         "wp_",
		BackupBeforeImport:        true,
		RequireConfirmationOnPush: true,
		SaveDatabaseBackups:       true,
	}
}

// Validate checks self-consistency of a database configuration. The URL
// pair is only required together: setting one side without the other would
// silently skip the search-replace step.
func (d *DatabaseConfig) Validate() error {
	if strings.TrimSpace(d.LocalDBName) == "" {
		return fmt.Errorf("database config has no local database name")
	}
	if d.LocalTablePrefix == "" || d.RemoteTablePrefix == "" {
		return fmt.Errorf("database config has an empty table prefix")
	}
	if (d.LocalURL == "") != (d.RemoteURL == "") {
		return fmt.Errorf("database config must set both local and remote URLs, or neither")
	}
	return nil
}
