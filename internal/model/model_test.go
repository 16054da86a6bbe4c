// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import (
	"testing"
	"time"
)

func validSite() Site {
	return Site{
		ID:             "id-1",
		Name:           "example",
		LocalPath:      "/tmp/wp",
		RemoteHost:     "example.com",
		RemotePort:     22,
		RemotePath:     "/var/www",
		RemoteUsername: "deploy",
	}
}

func TestSiteValidate(t *testing.T) {
	site := validSite()
	if err := site.Validate(); err != nil {
		t.Fatalf("valid site rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Site)
	}{
		{"no id", func(s *Site) { s.ID = "" }},
		{"no name", func(s *Site) { s.Name = " " }},
		{"no local path", func(s *Site) { s.LocalPath = "" }},
		{"no host", func(s *Site) { s.RemoteHost = "" }},
		{"no user", func(s *Site) { s.RemoteUsername = "" }},
		{"port zero", func(s *Site) { s.RemotePort = 0 }},
		{"port too big", func(s *Site) { s.RemotePort = 70000 }},
	}
	for _, tc := range cases {
		s := validSite()
		tc.mutate(&s)
		if err := s.Validate(); err == nil {
			t.Errorf("%s: accepted", tc.name)
		}
	}
}

func TestSiteString(t *testing.T) {
	s := validSite()
	if got := s.String(); got != "deploy@example.com" {
		t.Errorf("String() = %q", got)
	}
}

func TestTouch(t *testing.T) {
	s := validSite()
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	s.Touch(now)
	if s.CreatedAt != s.UpdatedAt || s.CreatedAt == "" {
		t.Errorf("first touch: created %q updated %q", s.CreatedAt, s.UpdatedAt)
	}

	later := now.Add(time.Hour)
	s.Touch(later)
	if s.CreatedAt == s.UpdatedAt {
		t.Error("second touch must only move UpdatedAt")
	}
}

func TestDatabaseConfigValidate(t *testing.T) {
	cfg := NewDatabaseConfig()
	cfg.LocalDBName = "wp"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cfg.LocalURL = "http://localhost"
	if err := cfg.Validate(); err == nil {
		t.Error("half-set URL pair accepted")
	}
	cfg.RemoteURL = "https://example.com"
	if err := cfg.Validate(); err != nil {
		t.Errorf("full URL pair rejected: %v", err)
	}

	cfg.LocalTablePrefix = ""
	if err := cfg.Validate(); err == nil {
		t.Error("empty prefix accepted")
	}
}

func TestNewDatabaseConfigDefaults(t *testing.T) {
	cfg := NewDatabaseConfig()
	if cfg.LocalDBHost != "localhost" || cfg.LocalDBPort != 3306 || cfg.LocalTablePrefix != "wp_" {
		t.Errorf("defaults = %+v", cfg)
	}
	if !cfg.BackupBeforeImport || !cfg.RequireConfirmationOnPush {
		t.Error("safety defaults must be on")
	}
}

func TestDefaultExcludePatternsCoverSecrets(t *testing.T) {
	patterns := DefaultExcludePatterns()
	want := map[string]bool{"wp-config.php": false, ".env": false, "*.sql": false}
	for _, p := range patterns {
		if _, ok := want[p]; ok {
			want[p] = true
		}
	}
	for p, seen := range want {
		if !seen {
			t.Errorf("default excludes missing %q", p)
		}
	}
}
