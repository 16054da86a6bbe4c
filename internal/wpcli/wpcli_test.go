// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

package wpcli

import (
	"fmt"
	"strings"
	"testing"
)

// recordingRunner captures commands and replays canned output.
type recordingRunner struct {
	commands []string
	stdout   string
	err      error
}

func (r *recordingRunner) run(command string) (string, string, error) {
	r.commands = append(r.commands, command)
	if r.err != nil {
		return "", "wp: error", r.err
	}
	return r.stdout, "", nil
}

func (r *recordingRunner) last() string {
	if len(r.commands) == 0 {
		return ""
	}
	return r.commands[len(r.commands)-1]
}

func TestExportDatabaseCommand(t *testing.T) {
	r := &recordingRunner{}
	c := New(r.run)

	if err := c.ExportDatabase("/tmp/dump.sql", nil); err != nil {
		t.Fatalf("ExportDatabase: %v", err)
	}
	want := "wp db export '/tmp/dump.sql' --add-drop-table"
	if r.last() != want {
		t.Errorf("command = %q, want %q", r.last(), want)
	}

	if err := c.ExportDatabase("/tmp/dump.sql", []string{"wp_sessions", "wp_cache"}); err != nil {
		t.Fatalf("ExportDatabase: %v", err)
	}
	if !strings.Contains(r.last(), "--exclude_tables='wp_sessions,wp_cache'") {
		t.Errorf("excludes not passed: %q", r.last())
	}
}

func TestImportDatabaseCommand(t *testing.T) {
	r := &recordingRunner{}
	if err := New(r.run).ImportDatabase("/tmp/dump.sql"); err != nil {
		t.Fatalf("ImportDatabase: %v", err)
	}
	if r.last() != "wp db import '/tmp/dump.sql'" {
		t.Errorf("command = %q", r.last())
	}
}

func TestTablesParsesCSV(t *testing.T) {
	r := &recordingRunner{stdout: "wp_posts\nwp_options\n\nwp_users\n"}
	tables, err := New(r.run).Tables()
	if err != nil {
		t.Fatalf("Tables: %v", err)
	}
	if len(tables) != 3 || tables[0] != "wp_posts" || tables[2] != "wp_users" {
		t.Errorf("tables = %v", tables)
	}
}

func TestSearchReplaceParsesCount(t *testing.T) {
	r := &recordingRunner{stdout: "42\n"}
	c := New(r.run)

	count, err := c.SearchReplace("http://old", "https://new", false)
	if err != nil {
		t.Fatalf("SearchReplace: %v", err)
	}
	if count != 42 {
		t.Errorf("count = %d", count)
	}
	if !strings.Contains(r.last(), "'http://old' 'https://new'") {
		t.Errorf("command = %q", r.last())
	}
	if !strings.Contains(r.last(), "--all-tables-with-prefix") {
		t.Errorf("command = %q", r.last())
	}
	if strings.Contains(r.last(), "--dry-run") {
		t.Error("dry-run flag set without being requested")
	}
}

func TestSearchReplaceEmptyOutputMeansZero(t *testing.T) {
	r := &recordingRunner{stdout: ""}
	count, err := New(r.run).SearchReplace("a", "b", true)
	if err != nil {
		t.Fatalf("SearchReplace: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
	if !strings.Contains(r.last(), "--dry-run") {
		t.Errorf("command = %q", r.last())
	}
}

func TestVersionFailureWrapsError(t *testing.T) {
	r := &recordingRunner{err: fmt.Errorf("command not found")}
	if _, err := New(r.run).Version(); err == nil || !strings.Contains(err.Error(), "wp-cli not available") {
		t.Fatalf("err = %v", err)
	}
}

func TestNewRemotePrefixesWorkingDirectory(t *testing.T) {
	r := &recordingRunner{stdout: "2.9.0"}
	c := NewRemote(r.run, "/var/www/my site")

	if _, err := c.Version(); err != nil {
		t.Fatalf("Version: %v", err)
	}
	want := "cd '/var/www/my site' && wp --version"
	if r.last() != want {
		t.Errorf("command = %q, want %q", r.last(), want)
	}
}

func TestUpdateOptionsPrefix(t *testing.T) {
	r := &recordingRunner{}
	c := New(r.run)

	if err := c.UpdateOptionsPrefix("wp_", "live_"); err != nil {
		t.Fatalf("UpdateOptionsPrefix: %v", err)
	}
	cmd := r.last()
	if !strings.Contains(cmd, "UPDATE live_options") {
		t.Errorf("command = %q", cmd)
	}
	if !strings.Contains(cmd, "LIKE 'wp_%'") {
		t.Errorf("command = %q", cmd)
	}

	// Equal prefixes are a no-op.
	r.commands = nil
	if err := c.UpdateOptionsPrefix("wp_", "wp_"); err != nil {
		t.Fatalf("UpdateOptionsPrefix: %v", err)
	}
	if len(r.commands) != 0 {
		t.Errorf("no-op ran %v", r.commands)
	}
}

func TestShellQuote(t *testing.T) {
	cases := map[string]string{
		"plain":      "'plain'",
		"with space": "'with space'",
		"it's":       `'it'"'"'s'`,
	}
	for in, want := range cases {
		if got := shellQuote(in); got != want {
			t.Errorf("shellQuote(%q) = %s, want %s", in, got, want)
		}
	}
}
