// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

package sync

import (
	"testing"

	"github.com/toeirei/wp-deploy/internal/model"
)

func TestShouldExclude(t *testing.T) {
	patterns := model.DefaultExcludePatterns()

	cases := []struct {
		path string
		want bool
	}{
		{"wp-config.php", true},
		{"wp-content/debug.log", true},         // *.log by basename
		{"error.log", true},                    // *.log full path
		{".git/config", true},                  // dir component pattern
		{"themes/node_modules/pkg/x.js", true}, // nested dir component
		{"backup.sql", true},
		{"dump.sql.gz", true},
		{".env", true},
		{"wp-content/uploads/2026/a.jpg", false},
		{"wp-content/themes/mytheme/style.css", false},
		{"index.php", false},
		{"sub/wp-config.php", true}, // basename match
		{"envoy.php", false},        // .env must not match as prefix
	}
	for _, tc := range cases {
		if got := ShouldExclude(tc.path, patterns); got != tc.want {
			t.Errorf("ShouldExclude(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestShouldExcludeDirPatternDoesNotMatchFile(t *testing.T) {
	// A trailing-slash pattern names directories, not files of that name.
	if ShouldExclude("node_modules", []string{"node_modules/"}) {
		t.Error("directory pattern matched a plain file")
	}
	if !ShouldExclude("node_modules/left-pad/index.js", []string{"node_modules/"}) {
		t.Error("directory pattern missed a contained file")
	}
}

func TestFilterPaths(t *testing.T) {
	got := FilterPaths(
		[]string{"index.php", "debug.log", "wp-content/a.css"},
		[]string{"*.log"},
	)
	want := []string{"index.php", "wp-content/a.css"}
	if len(got) != len(want) {
		t.Fatalf("FilterPaths returned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("FilterPaths[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFilterPathsEmptyPatternIgnored(t *testing.T) {
	got := FilterPaths([]string{"a.php"}, []string{"", "  "})
	if len(got) != 1 {
		t.Fatalf("blank patterns must not exclude anything, got %v", got)
	}
}
