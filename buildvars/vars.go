// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package buildvars contains variables injected at build time.
package buildvars

// Version is set at link time via
// `-ldflags -X github.com/toeirei/wp-deploy/buildvars.Version=...`.
// It is empty for local or development builds.
var Version string

// Commit is the short git commit SHA, set at link time.
var Commit string

// Date is the build timestamp (RFC3339), set at link time.
var Date string

// VersionOrDefault returns Version if set, otherwise the provided default.
func VersionOrDefault(def string) string {
	if len(Version) > 0 {
		return Version
	}
	return def
}
