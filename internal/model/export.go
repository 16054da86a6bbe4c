// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

package model

// Export envelope constants. The type tag guards against feeding arbitrary
// JSON to `site import`.
const (
	ExportVersion = 1
	ExportType    = "wp-deploy-site"
)

// ExportCredentials carries the keyring secrets alongside an exported site.
// The envelope is written in plain text; moving it between machines is the
// user's responsibility.
type ExportCredentials struct {
	SSH      string `json:"ssh,omitempty"`
	DBLocal  string `json:"db_local,omitempty"`
	DBRemote string `json:"db_remote,omitempty"`
}

// SiteExport is the JSON envelope produced by `site export` and consumed by
// `site import`. Importing assigns a fresh site ID and resets sync-tracking
// fields.
type SiteExport struct {
	Version     int               `json:"version"`
	ExportType  string            `json:"export_type"`
	Site        Site              `json:"site"`
	Credentials ExportCredentials `json:"credentials"`
}
