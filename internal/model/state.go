// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

package model

// Operation status values recorded in sync_state.json.
const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// OperationState records the outcome of a single file push or pull.
type OperationState struct {
	Timestamp        string `json:"timestamp"`
	Status           string `json:"status"`
	FilesCount       int    `json:"files_count"`
	BytesTransferred int64  `json:"bytes_transferred"`
	ErrorMessage     string `json:"error_message"`
	CommitHash       string `json:"commit_hash"`      // push only
	CommitMessage    string `json:"commit_message"`   // push only
	DateRangeStart   string `json:"date_range_start"` // pull only
	DateRangeEnd     string `json:"date_range_end"`   // pull only
}

// DatabaseOperationState records the outcome of a database push or pull.
type DatabaseOperationState struct {
	Timestamp        string `json:"timestamp"`
	Status           string `json:"status"`
	TablesExported   int    `json:"tables_exported"`
	TablesImported   int    `json:"tables_imported"`
	BytesTransferred int64  `json:"bytes_transferred"`
	URLsReplaced     int    `json:"urls_replaced"`
	BackupCreated    string `json:"backup_created"` // backup filename, if one was made
	ErrorMessage     string `json:"error_message"`
}

// SyncState is the per-site record in sync_state.json. Each operation
// overwrites its own slot wholesale.
type SyncState struct {
	SiteID     string                  `json:"-"`
	LastPush   *OperationState         `json:"last_push,omitempty"`
	LastPull   *OperationState         `json:"last_pull,omitempty"`
	LastDBPush *DatabaseOperationState `json:"last_db_push,omitempty"`
	LastDBPull *DatabaseOperationState `json:"last_db_pull,omitempty"`
}
