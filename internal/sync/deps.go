// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package sync implements the push, pull, folder-archive, and database
// transfer pipelines. Each pipeline is a linear sequence of named steps
// with a progress callback; all heavy lifting is delegated to git, WP-CLI,
// and SSH/SFTP through narrow interfaces so tests can substitute fakes.
package sync

import (
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/toeirei/wp-deploy/internal/gitrepo"
	"github.com/toeirei/wp-deploy/internal/model"
	"github.com/toeirei/wp-deploy/internal/remote"
	"github.com/toeirei/wp-deploy/internal/security"
	"github.com/toeirei/wp-deploy/internal/state"
	"github.com/toeirei/wp-deploy/internal/store"
	"github.com/toeirei/wp-deploy/internal/wpcli"
)

// Progress reports pipeline advancement: current step (or file index),
// total, and a human-readable message. Callbacks are invoked synchronously
// from the worker goroutine.
type Progress func(current, total int, message string)

func report(p Progress, current, total int, message string) {
	if p != nil {
		p(current, total, message)
	}
}

// GitRepo is the slice of git functionality the push pipeline needs.
type GitRepo interface {
	Head() (hash, message string, err error)
	TrackedFiles() ([]string, error)
	ChangedFiles(from, to string) ([]string, error)
}

// Session is a connected remote server: command execution plus SFTP.
type Session interface {
	Run(command string) (stdout, stderr string, err error)
	Upload(localPath, remotePath string) (int64, error)
	Download(remotePath, localPath string) (int64, error)
	ListRecursive(root string, start, end time.Time) ([]remote.FileInfo, error)
	Exists(path string) (bool, error)
	Mtime(path string) (time.Time, error)
	Remove(path string) error
	ReadFile(path string) ([]byte, error)
	HasBinary(name string) bool
	Close()
}

// WPClient is the slice of WP-CLI functionality the database pipelines use.
type WPClient interface {
	Version() (string, error)
	ExportDatabase(outPath string, excludeTables []string) error
	ImportDatabase(path string) error
	Tables() ([]string, error)
	SearchReplace(search, replace string, dryRun bool) (int, error)
	UpdateOptionsPrefix(oldPrefix, newPrefix string) error
	OptionGet(name string) (string, error)
}

// Deps bundles the collaborators of the sync pipelines. Production code
// uses Default; tests replace individual fields with fakes.
type Deps struct {
	Store    *store.Store
	Secrets  security.SecretStore
	OpenRepo func(path string) (GitRepo, error)
	Dial     func(site model.Site) (Session, error)
	LocalWP  func(dir string) WPClient
	RemoteWP func(run wpcli.Runner, dir string) WPClient
	Now      func() time.Time
	NewID    func() string
	TempDir  string
}

// Default returns the production wiring: real git, real SSH/SFTP, real
// WP-CLI, OS keyring.
func Default(st *store.Store) Deps {
	secrets := security.Keyring{}
	return Deps{
		Store:   st,
		Secrets: secrets,
		OpenRepo: func(path string) (GitRepo, error) {
			return gitrepo.Open(path)
		},
		Dial: func(site model.Site) (Session, error) {
			cfg := remote.Config{
				Host:    site.RemoteHost,
				Port:    site.RemotePort,
				User:    site.RemoteUsername,
				KeyFile: site.SSHKeyFile,
			}
			if cfg.KeyFile == "" {
				password, err := secrets.SSHPassword(site.ID)
				if err != nil {
					// Headless systems without a keyring can park a password
					// in the session mailbox instead.
					if cached := state.PasswordCache.Get(); cached != nil {
						password = security.Secret(cached)
					} else {
						return nil, err
					}
				}
				cfg.Password = password
			}
			return remote.Dial(cfg)
		},
		LocalWP: func(dir string) WPClient {
			return wpcli.NewLocal(dir)
		},
		RemoteWP: func(run wpcli.Runner, dir string) WPClient {
			return wpcli.NewRemote(run, dir)
		},
		Now:     time.Now,
		NewID:   uuid.NewString,
		TempDir: os.TempDir(),
	}
}

// Result summarizes a file push or pull.
type Result struct {
	Message string
	Files   int
	Failed  int
	Bytes   int64
	Paths   []string
}

// DBResult summarizes a database push or pull.
type DBResult struct {
	Message        string
	TablesExported int
	TablesImported int
	Bytes          int64
	URLsReplaced   int
	Backup         string
}
