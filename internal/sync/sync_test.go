// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

package sync

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/toeirei/wp-deploy/internal/model"
	"github.com/toeirei/wp-deploy/internal/remote"
	"github.com/toeirei/wp-deploy/internal/security"
	"github.com/toeirei/wp-deploy/internal/store"
	"github.com/toeirei/wp-deploy/internal/wpcli"
)

// fakeRepo is a canned git repository.
type fakeRepo struct {
	head    string
	message string
	tracked []string
	changed map[string][]string // "from..to" -> files
}

func (r *fakeRepo) Head() (string, string, error) { return r.head, r.message, nil }

func (r *fakeRepo) TrackedFiles() ([]string, error) { return r.tracked, nil }

func (r *fakeRepo) ChangedFiles(from, to string) ([]string, error) {
	files, ok := r.changed[from+".."+to]
	if !ok {
		return nil, fmt.Errorf("unknown range %s..%s", from, to)
	}
	return files, nil
}

// fakeSession is an in-memory remote server: a path->content file map plus
// a recorded command log.
type fakeSession struct {
	files     map[string][]byte
	mtimes    map[string]time.Time
	commands  []string
	runOut    map[string]string // command -> stdout
	runErr    map[string]error  // command -> error
	binaries  map[string]bool
	failPaths map[string]bool // uploads/downloads that should fail
	closed    bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		files:     map[string][]byte{},
		mtimes:    map[string]time.Time{},
		runOut:    map[string]string{},
		runErr:    map[string]error{},
		binaries:  map[string]bool{},
		failPaths: map[string]bool{},
	}
}

func (s *fakeSession) Run(command string) (string, string, error) {
	s.commands = append(s.commands, command)
	if err, ok := s.runErr[command]; ok {
		return "", "boom", err
	}
	return s.runOut[command], "", nil
}

func (s *fakeSession) Upload(localPath, remotePath string) (int64, error) {
	if s.failPaths[remotePath] {
		return 0, fmt.Errorf("upload refused: %s", remotePath)
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return 0, err
	}
	s.files[remotePath] = data
	return int64(len(data)), nil
}

func (s *fakeSession) Download(remotePath, localPath string) (int64, error) {
	if s.failPaths[remotePath] {
		return 0, fmt.Errorf("download refused: %s", remotePath)
	}
	data, ok := s.files[remotePath]
	if !ok {
		return 0, fmt.Errorf("no such remote file: %s", remotePath)
	}
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return 0, err
	}
	if err := os.WriteFile(localPath, data, 0o644); err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

func (s *fakeSession) ListRecursive(root string, start, end time.Time) ([]remote.FileInfo, error) {
	var out []remote.FileInfo
	for p, data := range s.files {
		if !strings.HasPrefix(p, root+"/") && p != root {
			continue
		}
		mod := s.mtimes[p]
		if !start.IsZero() && mod.Before(start) {
			continue
		}
		if !end.IsZero() && mod.After(end) {
			continue
		}
		out = append(out, remote.FileInfo{Path: p, Size: int64(len(data)), ModTime: mod})
	}
	return out, nil
}

func (s *fakeSession) Exists(p string) (bool, error) {
	if _, ok := s.files[p]; ok {
		return true, nil
	}
	for f := range s.files {
		if strings.HasPrefix(f, p+"/") {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeSession) Mtime(p string) (time.Time, error) { return s.mtimes[p], nil }

func (s *fakeSession) Remove(p string) error {
	if _, ok := s.files[p]; !ok {
		return fmt.Errorf("no such remote file: %s", p)
	}
	delete(s.files, p)
	return nil
}

func (s *fakeSession) ReadFile(p string) ([]byte, error) {
	data, ok := s.files[p]
	if !ok {
		return nil, fmt.Errorf("no such remote file: %s", p)
	}
	return data, nil
}

func (s *fakeSession) HasBinary(name string) bool { return s.binaries[name] }

func (s *fakeSession) Close() { s.closed = true }

// memSecrets is a map-backed SecretStore.
type memSecrets struct {
	ssh map[string]string
	db  map[string]string
}

func newMemSecrets() *memSecrets {
	return &memSecrets{ssh: map[string]string{}, db: map[string]string{}}
}

func (m *memSecrets) SSHPassword(siteID string) (security.Secret, error) {
	pw, ok := m.ssh[siteID]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return security.Secret(pw), nil
}

func (m *memSecrets) SetSSHPassword(siteID string, pw security.Secret) error {
	m.ssh[siteID] = pw.Reveal()
	return nil
}

func (m *memSecrets) DeleteSSHPassword(siteID string) error {
	delete(m.ssh, siteID)
	return nil
}

func (m *memSecrets) DBPassword(siteID, side string) (security.Secret, error) {
	pw, ok := m.db[siteID+"/"+side]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return security.Secret(pw), nil
}

func (m *memSecrets) SetDBPassword(siteID, side string, pw security.Secret) error {
	m.db[siteID+"/"+side] = pw.Reveal()
	return nil
}

func (m *memSecrets) DeleteDBPassword(siteID, side string) error {
	delete(m.db, siteID+"/"+side)
	return nil
}

// fakeWP is a WP-CLI double with function fields, so each test programs
// only what it needs.
type fakeWP struct {
	version       func() (string, error)
	export        func(outPath string, excludeTables []string) error
	importDB      func(path string) error
	tables        func() ([]string, error)
	searchReplace func(search, replace string, dryRun bool) (int, error)
	updatePrefix  func(oldPrefix, newPrefix string) error
	optionGet     func(name string) (string, error)
}

func (w *fakeWP) Version() (string, error) {
	if w.version == nil {
		return "2.9.0", nil
	}
	return w.version()
}

func (w *fakeWP) ExportDatabase(outPath string, excludeTables []string) error {
	if w.export == nil {
		return nil
	}
	return w.export(outPath, excludeTables)
}

func (w *fakeWP) ImportDatabase(path string) error {
	if w.importDB == nil {
		return nil
	}
	return w.importDB(path)
}

func (w *fakeWP) Tables() ([]string, error) {
	if w.tables == nil {
		return nil, fmt.Errorf("no tables programmed")
	}
	return w.tables()
}

func (w *fakeWP) SearchReplace(search, replace string, dryRun bool) (int, error) {
	if w.searchReplace == nil {
		return 0, nil
	}
	return w.searchReplace(search, replace, dryRun)
}

func (w *fakeWP) OptionGet(name string) (string, error) {
	if w.optionGet == nil {
		return "", fmt.Errorf("no option %s programmed", name)
	}
	return w.optionGet(name)
}

func (w *fakeWP) UpdateOptionsPrefix(oldPrefix, newPrefix string) error {
	if w.updatePrefix == nil {
		return nil
	}
	return w.updatePrefix(oldPrefix, newPrefix)
}

// testEnv bundles a Deps wired to fakes plus the bits tests poke at.
type testEnv struct {
	deps    Deps
	store   *store.Store
	repo    *fakeRepo
	session *fakeSession
	secrets *memSecrets
	localWP *fakeWP
	remWP   *fakeWP
	site    model.Site
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := store.New(t.TempDir())
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}

	env := &testEnv{
		store:   st,
		repo:    &fakeRepo{head: "abc123", message: "initial", changed: map[string][]string{}},
		session: newFakeSession(),
		secrets: newMemSecrets(),
		localWP: &fakeWP{},
		remWP:   &fakeWP{},
	}

	env.site = model.Site{
		ID:             "site-1",
		Name:           "example",
		LocalPath:      t.TempDir(),
		RemoteHost:     "example.com",
		RemotePort:     22,
		RemotePath:     "/var/www/html",
		RemoteUsername: "deploy",
	}
	if err := st.AddSite(env.site); err != nil {
		t.Fatalf("AddSite: %v", err)
	}

	fixed := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	env.deps = Deps{
		Store:    st,
		Secrets:  env.secrets,
		OpenRepo: func(path string) (GitRepo, error) { return env.repo, nil },
		Dial:     func(site model.Site) (Session, error) { return env.session, nil },
		LocalWP:  func(dir string) WPClient { return env.localWP },
		RemoteWP: func(run wpcli.Runner, dir string) WPClient { return env.remWP },
		Now:      func() time.Time { return fixed },
		NewID:    func() string { return "fresh-id" },
		TempDir:  t.TempDir(),
	}
	return env
}

// writeLocal creates a file under the site's local path.
func (env *testEnv) writeLocal(t *testing.T, rel, content string) {
	t.Helper()
	p := filepath.Join(env.site.LocalPath, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

// updateSite persists changes to the test site.
func (env *testEnv) updateSite(t *testing.T, mutate func(*model.Site)) {
	t.Helper()
	site, err := env.store.Site(env.site.ID)
	if err != nil {
		t.Fatalf("Site: %v", err)
	}
	mutate(&site)
	if err := env.store.UpdateSite(site); err != nil {
		t.Fatalf("UpdateSite: %v", err)
	}
	env.site = site
}
