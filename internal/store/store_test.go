// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/toeirei/wp-deploy/internal/model"
)

func testSite(id, name string) model.Site {
	return model.Site{
		ID:             id,
		Name:           name,
		LocalPath:      "/tmp/wp",
		RemoteHost:     "example.com",
		RemotePort:     22,
		RemotePath:     "/var/www",
		RemoteUsername: "deploy",
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestNewSeedsEmptyStateFiles(t *testing.T) {
	dir := t.TempDir()
	if _, err := New(dir); err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, name := range []string{"sites.yaml", "sync_state.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not seeded: %v", name, err)
		}
	}
}

func TestSiteCRUD(t *testing.T) {
	s := newTestStore(t)

	if err := s.AddSite(testSite("a", "alpha")); err != nil {
		t.Fatalf("AddSite: %v", err)
	}
	if err := s.AddSite(testSite("b", "beta")); err != nil {
		t.Fatalf("AddSite: %v", err)
	}

	site, err := s.Site("a")
	if err != nil {
		t.Fatalf("Site: %v", err)
	}
	if site.Name != "alpha" || site.CreatedAt == "" {
		t.Errorf("site = %+v", site)
	}

	byName, err := s.SiteByName("beta")
	if err != nil || byName.ID != "b" {
		t.Fatalf("SiteByName: %v %+v", err, byName)
	}

	site.RemoteHost = "new.example.com"
	if err := s.UpdateSite(site); err != nil {
		t.Fatalf("UpdateSite: %v", err)
	}
	site, _ = s.Site("a")
	if site.RemoteHost != "new.example.com" {
		t.Error("update not persisted")
	}

	if err := s.DeleteSite("a"); err != nil {
		t.Fatalf("DeleteSite: %v", err)
	}
	if _, err := s.Site("a"); err == nil {
		t.Error("deleted site still readable")
	}
	sites, _ := s.Sites()
	if len(sites) != 1 {
		t.Errorf("sites = %v", sites)
	}
}

func TestAddSiteRejectsDuplicateID(t *testing.T) {
	s := newTestStore(t)
	if err := s.AddSite(testSite("a", "alpha")); err != nil {
		t.Fatal(err)
	}
	if err := s.AddSite(testSite("a", "other")); err == nil {
		t.Fatal("duplicate ID accepted")
	}
}

func TestAddSiteValidates(t *testing.T) {
	s := newTestStore(t)
	bad := testSite("x", "bad")
	bad.RemoteHost = ""
	if err := s.AddSite(bad); err == nil {
		t.Fatal("invalid site accepted")
	}
}

func TestUpdateLastPushedCommit(t *testing.T) {
	s := newTestStore(t)
	if err := s.AddSite(testSite("a", "alpha")); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateLastPushedCommit("a", "deadbeef"); err != nil {
		t.Fatalf("UpdateLastPushedCommit: %v", err)
	}
	site, _ := s.Site("a")
	if site.LastPushedCommit != "deadbeef" {
		t.Errorf("commit = %q", site.LastPushedCommit)
	}
}

func TestSyncStateRoundTrip(t *testing.T) {
	s := newTestStore(t)

	st, err := s.SyncState("ghost")
	if err != nil {
		t.Fatalf("SyncState: %v", err)
	}
	if st.LastPush != nil {
		t.Error("unknown site must yield an empty record")
	}

	st.SiteID = "a"
	st.LastPush = &model.OperationState{
		Timestamp:  "2026-03-14T12:00:00Z",
		Status:     model.StatusSuccess,
		FilesCount: 3,
		CommitHash: "abc",
	}
	if err := s.UpdateSyncState(st); err != nil {
		t.Fatalf("UpdateSyncState: %v", err)
	}

	got, _ := s.SyncState("a")
	if got.LastPush == nil || got.LastPush.FilesCount != 3 || got.LastPush.CommitHash != "abc" {
		t.Fatalf("round trip lost data: %+v", got.LastPush)
	}
	if got.LastPull != nil {
		t.Error("unset slots must stay nil")
	}
}

func TestDeleteSiteDropsSyncState(t *testing.T) {
	s := newTestStore(t)
	if err := s.AddSite(testSite("a", "alpha")); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateSyncState(model.SyncState{
		SiteID:   "a",
		LastPush: &model.OperationState{Status: model.StatusSuccess},
	}); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteSite("a"); err != nil {
		t.Fatal(err)
	}
	st, _ := s.SyncState("a")
	if st.LastPush != nil {
		t.Error("sync state survived site deletion")
	}
}

func TestStateFilesKeptPrivate(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.AddSite(testSite("a", "alpha")); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(filepath.Join(dir, "sites.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("sites.yaml mode = %o, want 600", info.Mode().Perm())
	}
}
