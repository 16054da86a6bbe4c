// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package store persists the flat configuration files under the wp-deploy
// state directory: sites.yaml (site list) and sync_state.json (per-site
// last-operation records). Both files are mutated wholesale: read all,
// modify, write all. Writes go through a temp file plus rename so a crash
// never leaves a truncated file behind.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/toeirei/wp-deploy/internal/logging"
	"github.com/toeirei/wp-deploy/internal/model"
)

const (
	sitesFile     = "sites.yaml"
	syncStateFile = "sync_state.json"
)

// sitesDocument is the on-disk shape of sites.yaml.
type sitesDocument struct {
	Sites []model.Site `yaml:"sites"`
}

// Store reads and writes the wp-deploy state directory.
type Store struct {
	dir string
	now func() time.Time
}

// DefaultDir resolves the state directory: $WP_DEPLOY_HOME if set,
// otherwise ~/.wp-deploy.
func DefaultDir() (string, error) {
	if dir := os.Getenv("WP_DEPLOY_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".wp-deploy"), nil
}

// New opens (and creates, if needed) the state directory and seeds empty
// state files on first run.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state directory %s: %w", dir, err)
	}
	s := &Store{dir: dir, now: time.Now}

	if _, err := os.Stat(s.path(sitesFile)); os.IsNotExist(err) {
		if err := s.saveSites(nil); err != nil {
			return nil, err
		}
	}
	if _, err := os.Stat(s.path(syncStateFile)); os.IsNotExist(err) {
		if err := s.saveSyncStates(map[string]model.SyncState{}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Dir returns the state directory path.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(name string) string { return filepath.Join(s.dir, name) }

// writeFileAtomic writes data to a temp file in the same directory and
// renames it into place.
func (s *Store) writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}

func (s *Store) loadSites() ([]model.Site, error) {
	data, err := os.ReadFile(s.path(sitesFile))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", sitesFile, err)
	}
	var doc sitesDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", sitesFile, err)
	}
	return doc.Sites, nil
}

func (s *Store) saveSites(sites []model.Site) error {
	if sites == nil {
		sites = []model.Site{}
	}
	data, err := yaml.Marshal(sitesDocument{Sites: sites})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", sitesFile, err)
	}
	// 0600: the file holds no secrets, but it does map out remote hosts.
	if err := s.writeFileAtomic(s.path(sitesFile), data, 0o600); err != nil {
		return err
	}
	logging.Debugf("saved %d site(s) to %s", len(sites), sitesFile)
	return nil
}

// Sites returns all configured sites.
func (s *Store) Sites() ([]model.Site, error) {
	return s.loadSites()
}

// Site returns the site with the given ID.
func (s *Store) Site(id string) (model.Site, error) {
	sites, err := s.loadSites()
	if err != nil {
		return model.Site{}, err
	}
	for _, site := range sites {
		if site.ID == id {
			return site, nil
		}
	}
	return model.Site{}, fmt.Errorf("site not found: %s", id)
}

// SiteByName returns the site with the given name. Names are a convenience
// handle for the CLI; IDs remain the canonical key.
func (s *Store) SiteByName(name string) (model.Site, error) {
	sites, err := s.loadSites()
	if err != nil {
		return model.Site{}, err
	}
	for _, site := range sites {
		if site.Name == name {
			return site, nil
		}
	}
	return model.Site{}, fmt.Errorf("site not found: %s", name)
}

// AddSite appends a new site. Site IDs must be unique.
func (s *Store) AddSite(site model.Site) error {
	if err := site.Validate(); err != nil {
		return err
	}
	sites, err := s.loadSites()
	if err != nil {
		return err
	}
	for _, existing := range sites {
		if existing.ID == site.ID {
			return fmt.Errorf("site with ID %s already exists", site.ID)
		}
	}
	site.Touch(s.now())
	sites = append(sites, site)
	if err := s.saveSites(sites); err != nil {
		return err
	}
	logging.Infof("added site: %s (%s)", site.Name, site.ID)
	return nil
}

// UpdateSite replaces the stored site with the same ID.
func (s *Store) UpdateSite(site model.Site) error {
	if err := site.Validate(); err != nil {
		return err
	}
	sites, err := s.loadSites()
	if err != nil {
		return err
	}
	for i, existing := range sites {
		if existing.ID == site.ID {
			site.Touch(s.now())
			sites[i] = site
			if err := s.saveSites(sites); err != nil {
				return err
			}
			logging.Infof("updated site: %s (%s)", site.Name, site.ID)
			return nil
		}
	}
	return fmt.Errorf("site not found: %s", site.ID)
}

// DeleteSite removes a site and its sync state. Deleting an unknown ID is
// a no-op.
func (s *Store) DeleteSite(id string) error {
	sites, err := s.loadSites()
	if err != nil {
		return err
	}
	kept := sites[:0]
	for _, site := range sites {
		if site.ID != id {
			kept = append(kept, site)
		}
	}
	if err := s.saveSites(kept); err != nil {
		return err
	}
	if err := s.DeleteSyncState(id); err != nil {
		return err
	}
	logging.Infof("deleted site: %s", id)
	return nil
}

// UpdateLastPushedCommit records the commit hash a completed push was based
// on. The hash must be the one captured at push start, not a re-read.
func (s *Store) UpdateLastPushedCommit(id, commitHash string) error {
	site, err := s.Site(id)
	if err != nil {
		return err
	}
	site.LastPushedCommit = commitHash
	return s.UpdateSite(site)
}

func (s *Store) loadSyncStates() (map[string]model.SyncState, error) {
	data, err := os.ReadFile(s.path(syncStateFile))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", syncStateFile, err)
	}
	states := map[string]model.SyncState{}
	if err := json.Unmarshal(data, &states); err != nil {
		return nil, fmt.Errorf("parse %s: %w", syncStateFile, err)
	}
	return states, nil
}

func (s *Store) saveSyncStates(states map[string]model.SyncState) error {
	data, err := json.MarshalIndent(states, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", syncStateFile, err)
	}
	return s.writeFileAtomic(s.path(syncStateFile), data, 0o600)
}

// SyncState returns the sync state for a site, or an empty record if none
// has been written yet.
func (s *Store) SyncState(siteID string) (model.SyncState, error) {
	states, err := s.loadSyncStates()
	if err != nil {
		return model.SyncState{}, err
	}
	st, ok := states[siteID]
	if !ok {
		return model.SyncState{SiteID: siteID}, nil
	}
	st.SiteID = siteID
	return st, nil
}

// UpdateSyncState overwrites a site's sync state record.
func (s *Store) UpdateSyncState(st model.SyncState) error {
	states, err := s.loadSyncStates()
	if err != nil {
		return err
	}
	states[st.SiteID] = st
	if err := s.saveSyncStates(states); err != nil {
		return err
	}
	logging.Debugf("updated sync state for site: %s", st.SiteID)
	return nil
}

// DeleteSyncState drops a site's sync state record, if present.
func (s *Store) DeleteSyncState(siteID string) error {
	states, err := s.loadSyncStates()
	if err != nil {
		return err
	}
	if _, ok := states[siteID]; !ok {
		return nil
	}
	delete(states, siteID)
	return s.saveSyncStates(states)
}
