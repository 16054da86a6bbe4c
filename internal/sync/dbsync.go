// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

package sync

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/toeirei/wp-deploy/internal/i18n"
	"github.com/toeirei/wp-deploy/internal/logging"
	"github.com/toeirei/wp-deploy/internal/model"
	"github.com/toeirei/wp-deploy/internal/wpcli"
)

const dbSteps = 10

// DBOptions tune a database push or pull.
type DBOptions struct {
	// ExcludeTables is merged with the site's configured exclude list.
	ExcludeTables []string
}

func (d Deps) saveDBState(siteID string, push bool, op model.DatabaseOperationState) {
	st, err := d.Store.SyncState(siteID)
	if err != nil {
		logging.Warnf("load sync state for %s: %v", siteID, err)
		st = model.SyncState{SiteID: siteID}
	}
	if push {
		st.LastDBPush = &op
	} else {
		st.LastDBPull = &op
	}
	if err := d.Store.UpdateSyncState(st); err != nil {
		logging.Warnf("save sync state for %s: %v", siteID, err)
	}
}

func mergeExcludes(cfg *model.DatabaseConfig, opts DBOptions) []string {
	merged := slices.Clone(cfg.ExcludeTables)
	for _, t := range opts.ExcludeTables {
		t = strings.TrimSpace(t)
		if t != "" && !slices.Contains(merged, t) {
			merged = append(merged, t)
		}
	}
	return merged
}

// countTables returns the table count after exclusions, best effort: listing
// failures degrade to zero rather than aborting the transfer.
func countTables(wp WPClient, excludes []string) int {
	tables, err := wp.Tables()
	if err != nil {
		logging.Debugf("list tables: %v", err)
		return 0
	}
	n := 0
	for _, t := range tables {
		if !slices.Contains(excludes, t) {
			n++
		}
	}
	return n
}

// searchReplaceURLs runs the URL search-replace on the destination when the
// site has a configured, distinct URL pair. Returns rows changed.
func searchReplaceURLs(wp WPClient, from, to string) (int, error) {
	from = wpcli.NormalizeURL(from)
	to = wpcli.NormalizeURL(to)
	if from == "" || to == "" || from == to {
		return 0, nil
	}
	return wp.SearchReplace(from, to, false)
}

// DBPush replaces the remote database with an export of the local one:
// export locally, rewrite the table prefix if the two sides differ, upload,
// back up the remote database, import, then search-replace the local URL
// with the remote one. Temporary dumps on both ends are removed regardless
// of outcome; the remote backup survives when the site keeps backups.
func (d Deps) DBPush(siteID string, opts DBOptions, progress Progress) (DBResult, error) {
	site, err := d.Store.Site(siteID)
	if err != nil {
		return DBResult{}, err
	}
	cfg := site.Database
	if cfg == nil {
		return DBResult{}, fmt.Errorf("site %q has no database configuration", site.Name)
	}

	var res DBResult
	fail := func(err error) (DBResult, error) {
		d.saveDBState(site.ID, true, model.DatabaseOperationState{
			Timestamp:        d.timestamp(),
			Status:           model.StatusFailed,
			TablesExported:   res.TablesExported,
			BytesTransferred: res.Bytes,
			BackupCreated:    res.Backup,
			ErrorMessage:     err.Error(),
		})
		return res, err
	}

	report(progress, 1, dbSteps, i18n.T("db.verify_local"))
	localWP := d.LocalWP(site.LocalPath)
	if _, err := localWP.Version(); err != nil {
		return fail(fmt.Errorf("local WP-CLI check: %w", err))
	}

	report(progress, 2, dbSteps, i18n.T("db.connect"))
	sess, err := d.Dial(site)
	if err != nil {
		return fail(fmt.Errorf("connect to %s: %w", site, err))
	}
	defer sess.Close()

	report(progress, 3, dbSteps, i18n.T("db.verify_remote"))
	remoteWP := d.RemoteWP(sess.Run, site.RemotePath)
	if _, err := remoteWP.Version(); err != nil {
		return fail(fmt.Errorf("remote WP-CLI check: %w", err))
	}

	report(progress, 4, dbSteps, i18n.T("db.export_local"))
	excludes := mergeExcludes(cfg, opts)
	dumpName := fmt.Sprintf("db-push-%s-%d.sql", site.ID, d.Now().UnixNano())
	dump := filepath.Join(d.TempDir, dumpName)
	defer os.Remove(dump)
	if err := localWP.ExportDatabase(dump, excludes); err != nil {
		return fail(fmt.Errorf("export local database: %w", err))
	}
	res.TablesExported = countTables(localWP, excludes)
	if info, statErr := os.Stat(dump); statErr == nil {
		res.Bytes = info.Size()
	}

	report(progress, 5, dbSteps, i18n.T("db.rewrite_prefix"))
	rewrites, err := wpcli.RewriteTablePrefixFile(dump, cfg.LocalTablePrefix, cfg.RemoteTablePrefix)
	if err != nil {
		return fail(err)
	}
	if rewrites > 0 {
		logging.Infof("db push %s: rewrote table prefix %s -> %s (%d occurrence(s))",
			site.Name, cfg.LocalTablePrefix, cfg.RemoteTablePrefix, rewrites)
	}

	report(progress, 6, dbSteps, i18n.T("db.upload"))
	remoteRoot := strings.TrimRight(site.RemotePath, "/")
	remoteDump := path.Join(remoteRoot, dumpName)
	if _, err := sess.Upload(dump, remoteDump); err != nil {
		return fail(fmt.Errorf("upload dump: %w", err))
	}
	defer func() {
		if rmErr := sess.Remove(remoteDump); rmErr != nil {
			logging.Warnf("db push %s: remove remote dump: %v", site.Name, rmErr)
		}
	}()

	report(progress, 7, dbSteps, i18n.T("db.backup_remote"))
	imported := false
	if cfg.BackupBeforeImport {
		backup := path.Join(remoteRoot, fmt.Sprintf("remote-backup-%s.sql", d.Now().UTC().Format("20060102-150405")))
		if cfg.SaveDatabaseBackups {
			backup = path.Join(remoteRoot, "db", path.Base(backup))
			if _, stderr, mkErr := sess.Run("mkdir -p " + shellQuote(path.Dir(backup))); mkErr != nil {
				return fail(fmt.Errorf("create backup directory: %w (%s)", mkErr, strings.TrimSpace(stderr)))
			}
		}
		if err := remoteWP.ExportDatabase(backup, nil); err != nil {
			return fail(fmt.Errorf("back up remote database: %w", err))
		}
		res.Backup = backup
		if !cfg.SaveDatabaseBackups {
			// The transient backup is the only recovery path after a bad
			// import, so it is discarded only once the import succeeded.
			defer func() {
				if !imported {
					return
				}
				if rmErr := sess.Remove(backup); rmErr != nil {
					logging.Warnf("db push %s: remove transient backup: %v", site.Name, rmErr)
				}
			}()
		}
	}

	report(progress, 8, dbSteps, i18n.T("db.import_remote"))
	if err := remoteWP.ImportDatabase(remoteDump); err != nil {
		return fail(fmt.Errorf("import on remote: %w", err))
	}
	imported = true
	res.TablesImported = res.TablesExported
	if cfg.LocalTablePrefix != cfg.RemoteTablePrefix {
		// Row data still carries the old prefix in option and meta keys.
		if err := remoteWP.UpdateOptionsPrefix(cfg.LocalTablePrefix, cfg.RemoteTablePrefix); err != nil {
			return fail(fmt.Errorf("rewrite option keys: %w", err))
		}
	}

	report(progress, 9, dbSteps, i18n.T("db.search_replace"))
	replaced, err := searchReplaceURLs(remoteWP, cfg.LocalURL, cfg.RemoteURL)
	if err != nil {
		return fail(fmt.Errorf("search-replace URLs: %w", err))
	}
	res.URLsReplaced = replaced

	report(progress, 10, dbSteps, i18n.T("db.finalize"))
	d.saveDBState(site.ID, true, model.DatabaseOperationState{
		Timestamp:        d.timestamp(),
		Status:           model.StatusSuccess,
		TablesExported:   res.TablesExported,
		TablesImported:   res.TablesImported,
		BytesTransferred: res.Bytes,
		URLsReplaced:     replaced,
		BackupCreated:    res.Backup,
	})

	res.Message = fmt.Sprintf(i18n.T("db.push_done"), res.TablesImported, replaced)
	logging.Infof("db push %s: %d table(s), %d bytes, %d URL row(s) replaced",
		site.Name, res.TablesImported, res.Bytes, replaced)
	return res, nil
}

// DBPull replaces the local database with an export of the remote one. The
// mirror image of DBPush: export remotely, download, rewrite the prefix
// toward the local one, back up the local database, import, search-replace
// the remote URL with the local one.
func (d Deps) DBPull(siteID string, opts DBOptions, progress Progress) (DBResult, error) {
	site, err := d.Store.Site(siteID)
	if err != nil {
		return DBResult{}, err
	}
	cfg := site.Database
	if cfg == nil {
		return DBResult{}, fmt.Errorf("site %q has no database configuration", site.Name)
	}

	var res DBResult
	fail := func(err error) (DBResult, error) {
		d.saveDBState(site.ID, false, model.DatabaseOperationState{
			Timestamp:        d.timestamp(),
			Status:           model.StatusFailed,
			TablesExported:   res.TablesExported,
			BytesTransferred: res.Bytes,
			BackupCreated:    res.Backup,
			ErrorMessage:     err.Error(),
		})
		return res, err
	}

	report(progress, 1, dbSteps, i18n.T("db.verify_local"))
	localWP := d.LocalWP(site.LocalPath)
	if _, err := localWP.Version(); err != nil {
		return fail(fmt.Errorf("local WP-CLI check: %w", err))
	}

	report(progress, 2, dbSteps, i18n.T("db.connect"))
	sess, err := d.Dial(site)
	if err != nil {
		return fail(fmt.Errorf("connect to %s: %w", site, err))
	}
	defer sess.Close()

	report(progress, 3, dbSteps, i18n.T("db.verify_remote"))
	remoteWP := d.RemoteWP(sess.Run, site.RemotePath)
	if _, err := remoteWP.Version(); err != nil {
		return fail(fmt.Errorf("remote WP-CLI check: %w", err))
	}

	report(progress, 4, dbSteps, i18n.T("db.export_remote"))
	excludes := mergeExcludes(cfg, opts)
	dumpName := fmt.Sprintf("db-pull-%s-%d.sql", site.ID, d.Now().UnixNano())
	remoteRoot := strings.TrimRight(site.RemotePath, "/")
	remoteDump := path.Join(remoteRoot, dumpName)
	if err := remoteWP.ExportDatabase(remoteDump, excludes); err != nil {
		return fail(fmt.Errorf("export remote database: %w", err))
	}
	defer func() {
		if rmErr := sess.Remove(remoteDump); rmErr != nil {
			logging.Warnf("db pull %s: remove remote dump: %v", site.Name, rmErr)
		}
	}()
	res.TablesExported = countTables(remoteWP, excludes)

	report(progress, 5, dbSteps, i18n.T("db.download"))
	dump := filepath.Join(d.TempDir, dumpName)
	defer os.Remove(dump)
	n, err := sess.Download(remoteDump, dump)
	if err != nil {
		return fail(fmt.Errorf("download dump: %w", err))
	}
	res.Bytes = n

	report(progress, 6, dbSteps, i18n.T("db.rewrite_prefix"))
	rewrites, err := wpcli.RewriteTablePrefixFile(dump, cfg.RemoteTablePrefix, cfg.LocalTablePrefix)
	if err != nil {
		return fail(err)
	}
	if rewrites > 0 {
		logging.Infof("db pull %s: rewrote table prefix %s -> %s (%d occurrence(s))",
			site.Name, cfg.RemoteTablePrefix, cfg.LocalTablePrefix, rewrites)
	}

	report(progress, 7, dbSteps, i18n.T("db.backup_local"))
	imported := false
	if cfg.BackupBeforeImport {
		backup := filepath.Join(d.TempDir, fmt.Sprintf("local-backup-%s.sql", d.Now().UTC().Format("20060102-150405")))
		if cfg.SaveDatabaseBackups {
			backup = filepath.Join(site.LocalPath, "db", filepath.Base(backup))
			if err := os.MkdirAll(filepath.Dir(backup), 0o755); err != nil {
				return fail(fmt.Errorf("create backup directory: %w", err))
			}
		}
		if err := localWP.ExportDatabase(backup, nil); err != nil {
			return fail(fmt.Errorf("back up local database: %w", err))
		}
		res.Backup = backup
		if !cfg.SaveDatabaseBackups {
			// Kept around on failure as the manual recovery path.
			defer func() {
				if imported {
					os.Remove(backup)
				}
			}()
		}
	}

	report(progress, 8, dbSteps, i18n.T("db.import_local"))
	if err := localWP.ImportDatabase(dump); err != nil {
		return fail(fmt.Errorf("import locally: %w", err))
	}
	imported = true
	res.TablesImported = res.TablesExported
	if cfg.LocalTablePrefix != cfg.RemoteTablePrefix {
		if err := localWP.UpdateOptionsPrefix(cfg.RemoteTablePrefix, cfg.LocalTablePrefix); err != nil {
			return fail(fmt.Errorf("rewrite option keys: %w", err))
		}
	}

	report(progress, 9, dbSteps, i18n.T("db.search_replace"))
	replaced, err := searchReplaceURLs(localWP, cfg.RemoteURL, cfg.LocalURL)
	if err != nil {
		return fail(fmt.Errorf("search-replace URLs: %w", err))
	}
	res.URLsReplaced = replaced

	report(progress, 10, dbSteps, i18n.T("db.finalize"))
	d.saveDBState(site.ID, false, model.DatabaseOperationState{
		Timestamp:        d.timestamp(),
		Status:           model.StatusSuccess,
		TablesExported:   res.TablesExported,
		TablesImported:   res.TablesImported,
		BytesTransferred: res.Bytes,
		URLsReplaced:     replaced,
		BackupCreated:    res.Backup,
	})

	res.Message = fmt.Sprintf(i18n.T("db.pull_done"), res.TablesImported, replaced)
	logging.Infof("db pull %s: %d table(s), %d bytes, %d URL row(s) replaced",
		site.Name, res.TablesImported, res.Bytes, replaced)
	return res, nil
}
