// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

package sync

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/toeirei/wp-deploy/internal/i18n"
	"github.com/toeirei/wp-deploy/internal/logging"
	"github.com/toeirei/wp-deploy/internal/model"
	"github.com/toeirei/wp-deploy/internal/remote"
)

// defaultPullIncludes is used when a site configures no pull paths; uploads
// are the part of a WordPress tree that changes server-side.
var defaultPullIncludes = []string{"wp-content/uploads"}

// PullOptions narrow the remote file set considered by Pull.
type PullOptions struct {
	// From and To bound the remote modification time window. Zero values
	// disable the corresponding bound.
	From time.Time
	To   time.Time
	// IncludePaths overrides the site's configured pull paths.
	IncludePaths []string
	// NewerOnly skips files whose local copy is at least as new as the
	// remote one, making repeated pulls cheap.
	NewerOnly bool
}

func (d Deps) savePullState(siteID string, op model.OperationState) {
	st, err := d.Store.SyncState(siteID)
	if err != nil {
		logging.Warnf("load sync state for %s: %v", siteID, err)
		st = model.SyncState{SiteID: siteID}
	}
	st.LastPull = &op
	if err := d.Store.UpdateSyncState(st); err != nil {
		logging.Warnf("save sync state for %s: %v", siteID, err)
	}
}

func pullIncludes(site model.Site, opts PullOptions) []string {
	if len(opts.IncludePaths) > 0 {
		return opts.IncludePaths
	}
	if len(site.PullIncludePaths) > 0 {
		return site.PullIncludePaths
	}
	return defaultPullIncludes
}

// listPull connects and resolves the download set: every regular remote file
// under the include paths whose mtime falls in the window, minus excludes.
// Returned paths are relative to the site's remote root.
func (d Deps) listPull(site model.Site, sess Session, opts PullOptions) ([]remote.FileInfo, error) {
	remoteRoot := strings.TrimRight(site.RemotePath, "/")
	var files []remote.FileInfo
	for _, inc := range pullIncludes(site, opts) {
		inc = strings.Trim(inc, "/")
		listed, err := sess.ListRecursive(path.Join(remoteRoot, inc), opts.From, opts.To)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", inc, err)
		}
		files = append(files, listed...)
	}

	kept := files[:0]
	for _, f := range files {
		rel := strings.TrimPrefix(f.Path, remoteRoot+"/")
		if ShouldExclude(rel, site.ExcludePatterns) {
			continue
		}
		f.Path = rel
		kept = append(kept, f)
	}
	return kept, nil
}

// FilesToPull previews the download set without transferring anything.
func (d Deps) FilesToPull(siteID string, opts PullOptions) ([]remote.FileInfo, error) {
	site, err := d.Store.Site(siteID)
	if err != nil {
		return nil, err
	}
	sess, err := d.Dial(site)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", site, err)
	}
	defer sess.Close()
	return d.listPull(site, sess, opts)
}

// Pull downloads remote files modified within the given window into the
// local working tree. Downloaded files keep the remote modification time so
// a NewerOnly re-run skips them.
func (d Deps) Pull(siteID string, opts PullOptions, progress Progress) (Result, error) {
	site, err := d.Store.Site(siteID)
	if err != nil {
		return Result{}, err
	}

	sess, err := d.Dial(site)
	if err != nil {
		return Result{}, fmt.Errorf("connect to %s: %w", site, err)
	}
	defer sess.Close()

	files, err := d.listPull(site, sess, opts)
	if err != nil {
		return Result{}, err
	}
	if len(files) == 0 {
		logging.Infof("pull %s: no remote files in window", site.Name)
		return Result{Message: i18n.T("pull.nothing_to_do")}, nil
	}

	remoteRoot := strings.TrimRight(site.RemotePath, "/")
	var res Result
	skipped := 0
	for i, f := range files {
		report(progress, i+1, len(files), fmt.Sprintf(i18n.T("pull.downloading"), f.Path))

		local := filepath.Join(site.LocalPath, filepath.FromSlash(f.Path))
		if opts.NewerOnly {
			if info, statErr := os.Stat(local); statErr == nil && !info.ModTime().Before(f.ModTime) {
				skipped++
				continue
			}
		}

		n, dlErr := sess.Download(path.Join(remoteRoot, f.Path), local)
		if dlErr != nil {
			logging.Errorf("pull %s: download %s: %v", site.Name, f.Path, dlErr)
			res.Failed++
			continue
		}
		_ = os.Chtimes(local, f.ModTime, f.ModTime)
		res.Files++
		res.Bytes += n
		res.Paths = append(res.Paths, f.Path)
	}

	op := model.OperationState{
		Timestamp:        d.timestamp(),
		Status:           model.StatusSuccess,
		FilesCount:       res.Files,
		BytesTransferred: res.Bytes,
	}
	if !opts.From.IsZero() {
		op.DateRangeStart = opts.From.UTC().Format(time.RFC3339)
	}
	if !opts.To.IsZero() {
		op.DateRangeEnd = opts.To.UTC().Format(time.RFC3339)
	}
	switch {
	case res.Files == 0 && res.Failed > 0:
		op.Status = model.StatusFailed
		op.ErrorMessage = fmt.Sprintf("all %d downloads failed", res.Failed)
	case res.Failed > 0:
		op.Status = model.StatusPartial
		op.ErrorMessage = fmt.Sprintf("%d of %d downloads failed", res.Failed, len(files))
	}
	d.savePullState(site.ID, op)

	if res.Files == 0 && res.Failed > 0 {
		return res, fmt.Errorf("pull %s: all %d downloads failed", site.Name, res.Failed)
	}

	res.Message = fmt.Sprintf(i18n.T("pull.done"), res.Files, skipped, res.Failed)
	logging.Infof("pull %s: %d file(s), %d skipped, %d failed, %d bytes",
		site.Name, res.Files, skipped, res.Failed, res.Bytes)
	return res, nil
}
