// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

package sync

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/toeirei/wp-deploy/internal/i18n"
	"github.com/toeirei/wp-deploy/internal/logging"
	"github.com/toeirei/wp-deploy/internal/model"
)

func (d Deps) timestamp() string {
	return d.Now().UTC().Format(time.RFC3339)
}

func (d Deps) savePushState(siteID string, op model.OperationState) {
	st, err := d.Store.SyncState(siteID)
	if err != nil {
		logging.Warnf("load sync state for %s: %v", siteID, err)
		st = model.SyncState{SiteID: siteID}
	}
	st.LastPush = &op
	if err := d.Store.UpdateSyncState(st); err != nil {
		logging.Warnf("save sync state for %s: %v", siteID, err)
	}
}

// FilesToPush resolves the upload set for a site without connecting: the
// files changed between the last pushed commit and HEAD, or every tracked
// file when no push has happened yet, minus the exclude patterns. The
// returned hash and message describe HEAD at the time of the call.
func (d Deps) FilesToPush(siteID string) (files []string, head, headMessage string, err error) {
	site, err := d.Store.Site(siteID)
	if err != nil {
		return nil, "", "", err
	}

	repoPath := site.GitRepoPath
	if repoPath == "" {
		repoPath = site.LocalPath
	}
	repo, err := d.OpenRepo(repoPath)
	if err != nil {
		return nil, "", "", fmt.Errorf("open git repository %s: %w", repoPath, err)
	}

	head, headMessage, err = repo.Head()
	if err != nil {
		return nil, "", "", err
	}

	switch {
	case site.LastPushedCommit == "":
		files, err = repo.TrackedFiles()
	case site.LastPushedCommit == head:
		files = nil
	default:
		files, err = repo.ChangedFiles(site.LastPushedCommit, head)
	}
	if err != nil {
		return nil, "", "", err
	}

	return FilterPaths(files, site.ExcludePatterns), head, headMessage, nil
}

// Push uploads the commit-to-commit file delta to the remote server and
// advances the last-pushed-commit marker. The marker is only moved when at
// least one file made it across, so a failed run stays retryable.
func (d Deps) Push(siteID string, progress Progress) (Result, error) {
	site, err := d.Store.Site(siteID)
	if err != nil {
		return Result{}, err
	}

	files, head, headMessage, err := d.FilesToPush(siteID)
	if err != nil {
		return Result{}, err
	}
	if len(files) == 0 {
		logging.Infof("push %s: nothing to upload at %s", site.Name, head)
		return Result{Message: i18n.T("push.nothing_to_do")}, nil
	}

	sess, err := d.Dial(site)
	if err != nil {
		return Result{}, fmt.Errorf("connect to %s: %w", site, err)
	}
	defer sess.Close()

	res := Result{Paths: files}
	for i, rel := range files {
		report(progress, i+1, len(files), fmt.Sprintf(i18n.T("push.uploading"), rel))

		local := filepath.Join(site.LocalPath, filepath.FromSlash(rel))
		if _, statErr := os.Stat(local); statErr != nil {
			// Tracked but missing locally (deleted without committing).
			logging.Warnf("push %s: skipping missing local file %s", site.Name, rel)
			res.Failed++
			continue
		}

		n, upErr := sess.Upload(local, path.Join(site.RemotePath, rel))
		if upErr != nil {
			logging.Errorf("push %s: upload %s: %v", site.Name, rel, upErr)
			res.Failed++
			continue
		}
		res.Files++
		res.Bytes += n
	}

	op := model.OperationState{
		Timestamp:        d.timestamp(),
		Status:           model.StatusSuccess,
		FilesCount:       res.Files,
		BytesTransferred: res.Bytes,
		CommitHash:       head,
		CommitMessage:    headMessage,
	}
	switch {
	case res.Files == 0:
		op.Status = model.StatusFailed
		op.ErrorMessage = fmt.Sprintf("all %d uploads failed", res.Failed)
	case res.Failed > 0:
		op.Status = model.StatusPartial
		op.ErrorMessage = fmt.Sprintf("%d of %d uploads failed", res.Failed, len(files))
	}
	d.savePushState(site.ID, op)

	if res.Files == 0 {
		return res, fmt.Errorf("push %s: all %d uploads failed", site.Name, res.Failed)
	}

	if err := d.Store.UpdateLastPushedCommit(site.ID, head); err != nil {
		return res, fmt.Errorf("record pushed commit: %w", err)
	}

	res.Message = fmt.Sprintf(i18n.T("push.done"), res.Files, res.Failed)
	logging.Infof("push %s: %d file(s), %d failed, %d bytes, commit %s",
		site.Name, res.Files, res.Failed, res.Bytes, head)
	return res, nil
}
