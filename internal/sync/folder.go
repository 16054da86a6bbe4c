// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

package sync

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/toeirei/wp-deploy/internal/i18n"
	"github.com/toeirei/wp-deploy/internal/logging"
	"github.com/toeirei/wp-deploy/internal/model"
)

const folderSteps = 4

// validateFolder ensures the folder argument stays inside the site tree.
func validateFolder(folder string) (string, error) {
	folder = strings.Trim(strings.TrimSpace(folder), "/")
	clean := path.Clean(folder)
	if clean == "" || clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("invalid folder path: %q", folder)
	}
	return clean, nil
}

func (d Deps) folderArchiveName(site model.Site, direction string) string {
	return fmt.Sprintf(".wp-deploy-%s-%s-%d.zip", direction, site.ID, d.Now().UnixNano())
}

// PushFolder transfers one local folder to the remote server as a single
// zip archive, extracted in place with the server's unzip. When the server
// has no unzip binary the files are uploaded one by one instead. Temporary
// archives on both ends are removed regardless of outcome.
func (d Deps) PushFolder(siteID, folder string, progress Progress) (Result, error) {
	site, err := d.Store.Site(siteID)
	if err != nil {
		return Result{}, err
	}
	folder, err = validateFolder(folder)
	if err != nil {
		return Result{}, err
	}
	localDir := filepath.Join(site.LocalPath, filepath.FromSlash(folder))
	if info, statErr := os.Stat(localDir); statErr != nil || !info.IsDir() {
		return Result{}, fmt.Errorf("local folder not found: %s", localDir)
	}

	sess, err := d.Dial(site)
	if err != nil {
		return Result{}, fmt.Errorf("connect to %s: %w", site, err)
	}
	defer sess.Close()

	if !sess.HasBinary("unzip") {
		logging.Warnf("push-folder %s: remote has no unzip, falling back to per-file upload", site.Name)
		return d.pushFolderFiles(site, sess, folder, progress)
	}

	report(progress, 1, folderSteps, i18n.T("folder.compressing"))
	archive := filepath.Join(d.TempDir, d.folderArchiveName(site, "push"))
	count, err := zipDir(site.LocalPath, folder, archive)
	if err != nil {
		return Result{}, err
	}
	defer os.Remove(archive)
	if count == 0 {
		return Result{Message: i18n.T("folder.nothing_to_do")}, nil
	}

	remoteRoot := strings.TrimRight(site.RemotePath, "/")
	remoteArchive := path.Join(remoteRoot, filepath.Base(archive))

	report(progress, 2, folderSteps, i18n.T("folder.uploading"))
	bytes, err := sess.Upload(archive, remoteArchive)
	if err != nil {
		return Result{}, fmt.Errorf("upload archive: %w", err)
	}
	defer func() {
		if rmErr := sess.Remove(remoteArchive); rmErr != nil {
			logging.Warnf("push-folder %s: remove remote archive: %v", site.Name, rmErr)
		}
	}()

	report(progress, 3, folderSteps, i18n.T("folder.extracting"))
	cmd := fmt.Sprintf("cd %s && unzip -o -q %s", shellQuote(remoteRoot), shellQuote(remoteArchive))
	if _, stderr, runErr := sess.Run(cmd); runErr != nil {
		return Result{}, fmt.Errorf("remote unzip: %w (%s)", runErr, strings.TrimSpace(stderr))
	}

	report(progress, 4, folderSteps, i18n.T("folder.cleanup"))
	logging.Infof("push-folder %s: %s, %d file(s), %d bytes", site.Name, folder, count, bytes)
	return Result{
		Message: fmt.Sprintf(i18n.T("folder.push_done"), count, folder),
		Files:   count,
		Bytes:   bytes,
	}, nil
}

// pushFolderFiles is the archive-less fallback: every regular file under
// the folder is uploaded individually.
func (d Deps) pushFolderFiles(site model.Site, sess Session, folder string, progress Progress) (Result, error) {
	localDir := filepath.Join(site.LocalPath, filepath.FromSlash(folder))
	var rels []string
	err := filepath.WalkDir(localDir, func(p string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return err
		}
		rel, relErr := filepath.Rel(site.LocalPath, p)
		if relErr != nil {
			return relErr
		}
		rels = append(rels, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("walk %s: %w", localDir, err)
	}

	remoteRoot := strings.TrimRight(site.RemotePath, "/")
	var res Result
	for i, rel := range rels {
		report(progress, i+1, len(rels), fmt.Sprintf(i18n.T("push.uploading"), rel))
		n, upErr := sess.Upload(filepath.Join(site.LocalPath, filepath.FromSlash(rel)), path.Join(remoteRoot, rel))
		if upErr != nil {
			logging.Errorf("push-folder %s: upload %s: %v", site.Name, rel, upErr)
			res.Failed++
			continue
		}
		res.Files++
		res.Bytes += n
	}
	res.Message = fmt.Sprintf(i18n.T("folder.push_done"), res.Files, folder)
	return res, nil
}

// PullFolder transfers one remote folder to the local working tree as a
// single zip archive built with the server's zip binary. When the server
// has no zip the files are downloaded one by one instead.
func (d Deps) PullFolder(siteID, folder string, progress Progress) (Result, error) {
	site, err := d.Store.Site(siteID)
	if err != nil {
		return Result{}, err
	}
	folder, err = validateFolder(folder)
	if err != nil {
		return Result{}, err
	}

	sess, err := d.Dial(site)
	if err != nil {
		return Result{}, fmt.Errorf("connect to %s: %w", site, err)
	}
	defer sess.Close()

	remoteRoot := strings.TrimRight(site.RemotePath, "/")
	if exists, exErr := sess.Exists(path.Join(remoteRoot, folder)); exErr != nil {
		return Result{}, exErr
	} else if !exists {
		return Result{}, fmt.Errorf("remote folder not found: %s", folder)
	}

	if !sess.HasBinary("zip") {
		logging.Warnf("pull-folder %s: remote has no zip, falling back to per-file download", site.Name)
		return d.pullFolderFiles(site, sess, folder, progress)
	}

	report(progress, 1, folderSteps, i18n.T("folder.compressing_remote"))
	name := d.folderArchiveName(site, "pull")
	remoteArchive := path.Join(remoteRoot, name)
	cmd := fmt.Sprintf("cd %s && zip -r -q %s %s", shellQuote(remoteRoot), shellQuote(remoteArchive), shellQuote(folder))
	if _, stderr, runErr := sess.Run(cmd); runErr != nil {
		return Result{}, fmt.Errorf("remote zip: %w (%s)", runErr, strings.TrimSpace(stderr))
	}
	defer func() {
		if rmErr := sess.Remove(remoteArchive); rmErr != nil {
			logging.Warnf("pull-folder %s: remove remote archive: %v", site.Name, rmErr)
		}
	}()

	report(progress, 2, folderSteps, i18n.T("folder.downloading"))
	archive := filepath.Join(d.TempDir, name)
	bytes, err := sess.Download(remoteArchive, archive)
	if err != nil {
		return Result{}, fmt.Errorf("download archive: %w", err)
	}
	defer os.Remove(archive)

	report(progress, 3, folderSteps, i18n.T("folder.extracting"))
	count, err := unzipTo(archive, site.LocalPath)
	if err != nil {
		return Result{}, err
	}

	report(progress, 4, folderSteps, i18n.T("folder.cleanup"))
	logging.Infof("pull-folder %s: %s, %d file(s), %d bytes", site.Name, folder, count, bytes)
	return Result{
		Message: fmt.Sprintf(i18n.T("folder.pull_done"), count, folder),
		Files:   count,
		Bytes:   bytes,
	}, nil
}

// pullFolderFiles is the archive-less fallback: every regular remote file
// under the folder is downloaded individually.
func (d Deps) pullFolderFiles(site model.Site, sess Session, folder string, progress Progress) (Result, error) {
	remoteRoot := strings.TrimRight(site.RemotePath, "/")
	files, err := sess.ListRecursive(path.Join(remoteRoot, folder), zeroTime, zeroTime)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for i, f := range files {
		rel := strings.TrimPrefix(f.Path, remoteRoot+"/")
		report(progress, i+1, len(files), fmt.Sprintf(i18n.T("pull.downloading"), rel))
		local := filepath.Join(site.LocalPath, filepath.FromSlash(rel))
		n, dlErr := sess.Download(f.Path, local)
		if dlErr != nil {
			logging.Errorf("pull-folder %s: download %s: %v", site.Name, rel, dlErr)
			res.Failed++
			continue
		}
		_ = os.Chtimes(local, f.ModTime, f.ModTime)
		res.Files++
		res.Bytes += n
	}
	res.Message = fmt.Sprintf(i18n.T("folder.pull_done"), res.Files, folder)
	return res, nil
}

// zipDir writes every regular file under root/folder into a zip archive at
// outPath. Entry names are slash paths relative to root, so extraction at
// the tree root recreates the folder in place.
func zipDir(root, folder, outPath string) (int, error) {
	out, err := os.Create(outPath)
	if err != nil {
		return 0, fmt.Errorf("create archive %s: %w", outPath, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	count := 0
	start := filepath.Join(root, filepath.FromSlash(folder))
	err = filepath.WalkDir(start, func(p string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return err
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}

		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		hdr.Method = zip.Deflate

		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		src, err := os.Open(p)
		if err != nil {
			return err
		}
		_, err = io.Copy(w, src)
		src.Close()
		if err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		zw.Close()
		return 0, fmt.Errorf("compress %s: %w", folder, err)
	}
	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("finalize archive: %w", err)
	}
	return count, nil
}

// unzipTo extracts an archive under destRoot, refusing entries that would
// escape it.
func unzipTo(archivePath, destRoot string) (int, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return 0, fmt.Errorf("open archive %s: %w", archivePath, err)
	}
	defer zr.Close()

	cleanRoot := filepath.Clean(destRoot)
	count := 0
	for _, f := range zr.File {
		target := filepath.Join(cleanRoot, filepath.FromSlash(f.Name))
		if !strings.HasPrefix(target, cleanRoot+string(os.PathSeparator)) {
			return count, fmt.Errorf("archive entry escapes destination: %s", f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return count, err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return count, err
		}

		src, err := f.Open()
		if err != nil {
			return count, err
		}
		dst, err := os.Create(target)
		if err != nil {
			src.Close()
			return count, err
		}
		_, err = io.Copy(dst, src)
		src.Close()
		if cerr := dst.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return count, fmt.Errorf("extract %s: %w", f.Name, err)
		}
		_ = os.Chtimes(target, f.Modified, f.Modified)
		count++
	}
	return count, nil
}
