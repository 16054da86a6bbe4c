// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

package sync

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
)

func TestValidateFolder(t *testing.T) {
	good := []string{"wp-content/uploads", "wp-content/uploads/", "/wp-content/themes"}
	for _, f := range good {
		if _, err := validateFolder(f); err != nil {
			t.Errorf("validateFolder(%q) = %v", f, err)
		}
	}
	bad := []string{"", ".", "..", "../etc", "wp-content/../../etc"}
	for _, f := range bad {
		if _, err := validateFolder(f); err == nil {
			t.Errorf("validateFolder(%q) accepted an escaping path", f)
		}
	}
}

func TestZipRoundTrip(t *testing.T) {
	src := t.TempDir()
	for rel, content := range map[string]string{
		"uploads/2026/a.jpg":     "jpeg",
		"uploads/2026/03/b.jpg":  "jpeg2",
		"uploads/robots-sub.txt": "x",
	} {
		p := filepath.Join(src, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	archive := filepath.Join(t.TempDir(), "test.zip")
	count, err := zipDir(src, "uploads", archive)
	if err != nil {
		t.Fatalf("zipDir: %v", err)
	}
	if count != 3 {
		t.Fatalf("zipped %d files, want 3", count)
	}

	dst := t.TempDir()
	extracted, err := unzipTo(archive, dst)
	if err != nil {
		t.Fatalf("unzipTo: %v", err)
	}
	if extracted != 3 {
		t.Fatalf("extracted %d files, want 3", extracted)
	}
	data, err := os.ReadFile(filepath.Join(dst, "uploads/2026/03/b.jpg"))
	if err != nil {
		t.Fatalf("extracted tree wrong: %v", err)
	}
	if string(data) != "jpeg2" {
		t.Errorf("content = %q", data)
	}
}

func TestPushFolderUsesRemoteUnzip(t *testing.T) {
	env := newTestEnv(t)
	env.session.binaries["unzip"] = true
	env.writeLocal(t, "wp-content/uploads/a.jpg", "jpeg")

	res, err := env.deps.PushFolder(env.site.ID, "wp-content/uploads", nil)
	if err != nil {
		t.Fatalf("PushFolder: %v", err)
	}
	if res.Files != 1 {
		t.Errorf("files = %d", res.Files)
	}

	var sawUnzip bool
	for _, cmd := range env.session.commands {
		if strings.Contains(cmd, "unzip -o -q") && strings.Contains(cmd, "cd '/var/www/html'") {
			sawUnzip = true
		}
	}
	if !sawUnzip {
		t.Errorf("no unzip command ran: %v", env.session.commands)
	}
	// The transferred archive is cleaned up on both ends.
	for p := range env.session.files {
		if strings.HasSuffix(p, ".zip") {
			t.Errorf("remote archive left behind: %s", p)
		}
	}
	entries, _ := os.ReadDir(env.deps.TempDir)
	if len(entries) != 0 {
		t.Errorf("local temp archive left behind: %v", entries)
	}
}

func TestPushFolderFallsBackToPerFileUpload(t *testing.T) {
	env := newTestEnv(t)
	// No unzip on the server.
	env.writeLocal(t, "wp-content/uploads/a.jpg", "jpeg")
	env.writeLocal(t, "wp-content/uploads/b.jpg", "jpeg2")

	res, err := env.deps.PushFolder(env.site.ID, "wp-content/uploads", nil)
	if err != nil {
		t.Fatalf("PushFolder: %v", err)
	}
	if res.Files != 2 {
		t.Errorf("files = %d", res.Files)
	}
	if _, ok := env.session.files["/var/www/html/wp-content/uploads/a.jpg"]; !ok {
		t.Error("file not uploaded in fallback mode")
	}
	if len(env.session.commands) != 0 {
		t.Errorf("fallback must not run remote commands: %v", env.session.commands)
	}
}

func TestPullFolderViaRemoteZip(t *testing.T) {
	env := newTestEnv(t)
	env.session.binaries["zip"] = true
	env.putRemote("wp-content/themes/t/style.css", "a{}", env.deps.Now())

	// Build the archive the way the remote zip command would.
	stage := t.TempDir()
	p := filepath.Join(stage, "wp-content/themes/t/style.css")
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte("a{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	// The fake session only records the remote zip command; simulate the
	// archive appearing by pre-building it at the path PullFolder will ask
	// for. The name is deterministic under the fixed test clock.
	name := env.deps.folderArchiveName(env.site, "pull")
	archive := filepath.Join(t.TempDir(), name)
	if _, err := zipDir(stage, "wp-content/themes", archive); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(archive)
	if err != nil {
		t.Fatal(err)
	}
	env.session.files["/var/www/html/"+name] = data

	got, err := env.deps.PullFolder(env.site.ID, "wp-content/themes", nil)
	if err != nil {
		t.Fatalf("PullFolder: %v", err)
	}
	if got.Files != 1 {
		t.Errorf("files = %d", got.Files)
	}
	local := filepath.Join(env.site.LocalPath, "wp-content/themes/t/style.css")
	if _, err := os.Stat(local); err != nil {
		t.Errorf("extracted file missing: %v", err)
	}
	var sawZip bool
	for _, cmd := range env.session.commands {
		if strings.Contains(cmd, "zip -r -q") {
			sawZip = true
		}
	}
	if !sawZip {
		t.Errorf("no zip command ran: %v", env.session.commands)
	}
}

func TestPullFolderFallsBackToPerFileDownload(t *testing.T) {
	env := newTestEnv(t)
	env.putRemote("wp-content/themes/t/style.css", "a{}", env.deps.Now())

	res, err := env.deps.PullFolder(env.site.ID, "wp-content/themes", nil)
	if err != nil {
		t.Fatalf("PullFolder: %v", err)
	}
	if res.Files != 1 {
		t.Errorf("files = %d", res.Files)
	}
	local := filepath.Join(env.site.LocalPath, "wp-content/themes/t/style.css")
	if _, err := os.Stat(local); err != nil {
		t.Errorf("downloaded file missing: %v", err)
	}
}

func TestUnzipToRejectsEscapingEntries(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "evil.zip")
	out, err := os.Create(archive)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(out)
	w, err := zw.Create("../evil.txt")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("boom")); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}

	dst := t.TempDir()
	if _, err := unzipTo(archive, dst); err == nil {
		t.Fatal("traversal entry extracted without error")
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dst), "evil.txt")); !os.IsNotExist(err) {
		t.Error("traversal entry escaped the destination")
	}
}
