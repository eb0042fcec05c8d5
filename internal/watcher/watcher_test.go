package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
)

// recorder collects callback paths.
type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) add(path string) {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
}

func (r *recorder) bases() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.paths))
	for i, p := range r.paths {
		out[i] = filepath.Base(p)
	}
	sort.Strings(out)
	return out
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestWatcher_DebounceAndExtensionFilter(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := mkdirAll(sub); err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	w := NewWatcher([]string{dir}, []string{".txt"}, true, rec.add, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	fPath := filepath.Join(sub, "f.txt")
	for i := 0; i < 3; i++ {
		if err := writeFile(fPath, strings.Repeat("x", i+1)); err != nil {
			t.Fatal(err)
		}
	}
	if err := writeFile(filepath.Join(sub, "skip.bin"), "x"); err != nil {
		t.Fatal(err)
	}

	if !waitFor(t, func() bool { return len(rec.bases()) >= 1 }) {
		t.Fatal("expected a settled file callback")
	}
	time.Sleep(200 * time.Millisecond)
	if got := rec.bases(); len(got) != 1 || got[0] != "f.txt" {
		t.Errorf("callbacks = %v, want one f.txt", got)
	}
}

func TestWatcher_skipsArtifactsAndIgnoredDirs(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "parsed")
	rec := &recorder{}
	w := NewWatcher([]string{dir}, []string{".docx", ".json"}, true, rec.add,
		WithDebounce(20*time.Millisecond), WithIgnore(out))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := mkdirAll(out); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"old.doc.converted.docx", ".~lock.report.docx", "report.docx"} {
		if err := writeFile(filepath.Join(dir, name), "x"); err != nil {
			t.Fatal(err)
		}
	}
	if err := writeFile(filepath.Join(out, "result.json"), "{}"); err != nil {
		t.Fatal(err)
	}

	if !waitFor(t, func() bool { return len(rec.bases()) >= 1 }) {
		t.Fatal("expected report.docx callback")
	}
	time.Sleep(150 * time.Millisecond)
	if got := rec.bases(); len(got) != 1 || got[0] != "report.docx" {
		t.Errorf("callbacks = %v, want [report.docx]", got)
	}
}

func TestWatcher_removeHandler(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gone.txt")
	if err := writeFile(path, "x"); err != nil {
		t.Fatal(err)
	}
	removed := &recorder{}
	w := NewWatcher([]string{dir}, nil, false, nil, WithRemoveHandler(removed.add))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, func() bool { return len(removed.bases()) == 1 }) {
		t.Errorf("remove callbacks = %v", removed.bases())
	}
}

func TestMatchExtension(t *testing.T) {
	tests := []struct {
		path       string
		extensions []string
		want       bool
	}{
		{"/a/b.pdf", []string{".pdf"}, true},
		{"/a/b.PDF", []string{"pdf"}, true},
		{"/a/b.md", []string{".txt"}, false},
		{"/a/b", nil, true},
		{"/a/b", []string{}, true},
	}
	for _, tt := range tests {
		got := matchExtension(tt.path, tt.extensions)
		if got != tt.want {
			t.Errorf("matchExtension(%q, %v) = %v, want %v", tt.path, tt.extensions, got, tt.want)
		}
	}
}

func TestInDir(t *testing.T) {
	tests := []struct {
		dir  string
		path string
		want bool
	}{
		{"/tmp/a", "/tmp/a", true},
		{"/tmp/a", "/tmp/a/b.txt", true},
		{"/tmp/a", "/tmp/b", false},
		{"/tmp/a", "/tmp/a/../b", false},
	}
	for _, tt := range tests {
		got := inDir(tt.dir, tt.path)
		if got != tt.want {
			t.Errorf("inDir(%q, %q) = %v, want %v", tt.dir, tt.path, got, tt.want)
		}
	}
}

func TestWatcher_SyncExistingFiles(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "nested")
	if err := mkdirAll(nested); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{
		filepath.Join(dir, "a.pdf"),
		filepath.Join(dir, "ignore.xyz"),
		filepath.Join(nested, "b.pdf"),
	} {
		if err := writeFile(p, "x"); err != nil {
			t.Fatal(err)
		}
	}

	flat := &recorder{}
	NewWatcher([]string{dir}, []string{".pdf"}, false, flat.add).SyncExistingFiles()
	if got := flat.bases(); len(got) != 1 || got[0] != "a.pdf" {
		t.Errorf("non-recursive sync = %v, want [a.pdf]", got)
	}

	deep := &recorder{}
	NewWatcher([]string{dir}, []string{".pdf"}, true, deep.add).SyncExistingFiles()
	if got := deep.bases(); len(got) != 2 || got[0] != "a.pdf" || got[1] != "b.pdf" {
		t.Errorf("recursive sync = %v, want [a.pdf b.pdf]", got)
	}
}

func TestWatcher_Start_createsMissingRootDirectory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "watch", "me")
	w := NewWatcher([]string{root}, nil, true, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if _, err := os.Stat(root); err != nil {
		t.Errorf("root directory should exist after Start: %v", err)
	}
}

func TestWatcher_newDirectoryIsReported(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	w := NewWatcher([]string{dir}, []string{".txt"}, true, rec.add, WithDebounce(20*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	nested := filepath.Join(dir, "level1", "level2")
	if err := mkdirAll(nested); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(nested, "deep.txt"), "deep content"); err != nil {
		t.Fatal(err)
	}
	ok := waitFor(t, func() bool {
		for _, b := range rec.bases() {
			if b == "deep.txt" {
				return true
			}
		}
		return false
	})
	if !ok {
		t.Errorf("expected deep.txt to be reported, got %v", rec.bases())
	}
}

func mkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0600)
}
