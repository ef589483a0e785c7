package scanner

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"sort"
	"strings"
	"testing"

	"tangle/internal/errors"
	"tangle/internal/pathspec"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	return root
}

func scanRels(t *testing.T, root string, opts Options) []string {
	t.Helper()
	s, err := New(root, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	files, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	rels := make([]string, 0, len(files))
	for rel := range files {
		rels = append(rels, rel)
	}
	sort.Strings(rels)
	return rels
}

func TestScanRelPathNormalization(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/a.ts":                    "",
		"src/deep/b.ts":               "",
		"top.js":                      "",
		"node_modules/react/index.js": "",
	})

	spec, err := pathspec.New(nil, nil, nil, []string{"node_modules"})
	if err != nil {
		t.Fatal(err)
	}
	rels := scanRels(t, root, Options{Spec: spec})

	want := []string{"src/a.ts", "src/deep/b.ts", "top.js"}
	if !reflect.DeepEqual(rels, want) {
		t.Fatalf("scanned %v, want %v", rels, want)
	}
	for _, rel := range rels {
		if strings.Contains(rel, "\\") || strings.HasPrefix(rel, "../") || strings.HasPrefix(rel, "/") {
			t.Errorf("rel path %q is not normalized", rel)
		}
	}
}

func TestScanRejectsTestPaths(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/a.ts":            "",
		"src/a.test.ts":       "",
		"src/a.spec.js":       "",
		"src/__tests__/b.ts":  "",
		"test/c.ts":           "",
		"src/tests/helper.ts": "",
		"src/latest/ok.ts":    "", // "latest" is not a test dir segment
		"src/contest.ts":      "", // substring only, not a .test. infix
	})

	rels := scanRels(t, root, Options{})
	want := []string{"src/a.ts", "src/contest.ts", "src/latest/ok.ts"}
	if !reflect.DeepEqual(rels, want) {
		t.Fatalf("scanned %v, want %v", rels, want)
	}
}

func TestScanIncludeGroups(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/core/a.ts": "",
		"src/b.ts":      "",
		"lib/c.ts":      "",
	})

	spec, err := pathspec.New(nil, [][]string{{"src", "core"}}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	rels := scanRels(t, root, Options{Spec: spec})
	if !reflect.DeepEqual(rels, []string{"src/core/a.ts"}) {
		t.Fatalf("scanned %v, want only src/core/a.ts", rels)
	}
}

func TestScanExcludeDirPrunesTraversal(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/a.ts":       "",
		"dist/bundle.js": "",
	})

	spec, err := pathspec.New(nil, nil, []string{"dist"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	rels := scanRels(t, root, Options{Spec: spec})
	if !reflect.DeepEqual(rels, []string{"src/a.ts"}) {
		t.Fatalf("scanned %v, want only src/a.ts", rels)
	}
}

func TestScanContentAndPredicate(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/a.ts": "export const a = 1\n",
		"src/b.md": "readme",
	})

	isScript := func(rel string) bool { return strings.HasSuffix(rel, ".ts") }
	s, err := New(root, Options{IncludeContent: true, Predicate: isScript})
	if err != nil {
		t.Fatal(err)
	}
	files, err := s.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	entry, ok := files["src/a.ts"]
	if !ok {
		t.Fatal("src/a.ts not scanned")
	}
	if string(entry.Content) != "export const a = 1\n" {
		t.Errorf("content = %q", entry.Content)
	}
	if entry.ModifiedMs == 0 {
		t.Error("ModifiedMs not populated")
	}
	if files.Has("src/b.md") {
		t.Error("predicate-rejected file was admitted")
	}
}

func TestScanIdempotent(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/a.ts":      "",
		"src/deep/b.ts": "",
		"lib/c.js":      "",
	})

	first := scanRels(t, root, Options{})
	second := scanRels(t, root, Options{})
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated scans differ: %v vs %v", first, second)
	}
}

func TestScanSkipsSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires privileges on windows")
	}
	root := writeTree(t, map[string]string{
		"src/a.ts":   "",
		"other/b.ts": "",
	})
	if err := os.Symlink(filepath.Join(root, "other"), filepath.Join(root, "src", "link")); err != nil {
		t.Skipf("symlink: %v", err)
	}
	if err := os.Symlink(filepath.Join(root, "other", "b.ts"), filepath.Join(root, "src", "b-link.ts")); err != nil {
		t.Skipf("symlink: %v", err)
	}

	rels := scanRels(t, root, Options{})
	for _, rel := range rels {
		if strings.Contains(rel, "link") {
			t.Fatalf("symlinked entry %q was followed", rel)
		}
	}
}

func TestScanEventsCarryInvocationID(t *testing.T) {
	root := writeTree(t, map[string]string{"src/a.ts": ""})

	events := make(chan Event, 64)
	s, err := New(root, Options{Events: events})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	close(events)

	var sawDir, sawFile bool
	for ev := range events {
		if ev.Scan != s.InvocationID() {
			t.Fatalf("event %v carries wrong invocation id", ev)
		}
		switch ev.Kind {
		case EventDirEntered:
			sawDir = true
		case EventFileRead:
			sawFile = true
		}
	}
	if !sawDir || !sawFile {
		t.Errorf("missing event kinds: dir=%v file=%v", sawDir, sawFile)
	}
}

func TestScanCancelled(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/a.ts": "",
		"src/b.ts": "",
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := New(root, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Scan(ctx); !errors.IsCode(err, errors.CodeCancelled) {
		t.Fatalf("err = %v, want CANCELLED", err)
	}
}

func TestScanMissingRootReportsError(t *testing.T) {
	root := t.TempDir()
	spec, err := pathspec.New([]string{"src/**"}, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	events := make(chan Event, 16)
	s, err := New(root, Options{Spec: spec, Events: events})
	if err != nil {
		t.Fatal(err)
	}
	files, err := s.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	close(events)

	if len(files) != 0 {
		t.Fatalf("expected empty map, got %v", files)
	}
	var sawError bool
	for ev := range events {
		if ev.Kind == EventEntryError {
			sawError = true
		}
	}
	if !sawError {
		t.Error("missing scan root should surface as an entry error event")
	}
}
