package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"tangle/internal/errors"
	"tangle/internal/observability"
	"tangle/internal/pathspec"
)

// FileEntry is one scanned file. RelPath is forward-slash normalized,
// relative to the scan root, and never begins with "../".
type FileEntry struct {
	FullPath   string
	RelPath    string
	Content    []byte // nil in scan-only mode
	ModifiedMs int64
}

// FileMap maps RelPath to its entry. It is produced once per scan
// invocation and must not be mutated afterwards.
type FileMap map[string]*FileEntry

func (m FileMap) Has(rel string) bool {
	_, ok := m[rel]
	return ok
}

type Options struct {
	Spec           *pathspec.Spec
	IncludeContent bool
	// Predicate, when set, must return true for a file to be admitted.
	Predicate func(relPath string) bool
	// Events receives the progress stream. The caller must drain it.
	Events chan<- Event
	// Workers bounds the directory task pool. Defaults to 4.
	Workers int
}

// Scanner walks a repository tree and produces a FileMap under the
// compound include/exclude rules of its pathspec.
type Scanner struct {
	root string
	opts Options
	id   uuid.UUID
}

func New(root string, opts Options) (*Scanner, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if opts.Spec == nil {
		opts.Spec, err = pathspec.New(nil, nil, nil, nil)
		if err != nil {
			return nil, err
		}
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	return &Scanner{root: abs, opts: opts, id: uuid.New()}, nil
}

func (s *Scanner) InvocationID() uuid.UUID { return s.id }

// directories conventionally holding test code; rejected unconditionally.
var testDirNames = map[string]bool{
	"__tests__": true,
	"test":      true,
	"tests":     true,
}

func isTestPath(rel string) bool {
	base := rel
	if idx := strings.LastIndex(rel, "/"); idx >= 0 {
		base = rel[idx+1:]
	}
	if strings.Contains(base, ".test.") || strings.Contains(base, ".spec.") {
		return true
	}
	for _, seg := range strings.Split(rel, "/") {
		if testDirNames[seg] {
			return true
		}
	}
	return false
}

// walker is the bounded task pool for directory traversal. Directories are
// fanned out over the jobs channel; when the channel is saturated a worker
// recurses inline instead of blocking, so the pool can never deadlock on
// its own queue. File map inserts are serialized by mu.
type walker struct {
	scanner *Scanner
	jobs    chan string
	pending sync.WaitGroup

	mu    sync.Mutex
	files FileMap
}

// Scan walks the derived scan roots and returns the file map. Sibling
// directories are processed by a bounded worker pool. Entry-level I/O
// errors are reported on the event stream and skipped. Scan aborts early
// only on context cancellation, returning the partial map with ctx.Err().
func (s *Scanner) Scan(ctx context.Context) (FileMap, error) {
	w := &walker{
		scanner: s,
		jobs:    make(chan string, 256),
		files:   make(FileMap),
	}

	for i := 0; i < s.opts.Workers; i++ {
		go w.run(ctx)
	}

	for _, rel := range s.opts.Spec.ScanRoots() {
		full := s.root
		if rel != "" {
			full = filepath.Join(s.root, filepath.FromSlash(rel))
		}
		info, err := os.Stat(full)
		if err != nil {
			s.emit(Event{Kind: EventEntryError, Scan: s.id, RelPath: rel, Err: err})
			observability.ScanErrorsTotal.Inc()
			continue
		}
		if info.IsDir() {
			w.enqueue(ctx, full)
			continue
		}
		// An include-derived root resolving to a single file is processed
		// under the same filter rules as any other file entry.
		if entry := s.processFile(full, nil); entry != nil {
			w.insert(entry)
		}
	}

	w.pending.Wait()
	close(w.jobs)

	if err := ctx.Err(); err != nil {
		return w.files, errors.Wrap(err, errors.CodeCancelled, "scan cancelled")
	}
	return w.files, nil
}

func (w *walker) insert(entry *FileEntry) {
	w.mu.Lock()
	w.files[entry.RelPath] = entry
	w.mu.Unlock()
}

func (w *walker) enqueue(ctx context.Context, dir string) {
	w.pending.Add(1)
	select {
	case w.jobs <- dir:
	default:
		w.walkDir(ctx, dir)
		w.pending.Done()
	}
}

func (w *walker) run(ctx context.Context) {
	for dir := range w.jobs {
		w.walkDir(ctx, dir)
		w.pending.Done()
	}
}

func (w *walker) walkDir(ctx context.Context, dir string) {
	s := w.scanner

	rel := s.relPath(dir)
	s.emit(Event{Kind: EventDirEntered, Scan: s.id, RelPath: rel})

	entries, err := os.ReadDir(dir)
	if err != nil {
		s.emit(Event{Kind: EventEntryError, Scan: s.id, RelPath: rel, Err: err})
		observability.ScanErrorsTotal.Inc()
		return
	}

	// os.ReadDir returns entries sorted by name, which keeps diagnostics
	// deterministic across runs.
	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}

		name := entry.Name()
		full := filepath.Join(dir, name)
		entryRel := s.relPath(full)

		// Symlinks are never followed, whether they point at files or
		// directories.
		if entry.Type()&fs.ModeSymlink != 0 {
			continue
		}

		if entry.IsDir() {
			if s.opts.Spec.GuardedDir(name) {
				continue
			}
			if testDirNames[name] {
				continue
			}
			if !s.opts.Spec.IncludesActive() && s.opts.Spec.Excluded(entryRel) {
				continue
			}
			w.enqueue(ctx, full)
			continue
		}

		if fileEntry := s.processFile(full, entry); fileEntry != nil {
			w.insert(fileEntry)
		}
	}
}

// processFile applies the per-file filter chain and builds the entry.
// A nil return means the file was filtered out or failed to stat/read.
func (s *Scanner) processFile(full string, dirEntry fs.DirEntry) *FileEntry {
	rel := s.relPath(full)

	if isTestPath(rel) {
		return nil
	}
	if !s.opts.Spec.Matches(rel) {
		return nil
	}
	if s.opts.Predicate != nil && !s.opts.Predicate(rel) {
		return nil
	}

	var info fs.FileInfo
	var err error
	if dirEntry != nil {
		info, err = dirEntry.Info()
	} else {
		info, err = os.Stat(full)
	}
	if err != nil {
		s.emit(Event{Kind: EventEntryError, Scan: s.id, RelPath: rel, Err: err})
		observability.ScanErrorsTotal.Inc()
		return nil
	}

	entry := &FileEntry{
		FullPath:   full,
		RelPath:    rel,
		ModifiedMs: info.ModTime().UnixMilli(),
	}

	if s.opts.IncludeContent {
		content, err := os.ReadFile(full)
		if err != nil {
			s.emit(Event{Kind: EventEntryError, Scan: s.id, RelPath: rel, Err: err})
			observability.ScanErrorsTotal.Inc()
			return nil
		}
		entry.Content = content
	}

	s.emit(Event{Kind: EventFileRead, Scan: s.id, RelPath: rel})
	observability.ScannedFilesTotal.Inc()
	return entry
}

func (s *Scanner) relPath(full string) string {
	rel, err := filepath.Rel(s.root, full)
	if err != nil {
		return filepath.ToSlash(full)
	}
	return filepath.ToSlash(rel)
}

func (s *Scanner) emit(ev Event) {
	if s.opts.Events != nil {
		s.opts.Events <- ev
	}
}
