package report

import (
	"log/slog"
	"sync"
)

// Occurrence kinds emitted by the scanner and graph builder.
const (
	KindExternalDependency = "external_dependency"
	KindDeepRelativeImport = "deep_relative_import"
	KindUntypedImport      = "untyped_import"
	KindMissingFile        = "missing_file"
	KindMixedImportStyles  = "mixed_import_styles"
	KindSelfImport         = "self_import"
	KindCycle              = "cycle"
	KindScanError          = "scan_error"
)

type Occurrence struct {
	Kind    string
	Message string
	RelPath string
	Line    int
	Column  int
}

// Sink receives occurrences as they are produced. Implementations must be
// safe for concurrent use.
type Sink interface {
	Report(Occurrence)
}

// Collector accumulates occurrences in memory.
type Collector struct {
	mu   sync.Mutex
	occs []Occurrence
}

func (c *Collector) Report(o Occurrence) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.occs = append(c.occs, o)
}

func (c *Collector) Occurrences() []Occurrence {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Occurrence(nil), c.occs...)
}

func (c *Collector) CountByKind(kind string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, o := range c.occs {
		if o.Kind == kind {
			n++
		}
	}
	return n
}

// SlogSink logs each occurrence through slog. Cycles and missing files log
// at warn level, external-dependency notes at debug, everything else at info.
type SlogSink struct{}

func (SlogSink) Report(o Occurrence) {
	args := []any{"path", o.RelPath}
	if o.Line > 0 {
		args = append(args, "line", o.Line, "column", o.Column)
	}
	args = append(args, "message", o.Message)

	switch o.Kind {
	case KindExternalDependency:
		slog.Debug(o.Kind, args...)
	case KindCycle, KindSelfImport, KindMissingFile, KindScanError:
		slog.Warn(o.Kind, args...)
	default:
		slog.Info(o.Kind, args...)
	}
}

// Tee fans occurrences out to multiple sinks.
type Tee []Sink

func (t Tee) Report(o Occurrence) {
	for _, s := range t {
		if s != nil {
			s.Report(o)
		}
	}
}
