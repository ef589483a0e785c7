package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"tangle/internal/builder"
	"tangle/internal/config"
	"tangle/internal/graph"
	"tangle/internal/observability"
	"tangle/internal/output"
	"tangle/internal/pathspec"
	"tangle/internal/report"
	"tangle/internal/scanner"
	"tangle/internal/watcher"
)

type App struct {
	cfg       *config.Config
	spec      *pathspec.Spec
	collector *report.Collector
	metrics   *observability.Server
	snapshots *graph.SnapshotStore
}

func newApp(cfg *config.Config) (*App, error) {
	spec, err := pathspec.New(cfg.Scan.Include, cfg.Scan.IncludeGroups, cfg.Scan.Exclude, cfg.Scan.GuardDirs)
	if err != nil {
		return nil, err
	}

	app := &App{
		cfg:       cfg,
		spec:      spec,
		collector: &report.Collector{},
	}

	if cfg.Metrics.Addr != "" {
		app.metrics = observability.NewServer(cfg.Metrics.Addr)
		app.metrics.Start()
	}

	if cfg.Snapshot.Enabled {
		store, err := graph.OpenSnapshotStore(cfg.Snapshot.Path)
		if err != nil {
			return nil, err
		}
		app.snapshots = store
	}

	return app, nil
}

func (a *App) Close() {
	if a.metrics != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = a.metrics.Stop(shutdownCtx)
	}
	if a.snapshots != nil {
		_ = a.snapshots.Close()
	}
}

func (a *App) Run(ctx context.Context) error {
	if err := a.analyze(ctx); err != nil {
		return err
	}

	if !a.cfg.Watch.Enabled {
		return nil
	}

	w, err := watcher.New(a.spec, a.cfg.Watch.Debounce, a.cfg.Watch.RescansPerSecond, func(paths []string) {
		slog.Info("changes detected, re-scanning", "files", len(paths))
		if err := a.analyze(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("re-scan failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Watch(ctx, a.cfg.Root); err != nil {
		return err
	}

	slog.Info("watching for changes", "root", a.cfg.Root)
	<-ctx.Done()
	return ctx.Err()
}

// analyze runs one full pass: scan, build the graph, report confirmed
// cycles, write configured outputs.
func (a *App) analyze(ctx context.Context) error {
	started := time.Now()

	events := make(chan scanner.Event, 64)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for ev := range events {
			switch ev.Kind {
			case scanner.EventEntryError:
				a.collector.Report(report.Occurrence{
					Kind:    report.KindScanError,
					Message: ev.Err.Error(),
					RelPath: ev.RelPath,
				})
				slog.Warn("scan entry skipped", "path", ev.RelPath, "error", ev.Err)
			case scanner.EventDirEntered:
				slog.Debug("scanning", "dir", ev.RelPath)
			}
		}
	}()

	s, err := scanner.New(a.cfg.Root, scanner.Options{
		Spec:           a.spec,
		IncludeContent: *a.cfg.Scan.IncludeContent,
		Events:         events,
		Workers:        a.cfg.Scan.Workers,
	})
	if err != nil {
		close(events)
		<-drained
		return err
	}

	files, err := s.Scan(ctx)
	close(events)
	<-drained
	observability.ScanDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		return err
	}

	sink := report.Tee{report.SlogSink{}, a.collector}
	b := builder.New(files, sink)
	if err := b.Build(ctx, a.cfg.Scan.Workers); err != nil {
		return err
	}

	cycles := b.ReportCycles(a.cfg.Cycles.MaxDepth, *a.cfg.Cycles.Validate)
	for _, key := range b.Graph().SelfLoops() {
		slog.Warn("degenerate one-node cycle", "path", key)
	}

	slog.Info("analysis complete",
		"files", len(files),
		"nodes", b.Graph().NodeCount(),
		"edges", b.Graph().EdgeCount(),
		"cycles", len(cycles),
		"duration", time.Since(started))

	if a.snapshots != nil {
		if err := a.snapshots.Save(s.InvocationID(), b.Graph()); err != nil {
			slog.Warn("failed to save graph snapshot", "error", err)
		}
	}

	return a.writeOutputs(b.Graph(), cycles)
}

func (a *App) writeOutputs(g *graph.Graph, cycles [][]string) error {
	if a.cfg.Output.DOT != "" {
		dot, err := output.NewDOTGenerator(g).Generate(cycles)
		if err != nil {
			return err
		}
		if err := os.WriteFile(a.cfg.Output.DOT, []byte(dot), 0o644); err != nil {
			return err
		}
		slog.Info("wrote DOT graph", "path", a.cfg.Output.DOT)
	}

	if a.cfg.Output.TSV != "" {
		tsv, err := output.NewTSVGenerator(g).Generate()
		if err != nil {
			return err
		}
		if err := os.WriteFile(a.cfg.Output.TSV, []byte(tsv), 0o644); err != nil {
			return err
		}
		slog.Info("wrote TSV edges", "path", a.cfg.Output.TSV)
	}

	if a.cfg.Output.Occurrences != "" {
		tsv, err := output.NewTSVGenerator(g).GenerateOccurrences(a.collector.Occurrences())
		if err != nil {
			return err
		}
		if err := os.WriteFile(a.cfg.Output.Occurrences, []byte(tsv), 0o644); err != nil {
			return err
		}
		slog.Info("wrote TSV occurrences", "path", a.cfg.Output.Occurrences)
	}

	return nil
}
