package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tangle_scan_seconds",
		Help:    "Time spent on one full repository scan.",
		Buckets: prometheus.DefBuckets,
	})

	ParseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tangle_parse_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	ScannedFilesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tangle_scanned_files_total",
		Help: "Total number of files admitted into the file map.",
	})

	ScanErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tangle_scan_errors_total",
		Help: "Total number of non-fatal I/O errors skipped during scans.",
	})

	GraphNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tangle_graph_nodes_total",
		Help: "Total number of nodes in the dependency graph.",
	})

	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tangle_graph_edges_total",
		Help: "Total number of edges in the dependency graph.",
	})

	CyclesDetectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tangle_cycles_detected_total",
		Help: "Total number of confirmed dependency cycles reported.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tangle_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)
