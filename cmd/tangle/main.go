package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"tangle/internal/config"
)

var (
	configPath  = flag.String("config", "./tangle.toml", "Path to config file")
	rootDir     = flag.String("root", "", "Repository root (overrides config)")
	once        = flag.Bool("once", false, "Run single scan and exit")
	watch       = flag.Bool("watch", false, "Re-scan on file changes")
	maxDepth    = flag.Int("max-depth", 0, "Cycle search depth bound (overrides config)")
	metricsAddr = flag.String("metrics-addr", "", "Expose Prometheus metrics on this address")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
	version     = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "0.3.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("tangle v%s\n", VERSION)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	if *rootDir != "" {
		cfg.Root = *rootDir
	}
	if *maxDepth > 0 {
		cfg.Cycles.MaxDepth = *maxDepth
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(cfg)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if *watch && !*once {
		cfg.Watch.Enabled = true
	}

	if err := app.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Debug("no config file, using defaults", "path", path)
		return config.Default(), nil
	}
	return config.Load(path)
}
