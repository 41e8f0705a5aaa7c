// Command jsonfs mounts the directory tree described by a layout
// document as a read-only FUSE filesystem.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jsonfs/jsonfs/internal/config"
	"github.com/jsonfs/jsonfs/internal/content"
	"github.com/jsonfs/jsonfs/internal/fuse"
	"github.com/jsonfs/jsonfs/internal/governor"
	"github.com/jsonfs/jsonfs/internal/layout"
	"github.com/jsonfs/jsonfs/internal/metrics"
	"github.com/jsonfs/jsonfs/internal/stats"
	"github.com/jsonfs/jsonfs/internal/tree"
	"github.com/jsonfs/jsonfs/pkg/types"
	"github.com/jsonfs/jsonfs/pkg/utils"
)

// version is stamped by the release build.
var version = "dev"

const (
	exitOK     = 0
	exitConfig = 1
	exitMount  = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	configFile := flag.String("config", "", "YAML config file")
	fillChar := flag.String("fill-char", "", "byte served for every read (default: null byte)")
	synthetic := flag.Bool("synthetic", false, "serve deterministic pseudo-random content instead of fill bytes")
	blockSize := flag.String("block-size", "1M", "synthetic content block size, accepts K/M/G suffixes")
	blockPool := flag.Int("block-pool", 1000, "number of blocks in the synthetic content pool")
	seed := flag.Int64("seed", 0, "synthetic content seed (0 derives one from the clock)")
	rateLimit := flag.Duration("rate-limit", 0, "minimum delay between operations")
	iopLimit := flag.Int("iop-limit", 0, "maximum operations per second (0 = unlimited)")
	uid := flag.Int("uid", -1, "reported owner uid (-1 = current user)")
	gid := flag.Int("gid", -1, "reported owner gid (-1 = current group)")
	normalization := flag.String("normalization", "none", "unicode normalization form (none|nfc|nfd|nfkc|nfkd)")
	ignore := flag.String("ignore", "._", "name prefix whose lookup misses log quietly")
	macosMarkers := flag.Bool("macos-markers", false, "add Spotlight suppression markers to the root directory")
	reportStats := flag.Bool("report-stats", false, "print per-interval throughput lines to stdout")
	statsInterval := flag.Duration("stats-interval", time.Second, "throughput report interval")
	metricsAddr := flag.String("metrics", "", "Prometheus listen address (empty = disabled)")
	allowOther := flag.Bool("allow-other", false, "allow other users to access the mount")
	logLevel := flag.String("log-level", "info", "log level (debug|info|warn|error)")
	logFile := flag.String("log-file", "", "log to this file instead of stderr")
	debug := flag.Bool("debug", false, "enable FUSE debug output and debug logging")
	showVersion := flag.Bool("version", false, "print version and exit")

	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, "Usage: jsonfs [flags] <layout> <mountpoint>\n\n")
		fmt.Fprintf(out, "Mounts the tree described by a layout document as a read-only\n")
		fmt.Fprintf(out, "filesystem. The layout may be a local file, an s3:// URL, or \"-\"\n")
		fmt.Fprintf(out, "for stdin.\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("jsonfs %s\n", version)
		return exitOK
	}

	args := flag.Args()
	if len(args) != 2 {
		flag.Usage()
		return exitConfig
	}

	cfg := config.NewDefault()
	if *configFile != "" {
		if err := cfg.LoadFromFile(*configFile); err != nil {
			fmt.Fprintf(os.Stderr, "jsonfs: %v\n", err)
			return exitConfig
		}
	}
	if err := cfg.LoadFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "jsonfs: %v\n", err)
		return exitConfig
	}

	// Flags set on the command line override both file and environment.
	var fillSet, syntheticSet bool
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "fill-char":
			fillSet = true
			cfg.Content.Mode = config.ModeFill
			cfg.Content.FillChar = *fillChar
		case "synthetic":
			syntheticSet = *synthetic
			if *synthetic {
				cfg.Content.Mode = config.ModeSynthetic
			}
		case "block-size":
			cfg.Content.BlockSize = *blockSize
		case "block-pool":
			cfg.Content.PoolBlocks = *blockPool
		case "seed":
			cfg.Content.Seed = *seed
		case "rate-limit":
			cfg.Limits.MinOpDelay = *rateLimit
		case "iop-limit":
			cfg.Limits.MaxOpsPerSec = *iopLimit
		case "uid":
			cfg.Attributes.UID = *uid
		case "gid":
			cfg.Attributes.GID = *gid
		case "normalization":
			cfg.Paths.UnicodeNormalization = *normalization
		case "ignore":
			cfg.Paths.IgnorePattern = *ignore
		case "macos-markers":
			cfg.Platform.MacOSNoIndexMarkers = *macosMarkers
		case "report-stats":
			cfg.Stats.Enabled = *reportStats
		case "stats-interval":
			cfg.Stats.Interval = *statsInterval
		case "metrics":
			cfg.Metrics.Enabled = *metricsAddr != ""
			cfg.Metrics.ListenAddr = *metricsAddr
		case "allow-other":
			cfg.Mount.AllowOther = *allowOther
		case "log-level":
			cfg.Logging.Level = *logLevel
		case "log-file":
			cfg.Logging.File = *logFile
		}
	})
	if fillSet && syntheticSet {
		fmt.Fprintln(os.Stderr, "jsonfs: cannot use both -fill-char and -synthetic")
		return exitConfig
	}
	if *debug {
		cfg.Mount.Debug = true
		cfg.Logging.Level = "debug"
	}
	cfg.Layout.Source = args[0]
	mountpoint := args[1]

	logger, err := utils.SetupLogging(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jsonfs: %v\n", err)
		return exitConfig
	}

	logger.Info("Starting jsonfs %s with log level: %s", version, cfg.Logging.Level)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration: %v", err)
		return exitConfig
	}

	ctx := context.Background()

	data, err := layout.NewLoader(cfg.Layout).Load(ctx)
	if err != nil {
		logger.Error("Failed to load layout: %v", err)
		return exitConfig
	}

	root, err := tree.Parse(data)
	if err != nil {
		logger.Error("Failed to parse layout: %v", err)
		return exitConfig
	}
	if cfg.Platform.MacOSNoIndexMarkers {
		tree.AddMacOSMarkers(root)
		logger.Info("Added macOS control files to root directory")
	}

	idx := tree.BuildIndex(root)
	totals := idx.Totals()
	logger.Info("Total size: %s (%d bytes)", utils.FormatBytes(totals.TotalBytes), totals.TotalBytes)
	logger.Info("Total files: %d", totals.Files)

	engine, err := buildEngine(cfg, logger)
	if err != nil {
		logger.Error("Failed to build content engine: %v", err)
		return exitConfig
	}

	gov, err := governor.New(cfg.Limits.MinOpDelay, cfg.Limits.MaxOpsPerSec)
	if err != nil {
		logger.Error("Invalid limits: %v", err)
		return exitConfig
	}
	logger.Info("Rate limit: %v", cfg.Limits.MinOpDelay)
	logger.Info("IOP limit: %d IOPS", cfg.Limits.MaxOpsPerSec)

	counters := stats.NewCounters()
	if cfg.Stats.Enabled {
		reporter := stats.NewReporter(counters, cfg.Stats.Interval, os.Stdout)
		reporter.Start()
		defer reporter.Stop()
	}

	var sink types.MetricsCollector = metrics.NewNop()
	if cfg.Metrics.Enabled {
		collector, err := metrics.NewCollector(cfg.Metrics.ListenAddr, logger)
		if err != nil {
			logger.Error("Failed to set up metrics: %v", err)
			return exitConfig
		}
		collector.SetTreeTotals(totals)
		if err := collector.Start(ctx); err != nil {
			logger.Error("Failed to start metrics server: %v", err)
			return exitConfig
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = collector.Stop(shutdownCtx)
		}()
		logger.Info("Metrics listening on %s", cfg.Metrics.ListenAddr)
		sink = collector
	}

	form, err := cfg.NormalizationForm()
	if err != nil {
		logger.Error("Invalid normalization form: %v", err)
		return exitConfig
	}

	core := fuse.NewCore(fuse.Options{
		Index:         idx,
		Engine:        engine,
		Governor:      gov,
		Stats:         counters,
		Metrics:       sink,
		Logger:        logger,
		Form:          form,
		IgnorePattern: cfg.Paths.IgnorePattern,
		MemoEntries:   cfg.Paths.NormalizeCacheEntries,
		UID:           cfg.ResolveUID(),
		GID:           cfg.ResolveGID(),
		FileMode:      cfg.Attributes.FileMode,
		DirMode:       cfg.Attributes.DirMode,
	})

	manager := fuse.CreatePlatformMountManager(core, mountpoint, cfg.Mount, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := manager.Mount(ctx); err != nil {
		logger.Error("Mount failed: %v", err)
		return exitMount
	}

	go func() {
		sig := <-sigChan
		logger.Info("Received signal %v, unmounting", sig)
		if err := manager.Unmount(); err != nil {
			logger.Error("Unmount failed: %v", err)
		}
	}()

	manager.Wait()
	logger.Info("Clean shutdown complete")
	return exitOK
}

// buildEngine constructs the content engine the configuration selects.
func buildEngine(cfg *config.Config, logger *utils.Logger) (types.ContentEngine, error) {
	logger.Info("Fill mode: %s", cfg.Content.Mode)

	if cfg.Content.Mode == config.ModeSynthetic {
		blockSize, err := cfg.BlockSizeBytes()
		if err != nil {
			return nil, err
		}
		logger.Info("Block size: %s", utils.FormatBytes(blockSize))
		logger.Info("Block pool size: %d blocks", cfg.Content.PoolBlocks)
		return content.NewSyntheticEngine(blockSize, cfg.Content.PoolBlocks, cfg.ResolveSeed())
	}

	return content.NewFillEngine(cfg.FillByte()), nil
}
