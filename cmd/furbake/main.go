package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"time"

	"go.uber.org/zap"

	"fur-mask-baker/internal/batch"
	"fur-mask-baker/internal/config"
	"fur-mask-baker/internal/logger"
)

func main() {
	configFile := flag.String("config", "", "Path to a bake settings file (.yaml)")
	outputDir := flag.String("output", "", "Output directory (overrides output.dir)")
	resolution := flag.Int("resolution", -1, "Resolution index 0=512 1=1024 2=2048 3=4096 (overrides output.resolution)")
	workers := flag.Int("workers", 0, "Number of concurrent bakes (default: NumCPU)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: furbake [flags] [settings.yaml ...]\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	paths := flag.Args()
	if *configFile != "" {
		paths = append([]string{*configFile}, paths...)
	}
	if len(paths) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	flags := config.Flags{OutputDir: *outputDir, Resolution: *resolution, Debug: *debug}
	jobs := make([]*config.Config, 0, len(paths))
	for _, p := range paths {
		cfg, err := config.Load(p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		cfg.Resolve(flags)
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid config %s: %v\n", p, err)
			os.Exit(1)
		}
		jobs = append(jobs, cfg)
	}

	// The first settings file decides logging for the whole run.
	if err := logger.Init(jobs[0].Logging.Level, jobs[0].Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *workers <= 0 {
		*workers = runtime.NumCPU()
	}
	if *workers > len(jobs) {
		*workers = len(jobs)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("fur mask bake",
		zap.Int("jobs", len(jobs)), zap.Int("workers", *workers))
	start := time.Now()

	results := batch.Run(ctx, batch.Config{
		Workers:        *workers,
		ProgressPeriod: 2 * time.Second,
		Log:            logger.Named("batch"),
	}, jobs)

	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", time.Since(start).Seconds())
	success, failed := batch.Summary(results)
	fmt.Printf("Baked: %d/%d\n", success, len(results))
	for _, r := range results {
		fmt.Printf("  %s\n", r)
	}

	// One manifest per output directory.
	byDir := make(map[string][]batch.Result)
	var dirs []string
	for i, r := range results {
		dir := jobs[i].Output.Dir
		if _, ok := byDir[dir]; !ok {
			dirs = append(dirs, dir)
		}
		byDir[dir] = append(byDir[dir], r)
	}
	for _, dir := range dirs {
		manifestPath := filepath.Join(dir, "manifest.json")
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			continue
		}
		if err := batch.WriteManifest(manifestPath, byDir[dir]); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
		} else {
			fmt.Printf("Manifest: %s\n", manifestPath)
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}
