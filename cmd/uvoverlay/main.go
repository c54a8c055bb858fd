package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"fur-mask-baker/internal/batch"
	"fur-mask-baker/internal/config"
	"fur-mask-baker/internal/geometry"
	"fur-mask-baker/internal/gltfscene"
	"fur-mask-baker/internal/logger"
	"fur-mask-baker/internal/overlay"
)

func main() {
	configFile := flag.String("config", "", "Path to a bake settings file (.yaml)")
	material := flag.String("material", "", "Only draw this material (default: all skin materials)")
	size := flag.Int("size", 1024, "Overlay edge in pixels")
	outputDir := flag.String("output", "", "Output directory (default: output.dir)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *configFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: uvoverlay -config settings.yaml [-material name] [-size px] [-output dir]")
		os.Exit(2)
	}
	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg.Resolve(config.Flags{OutputDir: *outputDir, Resolution: -1, Debug: *debug})

	if err := logger.Init(cfg.Logging.Level, ""); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Named("uvoverlay")

	scene, err := gltfscene.Load(cfg.Scene.File, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	skin, missing := scene.Select(cfg.Scene.Skin)
	for _, m := range missing {
		log.Warn("skin path not found", zap.String("path", m))
	}

	buf := geometry.NewBuffers()
	buf.AppendSurfaces(skin, nil, log)

	materials := overlay.Materials(buf)
	if *material != "" {
		materials = []string{*material}
	}

	opts := overlay.DefaultOptions()
	opts.Size = *size
	masks := cfg.Masks()
	for _, m := range materials {
		img, islands, err := overlay.Render(buf, m, masks, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		out := filepath.Join(cfg.Output.Dir, fmt.Sprintf("%s_%s_uv.png", cfg.Output.Prefix, m))
		if err := batch.Save(out, img, "png"); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s -> %s\n", m, out)
		for _, is := range islands {
			status := "not found"
			if is.Found {
				status = fmt.Sprintf("%d triangles", is.Triangles)
			}
			fmt.Printf("  island %q: %s\n", is.Label, status)
		}
	}
}
