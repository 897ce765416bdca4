package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"imagemeta/internal/models"
	"imagemeta/pkg/config"
	"imagemeta/pkg/metadata"
	"imagemeta/pkg/probe"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "imagemeta.yaml", "Configuration file (defaults are used if missing)")
	descriptorPath := flag.String("descriptor", "", "YAML descriptor to build metadata from")
	imagePath := flag.String("image", "", "Image file whose header is probed for metadata")
	format := flag.String("format", "", "Output format: text or yaml (overrides config)")
	verbose := flag.Bool("verbose", true, "Log advisory diagnostics")
	flag.Parse()

	// Validate inputs
	if (*descriptorPath == "") == (*imagePath == "") {
		fmt.Fprintln(os.Stderr, "Exactly one of -descriptor or -image is required")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *format != "" {
		cfg.Output.Format = *format
	}
	// An explicit -verbose=false wins over the config file
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "verbose" {
			cfg.Output.Verbose = *verbose
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	var diag metadata.DiagnosticFunc
	if cfg.Output.Verbose {
		diag = metadata.LogDiagnostics(log.Default())
	}

	var m *metadata.ImageMetadata
	if *descriptorPath != "" {
		d, err := models.LoadDescriptor(*descriptorPath)
		if err != nil {
			log.Fatalf("Failed to load descriptor: %v", err)
		}
		m, err = d.Build(cfg.Metadata.Origin, diag)
		if err != nil {
			log.Fatalf("Failed to build metadata: %v", err)
		}
	} else {
		opts := []probe.Option{
			probe.WithDiagnostics(diag),
			probe.WithTileSize(cfg.Metadata.TileWidth, cfg.Metadata.TileHeight),
		}
		if len(cfg.Metadata.Downsamples) > 0 {
			opts = append(opts, probe.WithDownsamples(cfg.Metadata.Downsamples...))
		}
		m, err = probe.File(*imagePath, cfg.Metadata.Origin, opts...)
		if err != nil {
			log.Fatalf("Failed to probe image: %v", err)
		}
	}

	if err := writeReport(os.Stdout, m, cfg.Output.Format); err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}
}
