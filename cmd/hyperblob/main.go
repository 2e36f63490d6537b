package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"hyperblob/pkg/config"
	"hyperblob/pkg/interpolation"
	"hyperblob/pkg/labeling"
	"hyperblob/pkg/pipeline"
)

// parseSizes parses a comma separated list such as "2,0.5,0.5"
func parseSizes(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	sizes := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid element size %q: %w", p, err)
		}
		sizes[i] = v
	}
	return sizes, nil
}

func main() {
	// Parse command line arguments
	inputDir := flag.String("input", "", "Directory containing 2D mask slices")
	configPath := flag.String("config", "hyperblob.yaml", "Path to YAML configuration file")
	initConfig := flag.Bool("init-config", false, "Write a default configuration file to -config and exit")
	numCores := flag.Int("cores", 0, "Number of layers labeled concurrently (default: from config)")
	elementSize := flag.String("element-size", "", "Input element size in um, (z,)y,x, e.g. 2,0.5,0.5")
	target := flag.String("target", "", "Target element size in um; empty keeps the input resolution")
	mode := flag.String("mode", "", "Interpolation mode: nearest or linear")
	connectivity := flag.String("connectivity", "", "Connectivity: simple (4/6) or complex (8/26)")
	threshold := flag.Float64("threshold", 0, "Foreground threshold in [0, 1]")
	saveLabels := flag.Bool("save-labels", false, "Save labeled z-planes as PNG")
	labelsDir := flag.String("labels-dir", "", "Directory to save labeled z-planes")
	flag.Parse()

	if *initConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	// Validate inputs
	if *inputDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Explicit flags override the configuration file
	var flagErr error
	flag.Visit(func(f *flag.Flag) {
		if flagErr != nil {
			return
		}
		switch f.Name {
		case "cores":
			cfg.Processing.NumCores = *numCores
		case "element-size":
			cfg.Input.ElementSizeUm, flagErr = parseSizes(*elementSize)
		case "target":
			cfg.Resampling.TargetElementSizeUm, flagErr = parseSizes(*target)
		case "mode":
			cfg.Resampling.Mode, flagErr = interpolation.ParseMode(*mode)
		case "connectivity":
			cfg.Labeling.Connectivity, flagErr = labeling.ParseConnectivity(*connectivity)
		case "threshold":
			cfg.Labeling.Threshold = *threshold
		case "save-labels":
			cfg.Output.SaveLabelSlices = *saveLabels
		case "labels-dir":
			cfg.Output.LabelSlicesDir = *labelsDir
		}
	})
	if flagErr != nil {
		log.Fatalf("Invalid arguments: %v", flagErr)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	fmt.Println("================================")
	fmt.Println("HYPERBLOB: MASK TO INSTANCE LABELING")
	fmt.Println("================================")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := pipeline.NewPipeline(pipeline.ParamsFromConfig(cfg, *inputDir))
	if err := p.Process(ctx); err != nil {
		log.Fatalf("Labeling failed: %v", err)
	}

	metrics := p.GetMetrics()
	fmt.Printf("\nLabeling completed successfully in %.2f seconds!\n", metrics.Elapsed.Seconds())
	fmt.Printf("Labeled shape: %v at %v um\n", metrics.Shape, metrics.ElementSizeUm)
	if metrics.Resampled {
		fmt.Printf("Input was resampled with %s interpolation\n", cfg.Resampling.Mode)
	}

	fmt.Printf("\nComponent Summary:\n")
	fmt.Printf("==================\n")
	fmt.Printf("Connectivity: %s\n", cfg.Labeling.Connectivity)
	fmt.Printf("Components per layer: %v\n", metrics.ComponentsPerLayer)
	fmt.Printf("Total components: %d\n", metrics.TotalComponents)
	fmt.Printf("Foreground fraction: %.4f\n", metrics.ForegroundFraction)
	if s := metrics.Sizes; s.Count > 0 {
		fmt.Printf("Component size (voxels): mean %.1f, std %.1f, median %.0f, min %.0f, max %.0f\n",
			s.Mean, s.StdDev, s.Median, s.Min, s.Max)
	}

	if cfg.Output.SaveLabelSlices {
		fmt.Printf("\nLabel slices saved to: %s\n", cfg.Output.LabelSlicesDir)
	}
}
