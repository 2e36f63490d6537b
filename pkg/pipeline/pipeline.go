// Package pipeline turns annotation masks into per-instance label volumes.
//
// The pipeline consists of several steps:
// 1. Loading the mask slices into a tensor
// 2. Resampling to the model's element size
// 3. Thresholding into a foreground mask
// 4. Connected-component labeling of each (time, channel) layer
// 5. Computing per-component statistics and metrics
// 6. Optionally saving the label planes as images
package pipeline

import (
	"context"
	"fmt"
	"time"

	"hyperblob/pkg/blob"
	"hyperblob/pkg/config"
	"hyperblob/pkg/interpolation"
	"hyperblob/pkg/labeling"
	"hyperblob/pkg/visualization"
)

// Params holds the pipeline parameters.
type Params struct {
	// InputDir is the directory containing mask slices in PNG or JPEG format.
	InputDir string

	// NumCores specifies how many layers are labeled concurrently.
	NumCores int

	// ElementSizeUm is the physical sample size of the input, (z,) y, x.
	ElementSizeUm []float64

	// TargetElementSizeUm is the sample size to resample to; empty keeps the input resolution.
	TargetElementSizeUm []float64

	// Mode is the interpolation kernel used for resampling.
	Mode interpolation.Mode

	// Connectivity selects face-only or full neighborhoods.
	Connectivity labeling.Connectivity

	// Threshold is the intensity (0-1) above which a voxel is foreground.
	Threshold float64

	// SaveLabelSlices enables writing label planes into LabelSlicesDir.
	SaveLabelSlices bool
	LabelSlicesDir  string

	// Verbose prints progress to stdout.
	Verbose bool
}

// ParamsFromConfig builds pipeline parameters from a loaded configuration.
func ParamsFromConfig(cfg *config.Config, inputDir string) *Params {
	return &Params{
		InputDir:            inputDir,
		NumCores:            cfg.Processing.NumCores,
		ElementSizeUm:       append([]float64(nil), cfg.Input.ElementSizeUm...),
		TargetElementSizeUm: append([]float64(nil), cfg.Resampling.TargetElementSizeUm...),
		Mode:                cfg.Resampling.Mode,
		Connectivity:        cfg.Labeling.Connectivity,
		Threshold:           cfg.Labeling.Threshold,
		SaveLabelSlices:     cfg.Output.SaveLabelSlices,
		LabelSlicesDir:      cfg.Output.LabelSlicesDir,
		Verbose:             cfg.Output.Verbose,
	}
}

// Metrics summarizes a pipeline run.
type Metrics struct {
	// Shape and ElementSizeUm describe the labeled tensor.
	Shape         []int
	ElementSizeUm []float64

	// Resampled is false when the input already had the target element size.
	Resampled bool

	// ComponentsPerLayer is the component count of each (time, channel) layer.
	ComponentsPerLayer []int

	// TotalComponents is the sum of ComponentsPerLayer.
	TotalComponents int

	// ForegroundFraction is the share of voxels above the threshold.
	ForegroundFraction float64

	// Sizes describes the distribution of component volumes in voxels.
	Sizes labeling.SizeSummary

	// Elapsed is the wall time of Process.
	Elapsed time.Duration
}

// Pipeline runs the mask-to-instance conversion.
type Pipeline struct {
	params *Params

	input      *blob.Tensor[float32]
	labels     *blob.Tensor[int32]
	components []labeling.Component
	index      *labeling.CentroidIndex
	metrics    Metrics
}

// NewPipeline creates a pipeline with the provided parameters.
func NewPipeline(params *Params) *Pipeline {
	return &Pipeline{params: params}
}

// SetInput supplies the intensity tensor directly instead of loading InputDir.
func (p *Pipeline) SetInput(t *blob.Tensor[float32]) {
	p.input = t
}

func (p *Pipeline) logf(format string, args ...any) {
	if p.params.Verbose {
		fmt.Printf(format+"\n", args...)
	}
}

// Process runs the complete pipeline.
func (p *Pipeline) Process(ctx context.Context) error {
	start := time.Now()

	// Step 1: Load input
	if p.input == nil {
		p.logf("Step 1: Loading slices from %s...", p.params.InputDir)
		stack, err := LoadStack(p.params.InputDir)
		if err != nil {
			return fmt.Errorf("failed to load slices: %w", err)
		}
		p.input, err = StackToTensor(stack, p.params.ElementSizeUm)
		if err != nil {
			return fmt.Errorf("failed to build tensor: %w", err)
		}
		p.logf("Loaded %d slices with dimensions %dx%d", stack.Depth(), stack.Width, stack.Height)
	}

	// Step 2: Resample to target element size
	work := p.input
	if len(p.params.TargetElementSizeUm) > 0 {
		p.logf("Step 2: Resampling %v um -> %v um (%s)...",
			p.input.ElementSizeUm(), p.params.TargetElementSizeUm, p.params.Mode)
		rescaled, err := blob.Rescale(ctx, p.input, p.params.TargetElementSizeUm, p.params.Mode)
		if err != nil {
			return fmt.Errorf("failed to resample: %w", err)
		}
		if rescaled == p.input {
			p.logf("Input already at target resolution")
		}
		work = rescaled
	}
	p.metrics.Resampled = work != p.input
	p.logf("Working shape %s", work.ShapeString())

	// Step 3: Threshold
	p.logf("Step 3: Thresholding at %.3f...", p.params.Threshold)
	threshold := float32(p.params.Threshold)
	foreground := 0
	mask := blob.Map(work, func(v float32) bool {
		if v > threshold {
			foreground++
			return true
		}
		return false
	})

	// Step 4: Label
	p.logf("Step 4: Labeling with %s connectivity on %d cores...", p.params.Connectivity, max(1, p.params.NumCores))
	labels, counts, err := labeling.Label(ctx, mask, p.params.Connectivity,
		labeling.WithWorkers(max(1, p.params.NumCores)),
		labeling.WithProgress(func(completed, total int, message string) {
			p.logf("  [%d/%d] %s", completed, total, message)
		}))
	if err != nil {
		return fmt.Errorf("failed to label: %w", err)
	}
	p.labels = labels

	// Step 5: Component statistics
	p.logf("Step 5: Computing component statistics...")
	p.components, err = labeling.Components(labels, counts)
	if err != nil {
		return fmt.Errorf("failed to compute components: %w", err)
	}
	p.index = labeling.NewCentroidIndex(p.components, -1)

	p.metrics.Shape = labels.Shape()
	p.metrics.ElementSizeUm = labels.ElementSizeUm()
	p.metrics.ComponentsPerLayer = counts
	p.metrics.TotalComponents = 0
	for _, k := range counts {
		p.metrics.TotalComponents += k
	}
	if n := labels.Len(); n > 0 {
		p.metrics.ForegroundFraction = float64(foreground) / float64(n)
	}
	p.metrics.Sizes = labeling.Summarize(p.components)

	// Step 6: Save label slices
	if p.params.SaveLabelSlices {
		p.logf("Step 6: Saving label slices to %s...", p.params.LabelSlicesDir)
		n, err := visualization.SaveLabelSequence(labels, p.params.LabelSlicesDir)
		if err != nil {
			return fmt.Errorf("failed to save label slices: %w", err)
		}
		p.logf("Saved %d label slices", n)
	}

	p.metrics.Elapsed = time.Since(start)
	return nil
}

// GetMetrics returns the metrics of the last successful run.
func (p *Pipeline) GetMetrics() Metrics {
	return p.metrics
}

// Labels returns the label tensor of the last successful run.
func (p *Pipeline) Labels() *blob.Tensor[int32] {
	return p.labels
}

// Components returns the per-component statistics of the last successful run.
func (p *Pipeline) Components() []labeling.Component {
	return p.components
}

// NearestComponent finds the component whose centroid is closest to pointUm.
func (p *Pipeline) NearestComponent(pointUm []float64) (labeling.Component, float64, bool) {
	if p.index == nil {
		return labeling.Component{}, 0, false
	}
	return p.index.Nearest(pointUm)
}
