package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"lumen/camera"
	"lumen/checkpoint"
	"lumen/rgbimage"
	"lumen/scene"
	"lumen/scenepack"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"golang.org/x/time/rate"
)

var cmdRender = &cobra.Command{
	Use:   "render",
	Short: "Render a named scene",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()
		return doRender(ctx, cmd)
	},
}

var (
	renderScene         string
	renderSceneSeed     int64
	renderFlat          bool
	renderImageHeight   int
	renderSamples       int
	renderMaxDepth      int
	renderWorkers       int
	renderSeed          int64
	renderOutput        string
	renderStore         string
	renderKey           string
	renderResume        bool
	renderCheckpointGap int
	renderVFov          float64
	renderAperture      float64
	renderFocusDist     float64
	renderProgressEvery time.Duration
)

func init() {
	cmdRender.Flags().StringVar(&renderScene, "scene", "random", "Name of the scene to render.  See the scenes command.")
	cmdRender.Flags().Int64Var(&renderSceneSeed, "scene-seed", 1, "Seed for random scene layout.")
	cmdRender.Flags().BoolVar(&renderFlat, "flat", false, "Skip building a BVH and test every object for every ray.")
	cmdRender.Flags().IntVar(&renderImageHeight, "image-height", 400, "Output image height in pixels.  The width follows from the camera aspect ratio.")
	cmdRender.Flags().IntVar(&renderSamples, "samples", 64, "Total samples per pixel, counting resumed samples.")
	cmdRender.Flags().IntVar(&renderMaxDepth, "max-depth", scene.MaxDepth, "Maximum number of bounces per path.")
	cmdRender.Flags().IntVar(&renderWorkers, "workers", 0, "Number of render workers.  Zero means one per CPU.")
	cmdRender.Flags().Int64Var(&renderSeed, "seed", 1, "Base seed for per-sample random streams.")
	cmdRender.Flags().StringVar(&renderOutput, "output", "", "Write the developed image to this file (.png or .ppm).  If empty, write PPM to stdout.")
	cmdRender.Flags().StringVar(&renderStore, "checkpoint-store", "", "Checkpoint store URL (file://dir, badger://dir, gs://bucket, or a comma-separated list).")
	cmdRender.Flags().StringVar(&renderKey, "checkpoint-key", "", "Checkpoint key.  Defaults to the scene name.")
	cmdRender.Flags().BoolVar(&renderResume, "resume", false, "Continue from the accumulation saved under the checkpoint key.")
	cmdRender.Flags().IntVar(&renderCheckpointGap, "checkpoint-every", 0, "Save a checkpoint after every this many samples.  Zero saves only at the end.")
	cmdRender.Flags().Float64Var(&renderVFov, "vfov", 0, "Override the scene camera's vertical field of view, in degrees.")
	cmdRender.Flags().Float64Var(&renderAperture, "aperture", 0, "Override the scene camera's aperture.")
	cmdRender.Flags().Float64Var(&renderFocusDist, "focus-dist", 0, "Override the scene camera's focus distance.")
	cmdRender.Flags().DurationVar(&renderProgressEvery, "progress-interval", 250*time.Millisecond, "Minimum time between progress updates.")
}

func loadScene(cmd *cobra.Command, name string, seed int64, flat bool) (*scene.Scene, error) {
	opts := []scenepack.Option{}
	if flat {
		opts = append(opts, scenepack.Flat())
	}
	s, err := scenepack.Load(name, rand.New(rand.NewSource(seed)), opts...)
	if err != nil {
		return nil, fmt.Errorf("while loading scene: %w", err)
	}

	if cmd == nil {
		return s, nil
	}

	params := s.Camera.Params
	changed := false
	if cmd.Flags().Changed("vfov") {
		params.VFov = renderVFov
		changed = true
	}
	if cmd.Flags().Changed("aperture") {
		params.Aperture = renderAperture
		changed = true
	}
	if cmd.Flags().Changed("focus-dist") {
		params.FocusDist = renderFocusDist
		changed = true
	}
	if changed {
		s.Camera = camera.New(params)
	}
	return s, nil
}

// progressReporter rate-limits render progress.  On a terminal it redraws a
// single status line; otherwise it logs.
type progressReporter struct {
	limiter *rate.Limiter
	tty     bool
	start   time.Time
}

func newProgressReporter(interval time.Duration) *progressReporter {
	return &progressReporter{
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		tty:     term.IsTerminal(int(os.Stderr.Fd())),
		start:   time.Now(),
	}
}

func (p *progressReporter) report(cur, total int) {
	if cur != total && !p.limiter.Allow() {
		return
	}

	pct := 100.0 * float64(cur) / float64(total)
	elapsed := time.Since(p.start).Round(time.Second)
	if p.tty {
		fmt.Fprintf(os.Stderr, "\rRows %d/%d (%.1f%%) in %v   ", cur, total, pct, elapsed)
		if cur == total {
			fmt.Fprintln(os.Stderr)
		}
		return
	}
	glog.Infof("Rows %d/%d (%.1f%%) in %v", cur, total, pct, elapsed)
}

func doRender(ctx context.Context, cmd *cobra.Command) error {
	if renderSamples < 1 {
		return fmt.Errorf("--samples must be at least 1, got %d", renderSamples)
	}
	if renderResume && renderStore == "" {
		return fmt.Errorf("--resume needs --checkpoint-store")
	}

	s, err := loadScene(cmd, renderScene, renderSceneSeed, renderFlat)
	if err != nil {
		return err
	}

	key := renderKey
	if key == "" {
		key = renderScene
	}

	var store checkpoint.Store
	if renderStore != "" {
		if err := checkpoint.ValidateKey(key); err != nil {
			return err
		}
		store, err = checkpoint.Open(ctx, renderStore, gcsOptions()...)
		if err != nil {
			return fmt.Errorf("while opening checkpoint store: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				glog.Errorf("Error closing checkpoint store: %v", err)
			}
		}()
	}

	var acc *rgbimage.Accumulation
	if renderResume {
		acc, err = store.Get(ctx, key)
		if errors.Is(err, checkpoint.ErrNotFound) {
			glog.Warningf("No checkpoint under %q, starting from scratch", key)
			acc = nil
		} else if err != nil {
			return fmt.Errorf("while loading checkpoint: %w", err)
		} else {
			glog.Infof("Resuming from %d samples", acc.Samples)
		}
	}

	progress := newProgressReporter(renderProgressEvery)

	// Render in chunks so that long renders checkpoint along the way.
	chunk := renderSamples
	if store != nil && renderCheckpointGap > 0 {
		chunk = renderCheckpointGap
	}

	for acc == nil || acc.Samples < renderSamples {
		target := renderSamples
		done := 0
		if acc != nil {
			done = acc.Samples
		}
		if done+chunk < target {
			target = done + chunk
		}

		next, err := scene.RenderScene(ctx, s, &scene.RenderOptions{
			ImageHeight: renderImageHeight,
			Samples:     target,
			MaxDepth:    renderMaxDepth,
			Workers:     renderWorkers,
			Seed:        renderSeed,
			Resume:      acc,
		}, progress.report)
		if err != nil {
			if store != nil && acc != nil {
				glog.Warningf("Render stopped; checkpoint %q keeps %d samples", key, acc.Samples)
			}
			return fmt.Errorf("while rendering: %w", err)
		}
		acc = next

		if store != nil {
			if err := store.Put(ctx, key, acc); err != nil {
				return fmt.Errorf("while saving checkpoint: %w", err)
			}
			glog.Infof("Checkpointed %d samples under %q", acc.Samples, key)
		}
	}

	return writeImage(renderOutput, scene.Develop(acc))
}

func writeImage(output string, im *rgbimage.Image) error {
	if output == "" {
		if err := rgbimage.WritePPM(os.Stdout, im); err != nil {
			return fmt.Errorf("while writing image to stdout: %w", err)
		}
		return nil
	}
	if err := rgbimage.WriteFile(output, im); err != nil {
		return fmt.Errorf("while writing output image: %w", err)
	}
	return nil
}
