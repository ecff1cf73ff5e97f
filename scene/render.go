package scene

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"strconv"
	"sync"
	"time"

	"lumen/rendermetrics"
	"lumen/rgbimage"

	"github.com/golang/glog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

type RenderOptions struct {
	ImageHeight int

	// Total number of full-frame samples wanted in the result, counting any
	// samples already present in Resume.
	Samples int

	MaxDepth int

	// Number of worker goroutines.  Zero means runtime.NumCPU().
	Workers int

	// Sample i draws all of its randomness from a generator seeded with
	// Seed+i, so a render is reproducible for a fixed Seed.
	Seed int64

	// Optional accumulation from an earlier render of the same scene to
	// continue from.  It is not modified.
	Resume *rgbimage.Accumulation
}

// ProgressFunction receives the number of rows traced so far and the number
// of rows the render will trace in total.  Calls are serialized.
type ProgressFunction func(cur, total int)

// sampleWorker traces its share of the samples into a private accumulation.
type sampleWorker struct {
	id      int
	scene   *Scene
	rows    int
	cols    int
	depth   int
	seed    int64
	samples []int
	acc     *rgbimage.Accumulation

	// Scratch buffer for the sample in flight.
	frame *rgbimage.Image

	progressFunction func(rows int)
}

func (w *sampleWorker) render(ctx context.Context) error {
	tracer := otel.Tracer("lumen/scene")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "sampleWorker.render")
	defer span.End()

	span.SetAttributes(
		attribute.Int("worker", w.id),
		attribute.Int("samples", len(w.samples)),
	)

	workerTag := strconv.Itoa(w.id)
	for _, sampleIndex := range w.samples {
		start := time.Now()
		rng := rand.New(rand.NewSource(w.seed + int64(sampleIndex)))

		for r := 0; r < w.rows; r++ {
			if err := ctx.Err(); err != nil {
				span.SetStatus(codes.Error, err.Error())
				return err
			}

			for c := 0; c < w.cols; c++ {
				query := w.scene.Camera.ImageToRay(r, w.rows, c, w.cols, rng)
				color := RayColor(query, w.scene.World, w.depth, rng)

				w.frame.Set(r, c, color)
			}

			w.progressFunction(1)
		}

		if err := w.acc.AddFrame(w.frame); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		rendermetrics.RecordSample(ctx, workerTag, w.rows, time.Since(start))
	}

	glog.V(1).Infof("Worker %d finished %d samples", w.id, len(w.samples))
	span.SetStatus(codes.Ok, "")
	return nil
}

// RenderScene traces samples until the result holds opts.Samples full-frame
// samples, and returns the accumulated sums.  Use Develop to turn the result
// into a displayable image.
//
// Samples are divided statically among the workers, and the workers'
// accumulations are summed in worker order, so the result is reproducible
// for fixed options.
func RenderScene(ctx context.Context, s *Scene, opts *RenderOptions, progressFunction ProgressFunction) (*rgbimage.Accumulation, error) {
	tracer := otel.Tracer("lumen/scene")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "RenderScene")
	defer span.End()

	acc, err := renderScene(ctx, s, opts, progressFunction)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("samples", acc.Samples))
	span.SetStatus(codes.Ok, "")
	return acc, nil
}

func renderScene(ctx context.Context, s *Scene, opts *RenderOptions, progressFunction ProgressFunction) (*rgbimage.Accumulation, error) {
	start := time.Now()
	ctx = rendermetrics.WithScene(ctx, s.Name)

	rows := opts.ImageHeight
	cols := s.Camera.ImageWidth(rows)
	if rows < 2 || cols < 2 {
		return nil, fmt.Errorf("image must be at least 2x2, got %dx%d", cols, rows)
	}

	depth := opts.MaxDepth
	if depth == 0 {
		depth = MaxDepth
	}

	result := rgbimage.NewAccumulation(rows, cols)
	if opts.Resume != nil {
		if opts.Resume.Sums.RowSize != rows || opts.Resume.Sums.ColSize != cols {
			return nil, fmt.Errorf("resumed accumulation is %dx%d, want %dx%d", opts.Resume.Sums.ColSize, opts.Resume.Sums.RowSize, cols, rows)
		}
		if err := result.Merge(opts.Resume); err != nil {
			return nil, fmt.Errorf("while loading resumed accumulation: %w", err)
		}
	}

	// Samples already in the accumulation keep their seeds; new samples
	// continue the sequence instead of repeating it.
	existingSamples := result.Samples
	if existingSamples >= opts.Samples {
		glog.Infof("Accumulation already holds %d of %d samples; nothing to do", existingSamples, opts.Samples)
		return result, nil
	}

	workerCount := opts.Workers
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	if newSamples := opts.Samples - existingSamples; workerCount > newSamples {
		workerCount = newSamples
	}

	totalRows := (opts.Samples - existingSamples) * rows
	curRows := 0
	progressMutex := sync.Mutex{}
	progress := func(sub int) {
		progressMutex.Lock()
		defer progressMutex.Unlock()
		curRows += sub
		if progressFunction != nil {
			progressFunction(curRows, totalRows)
		}
	}

	workers := make([]*sampleWorker, workerCount)
	for i := range workers {
		workers[i] = &sampleWorker{
			id:               i,
			scene:            s,
			rows:             rows,
			cols:             cols,
			depth:            depth,
			seed:             opts.Seed,
			acc:              rgbimage.NewAccumulation(rows, cols),
			frame:            rgbimage.NewImage(rows, cols),
			progressFunction: progress,
		}
	}
	for i := existingSamples; i < opts.Samples; i++ {
		w := workers[(i-existingSamples)%workerCount]
		w.samples = append(w.samples, i)
	}

	glog.Infof("Rendering %q: %dx%d, samples %d..%d, max depth %d, %d workers", s.Name, cols, rows, existingSamples, opts.Samples, depth, workerCount)

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range workers {
		w := w
		g.Go(func() error {
			return w.render(gctx)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("while rendering: %w", err)
	}

	for _, w := range workers {
		if err := result.Merge(w.acc); err != nil {
			return nil, fmt.Errorf("while merging worker %d: %w", w.id, err)
		}
	}

	elapsed := time.Since(start)
	rendermetrics.RecordRender(ctx, elapsed)
	glog.Infof("Rendered %q in %v", s.Name, elapsed)

	return result, nil
}

// Develop averages, clamps and gamma-corrects an accumulation for display.
func Develop(acc *rgbimage.Accumulation) *rgbimage.Image {
	return acc.Develop(Gamma)
}
