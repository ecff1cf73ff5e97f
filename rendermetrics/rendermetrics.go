// Package rendermetrics defines the opencensus measures recorded while
// rendering.
package rendermetrics

import (
	"context"
	"time"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	KeyScene  = tag.MustNewKey("scene")
	KeyWorker = tag.MustNewKey("worker")
)

var (
	SamplesCompleted = stats.Int64("lumen/samples_completed", "Full-frame samples traced", stats.UnitDimensionless)
	RowsTraced       = stats.Int64("lumen/rows_traced", "Image rows traced across all samples", stats.UnitDimensionless)
	SampleLatency    = stats.Float64("lumen/sample_latency", "Wall time to trace one full-frame sample", stats.UnitMilliseconds)
	RenderLatency    = stats.Float64("lumen/render_latency", "Wall time of a whole render", stats.UnitMilliseconds)
)

var (
	SamplesCompletedView = &view.View{
		Name:        "lumen/samples_completed",
		Description: "Counter of full-frame samples traced",
		TagKeys:     []tag.Key{KeyScene, KeyWorker},
		Measure:     SamplesCompleted,
		Aggregation: view.Count(),
	}
	RowsTracedView = &view.View{
		Name:        "lumen/rows_traced",
		Description: "Sum of image rows traced",
		TagKeys:     []tag.Key{KeyScene},
		Measure:     RowsTraced,
		Aggregation: view.Sum(),
	}
	SampleLatencyView = &view.View{
		Name:        "lumen/sample_latency",
		Description: "Distribution of per-sample wall time",
		TagKeys:     []tag.Key{KeyScene},
		Measure:     SampleLatency,
		Aggregation: view.Distribution(1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000),
	}
	RenderLatencyView = &view.View{
		Name:        "lumen/render_latency",
		Description: "Distribution of whole-render wall time",
		TagKeys:     []tag.Key{KeyScene},
		Measure:     RenderLatency,
		Aggregation: view.Distribution(100, 1000, 10000, 60000, 300000, 900000, 3600000),
	}
)

func Views() []*view.View {
	return []*view.View{
		SamplesCompletedView,
		RowsTracedView,
		SampleLatencyView,
		RenderLatencyView,
	}
}

func Register() error {
	return view.Register(Views()...)
}

func Unregister() {
	view.Unregister(Views()...)
}

// WithScene tags ctx so that every measurement recorded under it carries the
// scene name.
func WithScene(ctx context.Context, scene string) context.Context {
	newCtx, err := tag.New(ctx, tag.Upsert(KeyScene, scene))
	if err != nil {
		// Only fails for invalid tag values; record untagged instead.
		return ctx
	}
	return newCtx
}

func RecordSample(ctx context.Context, worker string, rows int, elapsed time.Duration) {
	stats.RecordWithOptions(
		ctx,
		stats.WithTags(tag.Upsert(KeyWorker, worker)),
		stats.WithMeasurements(
			SamplesCompleted.M(1),
			RowsTraced.M(int64(rows)),
			SampleLatency.M(float64(elapsed)/float64(time.Millisecond)),
		),
	)
}

func RecordRender(ctx context.Context, elapsed time.Duration) {
	stats.Record(ctx, RenderLatency.M(float64(elapsed)/float64(time.Millisecond)))
}
