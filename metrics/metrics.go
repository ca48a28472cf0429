package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/ByLCY/reachplot/metrics"

// Meter returns the global meter (no-op until an SDK provider is installed).
func Meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Recorder holds the load instruments.
type Recorder struct {
	loads    metric.Int64Counter
	failures metric.Int64Counter
	decode   metric.Float64Histogram
}

// New creates the load instruments on meter. A nil meter uses the global one.
func New(m metric.Meter) (*Recorder, error) {
	if m == nil {
		m = Meter()
	}
	r := &Recorder{}
	var err error

	r.loads, err = m.Int64Counter(
		"reachplot.loads",
		metric.WithDescription("Total documents loaded successfully"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating loads counter: %w", err)
	}

	r.failures, err = m.Int64Counter(
		"reachplot.load_failures",
		metric.WithDescription("Total documents rejected, by error kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failures counter: %w", err)
	}

	r.decode, err = m.Float64Histogram(
		"reachplot.decode.duration",
		metric.WithDescription("Time spent decoding one document"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating decode histogram: %w", err)
	}
	return r, nil
}

// Loaded records a successful load.
func (r *Recorder) Loaded(ctx context.Context, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.loads.Add(ctx, 1)
	r.decode.Record(ctx, float64(elapsed)/float64(time.Millisecond))
}

// Failed records a rejected load with its error kind.
func (r *Recorder) Failed(ctx context.Context, kind string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	r.decode.Record(ctx, float64(elapsed)/float64(time.Millisecond))
}
