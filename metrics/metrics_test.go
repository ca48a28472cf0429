package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestNew_NoopMeter(t *testing.T) {
	r, err := New(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	require.NotNil(t, r)

	assert.NotPanics(t, func() {
		r.Loaded(context.Background(), 3*time.Millisecond)
		r.Failed(context.Background(), "malformed", time.Millisecond)
	})
}

func TestNew_GlobalMeter(t *testing.T) {
	r, err := New(nil)
	require.NoError(t, err)
	assert.NotNil(t, r)
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.Loaded(context.Background(), time.Second)
		r.Failed(context.Background(), "invalid_path_index", time.Second)
	})
}
