package reactor

import (
	"github.com/VictoriaMetrics/metrics"
	"sync/atomic"
)

// Metrics holds the counters a reactor updates while dispatching events.
// Counters are safe to read from other goroutines (e.g. a metrics endpoint).
type Metrics struct {
	Accepted      *metrics.Counter
	AcceptErrors  *metrics.Counter
	Closed        *metrics.Counter
	FramesDecoded *metrics.Counter
	InvalidFrames *metrics.Counter
	BytesRead     *metrics.Counter
	BytesWritten  *metrics.Counter
	ShortWrites   *metrics.Counter

	active atomic.Int64
}

// NewMetrics registers the reactor metrics in set
func NewMetrics(set *metrics.Set) *Metrics {
	m := &Metrics{
		Accepted:      set.NewCounter("rkv_reactor_connections_accepted_total"),
		AcceptErrors:  set.NewCounter("rkv_reactor_accept_errors_total"),
		Closed:        set.NewCounter("rkv_reactor_connections_closed_total"),
		FramesDecoded: set.NewCounter("rkv_reactor_frames_decoded_total"),
		InvalidFrames: set.NewCounter("rkv_reactor_frames_invalid_total"),
		BytesRead:     set.NewCounter("rkv_reactor_read_bytes_total"),
		BytesWritten:  set.NewCounter("rkv_reactor_written_bytes_total"),
		ShortWrites:   set.NewCounter("rkv_reactor_short_writes_total"),
	}
	set.NewGauge("rkv_reactor_connections_active", func() float64 {
		return float64(m.active.Load())
	})
	return m
}

// Active returns the number of registered connections
func (m *Metrics) Active() int64 {
	return m.active.Load()
}
