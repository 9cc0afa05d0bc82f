package sessiongate

import (
	"context"
	"net/http"
	"time"

	"github.com/MrEthical07/sessiongate/envelope"
	"github.com/MrEthical07/sessiongate/internal/audit"
	"github.com/MrEthical07/sessiongate/internal/metrics"
	"github.com/MrEthical07/sessiongate/origin"
)

// Gate is the configured session authority. It holds no per-request state:
// all request work happens on the [Handler] returned by [Gate.Context].
// Safe for concurrent use after [Builder.Build].
type Gate struct {
	config  Config
	codec   *envelope.Codec
	origins *origin.Validator
	store   Store
	audit   *audit.Dispatcher
	metrics *metrics.Metrics
}

// Context binds the gate to one request/response pair. The returned handler
// is single-use and not safe for concurrent use; create one per request.
//
//	Performance: allocation-only, no I/O.
func (g *Gate) Context(w http.ResponseWriter, r *http.Request) *Handler {
	return &Handler{
		gate:   g,
		w:      w,
		r:      r,
		device: deviceFromRequest(r),
		ip:     clientIPFromRequest(r),
	}
}

// Close stops the audit dispatcher after draining buffered events.
func (g *Gate) Close() {
	g.audit.Close()
}

// MetricsSnapshot deep-copies the gate's in-process counters.
func (g *Gate) MetricsSnapshot() MetricsSnapshot {
	return g.metrics.Snapshot()
}

// Metric returns the current value of one counter.
func (g *Gate) Metric(id MetricID) uint64 {
	return g.metrics.Get(id)
}

// AuditDropped reports how many audit events were dropped due to a full
// buffer.
func (g *Gate) AuditDropped() uint64 {
	return g.audit.Dropped()
}

func (g *Gate) emit(ctx context.Context, event AuditEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	g.audit.Emit(ctx, event)
}
