package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"supervisor/internal/logging"
)

var (
	FramesRead = promauto.NewCounter(prometheus.CounterOpts{
		Name: "supervisor_executor_frames_read_total",
		Help: "Frames decoded from the executor connection.",
	})
	FramesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "supervisor_executor_frames_written_total",
		Help: "Frames written to the executor connection.",
	})
	DecodeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "supervisor_decode_errors_total",
		Help: "Malformed JSON payloads dropped.",
	})
	BridgeReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "supervisor_bridge_reconnects_total",
		Help: "Bridge WebSocket reconnect attempts.",
	})
	BridgeDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "supervisor_bridge_dropped_total",
		Help: "Outbound bridge messages dropped on queue overflow.",
	})
	EventsDispatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "supervisor_events_dispatched_total",
		Help: "Events routed to a registered workflow handler.",
	})
	UnknownDispatch = promauto.NewCounter(prometheus.CounterOpts{
		Name: "supervisor_unknown_dispatch_total",
		Help: "Events with no registered (command, action) handler.",
	})
	PendingDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "supervisor_pending_depth",
		Help: "Approval requests currently queued.",
	})
)

// Serve exposes /metrics on addr. It returns immediately; failures are logged
// because metrics are best-effort.
func Serve(addr string, logger logging.Logger) {
	logger = logging.OrNop(logger)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics listener on %s exited: %v", addr, err)
		}
	}()
}
