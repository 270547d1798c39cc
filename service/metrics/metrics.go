package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the application.
// Following the explicit dependency injection pattern, this struct
// is passed to all components that need to record metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Solana RPC Metrics
	solanaRPCCallsTotal   *prometheus.CounterVec
	solanaRPCCallDuration *prometheus.HistogramVec

	// Faucet action Metrics
	airdropsTotal          *prometheus.CounterVec
	airdropLamportsTotal   prometheus.Counter
	transfersTotal         *prometheus.CounterVec
	historyRefreshesTotal  *prometheus.CounterVec
	historyLookupsTotal    *prometheus.CounterVec
	historyRefreshDuration prometheus.Histogram
	messagesSignedTotal    *prometheus.CounterVec
	walletConnectionsTotal *prometheus.CounterVec
	walletConnected        prometheus.Gauge
	notificationsPublished *prometheus.CounterVec

	// HTTP Metrics
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsTotal    *prometheus.CounterVec
	sseActiveConnections prometheus.Gauge
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		// Solana RPC Metrics
		solanaRPCCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solana_rpc_calls_total",
				Help: "Total number of Solana RPC calls by method and status",
			},
			[]string{"method", "status", "endpoint"},
		),
		solanaRPCCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "solana_rpc_call_duration_seconds",
				Help:    "Duration of Solana RPC calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method", "endpoint"},
		),

		// Faucet action Metrics
		airdropsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "airdrops_total",
				Help: "Total number of airdrop requests by status",
			},
			[]string{"status"},
		),
		airdropLamportsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "airdrop_lamports_total",
				Help: "Total lamports requested through successful airdrops",
			},
		),
		transfersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transfers_total",
				Help: "Total number of transfer submissions by status",
			},
			[]string{"status"},
		),
		historyRefreshesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "history_refreshes_total",
				Help: "Total number of history refresh attempts by outcome",
			},
			[]string{"outcome"},
		),
		historyLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "history_lookups_total",
				Help: "Total number of per-transaction history lookups by outcome",
			},
			[]string{"outcome"},
		),
		historyRefreshDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "history_refresh_duration_seconds",
				Help:    "Duration of a full history refresh in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30},
			},
		),
		messagesSignedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "messages_signed_total",
				Help: "Total number of message signing requests by status",
			},
			[]string{"status"},
		),
		walletConnectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_connections_total",
				Help: "Total number of wallet connect and disconnect events",
			},
			[]string{"wallet", "event"},
		),
		walletConnected: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "wallet_connected",
				Help: "1 when the session wallet is connected, 0 otherwise",
			},
		),
		notificationsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notifications_published_total",
				Help: "Total number of user notifications published by kind",
			},
			[]string{"kind"},
		),

		// HTTP Metrics
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"handler", "method", "status"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"handler", "method", "status"},
		),
		sseActiveConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sse_active_connections",
				Help: "Number of active SSE notification streams",
			},
		),
	}
}

// Solana RPC metric helpers

// RecordRPCCall records a Solana RPC call with duration.
func (m *Metrics) RecordRPCCall(method, status, endpoint string, duration float64) {
	if m == nil {
		return
	}
	m.solanaRPCCallsTotal.WithLabelValues(method, status, endpoint).Inc()
	m.solanaRPCCallDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// Faucet action metric helpers

// RecordAirdrop records an airdrop request outcome.
func (m *Metrics) RecordAirdrop(status string, lamports uint64) {
	if m == nil {
		return
	}
	m.airdropsTotal.WithLabelValues(status).Inc()
	if status == "success" {
		m.airdropLamportsTotal.Add(float64(lamports))
	}
}

// RecordTransfer records a transfer submission outcome.
func (m *Metrics) RecordTransfer(status string) {
	if m == nil {
		return
	}
	m.transfersTotal.WithLabelValues(status).Inc()
}

// RecordHistoryRefresh records a history refresh attempt.
// Outcome is one of "success", "error" or "cooldown".
func (m *Metrics) RecordHistoryRefresh(outcome string, duration float64) {
	if m == nil {
		return
	}
	m.historyRefreshesTotal.WithLabelValues(outcome).Inc()
	if outcome != "cooldown" {
		m.historyRefreshDuration.Observe(duration)
	}
}

// RecordHistoryLookup records a single transaction lookup during a refresh.
func (m *Metrics) RecordHistoryLookup(outcome string) {
	if m == nil {
		return
	}
	m.historyLookupsTotal.WithLabelValues(outcome).Inc()
}

// RecordMessageSigned records a message signing request.
func (m *Metrics) RecordMessageSigned(status string) {
	if m == nil {
		return
	}
	m.messagesSignedTotal.WithLabelValues(status).Inc()
}

// RecordWalletEvent records a wallet connect or disconnect.
func (m *Metrics) RecordWalletEvent(wallet, event string) {
	if m == nil {
		return
	}
	m.walletConnectionsTotal.WithLabelValues(wallet, event).Inc()
	switch event {
	case "connect":
		m.walletConnected.Set(1)
	case "disconnect":
		m.walletConnected.Set(0)
	}
}

// RecordNotification records a published user notification.
func (m *Metrics) RecordNotification(kind string) {
	if m == nil {
		return
	}
	m.notificationsPublished.WithLabelValues(kind).Inc()
}

// HTTP metric helpers

// RecordHTTPRequest records an HTTP request with duration.
func (m *Metrics) RecordHTTPRequest(handler, method string, statusCode int, duration float64) {
	if m == nil {
		return
	}
	status := statusCodeToString(statusCode)
	m.httpRequestDuration.WithLabelValues(handler, method, status).Observe(duration)
	m.httpRequestsTotal.WithLabelValues(handler, method, status).Inc()
}

// RecordSSEConnectionChange records a change in SSE connection count.
func (m *Metrics) RecordSSEConnectionChange(delta float64) {
	if m == nil {
		return
	}
	m.sseActiveConnections.Add(delta)
}

// Helper functions

func statusCodeToString(code int) string {
	// Group status codes by class
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	default:
		return "unknown"
	}
}
