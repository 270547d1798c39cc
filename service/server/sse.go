package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/brojonat/solsplash/service/metrics"
	"github.com/brojonat/solsplash/service/notify"
)

// keepaliveInterval is how often an idle stream sends a comment line.
const keepaliveInterval = 10 * time.Second

// handleStreamNotifications streams user notifications as Server-Sent Events.
// An optional ?account= query parameter limits the stream to one account;
// notifications without an account are always delivered.
func handleStreamNotifications(notifier notify.Notifier, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account := r.URL.Query().Get("account")

		// Streams outlive the server write timeout.
		if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
			logger.DebugContext(r.Context(), "could not clear write deadline", "error", err)
		}

		// Set SSE headers
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		flush := func() {
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
		}

		notifications, unsubscribe := notifier.Subscribe()
		defer unsubscribe()

		m.RecordSSEConnectionChange(1)
		defer m.RecordSSEConnectionChange(-1)

		logger.DebugContext(r.Context(), "SSE client connected",
			"account", account,
			"remote_addr", r.RemoteAddr,
		)

		// Send initial connection event
		connected, _ := json.Marshal(map[string]string{"account": account})
		fmt.Fprintf(w, "event: connected\ndata: %s\n\n", connected)
		flush()

		keepalive := time.NewTicker(keepaliveInterval)
		defer keepalive.Stop()

		for {
			select {
			case <-keepalive.C:
				// Send keepalive comment to prevent timeout
				fmt.Fprintf(w, ": keepalive\n\n")
				flush()

			case n, ok := <-notifications:
				if !ok {
					// Notifier closed
					return
				}
				if account != "" && n.Account != "" && n.Account != account {
					continue
				}

				data, err := json.Marshal(n)
				if err != nil {
					logger.WarnContext(r.Context(), "failed to marshal notification",
						"error", err,
					)
					continue
				}

				fmt.Fprintf(w, "event: notification\ndata: %s\n\n", data)
				flush()

			case <-r.Context().Done():
				// Client disconnected
				logger.DebugContext(r.Context(), "SSE client disconnected",
					"account", account,
					"remote_addr", r.RemoteAddr,
				)
				return
			}
		}
	})
}
