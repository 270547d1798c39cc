// Package nats distributes user notifications over NATS so that every server
// instance can stream them, regardless of which instance handled the action.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/brojonat/solsplash/service/metrics"
	"github.com/brojonat/solsplash/service/notify"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	// StreamName is the name of the JetStream stream for notifications.
	StreamName = "NOTIFICATIONS"

	// SubjectPrefix prefixes the account token of every notification subject.
	SubjectPrefix = "notifications"

	// StreamSubjects is the subject pattern for the stream.
	StreamSubjects = SubjectPrefix + ".*"

	// StreamRetention is how long notifications are retained. They are transient toasts.
	StreamRetention = time.Hour

	// anonymousAccount is the subject token for notifications raised without a connected wallet.
	anonymousAccount = "anonymous"
)

// Notifier is a notify.Notifier backed by NATS. Published notifications go to
// JetStream on "notifications.{account}"; a core subscription on the same subjects
// feeds a local hub that SSE streams subscribe to.
type Notifier struct {
	nc      *nats.Conn
	js      jetstream.JetStream
	sub     *nats.Subscription
	hub     *notify.Hub
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewNotifier connects to NATS, ensures the stream exists and starts relaying
// notifications into the local hub.
func NewNotifier(natsURL string, logger *slog.Logger, m *metrics.Metrics) (*Notifier, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("solsplash-notifier"),
		nats.Timeout(10*time.Second),
		nats.ReconnectWait(1*time.Second),
		nats.MaxReconnects(-1), // Unlimited reconnects
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	n := &Notifier{
		nc:      nc,
		js:      js,
		hub:     notify.NewHub(logger, nil),
		logger:  logger,
		metrics: m,
	}

	if err := n.ensureStream(); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream exists: %w", err)
	}

	sub, err := nc.Subscribe(StreamSubjects, n.relay)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to subscribe to notifications: %w", err)
	}
	n.sub = sub

	logger.Info("NATS notifier initialized",
		"url", natsURL,
		"stream", StreamName,
	)

	return n, nil
}

// ensureStream creates the JetStream stream if it doesn't exist.
func (n *Notifier) ensureStream() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := n.js.Stream(ctx, StreamName); err == nil {
		n.logger.Debug("JetStream stream already exists", "stream", StreamName)
		return nil
	}

	n.logger.Info("creating JetStream stream", "stream", StreamName)

	_, err := n.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Description: "User notifications from faucet actions",
		Subjects:    []string{StreamSubjects},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      StreamRetention,
		Storage:     jetstream.MemoryStorage,
		Replicas:    1,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// Publish sends the notification to NATS. Local subscribers receive it through the relay.
func (n *Notifier) Publish(ctx context.Context, notification *notify.Notification) error {
	data, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	subject := SubjectFor(notification.Account)
	if _, err := n.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	n.metrics.RecordNotification(notification.Kind)

	n.logger.DebugContext(ctx, "published notification",
		"subject", subject,
		"id", notification.ID,
		"kind", notification.Kind,
	)
	return nil
}

func (n *Notifier) relay(msg *nats.Msg) {
	notification, err := decode(msg.Data)
	if err != nil {
		n.logger.Warn("failed to unmarshal notification",
			"subject", msg.Subject,
			"error", err,
		)
		return
	}
	_ = n.hub.Publish(context.Background(), notification)
}

func (n *Notifier) Subscribe() (<-chan *notify.Notification, func()) {
	return n.hub.Subscribe()
}

// Close closes the connection to NATS and ends all subscriptions.
func (n *Notifier) Close() error {
	if n.sub != nil {
		_ = n.sub.Unsubscribe()
	}
	if n.nc != nil {
		n.nc.Close()
		n.logger.Info("NATS notifier closed")
	}
	return n.hub.Close()
}

// SubjectFor returns the subject notifications for account are published on.
func SubjectFor(account string) string {
	account = strings.TrimSpace(account)
	if account == "" {
		account = anonymousAccount
	}
	return SubjectPrefix + "." + account
}

func decode(data []byte) (*notify.Notification, error) {
	var notification notify.Notification
	if err := json.Unmarshal(data, &notification); err != nil {
		return nil, err
	}
	return &notification, nil
}
