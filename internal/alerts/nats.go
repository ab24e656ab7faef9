// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

//go:build nats

package alerts

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/nats-io/nats-server/v2/server"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/skywarden/internal/config"
	"github.com/tomtom215/skywarden/internal/logging"
	"github.com/tomtom215/skywarden/internal/metrics"
)

const (
	alertStreamName = "SKYWARDEN_ALERTS"

	// streamMaxAge bounds how long undelivered alert messages sit in the
	// stream before JetStream expires them.
	streamMaxAge = 24 * time.Hour

	// dedupWindow is the JetStream duplicate-tracking window. Journal
	// replays of an alert that was published but never marked delivered
	// land inside this window and are dropped server-side.
	dedupWindow = 2 * time.Minute
)

// EmbeddedServer wraps an in-process NATS JetStream server so
// single-instance deployments need no external broker.
type EmbeddedServer struct {
	server    *server.Server
	clientURL string
}

// NewEmbeddedServer creates and starts an embedded NATS server listening
// on the host and port from the configured URL.
func NewEmbeddedServer(cfg *config.NATSConfig) (*EmbeddedServer, error) {
	host, port := serverAddr(cfg.URL)
	opts := &server.Options{
		ServerName:         "skywarden-alerts",
		Host:               host,
		Port:               port,
		JetStream:          true,
		StoreDir:           cfg.StoreDir,
		JetStreamMaxMemory: cfg.MaxMemory,
		JetStreamMaxStore:  cfg.MaxStore,
		Debug:              false,
		Trace:              false,
		NoLog:              false,
		MaxPayload:         1 << 20, // alerts are small
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create NATS server: %w", err)
	}
	ns.ConfigureLogger()

	go ns.Start()
	if !ns.ReadyForConnections(30 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("NATS server not ready within timeout")
	}

	return &EmbeddedServer{
		server:    ns,
		clientURL: ns.ClientURL(),
	}, nil
}

// serverAddr extracts host and port from a NATS URL, with defaults for
// anything missing or unparsable.
func serverAddr(rawURL string) (string, int) {
	host, port := "127.0.0.1", 4222
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return host, port
	}
	h, p, err := net.SplitHostPort(u.Host)
	if err != nil {
		return u.Host, port
	}
	if h != "" {
		host = h
	}
	if n, err := strconv.Atoi(p); err == nil {
		port = n
	}
	return host, port
}

// ClientURL returns the connection URL for clients.
func (s *EmbeddedServer) ClientURL() string {
	return s.clientURL
}

// Shutdown stops the server and waits for it to finish, or for ctx.
func (s *EmbeddedServer) Shutdown(ctx context.Context) error {
	s.server.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.WaitForShutdown()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ensureAlertStream provisions the alert stream before the publisher
// starts. Idempotent: an existing stream is updated to the current
// configuration.
func ensureAlertStream(ctx context.Context, natsURL, topic string) error {
	nc, err := natsgo.Connect(natsURL)
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}

	streamCfg := jetstream.StreamConfig{
		Name:        alertStreamName,
		Subjects:    []string{topic},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      streamMaxAge,
		Duplicates:  dedupWindow,
		Storage:     jetstream.FileStorage,
		AllowDirect: true,
		Discard:     jetstream.DiscardOld,
	}

	_, err = js.Stream(ctx, alertStreamName)
	if err == nil {
		if _, err := js.UpdateStream(ctx, streamCfg); err != nil {
			return fmt.Errorf("update stream %s: %w", alertStreamName, err)
		}
		return nil
	}
	if errors.Is(err, jetstream.ErrStreamNotFound) {
		if _, err := js.CreateStream(ctx, streamCfg); err != nil {
			return fmt.Errorf("create stream %s: %w", alertStreamName, err)
		}
		return nil
	}
	return fmt.Errorf("check stream %s: %w", alertStreamName, err)
}

// NATSNotifier publishes alerts to a JetStream stream through Watermill,
// with circuit breaker protection against a flapping broker.
type NATSNotifier struct {
	topic     string
	publisher message.Publisher
	breaker   *gobreaker.CircuitBreaker[any]
	embedded  *EmbeddedServer
}

// NewNATSNotifier connects the alert publisher, optionally starting an
// embedded server first, and provisions the alert stream.
func NewNATSNotifier(cfg *config.NATSConfig) (*NATSNotifier, error) {
	natsURL := cfg.URL
	var embedded *EmbeddedServer
	if cfg.EmbeddedServer {
		var err error
		if embedded, err = NewEmbeddedServer(cfg); err != nil {
			return nil, err
		}
		natsURL = embedded.ClientURL()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := ensureAlertStream(ctx, natsURL, cfg.Topic); err != nil {
		shutdownEmbedded(embedded)
		return nil, err
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logging.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logging.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         natsURL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false, // stream provisioned by ensureAlertStream
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, watermill.NewStdLogger(false, false))
	if err != nil {
		shutdownEmbedded(embedded)
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:    "nats-alerts",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	logging.Info().
		Str("url", natsURL).
		Str("topic", cfg.Topic).
		Bool("embedded", embedded != nil).
		Msg("NATS alert publisher ready")

	return &NATSNotifier{
		topic:     cfg.Topic,
		publisher: pub,
		breaker:   breaker,
		embedded:  embedded,
	}, nil
}

func shutdownEmbedded(embedded *EmbeddedServer) {
	if embedded == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := embedded.Shutdown(ctx); err != nil {
		logging.Warn().Err(err).Msg("Embedded NATS shutdown did not finish")
	}
}

// Name returns the notifier name.
func (n *NATSNotifier) Name() string {
	return "nats"
}

// Enabled returns true; the notifier only exists when NATS is configured.
func (n *NATSNotifier) Enabled() bool {
	return true
}

// Send publishes the alert. The alert ID doubles as the Nats-Msg-Id, so
// a journal replay of an already-published alert is deduplicated by the
// server within the duplicate window.
func (n *NATSNotifier) Send(ctx context.Context, alert *Alert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	msg := message.NewMessage(alert.ID, data)
	msg.Metadata.Set(natsgo.MsgIdHdr, alert.ID)
	msg.Metadata.Set("threat_level", alert.Level.String())
	msg.Metadata.Set("source", alert.Source)

	_, err = n.breaker.Execute(func() (any, error) {
		return nil, n.publisher.Publish(n.topic, msg)
	})
	if err != nil {
		metrics.RecordNATSPublishError()
		return fmt.Errorf("publish alert: %w", err)
	}
	metrics.RecordNATSPublish()
	return nil
}

// Close shuts down the publisher and any embedded server.
func (n *NATSNotifier) Close() error {
	err := n.publisher.Close()
	if n.embedded != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if serr := n.embedded.Shutdown(ctx); serr != nil && err == nil {
			err = serr
		}
	}
	return err
}
