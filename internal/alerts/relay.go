// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

//go:build nats

package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/skywarden/internal/config"
	"github.com/tomtom215/skywarden/internal/logging"
	"github.com/tomtom215/skywarden/internal/metrics"
)

// AlertRelay consumes alerts from the JetStream alert stream and hands
// them to a local sink. Viewer nodes run the relay instead of the vision
// pipeline so their dashboards follow alerts raised by other instances.
type AlertRelay struct {
	topic      string
	subscriber message.Subscriber
	sink       func(*Alert)
}

// NewAlertRelay connects a durable JetStream consumer to the alert
// stream at cfg.URL. The sink receives each relayed alert and must not
// block; relays always attach to an external broker, never the embedded
// server, since a same-process broker would only carry local alerts the
// hub already sees.
func NewAlertRelay(cfg *config.NATSConfig, sink func(*Alert)) (*AlertRelay, error) {
	if sink == nil {
		return nil, fmt.Errorf("alert relay requires a sink")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := ensureAlertStream(ctx, cfg.URL, cfg.Topic); err != nil {
		return nil, err
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logging.Warn().Err(err).Msg("NATS relay disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logging.Info().Str("url", nc.ConnectedUrl()).Msg("NATS relay reconnected")
		}),
	}

	subOpts := []natsgo.SubOpt{
		natsgo.BindStream(alertStreamName),
		natsgo.DeliverNew(),
		natsgo.MaxAckPending(256),
		natsgo.AckWait(30 * time.Second),
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:            cfg.URL,
		AckWaitTimeout: 30 * time.Second,
		CloseTimeout:   10 * time.Second,
		NatsOptions:    natsOpts,
		Unmarshaler:    &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:         false,
			AutoProvision:    false, // stream provisioned by ensureAlertStream
			SubscribeOptions: subOpts,
			DurablePrefix:    "skywarden-relay",
		},
	}, watermill.NewStdLogger(false, false))
	if err != nil {
		return nil, fmt.Errorf("create watermill subscriber: %w", err)
	}

	logging.Info().
		Str("url", cfg.URL).
		Str("topic", cfg.Topic).
		Msg("NATS alert relay ready")

	return &AlertRelay{
		topic:      cfg.Topic,
		subscriber: sub,
		sink:       sink,
	}, nil
}

// Run consumes alerts until the context is canceled. Returns ctx.Err()
// on shutdown so a supervised relay restarts only on real failures.
func (r *AlertRelay) Run(ctx context.Context) error {
	messages, err := r.subscriber.Subscribe(ctx, r.topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", r.topic, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			r.handle(msg)
		}
	}
}

// handle decodes one relayed alert. Malformed payloads are acked and
// dropped so a poison message cannot wedge the consumer on redelivery.
func (r *AlertRelay) handle(msg *message.Message) {
	var alert Alert
	if err := json.Unmarshal(msg.Payload, &alert); err != nil {
		logging.Warn().
			Err(err).
			Str("message_uuid", msg.UUID).
			Msg("Dropping malformed relayed alert")
		msg.Ack()
		return
	}
	if alert.ID == "" {
		logging.Warn().
			Str("message_uuid", msg.UUID).
			Msg("Dropping relayed alert without an ID")
		msg.Ack()
		return
	}

	r.sink(&alert)
	metrics.RecordNATSRelayed()
	msg.Ack()
}

// Close shuts down the subscriber.
func (r *AlertRelay) Close() error {
	return r.subscriber.Close()
}
