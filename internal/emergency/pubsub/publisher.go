// Package pubsub publishes dispatched ambulance requests to a Pub/Sub topic
// so that an operations console can follow them.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/carelens/carelens/internal/emergency"
)

// EventType is the type attribute of every published message.
const EventType = "ambulance.dispatched"

// Config holds configuration for the publisher.
type Config struct {
	ProjectID string
	Topic     string
	Logger    zerolog.Logger
}

// Publisher implements emergency.Notifier on top of a Pub/Sub topic.
type Publisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	topic     string
	logger    zerolog.Logger
}

// DispatchEvent is the JSON body of a published message.
type DispatchEvent struct {
	RequestID      string    `json:"request_id"`
	ClientID       string    `json:"client_id"`
	EmergencyType  string    `json:"emergency_type"`
	Lat            float64   `json:"lat"`
	Lng            float64   `json:"lng"`
	OriginFallback bool      `json:"origin_fallback"`
	ETAMinutes     *int      `json:"eta_minutes,omitempty"`
	DispatchedAt   time.Time `json:"dispatched_at"`
}

// NewPublisher creates a publisher for cfg.Topic.
func NewPublisher(ctx context.Context, cfg Config) (*Publisher, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	return &Publisher{
		client:    client,
		publisher: client.Publisher(cfg.Topic),
		topic:     cfg.Topic,
		logger:    cfg.Logger,
	}, nil
}

// Notify publishes req and waits for the server to acknowledge it.
func (p *Publisher) Notify(ctx context.Context, req emergency.Request) error {
	msg, err := NewMessage(req)
	if err != nil {
		return err
	}

	serverID, err := p.publisher.Publish(ctx, msg).Get(ctx)
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", p.topic, err)
	}

	p.logger.Debug().
		Str("message_id", serverID).
		Str("request_id", req.ID).
		Msg("dispatch event published")
	return nil
}

// Close flushes pending messages and closes the client.
func (p *Publisher) Close() error {
	p.publisher.Stop()
	return p.client.Close()
}

// NewMessage encodes a dispatched request. Patient name, phone and notes are
// left out of the event.
func NewMessage(req emergency.Request) (*pubsub.Message, error) {
	data, err := json.Marshal(DispatchEvent{
		RequestID:      req.ID,
		ClientID:       req.ClientID,
		EmergencyType:  string(req.Type),
		Lat:            req.Origin.Lat,
		Lng:            req.Origin.Lon,
		OriginFallback: req.OriginFallback,
		ETAMinutes:     req.ETAMinutes,
		DispatchedAt:   req.DispatchedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding dispatch event: %w", err)
	}

	return &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"event_type":     EventType,
			"emergency_type": string(req.Type),
		},
	}, nil
}
