package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"property-service/internal/config"
)

// Event types
const (
	EventUserRegistered      = "user.registered"
	EventUserCreated         = "user.created"
	EventUserVerified        = "user.verified"
	EventFranchiseCreated    = "franchise.created"
	EventPropertyCreated     = "property.created"
	EventPropertyUpdated     = "property.updated"
	EventPropertyDeleted     = "property.deleted"
	EventLeadCreated         = "lead.created"
	EventBookingOrderCreated = "booking.order_created"
	EventBookingCompleted    = "booking.completed"
)

const subjectPrefix = "property.events."

// Event is the envelope every marketplace event is published in.
type Event struct {
	EventType string                 `json:"event_type"`
	EntityID  string                 `json:"entity_id"`
	ActorID   string                 `json:"actor_id,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Subject is the NATS subject the event is published on.
func (e *Event) Subject() string {
	return subjectPrefix + e.EventType
}

type Publisher interface {
	Publish(ctx context.Context, event *Event) error
}

// NoopPublisher drops every event. Used when NATS is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *Event) error { return nil }

// NATSPublisher publishes events to a JetStream stream.
type NATSPublisher struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	logger *logrus.Entry
}

func NewNATSPublisher(cfg config.NATSConfig, logger *logrus.Logger) (*NATSPublisher, error) {
	entry := logger.WithField("component", "events")
	entry.WithField("url", cfg.URL).Info("Connecting to NATS")

	opts := []nats.Option{
		nats.Name("property-service"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			entry.WithError(err).Warn("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			entry.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			entry.Info("NATS connection closed")
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:      cfg.Stream,
		Subjects:  []string{subjectPrefix + ">"},
		Storage:   nats.FileStorage,
		Retention: nats.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Discard:   nats.DiscardOld,
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		entry.WithError(err).Warn("Could not create stream (may already exist)")
	}

	return &NATSPublisher{conn: conn, js: js, logger: entry}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, event *Event) error {
	if p == nil || p.js == nil {
		return errors.New("NATS publisher not initialized")
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ack, err := p.js.Publish(event.Subject(), data, nats.Context(ctx))
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.EventType, err)
	}

	p.logger.WithFields(logrus.Fields{
		"event_type": event.EventType,
		"entity_id":  event.EntityID,
		"seq":        ack.Sequence,
	}).Debug("Published event")
	return nil
}

func (p *NATSPublisher) Close() {
	if p != nil && p.conn != nil {
		p.conn.Close()
	}
}
