package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_Subject(t *testing.T) {
	e := &Event{EventType: EventBookingCompleted}
	assert.Equal(t, "property.events.booking.completed", e.Subject())
}

func TestEvent_JSONShape(t *testing.T) {
	e := &Event{
		EventType: EventLeadCreated,
		EntityID:  "lead-1",
		ActorID:   "customer-1",
		Data:      map[string]interface{}{"type": "site_visit"},
		Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	raw, err := json.Marshal(e)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "lead.created", decoded["event_type"])
	assert.Equal(t, "lead-1", decoded["entity_id"])
	assert.Equal(t, "2024-01-02T03:04:05Z", decoded["timestamp"])
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), &Event{EventType: EventUserVerified}))
}

func TestNATSPublisher_NilIsError(t *testing.T) {
	var p *NATSPublisher
	assert.Error(t, p.Publish(context.Background(), &Event{EventType: EventUserVerified}))
}
