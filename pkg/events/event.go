package events

import "time"

// Auth event types published on events.<TYPE>.
const (
	TypeUserSignedUp  = "USER_SIGNED_UP"
	TypeUserVerified  = "USER_EMAIL_VERIFIED"
	TypeUserSignedIn  = "USER_SIGNED_IN"
	TypeUserSignedOut = "USER_SIGNED_OUT"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "USER_SIGNED_IN").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

// Payload includes the occurrence time so consumers don't need envelope
// metadata.
func (e BaseEvent) Payload() map[string]interface{} {
	data := make(map[string]interface{}, len(e.Data)+1)
	for k, v := range e.Data {
		data[k] = v
	}
	data["occurred_at"] = e.OccurredAt.Format(time.RFC3339)
	return data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewUserEvent builds an auth event for userId.
func NewUserEvent(eventType, userId string, data map[string]interface{}) BaseEvent {
	payload := map[string]interface{}{"user_id": userId}
	for k, v := range data {
		payload[k] = v
	}
	return BaseEvent{
		Type:       eventType,
		Data:       payload,
		OccurredAt: time.Now(),
	}
}
