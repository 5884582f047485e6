package model

import "encoding/json"

// Channel names used by the team stream
const (
	ChannelStatus   = "status"
	ChannelActivity = "activity"
)

// UnknownEventType is reported when an activity message carries no type
const UnknownEventType = "unknown"

// Event is the body of POST /teams/{team}/event
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// StatusResponse is returned by GET /teams/{team}/status
type StatusResponse struct {
	Team   string `json:"team,omitempty"`
	Status string `json:"status"`
}

// HistoryResponse is returned by GET /history
type HistoryResponse struct {
	History []ActivityRecord `json:"history"`
}

// ActivityResponse is returned by GET /activity
type ActivityResponse struct {
	Activity []json.RawMessage `json:"activity"`
}

// ActivityRecord is one entry of the activity log. Result is opaque JSON.
type ActivityRecord struct {
	ID        int64           `json:"id"`
	Team      string          `json:"team"`
	EventType string          `json:"event_type"`
	Result    json.RawMessage `json:"result,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`

	// Seq orders records created by this process; zero for records loaded
	// from a history snapshot.
	Seq uint64 `json:"-"`
}

// StreamMessage is a frame received from the team stream
type StreamMessage struct {
	Channel string
	Data    string
}

// ActivityPayload is the JSON carried on the activity channel
type ActivityPayload struct {
	Event *struct {
		Type string `json:"type"`
	} `json:"event"`
	Result json.RawMessage `json:"result"`
}

// StreamEnvelope is what the server publishes on a team stream: the
// channel name doubles as the "type" field.
type StreamEnvelope struct {
	Type   string          `json:"type"`
	Status string          `json:"status,omitempty"`
	Event  *Event          `json:"event,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}
