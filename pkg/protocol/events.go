// Package protocol defines the event wire format pushed to UI clients over
// the WebSocket feed. It is importable by external clients.
package protocol

// Event names pushed from server to client.
const (
	EventStateChanged = "state.changed"
	EventTurnUser     = "turn.user"
	EventTurnReply    = "turn.reply"
	EventTurnError    = "turn.error"
	EventMoodLogged   = "mood.logged"
	EventShutdown     = "shutdown"
)

// EventFrame is pushed from server to client.
type EventFrame struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
	Seq     int64       `json:"seq,omitempty"`
}

// StatePayload accompanies EventStateChanged.
type StatePayload struct {
	State  string `json:"state"`
	Status string `json:"status"` // user-facing status line
}

// TurnPayload accompanies EventTurnUser and EventTurnReply.
type TurnPayload struct {
	TurnID  string `json:"turnId"`
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// TurnErrorPayload accompanies EventTurnError.
type TurnErrorPayload struct {
	TurnID  string `json:"turnId,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"` // user-facing, safe to display
}

// MoodPayload accompanies EventMoodLogged.
type MoodPayload struct {
	Level  int    `json:"level"`
	Label  string `json:"label"`
	Streak int    `json:"streak"`
}
