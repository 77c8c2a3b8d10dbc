package badge

import (
	"encoding/json"
	"strconv"
)

const TypeUpdateBadge = "UPDATE_BADGE"

// Message asks the badge renderer to show Count. A nil Count clears the badge.
type Message struct {
	Type  string `json:"type"`
	Count *int   `json:"count,omitempty"`
}

func Update(count int) Message {
	return Message{Type: TypeUpdateBadge, Count: &count}
}

func Clear() Message {
	return Message{Type: TypeUpdateBadge}
}

// Text is the badge label for count: the number when positive, empty otherwise.
func Text(count *int) string {
	if count == nil || *count <= 0 {
		return ""
	}
	return strconv.Itoa(*count)
}

// Sender delivers badge messages on a best-effort basis. Send reports whether the
// message was handed to a live renderer; callers are expected to ignore a false result.
type Sender interface {
	Send(Message) bool
}

type NopSender struct{}

func (NopSender) Send(Message) bool { return false }

// DecodeEnabled parses a stored badgeEnabled value. Missing or unreadable values mean enabled.
func DecodeEnabled(raw []byte) bool {
	if len(raw) == 0 {
		return true
	}
	var enabled bool
	if err := json.Unmarshal(raw, &enabled); err != nil {
		return true
	}
	return enabled
}

func EncodeEnabled(enabled bool) []byte {
	if enabled {
		return []byte("true")
	}
	return []byte("false")
}
