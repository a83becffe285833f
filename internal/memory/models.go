package memory

import (
	"fmt"
	"strings"
)

// MaxMessagesPerRequest is the service's cap on messages per append call.
const MaxMessagesPerRequest = 30

// Message roles accepted by the memory service.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Metadata keys stored on a caller's memory user.
const (
	MetaLocation        = "location"
	MetaCounty          = "county"
	MetaTerritory       = "territory"
	MetaSpecialist      = "specialist"
	MetaSpecialistEmail = "specialist_email"
	MetaLastInterest    = "last_interest"
	MetaPhone           = "phone"
	MetaLastCallID      = "last_call_id"
	MetaTown            = "town"
)

// User is a caller's record in the memory service.
type User struct {
	UserID    string         `json:"user_id"`
	FirstName string         `json:"first_name,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Meta returns a metadata value rendered as a trimmed string.
func (u *User) Meta(key string) string {
	if u == nil || u.Metadata == nil {
		return ""
	}
	switch v := u.Metadata[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// UserPatch is a partial update; nil or empty fields are left untouched.
type UserPatch struct {
	FirstName *string        `json:"first_name,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Message is one transcript entry appended to a thread.
type Message struct {
	Role     string         `json:"role"`
	Content  string         `json:"content"`
	Name     string         `json:"name,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ThreadID is the thread a call's transcript is stored under.
func ThreadID(callID string) string {
	return "call_" + callID
}

type createThreadRequest struct {
	ThreadID string `json:"thread_id"`
	UserID   string `json:"user_id"`
}

type addMessagesRequest struct {
	Messages []Message `json:"messages"`
}
