package domain

import "strings"

// Roles used by the voice platform's transcript entries.
const (
	RoleUser  = "user"
	RoleAgent = "agent"
)

// Turn is a single utterance in a call transcript.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// IsCaller reports whether the turn was spoken by the caller.
func (t Turn) IsCaller() bool {
	return strings.EqualFold(strings.TrimSpace(t.Role), RoleUser)
}

// CallerTurns returns the caller's turns among the first limit turns of the
// transcript. A limit <= 0 means no limit.
func CallerTurns(turns []Turn, limit int) []Turn {
	if limit > 0 && len(turns) > limit {
		turns = turns[:limit]
	}
	out := make([]Turn, 0, len(turns))
	for _, t := range turns {
		if t.IsCaller() {
			out = append(out, t)
		}
	}
	return out
}
