package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Lead statuses and sources written by this service.
const (
	StatusNew          = "new"
	SourceVoiceCall    = "voice_call"
	SourceAgentCapture = "agent_capture"
)

// Lead is a CRM lead record keyed by phone.
type Lead struct {
	ID              uuid.UUID
	FirstName       string
	LastName        string
	Phone           string
	City            string
	PrimaryInterest string
	Status          string
	Source          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// FullName joins first and last name.
func (l Lead) FullName() string {
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}

// SplitName splits "Guy Hanson" into ("Guy", "Hanson"); everything after the
// first word is the last name.
func SplitName(full string) (first, last string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
