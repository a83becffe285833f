package models

import (
	"strconv"
	"strings"

	"github.com/GuyfromMontana/MFC-single-agent/pkg/domain"
)

// Profile sources, recorded in CallerProfile.Sources in the order consulted.
const (
	SourceKnownContacts = "known_contacts"
	SourceMemory        = "memory"
	SourceLeads         = "leads"
)

// Call-time variable keys handed to the voice agent.
const (
	VarName                = "name"
	VarIsReturning         = "is_returning"
	VarConversationHistory = "conversation_history"
	VarLocation            = "location"
	VarSpecialist          = "specialist"
)

// CallerProfile is what the agent knows about a caller at call start. It is
// built fresh for every call and never cached. Empty strings mean unknown.
type CallerProfile struct {
	PhoneKey             domain.PhoneKey `json:"phone_key"`
	CallerName           string          `json:"caller_name"`
	IsReturningCaller    bool            `json:"is_returning_caller"`
	IsKnownContact       bool            `json:"is_known_contact"`
	LastLocation         string          `json:"last_location"`
	LastTerritory        string          `json:"last_territory"`
	AssignedContact      string          `json:"assigned_contact"`
	AssignedContactEmail string          `json:"assigned_contact_email"`
	LastInterest         string          `json:"last_interest"`
	CompanyName          string          `json:"company_name,omitempty"`
	LifetimeValue        float64         `json:"lifetime_value,omitempty"`
	Summary              string          `json:"summary"`
	GreetingHint         string          `json:"greeting_hint"`
	Sources              []string        `json:"sources"`
}

// Unknown is the profile of a caller nobody has seen.
func Unknown(phone domain.PhoneKey) *CallerProfile {
	return &CallerProfile{PhoneKey: phone, Sources: []string{}}
}

// ConversationHistory renders remembered facts as one line for the agent
// prompt, e.g. "Location: Ravalli County | Specialist: Isabell Gilleard".
func (p *CallerProfile) ConversationHistory() string {
	var parts []string
	add := func(label, v string) {
		if v != "" {
			parts = append(parts, label+": "+v)
		}
	}
	add("Location", p.LastLocation)
	add("Territory", p.LastTerritory)
	add("Specialist", p.AssignedContact)
	add("Last interest", p.LastInterest)
	return strings.Join(parts, " | ")
}

// Variables flattens the profile into the string-only map the voice agent
// interpolates. Every key is always present.
func (p *CallerProfile) Variables() map[string]string {
	return map[string]string{
		VarName:                p.CallerName,
		VarIsReturning:         strconv.FormatBool(p.IsReturningCaller),
		VarConversationHistory: p.ConversationHistory(),
		VarLocation:            p.LastLocation,
		VarSpecialist:          p.AssignedContact,
	}
}
