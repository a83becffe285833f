package handler

import (
	"github.com/GuyfromMontana/MFC-single-agent/internal/caller/models"
)

// CallStartedResponse carries the call-time variables. Every value is a
// string; unknowns are empty strings.
type CallStartedResponse struct {
	ResponseID       int               `json:"response_id"`
	DynamicVariables map[string]string `json:"dynamic_variables"`
}

// CallEndedResponse reports what the call-end pipeline did.
type CallEndedResponse struct {
	Status        string `json:"status"`
	MemorySaved   int    `json:"memory_saved"`
	ExtractedName string `json:"extracted_name"`
	Territory     string `json:"territory"`
}

// StatusResponse acknowledges an event.
type StatusResponse struct {
	Status string `json:"status"`
	Event  string `json:"event,omitempty"`
}

// FunctionResponse wraps a tool result; Result is itself a JSON document.
type FunctionResponse struct {
	Result string `json:"result"`
}

// LookupTownResult is the lookup_town tool result.
type LookupTownResult struct {
	Success    bool            `json:"success"`
	Town       string          `json:"town"`
	County     string          `json:"county,omitempty"`
	Territory  string          `json:"territory,omitempty"`
	Specialist *SpecialistInfo `json:"specialist,omitempty"`
	Message    string          `json:"message"`
}

// SpecialistInfo is a specialist as spoken to callers.
type SpecialistInfo struct {
	FullName  string `json:"full_name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Territory string `json:"territory,omitempty"`
}

// FindSpecialistResult is the find_specialist tool result.
type FindSpecialistResult struct {
	Found           bool   `json:"found"`
	SpecialistName  string `json:"specialist_name,omitempty"`
	SpecialistEmail string `json:"specialist_email,omitempty"`
	SpecialistPhone string `json:"specialist_phone,omitempty"`
	Territory       string `json:"territory,omitempty"`
	Town            string `json:"town,omitempty"`
	County          string `json:"county,omitempty"`
	Message         string `json:"message"`
}

// CallerHistoryResult is the get_caller_history tool result.
type CallerHistoryResult struct {
	*models.CallerProfile
	CallerPhone string `json:"caller_phone"`
}

// LeadResult is the create_lead and schedule_callback tool result.
type LeadResult struct {
	Success bool   `json:"success"`
	LeadID  string `json:"lead_id,omitempty"`
	Message string `json:"message"`
}

// TransferResult is the transfer_call tool result.
type TransferResult struct {
	Success        bool   `json:"success"`
	CanTransfer    bool   `json:"can_transfer"`
	TransferNumber string `json:"transfer_number,omitempty"`
	SpecialistName string `json:"specialist_name,omitempty"`
	Message        string `json:"message"`
}

// StaffResult is the lookup_staff tool result.
type StaffResult struct {
	Found           bool     `json:"found"`
	MultipleMatches bool     `json:"multiple_matches,omitempty"`
	Count           int      `json:"count,omitempty"`
	Names           []string `json:"names,omitempty"`
	Name            string   `json:"name,omitempty"`
	Email           string   `json:"email,omitempty"`
	Phone           string   `json:"phone,omitempty"`
	Territory       string   `json:"territory,omitempty"`
	SearchedName    string   `json:"searched_name,omitempty"`
	Message         string   `json:"message"`
}
