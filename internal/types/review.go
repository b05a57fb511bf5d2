package types

import (
	"fmt"
	"time"
)

// Severity grades a review finding. Critical and major findings block demo
// generation; minor findings never do.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

// IsValid checks if the severity value is valid
func (s Severity) IsValid() bool {
	switch s {
	case SeverityCritical, SeverityMajor, SeverityMinor:
		return true
	}
	return false
}

// Blocking reports whether an open finding of this severity blocks
// progression to human review.
func (s Severity) Blocking() bool {
	return s == SeverityCritical || s == SeverityMajor
}

// FindingStatus tracks whether a finding has been addressed
type FindingStatus string

const (
	FindingOpen  FindingStatus = "open"
	FindingFixed FindingStatus = "fixed"
)

// Finding is a defect recorded while a ticket sits in ai_review
type Finding struct {
	ID          string        `json:"id"`
	TicketID    string        `json:"ticket_id"`
	Iteration   int           `json:"iteration"`
	Agent       string        `json:"agent,omitempty"`
	Severity    Severity      `json:"severity"`
	Category    string        `json:"category,omitempty"`
	Description string        `json:"description"`
	Status      FindingStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	FixedAt     *time.Time    `json:"fixed_at,omitempty"`
}

// Validate checks if the finding has valid field values
func (f *Finding) Validate() error {
	if f.TicketID == "" {
		return &ValidationError{Field: "ticket_id", Reason: "ticket_id is required"}
	}
	if !f.Severity.IsValid() {
		return &ValidationError{Field: "severity", Reason: fmt.Sprintf("invalid severity: %s", f.Severity)}
	}
	if f.Description == "" {
		return &ValidationError{Field: "description", Reason: "description is required"}
	}
	return nil
}

// DemoStep is one ordered verification step in a demo script
type DemoStep struct {
	Order           int    `json:"order"`
	Description     string `json:"description"`
	ExpectedOutcome string `json:"expected_outcome"`
	Type            string `json:"type,omitempty"`
}

// DemoScript holds the ordered verification steps generated for human
// sign-off. At most one exists per ticket; it is created once by the review
// gate and mutated once when feedback arrives.
type DemoScript struct {
	TicketID    string     `json:"ticket_id"`
	Steps       []DemoStep `json:"steps"`
	GeneratedAt time.Time  `json:"generated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Feedback    string     `json:"feedback,omitempty"`
	Passed      *bool      `json:"passed,omitempty"`
}
