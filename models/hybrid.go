package models

// Acquisition methods. "auto" lets the orchestrator pick the order; "none" is
// only ever seen on a result where every attempt failed.
const (
	MethodOfficial = "official"
	MethodPartner  = "partner"
	MethodScraping = "scraping"
	MethodAuto     = "auto"
	MethodNone     = "none"
)

// Urgency levels understood by the cost and scoring rules.
const (
	UrgencyNormal  = "normal"
	UrgencyUrgent  = "urgent"
	UrgencyExpress = "express"
)

// HybridBookingOptions is the caller-supplied acquisition policy. It is
// immutable for the duration of one orchestration call.
type HybridBookingOptions struct {
	PreferredMethod string   `json:"preferredMethod"` // official, partner, scraping or auto
	FallbackEnabled bool     `json:"fallbackEnabled"`
	Urgency         string   `json:"urgency"` // normal, urgent or express
	MaxRetries      int      `json:"maxRetries"`
	BudgetLimit     *float64 `json:"budgetLimit,omitempty"`
}

// BookingAttempt records one channel try. The attempts log is append-only and
// keeps strict try order; it is the audit trail for the whole call.
type BookingAttempt struct {
	Method   string   `json:"method"`
	Provider string   `json:"provider"`
	Success  bool     `json:"success"`
	Error    string   `json:"error,omitempty"`
	Cost     *float64 `json:"cost,omitempty"`
}

// AppointmentDetails is the normalized confirmation produced by a winning
// official or partner attempt. Scraping never produces one.
type AppointmentDetails struct {
	AppointmentID    string `json:"appointmentId"`
	ConfirmationCode string `json:"confirmationCode,omitempty"`
	Date             string `json:"date"`
	Time             string `json:"time"`
	Location         string `json:"location"`
}

// HybridBookingResult is the single result shape returned to callers.
type HybridBookingResult struct {
	Success            bool                `json:"success"`
	Method             string              `json:"method"`
	Provider           string              `json:"provider,omitempty"`
	AppointmentDetails *AppointmentDetails `json:"appointmentDetails,omitempty"`
	Cost               float64             `json:"cost"`
	ProcessingTimeMs   int64               `json:"processingTimeMs"`
	Instructions       string              `json:"instructions,omitempty"`
	Attempts           []BookingAttempt    `json:"attempts"`
	Warnings           []string            `json:"warnings,omitempty"`
	Error              string              `json:"error,omitempty"`
}
