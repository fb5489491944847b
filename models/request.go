package models

// ApplicantInfo carries the personal details the booking backends require.
type ApplicantInfo struct {
	FullName       string `json:"fullName"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Nationality    string `json:"nationality"`
	PassportNumber string `json:"passportNumber"`
}

// BookingRequest is the input to every acquisition channel.
type BookingRequest struct {
	ApplicantID string `json:"applicantId"`
	Consulate   string `json:"consulate"`
	VisaType    string `json:"visaType"`
	// PreferredDates lists candidate dates in priority order.
	// Empty means "earliest available".
	PreferredDates []string      `json:"preferredDates"`
	ApplicantInfo  ApplicantInfo `json:"applicantInfo"`
}

// BookingResponse is the uniform per-channel booking outcome.
// Exactly one of Error or the confirmation fields is populated.
type BookingResponse struct {
	Success          bool   `json:"success"`
	AppointmentID    string `json:"appointmentId,omitempty"`
	ConfirmationCode string `json:"confirmationCode,omitempty"`
	Date             string `json:"date,omitempty"`
	Time             string `json:"time,omitempty"`
	Location         string `json:"location,omitempty"`
	Instructions     string `json:"instructions,omitempty"`
	Error            string `json:"error,omitempty"`
}
