package models

// SlotDiscoveryResult is the consolidated read-only availability view across
// all three channels. Per-channel lists keep their raw order; Consolidated is
// de-duplicated and deterministically sorted for UI display.
type SlotDiscoveryResult struct {
	Official     []AppointmentSlot `json:"official"`
	Partners     []AppointmentSlot `json:"partners"`
	Scraping     []AppointmentSlot `json:"scraping"`
	Consolidated []AppointmentSlot `json:"consolidated"`
	Warnings     []string          `json:"warnings,omitempty"`
}

// CancelResult is the outcome of a cancellation delegated to the channel that
// issued the original confirmation.
type CancelResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
