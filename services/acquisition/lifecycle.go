// File: services/acquisition/lifecycle.go
package acquisition

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"visaflow/models"

	"go.uber.org/zap"
)

const registryTTL = 90 * 24 * time.Hour

// registryEntry remembers which channel issued a confirmation so lifecycle
// operations can route back to it after the fact.
type registryEntry struct {
	Method      string `json:"method"`
	Provider    string `json:"provider"`
	Consulate   string `json:"consulate"`
	VisaType    string `json:"visaType"`
	ApplicantID string `json:"applicantId"`
}

// CancelAppointment delegates cancellation to the channel that issued the
// confirmation. The registry is authoritative; the id-prefix heuristic covers
// appointments whose registry entry has expired.
func (h *DefaultHybridService) CancelAppointment(ctx context.Context, appointmentID, consulate string) models.CancelResult {
	method, partnerID := h.resolveChannel(ctx, appointmentID)

	switch method {
	case models.MethodOfficial:
		if err := h.Official.Cancel(ctx, consulate, appointmentID); err != nil {
			return models.CancelResult{Success: false, Message: fmt.Sprintf("official cancellation failed: %v", err)}
		}
	case models.MethodPartner:
		if partnerID == "" {
			return models.CancelResult{Success: false, Message: fmt.Sprintf("cannot determine issuing partner for %s", appointmentID)}
		}
		if err := h.Partner.Cancel(ctx, partnerID, appointmentID); err != nil {
			return models.CancelResult{Success: false, Message: fmt.Sprintf("partner cancellation failed: %v", err)}
		}
	case models.MethodScraping:
		return models.CancelResult{Success: false, Message: "scraping-sourced results are not confirmed bookings and cannot be cancelled"}
	default:
		return models.CancelResult{Success: false, Message: fmt.Sprintf("unable to determine which channel issued %s", appointmentID)}
	}

	h.deleteRegistryEntry(ctx, appointmentID)
	return models.CancelResult{Success: true, Message: fmt.Sprintf("appointment %s cancelled", appointmentID)}
}

// RescheduleAppointment moves an appointment to a new date. The replacement is
// booked before the original is released, so a rebook failure leaves the
// applicant with their original appointment intact. If the trailing cancel
// fails the call still succeeds, with an explicit instruction to cancel the
// old appointment manually.
func (h *DefaultHybridService) RescheduleAppointment(ctx context.Context, appointmentID, newDate, newTime, consulate string) models.BookingResponse {
	method, partnerID := h.resolveChannel(ctx, appointmentID)
	if method != models.MethodOfficial && method != models.MethodPartner {
		return models.BookingResponse{
			Success: false,
			Error:   fmt.Sprintf("unable to determine which channel issued %s; nothing was changed", appointmentID),
		}
	}

	req := models.BookingRequest{
		Consulate:      consulate,
		PreferredDates: []string{newDate},
	}
	if entry := h.lookupRegistryEntry(ctx, appointmentID); entry != nil {
		req.VisaType = entry.VisaType
		req.ApplicantID = entry.ApplicantID
	}

	var rebooked models.BookingResponse
	switch method {
	case models.MethodOfficial:
		rebooked = h.Official.Book(ctx, req)
	case models.MethodPartner:
		rebooked = partnerResponse(h.Partner.Book(ctx, req, models.HybridBookingOptions{
			Urgency:    models.UrgencyNormal,
			MaxRetries: 1,
		}))
	}

	if !rebooked.Success {
		return models.BookingResponse{
			Success: false,
			Error: fmt.Sprintf("reschedule aborted before cancellation; original appointment %s is unchanged: %s",
				appointmentID, rebooked.Error),
		}
	}

	if newTime != "" && rebooked.Time != newTime {
		rebooked.Instructions = appendInstruction(rebooked.Instructions,
			fmt.Sprintf("Requested time %s was not available; booked %s instead.", newTime, rebooked.Time))
	}

	h.storeRegistryEntry(ctx, rebooked.AppointmentID, registryEntry{
		Method:    method,
		Provider:  partnerID,
		Consulate: consulate,
		VisaType:  req.VisaType,
	})

	cancelled := h.CancelAppointment(ctx, appointmentID, consulate)
	if !cancelled.Success {
		h.Logger.Warn("reschedule booked a replacement but could not release the original",
			zap.String("old", appointmentID),
			zap.String("new", rebooked.AppointmentID),
			zap.String("reason", cancelled.Message))
		rebooked.Instructions = appendInstruction(rebooked.Instructions,
			fmt.Sprintf("Warning: the original appointment %s could not be cancelled (%s); cancel it manually to avoid holding two appointments.",
				appointmentID, cancelled.Message))
	}

	return rebooked
}

// resolveChannel determines which channel issued an appointment id. For
// partner ids the issuing partner is embedded in the id itself:
// PRT-<partnerID>-<reference>.
func (h *DefaultHybridService) resolveChannel(ctx context.Context, appointmentID string) (method, partnerID string) {
	if entry := h.lookupRegistryEntry(ctx, appointmentID); entry != nil {
		if entry.Method == models.MethodPartner {
			return entry.Method, partnerIDFromAppointmentID(appointmentID)
		}
		return entry.Method, ""
	}

	switch {
	case strings.HasPrefix(appointmentID, officialIDPrefix):
		return models.MethodOfficial, ""
	case strings.HasPrefix(appointmentID, partnerIDPrefix):
		return models.MethodPartner, partnerIDFromAppointmentID(appointmentID)
	default:
		return "", ""
	}
}

func partnerIDFromAppointmentID(appointmentID string) string {
	rest := strings.TrimPrefix(appointmentID, partnerIDPrefix)
	parts := strings.SplitN(rest, "-", 2)
	if len(parts) < 2 {
		return ""
	}
	return parts[0]
}

func partnerResponse(out PartnerBookingOutcome) models.BookingResponse {
	if out.Err != nil {
		return models.BookingResponse{Success: false, Error: out.Err.Error()}
	}
	return models.BookingResponse{
		Success:          true,
		AppointmentID:    out.AppointmentID,
		ConfirmationCode: out.ConfirmationCode,
		Date:             out.Date,
		Time:             out.Time,
		Location:         out.Location,
		Instructions:     out.Instructions,
	}
}

func appendInstruction(existing, addition string) string {
	if existing == "" {
		return addition
	}
	return existing + " " + addition
}

func (h *DefaultHybridService) storeRegistryEntry(ctx context.Context, appointmentID string, entry registryEntry) {
	if h.RegistryClient == nil || appointmentID == "" {
		return
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := h.RegistryClient.Set(ctx, registryKey(appointmentID), data, registryTTL).Err(); err != nil {
		h.Logger.Warn("failed to store registry entry", zap.String("appointmentId", appointmentID), zap.Error(err))
	}
}

func (h *DefaultHybridService) lookupRegistryEntry(ctx context.Context, appointmentID string) *registryEntry {
	if h.RegistryClient == nil {
		return nil
	}
	data, err := h.RegistryClient.Get(ctx, registryKey(appointmentID)).Result()
	if err != nil {
		return nil
	}
	var entry registryEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil
	}
	return &entry
}

func (h *DefaultHybridService) deleteRegistryEntry(ctx context.Context, appointmentID string) {
	if h.RegistryClient == nil {
		return
	}
	h.RegistryClient.Del(ctx, registryKey(appointmentID))
}

func registryKey(appointmentID string) string {
	return "appt:" + appointmentID
}
