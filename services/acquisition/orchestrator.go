// File: services/acquisition/orchestrator.go
package acquisition

import (
	"context"
	"strings"
	"time"

	"visaflow/models"

	"go.uber.org/zap"
)

// channelOutcome is the orchestrator's internal normalization of one channel
// attempt, whatever shape the adapter produced.
type channelOutcome struct {
	success      bool
	provider     string
	details      *models.AppointmentDetails
	cost         float64
	instructions string
	warnings     []string
	errMsg       string
}

// methodOrder computes the channel try order for a preferred method.
func methodOrder(preferred string) []string {
	switch preferred {
	case models.MethodOfficial:
		return []string{models.MethodOfficial, models.MethodPartner, models.MethodScraping}
	case models.MethodPartner:
		return []string{models.MethodPartner, models.MethodOfficial, models.MethodScraping}
	case models.MethodScraping:
		return []string{models.MethodScraping, models.MethodPartner, models.MethodOfficial}
	default: // auto
		return []string{models.MethodOfficial, models.MethodPartner, models.MethodScraping}
	}
}

// normalizeOptions applies policy defaults. A retry budget below one could
// never attempt anything, so it is raised to one; unknown urgency degrades to
// normal rather than failing the call.
func normalizeOptions(opts models.HybridBookingOptions) models.HybridBookingOptions {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	switch opts.Urgency {
	case models.UrgencyNormal, models.UrgencyUrgent, models.UrgencyExpress:
	default:
		opts.Urgency = models.UrgencyNormal
	}
	return opts
}

// BookAppointment runs the acquisition loop: channels are tried sequentially
// as alternatives (never in parallel, to rule out double-booking), every
// attempt is appended to the audit log before the loop decides what to do
// next, and the first success wins immediately.
func (h *DefaultHybridService) BookAppointment(ctx context.Context, req models.BookingRequest, opts models.HybridBookingOptions) *models.HybridBookingResult {
	start := time.Now()
	opts = normalizeOptions(opts)

	result := &models.HybridBookingResult{
		Method:   models.MethodNone,
		Attempts: []models.BookingAttempt{},
	}

	for _, method := range methodOrder(opts.PreferredMethod) {
		if len(result.Attempts) >= opts.MaxRetries {
			break
		}

		outcome := h.attemptChannel(ctx, method, req, opts)

		attempt := models.BookingAttempt{
			Method:   method,
			Provider: outcome.provider,
			Success:  outcome.success,
			Error:    outcome.errMsg,
		}
		if outcome.success && outcome.cost > 0 {
			cost := outcome.cost
			attempt.Cost = &cost
		}
		result.Attempts = append(result.Attempts, attempt)
		result.Warnings = append(result.Warnings, outcome.warnings...)

		h.Logger.Info("acquisition attempt finished",
			zap.String("method", method),
			zap.String("provider", outcome.provider),
			zap.Bool("success", outcome.success),
			zap.String("error", outcome.errMsg))

		if outcome.success {
			result.Success = true
			result.Method = method
			result.Provider = outcome.provider
			result.AppointmentDetails = outcome.details
			result.Cost = outcome.cost
			result.Instructions = outcome.instructions
			result.ProcessingTimeMs = time.Since(start).Milliseconds()

			if outcome.details != nil {
				h.storeRegistryEntry(ctx, outcome.details.AppointmentID, registryEntry{
					Method:      method,
					Provider:    outcome.provider,
					Consulate:   req.Consulate,
					VisaType:    req.VisaType,
					ApplicantID: req.ApplicantID,
				})
			}
			return result
		}

		if !opts.FallbackEnabled {
			break
		}
	}

	result.Error = "All acquisition attempts failed"
	result.ProcessingTimeMs = time.Since(start).Milliseconds()
	return result
}

// attemptChannel invokes one adapter and converts whatever happens, including
// a panic, into a channel outcome. Adapter failures must end up in the attempt
// log, never propagate out of the orchestrator.
func (h *DefaultHybridService) attemptChannel(ctx context.Context, method string, req models.BookingRequest, opts models.HybridBookingOptions) (outcome channelOutcome) {
	defer func() {
		if r := recover(); r != nil {
			h.Logger.Error("channel adapter panicked",
				zap.String("method", method), zap.Any("panic", r))
			outcome = channelOutcome{
				provider: outcome.provider,
				errMsg:   NewChannelError(CodeTechnicalError, "unexpected adapter failure: %v", r).Error(),
			}
		}
	}()

	switch method {
	case models.MethodOfficial:
		return h.attemptOfficial(ctx, req)
	case models.MethodPartner:
		return h.attemptPartner(ctx, req, opts)
	case models.MethodScraping:
		return h.attemptScraping(ctx, req)
	default:
		return channelOutcome{errMsg: NewChannelError(CodeTechnicalError, "unknown method %q", method).Error()}
	}
}

func (h *DefaultHybridService) attemptOfficial(ctx context.Context, req models.BookingRequest) channelOutcome {
	provider := req.Consulate
	if cfg, ok := LookupConsulate(req.Consulate); ok {
		provider = cfg.DisplayName
	}

	resp := h.Official.Book(ctx, req)
	if !resp.Success {
		return channelOutcome{provider: provider, errMsg: resp.Error}
	}
	return channelOutcome{
		success:  true,
		provider: provider,
		details: &models.AppointmentDetails{
			AppointmentID:    resp.AppointmentID,
			ConfirmationCode: resp.ConfirmationCode,
			Date:             resp.Date,
			Time:             resp.Time,
			Location:         resp.Location,
		},
		instructions: resp.Instructions,
	}
}

func (h *DefaultHybridService) attemptPartner(ctx context.Context, req models.BookingRequest, opts models.HybridBookingOptions) channelOutcome {
	out := h.Partner.Book(ctx, req, opts)
	if out.Err != nil {
		return channelOutcome{provider: out.ProviderName, errMsg: out.Err.Error()}
	}
	return channelOutcome{
		success:  true,
		provider: out.ProviderName,
		details: &models.AppointmentDetails{
			AppointmentID:    out.AppointmentID,
			ConfirmationCode: out.ConfirmationCode,
			Date:             out.Date,
			Time:             out.Time,
			Location:         out.Location,
		},
		cost:         out.Cost,
		instructions: out.Instructions,
	}
}

func (h *DefaultHybridService) attemptScraping(ctx context.Context, req models.BookingRequest) channelOutcome {
	sc := h.Scraping.CheckAvailability(ctx, countryForConsulate(req.Consulate), req.VisaType)
	if sc.Err != nil {
		return channelOutcome{provider: sc.Target, errMsg: sc.Err.Error()}
	}
	// A scraping "success" is observed availability plus a manual-action
	// instruction. It carries no confirmation and always carries warnings.
	instructions := sc.Instructions
	if summary := summarizeSlots(sc.Slots); summary != "" {
		instructions = appendInstruction(instructions, summary)
	}
	return channelOutcome{
		success:      true,
		provider:     sc.Target,
		instructions: instructions,
		warnings:     scrapingWarnings(),
	}
}

// summarizeSlots lists the first few observed date/time pairs so the caller
// can act on the observation without a second discovery call.
func summarizeSlots(slots []models.AppointmentSlot) string {
	var seen []string
	for _, s := range slots {
		if !s.Available {
			continue
		}
		seen = append(seen, s.Date+" "+s.Time)
		if len(seen) == 3 {
			break
		}
	}
	if len(seen) == 0 {
		return ""
	}
	return "Observed slots: " + strings.Join(seen, ", ") + "."
}
