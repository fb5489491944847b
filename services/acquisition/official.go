// File: services/acquisition/official.go
package acquisition

import (
	"context"
	"strings"
	"sync"
	"time"

	"visaflow/models"

	"github.com/golang-jwt/jwt"
	"go.uber.org/zap"
)

// officialIDPrefix tags every appointment id issued through the government
// channel, so lifecycle operations can route back to it.
const officialIDPrefix = "OFF-"

// OfficialSession is an authenticated session against one consulate backend.
type OfficialSession struct {
	Token     string
	ExpiresAt time.Time
}

// OfficialConfirmation is the provider-specific confirmation payload.
type OfficialConfirmation struct {
	AppointmentID    string
	ConfirmationCode string
	Instructions     string
}

// OfficialClient is the wire protocol of a government booking backend.
// Implementations must not retry internally; retries belong to the orchestrator.
type OfficialClient interface {
	Authenticate(ctx context.Context, consulate ConsulateConfig) (OfficialSession, error)
	FetchSlots(ctx context.Context, session OfficialSession, consulate ConsulateConfig, visaType string) ([]models.AppointmentSlot, error)
	ConfirmSlot(ctx context.Context, session OfficialSession, consulate ConsulateConfig, slot models.AppointmentSlot, req models.BookingRequest) (OfficialConfirmation, error)
	CancelAppointment(ctx context.Context, session OfficialSession, consulate ConsulateConfig, appointmentID string) error
}

// OfficialService books real confirmed appointments through a single
// government backend. The flow is strictly linear: authenticate, fetch slots,
// select, confirm. Any step failure aborts the call; the service never retries
// on its own because confirmation consumes a real slot at the remote system.
type OfficialService struct {
	Client OfficialClient
	Logger *zap.Logger

	mu        sync.Mutex
	sessions  map[string]OfficialSession // keyed by consulate
	confirmed map[string]bool            // slot IDs a confirmation has been issued for
}

func NewOfficialService(client OfficialClient, logger *zap.Logger) *OfficialService {
	return &OfficialService{
		Client:    client,
		Logger:    logger,
		sessions:  make(map[string]OfficialSession),
		confirmed: make(map[string]bool),
	}
}

// Book obtains a confirmed appointment for the request. All expected failure
// modes come back as {Success:false, Error} rather than an error value.
func (s *OfficialService) Book(ctx context.Context, req models.BookingRequest) models.BookingResponse {
	consulate, ok := LookupConsulate(req.Consulate)
	if !ok {
		return failureResponse(NewChannelError(CodeTechnicalError, "unknown consulate %q", req.Consulate))
	}

	session, err := s.sessionFor(ctx, consulate)
	if err != nil {
		return failureResponse(NewChannelError(CodeAuthenticationFailure, "login to %s failed: %v", consulate.DisplayName, err))
	}

	slots, err := s.Client.FetchSlots(ctx, session, consulate, req.VisaType)
	if err != nil {
		return failureResponse(NewChannelError(CodeTechnicalError, "slot search at %s failed: %v", consulate.DisplayName, err))
	}

	slot := SelectBestSlot(slots, req.PreferredDates)
	if slot == nil {
		chErr := NewChannelError(CodeNoAvailability, "no available slots at %s for visa type %s", consulate.DisplayName, req.VisaType)
		chErr.NextDates = nextAvailableDates(slots, 3)
		if len(chErr.NextDates) > 0 {
			chErr.Message += "; next available dates: " + strings.Join(chErr.NextDates, ", ")
		}
		return failureResponse(chErr)
	}

	confirmation, chErr := s.confirmOnce(ctx, session, consulate, *slot, req)
	if chErr != nil {
		return failureResponse(chErr)
	}

	s.Logger.Info("official booking confirmed",
		zap.String("consulate", consulate.Key),
		zap.String("appointmentId", confirmation.AppointmentID),
		zap.String("date", slot.Date))

	return models.BookingResponse{
		Success:          true,
		AppointmentID:    ensureIDPrefix(confirmation.AppointmentID, officialIDPrefix),
		ConfirmationCode: confirmation.ConfirmationCode,
		Date:             slot.Date,
		Time:             slot.Time,
		Location:         slot.Location,
		Instructions:     confirmation.Instructions,
	}
}

// FindSlots is the read-only availability path used by slot discovery.
func (s *OfficialService) FindSlots(ctx context.Context, consulateKey, visaType string) ([]models.AppointmentSlot, error) {
	consulate, ok := LookupConsulate(consulateKey)
	if !ok {
		return nil, NewChannelError(CodeTechnicalError, "unknown consulate %q", consulateKey)
	}
	session, err := s.sessionFor(ctx, consulate)
	if err != nil {
		return nil, NewChannelError(CodeAuthenticationFailure, "login to %s failed: %v", consulate.DisplayName, err)
	}
	slots, err := s.Client.FetchSlots(ctx, session, consulate, visaType)
	if err != nil {
		return nil, NewChannelError(CodeTechnicalError, "slot search at %s failed: %v", consulate.DisplayName, err)
	}
	return slots, nil
}

// Cancel releases a previously confirmed official appointment.
func (s *OfficialService) Cancel(ctx context.Context, consulateKey, appointmentID string) error {
	consulate, ok := LookupConsulate(consulateKey)
	if !ok {
		return NewChannelError(CodeTechnicalError, "unknown consulate %q", consulateKey)
	}
	session, err := s.sessionFor(ctx, consulate)
	if err != nil {
		return NewChannelError(CodeAuthenticationFailure, "login to %s failed: %v", consulate.DisplayName, err)
	}
	if err := s.Client.CancelAppointment(ctx, session, consulate, appointmentID); err != nil {
		return NewChannelError(CodeTechnicalError, "cancellation of %s failed: %v", appointmentID, err)
	}
	return nil
}

// confirmOnce issues the confirmation for a selected slot at most once.
// The remote call is run on a detached context: once it starts, caller
// cancellation can no longer abort it halfway through an irreversible booking.
func (s *OfficialService) confirmOnce(ctx context.Context, session OfficialSession, consulate ConsulateConfig, slot models.AppointmentSlot, req models.BookingRequest) (OfficialConfirmation, *ChannelError) {
	if err := ctx.Err(); err != nil {
		return OfficialConfirmation{}, NewChannelError(CodeTechnicalError, "request cancelled before confirmation: %v", err)
	}

	s.mu.Lock()
	if s.confirmed[slot.ID] {
		s.mu.Unlock()
		return OfficialConfirmation{}, NewChannelError(CodeTechnicalError, "confirmation already issued for slot %s", slot.ID)
	}
	s.confirmed[slot.ID] = true
	s.mu.Unlock()

	confirmCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	confirmation, err := s.Client.ConfirmSlot(confirmCtx, session, consulate, slot, req)
	if err != nil {
		// The confirmation outcome is unknown; keep the slot marked so a blind
		// retry cannot double-book it.
		return OfficialConfirmation{}, NewChannelError(CodeTechnicalError, "confirmation of slot %s failed: %v", slot.ID, err)
	}
	return confirmation, nil
}

// sessionFor returns a cached session for the consulate, re-authenticating
// when the cached token has expired.
func (s *OfficialService) sessionFor(ctx context.Context, consulate ConsulateConfig) (OfficialSession, error) {
	s.mu.Lock()
	cached, ok := s.sessions[consulate.Key]
	s.mu.Unlock()
	if ok && sessionUsable(cached) {
		return cached, nil
	}

	session, err := s.Client.Authenticate(ctx, consulate)
	if err != nil {
		return OfficialSession{}, err
	}

	s.mu.Lock()
	s.sessions[consulate.Key] = session
	s.mu.Unlock()
	return session, nil
}

// sessionUsable checks token freshness. When the backend issues a JWT the exp
// claim wins; otherwise the session's own expiry stamp is used. A one minute
// margin avoids reusing a token that expires mid-call.
func sessionUsable(session OfficialSession) bool {
	if session.Token == "" {
		return false
	}
	deadline := session.ExpiresAt
	if claims := parseTokenClaims(session.Token); claims != nil {
		if exp, ok := claims["exp"].(float64); ok {
			deadline = time.Unix(int64(exp), 0)
		}
	}
	if deadline.IsZero() {
		return false
	}
	return time.Until(deadline) > time.Minute
}

func parseTokenClaims(token string) jwt.MapClaims {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return nil
	}
	return claims
}

func ensureIDPrefix(id, prefix string) string {
	if strings.HasPrefix(id, prefix) {
		return id
	}
	return prefix + id
}

func failureResponse(chErr *ChannelError) models.BookingResponse {
	return models.BookingResponse{
		Success: false,
		Error:   chErr.Error(),
	}
}
