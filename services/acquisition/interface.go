package acquisition

import (
	"context"

	"visaflow/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// HybridBookingService is the single public entry point to the acquisition
// engine.
type HybridBookingService interface {
	// BookAppointment tries channels in policy order and returns one
	// normalized result with the full attempt log. It never returns an error;
	// total failure is expressed in the result itself.
	BookAppointment(ctx context.Context, req models.BookingRequest, opts models.HybridBookingOptions) *models.HybridBookingResult
	// FindAvailableSlots queries all three channels independently, best-effort,
	// and returns a consolidated read-only availability view.
	FindAvailableSlots(ctx context.Context, country, visaType string) (*models.SlotDiscoveryResult, error)
	// CancelAppointment delegates to whichever channel issued the confirmation.
	CancelAppointment(ctx context.Context, appointmentID, consulate string) models.CancelResult
	// RescheduleAppointment moves an appointment to a new date, acquiring the
	// replacement before releasing the original.
	RescheduleAppointment(ctx context.Context, appointmentID, newDate, newTime, consulate string) models.BookingResponse
}

// DefaultHybridService implements HybridBookingService.
type DefaultHybridService struct {
	Official *OfficialService
	Partner  *PartnerService
	Scraping *ScrapingService
	// CacheClient caches discovery results; RegistryClient remembers which
	// channel issued each confirmation. Both may be nil, which disables the
	// corresponding behavior.
	CacheClient    *redis.Client
	RegistryClient *redis.Client
	Logger         *zap.Logger
}
