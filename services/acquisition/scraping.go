// File: services/acquisition/scraping.go
package acquisition

import (
	"context"
	"fmt"
	"time"

	scrapetargetRepo "visaflow/database/repository/scrapetarget"
	"visaflow/models"

	"go.uber.org/zap"
)

// Browser reads availability from a portal page. The production implementation
// drives a shared headless Chrome; tests inject a fake.
type Browser interface {
	FetchSlots(ctx context.Context, target models.ScrapingTarget, visaType string) ([]models.AppointmentSlot, error)
}

// ScrapeOutcome is what a scraping attempt hands back: observed slots and a
// manual-booking instruction, never a confirmation.
type ScrapeOutcome struct {
	Target       string
	Slots        []models.AppointmentSlot
	Instructions string
	Err          *ChannelError
}

// ScrapingService is the last-resort, read-only channel. It observes slot
// availability on public booking portals and tells the caller to book
// manually. It must never submit a booking on its own.
type ScrapingService struct {
	Repo    scrapetargetRepo.ScrapeTargetRepository
	Browser Browser
	Logger  *zap.Logger
	// Enabled overlays the legal-enablement flag per target id from
	// configuration; entries here win over the catalog value.
	Enabled map[string]bool

	limits *targetLimiter
}

func NewScrapingService(repo scrapetargetRepo.ScrapeTargetRepository, browser Browser, enabled map[string]bool, logger *zap.Logger) *ScrapingService {
	return &ScrapingService{
		Repo:    repo,
		Browser: browser,
		Logger:  logger,
		Enabled: enabled,
		limits:  newTargetLimiter(),
	}
}

// CheckAvailability scrapes the best target for the country. Gate order is
// fixed: the legal gate is checked first, then the rate limit, and only then
// is a browser page opened.
func (s *ScrapingService) CheckAvailability(ctx context.Context, country, visaType string) ScrapeOutcome {
	target, chErr := s.pickTarget(country)
	if chErr != nil {
		return ScrapeOutcome{Err: chErr}
	}

	if !s.targetEnabled(*target) {
		return ScrapeOutcome{
			Target: target.ID,
			Err:    NewChannelError(CodeLegalGateDisabled, "scraping of %s is disabled by policy", target.Name),
		}
	}

	if ok, wait := s.limits.Allow(target.ID, target.RateLimitPerMinute); !ok {
		chErr := NewChannelError(CodeRateLimitExceeded, "rate limit for %s exceeded, retry in %s", target.Name, wait.Round(time.Millisecond))
		chErr.RetryAfter = wait
		return ScrapeOutcome{Target: target.ID, Err: chErr}
	}

	slots, err := s.Browser.FetchSlots(ctx, *target, visaType)
	if err != nil {
		return ScrapeOutcome{
			Target: target.ID,
			Err:    NewChannelError(CodeTechnicalError, "scraping %s failed: %v", target.Name, err),
		}
	}

	s.Logger.Info("scraped availability",
		zap.String("target", target.ID),
		zap.Int("slots", len(slots)))

	if len(slots) == 0 {
		return ScrapeOutcome{
			Target: target.ID,
			Err:    NewChannelError(CodeNoAvailability, "no slots visible at %s", target.Name),
		}
	}

	return ScrapeOutcome{
		Target: target.ID,
		Slots:  slots,
		Instructions: fmt.Sprintf(
			"Availability observed at %s. Book manually at %s; slots are not reserved and may already be taken.",
			target.Name, target.URL),
	}
}

// LastAccess exposes the authoritative last-access time for a target.
func (s *ScrapingService) LastAccess(targetID string) (lastAccess int64) {
	t := s.limits.LastAccess(targetID)
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// pickTarget chooses the most reliable configured target for the country.
// Disabled targets still win selection so the legal gate surfaces as the
// refusal reason instead of being silently skipped.
func (s *ScrapingService) pickTarget(country string) (*models.ScrapingTarget, *ChannelError) {
	targets, err := s.Repo.GetByCountry(country)
	if err != nil {
		return nil, NewChannelError(CodeTechnicalError, "scraping target catalog unavailable: %v", err)
	}
	if len(targets) == 0 {
		return nil, NewChannelError(CodeNoAvailability, "no scraping target configured for country %q", country)
	}

	best := targets[0]
	for _, t := range targets[1:] {
		if t.Reliability > best.Reliability {
			best = t
		}
	}
	return &best, nil
}

func (s *ScrapingService) targetEnabled(target models.ScrapingTarget) bool {
	if v, ok := s.Enabled[target.ID]; ok {
		return v
	}
	return target.Enabled
}

// scrapingWarnings are attached to every result that carries scraping-sourced
// data, without exception: the caller must never mistake observed availability
// for a confirmed or even reservable appointment.
func scrapingWarnings() []string {
	return []string{
		"Scraped availability may violate the target portal's Terms of Service; verify legal clearance before acting on it.",
		"Scraped slot data is a point-in-time observation and may already be stale.",
	}
}
