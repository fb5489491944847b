package acquisition

import (
	"context"
	"testing"
	"time"

	scrapetargetRepo "visaflow/database/repository/scrapetarget"
	"visaflow/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeBrowser serves canned slots without opening a page.
type fakeBrowser struct {
	slots []models.AppointmentSlot
	err   error
	calls int
}

func (f *fakeBrowser) FetchSlots(ctx context.Context, target models.ScrapingTarget, visaType string) ([]models.AppointmentSlot, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.slots, nil
}

func testTarget(id, country string, enabled bool, reliability float64, perMinute int) models.ScrapingTarget {
	return models.ScrapingTarget{
		ID:                 id,
		Name:               id + " portal",
		URL:                "https://" + id + ".example.gov/appointments",
		Country:            country,
		RateLimitPerMinute: perMinute,
		Enabled:            enabled,
		Reliability:        reliability,
	}
}

func newTestScrapingService(targets []models.ScrapingTarget, browser Browser, enabled map[string]bool) *ScrapingService {
	return NewScrapingService(
		&scrapetargetRepo.StaticScrapeTargetRepo{Targets: targets},
		browser,
		enabled,
		zap.NewNop(),
	)
}

func TestScrapingLegalGate(t *testing.T) {
	t.Run("disabled target is refused before any page load", func(t *testing.T) {
		browser := &fakeBrowser{slots: []models.AppointmentSlot{testSlot("s1", "2024-01-15", "09:00", true)}}
		svc := newTestScrapingService([]models.ScrapingTarget{testTarget("usa-portal", "usa", false, 0.9, 10)}, browser, nil)

		out := svc.CheckAvailability(context.Background(), "usa", "tourist")

		require.NotNil(t, out.Err)
		assert.Equal(t, CodeLegalGateDisabled, out.Err.Code)
		assert.Zero(t, browser.calls)
		assert.Zero(t, svc.LastAccess("usa-portal"), "a refused target must not record an access")
	})

	t.Run("configuration overlay wins over the catalog flag", func(t *testing.T) {
		browser := &fakeBrowser{slots: []models.AppointmentSlot{testSlot("s1", "2024-01-15", "09:00", true)}}
		svc := newTestScrapingService([]models.ScrapingTarget{testTarget("usa-portal", "usa", false, 0.9, 10)},
			browser, map[string]bool{"usa-portal": true})

		out := svc.CheckAvailability(context.Background(), "usa", "tourist")

		require.Nil(t, out.Err)
		assert.Equal(t, 1, browser.calls)
	})

	t.Run("a disabled target still wins selection so the gate surfaces", func(t *testing.T) {
		browser := &fakeBrowser{slots: []models.AppointmentSlot{testSlot("s1", "2024-01-15", "09:00", true)}}
		svc := newTestScrapingService([]models.ScrapingTarget{
			testTarget("backup", "usa", true, 0.5, 10),
			testTarget("primary", "usa", false, 0.95, 10),
		}, browser, nil)

		out := svc.CheckAvailability(context.Background(), "usa", "tourist")

		require.NotNil(t, out.Err)
		assert.Equal(t, CodeLegalGateDisabled, out.Err.Code)
		assert.Equal(t, "primary", out.Target)
	})
}

func TestScrapingRateLimit(t *testing.T) {
	browser := &fakeBrowser{slots: []models.AppointmentSlot{testSlot("s1", "2024-01-15", "09:00", true)}}
	svc := newTestScrapingService([]models.ScrapingTarget{testTarget("usa-portal", "usa", true, 0.9, 1)}, browser, nil)

	first := svc.CheckAvailability(context.Background(), "usa", "tourist")
	require.Nil(t, first.Err)
	firstAccess := svc.LastAccess("usa-portal")
	require.NotZero(t, firstAccess)

	second := svc.CheckAvailability(context.Background(), "usa", "tourist")
	require.NotNil(t, second.Err)
	assert.Equal(t, CodeRateLimitExceeded, second.Err.Code)
	assert.Greater(t, second.Err.RetryAfter, time.Duration(0), "rejection must carry a wait hint")
	assert.Equal(t, 1, browser.calls, "a rate-limited call must not reach the portal")
	assert.Equal(t, firstAccess, svc.LastAccess("usa-portal"), "rejection must not move the last-access time")
}

func TestScrapingOutcomes(t *testing.T) {
	t.Run("no visible slots is NoAvailability", func(t *testing.T) {
		svc := newTestScrapingService([]models.ScrapingTarget{testTarget("usa-portal", "usa", true, 0.9, 10)},
			&fakeBrowser{}, nil)

		out := svc.CheckAvailability(context.Background(), "usa", "tourist")
		require.NotNil(t, out.Err)
		assert.Equal(t, CodeNoAvailability, out.Err.Code)
	})

	t.Run("no target configured for country", func(t *testing.T) {
		svc := newTestScrapingService(nil, &fakeBrowser{}, nil)

		out := svc.CheckAvailability(context.Background(), "usa", "tourist")
		require.NotNil(t, out.Err)
		assert.Equal(t, CodeNoAvailability, out.Err.Code)
	})

	t.Run("observed availability comes with a manual booking instruction", func(t *testing.T) {
		browser := &fakeBrowser{slots: []models.AppointmentSlot{testSlot("s1", "2024-01-15", "09:00", true)}}
		svc := newTestScrapingService([]models.ScrapingTarget{testTarget("usa-portal", "usa", true, 0.9, 10)}, browser, nil)

		out := svc.CheckAvailability(context.Background(), "usa", "tourist")
		require.Nil(t, out.Err)
		assert.Len(t, out.Slots, 1)
		assert.Contains(t, out.Instructions, "Book manually")
	})
}
