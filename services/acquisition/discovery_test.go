package acquisition

import (
	"context"
	"strings"
	"testing"

	"visaflow/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindAvailableSlots(t *testing.T) {
	t.Run("merges channels and keeps the highest confidence duplicate", func(t *testing.T) {
		shared := testSlot("off-1", "2024-01-15", "09:00", true)
		partnerOnly := testSlot("prt-2", "2024-01-16", "10:00", true)

		official := &fakeOfficialClient{slots: []models.AppointmentSlot{shared}}
		partnerClient := &fakePartnerClient{slots: []models.AppointmentSlot{shared, partnerOnly}}
		hybrid := newTestHybrid(official, partnerClient,
			[]models.PartnerProfile{testPartner("fasttrack", 10, 0.9, 1000)},
			&fakeBrowser{}, nil)

		result, err := hybrid.FindAvailableSlots(context.Background(), "usa", "tourist")
		require.NoError(t, err)

		require.Len(t, result.Consolidated, 2, "the same physical slot must appear once")
		assert.Equal(t, models.MethodOfficial, result.Consolidated[0].Source)
		assert.Equal(t, models.MethodPartner, result.Consolidated[1].Source)
		assert.Equal(t, "2024-01-15", result.Consolidated[0].Date, "consolidated view is date-ordered")
	})

	t.Run("de-duplicates across channels that identify slots differently", func(t *testing.T) {
		// The official channel stamps a consulate key on its slots; partner
		// wire payloads carry no consulate at all. The same physical slot must
		// still collapse to one entry.
		officialShaped := models.AppointmentSlot{
			ID: "off-1", Date: "2024-01-15", Time: "09:00", Available: true,
			Location: "Main Office", Consulate: "usa", Country: "usa", VisaType: "tourist",
		}
		partnerShaped := models.AppointmentSlot{
			ID: "prt-1", Date: "2024-01-15", Time: "09:00", Available: true,
			Location: "Main Office", VisaType: "tourist",
		}

		official := &fakeOfficialClient{slots: []models.AppointmentSlot{officialShaped}}
		partnerClient := &fakePartnerClient{slots: []models.AppointmentSlot{partnerShaped}}
		hybrid := newTestHybrid(official, partnerClient,
			[]models.PartnerProfile{testPartner("fasttrack", 10, 0.9, 1000)},
			&fakeBrowser{}, nil)

		result, err := hybrid.FindAvailableSlots(context.Background(), "usa", "tourist")
		require.NoError(t, err)

		require.Len(t, result.Consolidated, 1)
		assert.Equal(t, models.MethodOfficial, result.Consolidated[0].Source)
	})

	t.Run("repeated calls return the same consolidated identities", func(t *testing.T) {
		official := &fakeOfficialClient{slots: []models.AppointmentSlot{
			testSlot("off-1", "2024-01-15", "09:00", true),
		}}
		partnerClient := &fakePartnerClient{slots: []models.AppointmentSlot{
			testSlot("prt-1", "2024-01-16", "10:00", true),
		}}
		hybrid := newTestHybrid(official, partnerClient,
			[]models.PartnerProfile{testPartner("fasttrack", 10, 0.9, 1000)},
			&fakeBrowser{}, nil)

		first, err := hybrid.FindAvailableSlots(context.Background(), "usa", "tourist")
		require.NoError(t, err)
		second, err := hybrid.FindAvailableSlots(context.Background(), "usa", "tourist")
		require.NoError(t, err)

		assert.Equal(t, first.Consolidated, second.Consolidated)
	})

	t.Run("per channel views carry their source tag", func(t *testing.T) {
		official := &fakeOfficialClient{slots: []models.AppointmentSlot{
			testSlot("off-1", "2024-01-15", "09:00", true),
		}}
		hybrid := newTestHybrid(official, &fakePartnerClient{}, nil, &fakeBrowser{}, nil)

		result, err := hybrid.FindAvailableSlots(context.Background(), "usa", "tourist")
		require.NoError(t, err)

		require.Len(t, result.Official, 1)
		assert.Equal(t, models.MethodOfficial, result.Official[0].Source)
	})

	t.Run("a failing channel becomes a warning, not an error", func(t *testing.T) {
		official := &fakeOfficialClient{slots: []models.AppointmentSlot{
			testSlot("off-1", "2024-01-15", "09:00", true),
		}}
		// No partners and no scraping targets are configured.
		hybrid := newTestHybrid(official, &fakePartnerClient{}, nil, &fakeBrowser{}, nil)

		result, err := hybrid.FindAvailableSlots(context.Background(), "usa", "tourist")
		require.NoError(t, err)

		assert.Len(t, result.Consolidated, 1)
		var sawPartner, sawScraping bool
		for _, w := range result.Warnings {
			if strings.HasPrefix(w, "partner:") {
				sawPartner = true
			}
			if strings.HasPrefix(w, "scraping:") {
				sawScraping = true
			}
		}
		assert.True(t, sawPartner)
		assert.True(t, sawScraping)
	})

	t.Run("scraped slots always bring the compliance warnings", func(t *testing.T) {
		browser := &fakeBrowser{slots: []models.AppointmentSlot{
			testSlot("scr-1", "2024-01-20", "11:00", true),
		}}
		hybrid := newTestHybrid(&fakeOfficialClient{}, &fakePartnerClient{}, nil, browser,
			[]models.ScrapingTarget{testTarget("usa-portal", "usa", true, 0.9, 10)})

		result, err := hybrid.FindAvailableSlots(context.Background(), "usa", "tourist")
		require.NoError(t, err)

		require.Len(t, result.Scraping, 1)
		assert.Equal(t, models.MethodScraping, result.Scraping[0].Source)

		assert.Subset(t, result.Warnings, scrapingWarnings())
	})
}

func TestConsolidateSlots(t *testing.T) {
	officialSlot := testSlot("a", "2024-01-15", "09:00", true)
	officialSlot.Source = models.MethodOfficial
	scrapedDuplicate := testSlot("b", "2024-01-15", "09:00", true)
	scrapedDuplicate.Source = models.MethodScraping

	t.Run("scraped duplicate never shadows an official slot", func(t *testing.T) {
		out := consolidateSlots(
			[]models.AppointmentSlot{scrapedDuplicate},
			[]models.AppointmentSlot{officialSlot},
		)
		require.Len(t, out, 1)
		assert.Equal(t, models.MethodOfficial, out[0].Source)
	})

	t.Run("consolidation is idempotent", func(t *testing.T) {
		once := consolidateSlots([]models.AppointmentSlot{officialSlot, scrapedDuplicate})
		twice := consolidateSlots(once)
		assert.Equal(t, once, twice)
	})
}
