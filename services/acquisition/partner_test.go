package acquisition

import (
	"context"
	"testing"

	partnerRepo "visaflow/database/repository/partner"
	"visaflow/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakePartnerClient records calls and serves canned results. Shared by the
// orchestrator and lifecycle tests.
type fakePartnerClient struct {
	bookResult PartnerBookingResult
	bookErr    error
	slots      []models.AppointmentSlot
	availErr   error
	cancelErr  error

	bookCalls   int
	cancelCalls int
	cancelRefs  []string
}

func (f *fakePartnerClient) Book(ctx context.Context, partner models.PartnerProfile, req models.BookingRequest, urgency string) (PartnerBookingResult, error) {
	f.bookCalls++
	if f.bookErr != nil {
		return PartnerBookingResult{}, f.bookErr
	}
	return f.bookResult, nil
}

func (f *fakePartnerClient) Availability(ctx context.Context, partner models.PartnerProfile, country, visaType string) ([]models.AppointmentSlot, error) {
	if f.availErr != nil {
		return nil, f.availErr
	}
	return f.slots, nil
}

func (f *fakePartnerClient) Cancel(ctx context.Context, partner models.PartnerProfile, reference string) error {
	f.cancelCalls++
	f.cancelRefs = append(f.cancelRefs, reference)
	return f.cancelErr
}

func testPartner(id string, perTxn, reliability float64, speedMs int, features ...string) models.PartnerProfile {
	return models.PartnerProfile{
		ID:                 id,
		Name:               id,
		BaseURL:            "https://" + id + ".example.com",
		SupportedCountries: []string{"usa", "uk"},
		Features:           features,
		Pricing:            models.PartnerPricing{PerTransaction: perTxn},
		Reliability:        reliability,
		SpeedMs:            speedMs,
	}
}

func newTestPartnerService(partners []models.PartnerProfile, client PartnerClient, keys map[string]string) *PartnerService {
	return NewPartnerService(
		&partnerRepo.StaticPartnerRepo{Partners: partners},
		map[string]PartnerClient{},
		client,
		keys,
		zap.NewNop(),
	)
}

func TestCalculateBookingCost(t *testing.T) {
	t.Run("normal urgency applies markup only", func(t *testing.T) {
		assert.InDelta(t, 18.75, CalculateBookingCost(15, models.UrgencyNormal), 0.001)
	})
	t.Run("urgent adds flat fee", func(t *testing.T) {
		assert.InDelta(t, 48.75, CalculateBookingCost(15, models.UrgencyUrgent), 0.001)
	})
	t.Run("express adds larger flat fee", func(t *testing.T) {
		assert.InDelta(t, 78.75, CalculateBookingCost(15, models.UrgencyExpress), 0.001)
	})
	t.Run("result is rounded to cents", func(t *testing.T) {
		assert.InDelta(t, 12.49, CalculateBookingCost(9.99, models.UrgencyNormal), 0.0001)
	})
}

func TestScorePartner(t *testing.T) {
	t.Run("cheaper partner scores higher on equal reliability and speed", func(t *testing.T) {
		a := testPartner("a", 10, 0.9, 1000)
		b := testPartner("b", 25, 0.9, 1000)

		scoreA := ScorePartner(a, "tourist", models.UrgencyNormal)
		scoreB := ScorePartner(b, "tourist", models.UrgencyNormal)

		assert.InDelta(t, 0.7333, scoreA, 0.001)
		assert.InDelta(t, 0.6333, scoreB, 0.001)
		assert.Greater(t, scoreA, scoreB)
	})

	t.Run("urgent requests reward urgent_processing", func(t *testing.T) {
		plain := testPartner("plain", 10, 0.9, 1000)
		urgent := testPartner("urgent", 10, 0.9, 1000, models.FeatureUrgentProcessing)

		base := ScorePartner(plain, "tourist", models.UrgencyUrgent)
		boosted := ScorePartner(urgent, "tourist", models.UrgencyUrgent)
		assert.InDelta(t, 0.05, boosted-base, 0.0001)
	})

	t.Run("online visa types reward online_visas", func(t *testing.T) {
		p := testPartner("p", 10, 0.9, 1000, models.FeatureOnlineVisas)
		withBonus := ScorePartner(p, "eVisa", models.UrgencyNormal)
		withoutBonus := ScorePartner(p, "tourist", models.UrgencyNormal)
		assert.InDelta(t, 0.05, withBonus-withoutBonus, 0.0001)
	})

	t.Run("speed and cost scores do not go negative", func(t *testing.T) {
		slow := testPartner("slow", 100, 0.5, 60000)
		score := ScorePartner(slow, "tourist", models.UrgencyNormal)
		assert.InDelta(t, 0.2, score, 0.0001, "only the reliability component should remain")
	})
}

func TestSelectPartner(t *testing.T) {
	t.Run("picks highest scoring eligible partner", func(t *testing.T) {
		a := testPartner("cheap", 10, 0.9, 1000)
		a.APIKey = "k"
		b := testPartner("pricey", 25, 0.9, 1000)
		b.APIKey = "k"

		picked, chErr := SelectPartner([]models.PartnerProfile{b, a}, "usa", "tourist", models.UrgencyNormal)
		require.Nil(t, chErr)
		assert.Equal(t, "cheap", picked.ID)
	})

	t.Run("ties keep catalog order", func(t *testing.T) {
		a := testPartner("first", 10, 0.9, 1000)
		a.APIKey = "k"
		b := testPartner("second", 10, 0.9, 1000)
		b.APIKey = "k"

		picked, chErr := SelectPartner([]models.PartnerProfile{a, b}, "usa", "tourist", models.UrgencyNormal)
		require.Nil(t, chErr)
		assert.Equal(t, "first", picked.ID)
	})

	t.Run("partners without an API key are excluded", func(t *testing.T) {
		noKey := testPartner("nokey", 5, 0.99, 500)
		withKey := testPartner("keyed", 25, 0.5, 4000)
		withKey.APIKey = "k"

		picked, chErr := SelectPartner([]models.PartnerProfile{noKey, withKey}, "usa", "tourist", models.UrgencyNormal)
		require.Nil(t, chErr)
		assert.Equal(t, "keyed", picked.ID)
	})

	t.Run("no eligible partner is a tagged failure", func(t *testing.T) {
		p := testPartner("eu-only", 10, 0.9, 1000)
		p.APIKey = "k"
		p.SupportedCountries = []string{"schengen"}

		picked, chErr := SelectPartner([]models.PartnerProfile{p}, "usa", "tourist", models.UrgencyNormal)
		assert.Nil(t, picked)
		require.NotNil(t, chErr)
		assert.Equal(t, CodeNoPartnerAvailable, chErr.Code)
	})
}

func TestPartnerServiceBook(t *testing.T) {
	t.Run("budget gate fires before any network call", func(t *testing.T) {
		client := &fakePartnerClient{}
		svc := newTestPartnerService(
			[]models.PartnerProfile{testPartner("fasttrack", 10, 0.9, 1000)},
			client,
			map[string]string{"fasttrack": "key-1"},
		)

		budget := 5.0
		out := svc.Book(context.Background(), models.BookingRequest{Consulate: "usa", VisaType: "tourist"},
			models.HybridBookingOptions{BudgetLimit: &budget})

		require.NotNil(t, out.Err)
		assert.Equal(t, CodeBudgetExceeded, out.Err.Code)
		assert.Zero(t, client.bookCalls, "rejected bookings must not reach the partner API")
	})

	t.Run("successful booking embeds the partner id in the appointment id", func(t *testing.T) {
		client := &fakePartnerClient{
			bookResult: PartnerBookingResult{
				Reference:    "REF123",
				Date:         "2024-01-15",
				Time:         "09:00",
				Location:     "Main Office",
				BaseCost:     15,
				Instructions: "Pay the consular fee at the counter.",
			},
		}
		svc := newTestPartnerService(
			[]models.PartnerProfile{testPartner("fasttrack", 10, 0.9, 1000)},
			client,
			map[string]string{"fasttrack": "key-1"},
		)

		out := svc.Book(context.Background(), models.BookingRequest{Consulate: "usa", VisaType: "tourist"},
			models.HybridBookingOptions{Urgency: models.UrgencyNormal})

		require.Nil(t, out.Err)
		assert.True(t, out.Success)
		assert.Equal(t, "PRT-fasttrack-REF123", out.AppointmentID)
		assert.Equal(t, "REF123", out.ConfirmationCode)
		assert.InDelta(t, 18.75, out.Cost, 0.001)
	})

	t.Run("missing base cost falls back to catalog pricing", func(t *testing.T) {
		client := &fakePartnerClient{
			bookResult: PartnerBookingResult{Reference: "REF9", Date: "2024-01-15", Time: "09:00"},
		}
		svc := newTestPartnerService(
			[]models.PartnerProfile{testPartner("fasttrack", 12, 0.9, 1000)},
			client,
			map[string]string{"fasttrack": "key-1"},
		)

		out := svc.Book(context.Background(), models.BookingRequest{Consulate: "usa", VisaType: "tourist"},
			models.HybridBookingOptions{Urgency: models.UrgencyNormal})

		require.Nil(t, out.Err)
		assert.InDelta(t, 15.0, out.Cost, 0.001)
	})

	t.Run("no partner for country", func(t *testing.T) {
		svc := newTestPartnerService(nil, &fakePartnerClient{}, nil)

		out := svc.Book(context.Background(), models.BookingRequest{Consulate: "usa", VisaType: "tourist"},
			models.HybridBookingOptions{})

		require.NotNil(t, out.Err)
		assert.Equal(t, CodeNoPartnerAvailable, out.Err.Code)
	})
}

func TestPartnerServiceCancel(t *testing.T) {
	t.Run("strips the id prefix before calling the partner", func(t *testing.T) {
		client := &fakePartnerClient{}
		svc := newTestPartnerService(
			[]models.PartnerProfile{testPartner("fasttrack", 10, 0.9, 1000)},
			client,
			map[string]string{"fasttrack": "key-1"},
		)

		err := svc.Cancel(context.Background(), "fasttrack", "PRT-fasttrack-REF-123")
		require.NoError(t, err)
		require.Len(t, client.cancelRefs, 1)
		assert.Equal(t, "REF-123", client.cancelRefs[0], "the partner sees its own reference, not the composite id")
	})

	t.Run("partner without an API key cannot cancel", func(t *testing.T) {
		client := &fakePartnerClient{}
		svc := newTestPartnerService(
			[]models.PartnerProfile{testPartner("fasttrack", 10, 0.9, 1000)},
			client,
			nil,
		)

		err := svc.Cancel(context.Background(), "fasttrack", "PRT-fasttrack-REF")
		require.Error(t, err)
		assert.Equal(t, CodeNoPartnerAvailable, AsChannelError(err).Code)
		assert.Zero(t, client.cancelCalls)
	})
}
