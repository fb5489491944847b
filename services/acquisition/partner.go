// File: services/acquisition/partner.go
package acquisition

import (
	"context"
	"fmt"
	"math"
	"strings"

	partnerRepo "visaflow/database/repository/partner"
	"visaflow/models"

	"go.uber.org/zap"
)

// partnerIDPrefix tags broker-issued appointment ids. The issuing partner id
// is embedded so a later cancel can route without extra state:
// PRT-<partnerID>-<reference>.
const partnerIDPrefix = "PRT-"

// Scoring weights and ceilings. The feature component is a bonus on top of
// the normalized components, not a veto: a partner missing a feature still
// competes on reliability, speed and cost.
const (
	weightReliability = 0.4
	weightSpeed       = 0.3
	weightCost        = 0.2
	weightFeatures    = 0.1

	speedCeilingMs = 5000.0
	costCeiling    = 30.0
	featureBonus   = 0.5
)

// Business rules for partner pricing: a fixed 25% markup on the broker's
// charge plus a flat urgency fee.
const costMarkupRate = 0.25

func urgencyFee(urgency string) float64 {
	switch urgency {
	case models.UrgencyUrgent:
		return 30
	case models.UrgencyExpress:
		return 60
	default:
		return 0
	}
}

// CalculateBookingCost computes what the client is charged for a successful
// partner booking, rounded to cents.
func CalculateBookingCost(partnerCost float64, urgency string) float64 {
	return math.Round((partnerCost*(1+costMarkupRate)+urgencyFee(urgency))*100) / 100
}

// ScorePartner rates one eligible partner for a request.
func ScorePartner(p models.PartnerProfile, visaType, urgency string) float64 {
	speedScore := 1 - float64(p.SpeedMs)/speedCeilingMs
	if speedScore < 0 {
		speedScore = 0
	}
	costScore := 1 - p.Pricing.PerTransaction/costCeiling
	if costScore < 0 {
		costScore = 0
	}

	var features float64
	if urgency == models.UrgencyUrgent && p.HasFeature(models.FeatureUrgentProcessing) {
		features += featureBonus
	}
	if urgency == models.UrgencyExpress && p.HasFeature(models.FeatureRushService) {
		features += featureBonus
	}
	if isOnlineVisaType(visaType) && p.HasFeature(models.FeatureOnlineVisas) {
		features += featureBonus
	}

	return weightReliability*p.Reliability +
		weightSpeed*speedScore +
		weightCost*costScore +
		weightFeatures*features
}

func isOnlineVisaType(visaType string) bool {
	v := strings.ToLower(visaType)
	return strings.Contains(v, "evisa") ||
		strings.Contains(v, "e-visa") ||
		strings.Contains(v, "online") ||
		strings.Contains(v, "eta")
}

// EligiblePartners filters to partners that can serve the country and hold a
// configured API key, preserving catalog order.
func EligiblePartners(partners []models.PartnerProfile, country string) []models.PartnerProfile {
	var out []models.PartnerProfile
	for _, p := range partners {
		if p.APIKey == "" {
			continue
		}
		if !p.SupportsCountry(country) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// SelectPartner picks the highest-scoring eligible partner. Ties keep the
// first-listed partner, so selection is deterministic for a fixed catalog.
func SelectPartner(partners []models.PartnerProfile, country, visaType, urgency string) (*models.PartnerProfile, *ChannelError) {
	eligible := EligiblePartners(partners, country)
	if len(eligible) == 0 {
		return nil, NewChannelError(CodeNoPartnerAvailable, "no partner supports country %q with a configured API key", country)
	}

	best := eligible[0]
	bestScore := ScorePartner(best, visaType, urgency)
	for _, p := range eligible[1:] {
		if score := ScorePartner(p, visaType, urgency); score > bestScore {
			best = p
			bestScore = score
		}
	}
	return &best, nil
}

// PartnerBookingOutcome is the normalized result of a partner booking call.
type PartnerBookingOutcome struct {
	Success          bool
	Provider         string // partner id
	ProviderName     string
	AppointmentID    string
	ConfirmationCode string
	Date             string
	Time             string
	Location         string
	Cost             float64
	Instructions     string
	Err              *ChannelError
}

// PartnerService selects the best commercial broker for a request and
// delegates booking to it through a uniform call shape.
type PartnerService struct {
	Repo          partnerRepo.PartnerRepository
	Clients       map[string]PartnerClient // keyed by partner id
	DefaultClient PartnerClient
	APIKeys       map[string]string // env overlay, partner id -> key
	Logger        *zap.Logger
}

func NewPartnerService(repo partnerRepo.PartnerRepository, clients map[string]PartnerClient, defaultClient PartnerClient, apiKeys map[string]string, logger *zap.Logger) *PartnerService {
	return &PartnerService{
		Repo:          repo,
		Clients:       clients,
		DefaultClient: defaultClient,
		APIKeys:       apiKeys,
		Logger:        logger,
	}
}

// Book selects a partner and books through it. The budget gate fires before
// any network call is made.
func (s *PartnerService) Book(ctx context.Context, req models.BookingRequest, opts models.HybridBookingOptions) PartnerBookingOutcome {
	country := countryForConsulate(req.Consulate)

	partners, err := s.loadPartners()
	if err != nil {
		return partnerFailure(NewChannelError(CodeTechnicalError, "partner catalog unavailable: %v", err))
	}

	partner, chErr := SelectPartner(partners, country, req.VisaType, opts.Urgency)
	if chErr != nil {
		return partnerFailure(chErr)
	}

	if opts.BudgetLimit != nil && partner.Pricing.PerTransaction > *opts.BudgetLimit {
		return partnerFailure(NewChannelError(CodeBudgetExceeded,
			"partner %s charges %.2f per transaction, over the budget limit %.2f",
			partner.Name, partner.Pricing.PerTransaction, *opts.BudgetLimit))
	}

	result, err := s.clientFor(partner.ID).Book(ctx, *partner, req, opts.Urgency)
	if err != nil {
		return partnerFailure(AsChannelError(fmt.Errorf("booking via %s failed: %w", partner.Name, err)))
	}

	baseCost := result.BaseCost
	if baseCost == 0 {
		baseCost = partner.Pricing.PerTransaction
	}

	outcome := PartnerBookingOutcome{
		Success:          true,
		Provider:         partner.ID,
		ProviderName:     partner.Name,
		AppointmentID:    fmt.Sprintf("%s%s-%s", partnerIDPrefix, partner.ID, result.Reference),
		ConfirmationCode: result.Reference,
		Date:             result.Date,
		Time:             result.Time,
		Location:         result.Location,
		Cost:             CalculateBookingCost(baseCost, opts.Urgency),
		Instructions:     result.Instructions,
	}

	s.Logger.Info("partner booking confirmed",
		zap.String("partner", partner.ID),
		zap.String("appointmentId", outcome.AppointmentID),
		zap.Float64("cost", outcome.Cost))

	return outcome
}

// FindSlots is the read-only availability path used by slot discovery. It
// queries the best-scoring partner for the country.
func (s *PartnerService) FindSlots(ctx context.Context, country, visaType string) ([]models.AppointmentSlot, error) {
	partners, err := s.loadPartners()
	if err != nil {
		return nil, NewChannelError(CodeTechnicalError, "partner catalog unavailable: %v", err)
	}
	partner, chErr := SelectPartner(partners, country, visaType, models.UrgencyNormal)
	if chErr != nil {
		return nil, chErr
	}
	slots, err := s.clientFor(partner.ID).Availability(ctx, *partner, country, visaType)
	if err != nil {
		return nil, AsChannelError(fmt.Errorf("availability via %s failed: %w", partner.Name, err))
	}
	// Wire-decoded slots may omit the country; de-duplication keys on it.
	for i := range slots {
		if slots[i].Country == "" {
			slots[i].Country = country
		}
	}
	return slots, nil
}

// Cancel routes a cancellation to the partner that issued the appointment.
func (s *PartnerService) Cancel(ctx context.Context, partnerID, appointmentID string) error {
	partner, err := s.Repo.GetByID(partnerID)
	if err != nil {
		return NewChannelError(CodeTechnicalError, "partner %s not found: %v", partnerID, err)
	}
	partner.APIKey = s.APIKeys[partner.ID]
	if partner.APIKey == "" {
		return NewChannelError(CodeNoPartnerAvailable, "partner %s has no configured API key", partnerID)
	}

	reference := strings.TrimPrefix(appointmentID, partnerIDPrefix+partnerID+"-")
	if err := s.clientFor(partner.ID).Cancel(ctx, *partner, reference); err != nil {
		return NewChannelError(CodeTechnicalError, "cancellation via %s failed: %v", partner.Name, err)
	}
	return nil
}

// loadPartners fetches the catalog and overlays API keys from configuration.
// Catalog order is preserved because it breaks scoring ties.
func (s *PartnerService) loadPartners() ([]models.PartnerProfile, error) {
	partners, err := s.Repo.GetAll()
	if err != nil {
		return nil, err
	}
	for i := range partners {
		partners[i].APIKey = s.APIKeys[partners[i].ID]
	}
	return partners, nil
}

func (s *PartnerService) clientFor(partnerID string) PartnerClient {
	if c, ok := s.Clients[partnerID]; ok {
		return c
	}
	return s.DefaultClient
}

// countryForConsulate maps a consulate key to its country, falling back to the
// raw key when the consulate is not in the registry.
func countryForConsulate(consulate string) string {
	if cfg, ok := LookupConsulate(consulate); ok {
		return cfg.Country
	}
	return strings.ToLower(strings.TrimSpace(consulate))
}

func partnerFailure(chErr *ChannelError) PartnerBookingOutcome {
	return PartnerBookingOutcome{Err: chErr}
}
