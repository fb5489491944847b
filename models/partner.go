package models

// Partner feature flags used by the scoring function.
const (
	FeatureUrgentProcessing = "urgent_processing"
	FeatureRushService      = "rush_service"
	FeatureOnlineVisas      = "online_visas"
)

// PartnerPricing describes a broker's commercial terms. PerTransaction is the
// only component that feeds the booking cost formula.
type PartnerPricing struct {
	Setup          float64 `bson:"setup" json:"setup"`
	Monthly        float64 `bson:"monthly" json:"monthly"`
	PerTransaction float64 `bson:"perTransaction" json:"perTransaction"`
}

// PartnerProfile is the static configuration for one commercial visa broker.
// APIKey is overlaid from environment configuration and never persisted; an
// empty key makes the partner unusable and excludes it from selection.
type PartnerProfile struct {
	ID                 string         `bson:"id" json:"id"`
	Name               string         `bson:"name" json:"name"`
	BaseURL            string         `bson:"baseUrl" json:"baseUrl"`
	APIKey             string         `bson:"-" json:"-"`
	SupportedCountries []string       `bson:"supportedCountries" json:"supportedCountries"`
	Features           []string       `bson:"features" json:"features"`
	Pricing            PartnerPricing `bson:"pricing" json:"pricing"`
	Reliability        float64        `bson:"reliability" json:"reliability"` // 0..1
	SpeedMs            int            `bson:"speedMs" json:"speedMs"`         // typical processing latency
}

// SupportsCountry reports whether the partner can book in the given country.
func (p PartnerProfile) SupportsCountry(country string) bool {
	for _, c := range p.SupportedCountries {
		if c == country {
			return true
		}
	}
	return false
}

// HasFeature reports whether the partner advertises the given feature flag.
func (p PartnerProfile) HasFeature(feature string) bool {
	for _, f := range p.Features {
		if f == feature {
			return true
		}
	}
	return false
}
