package partnerRepo

import "visaflow/models"

// PartnerRepository defines data access for the broker catalog. API keys are
// never stored in the catalog; callers overlay them from configuration.
type PartnerRepository interface {
	// GetAll retrieves every configured partner, in catalog order.
	GetAll() ([]models.PartnerProfile, error)
	// GetByID retrieves a partner by its unique ID.
	GetByID(id string) (*models.PartnerProfile, error)
	// GetByCountry returns partners supporting the given country, in catalog order.
	GetByCountry(country string) ([]models.PartnerProfile, error)
	// Upsert inserts or replaces a partner profile.
	Upsert(partner *models.PartnerProfile) error
}

// StaticPartnerRepo serves a fixed in-memory catalog. Used at bootstrap when
// no database is configured and by tests.
type StaticPartnerRepo struct {
	Partners []models.PartnerProfile
}

func (r *StaticPartnerRepo) GetAll() ([]models.PartnerProfile, error) {
	out := make([]models.PartnerProfile, len(r.Partners))
	copy(out, r.Partners)
	return out, nil
}

func (r *StaticPartnerRepo) GetByID(id string) (*models.PartnerProfile, error) {
	for _, p := range r.Partners {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, ErrPartnerNotFound
}

func (r *StaticPartnerRepo) GetByCountry(country string) ([]models.PartnerProfile, error) {
	var out []models.PartnerProfile
	for _, p := range r.Partners {
		if p.SupportsCountry(country) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *StaticPartnerRepo) Upsert(partner *models.PartnerProfile) error {
	for i, p := range r.Partners {
		if p.ID == partner.ID {
			r.Partners[i] = *partner
			return nil
		}
	}
	r.Partners = append(r.Partners, *partner)
	return nil
}
