package scrapetargetRepo

import "visaflow/models"

// ScrapeTargetRepository defines data access for the portal-target catalog.
// The Enabled legal flag is overlaid from configuration by callers; the value
// in the catalog is only the default.
type ScrapeTargetRepository interface {
	// GetAll retrieves every configured target, in catalog order.
	GetAll() ([]models.ScrapingTarget, error)
	// GetByID retrieves a target by its unique ID.
	GetByID(id string) (*models.ScrapingTarget, error)
	// GetByCountry returns targets for the given country, in catalog order.
	GetByCountry(country string) ([]models.ScrapingTarget, error)
	// Upsert inserts or replaces a target.
	Upsert(target *models.ScrapingTarget) error
}

// StaticScrapeTargetRepo serves a fixed in-memory catalog. Used at bootstrap
// when no database is configured and by tests.
type StaticScrapeTargetRepo struct {
	Targets []models.ScrapingTarget
}

func (r *StaticScrapeTargetRepo) GetAll() ([]models.ScrapingTarget, error) {
	out := make([]models.ScrapingTarget, len(r.Targets))
	copy(out, r.Targets)
	return out, nil
}

func (r *StaticScrapeTargetRepo) GetByID(id string) (*models.ScrapingTarget, error) {
	for _, t := range r.Targets {
		if t.ID == id {
			cp := t
			return &cp, nil
		}
	}
	return nil, ErrTargetNotFound
}

func (r *StaticScrapeTargetRepo) GetByCountry(country string) ([]models.ScrapingTarget, error) {
	var out []models.ScrapingTarget
	for _, t := range r.Targets {
		if t.Country == country {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *StaticScrapeTargetRepo) Upsert(target *models.ScrapingTarget) error {
	for i, t := range r.Targets {
		if t.ID == target.ID {
			r.Targets[i] = *target
			return nil
		}
	}
	r.Targets = append(r.Targets, *target)
	return nil
}
