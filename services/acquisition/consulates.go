package acquisition

import "strings"

// ConsulateConfig maps an enumerated consulate key to its official booking
// backend. Routing is always by key, never by substring matching on free text.
type ConsulateConfig struct {
	Key         string
	Country     string
	DisplayName string
	BaseURL     string
}

// consulateRegistry is the lookup table for every supported consulate.
// Keys are lowercase and stable; they appear in BookingRequest.Consulate.
var consulateRegistry = map[string]ConsulateConfig{
	"usa": {
		Key:         "usa",
		Country:     "usa",
		DisplayName: "U.S. Consulate",
		BaseURL:     "https://ais.usvisa-info.com/api",
	},
	"uk": {
		Key:         "uk",
		Country:     "uk",
		DisplayName: "UK Visa Application Centre",
		BaseURL:     "https://visas-immigration.service.gov.uk/api",
	},
	"canada": {
		Key:         "canada",
		Country:     "canada",
		DisplayName: "Canada Visa Application Centre",
		BaseURL:     "https://visa.vfsglobal.com/api/canada",
	},
	"schengen": {
		Key:         "schengen",
		Country:     "schengen",
		DisplayName: "Schengen Visa Centre",
		BaseURL:     "https://visa.vfsglobal.com/api/schengen",
	},
	"australia": {
		Key:         "australia",
		Country:     "australia",
		DisplayName: "Australian Immigration Office",
		BaseURL:     "https://online.immi.gov.au/api",
	},
}

// LookupConsulate resolves a consulate key to its configuration.
func LookupConsulate(key string) (ConsulateConfig, bool) {
	cfg, ok := consulateRegistry[strings.ToLower(strings.TrimSpace(key))]
	return cfg, ok
}

// ConsulatesByCountry returns every consulate configured for a country.
func ConsulatesByCountry(country string) []ConsulateConfig {
	country = strings.ToLower(strings.TrimSpace(country))
	var out []ConsulateConfig
	for _, key := range consulateKeys {
		cfg := consulateRegistry[key]
		if cfg.Country == country {
			out = append(out, cfg)
		}
	}
	return out
}

// consulateKeys keeps lookup iteration deterministic.
var consulateKeys = []string{"usa", "uk", "canada", "schengen", "australia"}
