package models

import "time"

// TargetSelectors holds the CSS selectors used to read availability from one
// consulate portal. The structure varies per portal, the selector roles do not.
type TargetSelectors struct {
	SlotRows string `bson:"slotRows" json:"slotRows"` // one element per visible slot
	Date     string `bson:"date" json:"date"`
	Time     string `bson:"time" json:"time"`
	Location string `bson:"location" json:"location"`
}

// ScrapingTarget is the configuration for one consulate booking portal.
// Enabled=false is a hard legal gate: the adapter refuses to scrape the target
// regardless of any other setting. The authoritative last-access timestamp is
// owned by the scraping service's limiter; the field here is populated only
// when a target is reported outward.
type ScrapingTarget struct {
	ID                 string          `bson:"id" json:"id"`
	Name               string          `bson:"name" json:"name"`
	URL                string          `bson:"url" json:"url"`
	Country            string          `bson:"country" json:"country"`
	Selectors          TargetSelectors `bson:"selectors" json:"selectors"`
	RateLimitPerMinute int             `bson:"rateLimitPerMinute" json:"rateLimitPerMinute"`
	LastAccess         time.Time       `bson:"-" json:"lastAccess,omitempty"`
	Enabled            bool            `bson:"enabled" json:"enabled"`
	Reliability        float64         `bson:"reliability" json:"reliability"`
}
