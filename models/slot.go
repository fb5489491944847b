package models

// AppointmentSlot is a point-in-time observation of consular availability.
// "Available" is not a reservation; any slot may be stale the instant it is read.
type AppointmentSlot struct {
	ID        string `json:"id"`
	Date      string `json:"date"` // "2006-01-02"
	Time      string `json:"time"` // "15:04", 24h
	Available bool   `json:"available"`
	Location  string `json:"location"`
	Consulate string `json:"consulate"`
	VisaType  string `json:"visaType"`
	Country   string `json:"country"`
	Source    string `json:"source,omitempty"` // set by slot discovery: "official", "partner" or "scraping"
}

// SlotKey identifies a slot independently of which channel observed it,
// so discovery can de-duplicate the same physical slot seen twice. Country is
// the identity component here: every channel knows the country it queried,
// while only the official channel knows a consulate key.
func (s AppointmentSlot) SlotKey() string {
	return s.Country + "|" + s.Date + "|" + s.Time + "|" + s.Location
}
