package acquisition

import (
	"sort"

	"visaflow/models"
)

// SelectBestSlot picks the slot to book from an availability snapshot.
// Preferred dates are walked in priority order and the first available match
// wins; if none of the preferred dates can be served, the earliest available
// slot overall is returned. Returns nil when nothing is available.
func SelectBestSlot(slots []models.AppointmentSlot, preferredDates []string) *models.AppointmentSlot {
	for _, date := range preferredDates {
		for i := range slots {
			if slots[i].Available && slots[i].Date == date {
				return &slots[i]
			}
		}
	}

	var earliest *models.AppointmentSlot
	for i := range slots {
		if !slots[i].Available {
			continue
		}
		if earliest == nil || slotBefore(slots[i], *earliest) {
			earliest = &slots[i]
		}
	}
	return earliest
}

func slotBefore(a, b models.AppointmentSlot) bool {
	if a.Date != b.Date {
		return a.Date < b.Date
	}
	return a.Time < b.Time
}

// nextAvailableDates lists up to n distinct upcoming dates with availability,
// used to enrich NoAvailability errors so callers can retry manually.
func nextAvailableDates(slots []models.AppointmentSlot, n int) []string {
	seen := make(map[string]bool)
	var dates []string
	for _, s := range slots {
		if s.Available && !seen[s.Date] {
			seen[s.Date] = true
			dates = append(dates, s.Date)
		}
	}
	sort.Strings(dates)
	if len(dates) > n {
		dates = dates[:n]
	}
	return dates
}
