package acquisition

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"visaflow/models"

	"github.com/chromedp/chromedp"
)

// scrapedRow is the raw record extracted from a portal page before it is
// normalized into an AppointmentSlot.
type scrapedRow struct {
	Date     string `json:"date"`
	Time     string `json:"time"`
	Location string `json:"location"`
	Full     bool   `json:"full"`
}

// ChromeBrowser implements Browser on a single shared headless Chrome
// process. Starting Chrome is expensive, so the process lives for the whole
// service lifetime; each call opens exactly one tab and tears it down again.
type ChromeBrowser struct {
	navTimeout time.Duration

	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

func NewChromeBrowser(navTimeout time.Duration) *ChromeBrowser {
	return &ChromeBrowser{navTimeout: navTimeout}
}

// FetchSlots opens one tab, reads the availability table with the target's
// selector set, and closes the tab. Calls are serialized: one page at a time.
func (b *ChromeBrowser) FetchSlots(ctx context.Context, target models.ScrapingTarget, visaType string) ([]models.AppointmentSlot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ensureBrowser(); err != nil {
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	// New tab in the shared browser; cancelling closes the tab only.
	tabCtx, closeTab := chromedp.NewContext(b.browserCtx)
	defer closeTab()

	timeout := b.navTimeout
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		timeout = time.Until(deadline)
	}
	tabCtx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()

	sel := target.Selectors
	script := fmt.Sprintf(`Array.from(document.querySelectorAll(%q)).map(row => ({
		date: (row.querySelector(%q) || {}).textContent || '',
		time: (row.querySelector(%q) || {}).textContent || '',
		location: (row.querySelector(%q) || {}).textContent || '',
		full: row.classList.contains('fully-booked') || row.hasAttribute('disabled')
	}))`, sel.SlotRows, sel.Date, sel.Time, sel.Location)

	var rows []scrapedRow
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(target.URL),
		chromedp.WaitVisible(sel.SlotRows, chromedp.ByQuery),
		chromedp.Evaluate(script, &rows),
	)
	if err != nil {
		return nil, fmt.Errorf("navigation of %s failed: %w", target.URL, err)
	}

	slots := make([]models.AppointmentSlot, 0, len(rows))
	for _, row := range rows {
		date := strings.TrimSpace(row.Date)
		timeOfDay := strings.TrimSpace(row.Time)
		if date == "" {
			continue
		}
		slots = append(slots, models.AppointmentSlot{
			ID:        fmt.Sprintf("SCR-%s-%s-%s", target.ID, date, timeOfDay),
			Date:      date,
			Time:      timeOfDay,
			Available: !row.Full,
			Location:  strings.TrimSpace(row.Location),
			Consulate: target.Country,
			VisaType:  visaType,
			Country:   target.Country,
		})
	}
	return slots, nil
}

// ensureBrowser lazily starts the shared Chrome process. Caller holds b.mu.
func (b *ChromeBrowser) ensureBrowser() error {
	if b.browserCtx != nil && b.browserCtx.Err() == nil {
		return nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.NoSandbox,
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Launch eagerly so a broken Chrome install fails here, not on first scrape.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return err
	}

	b.allocCancel = allocCancel
	b.browserCtx = browserCtx
	b.browserCancel = browserCancel
	return nil
}

// Close tears down the shared browser process.
func (b *ChromeBrowser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browserCancel != nil {
		b.browserCancel()
		b.browserCancel = nil
	}
	if b.allocCancel != nil {
		b.allocCancel()
		b.allocCancel = nil
	}
	b.browserCtx = nil
}
