package acquisition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"visaflow/models"

	"github.com/google/uuid"
)

// PartnerBookingResult is the normalized shape every broker client produces,
// whatever its wire protocol looks like.
type PartnerBookingResult struct {
	Reference    string
	Date         string
	Time         string
	Location     string
	BaseCost     float64 // the broker's own charge, before markup
	Instructions string
}

// PartnerClient is the uniform call shape for one broker's API.
type PartnerClient interface {
	Book(ctx context.Context, partner models.PartnerProfile, req models.BookingRequest, urgency string) (PartnerBookingResult, error)
	Availability(ctx context.Context, partner models.PartnerProfile, country, visaType string) ([]models.AppointmentSlot, error)
	Cancel(ctx context.Context, partner models.PartnerProfile, reference string) error
}

// NewPartnerClients wires the broker-specific clients. Brokers without a
// dedicated implementation fall back to the generic JSON client.
func NewPartnerClients(timeout time.Duration) (map[string]PartnerClient, PartnerClient) {
	hc := &http.Client{Timeout: timeout}
	clients := map[string]PartnerClient{
		"visaexpress": &visaExpressClient{hc: hc},
		"globalvisa":  &globalVisaClient{hc: hc},
	}
	return clients, &genericPartnerClient{hc: hc}
}

// visaExpressClient talks to the VisaExpress v2 API, which wraps every
// response in a status envelope.
type visaExpressClient struct {
	hc *http.Client
}

func (c *visaExpressClient) Book(ctx context.Context, partner models.PartnerProfile, req models.BookingRequest, urgency string) (PartnerBookingResult, error) {
	payload := map[string]any{
		"destination": countryForConsulate(req.Consulate),
		"visaType":    req.VisaType,
		"urgency":     urgency,
		"dates":       req.PreferredDates,
		"applicant": map[string]string{
			"name":     req.ApplicantInfo.FullName,
			"email":    req.ApplicantInfo.Email,
			"phone":    req.ApplicantInfo.Phone,
			"passport": req.ApplicantInfo.PassportNumber,
		},
	}
	var resp struct {
		Status string `json:"status"`
		Error  string `json:"error"`
		Data   struct {
			Ref          string  `json:"ref"`
			Scheduled    string  `json:"scheduled"` // "2006-01-02T15:04"
			Center       string  `json:"center"`
			Fee          float64 `json:"fee"`
			Instructions string  `json:"instructions"`
		} `json:"data"`
	}
	if err := postPartnerJSON(ctx, c.hc, partner, partner.BaseURL+"/v2/bookings", payload, &resp); err != nil {
		return PartnerBookingResult{}, err
	}
	if resp.Status != "confirmed" {
		return PartnerBookingResult{}, fmt.Errorf("visaexpress rejected booking: %s", resp.Error)
	}

	date, timeOfDay := splitDateTime(resp.Data.Scheduled)
	return PartnerBookingResult{
		Reference:    resp.Data.Ref,
		Date:         date,
		Time:         timeOfDay,
		Location:     resp.Data.Center,
		BaseCost:     resp.Data.Fee,
		Instructions: resp.Data.Instructions,
	}, nil
}

func (c *visaExpressClient) Availability(ctx context.Context, partner models.PartnerProfile, country, visaType string) ([]models.AppointmentSlot, error) {
	endpoint := fmt.Sprintf("%s/v2/availability?country=%s&visaType=%s",
		partner.BaseURL, url.QueryEscape(country), url.QueryEscape(visaType))
	var resp struct {
		Status string `json:"status"`
		Data   []struct {
			Scheduled string `json:"scheduled"`
			Center    string `json:"center"`
			Open      bool   `json:"open"`
		} `json:"data"`
	}
	if err := getPartnerJSON(ctx, c.hc, partner, endpoint, &resp); err != nil {
		return nil, err
	}

	slots := make([]models.AppointmentSlot, 0, len(resp.Data))
	for i, w := range resp.Data {
		date, timeOfDay := splitDateTime(w.Scheduled)
		slots = append(slots, models.AppointmentSlot{
			ID:        fmt.Sprintf("%s-av-%d", partner.ID, i),
			Date:      date,
			Time:      timeOfDay,
			Available: w.Open,
			Location:  w.Center,
			VisaType:  visaType,
			Country:   country,
		})
	}
	return slots, nil
}

func (c *visaExpressClient) Cancel(ctx context.Context, partner models.PartnerProfile, reference string) error {
	endpoint := fmt.Sprintf("%s/v2/bookings/%s/cancel", partner.BaseURL, url.PathEscape(reference))
	var resp struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	if err := postPartnerJSON(ctx, c.hc, partner, endpoint, map[string]any{}, &resp); err != nil {
		return err
	}
	if resp.Status != "cancelled" {
		return fmt.Errorf("visaexpress refused cancellation: %s", resp.Error)
	}
	return nil
}

// globalVisaClient talks to the GlobalVisa API, which returns flat payloads
// with its own field naming.
type globalVisaClient struct {
	hc *http.Client
}

func (c *globalVisaClient) Book(ctx context.Context, partner models.PartnerProfile, req models.BookingRequest, urgency string) (PartnerBookingResult, error) {
	payload := map[string]any{
		"country":        countryForConsulate(req.Consulate),
		"visa_category":  req.VisaType,
		"priority":       urgency != models.UrgencyNormal,
		"requested_days": req.PreferredDates,
		"applicant_name": req.ApplicantInfo.FullName,
		"applicant_mail": req.ApplicantInfo.Email,
		"passport_no":    req.ApplicantInfo.PassportNumber,
	}
	var resp struct {
		BookingReference string  `json:"bookingReference"`
		ScheduledDate    string  `json:"scheduledDate"`
		ScheduledTime    string  `json:"scheduledTime"`
		OfficeAddress    string  `json:"officeAddress"`
		ChargedAmount    float64 `json:"chargedAmount"`
		Notes            string  `json:"notes"`
		FailureReason    string  `json:"failureReason"`
	}
	if err := postPartnerJSON(ctx, c.hc, partner, partner.BaseURL+"/api/book", payload, &resp); err != nil {
		return PartnerBookingResult{}, err
	}
	if resp.BookingReference == "" {
		return PartnerBookingResult{}, fmt.Errorf("globalvisa rejected booking: %s", resp.FailureReason)
	}
	return PartnerBookingResult{
		Reference:    resp.BookingReference,
		Date:         resp.ScheduledDate,
		Time:         resp.ScheduledTime,
		Location:     resp.OfficeAddress,
		BaseCost:     resp.ChargedAmount,
		Instructions: resp.Notes,
	}, nil
}

func (c *globalVisaClient) Availability(ctx context.Context, partner models.PartnerProfile, country, visaType string) ([]models.AppointmentSlot, error) {
	endpoint := fmt.Sprintf("%s/api/slots?country=%s&visa_category=%s",
		partner.BaseURL, url.QueryEscape(country), url.QueryEscape(visaType))
	var resp []struct {
		Day      string `json:"day"`
		At       string `json:"at"`
		Office   string `json:"office"`
		Bookable bool   `json:"bookable"`
	}
	if err := getPartnerJSON(ctx, c.hc, partner, endpoint, &resp); err != nil {
		return nil, err
	}

	slots := make([]models.AppointmentSlot, 0, len(resp))
	for i, w := range resp {
		slots = append(slots, models.AppointmentSlot{
			ID:        fmt.Sprintf("%s-av-%d", partner.ID, i),
			Date:      w.Day,
			Time:      w.At,
			Available: w.Bookable,
			Location:  w.Office,
			VisaType:  visaType,
			Country:   country,
		})
	}
	return slots, nil
}

func (c *globalVisaClient) Cancel(ctx context.Context, partner models.PartnerProfile, reference string) error {
	endpoint := fmt.Sprintf("%s/api/book/%s", partner.BaseURL, url.PathEscape(reference))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set("X-Api-Key", partner.APIKey)
	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return fmt.Errorf("globalvisa cancel failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("globalvisa cancel returned status %d", resp.StatusCode)
	}
	return nil
}

// genericPartnerClient covers brokers that follow the common JSON contract and
// have no dedicated client.
type genericPartnerClient struct {
	hc *http.Client
}

func (c *genericPartnerClient) Book(ctx context.Context, partner models.PartnerProfile, req models.BookingRequest, urgency string) (PartnerBookingResult, error) {
	payload := map[string]any{
		"country":        countryForConsulate(req.Consulate),
		"visaType":       req.VisaType,
		"urgency":        urgency,
		"preferredDates": req.PreferredDates,
		"applicant":      req.ApplicantInfo,
	}
	var resp struct {
		Success      bool    `json:"success"`
		Reference    string  `json:"reference"`
		Date         string  `json:"date"`
		Time         string  `json:"time"`
		Location     string  `json:"location"`
		Cost         float64 `json:"cost"`
		Instructions string  `json:"instructions"`
		Error        string  `json:"error"`
	}
	if err := postPartnerJSON(ctx, c.hc, partner, partner.BaseURL+"/bookings", payload, &resp); err != nil {
		return PartnerBookingResult{}, err
	}
	if !resp.Success {
		return PartnerBookingResult{}, fmt.Errorf("%s rejected booking: %s", partner.Name, resp.Error)
	}
	return PartnerBookingResult{
		Reference:    resp.Reference,
		Date:         resp.Date,
		Time:         resp.Time,
		Location:     resp.Location,
		BaseCost:     resp.Cost,
		Instructions: resp.Instructions,
	}, nil
}

func (c *genericPartnerClient) Availability(ctx context.Context, partner models.PartnerProfile, country, visaType string) ([]models.AppointmentSlot, error) {
	endpoint := fmt.Sprintf("%s/availability?country=%s&visaType=%s",
		partner.BaseURL, url.QueryEscape(country), url.QueryEscape(visaType))
	var resp struct {
		Slots []models.AppointmentSlot `json:"slots"`
	}
	if err := getPartnerJSON(ctx, c.hc, partner, endpoint, &resp); err != nil {
		return nil, err
	}
	return resp.Slots, nil
}

func (c *genericPartnerClient) Cancel(ctx context.Context, partner models.PartnerProfile, reference string) error {
	endpoint := fmt.Sprintf("%s/bookings/%s", partner.BaseURL, url.PathEscape(reference))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set("X-Api-Key", partner.APIKey)
	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return fmt.Errorf("cancel via %s failed: %w", partner.Name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("cancel via %s returned status %d", partner.Name, resp.StatusCode)
	}
	return nil
}

func postPartnerJSON(ctx context.Context, hc *http.Client, partner models.PartnerProfile, endpoint string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", partner.APIKey)
	// A fresh idempotency key per mutation lets a broker deduplicate a
	// retransmitted request without double-booking.
	httpReq.Header.Set("Idempotency-Key", uuid.New().String())
	return doPartnerJSON(hc, partner, httpReq, out)
}

func getPartnerJSON(ctx context.Context, hc *http.Client, partner models.PartnerProfile, endpoint string, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set("X-Api-Key", partner.APIKey)
	return doPartnerJSON(hc, partner, httpReq, out)
}

func doPartnerJSON(hc *http.Client, partner models.PartnerProfile, req *http.Request, out any) error {
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", partner.Name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("request to %s returned status %d", partner.Name, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", partner.Name, err)
	}
	return nil
}

// splitDateTime splits "2006-01-02T15:04" into date and time components.
func splitDateTime(s string) (string, string) {
	if len(s) >= 16 && s[10] == 'T' {
		return s[:10], s[11:16]
	}
	return s, ""
}
