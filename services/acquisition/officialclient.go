package acquisition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"visaflow/config"
	"visaflow/models"
)

// officialHTTPClient implements OfficialClient against the JSON API the
// consular backends expose. One client serves every consulate; the base URL
// comes from the consulate configuration.
type officialHTTPClient struct {
	hc           *http.Client
	clientID     string
	clientSecret string
}

// NewOfficialHTTPClient builds the production official-channel client.
// Credentials come from configuration; they are service credentials, not
// applicant data.
func NewOfficialHTTPClient(timeout time.Duration) OfficialClient {
	return &officialHTTPClient{
		hc:           &http.Client{Timeout: timeout},
		clientID:     config.AppConfig.OfficialClientID,
		clientSecret: config.AppConfig.OfficialClientSecret,
	}
}

func (c *officialHTTPClient) Authenticate(ctx context.Context, consulate ConsulateConfig) (OfficialSession, error) {
	payload := map[string]string{
		"clientId":     c.clientID,
		"clientSecret": c.clientSecret,
	}
	var resp struct {
		Token     string `json:"token"`
		ExpiresAt string `json:"expiresAt"`
	}
	if err := c.postJSON(ctx, consulate.BaseURL+"/auth/token", "", payload, &resp); err != nil {
		return OfficialSession{}, err
	}
	if resp.Token == "" {
		return OfficialSession{}, fmt.Errorf("auth response from %s contained no token", consulate.Key)
	}
	session := OfficialSession{Token: resp.Token}
	if ts, err := time.Parse(time.RFC3339, resp.ExpiresAt); err == nil {
		session.ExpiresAt = ts
	}
	return session, nil
}

func (c *officialHTTPClient) FetchSlots(ctx context.Context, session OfficialSession, consulate ConsulateConfig, visaType string) ([]models.AppointmentSlot, error) {
	endpoint := fmt.Sprintf("%s/slots?visaType=%s", consulate.BaseURL, url.QueryEscape(visaType))
	var resp struct {
		Slots []struct {
			ID        string `json:"id"`
			Date      string `json:"date"`
			Time      string `json:"time"`
			Available bool   `json:"available"`
			Location  string `json:"location"`
		} `json:"slots"`
	}
	if err := c.getJSON(ctx, endpoint, session.Token, &resp); err != nil {
		return nil, err
	}

	slots := make([]models.AppointmentSlot, 0, len(resp.Slots))
	for _, w := range resp.Slots {
		slots = append(slots, models.AppointmentSlot{
			ID:        w.ID,
			Date:      w.Date,
			Time:      w.Time,
			Available: w.Available,
			Location:  w.Location,
			Consulate: consulate.Key,
			VisaType:  visaType,
			Country:   consulate.Country,
		})
	}
	return slots, nil
}

func (c *officialHTTPClient) ConfirmSlot(ctx context.Context, session OfficialSession, consulate ConsulateConfig, slot models.AppointmentSlot, req models.BookingRequest) (OfficialConfirmation, error) {
	payload := map[string]any{
		"slotId":   slot.ID,
		"visaType": req.VisaType,
		"applicant": map[string]string{
			"fullName":       req.ApplicantInfo.FullName,
			"email":          req.ApplicantInfo.Email,
			"phone":          req.ApplicantInfo.Phone,
			"nationality":    req.ApplicantInfo.Nationality,
			"passportNumber": req.ApplicantInfo.PassportNumber,
		},
	}
	var resp struct {
		AppointmentID    string `json:"appointmentId"`
		ConfirmationCode string `json:"confirmationCode"`
		Instructions     string `json:"instructions"`
	}
	if err := c.postJSON(ctx, consulate.BaseURL+"/appointments", session.Token, payload, &resp); err != nil {
		return OfficialConfirmation{}, err
	}
	if resp.AppointmentID == "" {
		return OfficialConfirmation{}, fmt.Errorf("confirmation response from %s contained no appointment id", consulate.Key)
	}
	return OfficialConfirmation{
		AppointmentID:    resp.AppointmentID,
		ConfirmationCode: resp.ConfirmationCode,
		Instructions:     resp.Instructions,
	}, nil
}

func (c *officialHTTPClient) CancelAppointment(ctx context.Context, session OfficialSession, consulate ConsulateConfig, appointmentID string) error {
	endpoint := fmt.Sprintf("%s/appointments/%s", consulate.BaseURL, url.PathEscape(appointmentID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Authorization", "Bearer "+session.Token)

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return fmt.Errorf("cancel request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("cancel request returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *officialHTTPClient) getJSON(ctx context.Context, endpoint, token string, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	return c.doJSON(httpReq, out)
}

func (c *officialHTTPClient) postJSON(ctx context.Context, endpoint, token string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	return c.doJSON(httpReq, out)
}

func (c *officialHTTPClient) doJSON(req *http.Request, out any) error {
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", req.URL.Host, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("request to %s rejected with status %d", req.URL.Host, resp.StatusCode)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("request to %s returned status %d", req.URL.Host, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", req.URL.Host, err)
	}
	return nil
}
