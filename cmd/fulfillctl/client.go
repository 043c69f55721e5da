package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"phasegarden/internal/entitlement"
	paymodels "phasegarden/internal/payment/models"
)

// apiClient talks to a running backend.
type apiClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func newAPIClient(baseURL, token string) *apiClient {
	return &apiClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type resendResult struct {
	Provider       string `json:"provider"`
	PaymentID      string `json:"paymentId"`
	SerialNumber   string `json:"serialNumber"`
	DeliveryStatus string `json:"deliveryStatus"`
}

type resendBody struct {
	Force bool   `json:"force"`
	Email string `json:"email,omitempty"`
}

// Resend returns the result body for both 200 and 502; a 502 still carries
// the stored serial.
func (c *apiClient) Resend(ctx context.Context, key paymodels.Key, in resendBody) (*resendResult, int, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("admin", "fulfillments", string(key.Provider), key.PaymentID, "resend"), bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	var out resendResult
	status, err := c.do(req, &out, http.StatusOK, http.StatusBadGateway)
	if err != nil {
		return nil, status, err
	}
	return &out, status, nil
}

// Lookup implements entitlement.Source. With a token it reads the full admin
// record, otherwise the public view with the email dropped.
func (c *apiClient) Lookup(ctx context.Context, key paymodels.Key) (*entitlement.Entitlement, error) {
	target := c.url("api", "entitlements", string(key.Provider), key.PaymentID)
	if c.token != "" {
		target = c.url("admin", "fulfillments", string(key.Provider), key.PaymentID)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	var out entitlement.Entitlement
	if _, err := c.do(req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	out.Key = key
	return &out, nil
}

func (c *apiClient) url(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return c.baseURL + "/" + strings.Join(escaped, "/")
}

func (c *apiClient) do(req *http.Request, out any, accept ...int) (int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	for _, code := range accept {
		if resp.StatusCode == code {
			return resp.StatusCode, json.NewDecoder(resp.Body).Decode(out)
		}
	}
	var apiErr struct {
		Error       string `json:"error"`
		Description string `json:"error_description"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
		return resp.StatusCode, fmt.Errorf("%s: %s (%d)", apiErr.Error, apiErr.Description, resp.StatusCode)
	}
	return resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode)
}
