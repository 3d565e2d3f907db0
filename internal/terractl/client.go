package terractl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"terrariumd/pkg/types"
)

// Client is a thin HTTP client for the daemon API.
type Client struct {
	base string
	hc   *http.Client
}

// NewClient builds a Client for the daemon at base (e.g. http://127.0.0.1:8530).
func NewClient(base string, timeout time.Duration) *Client {
	return &Client{base: base, hc: &http.Client{Timeout: timeout}}
}

func (c *Client) do(method, path string, out any) error {
	req, err := http.NewRequest(method, c.base+path, nil)
	if err != nil {
		return err
	}
	debug("%s %s", method, c.base+path)
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var apiErr types.ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (%d)", apiErr.Error, apiErr.Code)
		}
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}
	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

// Status fetches GET /status.
func (c *Client) Status() (types.StatusResponse, error) {
	var out types.StatusResponse
	err := c.do(http.MethodGet, "/status", &out)
	return out, err
}

// Alerts fetches GET /alerts.
func (c *Client) Alerts() ([]types.AlertView, error) {
	var out types.AlertsResponse
	err := c.do(http.MethodGet, "/alerts", &out)
	return out.Alerts, err
}

// AckAlert posts an acknowledgement for the alert at index.
func (c *Client) AckAlert(index int) error {
	return c.do(http.MethodPost, fmt.Sprintf("/alerts/%d/ack", index), nil)
}

// Violations fetches GET /violations for the given window.
func (c *Client) Violations(hours int) ([]types.ViolationView, error) {
	var out types.ViolationsResponse
	err := c.do(http.MethodGet, fmt.Sprintf("/violations?hours=%d", hours), &out)
	return out.Violations, err
}

// EmergencyStop fetches the latch state.
func (c *Client) EmergencyStop() (types.EmergencyStopView, error) {
	var out types.EmergencyStopView
	err := c.do(http.MethodGet, "/emergency-stop", &out)
	return out, err
}

// ClearEmergencyStop releases the latch. The daemon answers 409 when the
// latch is not armed; that surfaces here as an error.
func (c *Client) ClearEmergencyStop() error {
	return c.do(http.MethodDelete, "/emergency-stop", nil)
}
