package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/civgo/civd/pkg/storage"
)

// Client talks to a running civd daemon over its REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

// Status mirrors the daemon's /api/v1/status response.
type Status struct {
	Model       string `json:"model"`
	Connected   bool   `json:"connected"`
	VFO         string `json:"vfo"`
	DualWatch   bool   `json:"dual_watch"`
	Frequency   uint64 `json:"frequency"`
	Mode        string `json:"mode"`
	WidthHz     int    `json:"width_hz"`
	PTT         bool   `json:"ptt"`
	SignalDB    int    `json:"signal_db"`
	Uptime      string `json:"uptime"`
	Version     string `json:"version"`
	X25Degraded bool   `json:"x25_degraded"`
}

// NewClient creates a client for the daemon at host:port.
func NewClient(host string, port int) *Client {
	return &Client{
		baseURL: fmt.Sprintf("http://%s:%d/api/v1", host, port),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// GetStatus fetches the daemon status.
func (c *Client) GetStatus() (*Status, error) {
	var status Status
	if err := c.get("/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// SetVFO selects a logical VFO by name (A, B, MAIN, SUB).
func (c *Client) SetVFO(name string) error {
	return c.put("/vfo", map[string]interface{}{"vfo": name}, nil)
}

// SetMode sets the operating mode. widthHz of zero keeps the mode's
// implied width.
func (c *Client) SetMode(mode string, widthHz int) error {
	return c.put("/mode", map[string]interface{}{"mode": mode, "width_hz": widthHz}, nil)
}

// SetSplit configures split operation with the given transmit VFO.
func (c *Client) SetSplit(txVFO string, enabled bool) error {
	return c.put("/split", map[string]interface{}{"tx_vfo": txVFO, "enabled": enabled}, nil)
}

// SetFrequency tunes the active receiver.
func (c *Client) SetFrequency(hz uint64) error {
	return c.put("/frequency", map[string]interface{}{"frequency": hz}, nil)
}

// SetPTT keys or unkeys the transmitter.
func (c *Client) SetPTT(on bool) error {
	return c.put("/ptt", map[string]interface{}{"ptt": on}, nil)
}

// GetFunction reads a function switch by name.
func (c *Client) GetFunction(name string) (bool, error) {
	var resp struct {
		On bool `json:"on"`
	}
	if err := c.get("/function/"+name, &resp); err != nil {
		return false, err
	}
	return resp.On, nil
}

// GetLevel reads an analog level by name in the radio's native
// 0..255 range.
func (c *Client) GetLevel(name string) (int, error) {
	var resp struct {
		Value int `json:"value"`
	}
	if err := c.get("/level/"+name, &resp); err != nil {
		return 0, err
	}
	return resp.Value, nil
}

// SetLevel sets an analog level by name.
func (c *Client) SetLevel(name string, value int) error {
	return c.put("/level/"+name, map[string]interface{}{"value": value}, nil)
}

// GetLog fetches recent operation log entries.
func (c *Client) GetLog(limit int) ([]storage.Entry, error) {
	var resp struct {
		Entries []storage.Entry `json:"entries"`
	}
	if err := c.get(fmt.Sprintf("/log?limit=%d", limit), &resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

func (c *Client) get(path string, out interface{}) error {
	resp, err := c.http.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func (c *Client) put(path string, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPut, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out interface{}) error {
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		body, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("daemon error: %s", apiErr.Error)
		}
		return fmt.Errorf("daemon returned %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
