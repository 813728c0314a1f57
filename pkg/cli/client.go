package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/getmockd/mockdeck/pkg/history"
)

// APIError is a non-2xx answer from the console API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (%d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("console returned status %d", e.StatusCode)
}

// consoleClient talks to a running console's API.
type consoleClient struct {
	baseURL    string
	httpClient *http.Client
}

func newConsoleClient(baseURL string) *consoleClient {
	return &consoleClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// HealthResponse is the console's GET /health answer.
type HealthResponse struct {
	Status string `json:"status"`
	Uptime int    `json:"uptime"`
}

// EngineState is the engine portion of the console's status answer.
type EngineState struct {
	Running  bool   `json:"running"`
	PID      int    `json:"pid,omitempty"`
	Port     int    `json:"port,omitempty"`
	Host     string `json:"host,omitempty"`
	BaseURL  string `json:"baseUrl,omitempty"`
	Ready    bool   `json:"ready"`
	SpecPath string `json:"specPath,omitempty"`
}

// StatusResponse is the console's GET /status answer.
type StatusResponse struct {
	Status  string      `json:"status"`
	Version string      `json:"version"`
	Uptime  int         `json:"uptime"`
	Session string      `json:"session"`
	Engine  EngineState `json:"engine"`
}

// Health checks the console's own health endpoint.
func (c *consoleClient) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.getJSON(ctx, "/health", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Status fetches the console and engine status.
func (c *consoleClient) Status(ctx context.Context) (*StatusResponse, error) {
	var out StatusResponse
	if err := c.getJSON(ctx, "/status", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// History fetches recent engine runs.
func (c *consoleClient) History(ctx context.Context, limit int) ([]history.Run, error) {
	path := "/history"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out struct {
		Runs []history.Run `json:"runs"`
	}
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Runs, nil
}

func (c *consoleClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cannot reach console at %s: %w", c.baseURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return parseAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode console response: %w", err)
	}
	return nil
}

func parseAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	body, _ := io.ReadAll(resp.Body)
	var decoded struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &decoded) == nil {
		apiErr.Code = decoded.Error
		apiErr.Message = decoded.Message
	}
	return apiErr
}
