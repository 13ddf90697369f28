// ABOUTME: HTTP client for the SQL Nova migration planner API
// ABOUTME: Wraps API calls with proper error handling for CLI usage

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sqlnova/migration-planner/models"
)

// Client is the API client for the migration planner backend
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client with the given base URL
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// BaseURL returns the backend URL the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health calls GET /api/v1/health
func (c *Client) Health(ctx context.Context) (*models.HealthResponse, error) {
	var health models.HealthResponse
	if _, err := c.doJSON(ctx, http.MethodGet, "/api/v1/health", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// ListServers calls GET /api/v1/inventory/servers
func (c *Client) ListServers(ctx context.Context, environment string) ([]models.SourceServer, error) {
	path := "/api/v1/inventory/servers"
	if environment != "" {
		path += "?environment=" + url.QueryEscape(environment)
	}

	var resp models.ServersResponse
	if _, err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Servers, nil
}

// ListDatabases calls GET /api/v1/inventory/servers/{name}/databases
func (c *Client) ListDatabases(ctx context.Context, server string) ([]models.SourceDatabase, error) {
	var resp models.DatabasesResponse
	path := "/api/v1/inventory/servers/" + url.PathEscape(server) + "/databases"
	if _, err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Databases, nil
}

// Destinations calls GET /api/v1/inventory/destinations. The response carries the
// probed existing instances and the naming source for new ones.
func (c *Client) Destinations(ctx context.Context, environment string) (*models.DestinationsResponse, error) {
	var resp models.DestinationsResponse
	path := "/api/v1/inventory/destinations?environment=" + url.QueryEscape(environment)
	if _, err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Simulate calls POST /api/v1/migration/simulate
func (c *Client) Simulate(ctx context.Context, input models.DistributionInput) (*models.DistributionResult, error) {
	var result models.DistributionResult
	if _, err := c.doJSON(ctx, http.MethodPost, "/api/v1/migration/simulate", input, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Export calls POST /api/v1/migration/export and streams the workbook to w
func (c *Client) Export(ctx context.Context, input models.DistributionInput, w io.Writer) error {
	resp, err := c.send(ctx, http.MethodPost, "/api/v1/migration/export", input)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.handleErrorResponse(resp)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("failed to read workbook: %w", err)
	}
	return nil
}

// doJSON sends a request and decodes a JSON response into out
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) (*http.Response, error) {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, c.handleErrorResponse(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp, fmt.Errorf("invalid response from backend: %w", err)
		}
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal input: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.handleRequestError(ctx, err)
	}
	return resp, nil
}

// handleRequestError converts context errors to user-friendly messages
func (c *Client) handleRequestError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("request canceled")
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("request timed out")
	}
	return fmt.Errorf("cannot connect to backend at %s: %w", c.baseURL, err)
}

// handleErrorResponse parses API error responses
func (c *Client) handleErrorResponse(resp *http.Response) error {
	var errResp models.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil || errResp.Error == "" {
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}
	if errResp.Details != "" {
		return fmt.Errorf("backend error: %s: %s", errResp.Error, errResp.Details)
	}
	return fmt.Errorf("backend error: %s", errResp.Error)
}
