// Package leaguehub provides a client for the league management service that
// owns player check-ins and table assignments.
package leaguehub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/abrezinsky/cuevote/internal/logger"
)

// FlexString is a string type that can be unmarshaled from either a string or a number.
// The league hub returns member ids as numbers for legacy accounts.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler for FlexString
func (f *FlexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexString(n.String())
		return nil
	}

	return fmt.Errorf("FlexString: cannot unmarshal %s", string(data))
}

// String returns the string value
func (f FlexString) String() string {
	return string(f)
}

// CheckIn is a member's presence record for a league night
type CheckIn struct {
	UserID    FlexString `json:"user_id"`
	SessionID FlexString `json:"session_id"`
	Name      string     `json:"name"`
	Role      string     `json:"role"` // attendee, player or operator
}

// CheckInListResponse is the response from the check-in list endpoint
type CheckInListResponse struct {
	CheckIns []CheckIn `json:"checkins"`
}

// ShooterResponse names the player currently at the table, if any
type ShooterResponse struct {
	UserID FlexString `json:"user_id"`
	Table  int        `json:"table"`
}

// ErrorResponse is the league hub's error envelope
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Client defines the interface for league hub operations
type Client interface {
	// FetchCheckIns retrieves the current check-ins of a venue
	FetchCheckIns(ctx context.Context, venueID string) ([]CheckIn, error)
	// FetchCurrentShooter returns the user at the table, or "" when the table is idle
	FetchCurrentShooter(ctx context.Context, venueID string) (string, error)
	// BaseURL returns the configured league hub base URL
	BaseURL() string
	// SetBaseURL updates the league hub base URL
	SetBaseURL(url string)
}

// HTTPClient is a real HTTP client for the league hub
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        logger.Logger
}

// NewHTTPClient creates a new league hub HTTP client. token may be empty.
func NewHTTPClient(baseURL, token string, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

// NewHTTPClientWithHTTPClient creates a new league hub client with a custom http.Client
func NewHTTPClientWithHTTPClient(baseURL, token string, httpClient *http.Client, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
		log:        log,
	}
}

// BaseURL returns the configured league hub base URL
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// SetBaseURL updates the league hub base URL
func (c *HTTPClient) SetBaseURL(url string) {
	c.baseURL = strings.TrimRight(url, "/")
}

// get issues a GET against the hub and decodes the JSON body into response.
// Non-2xx statuses are errors, carrying the hub's error message when present.
func (c *HTTPClient) get(ctx context.Context, path string, response interface{}) error {
	reqURL := c.baseURL + path

	c.log.Debug("League hub request", "method", "GET", "url", reqURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to league hub: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debug("League hub response", "status", resp.StatusCode, "bytes", len(body))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var hubErr ErrorResponse
		if json.Unmarshal(body, &hubErr) == nil && hubErr.Error != "" {
			return fmt.Errorf("league hub returned status %d: %s (%s)", resp.StatusCode, hubErr.Error, hubErr.Code)
		}
		return fmt.Errorf("league hub returned status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, response); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// FetchCheckIns retrieves the current check-ins of a venue
func (c *HTTPClient) FetchCheckIns(ctx context.Context, venueID string) ([]CheckIn, error) {
	var response CheckInListResponse
	if err := c.get(ctx, "/api/venues/"+url.PathEscape(venueID)+"/checkins", &response); err != nil {
		return nil, err
	}
	return response.CheckIns, nil
}

// FetchCurrentShooter returns the user at the table, or "" when the table is idle
func (c *HTTPClient) FetchCurrentShooter(ctx context.Context, venueID string) (string, error) {
	var response ShooterResponse
	if err := c.get(ctx, "/api/venues/"+url.PathEscape(venueID)+"/shooter", &response); err != nil {
		return "", err
	}
	return response.UserID.String(), nil
}

// Ensure HTTPClient implements Client
var _ Client = (*HTTPClient)(nil)
