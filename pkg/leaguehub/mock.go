package leaguehub

import (
	"context"
	"fmt"
	"sync"
)

// MockClient is a mock league hub client for testing
type MockClient struct {
	mu         sync.Mutex
	checkIns   map[string][]CheckIn
	shooters   map[string]string
	baseURL    string
	fetchErr   error
	shooterErr error
	calls      int
}

// MockOption configures the mock client
type MockOption func(*MockClient)

// WithCheckIns sets the check-ins returned for a venue
func WithCheckIns(venueID string, checkIns []CheckIn) MockOption {
	return func(m *MockClient) {
		m.checkIns[venueID] = checkIns
	}
}

// WithShooter sets the current shooter of a venue
func WithShooter(venueID, userID string) MockOption {
	return func(m *MockClient) {
		m.shooters[venueID] = userID
	}
}

// WithFetchError sets an error to return from FetchCheckIns
func WithFetchError(err error) MockOption {
	return func(m *MockClient) {
		m.fetchErr = err
	}
}

// WithShooterError sets an error to return from FetchCurrentShooter
func WithShooterError(err error) MockOption {
	return func(m *MockClient) {
		m.shooterErr = err
	}
}

// WithBaseURL sets the base URL
func WithBaseURL(url string) MockOption {
	return func(m *MockClient) {
		m.baseURL = url
	}
}

// NewMockClient creates a new mock league hub client
func NewMockClient(opts ...MockOption) *MockClient {
	m := &MockClient{
		checkIns: make(map[string][]CheckIn),
		shooters: make(map[string]string),
		baseURL:  "http://mock-leaguehub.local",
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// BaseURL returns the configured base URL
func (m *MockClient) BaseURL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.baseURL
}

// SetBaseURL updates the base URL
func (m *MockClient) SetBaseURL(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baseURL = url
}

// FetchCheckIns returns the configured check-ins or error
func (m *MockClient) FetchCheckIns(ctx context.Context, venueID string) ([]CheckIn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.checkIns[venueID], nil
}

// FetchCurrentShooter returns the configured shooter or error
func (m *MockClient) FetchCurrentShooter(ctx context.Context, venueID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.shooterErr != nil {
		return "", m.shooterErr
	}
	return m.shooters[venueID], nil
}

// Calls returns how many fetches were made (for testing)
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// GenerateMockCheckIns generates n check-ins for a session. Every tenth member
// is an operator and every third an attendee; the rest are players.
func GenerateMockCheckIns(sessionID string, n int) []CheckIn {
	names := []string{"Minnesota", "Fast Eddie", "Vincent", "Grady", "Carmen", "Sarah", "Bert", "Ray"}
	checkIns := make([]CheckIn, n)
	for i := 0; i < n; i++ {
		role := "player"
		switch {
		case i%10 == 0:
			role = "operator"
		case i%3 == 0:
			role = "attendee"
		}
		checkIns[i] = CheckIn{
			UserID:    FlexString(fmt.Sprintf("member-%03d", i+1)),
			SessionID: FlexString(sessionID),
			Name:      names[i%len(names)],
			Role:      role,
		}
	}
	return checkIns
}

// Ensure MockClient implements Client
var _ Client = (*MockClient)(nil)
