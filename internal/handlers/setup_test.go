package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/cuevote/internal/auth"
	"github.com/abrezinsky/cuevote/internal/clock"
	"github.com/abrezinsky/cuevote/internal/handlers"
	"github.com/abrezinsky/cuevote/internal/logger"
	"github.com/abrezinsky/cuevote/internal/models"
	"github.com/abrezinsky/cuevote/internal/repository"
	"github.com/abrezinsky/cuevote/internal/roster"
	"github.com/abrezinsky/cuevote/internal/services"
	"github.com/abrezinsky/cuevote/internal/testutil"
	"github.com/abrezinsky/cuevote/internal/vote"
	"github.com/abrezinsky/cuevote/internal/websocket"
	"github.com/abrezinsky/cuevote/pkg/leaguehub"
)

const (
	venue = "corner-pocket"
	night = "tue-league"
)

type testSetup struct {
	repo        *repository.Repository
	clock       *clock.Manual
	roster      *roster.Roster
	coordinator *vote.Coordinator
	settings    *services.SettingsService
	leagueHub   *leaguehub.MockClient
	handlers    *handlers.Handlers
	router      chi.Router
	authCookie  *http.Cookie
}

func newTestSetup(t *testing.T, hubOpts ...leaguehub.MockOption) *testSetup {
	t.Helper()

	repo := testutil.NewTestRepository(t)
	return newTestSetupWithRepo(t, repo, repo, hubOpts...)
}

// newTestSetupWithRepo builds the full stack over repo. archive is the real
// repository so vote history stays readable when repo injects errors.
func newTestSetupWithRepo(t *testing.T, repo repository.FullRepository, archive *repository.Repository, hubOpts ...leaguehub.MockOption) *testSetup {
	t.Helper()

	log := logger.Discard()
	clk := clock.NewManual(testutil.Epoch)
	rost := roster.New(log)

	consequences := services.NewConsequenceService(log, repo, clk, services.DefaultAppealWindow)
	appeals := services.NewAppealService(log, repo, clk)
	settings := services.NewSettingsService(log, repo)
	links := services.NewLinkService(settings)

	coordinator := vote.NewCoordinator(log, clk, rost, rost, consequences, repo,
		vote.WithRetryBackoff(time.Millisecond, time.Millisecond))
	t.Cleanup(coordinator.Shutdown)

	hub := websocket.New(log, coordinator)
	hub.Start()

	leagueHub := leaguehub.NewMockClient(hubOpts...)
	adminAuth := auth.NewWithClock("test-password", clk)

	h := handlers.New(coordinator, rost, repo, consequences, appeals, links, settings, leagueHub, adminAuth, hub, handlers.NoopHTTPLogger{})

	token, _ := adminAuth.Login("test-password")
	return &testSetup{
		repo:        archive,
		clock:       clk,
		roster:      rost,
		coordinator: coordinator,
		settings:    settings,
		leagueHub:   leagueHub,
		handlers:    h,
		router:      h.Router(),
		authCookie:  &http.Cookie{Name: auth.CookieName, Value: token},
	}
}

// do sends a request with an optional JSON body
func (s *testSetup) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// admin sends an authenticated request
func (s *testSetup) admin(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(s.authCookie)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// checkIn puts users on the roster with the given role
func (s *testSetup) checkIn(t *testing.T, role models.Role, users ...string) {
	t.Helper()
	for _, u := range users {
		if err := s.roster.CheckIn(models.CheckIn{UserID: u, VenueID: venue, SessionID: night, Role: role}); err != nil {
			t.Fatalf("check in %s: %v", u, err)
		}
	}
}

// seedVenue checks in an operator, the target and three players (total
// weight 6, quorum 3) and opens a vote against "rowdy"
func (s *testSetup) seedVenue(t *testing.T) string {
	t.Helper()
	s.checkIn(t, models.RoleOperator, "op")
	s.checkIn(t, models.RolePlayer, "rowdy", "alice", "bob", "cara")

	rec := s.admin(t, http.MethodPost, "/api/admin/venues/"+venue+"/votes", handlers.OpenVoteRequest{
		TargetUserID: "rowdy",
		SessionID:    night,
		CreatedBy:    "alice",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("open vote: status %d: %s", rec.Code, rec.Body.String())
	}
	var resp handlers.OpenVoteResponse
	decode(t, rec, &resp)
	return resp.Vote.ID
}

func (s *testSetup) castOut(t *testing.T, voteID string, voters ...string) {
	t.Helper()
	for _, v := range voters {
		rec := s.do(t, http.MethodPost, "/api/votes/"+voteID+"/ballots", handlers.BallotSubmitRequest{
			VoterID: v,
			Choice:  models.ChoiceOut,
			Tags:    []models.ViolationTag{models.TagHarassment},
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("ballot by %s: status %d: %s", v, rec.Code, rec.Body.String())
		}
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(target); err != nil {
		t.Fatalf("failed to decode response: %v (%s)", err, rec.Body.String())
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handlers.APIError {
	t.Helper()
	var apiErr handlers.APIError
	decode(t, rec, &apiErr)
	return apiErr
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) handlers.APIError {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
	apiErr := decodeError(t, rec)
	if apiErr.Code != code {
		t.Errorf("expected code %q, got %q (%s)", code, apiErr.Code, apiErr.Message)
	}
	return apiErr
}
