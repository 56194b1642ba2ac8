package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// conditionalHTTPLogger only logs HTTP requests when HTTP logging is enabled
func (h *Handlers) conditionalHTTPLogger(next http.Handler) http.Handler {
	logger := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Log != nil && h.Log.IsHTTPLoggingEnabled() {
			logger.ServeHTTP(w, r)
		} else {
			next.ServeHTTP(w, r)
		}
	})
}

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.conditionalHTTPLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)

	// WebSocket connections outlive the request timeout
	r.Get("/ws/venues/{venueID}", h.handleVenueSocket)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/api/health", h.handleHealth)

		// Voting API (public)
		r.Get("/api/venues/{venueID}/votes", h.handleActiveVotes)
		r.Get("/api/venues/{venueID}/history", h.handleVoteHistory)
		r.Get("/api/votes/{voteID}", h.handleGetVote)
		r.Post("/api/votes/{voteID}/ballots", h.handleSubmitBallot)
		r.Get("/api/votes/{voteID}/qr", h.handleBallotQR)

		// Incidents and appeals (public)
		r.Get("/api/users/{userID}/incidents", h.handleUserIncidents)
		r.Get("/api/incidents/{incidentID}", h.handleGetIncident)
		r.Post("/api/incidents/{incidentID}/appeals", h.handleFileAppeal)

		// Auth routes (public)
		r.Post("/admin/login", h.handleLogin)
		r.Post("/admin/logout", h.handleLogout)

		// Admin API (protected)
		r.Group(func(r chi.Router) {
			r.Use(h.Auth.RequireAuthAPI)

			// Votes
			r.Post("/api/admin/venues/{venueID}/votes", h.handleOpenVote)
			r.Post("/api/admin/votes/{voteID}/force-close", h.handleForceClose)

			// Appeals
			r.Get("/api/admin/appeals", h.handleListAppeals)
			r.Get("/api/admin/appeals/{appealID}", h.handleGetAppeal)
			r.Post("/api/admin/appeals/{appealID}/decision", h.handleDecideAppeal)

			// Roster
			r.Get("/api/admin/venues/{venueID}/checkins", h.handleListCheckIns)
			r.Post("/api/admin/venues/{venueID}/checkins", h.handleCheckIn)
			r.Delete("/api/admin/venues/{venueID}/checkins/{userID}", h.handleCheckOut)
			r.Get("/api/admin/venues/{venueID}/shooter", h.handleGetShooter)
			r.Put("/api/admin/venues/{venueID}/shooter", h.handleSetShooter)
			r.Delete("/api/admin/venues/{venueID}/shooter", h.handleClearShooter)
			r.Post("/api/admin/venues/{venueID}/sync", h.handleSyncLeagueHub)

			// Settings
			r.Get("/api/admin/settings", h.handleGetSettings)
			r.Put("/api/admin/settings", h.handleUpdateSettings)
			r.Get("/api/admin/stats", h.handleGetStats)
			r.Post("/api/admin/reset-database", h.handleResetDatabase)
		})
	})

	return r
}
