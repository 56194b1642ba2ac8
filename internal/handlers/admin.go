package handlers

import (
	"net/http"

	"github.com/abrezinsky/cuevote/internal/models"
	"github.com/abrezinsky/cuevote/internal/services"
	"github.com/abrezinsky/cuevote/internal/vote"
)

// ==================== Votes ====================

func (h *Handlers) handleOpenVote(w http.ResponseWriter, r *http.Request) {
	venueID, err := requireParam(r, "venueID")
	if err != nil {
		respondError(w, err)
		return
	}

	var req OpenVoteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	snap, err := h.Votes.OpenVote(r.Context(), vote.OpenRequest{
		TargetUserID: req.TargetUserID,
		VenueID:      venueID,
		SessionID:    req.SessionID,
		CreatedBy:    req.CreatedBy,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	// The ballot link is optional until a base URL is configured
	ballotURL, _ := h.Links.BallotURL(r.Context(), snap.ID)
	respondCreated(w, OpenVoteResponse{Vote: snap, BallotURL: ballotURL})
}

func (h *Handlers) handleForceClose(w http.ResponseWriter, r *http.Request) {
	voteID, err := requireParam(r, "voteID")
	if err != nil {
		respondError(w, err)
		return
	}

	var req ForceCloseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	ev, err := h.Votes.ForceClose(r.Context(), voteID, req.OperatorID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, ev)
}

// ==================== Appeals ====================

func (h *Handlers) handleListAppeals(w http.ResponseWriter, r *http.Request) {
	status := models.AppealStatus(r.URL.Query().Get("status"))
	appeals, err := h.Appeals.ListAppeals(r.Context(), status)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, appeals)
}

func (h *Handlers) handleGetAppeal(w http.ResponseWriter, r *http.Request) {
	appealID, err := requireParam(r, "appealID")
	if err != nil {
		respondError(w, err)
		return
	}

	appeal, err := h.Appeals.GetAppeal(r.Context(), appealID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, appeal)
}

func (h *Handlers) handleDecideAppeal(w http.ResponseWriter, r *http.Request) {
	appealID, err := requireParam(r, "appealID")
	if err != nil {
		respondError(w, err)
		return
	}

	var req AppealDecisionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	appeal, err := h.Appeals.Decide(r.Context(), appealID, req.OperatorID, req.Outcome)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, appeal)
}

// ==================== Roster ====================

func (h *Handlers) handleListCheckIns(w http.ResponseWriter, r *http.Request) {
	venueID, err := requireParam(r, "venueID")
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, h.Roster.List(venueID))
}

func (h *Handlers) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	venueID, err := requireParam(r, "venueID")
	if err != nil {
		respondError(w, err)
		return
	}

	var req CheckInRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	checkIn := models.CheckIn{
		UserID:    req.UserID,
		VenueID:   venueID,
		SessionID: req.SessionID,
		Role:      req.Role,
	}
	if err := h.Roster.CheckIn(checkIn); err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, checkIn)
}

func (h *Handlers) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	venueID, err := requireParam(r, "venueID")
	if err != nil {
		respondError(w, err)
		return
	}
	userID, err := requireParam(r, "userID")
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.Roster.CheckOut(venueID, userID); err != nil {
		respondError(w, err)
		return
	}
	respondDeleted(w)
}

func (h *Handlers) handleGetShooter(w http.ResponseWriter, r *http.Request) {
	venueID, err := requireParam(r, "venueID")
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, ShooterResponse{VenueID: venueID, UserID: h.Roster.Shooter(venueID)})
}

func (h *Handlers) handleSetShooter(w http.ResponseWriter, r *http.Request) {
	venueID, err := requireParam(r, "venueID")
	if err != nil {
		respondError(w, err)
		return
	}

	var req ShooterRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := h.Roster.SetShooter(venueID, req.UserID); err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, ShooterResponse{VenueID: venueID, UserID: req.UserID})
}

func (h *Handlers) handleClearShooter(w http.ResponseWriter, r *http.Request) {
	venueID, err := requireParam(r, "venueID")
	if err != nil {
		respondError(w, err)
		return
	}
	h.Roster.ClearShooter(venueID)
	respondDeleted(w)
}

// handleSyncLeagueHub replaces a venue's roster with the league hub's.
// A leaguehub_url in the body is saved and used from then on.
func (h *Handlers) handleSyncLeagueHub(w http.ResponseWriter, r *http.Request) {
	venueID, err := requireParam(r, "venueID")
	if err != nil {
		respondError(w, err)
		return
	}

	var req LeagueHubSyncRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if req.LeagueHubURL != "" {
		if err := h.Settings.SetLeagueHubURL(r.Context(), req.LeagueHubURL); err != nil {
			respondError(w, err)
			return
		}
		h.LeagueHub.SetBaseURL(req.LeagueHubURL)
	}
	if h.LeagueHub.BaseURL() == "" {
		respondError(w, services.ErrLeagueHubNotConfigured)
		return
	}

	result, err := h.Roster.Sync(r.Context(), h.LeagueHub, venueID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, result)
}

// ==================== Settings ====================

func (h *Handlers) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	baseURL, err := h.Settings.GetBaseURL(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	leagueHubURL, err := h.Settings.GetLeagueHubURL(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, SettingsResponse{BaseURL: baseURL, LeagueHubURL: leagueHubURL})
}

func (h *Handlers) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	err := h.Settings.UpdateSettings(r.Context(), services.Settings{
		BaseURL:      req.BaseURL,
		LeagueHubURL: req.LeagueHubURL,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	if req.LeagueHubURL != "" {
		h.LeagueHub.SetBaseURL(req.LeagueHubURL)
	}
	respondSuccess(w, "Settings updated")
}

func (h *Handlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Settings.GetStats(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	stats["open_votes"] = h.Votes.OpenCount()
	stats["operator_sessions"] = h.Auth.ActiveSessions()
	respondOK(w, stats)
}

func (h *Handlers) handleResetDatabase(w http.ResponseWriter, r *http.Request) {
	var req DatabaseResetRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	result, err := h.Settings.ResetTables(r.Context(), req.Tables)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, ResetResponse{Message: result.Message, Tables: result.Tables})
}
