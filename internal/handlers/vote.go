package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/cuevote/internal/vote"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// handleHealth reports liveness and the number of open votes
func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondOK(w, HealthResponse{Status: "ok", OpenVotes: h.Votes.OpenCount()})
}

// handleVenueSocket upgrades to the venue's live feed
func (h *Handlers) handleVenueSocket(w http.ResponseWriter, r *http.Request) {
	h.Hub.ServeVenue(w, r, chi.URLParam(r, "venueID"))
}

// handleActiveVotes returns a venue's open votes with their countdown.
// session_id narrows to one session and viewer_id fills in you_voted.
func (h *Handlers) handleActiveVotes(w http.ResponseWriter, r *http.Request) {
	venueID, err := requireParam(r, "venueID")
	if err != nil {
		respondError(w, err)
		return
	}

	q := r.URL.Query()
	respondOK(w, ActiveVotesResponse{
		VenueID: venueID,
		Votes:   h.Votes.ActiveVotes(venueID, q.Get("session_id"), q.Get("viewer_id")),
	})
}

// handleVoteHistory returns a venue's most recently resolved votes
func (h *Handlers) handleVoteHistory(w http.ResponseWriter, r *http.Request) {
	venueID, err := requireParam(r, "venueID")
	if err != nil {
		respondError(w, err)
		return
	}
	limit, err := parseLimit(r, defaultHistoryLimit, maxHistoryLimit)
	if err != nil {
		respondError(w, err)
		return
	}

	votes, err := h.History.ListArchivedVotes(r.Context(), venueID, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, votes)
}

// handleGetVote returns a live snapshot or the archived result of a vote
func (h *Handlers) handleGetVote(w http.ResponseWriter, r *http.Request) {
	voteID, err := requireParam(r, "voteID")
	if err != nil {
		respondError(w, err)
		return
	}

	snap, err := h.Votes.GetVote(r.Context(), voteID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, snap)
}

// handleSubmitBallot records a voter's ballot. voter_id is taken from the
// body as-is; the calling client is trusted to have authenticated the voter.
func (h *Handlers) handleSubmitBallot(w http.ResponseWriter, r *http.Request) {
	voteID, err := requireParam(r, "voteID")
	if err != nil {
		respondError(w, err)
		return
	}

	var req BallotSubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	ballot, err := h.Votes.SubmitBallot(r.Context(), vote.BallotRequest{
		VoteID:  voteID,
		VoterID: req.VoterID,
		Choice:  req.Choice,
		Tags:    req.Tags,
		Note:    req.Note,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, ballot)
}

// handleBallotQR serves a PNG QR code of the vote's ballot link
func (h *Handlers) handleBallotQR(w http.ResponseWriter, r *http.Request) {
	voteID, err := requireParam(r, "voteID")
	if err != nil {
		respondError(w, err)
		return
	}
	if _, err := h.Votes.GetVote(r.Context(), voteID); err != nil {
		respondError(w, err)
		return
	}

	png, err := h.Links.BallotQR(r.Context(), voteID)
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(png)
}

// handleUserIncidents returns a player's incident log and active penalties
func (h *Handlers) handleUserIncidents(w http.ResponseWriter, r *http.Request) {
	userID, err := requireParam(r, "userID")
	if err != nil {
		respondError(w, err)
		return
	}

	incidents, err := h.Consequences.Incidents(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	penalties, err := h.Consequences.ActivePenalties(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondOK(w, IncidentHistoryResponse{
		UserID:          userID,
		Incidents:       incidents,
		ActivePenalties: penalties,
	})
}

// handleGetIncident returns an incident with its penalty
func (h *Handlers) handleGetIncident(w http.ResponseWriter, r *http.Request) {
	incidentID, err := requireParam(r, "incidentID")
	if err != nil {
		respondError(w, err)
		return
	}

	incident, err := h.Consequences.GetIncident(r.Context(), incidentID)
	if err != nil {
		respondError(w, err)
		return
	}
	penalty, err := h.Consequences.Penalty(r.Context(), incidentID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, IncidentResponse{Incident: incident, Penalty: penalty})
}

// handleFileAppeal lets the subject of an incident appeal it. user_id is
// trusted as supplied by the calling client; the service only checks it
// against the incident.
func (h *Handlers) handleFileAppeal(w http.ResponseWriter, r *http.Request) {
	incidentID, err := requireParam(r, "incidentID")
	if err != nil {
		respondError(w, err)
		return
	}

	var req AppealFileRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	appeal, err := h.Appeals.FileAppeal(r.Context(), incidentID, req.UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, appeal)
}
