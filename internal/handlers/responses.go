package handlers

import "github.com/abrezinsky/cuevote/internal/models"

// LoginResponse carries a new operator session token
type LoginResponse struct {
	Message   string `json:"message"`
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// HealthResponse is the response for the health check
type HealthResponse struct {
	Status    string `json:"status"`
	OpenVotes int    `json:"open_votes"`
}

// OpenVoteResponse is the response for opening a vote
type OpenVoteResponse struct {
	Vote      *models.VoteSnapshot `json:"vote"`
	BallotURL string               `json:"ballot_url,omitempty"`
}

// ActiveVotesResponse is the active-votes read model of a venue
type ActiveVotesResponse struct {
	VenueID string              `json:"venue_id"`
	Votes   []models.ActiveVote `json:"votes"`
}

// IncidentHistoryResponse is a player's incident log with active penalties
type IncidentHistoryResponse struct {
	UserID          string            `json:"user_id"`
	Incidents       []models.Incident `json:"incidents"`
	ActivePenalties []models.Penalty  `json:"active_penalties"`
}

// IncidentResponse is an incident with its penalty
type IncidentResponse struct {
	Incident *models.Incident `json:"incident"`
	Penalty  *models.Penalty  `json:"penalty,omitempty"`
}

// ShooterResponse is the player at a venue's table
type ShooterResponse struct {
	VenueID string `json:"venue_id"`
	UserID  string `json:"user_id"`
}

// SettingsResponse is the response for settings
type SettingsResponse struct {
	BaseURL      string `json:"base_url"`
	LeagueHubURL string `json:"leaguehub_url"`
}

// ResetResponse is the response for a database reset
type ResetResponse struct {
	Message string   `json:"message"`
	Tables  []string `json:"tables"`
}
