package handlers

import "github.com/abrezinsky/cuevote/internal/models"

// LoginRequest represents an operator login
type LoginRequest struct {
	Password string `json:"password"`
}

// OpenVoteRequest represents a request to open a vote against a player
type OpenVoteRequest struct {
	TargetUserID string `json:"target_user_id"`
	SessionID    string `json:"session_id"`
	CreatedBy    string `json:"created_by"`
}

// BallotSubmitRequest represents a voter's ballot
type BallotSubmitRequest struct {
	VoterID string                `json:"voter_id"`
	Choice  models.Choice         `json:"choice"`
	Tags    []models.ViolationTag `json:"violation_tags"`
	Note    string                `json:"note"`
}

// ForceCloseRequest represents an operator closing a vote early
type ForceCloseRequest struct {
	OperatorID string `json:"operator_id"`
}

// AppealFileRequest represents a player appealing an incident
type AppealFileRequest struct {
	UserID string `json:"user_id"`
}

// AppealDecisionRequest represents an operator's ruling on an appeal
type AppealDecisionRequest struct {
	OperatorID string              `json:"operator_id"`
	Outcome    models.AppealStatus `json:"outcome"`
}

// CheckInRequest represents a user checking in at a venue
type CheckInRequest struct {
	UserID    string      `json:"user_id"`
	SessionID string      `json:"session_id"`
	Role      models.Role `json:"role"`
}

// ShooterRequest sets the player at the table
type ShooterRequest struct {
	UserID string `json:"user_id"`
}

// LeagueHubSyncRequest represents a request to sync the roster from the league hub
type LeagueHubSyncRequest struct {
	LeagueHubURL string `json:"leaguehub_url"`
}

// SettingsUpdateRequest represents a request to update settings
type SettingsUpdateRequest struct {
	BaseURL      string `json:"base_url"`
	LeagueHubURL string `json:"leaguehub_url"`
}

// DatabaseResetRequest represents a request to reset database tables
type DatabaseResetRequest struct {
	Tables []string `json:"tables"`
}
