package services

import (
	"context"

	"github.com/abrezinsky/cuevote/internal/models"
	"github.com/abrezinsky/cuevote/internal/vote"
)

// ConsequenceServicer defines the interface for the consequence ladder
type ConsequenceServicer interface {
	vote.ConsequenceRecorder
	Incidents(ctx context.Context, userID string) ([]models.Incident, error)
	GetIncident(ctx context.Context, id string) (*models.Incident, error)
	Penalty(ctx context.Context, incidentID string) (*models.Penalty, error)
	ActivePenalties(ctx context.Context, userID string) ([]models.Penalty, error)
}

// AppealServicer defines the interface for appeal operations
type AppealServicer interface {
	FileAppeal(ctx context.Context, incidentID, userID string) (*models.Appeal, error)
	Decide(ctx context.Context, appealID, operatorID string, outcome models.AppealStatus) (*models.Appeal, error)
	GetAppeal(ctx context.Context, id string) (*models.Appeal, error)
	ListAppeals(ctx context.Context, status models.AppealStatus) ([]models.Appeal, error)
}

// LinkServicer defines the interface for ballot link generation
type LinkServicer interface {
	BallotURL(ctx context.Context, voteID string) (string, error)
	BallotQR(ctx context.Context, voteID string) ([]byte, error)
}

// SettingsServicer defines the interface for settings operations
type SettingsServicer interface {
	GetBaseURL(ctx context.Context) (string, error)
	SetBaseURL(ctx context.Context, url string) error
	GetLeagueHubURL(ctx context.Context) (string, error)
	SetLeagueHubURL(ctx context.Context, url string) error
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	AllSettings(ctx context.Context) (map[string]interface{}, error)
	UpdateSettings(ctx context.Context, settings Settings) error
	GetStats(ctx context.Context) (map[string]interface{}, error)
	ResetTables(ctx context.Context, tables []string) (*ResetTablesResult, error)
}

// Ensure concrete types implement interfaces
var (
	_ ConsequenceServicer = (*ConsequenceService)(nil)
	_ AppealServicer      = (*AppealService)(nil)
	_ LinkServicer        = (*LinkService)(nil)
	_ SettingsServicer    = (*SettingsService)(nil)
)
