package repository

import (
	"context"
	"time"

	"github.com/abrezinsky/cuevote/internal/models"
)

// IncidentRepository defines the append-only incident log and its penalties
type IncidentRepository interface {
	PriorIncidentCount(ctx context.Context, userID string, types []models.IncidentType) (int, error)
	CreateIncident(ctx context.Context, incident models.Incident, penalty models.Penalty) error
	GetIncident(ctx context.Context, id string) (*models.Incident, error)
	GetIncidentByVote(ctx context.Context, voteID string) (*models.Incident, bool, error)
	ListIncidentsForUser(ctx context.Context, userID string) ([]models.Incident, error)
	GetPenalty(ctx context.Context, incidentID string) (*models.Penalty, error)
	ActivePenalties(ctx context.Context, userID string) ([]models.Penalty, error)
}

// AppealRepository defines appeal data operations
type AppealRepository interface {
	CreateAppeal(ctx context.Context, appeal models.Appeal) error
	GetAppeal(ctx context.Context, id string) (*models.Appeal, error)
	GetAppealByIncident(ctx context.Context, incidentID string) (*models.Appeal, bool, error)
	ListAppeals(ctx context.Context, status models.AppealStatus) ([]models.Appeal, error)
	DecideAppeal(ctx context.Context, id string, status models.AppealStatus, decidedBy string, decidedAt time.Time) error
}

// VoteArchiveRepository stores resolved votes and their ballots
type VoteArchiveRepository interface {
	ArchiveVote(ctx context.Context, snap models.VoteSnapshot) error
	GetArchivedVote(ctx context.Context, id string) (*models.VoteSnapshot, bool, error)
	ListArchivedVotes(ctx context.Context, venueID string, limit int) ([]models.VoteSnapshot, error)
}

// SettingsRepository defines settings data operations
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	GetStats(ctx context.Context) (map[string]interface{}, error)
	ClearTable(ctx context.Context, table string) error
}

// FullRepository combines all repository interfaces
// Use this when a service needs access to multiple domains
type FullRepository interface {
	IncidentRepository
	AppealRepository
	VoteArchiveRepository
	SettingsRepository
}

// Ensure Repository implements all interfaces
var _ FullRepository = (*Repository)(nil)
