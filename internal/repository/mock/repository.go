package mock

import (
	"context"
	"time"

	"github.com/abrezinsky/cuevote/internal/models"
	"github.com/abrezinsky/cuevote/internal/repository"
)

// Repository wraps a real repository and allows injecting errors for testing.
// This provides a flexible way to test error paths without complex database manipulation.
//
// Usage:
//
//	realRepo := testutil.NewTestRepository(t)
//	mockRepo := mock.NewRepository(realRepo)
//	mockRepo.CreateIncidentError = errors.New("database is locked")
//	svc := services.NewConsequenceService(log, mockRepo, clk, window)
//	_, err := svc.RecordOutcome(ctx, passed)
//	// err will now contain the injected error
type Repository struct {
	repository.FullRepository

	// ===== Incident Errors =====
	PriorIncidentCountError   error
	CreateIncidentError       error
	GetIncidentError          error
	GetIncidentByVoteError    error
	ListIncidentsForUserError error
	ActivePenaltiesError      error

	// CreateIncidentFailures fails that many CreateIncident calls before
	// delegating, for retry tests
	CreateIncidentFailures int

	// ===== Appeal Errors =====
	CreateAppealError        error
	GetAppealError           error
	GetAppealByIncidentError error
	ListAppealsError         error
	DecideAppealError        error

	// ===== Archive Errors =====
	ArchiveVoteError       error
	GetArchivedVoteError   error
	ListArchivedVotesError error

	// ===== Settings Errors =====
	GetSettingError error
	SetSettingError error
	GetStatsError   error
	ClearTableError error
}

// NewRepository creates a mock repository wrapping a real one
func NewRepository(real repository.FullRepository) *Repository {
	return &Repository{
		FullRepository: real,
	}
}

// ===== Incident Methods =====

func (m *Repository) PriorIncidentCount(ctx context.Context, userID string, types []models.IncidentType) (int, error) {
	if m.PriorIncidentCountError != nil {
		return 0, m.PriorIncidentCountError
	}
	return m.FullRepository.PriorIncidentCount(ctx, userID, types)
}

func (m *Repository) CreateIncident(ctx context.Context, incident models.Incident, penalty models.Penalty) error {
	if m.CreateIncidentFailures > 0 {
		m.CreateIncidentFailures--
		return errInjected
	}
	if m.CreateIncidentError != nil {
		return m.CreateIncidentError
	}
	return m.FullRepository.CreateIncident(ctx, incident, penalty)
}

func (m *Repository) GetIncident(ctx context.Context, id string) (*models.Incident, error) {
	if m.GetIncidentError != nil {
		return nil, m.GetIncidentError
	}
	return m.FullRepository.GetIncident(ctx, id)
}

func (m *Repository) GetIncidentByVote(ctx context.Context, voteID string) (*models.Incident, bool, error) {
	if m.GetIncidentByVoteError != nil {
		return nil, false, m.GetIncidentByVoteError
	}
	return m.FullRepository.GetIncidentByVote(ctx, voteID)
}

func (m *Repository) ListIncidentsForUser(ctx context.Context, userID string) ([]models.Incident, error) {
	if m.ListIncidentsForUserError != nil {
		return nil, m.ListIncidentsForUserError
	}
	return m.FullRepository.ListIncidentsForUser(ctx, userID)
}

func (m *Repository) ActivePenalties(ctx context.Context, userID string) ([]models.Penalty, error) {
	if m.ActivePenaltiesError != nil {
		return nil, m.ActivePenaltiesError
	}
	return m.FullRepository.ActivePenalties(ctx, userID)
}

// ===== Appeal Methods =====

func (m *Repository) CreateAppeal(ctx context.Context, appeal models.Appeal) error {
	if m.CreateAppealError != nil {
		return m.CreateAppealError
	}
	return m.FullRepository.CreateAppeal(ctx, appeal)
}

func (m *Repository) GetAppeal(ctx context.Context, id string) (*models.Appeal, error) {
	if m.GetAppealError != nil {
		return nil, m.GetAppealError
	}
	return m.FullRepository.GetAppeal(ctx, id)
}

func (m *Repository) GetAppealByIncident(ctx context.Context, incidentID string) (*models.Appeal, bool, error) {
	if m.GetAppealByIncidentError != nil {
		return nil, false, m.GetAppealByIncidentError
	}
	return m.FullRepository.GetAppealByIncident(ctx, incidentID)
}

func (m *Repository) ListAppeals(ctx context.Context, status models.AppealStatus) ([]models.Appeal, error) {
	if m.ListAppealsError != nil {
		return nil, m.ListAppealsError
	}
	return m.FullRepository.ListAppeals(ctx, status)
}

func (m *Repository) DecideAppeal(ctx context.Context, id string, status models.AppealStatus, decidedBy string, decidedAt time.Time) error {
	if m.DecideAppealError != nil {
		return m.DecideAppealError
	}
	return m.FullRepository.DecideAppeal(ctx, id, status, decidedBy, decidedAt)
}

// ===== Archive Methods =====

func (m *Repository) ArchiveVote(ctx context.Context, snap models.VoteSnapshot) error {
	if m.ArchiveVoteError != nil {
		return m.ArchiveVoteError
	}
	return m.FullRepository.ArchiveVote(ctx, snap)
}

func (m *Repository) GetArchivedVote(ctx context.Context, id string) (*models.VoteSnapshot, bool, error) {
	if m.GetArchivedVoteError != nil {
		return nil, false, m.GetArchivedVoteError
	}
	return m.FullRepository.GetArchivedVote(ctx, id)
}

func (m *Repository) ListArchivedVotes(ctx context.Context, venueID string, limit int) ([]models.VoteSnapshot, error) {
	if m.ListArchivedVotesError != nil {
		return nil, m.ListArchivedVotesError
	}
	return m.FullRepository.ListArchivedVotes(ctx, venueID, limit)
}

// ===== Settings Methods =====

func (m *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	if m.GetSettingError != nil {
		return "", m.GetSettingError
	}
	return m.FullRepository.GetSetting(ctx, key)
}

func (m *Repository) SetSetting(ctx context.Context, key, value string) error {
	if m.SetSettingError != nil {
		return m.SetSettingError
	}
	return m.FullRepository.SetSetting(ctx, key, value)
}

func (m *Repository) GetStats(ctx context.Context) (map[string]interface{}, error) {
	if m.GetStatsError != nil {
		return nil, m.GetStatsError
	}
	return m.FullRepository.GetStats(ctx)
}

func (m *Repository) ClearTable(ctx context.Context, table string) error {
	if m.ClearTableError != nil {
		return m.ClearTableError
	}
	return m.FullRepository.ClearTable(ctx, table)
}

type injectedError struct{}

func (injectedError) Error() string { return "injected failure" }

var errInjected error = injectedError{}

// Ensure Repository implements FullRepository
var _ repository.FullRepository = (*Repository)(nil)
