package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/abrezinsky/cuevote/internal/clock"
	"github.com/abrezinsky/cuevote/internal/errors"
	"github.com/abrezinsky/cuevote/internal/logger"
	"github.com/abrezinsky/cuevote/internal/models"
	"github.com/abrezinsky/cuevote/internal/repository"
)

// AppealStore is the storage the appeal workflow needs
type AppealStore interface {
	repository.IncidentRepository
	repository.AppealRepository
}

// AppealService runs the pending -> upheld/overturned appeal workflow
type AppealService struct {
	log   logger.Logger
	repo  AppealStore
	clock clock.Clock
	newID func() string
}

// NewAppealService creates a new AppealService
func NewAppealService(log logger.Logger, repo AppealStore, clk clock.Clock) *AppealService {
	return &AppealService{
		log:   log,
		repo:  repo,
		clock: clk,
		newID: uuid.NewString,
	}
}

// FileAppeal opens an appeal on an incident. Only the incident's subject may
// appeal, only while the appeal window is open, and only once.
func (s *AppealService) FileAppeal(ctx context.Context, incidentID, userID string) (*models.Appeal, error) {
	if incidentID == "" || userID == "" {
		return nil, errors.InvalidInput("incident id and user id are required")
	}

	incident, err := s.repo.GetIncident(ctx, incidentID)
	if err == repository.ErrNotFound {
		return nil, errors.NotFoundf("incident %s not found", incidentID)
	}
	if err != nil {
		return nil, err
	}
	if incident.UserID != userID {
		return nil, errors.NotEligible("only the subject of an incident may appeal it")
	}

	now := s.clock.Now()
	if incident.AppealOpenUntil != nil && now.After(*incident.AppealOpenUntil) {
		return nil, errors.NotEligible("appeal window has closed")
	}

	if _, found, err := s.repo.GetAppealByIncident(ctx, incidentID); err != nil {
		return nil, err
	} else if found {
		return nil, errors.AlreadyAppealed()
	}

	appeal := models.Appeal{
		ID:         s.newID(),
		IncidentID: incidentID,
		UserID:     userID,
		Status:     models.AppealPending,
		FiledAt:    now,
	}
	if err := s.repo.CreateAppeal(ctx, appeal); err != nil {
		if err == repository.ErrDuplicate {
			return nil, errors.AlreadyAppealed()
		}
		return nil, err
	}

	s.log.Info("Appeal filed", "appeal_id", appeal.ID, "incident_id", incidentID, "user_id", userID)
	return &appeal, nil
}

// Decide resolves a pending appeal. Overturning revokes the incident's
// penalty; the incident itself stays in the log.
func (s *AppealService) Decide(ctx context.Context, appealID, operatorID string, outcome models.AppealStatus) (*models.Appeal, error) {
	if operatorID == "" {
		return nil, errors.InvalidInput("operator id is required")
	}
	if outcome != models.AppealUpheld && outcome != models.AppealOverturned {
		return nil, errors.Validationf("outcome must be %q or %q", models.AppealUpheld, models.AppealOverturned)
	}

	err := s.repo.DecideAppeal(ctx, appealID, outcome, operatorID, s.clock.Now())
	switch err {
	case nil:
	case repository.ErrNotFound:
		return nil, errors.NotFoundf("appeal %s not found", appealID)
	case repository.ErrAlreadyDecided:
		return nil, errors.Conflict("appeal has already been decided")
	default:
		return nil, err
	}

	appeal, err := s.repo.GetAppeal(ctx, appealID)
	if err != nil {
		return nil, err
	}
	s.log.Info("Appeal decided",
		"appeal_id", appealID,
		"incident_id", appeal.IncidentID,
		"outcome", outcome,
		"operator_id", operatorID,
	)
	return appeal, nil
}

// GetAppeal returns a single appeal
func (s *AppealService) GetAppeal(ctx context.Context, id string) (*models.Appeal, error) {
	appeal, err := s.repo.GetAppeal(ctx, id)
	if err == repository.ErrNotFound {
		return nil, errors.NotFoundf("appeal %s not found", id)
	}
	return appeal, err
}

// ListAppeals returns appeals filtered by status; an empty status lists all
func (s *AppealService) ListAppeals(ctx context.Context, status models.AppealStatus) ([]models.Appeal, error) {
	switch status {
	case "", models.AppealPending, models.AppealUpheld, models.AppealOverturned:
	default:
		return nil, errors.Validationf("unknown appeal status %q", status)
	}
	return s.repo.ListAppeals(ctx, status)
}
