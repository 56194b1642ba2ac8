package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abrezinsky/cuevote/internal/clock"
	"github.com/abrezinsky/cuevote/internal/errors"
	"github.com/abrezinsky/cuevote/internal/logger"
	"github.com/abrezinsky/cuevote/internal/models"
	"github.com/abrezinsky/cuevote/internal/repository"
)

// DefaultAppealWindow is how long the subject of an incident may appeal it
const DefaultAppealWindow = 72 * time.Hour

// escalatingTypes are the incident types that count toward the next tier
var escalatingTypes = []models.IncidentType{models.IncidentEjection, models.IncidentSuspension}

// LadderStep is the consequence applied at one tier
type LadderStep struct {
	Type           models.IncidentType
	Points         int
	Suspension     time.Duration
	ForfeitMatches bool
}

// StepForTier returns the consequence for a tier (1-based). Every tier past
// the last step uses the last step.
func StepForTier(tier int) LadderStep {
	switch {
	case tier <= 1:
		return LadderStep{Type: models.IncidentEjection, Points: 10}
	case tier == 2:
		return LadderStep{Type: models.IncidentSuspension, Points: 25, Suspension: 7 * 24 * time.Hour}
	default:
		return LadderStep{Type: models.IncidentSuspension, Points: 50, Suspension: 30 * 24 * time.Hour, ForfeitMatches: true}
	}
}

// ConsequenceService records incidents for passed votes and escalates
// repeat offenders
type ConsequenceService struct {
	log          logger.Logger
	repo         repository.IncidentRepository
	clock        clock.Clock
	appealWindow time.Duration
	newID        func() string

	// serializes tier assignment so two passed votes against the same user
	// cannot both read the same prior count
	mu sync.Mutex
}

// NewConsequenceService creates a new ConsequenceService. A non-positive
// appealWindow uses DefaultAppealWindow.
func NewConsequenceService(log logger.Logger, repo repository.IncidentRepository, clk clock.Clock, appealWindow time.Duration) *ConsequenceService {
	if appealWindow <= 0 {
		appealWindow = DefaultAppealWindow
	}
	return &ConsequenceService{
		log:          log,
		repo:         repo,
		clock:        clk,
		appealWindow: appealWindow,
		newID:        uuid.NewString,
	}
}

// RecordOutcome appends the incident for a passed vote. Calling it again for
// the same vote returns the incident already recorded.
func (s *ConsequenceService) RecordOutcome(ctx context.Context, passed models.PassedVote) (*models.Incident, error) {
	if passed.VoteID == "" || passed.TargetUserID == "" {
		return nil, errors.InvalidInput("vote id and target user are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, found, err := s.repo.GetIncidentByVote(ctx, passed.VoteID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to look up incident")
	}
	if found {
		return existing, nil
	}

	prior, err := s.repo.PriorIncidentCount(ctx, passed.TargetUserID, escalatingTypes)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to count prior incidents")
	}
	tier := prior + 1
	step := StepForTier(tier)
	now := s.clock.Now()
	appealUntil := now.Add(s.appealWindow)

	tags := append([]models.ViolationTag(nil), passed.Tags...)
	if tags == nil {
		tags = []models.ViolationTag{}
	}
	incident := models.Incident{
		ID:              s.newID(),
		UserID:          passed.TargetUserID,
		VenueID:         passed.VenueID,
		SessionID:       passed.SessionID,
		Type:            step.Type,
		Tier:            tier,
		ViolationTags:   tags,
		CreatedAt:       now,
		SourceVoteID:    passed.VoteID,
		AppealOpenUntil: &appealUntil,
	}
	penalty := models.Penalty{
		IncidentID:     incident.ID,
		UserID:         passed.TargetUserID,
		Type:           step.Type,
		Points:         step.Points,
		ForfeitMatches: step.ForfeitMatches,
		Active:         true,
	}
	if step.Suspension > 0 {
		until := now.Add(step.Suspension)
		penalty.SuspendedUntil = &until
	} else {
		penalty.SessionID = passed.SessionID
	}

	if err := s.repo.CreateIncident(ctx, incident, penalty); err != nil {
		if err == repository.ErrDuplicate {
			// another writer recorded this vote first
			existing, found, lookupErr := s.repo.GetIncidentByVote(ctx, passed.VoteID)
			if lookupErr == nil && found {
				return existing, nil
			}
		}
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to record incident")
	}

	s.log.Info("Incident recorded",
		"incident_id", incident.ID,
		"vote_id", passed.VoteID,
		"user_id", passed.TargetUserID,
		"type", incident.Type,
		"tier", tier,
		"points", step.Points,
	)
	return &incident, nil
}

// Incidents returns a user's incident history, oldest first
func (s *ConsequenceService) Incidents(ctx context.Context, userID string) ([]models.Incident, error) {
	if userID == "" {
		return nil, errors.InvalidInput("user id is required")
	}
	return s.repo.ListIncidentsForUser(ctx, userID)
}

// GetIncident returns a single incident
func (s *ConsequenceService) GetIncident(ctx context.Context, id string) (*models.Incident, error) {
	inc, err := s.repo.GetIncident(ctx, id)
	if err == repository.ErrNotFound {
		return nil, errors.NotFoundf("incident %s not found", id)
	}
	return inc, err
}

// Penalty returns the penalty attached to an incident
func (s *ConsequenceService) Penalty(ctx context.Context, incidentID string) (*models.Penalty, error) {
	p, err := s.repo.GetPenalty(ctx, incidentID)
	if err == repository.ErrNotFound {
		return nil, errors.NotFoundf("no penalty for incident %s", incidentID)
	}
	return p, err
}

// ActivePenalties returns a user's penalties that have not been overturned
func (s *ConsequenceService) ActivePenalties(ctx context.Context, userID string) ([]models.Penalty, error) {
	if userID == "" {
		return nil, errors.InvalidInput("user id is required")
	}
	return s.repo.ActivePenalties(ctx, userID)
}
