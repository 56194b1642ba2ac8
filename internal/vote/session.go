package vote

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/abrezinsky/cuevote/internal/clock"
	"github.com/abrezinsky/cuevote/internal/errors"
	"github.com/abrezinsky/cuevote/internal/models"
)

// Duration is the fixed lifetime of a vote from opening to deadline
const Duration = 90 * time.Second

// Session is the state machine for a single vote. All state transitions
// happen under mu; different sessions share no lock.
type Session struct {
	mu sync.Mutex

	id             string
	venueID        string
	sessionID      string
	targetUserID   string
	createdBy      string
	openedAt       time.Time
	deadline       time.Time
	quorumRequired models.Weight
	threshold      Fraction

	status     models.VoteStatus
	resolving  bool // a consequence write is in flight; mu is not held across it
	outcome    models.Outcome
	forcedBy   string
	closedAt   time.Time
	incidentID string
	ballots    map[string]models.Ballot
	outWeight  models.Weight
	keepWeight models.Weight
	timer      clock.Timer
}

type sessionParams struct {
	ID             string
	VenueID        string
	SessionID      string
	TargetUserID   string
	CreatedBy      string
	OpenedAt       time.Time
	QuorumRequired models.Weight
}

func newSession(p sessionParams) *Session {
	return &Session{
		id:             p.ID,
		venueID:        p.VenueID,
		sessionID:      p.SessionID,
		targetUserID:   p.TargetUserID,
		createdBy:      p.CreatedBy,
		openedAt:       p.OpenedAt,
		deadline:       p.OpenedAt.Add(Duration),
		quorumRequired: p.QuorumRequired,
		threshold:      Threshold,
		status:         models.StatusOpen,
		ballots:        make(map[string]models.Ballot),
	}
}

// ID returns the vote id
func (s *Session) ID() string { return s.id }

// castInput is a ballot request with the voter's role already resolved
type castInput struct {
	VoterID string
	Role    models.Role
	RoleErr error
	Choice  models.Choice
	Tags    []models.ViolationTag
	Note    string
	Now     time.Time
}

// castBallot validates and stores a ballot. It never closes the vote.
func (s *Session) castBallot(in castInput, guard Guard, cd *cooldowns) (models.Ballot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var accepted models.Ballot
	err := cd.admit(in.VoterID, in.Now, func(onCooldown bool) error {
		_, voted := s.ballots[in.VoterID]
		decision := guard.CanCastBallot(CastFacts{
			VoteOpen:     s.status == models.StatusOpen && !s.resolving && in.Now.Before(s.deadline),
			AlreadyVoted: voted,
			RoleResolved: in.RoleErr == nil,
			OnCooldown:   onCooldown,
		})
		if err := decision.Err(); err != nil {
			return err
		}

		tags, err := validateBallot(in.Choice, in.Tags, in.Note)
		if err != nil {
			return err
		}
		weight, err := WeightOf(in.Role)
		if err != nil {
			return err
		}

		b := models.Ballot{
			VoterID: in.VoterID,
			Role:    in.Role,
			Choice:  in.Choice,
			Weight:  weight,
			Tags:    tags,
			Note:    in.Note,
			CastAt:  in.Now,
		}
		s.ballots[in.VoterID] = b
		if b.Choice == models.ChoiceOut {
			s.outWeight += weight
		} else {
			s.keepWeight += weight
		}
		accepted = b
		return nil
	})
	return accepted, err
}

// validateBallot checks choice, tags and note, returning the de-duplicated tags
func validateBallot(choice models.Choice, tags []models.ViolationTag, note string) ([]models.ViolationTag, error) {
	if choice != models.ChoiceOut && choice != models.ChoiceKeep {
		return nil, errors.Validationf("choice must be %q or %q", models.ChoiceOut, models.ChoiceKeep)
	}
	if utf8.RuneCountInString(note) > models.MaxNoteLength {
		return nil, errors.Validationf("note must be at most %d characters", models.MaxNoteLength)
	}

	seen := make(map[models.ViolationTag]bool, len(tags))
	var out []models.ViolationTag
	for _, tag := range tags {
		tag = models.ViolationTag(strings.TrimSpace(string(tag)))
		if !models.IsKnownViolationTag(tag) {
			return nil, errors.InvalidTags("unknown violation category: " + string(tag))
		}
		if !seen[tag] {
			seen[tag] = true
			out = append(out, tag)
		}
	}
	if choice == models.ChoiceOut && len(out) == 0 {
		return nil, errors.InvalidTags("an out vote needs at least one violation category")
	}
	return out, nil
}

// resolveInput drives a closing evaluation
type resolveInput struct {
	Now      time.Time
	ForcedBy string
	// Quorum overrides the snapshot taken at open (live-quorum policy)
	Quorum *models.Weight
	// Record persists the consequence of a passed vote. It runs before the
	// terminal status is set and without the session lock held; ballots are
	// refused meanwhile. On error the vote stays open.
	Record func(snap models.VoteSnapshot, tags []models.ViolationTag) (*models.Incident, error)
}

// resolve evaluates and closes the vote when the deadline has passed or the
// close is forced. It returns (nil, nil) when there is nothing to do, which
// makes repeated deadline delivery harmless. Only one caller resolves at a
// time; others see the vote as closing.
func (s *Session) resolve(in resolveInput) (*models.ResolutionEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	forced := in.ForcedBy != ""
	if s.status.Terminal() || s.resolving {
		if forced {
			return nil, errors.VoteClosed()
		}
		return nil, nil
	}
	if !forced && in.Now.Before(s.deadline) {
		return nil, nil
	}

	quorum := s.quorumRequired
	if in.Quorum != nil {
		quorum = *in.Quorum
	}
	outcome := outcomeOf(Evaluate(s.outWeight, s.keepWeight, quorum, s.threshold))

	var incident *models.Incident
	if outcome == models.OutcomePassed && in.Record != nil {
		snap, tags := s.snapshotLocked(in.Now), s.outTagsLocked()
		s.resolving = true
		s.mu.Unlock()
		inc, err := in.Record(snap, tags)
		s.mu.Lock()
		s.resolving = false
		if err != nil {
			return nil, err
		}
		incident = inc
		if inc != nil {
			s.incidentID = inc.ID
		}
	}

	s.quorumRequired = quorum
	s.outcome = outcome
	s.closedAt = in.Now
	switch {
	case forced:
		s.status = models.StatusClosedForced
		s.forcedBy = in.ForcedBy
	case outcome == models.OutcomePassed:
		s.status = models.StatusClosedPassed
	case outcome == models.OutcomeFailed:
		s.status = models.StatusClosedFailed
	default:
		s.status = models.StatusExpiredNoQuorum
	}
	if s.timer != nil {
		s.timer.Stop()
	}

	return &models.ResolutionEvent{
		VoteID:       s.id,
		VenueID:      s.venueID,
		SessionID:    s.sessionID,
		TargetUserID: s.targetUserID,
		Outcome:      outcome,
		Forced:       forced,
		Incident:     incident,
		ResolvedAt:   in.Now,
	}, nil
}

// outTagsLocked collects the violation tags of every out ballot, sorted
func (s *Session) outTagsLocked() []models.ViolationTag {
	seen := make(map[models.ViolationTag]bool)
	var tags []models.ViolationTag
	for _, b := range s.ballots {
		if b.Choice != models.ChoiceOut {
			continue
		}
		for _, tag := range b.Tags {
			if !seen[tag] {
				seen[tag] = true
				tags = append(tags, tag)
			}
		}
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

func (s *Session) setTimer(t clock.Timer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() {
		t.Stop()
		return
	}
	s.timer = t
}

// Snapshot returns the current state including live tallies
func (s *Session) Snapshot(now time.Time) models.VoteSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(now)
}

func (s *Session) snapshotLocked(now time.Time) models.VoteSnapshot {
	snap := models.VoteSnapshot{
		ID:             s.id,
		VenueID:        s.venueID,
		SessionID:      s.sessionID,
		TargetUserID:   s.targetUserID,
		CreatedBy:      s.createdBy,
		OpenedAt:       s.openedAt,
		Deadline:       s.deadline,
		Status:         s.status,
		Outcome:        s.outcome,
		ForcedBy:       s.forcedBy,
		QuorumRequired: s.quorumRequired,
		Threshold:      s.threshold.Float64(),
		OutWeight:      s.outWeight,
		KeepWeight:     s.keepWeight,
		BallotCount:    len(s.ballots),
		IncidentID:     s.incidentID,
	}
	if !s.closedAt.IsZero() {
		closed := s.closedAt
		snap.ClosedAt = &closed
	}
	snap.Ballots = make([]models.Ballot, 0, len(s.ballots))
	for _, b := range s.ballots {
		snap.Ballots = append(snap.Ballots, b)
	}
	sort.Slice(snap.Ballots, func(i, j int) bool {
		if snap.Ballots[i].CastAt.Equal(snap.Ballots[j].CastAt) {
			return snap.Ballots[i].VoterID < snap.Ballots[j].VoterID
		}
		return snap.Ballots[i].CastAt.Before(snap.Ballots[j].CastAt)
	})
	return snap
}

// activeView returns the read-model row for viewerID and whether the vote is still open
func (s *Session) activeView(now time.Time, viewerID string) (models.ActiveVote, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, voted := s.ballots[viewerID]
	return models.ActiveVote{
		VoteID:           s.id,
		TargetUserID:     s.targetUserID,
		RemainingSeconds: remainingSeconds(s.deadline, now),
		YouVoted:         viewerID != "" && voted,
	}, s.status == models.StatusOpen
}

func (s *Session) isTerminal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status.Terminal()
}

func (s *Session) closedSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closedAt
}

func (s *Session) remaining(now time.Time) int {
	return remainingSeconds(s.deadline, now)
}

// remainingSeconds is max(0, deadline-now) rounded up to whole seconds
func remainingSeconds(deadline, now time.Time) int {
	d := deadline.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

// cooldowns tracks the last accepted ballot per voter in one venue
type cooldowns struct {
	mu   sync.Mutex
	last map[string]time.Time
}

func newCooldowns() *cooldowns {
	return &cooldowns{last: make(map[string]time.Time)}
}

// admit runs fn with the voter's cooldown state and records now as the
// voter's last ballot when fn succeeds. Check and record are atomic across
// all sessions of the venue.
func (c *cooldowns) admit(voterID string, now time.Time, fn func(onCooldown bool) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := fn(OnCooldown(c.last[voterID], now)); err != nil {
		return err
	}
	c.last[voterID] = now
	return nil
}

// prune forgets voters whose cooldown has lapsed
func (c *cooldowns) prune(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for voter, last := range c.last {
		if !OnCooldown(last, now) {
			delete(c.last, voter)
		}
	}
}
