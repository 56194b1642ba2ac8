package vote

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/abrezinsky/cuevote/internal/clock"
	"github.com/abrezinsky/cuevote/internal/errors"
	"github.com/abrezinsky/cuevote/internal/logger"
	"github.com/abrezinsky/cuevote/internal/models"
)

// Identity resolves a user's checked-in role for a session
type Identity interface {
	ResolveRole(userID, sessionID string) (models.Role, error)
}

// Roster exposes a venue's current check-in state
type Roster interface {
	TotalEligibleWeight(venueID string) models.Weight
	IsCurrentShooter(userID, venueID string) bool
}

// ConsequenceRecorder applies the consequence of a passed vote
type ConsequenceRecorder interface {
	RecordOutcome(ctx context.Context, passed models.PassedVote) (*models.Incident, error)
}

// Archive stores resolved votes
type Archive interface {
	ArchiveVote(ctx context.Context, snap models.VoteSnapshot) error
	GetArchivedVote(ctx context.Context, voteID string) (*models.VoteSnapshot, bool, error)
}

const (
	defaultRetention = 10 * time.Minute
	// ejectionMemory bounds how long a night's ejections block new votes
	ejectionMemory   = 24 * time.Hour
	defaultRetryBase = 100 * time.Millisecond
	defaultRetryMax  = 5 * time.Second
)

// Option configures a Coordinator
type Option func(*Coordinator)

// WithQuorumFraction sets the share of eligible weight that must be cast
func WithQuorumFraction(f Fraction) Option {
	return func(c *Coordinator) {
		if f.Den > 0 && f.Num >= 0 {
			c.quorum = f
		}
	}
}

// WithLiveQuorum recomputes the quorum from the roster at evaluation time
// instead of using the snapshot taken when the vote opened
func WithLiveQuorum(live bool) Option {
	return func(c *Coordinator) {
		c.liveQuorum = live
	}
}

// WithRetention sets how long resolved votes stay in memory
func WithRetention(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.retention = d
		}
	}
}

// WithRetryBackoff sets the backoff used when recording a consequence fails
func WithRetryBackoff(base, max time.Duration) Option {
	return func(c *Coordinator) {
		if base > 0 && max >= base {
			c.retryBase, c.retryMax = base, max
		}
	}
}

// WithIDGenerator overrides vote id generation
func WithIDGenerator(fn func() string) Option {
	return func(c *Coordinator) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// Coordinator owns the open votes of every venue. Each vote serializes its
// own transitions; the registries below are separate, narrower sections.
type Coordinator struct {
	log      logger.Logger
	clock    clock.Clock
	identity Identity
	roster   Roster
	ladder   ConsequenceRecorder
	archive  Archive
	broker   *Broker
	guard    Guard

	quorum     Fraction
	liveQuorum bool
	retention  time.Duration
	retryBase  time.Duration
	retryMax   time.Duration
	newID      func() string

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	sessions map[string]*Session

	venuesMu sync.Mutex
	venues   map[string]*venueState
}

// venueState is the per-venue registry. Lock order: a session's mu may be
// held while taking cooldowns.mu; venueState.mu may be held while taking
// Coordinator.mu. Nothing else nests.
type venueState struct {
	mu        sync.Mutex
	active    map[string]*Session             // target user id -> open vote
	ejected   map[string]map[string]time.Time // session id -> target user id -> ejected at
	cooldowns *cooldowns
}

// NewCoordinator creates a coordinator. archive may be nil.
func NewCoordinator(log logger.Logger, clk clock.Clock, identity Identity, roster Roster, ladder ConsequenceRecorder, archive Archive, opts ...Option) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		log:       log,
		clock:     clk,
		identity:  identity,
		roster:    roster,
		ladder:    ladder,
		archive:   archive,
		broker:    NewBroker(log),
		quorum:    Fraction{Num: 1, Den: 2},
		retention: defaultRetention,
		retryBase: defaultRetryBase,
		retryMax:  defaultRetryMax,
		newID:     uuid.NewString,
		ctx:       ctx,
		cancel:    cancel,
		sessions:  make(map[string]*Session),
		venues:    make(map[string]*venueState),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Broker returns the resolution-event broker
func (c *Coordinator) Broker() *Broker {
	return c.broker
}

// QuorumFraction returns the configured quorum policy
func (c *Coordinator) QuorumFraction() Fraction {
	return c.quorum
}

func (c *Coordinator) venue(venueID string) *venueState {
	c.venuesMu.Lock()
	defer c.venuesMu.Unlock()
	v, ok := c.venues[venueID]
	if !ok {
		v = &venueState{
			active:    make(map[string]*Session),
			ejected:   make(map[string]map[string]time.Time),
			cooldowns: newCooldowns(),
		}
		c.venues[venueID] = v
	}
	return v
}

// OpenRequest asks for a new vote against a target
type OpenRequest struct {
	TargetUserID string
	VenueID      string
	SessionID    string
	CreatedBy    string
}

// OpenVote opens a vote against a target and schedules its deadline
func (c *Coordinator) OpenVote(ctx context.Context, req OpenRequest) (*models.VoteSnapshot, error) {
	if err := requireFields(map[string]string{
		"target_user_id": req.TargetUserID,
		"venue_id":       req.VenueID,
		"session_id":     req.SessionID,
		"created_by":     req.CreatedBy,
	}); err != nil {
		return nil, err
	}

	now := c.clock.Now()
	isShooter := c.roster.IsCurrentShooter(req.TargetUserID, req.VenueID)
	quorum := c.quorum.Of(c.roster.TotalEligibleWeight(req.VenueID))

	v := c.venue(req.VenueID)
	v.mu.Lock()
	existing := v.active[req.TargetUserID]
	decision := c.guard.CanOpenVote(OpenFacts{
		ActiveVote:      existing != nil,
		TargetIsShooter: isShooter,
		EjectedTonight:  wasEjected(v.ejected[req.SessionID], req.TargetUserID),
	})
	if !decision.Allowed() {
		v.mu.Unlock()
		if decision.Reason == ReasonVoteActive {
			return nil, errors.VoteAlreadyActive(existing.id, existing.remaining(now))
		}
		c.log.Info("Vote open denied", "venue_id", req.VenueID, "target", req.TargetUserID, "reason", decision.Reason)
		return nil, decision.Err()
	}

	s := newSession(sessionParams{
		ID:             c.newID(),
		VenueID:        req.VenueID,
		SessionID:      req.SessionID,
		TargetUserID:   req.TargetUserID,
		CreatedBy:      req.CreatedBy,
		OpenedAt:       now,
		QuorumRequired: quorum,
	})
	v.active[req.TargetUserID] = s
	c.mu.Lock()
	c.sessions[s.id] = s
	c.mu.Unlock()
	v.mu.Unlock()

	voteID := s.id
	s.setTimer(c.clock.AfterFunc(Duration, func() { c.onDeadline(voteID) }))

	c.log.Info("Vote opened",
		"vote_id", s.id,
		"venue_id", req.VenueID,
		"session_id", req.SessionID,
		"target", req.TargetUserID,
		"created_by", req.CreatedBy,
		"quorum_required", quorum.String(),
	)
	snap := s.Snapshot(now)
	return &snap, nil
}

// BallotRequest is a voter's submission on a vote
type BallotRequest struct {
	VoteID  string
	VoterID string
	Choice  models.Choice
	Tags    []models.ViolationTag
	Note    string
}

// SubmitBallot records a ballot. The updated tally is visible to readers
// as soon as this returns.
func (c *Coordinator) SubmitBallot(ctx context.Context, req BallotRequest) (*models.Ballot, error) {
	if err := requireFields(map[string]string{"vote_id": req.VoteID, "voter_id": req.VoterID}); err != nil {
		return nil, err
	}
	s, err := c.lookup(ctx, req.VoteID)
	if err != nil {
		return nil, err
	}

	role, roleErr := c.identity.ResolveRole(req.VoterID, s.sessionID)
	b, err := s.castBallot(castInput{
		VoterID: req.VoterID,
		Role:    role,
		RoleErr: roleErr,
		Choice:  req.Choice,
		Tags:    req.Tags,
		Note:    req.Note,
		Now:     c.clock.Now(),
	}, c.guard, c.venue(s.venueID).cooldowns)
	if err != nil {
		c.log.Debug("Ballot rejected", "vote_id", req.VoteID, "voter", req.VoterID, "error", err)
		return nil, err
	}

	c.log.Info("Ballot recorded", "vote_id", req.VoteID, "voter", req.VoterID, "choice", b.Choice, "weight", b.Weight.String())
	return &b, nil
}

// ForceClose resolves a vote immediately on an operator's request
func (c *Coordinator) ForceClose(ctx context.Context, voteID, operatorID string) (*models.ResolutionEvent, error) {
	if err := requireFields(map[string]string{"vote_id": voteID, "operator_id": operatorID}); err != nil {
		return nil, err
	}
	s, err := c.lookup(ctx, voteID)
	if err != nil {
		return nil, err
	}

	role, err := c.identity.ResolveRole(operatorID, s.sessionID)
	if err != nil || role != models.RoleOperator {
		return nil, errors.EligibilityDenied("not_operator", "only a checked-in operator can force-close a vote")
	}

	ev, err := c.close(s, operatorID)
	if err != nil {
		return nil, err
	}
	return ev, nil
}

// onDeadline is the deadline timer callback. It may run more than once
// and may race a force close; a vote already resolved is left alone.
func (c *Coordinator) onDeadline(voteID string) {
	c.mu.RLock()
	s := c.sessions[voteID]
	c.mu.RUnlock()
	if s == nil {
		return
	}
	if _, err := c.close(s, ""); err != nil {
		c.log.Error("Deadline evaluation failed", "vote_id", voteID, "error", err)
	}
}

func wasEjected(users map[string]time.Time, userID string) bool {
	_, ok := users[userID]
	return ok
}

// ExpireDue resolves every open vote whose deadline has passed. It backs up
// the per-vote timers and can be driven by an external poller. Votes are
// resolved concurrently so one slow consequence write does not hold up the rest.
func (c *Coordinator) ExpireDue(ctx context.Context) int {
	now := c.clock.Now()
	c.mu.RLock()
	var due []*Session
	for _, s := range c.sessions {
		if !now.Before(s.deadline) {
			due = append(due, s)
		}
	}
	c.mu.RUnlock()

	var resolved atomic.Int32
	var g errgroup.Group
	for _, s := range due {
		if ctx.Err() != nil {
			break
		}
		s := s
		g.Go(func() error {
			ev, err := c.close(s, "")
			if err != nil {
				c.log.Error("Expiry evaluation failed", "vote_id", s.id, "error", err)
				return nil
			}
			if ev != nil {
				resolved.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()
	return int(resolved.Load())
}

func (c *Coordinator) close(s *Session, forcedBy string) (*models.ResolutionEvent, error) {
	in := resolveInput{
		Now:      c.clock.Now(),
		ForcedBy: forcedBy,
		Record:   c.recordConsequence,
	}
	if c.liveQuorum {
		q := c.quorum.Of(c.roster.TotalEligibleWeight(s.venueID))
		in.Quorum = &q
	}

	ev, err := s.resolve(in)
	if err != nil || ev == nil {
		return nil, err
	}
	c.finish(s, *ev)
	return ev, nil
}

// recordConsequence writes the incident for a passed vote, retrying until it
// succeeds or the coordinator shuts down. A passed vote must never exist
// without its incident.
func (c *Coordinator) recordConsequence(snap models.VoteSnapshot, tags []models.ViolationTag) (*models.Incident, error) {
	passed := models.PassedVote{
		VoteID:       snap.ID,
		VenueID:      snap.VenueID,
		SessionID:    snap.SessionID,
		TargetUserID: snap.TargetUserID,
		Tags:         tags,
	}

	backoff := c.retryBase
	for attempt := 1; ; attempt++ {
		incident, err := c.ladder.RecordOutcome(c.ctx, passed)
		if err == nil {
			return incident, nil
		}
		c.log.Error("Failed to record consequence, retrying",
			"vote_id", snap.ID,
			"target", snap.TargetUserID,
			"attempt", attempt,
			"error", err,
		)

		wait := time.NewTimer(backoff)
		select {
		case <-c.ctx.Done():
			wait.Stop()
			return nil, errors.Wrap(c.ctx.Err(), errors.ErrInternal, "consequence not recorded before shutdown")
		case <-wait.C:
		}
		backoff *= 2
		if backoff > c.retryMax {
			backoff = c.retryMax
		}
	}
}

// finish updates the venue registry, archives the vote and publishes the event
func (c *Coordinator) finish(s *Session, ev models.ResolutionEvent) {
	v := c.venue(s.venueID)
	v.mu.Lock()
	if v.active[s.targetUserID] == s {
		delete(v.active, s.targetUserID)
	}
	if ev.Outcome == models.OutcomePassed {
		if v.ejected[s.sessionID] == nil {
			v.ejected[s.sessionID] = make(map[string]time.Time)
		}
		v.ejected[s.sessionID][s.targetUserID] = ev.ResolvedAt
	}
	v.mu.Unlock()

	snap := s.Snapshot(ev.ResolvedAt)
	if c.archive != nil {
		if err := c.archive.ArchiveVote(c.ctx, snap); err != nil {
			c.log.Warn("Failed to archive vote", "vote_id", s.id, "error", err)
		}
	}

	c.broker.Publish(ev)
	c.log.Info("Vote resolved",
		"vote_id", s.id,
		"venue_id", s.venueID,
		"target", s.targetUserID,
		"status", snap.Status,
		"outcome", ev.Outcome,
		"out_weight", snap.OutWeight.String(),
		"keep_weight", snap.KeepWeight.String(),
		"quorum_required", snap.QuorumRequired.String(),
	)
}

func (c *Coordinator) lookup(ctx context.Context, voteID string) (*Session, error) {
	c.mu.RLock()
	s := c.sessions[voteID]
	c.mu.RUnlock()
	if s != nil {
		return s, nil
	}

	if c.archive != nil {
		_, found, err := c.archive.GetArchivedVote(ctx, voteID)
		if err != nil {
			return nil, errors.Internal(err)
		}
		if found {
			return nil, errors.VoteClosed()
		}
	}
	return nil, errors.NotFoundf("vote %s not found", voteID)
}

// GetVote returns a live snapshot, or the archived record of a resolved vote
func (c *Coordinator) GetVote(ctx context.Context, voteID string) (*models.VoteSnapshot, error) {
	c.mu.RLock()
	s := c.sessions[voteID]
	c.mu.RUnlock()
	if s != nil {
		snap := s.Snapshot(c.clock.Now())
		return &snap, nil
	}

	if c.archive != nil {
		snap, found, err := c.archive.GetArchivedVote(ctx, voteID)
		if err != nil {
			return nil, errors.Internal(err)
		}
		if found {
			return snap, nil
		}
	}
	return nil, errors.NotFoundf("vote %s not found", voteID)
}

// ActiveVotes is the live-display read model for a venue. An empty sessionID
// includes every session; viewerID drives the you_voted flag.
func (c *Coordinator) ActiveVotes(venueID, sessionID, viewerID string) []models.ActiveVote {
	v := c.venue(venueID)
	v.mu.Lock()
	sessions := make([]*Session, 0, len(v.active))
	for _, s := range v.active {
		if sessionID == "" || s.sessionID == sessionID {
			sessions = append(sessions, s)
		}
	}
	v.mu.Unlock()

	now := c.clock.Now()
	votes := make([]models.ActiveVote, 0, len(sessions))
	for _, s := range sessions {
		if view, open := s.activeView(now, viewerID); open {
			votes = append(votes, view)
		}
	}
	sort.Slice(votes, func(i, j int) bool {
		if votes[i].RemainingSeconds == votes[j].RemainingSeconds {
			return votes[i].VoteID < votes[j].VoteID
		}
		return votes[i].RemainingSeconds < votes[j].RemainingSeconds
	})
	return votes
}

// OpenCount returns the number of open votes across all venues
func (c *Coordinator) OpenCount() int {
	c.venuesMu.Lock()
	venues := make([]*venueState, 0, len(c.venues))
	for _, v := range c.venues {
		venues = append(venues, v)
	}
	c.venuesMu.Unlock()

	n := 0
	for _, v := range venues {
		v.mu.Lock()
		n += len(v.active)
		v.mu.Unlock()
	}
	return n
}

// Run drives deadline expiry as a backup to timers and evicts resolved votes
// from memory after the retention period. It returns when ctx is done.
func (c *Coordinator) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("Vote coordinator stopped")
			return
		case <-ticker.C:
			c.ExpireDue(ctx)
			c.EvictResolved()
		}
	}
}

// EvictResolved drops resolved votes older than the retention period, lapsed
// cooldowns and ejection marks older than a night. Evicted votes remain
// readable through the archive.
func (c *Coordinator) EvictResolved() {
	now := c.clock.Now()
	c.mu.Lock()
	for id, s := range c.sessions {
		if s.isTerminal() && now.Sub(s.closedSince()) >= c.retention {
			delete(c.sessions, id)
		}
	}
	c.mu.Unlock()

	c.venuesMu.Lock()
	venues := make([]*venueState, 0, len(c.venues))
	for _, v := range c.venues {
		venues = append(venues, v)
	}
	c.venuesMu.Unlock()
	for _, v := range venues {
		v.cooldowns.prune(now)
		v.pruneEjections(now)
	}
}

func (v *venueState) pruneEjections(now time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for sessionID, users := range v.ejected {
		for userID, at := range users {
			if now.Sub(at) >= ejectionMemory {
				delete(users, userID)
			}
		}
		if len(users) == 0 {
			delete(v.ejected, sessionID)
		}
	}
}

// Shutdown stops pending deadline timers and aborts consequence retries
func (c *Coordinator) Shutdown() {
	c.cancel()
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.sessions {
		s.mu.Lock()
		if s.timer != nil {
			s.timer.Stop()
		}
		s.mu.Unlock()
	}
}

func requireFields(fields map[string]string) error {
	var missing []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return errors.InvalidInputf("missing required field(s): %s", strings.Join(missing, ", "))
}
