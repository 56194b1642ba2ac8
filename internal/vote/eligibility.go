package vote

import (
	"time"

	"github.com/abrezinsky/cuevote/internal/errors"
)

// Cooldown is how long a voter must wait after casting a ballot before
// casting another one anywhere in the same venue
const Cooldown = 15 * time.Minute

// DenyReason identifies why the guard refused an action
type DenyReason string

const (
	ReasonNone           DenyReason = ""
	ReasonVoteActive     DenyReason = "vote_active"
	ReasonTargetImmune   DenyReason = "target_immune"
	ReasonEjectedTonight DenyReason = "ejected_tonight"
	ReasonVoteNotOpen    DenyReason = "vote_not_open"
	ReasonAlreadyVoted   DenyReason = "already_voted"
	ReasonNotCheckedIn   DenyReason = "not_checked_in"
	ReasonCooldown       DenyReason = "cooldown"
)

var reasonMessages = map[DenyReason]string{
	ReasonVoteActive:     "a vote is already active for this player",
	ReasonTargetImmune:   "player is at the table and cannot be voted on",
	ReasonEjectedTonight: "player has already been ejected tonight",
	ReasonVoteNotOpen:    "vote no longer open",
	ReasonAlreadyVoted:   "already voted",
	ReasonNotCheckedIn:   "not checked in to this session",
	ReasonCooldown:       "on cooldown",
}

// Decision is the guard's answer; the zero value allows
type Decision struct {
	Reason DenyReason
}

// Allowed reports whether the action may proceed
func (d Decision) Allowed() bool {
	return d.Reason == ReasonNone
}

// Message is the user-visible explanation of a denial
func (d Decision) Message() string {
	return reasonMessages[d.Reason]
}

// Err converts a denial into the matching domain error, or nil when allowed
func (d Decision) Err() error {
	switch d.Reason {
	case ReasonNone:
		return nil
	case ReasonVoteNotOpen:
		return errors.VoteClosed()
	case ReasonAlreadyVoted:
		return errors.DuplicateBallot()
	default:
		return errors.EligibilityDenied(string(d.Reason), d.Message())
	}
}

// OpenFacts is the state the guard needs to decide whether a vote may open
type OpenFacts struct {
	ActiveVote      bool
	TargetIsShooter bool
	EjectedTonight  bool
}

// CastFacts is the state the guard needs to decide whether a ballot may be cast
type CastFacts struct {
	VoteOpen     bool
	AlreadyVoted bool
	RoleResolved bool
	OnCooldown   bool
}

// Guard holds the eligibility rules. It has no state and performs no I/O;
// callers gather the facts from the roster and the coordinator.
type Guard struct{}

// CanOpenVote decides whether a new vote may open against a target
func (Guard) CanOpenVote(f OpenFacts) Decision {
	switch {
	case f.ActiveVote:
		return Decision{Reason: ReasonVoteActive}
	case f.TargetIsShooter:
		return Decision{Reason: ReasonTargetImmune}
	case f.EjectedTonight:
		return Decision{Reason: ReasonEjectedTonight}
	}
	return Decision{}
}

// CanCastBallot decides whether a voter may cast a ballot on a vote
func (Guard) CanCastBallot(f CastFacts) Decision {
	switch {
	case !f.VoteOpen:
		return Decision{Reason: ReasonVoteNotOpen}
	case f.AlreadyVoted:
		return Decision{Reason: ReasonAlreadyVoted}
	case !f.RoleResolved:
		return Decision{Reason: ReasonNotCheckedIn}
	case f.OnCooldown:
		return Decision{Reason: ReasonCooldown}
	}
	return Decision{}
}

// OnCooldown reports whether a ballot cast at last still blocks a ballot at now
func OnCooldown(last, now time.Time) bool {
	return !last.IsZero() && now.Sub(last) < Cooldown
}
