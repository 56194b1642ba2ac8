package models

import (
	"strconv"
	"time"
)

// Role is a voter's checked-in role for a session
type Role string

const (
	RoleAttendee Role = "attendee"
	RolePlayer   Role = "player"
	RoleOperator Role = "operator"
)

// Weight is a fixed-point vote weight in thousandths (1.0 == WeightUnit).
// Integer arithmetic keeps quorum and threshold comparisons exact.
type Weight int64

// WeightUnit is the Weight value of 1.0
const WeightUnit Weight = 1000

// WeightFromFloat converts a decimal weight, rounding to the nearest thousandth
func WeightFromFloat(f float64) Weight {
	if f < 0 {
		return Weight(f*float64(WeightUnit) - 0.5)
	}
	return Weight(f*float64(WeightUnit) + 0.5)
}

// Float64 returns the weight as a decimal number
func (w Weight) Float64() float64 {
	return float64(w) / float64(WeightUnit)
}

func (w Weight) String() string {
	return strconv.FormatFloat(w.Float64(), 'f', -1, 64)
}

// MarshalJSON renders the weight as a plain JSON number (e.g. 1.5)
func (w Weight) MarshalJSON() ([]byte, error) {
	return []byte(w.String()), nil
}

// UnmarshalJSON accepts a JSON number
func (w *Weight) UnmarshalJSON(data []byte) error {
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*w = WeightFromFloat(f)
	return nil
}

// Choice is a ballot's decision on the target
type Choice string

const (
	ChoiceOut  Choice = "out"
	ChoiceKeep Choice = "keep"
)

// ViolationTag is a behavior category code attached to an "out" ballot
type ViolationTag string

const (
	TagUnsportsmanlike ViolationTag = "unsportsmanlike"
	TagHarassment      ViolationTag = "harassment"
	TagAbusiveLanguage ViolationTag = "abusive_language"
	TagIntoxication    ViolationTag = "intoxication"
	TagCheating        ViolationTag = "cheating"
	TagPropertyDamage  ViolationTag = "property_damage"
	TagSlowPlay        ViolationTag = "slow_play"
	TagOther           ViolationTag = "other"
)

// ViolationTags lists every recognized category code
var ViolationTags = []ViolationTag{
	TagUnsportsmanlike,
	TagHarassment,
	TagAbusiveLanguage,
	TagIntoxication,
	TagCheating,
	TagPropertyDamage,
	TagSlowPlay,
	TagOther,
}

// IsKnownViolationTag reports whether tag is a recognized category code
func IsKnownViolationTag(tag ViolationTag) bool {
	for _, t := range ViolationTags {
		if t == tag {
			return true
		}
	}
	return false
}

// MaxNoteLength is the maximum ballot note length in characters
const MaxNoteLength = 140

// Ballot is a single voter's weighted choice on one vote
type Ballot struct {
	VoterID string         `json:"voter_id"`
	Role    Role           `json:"role"`
	Choice  Choice         `json:"choice"`
	Weight  Weight         `json:"weight"`
	Tags    []ViolationTag `json:"violation_tags,omitempty"`
	Note    string         `json:"note,omitempty"`
	CastAt  time.Time      `json:"cast_at"`
}

// VoteStatus is the state of a vote session
type VoteStatus string

const (
	StatusOpen            VoteStatus = "open"
	StatusClosedPassed    VoteStatus = "closed_passed"
	StatusClosedFailed    VoteStatus = "closed_failed"
	StatusClosedForced    VoteStatus = "closed_forced"
	StatusExpiredNoQuorum VoteStatus = "expired_no_quorum"
)

// Terminal reports whether the status can no longer change
func (s VoteStatus) Terminal() bool {
	return s != StatusOpen && s != ""
}

// Outcome is the resolved result of a vote
type Outcome string

const (
	OutcomePassed   Outcome = "passed"
	OutcomeFailed   Outcome = "failed"
	OutcomeNoQuorum Outcome = "no_quorum"
)

// VoteSnapshot is a point-in-time view of a vote session including live tallies
type VoteSnapshot struct {
	ID             string     `json:"id"`
	VenueID        string     `json:"venue_id"`
	SessionID      string     `json:"session_id"`
	TargetUserID   string     `json:"target_user_id"`
	CreatedBy      string     `json:"created_by"`
	OpenedAt       time.Time  `json:"opened_at"`
	Deadline       time.Time  `json:"deadline"`
	ClosedAt       *time.Time `json:"closed_at,omitempty"`
	Status         VoteStatus `json:"status"`
	Outcome        Outcome    `json:"outcome,omitempty"`
	ForcedBy       string     `json:"forced_by,omitempty"`
	QuorumRequired Weight     `json:"quorum_required"`
	Threshold      float64    `json:"threshold"`
	OutWeight      Weight     `json:"out_weight"`
	KeepWeight     Weight     `json:"keep_weight"`
	BallotCount    int        `json:"ballot_count"`
	IncidentID     string     `json:"incident_id,omitempty"`
	Ballots        []Ballot   `json:"-"`
}

// CastWeight is the total weight of all ballots regardless of choice
func (v VoteSnapshot) CastWeight() Weight {
	return v.OutWeight + v.KeepWeight
}

// ActiveVote is the live-display read model for an open vote
type ActiveVote struct {
	VoteID           string `json:"vote_id"`
	TargetUserID     string `json:"target_user_id"`
	RemainingSeconds int    `json:"remaining_seconds"`
	YouVoted         bool   `json:"you_voted"`
}

// IncidentType classifies a recorded consequence
type IncidentType string

const (
	IncidentEjection   IncidentType = "ejection"
	IncidentSuspension IncidentType = "suspension"
	IncidentWarning    IncidentType = "warning"
)

// Incident is a permanent, append-only record of a behavior consequence
type Incident struct {
	ID              string         `json:"id"`
	UserID          string         `json:"user_id"`
	VenueID         string         `json:"venue_id"`
	SessionID       string         `json:"session_id"`
	Type            IncidentType   `json:"type"`
	Tier            int            `json:"tier"`
	ViolationTags   []ViolationTag `json:"violation_tags"`
	CreatedAt       time.Time      `json:"created_at"`
	SourceVoteID    string         `json:"source_vote_id"`
	AppealOpenUntil *time.Time     `json:"appeal_open_until,omitempty"`
}

// Penalty is the enforceable effect attached to an incident
type Penalty struct {
	IncidentID     string       `json:"incident_id"`
	UserID         string       `json:"user_id"`
	Type           IncidentType `json:"type"`
	Points         int          `json:"points"`
	SessionID      string       `json:"session_id,omitempty"`
	SuspendedUntil *time.Time   `json:"suspended_until,omitempty"`
	ForfeitMatches bool         `json:"forfeit_matches"`
	Active         bool         `json:"active"`
	RevokedAt      *time.Time   `json:"revoked_at,omitempty"`
	RevokedBy      string       `json:"revoked_by,omitempty"`
}

// AppealStatus is the state of an appeal
type AppealStatus string

const (
	AppealPending    AppealStatus = "pending"
	AppealUpheld     AppealStatus = "upheld"
	AppealOverturned AppealStatus = "overturned"
)

// Appeal is a request by an incident's subject to have it reviewed
type Appeal struct {
	ID         string       `json:"id"`
	IncidentID string       `json:"incident_id"`
	UserID     string       `json:"user_id"`
	Status     AppealStatus `json:"status"`
	FiledAt    time.Time    `json:"filed_at"`
	DecidedBy  string       `json:"decided_by,omitempty"`
	DecidedAt  *time.Time   `json:"decided_at,omitempty"`
}

// ResolutionEvent is emitted once per resolved vote
type ResolutionEvent struct {
	VoteID       string    `json:"vote_id"`
	VenueID      string    `json:"venue_id"`
	SessionID    string    `json:"session_id"`
	TargetUserID string    `json:"target_user_id"`
	Outcome      Outcome   `json:"outcome"`
	Forced       bool      `json:"forced"`
	Incident     *Incident `json:"incident,omitempty"`
	ResolvedAt   time.Time `json:"resolved_at"`
}

// PassedVote is what the consequence ladder needs to record a passed vote
type PassedVote struct {
	VoteID       string
	VenueID      string
	SessionID    string
	TargetUserID string
	Tags         []ViolationTag
}

// CheckIn is a user's presence at a venue session
type CheckIn struct {
	UserID    string `json:"user_id"`
	VenueID   string `json:"venue_id"`
	SessionID string `json:"session_id"`
	Role      Role   `json:"role"`
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
