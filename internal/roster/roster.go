// Package roster tracks who is checked in at each venue and who is at the table.
package roster

import (
	"context"
	"sort"
	"sync"

	"github.com/abrezinsky/cuevote/internal/errors"
	"github.com/abrezinsky/cuevote/internal/logger"
	"github.com/abrezinsky/cuevote/internal/models"
	"github.com/abrezinsky/cuevote/internal/vote"
	"github.com/abrezinsky/cuevote/pkg/leaguehub"
)

// Roster is the in-memory check-in list of every venue
type Roster struct {
	log logger.Logger

	mu       sync.RWMutex
	venues   map[string]*venueRoster
	sessions map[string]map[string]models.Role // session id -> user id -> role
}

type venueRoster struct {
	checkIns map[string]models.CheckIn
	shooter  string
}

// New creates an empty roster
func New(log logger.Logger) *Roster {
	return &Roster{
		log:      log,
		venues:   make(map[string]*venueRoster),
		sessions: make(map[string]map[string]models.Role),
	}
}

func (r *Roster) venueLocked(venueID string) *venueRoster {
	v, ok := r.venues[venueID]
	if !ok {
		v = &venueRoster{checkIns: make(map[string]models.CheckIn)}
		r.venues[venueID] = v
	}
	return v
}

// CheckIn records a user's presence at a venue session, replacing any earlier
// check-in of that user at the venue
func (r *Roster) CheckIn(c models.CheckIn) error {
	if c.UserID == "" || c.VenueID == "" || c.SessionID == "" {
		return errors.InvalidInput("user_id, venue_id and session_id are required")
	}
	if _, err := vote.WeightOf(c.Role); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkInLocked(c)
	return nil
}

func (r *Roster) checkInLocked(c models.CheckIn) {
	v := r.venueLocked(c.VenueID)
	if prev, ok := v.checkIns[c.UserID]; ok {
		delete(v.checkIns, c.UserID)
		r.forgetLocked(prev)
	}
	v.checkIns[c.UserID] = c
	if r.sessions[c.SessionID] == nil {
		r.sessions[c.SessionID] = make(map[string]models.Role)
	}
	r.sessions[c.SessionID][c.UserID] = c.Role
}

// forgetLocked drops the session role of a check-in already removed from its
// venue. A check-in for the same session at another venue keeps the user
// resolvable under that venue's role.
func (r *Roster) forgetLocked(c models.CheckIn) {
	users := r.sessions[c.SessionID]
	if users == nil {
		return
	}
	for _, v := range r.venues {
		if other, ok := v.checkIns[c.UserID]; ok && other.SessionID == c.SessionID {
			users[c.UserID] = other.Role
			return
		}
	}
	delete(users, c.UserID)
	if len(users) == 0 {
		delete(r.sessions, c.SessionID)
	}
}

// CheckOut removes a user from a venue. Ballots already cast keep their weight.
func (r *Roster) CheckOut(venueID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.venues[venueID]
	if !ok {
		return errors.NotFoundf("user %s is not checked in at %s", userID, venueID)
	}
	c, ok := v.checkIns[userID]
	if !ok {
		return errors.NotFoundf("user %s is not checked in at %s", userID, venueID)
	}
	delete(v.checkIns, userID)
	r.forgetLocked(c)
	if v.shooter == userID {
		v.shooter = ""
	}
	return nil
}

// SetShooter marks the user currently at the table
func (r *Roster) SetShooter(venueID, userID string) error {
	if venueID == "" || userID == "" {
		return errors.InvalidInput("venue_id and user_id are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.venueLocked(venueID).shooter = userID
	return nil
}

// ClearShooter marks the table idle
func (r *Roster) ClearShooter(venueID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.venues[venueID]; ok {
		v.shooter = ""
	}
}

// Shooter returns the user at the table, or ""
func (r *Roster) Shooter(venueID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if v, ok := r.venues[venueID]; ok {
		return v.shooter
	}
	return ""
}

// ResolveRole returns the role a user checked in with for a session
func (r *Roster) ResolveRole(userID, sessionID string) (models.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	role, ok := r.sessions[sessionID][userID]
	if !ok {
		return "", errors.EligibilityDenied(string(vote.ReasonNotCheckedIn), "not checked in to this session")
	}
	return role, nil
}

// TotalEligibleWeight sums the vote weight of everyone checked in at a venue
func (r *Roster) TotalEligibleWeight(venueID string) models.Weight {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.venues[venueID]
	if !ok {
		return 0
	}
	var total models.Weight
	for _, c := range v.checkIns {
		w, err := vote.WeightOf(c.Role)
		if err != nil {
			continue
		}
		total += w
	}
	return total
}

// IsCurrentShooter reports whether the user is at the table in the venue
func (r *Roster) IsCurrentShooter(userID, venueID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.venues[venueID]
	return ok && v.shooter != "" && v.shooter == userID
}

// List returns the check-ins of a venue ordered by user id
func (r *Roster) List(venueID string) []models.CheckIn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.venues[venueID]
	if !ok {
		return []models.CheckIn{}
	}
	list := make([]models.CheckIn, 0, len(v.checkIns))
	for _, c := range v.checkIns {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].UserID < list[j].UserID })
	return list
}

// SyncResult summarizes a league hub sync
type SyncResult struct {
	CheckedIn int    `json:"checked_in"`
	Skipped   int    `json:"skipped"`
	Shooter   string `json:"shooter"`
}

// Sync replaces a venue's check-ins and shooter with the league hub's.
// Records with an unknown role are skipped.
func (r *Roster) Sync(ctx context.Context, client leaguehub.Client, venueID string) (*SyncResult, error) {
	records, err := client.FetchCheckIns(ctx, venueID)
	if err != nil {
		r.log.Error("Failed to fetch check-ins from league hub", "venue_id", venueID, "error", err)
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to fetch check-ins from league hub")
	}
	shooter, err := client.FetchCurrentShooter(ctx, venueID)
	if err != nil {
		r.log.Error("Failed to fetch current shooter from league hub", "venue_id", venueID, "error", err)
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to fetch current shooter from league hub")
	}

	result := &SyncResult{Shooter: shooter}
	var checkIns []models.CheckIn
	for _, rec := range records {
		c := models.CheckIn{
			UserID:    rec.UserID.String(),
			VenueID:   venueID,
			SessionID: rec.SessionID.String(),
			Role:      models.Role(rec.Role),
		}
		if _, err := vote.WeightOf(c.Role); err != nil || c.UserID == "" || c.SessionID == "" {
			r.log.Warn("Skipping league hub check-in", "venue_id", venueID, "user_id", c.UserID, "role", rec.Role)
			result.Skipped++
			continue
		}
		checkIns = append(checkIns, c)
	}

	r.mu.Lock()
	old := r.venues[venueID]
	r.venues[venueID] = &venueRoster{checkIns: make(map[string]models.CheckIn), shooter: shooter}
	if old != nil {
		for _, c := range old.checkIns {
			r.forgetLocked(c)
		}
	}
	for _, c := range checkIns {
		r.checkInLocked(c)
	}
	r.mu.Unlock()

	result.CheckedIn = len(checkIns)
	r.log.Info("Roster synced from league hub", "venue_id", venueID, "checked_in", result.CheckedIn, "skipped", result.Skipped, "shooter", shooter)
	return result, nil
}

var (
	_ vote.Identity = (*Roster)(nil)
	_ vote.Roster   = (*Roster)(nil)
)
