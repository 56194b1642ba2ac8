package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/abrezinsky/cuevote/internal/models"
)

// Repository provides data access methods
type Repository struct {
	db *sql.DB
}

// New creates a new Repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite works best with single connection
	db.SetMaxIdleConns(1)

	repo := &Repository{db: db}

	// Run migrations
	if err := repo.migrate(); err != nil {
		return nil, err
	}

	return repo, nil
}

// DB returns the underlying database connection (for transactions)
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Close closes the database connection
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// migrate runs database migrations
func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS incidents (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			venue_id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			type TEXT NOT NULL,
			tier INTEGER NOT NULL,
			violation_tags TEXT NOT NULL,
			source_vote_id TEXT UNIQUE NOT NULL,
			created_at DATETIME NOT NULL,
			appeal_open_until DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS penalties (
			incident_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			type TEXT NOT NULL,
			points INTEGER NOT NULL DEFAULT 0,
			session_id TEXT,
			suspended_until DATETIME,
			forfeit_matches BOOLEAN NOT NULL DEFAULT 0,
			active BOOLEAN NOT NULL DEFAULT 1,
			revoked_at DATETIME,
			revoked_by TEXT,
			FOREIGN KEY (incident_id) REFERENCES incidents(id)
		)`,
		`CREATE TABLE IF NOT EXISTS appeals (
			id TEXT PRIMARY KEY,
			incident_id TEXT UNIQUE NOT NULL,
			user_id TEXT NOT NULL,
			status TEXT NOT NULL,
			filed_at DATETIME NOT NULL,
			decided_by TEXT,
			decided_at DATETIME,
			FOREIGN KEY (incident_id) REFERENCES incidents(id)
		)`,
		`CREATE TABLE IF NOT EXISTS votes (
			id TEXT PRIMARY KEY,
			venue_id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			target_user_id TEXT NOT NULL,
			created_by TEXT NOT NULL,
			opened_at DATETIME NOT NULL,
			deadline DATETIME NOT NULL,
			closed_at DATETIME,
			status TEXT NOT NULL,
			outcome TEXT,
			forced_by TEXT,
			quorum_required INTEGER NOT NULL,
			threshold REAL NOT NULL,
			out_weight INTEGER NOT NULL,
			keep_weight INTEGER NOT NULL,
			incident_id TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS ballots (
			vote_id TEXT NOT NULL,
			voter_id TEXT NOT NULL,
			role TEXT NOT NULL,
			choice TEXT NOT NULL,
			weight INTEGER NOT NULL,
			violation_tags TEXT,
			note TEXT,
			cast_at DATETIME NOT NULL,
			PRIMARY KEY (vote_id, voter_id),
			FOREIGN KEY (vote_id) REFERENCES votes(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_incidents_user ON incidents(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_penalties_user ON penalties(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_appeals_status ON appeals(status)`,
		`CREATE INDEX IF NOT EXISTS idx_votes_venue ON votes(venue_id, opened_at)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return err
		}
	}

	// Note: base_url is intentionally not set here - it's set by app.go
	// with the detected LAN IP address on startup
	defaultSettings := map[string]string{
		"leaguehub_url": "",
	}

	for key, value := range defaultSettings {
		_, err := r.db.Exec(`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`, key, value)
		if err != nil {
			return err
		}
	}

	return nil
}

// isUniqueViolation reports whether err is a SQLite uniqueness failure
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !stderrors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func marshalTags(tags []models.ViolationTag) string {
	if tags == nil {
		tags = []models.ViolationTag{}
	}
	data, _ := json.Marshal(tags) // Marshal on a string slice never fails
	return string(data)
}

func unmarshalTags(raw sql.NullString) ([]models.ViolationTag, error) {
	tags := []models.ViolationTag{}
	if !raw.Valid || raw.String == "" {
		return tags, nil
	}
	if err := json.Unmarshal([]byte(raw.String), &tags); err != nil {
		return nil, fmt.Errorf("invalid violation tags: %w", err)
	}
	return tags, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// ==================== Incident Methods ====================

const incidentColumns = `id, user_id, venue_id, session_id, type, tier, violation_tags, source_vote_id, created_at, appeal_open_until`

func scanIncident(row rowScanner) (*models.Incident, error) {
	var inc models.Incident
	var tags sql.NullString
	var appealUntil sql.NullTime
	if err := row.Scan(&inc.ID, &inc.UserID, &inc.VenueID, &inc.SessionID, &inc.Type, &inc.Tier,
		&tags, &inc.SourceVoteID, &inc.CreatedAt, &appealUntil); err != nil {
		return nil, err
	}
	parsed, err := unmarshalTags(tags)
	if err != nil {
		return nil, err
	}
	inc.ViolationTags = parsed
	inc.CreatedAt = inc.CreatedAt.UTC()
	inc.AppealOpenUntil = timePtr(appealUntil)
	return &inc, nil
}

// PriorIncidentCount counts a user's incidents of the given types
func (r *Repository) PriorIncidentCount(ctx context.Context, userID string, types []models.IncidentType) (int, error) {
	if len(types) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(types)), ",")
	args := []interface{}{userID}
	for _, t := range types {
		args = append(args, string(t))
	}

	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM incidents WHERE user_id = ? AND type IN (`+placeholders+`)`, args...).Scan(&count)
	return count, err
}

// CreateIncident appends an incident and its penalty in one transaction.
// A second incident for the same source vote returns ErrDuplicate.
func (r *Repository) CreateIncident(ctx context.Context, incident models.Incident, penalty models.Penalty) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO incidents (`+incidentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		incident.ID, incident.UserID, incident.VenueID, incident.SessionID, string(incident.Type), incident.Tier,
		marshalTags(incident.ViolationTags), incident.SourceVoteID, incident.CreatedAt, nullTime(incident.AppealOpenUntil))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO penalties (incident_id, user_id, type, points, session_id, suspended_until, forfeit_matches, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1)`,
		incident.ID, penalty.UserID, string(penalty.Type), penalty.Points, nullString(penalty.SessionID),
		nullTime(penalty.SuspendedUntil), penalty.ForfeitMatches)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// GetIncident retrieves an incident by id
func (r *Repository) GetIncident(ctx context.Context, id string) (*models.Incident, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+incidentColumns+` FROM incidents WHERE id = ?`, id)
	inc, err := scanIncident(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return inc, err
}

// GetIncidentByVote returns the incident recorded for a vote, if any
func (r *Repository) GetIncidentByVote(ctx context.Context, voteID string) (*models.Incident, bool, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+incidentColumns+` FROM incidents WHERE source_vote_id = ?`, voteID)
	inc, err := scanIncident(row)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return inc, true, nil
}

// ListIncidentsForUser returns a user's incidents, oldest first
func (r *Repository) ListIncidentsForUser(ctx context.Context, userID string) ([]models.Incident, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+incidentColumns+` FROM incidents WHERE user_id = ? ORDER BY created_at, tier`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	incidents := []models.Incident{}
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		incidents = append(incidents, *inc)
	}
	return incidents, rows.Err()
}

const penaltyColumns = `incident_id, user_id, type, points, session_id, suspended_until, forfeit_matches, active, revoked_at, revoked_by`

func scanPenalty(row rowScanner) (*models.Penalty, error) {
	var p models.Penalty
	var sessionID, revokedBy sql.NullString
	var suspendedUntil, revokedAt sql.NullTime
	if err := row.Scan(&p.IncidentID, &p.UserID, &p.Type, &p.Points, &sessionID, &suspendedUntil,
		&p.ForfeitMatches, &p.Active, &revokedAt, &revokedBy); err != nil {
		return nil, err
	}
	p.SessionID = sessionID.String
	p.SuspendedUntil = timePtr(suspendedUntil)
	p.RevokedAt = timePtr(revokedAt)
	p.RevokedBy = revokedBy.String
	return &p, nil
}

// GetPenalty returns the penalty attached to an incident
func (r *Repository) GetPenalty(ctx context.Context, incidentID string) (*models.Penalty, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+penaltyColumns+` FROM penalties WHERE incident_id = ?`, incidentID)
	p, err := scanPenalty(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return p, err
}

// ActivePenalties returns a user's penalties that have not been revoked
func (r *Repository) ActivePenalties(ctx context.Context, userID string) ([]models.Penalty, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+penaltyColumns+` FROM penalties WHERE user_id = ? AND active = 1 ORDER BY incident_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	penalties := []models.Penalty{}
	for rows.Next() {
		p, err := scanPenalty(rows)
		if err != nil {
			return nil, err
		}
		penalties = append(penalties, *p)
	}
	return penalties, rows.Err()
}

// ==================== Appeal Methods ====================

const appealColumns = `id, incident_id, user_id, status, filed_at, decided_by, decided_at`

func scanAppeal(row rowScanner) (*models.Appeal, error) {
	var a models.Appeal
	var decidedBy sql.NullString
	var decidedAt sql.NullTime
	if err := row.Scan(&a.ID, &a.IncidentID, &a.UserID, &a.Status, &a.FiledAt, &decidedBy, &decidedAt); err != nil {
		return nil, err
	}
	a.FiledAt = a.FiledAt.UTC()
	a.DecidedBy = decidedBy.String
	a.DecidedAt = timePtr(decidedAt)
	return &a, nil
}

// CreateAppeal stores a pending appeal. A second appeal for the same incident
// returns ErrDuplicate.
func (r *Repository) CreateAppeal(ctx context.Context, appeal models.Appeal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO appeals (id, incident_id, user_id, status, filed_at)
		VALUES (?, ?, ?, ?, ?)`,
		appeal.ID, appeal.IncidentID, appeal.UserID, string(appeal.Status), appeal.FiledAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// GetAppeal retrieves an appeal by id
func (r *Repository) GetAppeal(ctx context.Context, id string) (*models.Appeal, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+appealColumns+` FROM appeals WHERE id = ?`, id)
	a, err := scanAppeal(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return a, err
}

// GetAppealByIncident returns the appeal filed against an incident, if any
func (r *Repository) GetAppealByIncident(ctx context.Context, incidentID string) (*models.Appeal, bool, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+appealColumns+` FROM appeals WHERE incident_id = ?`, incidentID)
	a, err := scanAppeal(row)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return a, true, nil
}

// ListAppeals returns appeals with the given status, or all appeals when status is empty
func (r *Repository) ListAppeals(ctx context.Context, status models.AppealStatus) ([]models.Appeal, error) {
	query := `SELECT ` + appealColumns + ` FROM appeals`
	var args []interface{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY filed_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appeals := []models.Appeal{}
	for rows.Next() {
		a, err := scanAppeal(rows)
		if err != nil {
			return nil, err
		}
		appeals = append(appeals, *a)
	}
	return appeals, rows.Err()
}

// DecideAppeal moves a pending appeal to its final status. An overturned
// appeal revokes the incident's penalty in the same transaction; the incident
// itself is never modified.
func (r *Repository) DecideAppeal(ctx context.Context, id string, status models.AppealStatus, decidedBy string, decidedAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var incidentID string
	var current string
	err = tx.QueryRowContext(ctx, `SELECT incident_id, status FROM appeals WHERE id = ?`, id).Scan(&incidentID, &current)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if models.AppealStatus(current) != models.AppealPending {
		return ErrAlreadyDecided
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE appeals SET status = ?, decided_by = ?, decided_at = ? WHERE id = ? AND status = ?`,
		string(status), decidedBy, decidedAt, id, string(models.AppealPending)); err != nil {
		return err
	}

	if status == models.AppealOverturned {
		if _, err := tx.ExecContext(ctx,
			`UPDATE penalties SET active = 0, revoked_at = ?, revoked_by = ? WHERE incident_id = ?`,
			decidedAt, decidedBy, incidentID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ==================== Vote Archive Methods ====================

const voteColumns = `id, venue_id, session_id, target_user_id, created_by, opened_at, deadline, closed_at, status,
	outcome, forced_by, quorum_required, threshold, out_weight, keep_weight, incident_id`

func scanVote(row rowScanner) (*models.VoteSnapshot, error) {
	var v models.VoteSnapshot
	var closedAt sql.NullTime
	var outcome, forcedBy, incidentID sql.NullString
	if err := row.Scan(&v.ID, &v.VenueID, &v.SessionID, &v.TargetUserID, &v.CreatedBy, &v.OpenedAt, &v.Deadline,
		&closedAt, &v.Status, &outcome, &forcedBy, &v.QuorumRequired, &v.Threshold, &v.OutWeight, &v.KeepWeight,
		&incidentID); err != nil {
		return nil, err
	}
	v.OpenedAt = v.OpenedAt.UTC()
	v.Deadline = v.Deadline.UTC()
	v.ClosedAt = timePtr(closedAt)
	v.Outcome = models.Outcome(outcome.String)
	v.ForcedBy = forcedBy.String
	v.IncidentID = incidentID.String
	return &v, nil
}

// ArchiveVote stores a resolved vote with its ballots, replacing any earlier copy
func (r *Repository) ArchiveVote(ctx context.Context, snap models.VoteSnapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO votes (`+voteColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			closed_at = excluded.closed_at,
			status = excluded.status,
			outcome = excluded.outcome,
			forced_by = excluded.forced_by,
			quorum_required = excluded.quorum_required,
			out_weight = excluded.out_weight,
			keep_weight = excluded.keep_weight,
			incident_id = excluded.incident_id`,
		snap.ID, snap.VenueID, snap.SessionID, snap.TargetUserID, snap.CreatedBy, snap.OpenedAt, snap.Deadline,
		nullTime(snap.ClosedAt), string(snap.Status), nullString(string(snap.Outcome)), nullString(snap.ForcedBy),
		int64(snap.QuorumRequired), snap.Threshold, int64(snap.OutWeight), int64(snap.KeepWeight),
		nullString(snap.IncidentID))
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM ballots WHERE vote_id = ?`, snap.ID); err != nil {
		return err
	}
	for _, b := range snap.Ballots {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ballots (vote_id, voter_id, role, choice, weight, violation_tags, note, cast_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			snap.ID, b.VoterID, string(b.Role), string(b.Choice), int64(b.Weight), marshalTags(b.Tags),
			nullString(b.Note), b.CastAt)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetArchivedVote loads an archived vote and its ballots
func (r *Repository) GetArchivedVote(ctx context.Context, id string) (*models.VoteSnapshot, bool, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+voteColumns+` FROM votes WHERE id = ?`, id)
	v, err := scanVote(row)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	ballots, err := r.listBallots(ctx, id)
	if err != nil {
		return nil, false, err
	}
	v.Ballots = ballots
	v.BallotCount = len(ballots)
	return v, true, nil
}

func (r *Repository) listBallots(ctx context.Context, voteID string) ([]models.Ballot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT voter_id, role, choice, weight, violation_tags, note, cast_at
		FROM ballots WHERE vote_id = ? ORDER BY cast_at, voter_id`, voteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ballots := []models.Ballot{}
	for rows.Next() {
		var b models.Ballot
		var tags, note sql.NullString
		if err := rows.Scan(&b.VoterID, &b.Role, &b.Choice, &b.Weight, &tags, &note, &b.CastAt); err != nil {
			return nil, err
		}
		parsed, err := unmarshalTags(tags)
		if err != nil {
			return nil, err
		}
		if len(parsed) > 0 {
			b.Tags = parsed
		}
		b.Note = note.String
		b.CastAt = b.CastAt.UTC()
		ballots = append(ballots, b)
	}
	return ballots, rows.Err()
}

// ListArchivedVotes returns a venue's most recent resolved votes, newest first.
// Ballots are not loaded.
func (r *Repository) ListArchivedVotes(ctx context.Context, venueID string, limit int) ([]models.VoteSnapshot, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+voteColumns+`, (SELECT COUNT(*) FROM ballots b WHERE b.vote_id = votes.id)
		FROM votes WHERE venue_id = ? ORDER BY opened_at DESC, id LIMIT ?`, venueID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	votes := []models.VoteSnapshot{}
	for rows.Next() {
		var count int
		v, err := scanVote(withTrailing(rows, &count))
		if err != nil {
			return nil, err
		}
		v.BallotCount = count
		votes = append(votes, *v)
	}
	return votes, rows.Err()
}

// withTrailing appends extra destinations to every Scan call
func withTrailing(row rowScanner, extra ...interface{}) rowScanner {
	return trailingScanner{row: row, extra: extra}
}

type trailingScanner struct {
	row   rowScanner
	extra []interface{}
}

func (t trailingScanner) Scan(dest ...interface{}) error {
	return t.row.Scan(append(dest, t.extra...)...)
}

// ==================== Settings Methods ====================

// GetSetting retrieves a setting value
func (r *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return value, err
}

// SetSetting saves a setting value
func (r *Repository) SetSetting(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`, key, value)
	return err
}

// GetStats returns overall counts for the operator dashboard
func (r *Repository) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	counts := []struct {
		key   string
		query string
	}{
		{"archived_votes", `SELECT COUNT(*) FROM votes`},
		{"passed_votes", `SELECT COUNT(*) FROM votes WHERE outcome = 'passed'`},
		{"ballots", `SELECT COUNT(*) FROM ballots`},
		{"incidents", `SELECT COUNT(*) FROM incidents`},
		{"active_penalties", `SELECT COUNT(*) FROM penalties WHERE active = 1`},
		{"pending_appeals", `SELECT COUNT(*) FROM appeals WHERE status = 'pending'`},
	}
	for _, c := range counts {
		var n int
		if err := r.db.QueryRowContext(ctx, c.query).Scan(&n); err != nil {
			return nil, err
		}
		stats[c.key] = n
	}

	return stats, nil
}

// ==================== Database Management Methods ====================

// validTables defines which tables can be safely cleared. The incident log,
// penalties and appeals are append-only and never cleared.
var validTables = map[string]bool{
	"votes": true, "ballots": true, "settings": true,
}

// ClearTable clears all data from a table
// Only allows clearing whitelisted tables to prevent SQL injection
func (r *Repository) ClearTable(ctx context.Context, table string) error {
	if !validTables[table] {
		return ErrInvalidTable
	}

	// Safe to use string concatenation now that we've validated the table name
	_, err := r.db.ExecContext(ctx, "DELETE FROM "+table)
	return err
}
