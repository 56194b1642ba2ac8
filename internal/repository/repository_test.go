package repository

import (
	"context"
	"testing"
	"time"

	"github.com/abrezinsky/cuevote/internal/models"
)

// newTestRepo creates a new in-memory repository for testing.
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

var base = time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC)

func sampleIncident(id, user, voteID string, typ models.IncidentType, tier int) (models.Incident, models.Penalty) {
	until := base.Add(72 * time.Hour)
	inc := models.Incident{
		ID:              id,
		UserID:          user,
		VenueID:         "hall",
		SessionID:       "tue",
		Type:            typ,
		Tier:            tier,
		ViolationTags:   []models.ViolationTag{models.TagHarassment, models.TagCheating},
		CreatedAt:       base.Add(time.Duration(tier) * time.Minute),
		SourceVoteID:    voteID,
		AppealOpenUntil: &until,
	}
	pen := models.Penalty{
		IncidentID: id,
		UserID:     user,
		Type:       typ,
		Points:     10 * tier,
		SessionID:  "tue",
	}
	return inc, pen
}

func mustCreateIncident(t *testing.T, repo *Repository, id, user, voteID string, typ models.IncidentType, tier int) {
	t.Helper()
	inc, pen := sampleIncident(id, user, voteID, typ, tier)
	if err := repo.CreateIncident(context.Background(), inc, pen); err != nil {
		t.Fatalf("CreateIncident(%s): %v", id, err)
	}
}

// ==================== Incident Tests ====================

func TestCreateIncident_RoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	mustCreateIncident(t, repo, "inc-1", "rowdy", "vote-1", models.IncidentEjection, 1)

	got, err := repo.GetIncident(ctx, "inc-1")
	if err != nil {
		t.Fatalf("GetIncident failed: %v", err)
	}
	if got.UserID != "rowdy" || got.Tier != 1 || got.Type != models.IncidentEjection {
		t.Errorf("incident = %+v", got)
	}
	if len(got.ViolationTags) != 2 || got.ViolationTags[0] != models.TagHarassment {
		t.Errorf("tags = %v", got.ViolationTags)
	}
	if got.AppealOpenUntil == nil || !got.AppealOpenUntil.Equal(base.Add(72*time.Hour)) {
		t.Errorf("appeal window = %v", got.AppealOpenUntil)
	}
	if !got.CreatedAt.Equal(base.Add(time.Minute)) {
		t.Errorf("created_at = %v", got.CreatedAt)
	}

	pen, err := repo.GetPenalty(ctx, "inc-1")
	if err != nil {
		t.Fatalf("GetPenalty failed: %v", err)
	}
	if !pen.Active || pen.Points != 10 || pen.SessionID != "tue" {
		t.Errorf("penalty = %+v", pen)
	}
}

func TestCreateIncident_DuplicateVote(t *testing.T) {
	repo := newTestRepo(t)
	mustCreateIncident(t, repo, "inc-1", "rowdy", "vote-1", models.IncidentEjection, 1)

	inc, pen := sampleIncident("inc-2", "rowdy", "vote-1", models.IncidentEjection, 1)
	if err := repo.CreateIncident(context.Background(), inc, pen); err != ErrDuplicate {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}
	// the failed transaction left no penalty behind
	if _, err := repo.GetPenalty(context.Background(), "inc-2"); err != ErrNotFound {
		t.Errorf("GetPenalty err = %v, want ErrNotFound", err)
	}
}

func TestGetIncident_NotFound(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.GetIncident(context.Background(), "nope"); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, found, err := repo.GetIncidentByVote(context.Background(), "nope"); found || err != nil {
		t.Errorf("GetIncidentByVote = %v, %v", found, err)
	}
}

func TestPriorIncidentCount(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	mustCreateIncident(t, repo, "inc-1", "rowdy", "vote-1", models.IncidentEjection, 1)
	mustCreateIncident(t, repo, "inc-2", "rowdy", "vote-2", models.IncidentSuspension, 2)
	mustCreateIncident(t, repo, "inc-3", "rowdy", "vote-3", models.IncidentWarning, 1)
	mustCreateIncident(t, repo, "inc-4", "other", "vote-4", models.IncidentEjection, 1)

	n, err := repo.PriorIncidentCount(ctx, "rowdy", []models.IncidentType{models.IncidentEjection, models.IncidentSuspension})
	if err != nil {
		t.Fatalf("PriorIncidentCount failed: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
	if n, _ := repo.PriorIncidentCount(ctx, "rowdy", nil); n != 0 {
		t.Errorf("count with no types = %d", n)
	}

	list, err := repo.ListIncidentsForUser(ctx, "rowdy")
	if err != nil {
		t.Fatalf("ListIncidentsForUser failed: %v", err)
	}
	if len(list) != 3 || list[0].ID != "inc-1" {
		t.Errorf("list = %+v", list)
	}
	if empty, _ := repo.ListIncidentsForUser(ctx, "saint"); empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil list, got %v", empty)
	}
}

// ==================== Appeal Tests ====================

func TestAppeals_CreateAndDecide(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	mustCreateIncident(t, repo, "inc-1", "rowdy", "vote-1", models.IncidentEjection, 1)

	appeal := models.Appeal{ID: "ap-1", IncidentID: "inc-1", UserID: "rowdy", Status: models.AppealPending, FiledAt: base}
	if err := repo.CreateAppeal(ctx, appeal); err != nil {
		t.Fatalf("CreateAppeal failed: %v", err)
	}
	dup := appeal
	dup.ID = "ap-2"
	if err := repo.CreateAppeal(ctx, dup); err != ErrDuplicate {
		t.Fatalf("second appeal err = %v, want ErrDuplicate", err)
	}

	pending, err := repo.ListAppeals(ctx, models.AppealPending)
	if err != nil || len(pending) != 1 {
		t.Fatalf("ListAppeals(pending) = %d, %v", len(pending), err)
	}

	decided := base.Add(time.Hour)
	if err := repo.DecideAppeal(ctx, "ap-1", models.AppealOverturned, "op", decided); err != nil {
		t.Fatalf("DecideAppeal failed: %v", err)
	}
	got, err := repo.GetAppeal(ctx, "ap-1")
	if err != nil {
		t.Fatalf("GetAppeal failed: %v", err)
	}
	if got.Status != models.AppealOverturned || got.DecidedBy != "op" || got.DecidedAt == nil {
		t.Errorf("appeal = %+v", got)
	}

	pen, _ := repo.GetPenalty(ctx, "inc-1")
	if pen.Active || pen.RevokedBy != "op" || pen.RevokedAt == nil {
		t.Errorf("penalty not revoked: %+v", pen)
	}
	if active, _ := repo.ActivePenalties(ctx, "rowdy"); len(active) != 0 {
		t.Errorf("active penalties = %d", len(active))
	}
	// the incident stays on record
	if _, err := repo.GetIncident(ctx, "inc-1"); err != nil {
		t.Errorf("incident removed by overturn: %v", err)
	}

	if err := repo.DecideAppeal(ctx, "ap-1", models.AppealUpheld, "op", decided); err != ErrAlreadyDecided {
		t.Errorf("second decision err = %v, want ErrAlreadyDecided", err)
	}
	if err := repo.DecideAppeal(ctx, "ap-9", models.AppealUpheld, "op", decided); err != ErrNotFound {
		t.Errorf("unknown appeal err = %v, want ErrNotFound", err)
	}
}

func TestAppeals_UpheldKeepsPenalty(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	mustCreateIncident(t, repo, "inc-1", "rowdy", "vote-1", models.IncidentEjection, 1)
	repo.CreateAppeal(ctx, models.Appeal{ID: "ap-1", IncidentID: "inc-1", UserID: "rowdy", Status: models.AppealPending, FiledAt: base})

	if err := repo.DecideAppeal(ctx, "ap-1", models.AppealUpheld, "op", base); err != nil {
		t.Fatalf("DecideAppeal failed: %v", err)
	}
	if active, _ := repo.ActivePenalties(ctx, "rowdy"); len(active) != 1 {
		t.Errorf("active penalties = %d, want 1", len(active))
	}
	a, found, err := repo.GetAppealByIncident(ctx, "inc-1")
	if err != nil || !found || a.Status != models.AppealUpheld {
		t.Errorf("GetAppealByIncident = %+v, %v, %v", a, found, err)
	}
	all, _ := repo.ListAppeals(ctx, "")
	if len(all) != 1 {
		t.Errorf("ListAppeals(all) = %d", len(all))
	}
	if _, err := repo.GetAppeal(ctx, "missing"); err != ErrNotFound {
		t.Errorf("GetAppeal err = %v", err)
	}
}

func TestCreateAppeal_UnknownIncident(t *testing.T) {
	repo := newTestRepo(t)
	err := repo.CreateAppeal(context.Background(), models.Appeal{ID: "ap-1", IncidentID: "ghost", UserID: "u", Status: models.AppealPending, FiledAt: base})
	if err == nil {
		t.Fatal("expected foreign key failure")
	}
}

// ==================== Vote Archive Tests ====================

func sampleVote() models.VoteSnapshot {
	closed := base.Add(90 * time.Second)
	return models.VoteSnapshot{
		ID:             "vote-1",
		VenueID:        "hall",
		SessionID:      "tue",
		TargetUserID:   "rowdy",
		CreatedBy:      "p1",
		OpenedAt:       base,
		Deadline:       base.Add(90 * time.Second),
		ClosedAt:       &closed,
		Status:         models.StatusClosedPassed,
		Outcome:        models.OutcomePassed,
		QuorumRequired: models.WeightFromFloat(2.5),
		Threshold:      0.65,
		OutWeight:      models.WeightFromFloat(3),
		KeepWeight:     models.WeightFromFloat(0.5),
		IncidentID:     "inc-1",
		Ballots: []models.Ballot{
			{VoterID: "p1", Role: models.RolePlayer, Choice: models.ChoiceOut, Weight: 1000, Tags: []models.ViolationTag{models.TagCheating}, CastAt: base.Add(time.Second)},
			{VoterID: "op", Role: models.RoleOperator, Choice: models.ChoiceOut, Weight: 2000, Tags: []models.ViolationTag{models.TagOther}, Note: "threw a cue", CastAt: base.Add(2 * time.Second)},
			{VoterID: "fan", Role: models.RoleAttendee, Choice: models.ChoiceKeep, Weight: 500, CastAt: base.Add(3 * time.Second)},
		},
	}
}

func TestArchiveVote_RoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	snap := sampleVote()

	if err := repo.ArchiveVote(ctx, snap); err != nil {
		t.Fatalf("ArchiveVote failed: %v", err)
	}
	// archiving twice replaces the record
	if err := repo.ArchiveVote(ctx, snap); err != nil {
		t.Fatalf("second ArchiveVote failed: %v", err)
	}

	got, found, err := repo.GetArchivedVote(ctx, "vote-1")
	if err != nil || !found {
		t.Fatalf("GetArchivedVote = %v, %v", found, err)
	}
	if got.Status != models.StatusClosedPassed || got.Outcome != models.OutcomePassed || got.IncidentID != "inc-1" {
		t.Errorf("vote = %+v", got)
	}
	if got.QuorumRequired != snap.QuorumRequired || got.OutWeight != snap.OutWeight || got.KeepWeight != snap.KeepWeight {
		t.Errorf("weights = %s/%s/%s", got.QuorumRequired, got.OutWeight, got.KeepWeight)
	}
	if got.ClosedAt == nil || !got.ClosedAt.Equal(*snap.ClosedAt) {
		t.Errorf("closed_at = %v", got.ClosedAt)
	}
	if got.BallotCount != 3 || len(got.Ballots) != 3 {
		t.Fatalf("ballots = %d", len(got.Ballots))
	}
	if got.Ballots[1].Note != "threw a cue" || got.Ballots[1].Weight != 2000 {
		t.Errorf("ballot = %+v", got.Ballots[1])
	}
	if got.Ballots[2].Tags != nil {
		t.Errorf("keep ballot tags = %v, want none", got.Ballots[2].Tags)
	}

	if _, found, err := repo.GetArchivedVote(ctx, "vote-x"); found || err != nil {
		t.Errorf("missing vote = %v, %v", found, err)
	}
}

func TestListArchivedVotes(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		snap := sampleVote()
		snap.ID = "vote-" + string(rune('a'+i))
		snap.OpenedAt = base.Add(time.Duration(i) * time.Hour)
		if err := repo.ArchiveVote(ctx, snap); err != nil {
			t.Fatalf("ArchiveVote: %v", err)
		}
	}

	votes, err := repo.ListArchivedVotes(ctx, "hall", 2)
	if err != nil {
		t.Fatalf("ListArchivedVotes failed: %v", err)
	}
	if len(votes) != 2 || votes[0].ID != "vote-c" {
		t.Errorf("votes = %+v", votes)
	}
	if votes[0].BallotCount != 3 {
		t.Errorf("ballot count = %d", votes[0].BallotCount)
	}
	if other, _ := repo.ListArchivedVotes(ctx, "elsewhere", 0); len(other) != 0 {
		t.Errorf("other venue = %d", len(other))
	}
}

// ==================== Settings Tests ====================

func TestSettings(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if v, err := repo.GetSetting(ctx, "leaguehub_url"); err != nil || v != "" {
		t.Errorf("default leaguehub_url = %q, %v", v, err)
	}
	if _, err := repo.GetSetting(ctx, "missing"); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := repo.SetSetting(ctx, "base_url", "http://10.0.0.5:8080"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	if v, _ := repo.GetSetting(ctx, "base_url"); v != "http://10.0.0.5:8080" {
		t.Errorf("base_url = %q", v)
	}
}

func TestGetStats(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	mustCreateIncident(t, repo, "inc-1", "rowdy", "vote-1", models.IncidentEjection, 1)
	repo.ArchiveVote(ctx, sampleVote())

	stats, err := repo.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats["incidents"] != 1 || stats["archived_votes"] != 1 || stats["ballots"] != 3 || stats["passed_votes"] != 1 {
		t.Errorf("stats = %v", stats)
	}
}

func TestClearTable(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	repo.ArchiveVote(ctx, sampleVote())

	if err := repo.ClearTable(ctx, "incidents"); err != ErrInvalidTable {
		t.Errorf("clearing incidents err = %v, want ErrInvalidTable", err)
	}
	if err := repo.ClearTable(ctx, "votes; DROP TABLE incidents"); err != ErrInvalidTable {
		t.Errorf("injection err = %v", err)
	}
	if err := repo.ClearTable(ctx, "votes"); err != nil {
		t.Fatalf("ClearTable failed: %v", err)
	}
	stats, _ := repo.GetStats(ctx)
	if stats["archived_votes"] != 0 || stats["ballots"] != 0 {
		t.Errorf("stats after clear = %v", stats)
	}
}

func TestPing(t *testing.T) {
	repo := newTestRepo(t)
	if err := repo.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
	if repo.DB() == nil {
		t.Error("DB() returned nil")
	}
}
