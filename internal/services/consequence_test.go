package services_test

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/abrezinsky/cuevote/internal/clock"
	"github.com/abrezinsky/cuevote/internal/errors"
	"github.com/abrezinsky/cuevote/internal/logger"
	"github.com/abrezinsky/cuevote/internal/models"
	"github.com/abrezinsky/cuevote/internal/repository/mock"
	"github.com/abrezinsky/cuevote/internal/services"
	"github.com/abrezinsky/cuevote/internal/testutil"
)

func passedVote(voteID string) models.PassedVote {
	return models.PassedVote{
		VoteID:       voteID,
		VenueID:      "hall",
		SessionID:    "tue-night",
		TargetUserID: "rowdy",
		Tags:         []models.ViolationTag{models.TagHarassment},
	}
}

func TestStepForTier(t *testing.T) {
	tests := []struct {
		tier       int
		typ        models.IncidentType
		points     int
		suspension time.Duration
		forfeit    bool
	}{
		{1, models.IncidentEjection, 10, 0, false},
		{2, models.IncidentSuspension, 25, 7 * 24 * time.Hour, false},
		{3, models.IncidentSuspension, 50, 30 * 24 * time.Hour, true},
		{9, models.IncidentSuspension, 50, 30 * 24 * time.Hour, true},
	}

	for _, tt := range tests {
		step := services.StepForTier(tt.tier)
		if step.Type != tt.typ || step.Points != tt.points || step.Suspension != tt.suspension || step.ForfeitMatches != tt.forfeit {
			t.Errorf("StepForTier(%d) = %+v", tt.tier, step)
		}
	}
}

func TestConsequenceService_Escalates(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	clk := clock.NewManual(testutil.Epoch)
	svc := services.NewConsequenceService(logger.Discard(), repo, clk, 0)
	ctx := context.Background()

	wantTypes := []models.IncidentType{models.IncidentEjection, models.IncidentSuspension, models.IncidentSuspension}
	for i, voteID := range []string{"v1", "v2", "v3"} {
		inc, err := svc.RecordOutcome(ctx, passedVote(voteID))
		if err != nil {
			t.Fatalf("RecordOutcome(%s) failed: %v", voteID, err)
		}
		if inc.Tier != i+1 {
			t.Errorf("vote %s tier = %d, want %d", voteID, inc.Tier, i+1)
		}
		if inc.Type != wantTypes[i] {
			t.Errorf("vote %s type = %s, want %s", voteID, inc.Type, wantTypes[i])
		}
		clk.Advance(time.Hour)
	}

	incidents, err := svc.Incidents(ctx, "rowdy")
	if err != nil {
		t.Fatalf("Incidents failed: %v", err)
	}
	if len(incidents) != 3 {
		t.Fatalf("expected 3 incidents, got %d", len(incidents))
	}

	penalties, _ := svc.ActivePenalties(ctx, "rowdy")
	if len(penalties) != 3 {
		t.Fatalf("expected 3 active penalties, got %d", len(penalties))
	}
}

func TestConsequenceService_PenaltyShape(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	clk := clock.NewManual(testutil.Epoch)
	svc := services.NewConsequenceService(logger.Discard(), repo, clk, 0)
	ctx := context.Background()

	first, _ := svc.RecordOutcome(ctx, passedVote("v1"))
	p1, err := svc.Penalty(ctx, first.ID)
	if err != nil {
		t.Fatalf("Penalty failed: %v", err)
	}
	if p1.SessionID != "tue-night" || p1.SuspendedUntil != nil || p1.Points != 10 {
		t.Errorf("tier 1 penalty = %+v", p1)
	}

	third := first
	for _, id := range []string{"v2", "v3"} {
		third, _ = svc.RecordOutcome(ctx, passedVote(id))
	}
	p3, _ := svc.Penalty(ctx, third.ID)
	want := testutil.Epoch.Add(30 * 24 * time.Hour)
	if p3.SuspendedUntil == nil || !p3.SuspendedUntil.Equal(want) {
		t.Errorf("tier 3 suspended until %v, want %v", p3.SuspendedUntil, want)
	}
	if !p3.ForfeitMatches || p3.Points != 50 {
		t.Errorf("tier 3 penalty = %+v", p3)
	}
}

func TestConsequenceService_AppealWindow(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	clk := clock.NewManual(testutil.Epoch)

	tests := []struct {
		window time.Duration
		want   time.Duration
	}{
		{0, services.DefaultAppealWindow},
		{24 * time.Hour, 24 * time.Hour},
	}
	for i, tt := range tests {
		svc := services.NewConsequenceService(logger.Discard(), repo, clk, tt.window)
		pv := passedVote("window-" + string(rune('a'+i)))
		pv.TargetUserID = "user-" + string(rune('a'+i))
		inc, err := svc.RecordOutcome(context.Background(), pv)
		if err != nil {
			t.Fatalf("RecordOutcome failed: %v", err)
		}
		if inc.AppealOpenUntil == nil || !inc.AppealOpenUntil.Equal(testutil.Epoch.Add(tt.want)) {
			t.Errorf("window %v: appeal open until %v", tt.window, inc.AppealOpenUntil)
		}
	}
}

func TestConsequenceService_IdempotentPerVote(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	svc := services.NewConsequenceService(logger.Discard(), repo, clock.NewManual(testutil.Epoch), 0)
	ctx := context.Background()

	first, err := svc.RecordOutcome(ctx, passedVote("v1"))
	if err != nil {
		t.Fatalf("RecordOutcome failed: %v", err)
	}
	again, err := svc.RecordOutcome(ctx, passedVote("v1"))
	if err != nil {
		t.Fatalf("second RecordOutcome failed: %v", err)
	}
	if again.ID != first.ID || again.Tier != 1 {
		t.Errorf("second call returned %+v, want the first incident", again)
	}

	incidents, _ := svc.Incidents(ctx, "rowdy")
	if len(incidents) != 1 {
		t.Errorf("expected exactly 1 incident, got %d", len(incidents))
	}
}

func TestConsequenceService_ConcurrentVotesGetDistinctTiers(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	svc := services.NewConsequenceService(logger.Discard(), repo, clock.NewManual(testutil.Epoch), 0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, id := range []string{"a", "b", "c", "d"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := svc.RecordOutcome(ctx, passedVote(id)); err != nil {
				t.Errorf("RecordOutcome(%s): %v", id, err)
			}
		}(id)
	}
	wg.Wait()

	incidents, _ := svc.Incidents(ctx, "rowdy")
	seen := map[int]bool{}
	for _, inc := range incidents {
		if seen[inc.Tier] {
			t.Errorf("tier %d assigned twice", inc.Tier)
		}
		seen[inc.Tier] = true
	}
	if len(seen) != 4 {
		t.Errorf("expected tiers 1..4, got %v", seen)
	}
}

func TestConsequenceService_InvalidInput(t *testing.T) {
	svc := services.NewConsequenceService(logger.Discard(), testutil.NewTestRepository(t), clock.NewManual(testutil.Epoch), 0)

	_, err := svc.RecordOutcome(context.Background(), models.PassedVote{VoteID: "v1"})
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("err = %v, want invalid input", err)
	}
	if _, err := svc.Incidents(context.Background(), ""); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("Incidents err = %v", err)
	}
	if _, err := svc.ActivePenalties(context.Background(), ""); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("ActivePenalties err = %v", err)
	}
}

func TestConsequenceService_RepositoryErrors(t *testing.T) {
	tests := []struct {
		name   string
		inject func(m *mock.Repository)
	}{
		{"lookup", func(m *mock.Repository) { m.GetIncidentByVoteError = stderrors.New("database is locked") }},
		{"prior count", func(m *mock.Repository) { m.PriorIncidentCountError = stderrors.New("database is locked") }},
		{"create", func(m *mock.Repository) { m.CreateIncidentError = stderrors.New("disk I/O error") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mock.NewRepository(testutil.NewTestRepository(t))
			tt.inject(m)
			svc := services.NewConsequenceService(logger.Discard(), m, clock.NewManual(testutil.Epoch), 0)

			_, err := svc.RecordOutcome(context.Background(), passedVote("v1"))
			if !errors.Is(err, errors.ErrInternal) {
				t.Errorf("err = %v, want internal", err)
			}
		})
	}
}

func TestConsequenceService_RecoversAfterTransientFailure(t *testing.T) {
	m := mock.NewRepository(testutil.NewTestRepository(t))
	m.CreateIncidentFailures = 2
	svc := services.NewConsequenceService(logger.Discard(), m, clock.NewManual(testutil.Epoch), 0)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := svc.RecordOutcome(ctx, passedVote("v1")); err == nil {
			t.Fatalf("attempt %d: expected injected failure", i+1)
		}
	}
	inc, err := svc.RecordOutcome(ctx, passedVote("v1"))
	if err != nil {
		t.Fatalf("third attempt failed: %v", err)
	}
	if inc.Tier != 1 {
		t.Errorf("failed attempts must not count toward the tier, got %d", inc.Tier)
	}
}

func TestConsequenceService_NotFound(t *testing.T) {
	svc := services.NewConsequenceService(logger.Discard(), testutil.NewTestRepository(t), clock.NewManual(testutil.Epoch), 0)

	if _, err := svc.GetIncident(context.Background(), "ghost"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetIncident err = %v", err)
	}
	if _, err := svc.Penalty(context.Background(), "ghost"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Penalty err = %v", err)
	}
}
