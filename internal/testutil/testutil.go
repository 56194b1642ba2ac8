package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/abrezinsky/cuevote/internal/models"
	"github.com/abrezinsky/cuevote/internal/repository"
)

// Epoch is a fixed start time for manual clocks in tests
var Epoch = time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)

// NewTestRepository creates a new in-memory repository for testing.
// Each call creates a fresh database with all migrations applied.
func NewTestRepository(t *testing.T) *repository.Repository {
	t.Helper()

	repo, err := repository.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}

	t.Cleanup(func() {
		repo.Close()
	})

	return repo
}

// SeedIncident stores an incident with an active penalty and returns it
func SeedIncident(t *testing.T, repo repository.IncidentRepository, inc models.Incident) models.Incident {
	t.Helper()

	if inc.Type == "" {
		inc.Type = models.IncidentEjection
	}
	if inc.Tier == 0 {
		inc.Tier = 1
	}
	if inc.CreatedAt.IsZero() {
		inc.CreatedAt = Epoch
	}
	if inc.SourceVoteID == "" {
		inc.SourceVoteID = "vote-" + inc.ID
	}
	penalty := models.Penalty{
		IncidentID: inc.ID,
		UserID:     inc.UserID,
		Type:       inc.Type,
		Points:     10,
		SessionID:  inc.SessionID,
		Active:     true,
	}
	if err := repo.CreateIncident(context.Background(), inc, penalty); err != nil {
		t.Fatalf("failed to seed incident: %v", err)
	}
	return inc
}
