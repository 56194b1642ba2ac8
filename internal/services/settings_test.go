package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/abrezinsky/cuevote/internal/logger"
	"github.com/abrezinsky/cuevote/internal/repository"
	"github.com/abrezinsky/cuevote/internal/repository/mock"
	"github.com/abrezinsky/cuevote/internal/services"
	"github.com/abrezinsky/cuevote/internal/testutil"
)

func TestSettingsService_BaseURL(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	svc := services.NewSettingsService(logger.Discard(), repo)
	ctx := context.Background()

	// Not configured yet
	url, err := svc.GetBaseURL(ctx)
	if err != nil {
		t.Fatalf("GetBaseURL failed: %v", err)
	}
	if url != "" {
		t.Errorf("expected empty base URL, got %q", url)
	}

	if err := svc.SetBaseURL(ctx, "http://192.168.1.20:8080"); err != nil {
		t.Fatalf("SetBaseURL failed: %v", err)
	}
	url, _ = svc.GetBaseURL(ctx)
	if url != "http://192.168.1.20:8080" {
		t.Errorf("expected stored URL, got %q", url)
	}
}

func TestSettingsService_LeagueHubURL(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	svc := services.NewSettingsService(logger.Discard(), repo)
	ctx := context.Background()

	// Seeded by migration as empty
	url, err := svc.GetLeagueHubURL(ctx)
	if err != nil {
		t.Fatalf("GetLeagueHubURL failed: %v", err)
	}
	if url != "" {
		t.Errorf("expected empty league hub URL, got %q", url)
	}

	if err := svc.SetLeagueHubURL(ctx, "http://hub.local"); err != nil {
		t.Fatalf("SetLeagueHubURL failed: %v", err)
	}
	url, _ = svc.GetLeagueHubURL(ctx)
	if url != "http://hub.local" {
		t.Errorf("got %q", url)
	}
}

func TestSettingsService_GetBaseURL_DatabaseError(t *testing.T) {
	realRepo := testutil.NewTestRepository(t)
	mockRepo := mock.NewRepository(realRepo)
	mockRepo.GetSettingError = errors.New("database is locked")
	svc := services.NewSettingsService(logger.Discard(), mockRepo)

	if _, err := svc.GetBaseURL(context.Background()); err == nil {
		t.Error("expected database error to propagate")
	}
}

func TestSettingsService_AllSettings(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	svc := services.NewSettingsService(logger.Discard(), repo)
	ctx := context.Background()

	svc.SetBaseURL(ctx, "http://venue:8080")

	settings, err := svc.AllSettings(ctx)
	if err != nil {
		t.Fatalf("AllSettings failed: %v", err)
	}
	if settings["base_url"] != "http://venue:8080" {
		t.Errorf("base_url = %v", settings["base_url"])
	}
	if _, ok := settings["leaguehub_url"]; !ok {
		t.Error("expected leaguehub_url key")
	}
}

func TestSettingsService_AllSettings_Error(t *testing.T) {
	mockRepo := mock.NewRepository(testutil.NewTestRepository(t))
	mockRepo.GetSettingError = errors.New("disk I/O error")
	svc := services.NewSettingsService(logger.Discard(), mockRepo)

	if _, err := svc.AllSettings(context.Background()); err == nil {
		t.Error("expected error")
	}
}

func TestSettingsService_UpdateSettings(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	svc := services.NewSettingsService(logger.Discard(), repo)
	ctx := context.Background()

	svc.SetBaseURL(ctx, "http://old")
	err := svc.UpdateSettings(ctx, services.Settings{LeagueHubURL: "http://hub"})
	if err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}

	base, _ := svc.GetBaseURL(ctx)
	hub, _ := svc.GetLeagueHubURL(ctx)
	if base != "http://old" {
		t.Errorf("empty field should leave base_url unchanged, got %q", base)
	}
	if hub != "http://hub" {
		t.Errorf("leaguehub_url = %q", hub)
	}
}

func TestSettingsService_UpdateSettings_Error(t *testing.T) {
	mockRepo := mock.NewRepository(testutil.NewTestRepository(t))
	mockRepo.SetSettingError = errors.New("readonly database")
	svc := services.NewSettingsService(logger.Discard(), mockRepo)

	tests := []services.Settings{
		{BaseURL: "http://a"},
		{LeagueHubURL: "http://b"},
	}
	for _, s := range tests {
		if err := svc.UpdateSettings(context.Background(), s); err == nil {
			t.Errorf("UpdateSettings(%+v): expected error", s)
		}
	}
}

func TestSettingsService_ResetTables(t *testing.T) {
	tests := []struct {
		name    string
		tables  []string
		want    []string
		wantErr error
	}{
		{"no tables", nil, nil, services.ErrNoTablesSpecified},
		{"settings only", []string{"settings"}, []string{"settings"}, nil},
		{"votes adds ballots first", []string{"votes"}, []string{"ballots", "votes"}, nil},
		{"duplicates collapsed", []string{"ballots", "ballots"}, []string{"ballots"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := testutil.NewTestRepository(t)
			svc := services.NewSettingsService(logger.Discard(), repo)

			result, err := svc.ResetTables(context.Background(), tt.tables)
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResetTables failed: %v", err)
			}
			if len(result.Tables) != len(tt.want) {
				t.Fatalf("tables = %v, want %v", result.Tables, tt.want)
			}
			for i := range tt.want {
				if result.Tables[i] != tt.want[i] {
					t.Errorf("tables = %v, want %v", result.Tables, tt.want)
				}
			}
		})
	}
}

func TestSettingsService_ResetTables_InvalidTable(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	svc := services.NewSettingsService(logger.Discard(), repo)

	for _, table := range []string{"incidents", "appeals", "penalties", "users; DROP TABLE votes"} {
		_, err := svc.ResetTables(context.Background(), []string{table})
		var tableErr *services.InvalidTableError
		if !errors.As(err, &tableErr) {
			t.Errorf("ResetTables(%q) err = %v, want InvalidTableError", table, err)
		}
	}
}

func TestSettingsService_ResetTables_ClearError(t *testing.T) {
	mockRepo := mock.NewRepository(testutil.NewTestRepository(t))
	mockRepo.ClearTableError = errors.New("database is locked")
	svc := services.NewSettingsService(logger.Discard(), mockRepo)

	if _, err := svc.ResetTables(context.Background(), []string{"votes"}); err == nil {
		t.Error("expected error")
	}
}

func TestSettingsService_GetStats(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	svc := services.NewSettingsService(logger.Discard(), repo)

	stats, err := svc.GetStats(context.Background())
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	for _, key := range []string{"archived_votes", "passed_votes", "ballots", "incidents", "active_penalties", "pending_appeals"} {
		if stats[key] != 0 {
			t.Errorf("stats[%q] = %v, want 0", key, stats[key])
		}
	}
}

func TestSettingsService_GetSetting_NotFound(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	svc := services.NewSettingsService(logger.Discard(), repo)

	_, err := svc.GetSetting(context.Background(), "missing")
	if err != repository.ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
