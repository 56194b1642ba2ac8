package services

import (
	"context"

	"github.com/abrezinsky/cuevote/internal/logger"
	"github.com/abrezinsky/cuevote/internal/repository"
)

// Setting keys
const (
	SettingBaseURL      = "base_url"
	SettingLeagueHubURL = "leaguehub_url"
)

// SettingsService handles settings-related business logic
type SettingsService struct {
	log  logger.Logger
	repo repository.SettingsRepository
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(log logger.Logger, repo repository.SettingsRepository) *SettingsService {
	return &SettingsService{log: log, repo: repo}
}

// GetBaseURL returns the application base URL
func (s *SettingsService) GetBaseURL(ctx context.Context) (string, error) {
	return s.optional(ctx, SettingBaseURL)
}

// SetBaseURL saves the application base URL
func (s *SettingsService) SetBaseURL(ctx context.Context, url string) error {
	return s.repo.SetSetting(ctx, SettingBaseURL, url)
}

// GetLeagueHubURL returns the configured league hub URL
func (s *SettingsService) GetLeagueHubURL(ctx context.Context) (string, error) {
	return s.optional(ctx, SettingLeagueHubURL)
}

// SetLeagueHubURL saves the league hub URL
func (s *SettingsService) SetLeagueHubURL(ctx context.Context, url string) error {
	return s.repo.SetSetting(ctx, SettingLeagueHubURL, url)
}

// GetSetting retrieves an arbitrary setting
func (s *SettingsService) GetSetting(ctx context.Context, key string) (string, error) {
	return s.repo.GetSetting(ctx, key)
}

// SetSetting saves an arbitrary setting
func (s *SettingsService) SetSetting(ctx context.Context, key, value string) error {
	return s.repo.SetSetting(ctx, key, value)
}

// optional reads a setting, treating a missing key as empty
func (s *SettingsService) optional(ctx context.Context, key string) (string, error) {
	value, err := s.repo.GetSetting(ctx, key)
	if err != nil {
		if err == repository.ErrNotFound {
			return "", nil
		}
		return "", err // Propagate database errors
	}
	return value, nil
}

// AllSettings returns commonly used settings as a map
func (s *SettingsService) AllSettings(ctx context.Context) (map[string]interface{}, error) {
	settings := make(map[string]interface{})

	baseURL, err := s.GetBaseURL(ctx)
	if err != nil {
		return nil, err
	}
	settings[SettingBaseURL] = baseURL

	hubURL, err := s.GetLeagueHubURL(ctx)
	if err != nil {
		return nil, err
	}
	settings[SettingLeagueHubURL] = hubURL

	return settings, nil
}

// Settings represents application settings for update operations
type Settings struct {
	BaseURL      string
	LeagueHubURL string
}

// UpdateSettings updates multiple settings at once. Empty fields are left unchanged.
func (s *SettingsService) UpdateSettings(ctx context.Context, settings Settings) error {
	if settings.BaseURL != "" {
		if err := s.SetBaseURL(ctx, settings.BaseURL); err != nil {
			return err
		}
	}
	if settings.LeagueHubURL != "" {
		if err := s.SetLeagueHubURL(ctx, settings.LeagueHubURL); err != nil {
			return err
		}
	}
	return nil
}

// GetStats returns the operator dashboard counts
func (s *SettingsService) GetStats(ctx context.Context) (map[string]interface{}, error) {
	return s.repo.GetStats(ctx)
}

// ResetTablesResult contains the result of a database reset
type ResetTablesResult struct {
	Tables  []string
	Message string
}

// ValidTables defines which tables can be reset. The incident log, penalties
// and appeals are never reset.
var ValidTables = map[string]bool{
	"votes": true, "ballots": true, "settings": true,
}

// ResetTables validates and resets the specified database tables
func (s *SettingsService) ResetTables(ctx context.Context, tables []string) (*ResetTablesResult, error) {
	if len(tables) == 0 {
		return nil, ErrNoTablesSpecified
	}

	var tablesToReset []string
	for _, table := range tables {
		if !ValidTables[table] {
			return nil, &InvalidTableError{Table: table}
		}
		if !containsTable(tablesToReset, table) {
			tablesToReset = append(tablesToReset, table)
		}
	}

	// Archived ballots belong to archived votes
	if containsTable(tablesToReset, "votes") && !containsTable(tablesToReset, "ballots") {
		tablesToReset = append([]string{"ballots"}, tablesToReset...)
	}

	for _, table := range tablesToReset {
		if err := s.repo.ClearTable(ctx, table); err != nil {
			return nil, err
		}
	}

	s.log.Info("Tables reset", "tables", tablesToReset)
	return &ResetTablesResult{
		Tables:  tablesToReset,
		Message: "Successfully deleted data from tables",
	}, nil
}

func containsTable(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
