package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/abrezinsky/cuevote/internal/auth"
	"github.com/abrezinsky/cuevote/internal/clock"
	"github.com/abrezinsky/cuevote/internal/config"
	"github.com/abrezinsky/cuevote/internal/handlers"
	"github.com/abrezinsky/cuevote/internal/logger"
	"github.com/abrezinsky/cuevote/internal/repository"
	"github.com/abrezinsky/cuevote/internal/roster"
	"github.com/abrezinsky/cuevote/internal/services"
	"github.com/abrezinsky/cuevote/internal/vote"
	"github.com/abrezinsky/cuevote/internal/websocket"
	"github.com/abrezinsky/cuevote/pkg/leaguehub"
)

const (
	shutdownTimeout = 10 * time.Second
	pruneEvery      = 5 * time.Minute
)

// App holds all application dependencies
type App struct {
	log         logger.Logger
	cfg         config.Config
	handlers    *handlers.Handlers
	repo        *repository.Repository
	settings    *services.SettingsService
	coordinator *vote.Coordinator
	hub         *websocket.Hub
	auth        *auth.Auth
	leagueHub   leaguehub.Client
	closeOnce   sync.Once
}

// New creates and initializes a new application instance
func New(log logger.Logger, cfg config.Config, adminAuth *auth.Auth, leagueHub leaguehub.Client) (*App, error) {
	repo, err := repository.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	clk := clock.NewSystem()
	rost := roster.New(log)

	// Initialize services
	consequences := services.NewConsequenceService(log, repo, clk, cfg.AppealWindow)
	appeals := services.NewAppealService(log, repo, clk)
	settings := services.NewSettingsService(log, repo)
	links := services.NewLinkService(settings)

	opts := []vote.Option{
		vote.WithQuorumFraction(vote.FractionFromFloat(cfg.QuorumFraction)),
		vote.WithLiveQuorum(cfg.LiveQuorum),
	}
	if cfg.Retention > 0 {
		opts = append(opts, vote.WithRetention(cfg.Retention))
	}
	coordinator := vote.NewCoordinator(log, clk, rost, rost, consequences, repo, opts...)

	// Initialize WebSocket hub fed by the coordinator's event broker
	hub := websocket.New(log, coordinator)
	hub.Start()

	h := handlers.New(
		coordinator,
		rost,
		repo,
		consequences,
		appeals,
		links,
		settings,
		leagueHub,
		adminAuth,
		hub,
		log,
	)

	return &App{
		log:         log,
		cfg:         cfg,
		handlers:    h,
		repo:        repo,
		settings:    settings,
		coordinator: coordinator,
		hub:         hub,
		auth:        adminAuth,
		leagueHub:   leagueHub,
	}, nil
}

// Router returns the configured HTTP router
func (a *App) Router() chi.Router {
	return a.handlers.Router()
}

// OpenVotes reports how many votes are currently open across all venues
func (a *App) OpenVotes() int {
	return a.coordinator.OpenCount()
}

// Close stops vote timers and closes the database. It is safe to call more than once.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		a.coordinator.Shutdown()
		if err := a.repo.Close(); err != nil {
			a.log.Warn("Failed to close database", "error", err)
		}
	})
}

// BaseURL returns the externally reachable URL the server advertises
func (a *App) BaseURL() string {
	if a.cfg.BaseURL != "" {
		return strings.TrimSuffix(a.cfg.BaseURL, "/")
	}
	ip := getPreferredIP(realNetworkProvider{})
	return fmt.Sprintf("http://%s:%d", ip, a.cfg.Port)
}

// Run serves HTTP and drives the background loops until ctx is cancelled or
// the listener fails. The app is closed before Run returns.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	baseURL := a.BaseURL()
	if a.cfg.BaseURL != "" {
		if err := a.settings.SetBaseURL(ctx, baseURL); err != nil {
			a.log.Warn("Failed to save base_url", "error", err)
		}
	} else {
		a.setDefaultBaseURL(baseURL)
	}
	a.applyLeagueHubURL(ctx)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Port),
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info("Server starting", "url", baseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		a.coordinator.Run(gctx)
		return nil
	})
	g.Go(func() error {
		a.hub.StartCountdown(gctx)
		return nil
	})
	g.Go(func() error {
		a.pruneSessions(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("Server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// pruneSessions drops expired admin sessions until ctx is done
func (a *App) pruneSessions(ctx context.Context) {
	ticker := time.NewTicker(pruneEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.auth.PruneExpired(); n > 0 {
				a.log.Debug("Pruned admin sessions", "count", n)
			}
		}
	}
}

// applyLeagueHubURL points the league hub client at the configured URL.
// A URL given at startup is saved so the admin settings show it; otherwise
// the last saved URL is used.
func (a *App) applyLeagueHubURL(ctx context.Context) {
	if a.cfg.LeagueHubURL != "" {
		if err := a.settings.SetLeagueHubURL(ctx, a.cfg.LeagueHubURL); err != nil {
			a.log.Warn("Failed to save leaguehub_url", "error", err)
		}
		a.leagueHub.SetBaseURL(a.cfg.LeagueHubURL)
		return
	}

	saved, err := a.settings.GetLeagueHubURL(ctx)
	if err != nil {
		a.log.Warn("Failed to read leaguehub_url", "error", err)
		return
	}
	if saved != "" {
		a.leagueHub.SetBaseURL(saved)
		a.log.Info("League hub URL restored", "url", saved)
	}
}

// setDefaultBaseURL sets the base URL setting if not already configured
// or if current value uses localhost (which isn't useful for QR codes)
func (a *App) setDefaultBaseURL(baseURL string) {
	ctx := context.Background()
	existing, _ := a.settings.GetBaseURL(ctx)

	needsUpdate := existing == "" || strings.Contains(existing, "localhost")
	if needsUpdate {
		if err := a.settings.SetBaseURL(ctx, baseURL); err != nil {
			a.log.Warn("Failed to set default base_url", "error", err)
		} else {
			a.log.Info("Default base URL set", "url", baseURL)
		}
	}
}
