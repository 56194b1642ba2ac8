package handlers

import (
	"context"

	"github.com/abrezinsky/cuevote/internal/auth"
	"github.com/abrezinsky/cuevote/internal/models"
	"github.com/abrezinsky/cuevote/internal/roster"
	"github.com/abrezinsky/cuevote/internal/services"
	"github.com/abrezinsky/cuevote/internal/vote"
	"github.com/abrezinsky/cuevote/internal/websocket"
	"github.com/abrezinsky/cuevote/pkg/leaguehub"
)

// VoteCoordinator is the part of the vote coordinator the API drives
type VoteCoordinator interface {
	OpenVote(ctx context.Context, req vote.OpenRequest) (*models.VoteSnapshot, error)
	SubmitBallot(ctx context.Context, req vote.BallotRequest) (*models.Ballot, error)
	ForceClose(ctx context.Context, voteID, operatorID string) (*models.ResolutionEvent, error)
	GetVote(ctx context.Context, voteID string) (*models.VoteSnapshot, error)
	ActiveVotes(venueID, sessionID, viewerID string) []models.ActiveVote
	OpenCount() int
}

// RosterManager is the check-in roster the operator maintains
type RosterManager interface {
	CheckIn(c models.CheckIn) error
	CheckOut(venueID, userID string) error
	SetShooter(venueID, userID string) error
	ClearShooter(venueID string)
	Shooter(venueID string) string
	List(venueID string) []models.CheckIn
	Sync(ctx context.Context, client leaguehub.Client, venueID string) (*roster.SyncResult, error)
}

// VoteHistory lists resolved votes of a venue
type VoteHistory interface {
	ListArchivedVotes(ctx context.Context, venueID string, limit int) ([]models.VoteSnapshot, error)
}

var (
	_ VoteCoordinator = (*vote.Coordinator)(nil)
	_ RosterManager   = (*roster.Roster)(nil)
)

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	Votes        VoteCoordinator
	Roster       RosterManager
	History      VoteHistory
	Consequences services.ConsequenceServicer
	Appeals      services.AppealServicer
	Links        services.LinkServicer
	Settings     services.SettingsServicer
	LeagueHub    leaguehub.Client
	Auth         *auth.Auth
	Hub          *websocket.Hub
	Log          HTTPLogger
}

// HTTPLogger is an interface for loggers that support HTTP logging control
type HTTPLogger interface {
	IsHTTPLoggingEnabled() bool
}

// New creates a new Handlers instance with all dependencies
func New(
	votes VoteCoordinator,
	rosterManager RosterManager,
	history VoteHistory,
	consequences services.ConsequenceServicer,
	appeals services.AppealServicer,
	links services.LinkServicer,
	settings services.SettingsServicer,
	leagueHub leaguehub.Client,
	adminAuth *auth.Auth,
	hub *websocket.Hub,
	log HTTPLogger,
) *Handlers {
	return &Handlers{
		Votes:        votes,
		Roster:       rosterManager,
		History:      history,
		Consequences: consequences,
		Appeals:      appeals,
		Links:        links,
		Settings:     settings,
		LeagueHub:    leagueHub,
		Auth:         adminAuth,
		Hub:          hub,
		Log:          log,
	}
}

// NoopHTTPLogger is a test logger that always returns false for HTTP logging
type NoopHTTPLogger struct{}

func (NoopHTTPLogger) IsHTTPLoggingEnabled() bool { return false }
