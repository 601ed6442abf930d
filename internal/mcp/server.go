// Package mcp exposes workout history and progress aggregates to MCP
// clients. All tools are read-only; session mutations stay behind the HTTP
// API where conflict handling lives.
package mcp

import (
	"context"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/stats"
	"github.com/meltforce/liftlog/internal/storage"
	"github.com/meltforce/liftlog/internal/training"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// DataSource is the read surface the MCP handlers need. *storage.DB
// satisfies the session/template parts; *stats.Analyzer the aggregates.
type DataSource interface {
	ListTemplates(ctx context.Context, userID int) ([]models.Template, error)
	ListCompletedSessions(ctx context.Context, userID int) ([]models.Session, error)
}

// StatsSource serves dashboard aggregates and rankings.
type StatsSource interface {
	Dashboard(ctx context.Context, userID int, now time.Time) (*stats.Dashboard, error)
	Top(ctx context.Context, userID, n int) ([]stats.ExerciseCount, error)
}

// ActiveSource locates the at-most-one in-progress session.
type ActiveSource interface {
	Active(ctx context.Context, userID int) (*models.Session, error)
}

// Compile-time checks: the concrete types satisfy the handler interfaces.
var (
	_ DataSource   = (*storage.DB)(nil)
	_ StatsSource  = (*stats.Analyzer)(nil)
	_ ActiveSource = (*training.Service)(nil)
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, st StatsSource, active ActiveSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("LiftLog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("LiftLog workout tracking server. Query templates, completed session history, the active session, and progress aggregates. All data is scoped to the authenticated user."),
	)

	h := &handlers{ds: ds, stats: st, active: active, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolGetActiveSession, Handler: h.getActiveSession},
		server.ServerTool{Tool: toolGetHistory, Handler: h.getHistory},
		server.ServerTool{Tool: toolGetDashboard, Handler: h.getDashboard},
		server.ServerTool{Tool: toolGetTemplates, Handler: h.getTemplates},
		server.ServerTool{Tool: toolGetTopExercises, Handler: h.getTopExercises},
	)

	s.AddResources(
		server.ServerResource{Resource: resDashboard, Handler: h.dashboardResource},
		server.ServerResource{Resource: resRecentSessions, Handler: h.recentSessionsResource},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds     DataSource
	stats  StatsSource
	active ActiveSource
	log    *slog.Logger
}

// --- Resource definitions ---

var resDashboard = mcp.NewResource(
	"liftlog://dashboard",
	"Progress Dashboard",
	mcp.WithResourceDescription("Aggregated progress metrics: monthly counts with trend, day streak, average duration, completion rate, weekly volume, and top exercises"),
	mcp.WithMIMEType("application/json"),
)

var resRecentSessions = mcp.NewResource(
	"liftlog://recent_sessions",
	"Recent Sessions",
	mcp.WithResourceDescription("The 10 most recent completed sessions with their exercises"),
	mcp.WithMIMEType("application/json"),
)
