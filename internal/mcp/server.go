package mcp

import (
	"context"
	"log/slog"

	"github.com/fieldline/sitebook/internal/domain/activity"
	"github.com/fieldline/sitebook/internal/domain/checklist"
	"github.com/fieldline/sitebook/internal/domain/hierarchy"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ChecklistService defines checklist operations needed by MCP.
type ChecklistService interface {
	Open(ctx context.Context, projectID string) (*checklist.Reconciler, error)
	Get(projectID string) (*checklist.Reconciler, error)
	Refresh(ctx context.Context, projectID string) (bool, error)
	Close(projectID string) error
	OpenProjects() []string
}

// CatalogService defines project tree operations needed by MCP.
type CatalogService interface {
	Get(ctx context.Context, catalogID string) (*hierarchy.Catalog, error)
	IsProjectNumberUnique(ctx context.Context, catalogID, projectID string) (bool, error)
	FindProject(ctx context.Context, catalogID, projectID string) (*hierarchy.ProjectLocation, error)
	AddMain(ctx context.Context, catalogID, id, name string) (*hierarchy.Catalog, error)
	AddSub(ctx context.Context, catalogID, mainID, id, name string) (*hierarchy.Catalog, error)
	AddProject(ctx context.Context, catalogID, mainID, subID string, project hierarchy.ProjectNode) (*hierarchy.Catalog, error)
	CopyProject(ctx context.Context, catalogID string, req hierarchy.CopyProjectRequest) (*hierarchy.Catalog, error)
	DeleteMain(ctx context.Context, catalogID, mainID string) (*hierarchy.Catalog, error)
	DeleteSub(ctx context.Context, catalogID, mainID, subID string) (*hierarchy.Catalog, error)
	DeleteProject(ctx context.Context, catalogID, mainID, subID, projectID string) (*hierarchy.Catalog, error)
	SetProjectStatus(ctx context.Context, catalogID, projectID string, status hierarchy.ProjectStatus) (*hierarchy.Catalog, error)
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Checklists ChecklistService
	Catalog    CatalogService
	Activity   ActivityService
}

// Config contains server configuration.
type Config struct {
	Services Services
	// CatalogID is used when a request doesn't name a catalog.
	CatalogID string
	Logger    *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "sitebook",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	catalogID := cfg.CatalogID
	if catalogID == "" {
		catalogID = "main"
	}
	server.AddReceivingMiddleware(
		catalogMiddleware(catalogID),
		trafficLoggingMiddleware(cfg.Logger, "inbound"),
	)
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Services)

	return server
}
