package testserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/fieldline/sitebook/internal/domain/activity"
	"github.com/fieldline/sitebook/internal/domain/checklist"
	"github.com/fieldline/sitebook/internal/domain/hierarchy"
	"github.com/fieldline/sitebook/internal/mcp"
	"github.com/fieldline/sitebook/internal/sqlite"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

// TestServer is an MCP server over an in-memory database with a connected
// client session.
type TestServer struct {
	DB         *sqlite.DB
	Items      *sqlite.ChecklistRepository
	Checklists *checklist.Service
	Catalog    *hierarchy.Service
	Session    *sdkmcp.ClientSession
}

// Option customizes the services a TestServer is built with.
type Option func(*options)

type options struct {
	catalogID       string
	checklistOpts   []checklist.Option
	wrapItems func(checklist.ItemRepository) checklist.ItemRepository
}

// WithCatalogID sets the server's default catalog.
func WithCatalogID(id string) Option {
	return func(o *options) { o.catalogID = id }
}

// WithChecklistOptions passes options to every Reconciler the server opens.
func WithChecklistOptions(opts ...checklist.Option) Option {
	return func(o *options) { o.checklistOpts = append(o.checklistOpts, opts...) }
}

// WithItemRepository wraps the sqlite item repository, e.g. to inject
// write failures.
func WithItemRepository(wrap func(checklist.ItemRepository) checklist.ItemRepository) Option {
	return func(o *options) { o.wrapItems = wrap }
}

func New(t *testing.T, opts ...Option) *TestServer {
	t.Helper()

	o := options{catalogID: "main"}
	for _, opt := range opts {
		opt(&o)
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	itemRepo := sqlite.NewChecklistRepository(db)
	treeRepo := sqlite.NewTreeRepository(db)
	activityRepo := sqlite.NewActivityRepository(db)

	var items checklist.ItemRepository = itemRepo
	if o.wrapItems != nil {
		items = o.wrapItems(itemRepo)
	}

	checklistSvc := checklist.NewService(items, activityRepo, nil, o.checklistOpts...)
	catalogSvc := hierarchy.NewService(treeRepo, activityRepo, nil)
	activitySvc := activity.NewService(activityRepo, nil)

	server := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Checklists: checklistSvc,
			Catalog:    catalogSvc,
			Activity:   activitySvc,
		},
		CatalogID: o.catalogID,
	})

	ctx := context.Background()
	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "sitebook-test", Version: "0.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = session.Close()
		_ = serverSession.Wait()
		_ = db.Close()
	})

	return &TestServer{
		DB:         db,
		Items:      itemRepo,
		Checklists: checklistSvc,
		Catalog:    catalogSvc,
		Session:    session,
	}
}

// Call invokes a tool and decodes its structured output into out. It fails
// the test on protocol errors and returns the tool error text, if any.
func (ts *TestServer) Call(t *testing.T, name string, args any, out any) string {
	t.Helper()

	res, err := ts.Session.CallTool(context.Background(), &sdkmcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err, "calling %s", name)

	if res.IsError {
		var parts []string
		for _, c := range res.Content {
			if text, ok := c.(*sdkmcp.TextContent); ok {
				parts = append(parts, text.Text)
			}
		}
		return strings.Join(parts, "\n")
	}

	if out != nil {
		data, err := json.Marshal(res.StructuredContent)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, out), "decoding %s output", name)
	}
	return ""
}
