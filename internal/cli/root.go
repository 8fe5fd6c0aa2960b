package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fieldline/sitebook/internal/config"
	"github.com/fieldline/sitebook/internal/domain/activity"
	"github.com/fieldline/sitebook/internal/domain/checklist"
	"github.com/fieldline/sitebook/internal/domain/hierarchy"
	"github.com/fieldline/sitebook/internal/logging"
	"github.com/fieldline/sitebook/internal/sqlite"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type App struct {
	DBPath     string
	CatalogID  string
	PrettyJSON bool
	Format     string
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "sitebook",
		Short:        "Inspect and edit the sitebook project catalog and checklists",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Show the project catalog
  sitebook tree show

  # Copy a project under a new number
  sitebook tree copy-project 1010-01 --id 1010-09 --name "Bridge North Copy"

  # Record a checklist field
  sitebook checklist set 1010-01 item-3 status=Done
`),
	}

	cmd.PersistentFlags().StringVar(&app.DBPath, "db", envOr("SITEBOOK_DB_PATH", ""), "Path to the SQLite database (default from config)")
	cmd.PersistentFlags().StringVar(&app.CatalogID, "catalog", envOr("SITEBOOK_CATALOG_ID", ""), "Catalog id (default from config)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", "json", "Output format (json|yaml)")

	cmd.AddCommand(newTreeCmd(app))
	cmd.AddCommand(newChecklistCmd(app))
	cmd.AddCommand(newActivityCmd(app))

	return cmd
}

// services is the storage and domain layer opened for one command.
type services struct {
	db         *sqlite.DB
	trees      *sqlite.TreeRepository
	items      *sqlite.ChecklistRepository
	catalog    *hierarchy.Service
	checklists *checklist.Service
	activity   *activity.Service
	catalogID  string
	closeLog   func() error
}

func (s *services) Close() error {
	err := s.db.Close()
	if s.closeLog != nil {
		s.closeLog()
	}
	return err
}

func openServices(cmd *cobra.Command, app *App) (*services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	dbPath := cfg.DB.Path
	if app.DBPath != "" {
		dbPath = app.DBPath
	}
	catalogID := cfg.Catalog.ID
	if app.CatalogID != "" {
		catalogID = app.CatalogID
	}

	logger, closeLog, err := logging.New(cfg.Log.Level, cfg.Log.Path, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	db, err := sqlite.New(dbPath)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		closeLog()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	logger = logger.With(slog.String("command", cmd.CommandPath()))

	trees := sqlite.NewTreeRepository(db)
	items := sqlite.NewChecklistRepository(db)
	activities := sqlite.NewActivityRepository(db)
	checklists := checklist.NewService(items, activities, logger,
		checklist.WithCommitConcurrency(cfg.Checklist.CommitConcurrency))
	return &services{
		db:         db,
		trees:      trees,
		items:      items,
		catalog:    hierarchy.NewService(trees, activities, logger),
		checklists: checklists,
		activity:   activity.NewService(activities, logger),
		catalogID:  catalogID,
		closeLog:   closeLog,
	}, nil
}

// withServices opens the services, runs fn and closes them again.
func withServices(cmd *cobra.Command, app *App, fn func(*services) error) error {
	svc, err := openServices(cmd, app)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer svc.Close()
	if err := fn(svc); err != nil {
		return writeErr(cmd, err)
	}
	return nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	w := cmd.OutOrStdout()
	switch app.Format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "json", "":
		enc := json.NewEncoder(w)
		if app.PrettyJSON {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown format %q: want json or yaml", app.Format)
	}
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
