package cli

import (
	"fmt"
	"os"

	"github.com/fieldline/sitebook/internal/domain/hierarchy"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newTreeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Project catalog commands",
	}
	cmd.AddCommand(newTreeShowCmd(app))
	cmd.AddCommand(newTreeImportCmd(app))
	cmd.AddCommand(newTreeCatalogsCmd(app))
	cmd.AddCommand(newTreeAddMainCmd(app))
	cmd.AddCommand(newTreeAddSubCmd(app))
	cmd.AddCommand(newTreeAddProjectCmd(app))
	cmd.AddCommand(newTreeCopyProjectCmd(app))
	cmd.AddCommand(newTreeDeleteMainCmd(app))
	cmd.AddCommand(newTreeDeleteSubCmd(app))
	cmd.AddCommand(newTreeDeleteProjectCmd(app))
	cmd.AddCommand(newTreeSetStatusCmd(app))
	cmd.AddCommand(newTreeCheckNumberCmd(app))
	return cmd
}

func writeCatalog(cmd *cobra.Command, app *App, cat *hierarchy.Catalog) error {
	return writeOut(cmd, app, map[string]any{"data": catalogView{
		ID:      cat.ID,
		Version: cat.Version,
		Tree:    hierarchy.Normalize(cat.Tree),
	}})
}

type catalogView struct {
	ID      string         `json:"id" yaml:"id"`
	Version int64          `json:"version" yaml:"version"`
	Tree    hierarchy.Tree `json:"tree" yaml:"tree"`
}

func newTreeShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the catalog tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, app, func(s *services) error {
				cat, err := s.catalog.Get(cmd.Context(), s.catalogID)
				if err != nil {
					return err
				}
				return writeCatalog(cmd, app, cat)
			})
		},
	}
}

func newTreeImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the catalog tree with a YAML or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			var tree hierarchy.Tree
			if err := yaml.Unmarshal(data, &tree); err != nil {
				return writeErr(cmd, fmt.Errorf("parsing %s: %w", args[0], err))
			}
			return withServices(cmd, app, func(s *services) error {
				cat, err := s.catalog.Import(cmd.Context(), s.catalogID, tree)
				if err != nil {
					return err
				}
				return writeCatalog(cmd, app, cat)
			})
		},
	}
}

func newTreeCatalogsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "catalogs",
		Short: "List stored catalogs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, app, func(s *services) error {
				ids, err := s.trees.ListCatalogs(cmd.Context())
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": ids})
			})
		},
	}
}

func newTreeAddMainCmd(app *App) *cobra.Command {
	var id, name string
	cmd := &cobra.Command{
		Use:   "add-main",
		Short: "Append a main folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, app, func(s *services) error {
				cat, err := s.catalog.AddMain(cmd.Context(), s.catalogID, id, name)
				if err != nil {
					return err
				}
				return writeCatalog(cmd, app, cat)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Folder id (generated when empty)")
	cmd.Flags().StringVar(&name, "name", "", "Folder name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newTreeAddSubCmd(app *App) *cobra.Command {
	var id, name string
	cmd := &cobra.Command{
		Use:   "add-sub <main-id>",
		Short: "Append a sub folder to a main folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, app, func(s *services) error {
				cat, err := s.catalog.AddSub(cmd.Context(), s.catalogID, args[0], id, name)
				if err != nil {
					return err
				}
				return writeCatalog(cmd, app, cat)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Folder id (generated when empty)")
	cmd.Flags().StringVar(&name, "name", "", "Folder name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newTreeAddProjectCmd(app *App) *cobra.Command {
	var id, name, status string
	cmd := &cobra.Command{
		Use:   "add-project <main-id> <sub-id>",
		Short: "Append a project to a sub folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, app, func(s *services) error {
				cat, err := s.catalog.AddProject(cmd.Context(), s.catalogID, args[0], args[1], hierarchy.ProjectNode{
					ID:     id,
					Name:   name,
					Status: hierarchy.ProjectStatus(status),
				})
				if err != nil {
					return err
				}
				return writeCatalog(cmd, app, cat)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Project number")
	cmd.Flags().StringVar(&name, "name", "", "Project name")
	cmd.Flags().StringVar(&status, "status", "", "Project status (ongoing|completed)")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newTreeCopyProjectCmd(app *App) *cobra.Command {
	var req hierarchy.CopyProjectRequest
	cmd := &cobra.Command{
		Use:   "copy-project <source-id>",
		Short: "Copy a project under a new number and name",
		Long:  "Copy a project under a new number and name. Without --main and --sub the copy lands next to the source.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.SourceID = args[0]
			return withServices(cmd, app, func(s *services) error {
				cat, err := s.catalog.CopyProject(cmd.Context(), s.catalogID, req)
				if err != nil {
					return err
				}
				return writeCatalog(cmd, app, cat)
			})
		},
	}
	cmd.Flags().StringVar(&req.NewID, "id", "", "New project number")
	cmd.Flags().StringVar(&req.NewName, "name", "", "New project name")
	cmd.Flags().StringVar(&req.TargetMainID, "main", "", "Target main folder id")
	cmd.Flags().StringVar(&req.TargetSubID, "sub", "", "Target sub folder id")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newTreeDeleteMainCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-main <main-id>",
		Short: "Delete a main folder and everything under it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, app, func(s *services) error {
				cat, err := s.catalog.DeleteMain(cmd.Context(), s.catalogID, args[0])
				if err != nil {
					return err
				}
				return writeCatalog(cmd, app, cat)
			})
		},
	}
}

func newTreeDeleteSubCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-sub <main-id> <sub-id>",
		Short: "Delete a sub folder and its projects",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, app, func(s *services) error {
				cat, err := s.catalog.DeleteSub(cmd.Context(), s.catalogID, args[0], args[1])
				if err != nil {
					return err
				}
				return writeCatalog(cmd, app, cat)
			})
		},
	}
}

func newTreeDeleteProjectCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-project <main-id> <sub-id> <project-id>",
		Short: "Delete a project from a sub folder",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, app, func(s *services) error {
				cat, err := s.catalog.DeleteProject(cmd.Context(), s.catalogID, args[0], args[1], args[2])
				if err != nil {
					return err
				}
				return writeCatalog(cmd, app, cat)
			})
		},
	}
}

func newTreeSetStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <project-id> <ongoing|completed>",
		Short: "Change a project's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, app, func(s *services) error {
				cat, err := s.catalog.SetProjectStatus(cmd.Context(), s.catalogID, args[0], hierarchy.ProjectStatus(args[1]))
				if err != nil {
					return err
				}
				return writeCatalog(cmd, app, cat)
			})
		},
	}
}

func newTreeCheckNumberCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "check-number <project-id>",
		Short: "Report whether a project number is still free",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, app, func(s *services) error {
				unique, err := s.catalog.IsProjectNumberUnique(cmd.Context(), s.catalogID, args[0])
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]any{
					"id":     args[0],
					"unique": unique,
				}})
			})
		},
	}
}
