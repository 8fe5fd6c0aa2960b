package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fieldline/sitebook/internal/domain/checklist"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newChecklistCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checklist",
		Short: "Project checklist commands",
	}
	cmd.AddCommand(newChecklistShowCmd(app))
	cmd.AddCommand(newChecklistSetCmd(app))
	cmd.AddCommand(newChecklistImportCmd(app))
	return cmd
}

func newChecklistShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show the stored checklist items of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, app, func(s *services) error {
				rec, err := s.checklists.Open(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]any{
					"project_id": args[0],
					"items":      rec.Persisted(),
				}})
			})
		},
	}
}

func newChecklistSetCmd(app *App) *cobra.Command {
	var unset []string
	cmd := &cobra.Command{
		Use:   "set <project-id> <item-id> [field=value...]",
		Short: "Write checklist fields of one item",
		Long: strings.TrimSpace(`
Write checklist fields of one item. Values are parsed as JSON and fall back
to plain strings, so status=Done and qty=3 both work. Use --unset to remove
a field.`),
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := parseAssignments(args[2:], unset)
			if err != nil {
				return writeErr(cmd, err)
			}
			if len(patch) == 0 {
				return writeErr(cmd, fmt.Errorf("%w: no fields to set", checklist.ErrInvalidInput))
			}
			projectID, itemID := args[0], args[1]
			return withServices(cmd, app, func(s *services) error {
				rec, err := s.checklists.Open(cmd.Context(), projectID)
				if err != nil {
					return err
				}
				if err := rec.CommitFieldPatch(cmd.Context(), itemID, patch); err != nil {
					return err
				}
				fields := rec.Persisted()[itemID]
				if fields == nil {
					fields = checklist.Fields{}
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]any{
					"project_id": projectID,
					"item_id":    itemID,
					"fields":     fields,
				}})
			})
		},
	}
	cmd.Flags().StringArrayVar(&unset, "unset", nil, "Field to remove (repeatable)")
	return cmd
}

func newChecklistImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <project-id> <file>",
		Short: "Patch checklist items from a YAML or JSON file and commit them",
		Long: strings.TrimSpace(`
Patch checklist items from a YAML or JSON file mapping item ids to fields,
then commit every changed item. Items not named in the file are kept.`),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			var items map[string]map[string]any
			if err := yaml.Unmarshal(data, &items); err != nil {
				return writeErr(cmd, fmt.Errorf("parsing %s: %w", args[1], err))
			}
			return withServices(cmd, app, func(s *services) error {
				rec, err := s.checklists.Open(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				for itemID, fields := range items {
					if err := rec.ApplyLocalPatch(itemID, checklist.PatchFromWire(fields)); err != nil {
						return err
					}
				}
				result, err := rec.CommitAllChanges(cmd.Context())
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": result})
			})
		},
	}
}

// parseAssignments turns field=value arguments into a patch.
func parseAssignments(assignments, unset []string) (checklist.Fields, error) {
	patch := checklist.Fields{}
	for _, a := range assignments {
		key, raw, ok := strings.Cut(a, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: expected field=value, got %q", checklist.ErrInvalidInput, a)
		}
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		patch[key] = value
	}
	for _, key := range unset {
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("%w: blank field name", checklist.ErrInvalidInput)
		}
		patch[key] = checklist.Removed
	}
	return patch, nil
}
