package mcp

import (
	"context"

	"github.com/fieldline/sitebook/internal/domain/activity"
	"github.com/fieldline/sitebook/internal/domain/checklist"
	"github.com/fieldline/sitebook/internal/domain/hierarchy"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerTools(server *sdkmcp.Server, svc Services) {
	if svc.Checklists != nil {
		registerChecklistTools(server, svc.Checklists)
	}
	if svc.Catalog != nil {
		registerCatalogTools(server, svc.Catalog)
	}
	if svc.Activity != nil {
		registerActivityTools(server, svc.Activity)
	}
}

func registerChecklistTools(server *sdkmcp.Server, checklists ChecklistService) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "checklist_open",
		Description: "Load a project's checklist from the store and start tracking local edits",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in ChecklistParams) (*sdkmcp.CallToolResult, ChecklistView, error) {
		rec, err := checklists.Open(ctx, in.ProjectID)
		if err != nil {
			return nil, ChecklistView{}, toolError(err)
		}
		return nil, viewOf(in.ProjectID, rec), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "checklist_get",
		Description: "Show persisted and draft state of an open checklist with its pending diff",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in ChecklistParams) (*sdkmcp.CallToolResult, ChecklistView, error) {
		rec, err := checklists.Get(in.ProjectID)
		if err != nil {
			return nil, ChecklistView{}, toolError(err)
		}
		return nil, viewOf(in.ProjectID, rec), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "checklist_list_open",
		Description: "List projects with an open checklist",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ TreeParams) (*sdkmcp.CallToolResult, OpenChecklistsResult, error) {
		return nil, OpenChecklistsResult{ProjectIDs: checklists.OpenProjects()}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "checklist_patch",
		Description: "Edit fields of a checklist item in the draft only; nothing is written until a commit",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in PatchParams) (*sdkmcp.CallToolResult, ChecklistView, error) {
		rec, err := checklists.Get(in.ProjectID)
		if err != nil {
			return nil, ChecklistView{}, toolError(err)
		}
		if err := rec.ApplyLocalPatch(in.RecordID, checklist.PatchFromWire(in.Fields)); err != nil {
			return nil, ChecklistView{}, toolError(err)
		}
		return nil, viewOf(in.ProjectID, rec), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "checklist_commit_field",
		Description: "Edit fields of a checklist item and write them to the store immediately",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in PatchParams) (*sdkmcp.CallToolResult, ChecklistView, error) {
		rec, err := checklists.Get(in.ProjectID)
		if err != nil {
			return nil, ChecklistView{}, toolError(err)
		}
		if err := rec.CommitFieldPatch(ctx, in.RecordID, checklist.PatchFromWire(in.Fields)); err != nil {
			return nil, ChecklistView{}, toolError(err)
		}
		return nil, viewOf(in.ProjectID, rec), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "checklist_commit_all",
		Description: "Write every pending item change to the store, stopping at the first failure",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in ChecklistParams) (*sdkmcp.CallToolResult, CommitAllResult, error) {
		rec, err := checklists.Get(in.ProjectID)
		if err != nil {
			return nil, CommitAllResult{}, toolError(err)
		}
		res, err := rec.CommitAllChanges(ctx)
		out := CommitAllResult{Result: res, Checklist: viewOf(in.ProjectID, rec)}
		if err != nil {
			// Records written before the failure stay committed, so the
			// result travels with the error.
			return errorResult(commitAllError(err, res)), out, nil
		}
		return nil, out, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "checklist_reset",
		Description: "Discard all unsaved edits of a checklist",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in ChecklistParams) (*sdkmcp.CallToolResult, ChecklistView, error) {
		rec, err := checklists.Get(in.ProjectID)
		if err != nil {
			return nil, ChecklistView{}, toolError(err)
		}
		rec.ResetDraftToPersisted()
		return nil, viewOf(in.ProjectID, rec), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "checklist_refresh",
		Description: "Re-read the store; the draft follows only when it has no unsaved edits",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in ChecklistParams) (*sdkmcp.CallToolResult, RefreshResult, error) {
		ff, err := checklists.Refresh(ctx, in.ProjectID)
		if err != nil {
			return nil, RefreshResult{}, toolError(err)
		}
		rec, err := checklists.Get(in.ProjectID)
		if err != nil {
			return nil, RefreshResult{}, toolError(err)
		}
		return nil, RefreshResult{FastForwarded: ff, Checklist: viewOf(in.ProjectID, rec)}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "checklist_close",
		Description: "Stop tracking a checklist; unsaved edits are dropped",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in ChecklistParams) (*sdkmcp.CallToolResult, CloseResult, error) {
		if err := checklists.Close(in.ProjectID); err != nil {
			return nil, CloseResult{}, toolError(err)
		}
		return nil, CloseResult{Closed: true}, nil
	})
}

func registerCatalogTools(server *sdkmcp.Server, catalog CatalogService) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "tree_get",
		Description: "Get the project tree: main folders, sub folders and projects",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ TreeParams) (*sdkmcp.CallToolResult, TreeResult, error) {
		return treeResult(catalog.Get(ctx, getCatalogID(ctx)))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "tree_add_main",
		Description: "Add a main folder at the end of the tree",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in AddMainParams) (*sdkmcp.CallToolResult, TreeResult, error) {
		return treeResult(catalog.AddMain(ctx, getCatalogID(ctx), in.ID, in.Name))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "tree_add_sub",
		Description: "Add a sub folder to a main folder",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in AddSubParams) (*sdkmcp.CallToolResult, TreeResult, error) {
		return treeResult(catalog.AddSub(ctx, getCatalogID(ctx), in.MainID, in.ID, in.Name))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "tree_add_project",
		Description: "Add a project to a sub folder; the project number must be unique",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in AddProjectParams) (*sdkmcp.CallToolResult, TreeResult, error) {
		return treeResult(catalog.AddProject(ctx, getCatalogID(ctx), in.MainID, in.SubID, hierarchy.ProjectNode{
			ID:         in.ProjectID,
			Name:       in.Name,
			Status:     hierarchy.ProjectStatus(in.Status),
			Attributes: in.Attributes,
		}))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "tree_copy_project",
		Description: "Copy a project under a new project number and name",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in CopyProjectParams) (*sdkmcp.CallToolResult, TreeResult, error) {
		return treeResult(catalog.CopyProject(ctx, getCatalogID(ctx), hierarchy.CopyProjectRequest{
			SourceID:     in.SourceID,
			TargetMainID: in.MainID,
			TargetSubID:  in.SubID,
			NewID:        in.NewID,
			NewName:      in.NewName,
		}))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "tree_delete_main",
		Description: "Delete a main folder with everything under it; the last main folder can't be deleted",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in DeleteMainParams) (*sdkmcp.CallToolResult, TreeResult, error) {
		return treeResult(catalog.DeleteMain(ctx, getCatalogID(ctx), in.MainID))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "tree_delete_sub",
		Description: "Delete a sub folder with its projects",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in DeleteSubParams) (*sdkmcp.CallToolResult, TreeResult, error) {
		return treeResult(catalog.DeleteSub(ctx, getCatalogID(ctx), in.MainID, in.SubID))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "tree_delete_project",
		Description: "Delete a project from a sub folder",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in DeleteProjectParams) (*sdkmcp.CallToolResult, TreeResult, error) {
		return treeResult(catalog.DeleteProject(ctx, getCatalogID(ctx), in.MainID, in.SubID, in.ProjectID))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "tree_set_status",
		Description: "Mark a project ongoing or completed",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in SetStatusParams) (*sdkmcp.CallToolResult, TreeResult, error) {
		return treeResult(catalog.SetProjectStatus(ctx, getCatalogID(ctx), in.ProjectID, hierarchy.ProjectStatus(in.Status)))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "tree_find_project",
		Description: "Find which main and sub folder hold a project",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in ProjectNumberParams) (*sdkmcp.CallToolResult, FindProjectResult, error) {
		loc, err := catalog.FindProject(ctx, getCatalogID(ctx), in.ProjectID)
		if err != nil {
			return nil, FindProjectResult{}, toolError(err)
		}
		return nil, FindProjectResult{Location: *loc}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "project_number_unique",
		Description: "Check whether a project number is free to use",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in ProjectNumberParams) (*sdkmcp.CallToolResult, ProjectNumberResult, error) {
		unique, err := catalog.IsProjectNumberUnique(ctx, getCatalogID(ctx), in.ProjectID)
		if err != nil {
			return nil, ProjectNumberResult{}, toolError(err)
		}
		return nil, ProjectNumberResult{ProjectID: in.ProjectID, Unique: unique}, nil
	})
}

func registerActivityTools(server *sdkmcp.Server, activities ActivityService) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "activity_recent",
		Description: "Get recent commits, refreshes and tree changes, newest first",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in RecentActivityParams) (*sdkmcp.CallToolResult, RecentActivityResult, error) {
		opts := activity.ListActivityOptions{ProjectID: in.ProjectID, Limit: in.Limit}
		if in.RecordID != "" {
			opts.RecordID = &in.RecordID
		}
		if in.Type != "" {
			activityType := activity.ActivityType(in.Type)
			opts.ActivityType = &activityType
		}
		entries, err := activities.GetRecentActivity(ctx, opts)
		if err != nil {
			return nil, RecentActivityResult{}, toolError(err)
		}
		if entries == nil {
			entries = []activity.ActivityEntry{}
		}
		return nil, RecentActivityResult{Entries: entries}, nil
	})
}

func viewOf(projectID string, rec *checklist.Reconciler) ChecklistView {
	diff := rec.Diff()
	if diff == nil {
		diff = checklist.Diff{}
	}
	return ChecklistView{
		ProjectID:      projectID,
		Persisted:      rec.Persisted(),
		Draft:          rec.Draft(),
		Diff:           diff,
		Dirty:          rec.IsDirty(),
		DirtyRecordIDs: diff.RecordIDs(),
		LocalOnly:      !rec.HasCommitAdapter(),
	}
}

func treeResult(cat *hierarchy.Catalog, err error) (*sdkmcp.CallToolResult, TreeResult, error) {
	if err != nil {
		return nil, TreeResult{}, toolError(err)
	}
	tree := hierarchy.Tree{}
	if cat.Tree != nil {
		tree = hierarchy.Normalize(cat.Tree)
	}
	return nil, TreeResult{CatalogID: cat.ID, Version: cat.Version, Tree: tree}, nil
}
