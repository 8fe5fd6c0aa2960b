package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `sitebook keeps construction project catalogs and per-project inspection checklists.

Core concepts:
- Catalog: a tree of main folders -> sub folders -> projects. Project numbers are unique across the catalog, and a catalog always keeps at least one main folder.
- Checklist: the items of one project. Each item is a set of named fields (status, note, photos, ...).
- Draft vs persisted: edits go to a local draft first. The persisted copy is what the store last confirmed. The checklist is dirty while they differ.

Default workflow:
1) Orient: tree_get, then project_number_unique before creating or copying projects.
2) Open a checklist with checklist_open(project_id).
3) Edit with checklist_patch (draft only) or checklist_commit_field (draft + immediate write).
4) Review with checklist_get: the diff lists exactly what a commit would write.
5) checklist_commit_all writes every pending item. On COMMIT_FAILED the draft is kept; fix the cause and commit again, or checklist_reset.
6) checklist_refresh pulls store changes; your draft is only replaced when it has no unsaved edits.

Field removal: send {"$removed": true} as a field value to delete that field.
Catalog selection: _meta.catalog_id (stdio) or the Sitebook-Catalog header (HTTP); otherwise the server's default catalog.

Docs:
- sitebook://docs/checklists
- sitebook://docs/catalog
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "sitebook://docs/checklists",
		Name:        "docs_checklists",
		Title:       "Editing checklists",
		Description: "How drafts, commits and refreshes interact, with failure handling.",
		Content: `# Editing checklists

## Two copies

Every open checklist holds a **persisted** copy (what the store last confirmed) and a **draft** (what you are editing). ` + "`dirty`" + ` is true while they differ.

## Writing

- ` + "`checklist_patch`" + ` changes the draft only. Use it for a batch of edits.
- ` + "`checklist_commit_field`" + ` changes the draft and writes the same fields at once. On success those fields are clean; other pending edits stay pending.
- ` + "`checklist_commit_all`" + ` writes every dirty item in item ID order. Each item that succeeds becomes clean immediately. The first failure stops the rest and is reported with its item ID; nothing already written is rolled back.

## Failures

A failed write never loses the draft. The error code is ` + "`COMMIT_FAILED`" + ` with ` + "`record_id`" + ` in the details. Either fix the cause and commit again, or call ` + "`checklist_reset`" + ` to discard edits.

## Refreshing

` + "`checklist_refresh`" + ` re-reads the store. If you have no unsaved edits the draft follows the store. If you do, only the persisted copy moves, so the diff now shows your edits against the latest store state.

## Missing vs null

A field set to null is different from a missing field. To delete a field send ` + "`{\"$removed\": true}`" + ` as its value; diffs show removals the same way.
`,
	},
	{
		URI:         "sitebook://docs/catalog",
		Name:        "docs_catalog",
		Title:       "Project catalog",
		Description: "Tree structure, project numbers and the guard rules of tree edits.",
		Content: `# Project catalog

The catalog has three levels: **main folders** (regions or business units), **sub folders**, and **projects**.

## Rules

- Project numbers are unique across the whole catalog, compared after trimming spaces. Check with ` + "`project_number_unique`" + `.
- Names must not be blank.
- The last main folder can't be deleted (` + "`GUARD_VIOLATION`" + `).
- Every edit is saved against the version you loaded. ` + "`CONFLICT`" + ` means someone else saved first: reload with ` + "`tree_get`" + ` and retry.

## Copying a project

` + "`tree_copy_project`" + ` appends a copy of an existing project with a new number and name. The copy keeps the attributes and status of the source and gets a fresh creation time. Without a target folder it lands next to the source.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
