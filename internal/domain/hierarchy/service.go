package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fieldline/sitebook/internal/domain/activity"
	"github.com/fieldline/sitebook/internal/repository"
	"github.com/google/uuid"
)

// DefaultMainName names the main folder a new catalog is seeded with.
const DefaultMainName = "Projects"

// Service loads a catalog tree, applies one tree operation and stores the
// result under the version it was loaded at.
type Service struct {
	trees      TreeRepository
	activities ActivityRepository
	logger     *slog.Logger
}

// NewService creates a new hierarchy service.
func NewService(trees TreeRepository, activities ActivityRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{trees: trees, activities: activities, logger: logger}
}

// Get returns the catalog, seeding it with a single main folder if it
// doesn't exist yet.
func (s *Service) Get(ctx context.Context, catalogID string) (*Catalog, error) {
	if strings.TrimSpace(catalogID) == "" {
		return nil, ErrCatalogNotFound
	}

	tree, version, err := s.trees.LoadTree(ctx, catalogID)
	if err == nil {
		return &Catalog{ID: catalogID, Tree: tree, Version: version}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("loading tree: %w", err)
	}

	seed := Tree{{ID: uuid.NewString(), Name: DefaultMainName, Children: []SubNode{}}}
	version, err = s.trees.SaveTree(ctx, catalogID, seed, 0)
	if errors.Is(err, repository.ErrConflict) {
		// Seeded concurrently; use the stored one.
		tree, version, err = s.trees.LoadTree(ctx, catalogID)
		if err != nil {
			return nil, fmt.Errorf("loading tree: %w", err)
		}
		return &Catalog{ID: catalogID, Tree: tree, Version: version}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("seeding tree: %w", err)
	}

	s.logger.Info("catalog seeded", "catalog_id", catalogID)
	return &Catalog{ID: catalogID, Tree: seed, Version: version}, nil
}

// IsProjectNumberUnique checks a candidate project number against the catalog.
func (s *Service) IsProjectNumberUnique(ctx context.Context, catalogID, projectID string) (bool, error) {
	cat, err := s.Get(ctx, catalogID)
	if err != nil {
		return false, err
	}
	return IsProjectNumberUnique(projectID, cat.Tree), nil
}

// FindProject locates a project in the catalog.
func (s *Service) FindProject(ctx context.Context, catalogID, projectID string) (*ProjectLocation, error) {
	cat, err := s.Get(ctx, catalogID)
	if err != nil {
		return nil, err
	}
	loc, ok := FindProject(cat.Tree, projectID)
	if !ok {
		return nil, ErrNodeNotFound
	}
	return &loc, nil
}

// Import replaces the whole tree after normalizing and validating it.
func (s *Service) Import(ctx context.Context, catalogID string, tree Tree) (*Catalog, error) {
	tree = Normalize(tree)
	if err := ValidateTree(tree); err != nil {
		return nil, err
	}
	return s.update(ctx, catalogID, func(Tree) (Tree, error) {
		return tree, nil
	}, &activity.ActivityEntry{
		ActivityType: activity.TypeTreeNodeAdded,
		Summary:      fmt.Sprintf("imported tree with %d main folders", len(tree)),
	})
}

// AddMain appends a main folder.
func (s *Service) AddMain(ctx context.Context, catalogID, id, name string) (*Catalog, error) {
	return s.update(ctx, catalogID, func(t Tree) (Tree, error) {
		out, _, err := AddMain(t, id, name)
		return out, err
	}, &activity.ActivityEntry{
		ActivityType: activity.TypeTreeNodeAdded,
		Summary:      fmt.Sprintf("added main folder %q", strings.TrimSpace(name)),
	})
}

// AddSub appends a sub folder to a main folder.
func (s *Service) AddSub(ctx context.Context, catalogID, mainID, id, name string) (*Catalog, error) {
	return s.update(ctx, catalogID, func(t Tree) (Tree, error) {
		out, _, err := AddSub(t, mainID, id, name)
		return out, err
	}, &activity.ActivityEntry{
		ActivityType: activity.TypeTreeNodeAdded,
		Summary:      fmt.Sprintf("added sub folder %q", strings.TrimSpace(name)),
	})
}

// AddProject appends a project to a sub folder.
func (s *Service) AddProject(ctx context.Context, catalogID, mainID, subID string, project ProjectNode) (*Catalog, error) {
	projectID := strings.TrimSpace(project.ID)
	return s.update(ctx, catalogID, func(t Tree) (Tree, error) {
		return AddProject(t, mainID, subID, project)
	}, &activity.ActivityEntry{
		RecordID:     &projectID,
		ActivityType: activity.TypeTreeNodeAdded,
		Summary:      fmt.Sprintf("added project %s", projectID),
	})
}

// CopyProjectRequest defines project copy inputs. A blank target folder
// means the source project's folder.
type CopyProjectRequest struct {
	SourceID     string
	TargetMainID string
	TargetSubID  string
	NewID        string
	NewName      string
}

// CopyProject copies an existing project under a new number and name.
func (s *Service) CopyProject(ctx context.Context, catalogID string, req CopyProjectRequest) (*Catalog, error) {
	newID := strings.TrimSpace(req.NewID)
	return s.update(ctx, catalogID, func(t Tree) (Tree, error) {
		src, ok := FindProject(t, req.SourceID)
		if !ok {
			return t, ErrNodeNotFound
		}
		mainID, subID := req.TargetMainID, req.TargetSubID
		if mainID == "" && subID == "" {
			mainID, subID = src.MainID, src.SubID
		}
		return CopyProject(mainID, subID, src.Project, req.NewID, req.NewName, t)
	}, &activity.ActivityEntry{
		RecordID:     &newID,
		ActivityType: activity.TypeProjectCopied,
		Summary:      fmt.Sprintf("copied project %s to %s", strings.TrimSpace(req.SourceID), newID),
	})
}

// DeleteMain removes a main folder, refusing to remove the last one.
func (s *Service) DeleteMain(ctx context.Context, catalogID, mainID string) (*Catalog, error) {
	cat, err := s.update(ctx, catalogID, func(t Tree) (Tree, error) {
		return DeleteMain(mainID, t)
	}, &activity.ActivityEntry{
		RecordID:     &mainID,
		ActivityType: activity.TypeTreeNodeDeleted,
		Summary:      fmt.Sprintf("deleted main folder %s", mainID),
	})
	if errors.Is(err, ErrGuardViolation) {
		s.logger.Warn("refused to delete last main folder", "catalog_id", catalogID, "main_id", mainID)
		s.logActivity(ctx, &activity.ActivityEntry{
			ProjectID:    catalogID,
			RecordID:     &mainID,
			ActivityType: activity.TypeGuardViolation,
			Summary:      "refused to delete the last main folder",
		})
	}
	return cat, err
}

// DeleteSub removes a sub folder.
func (s *Service) DeleteSub(ctx context.Context, catalogID, mainID, subID string) (*Catalog, error) {
	return s.update(ctx, catalogID, func(t Tree) (Tree, error) {
		return DeleteSub(mainID, subID, t), nil
	}, &activity.ActivityEntry{
		RecordID:     &subID,
		ActivityType: activity.TypeTreeNodeDeleted,
		Summary:      fmt.Sprintf("deleted sub folder %s", subID),
	})
}

// DeleteProject removes a project.
func (s *Service) DeleteProject(ctx context.Context, catalogID, mainID, subID, projectID string) (*Catalog, error) {
	return s.update(ctx, catalogID, func(t Tree) (Tree, error) {
		return DeleteProject(mainID, subID, projectID, t), nil
	}, &activity.ActivityEntry{
		RecordID:     &projectID,
		ActivityType: activity.TypeTreeNodeDeleted,
		Summary:      fmt.Sprintf("deleted project %s", projectID),
	})
}

// SetProjectStatus marks a project ongoing or completed.
func (s *Service) SetProjectStatus(ctx context.Context, catalogID, projectID string, status ProjectStatus) (*Catalog, error) {
	return s.update(ctx, catalogID, func(t Tree) (Tree, error) {
		return SetProjectStatus(t, projectID, status)
	}, &activity.ActivityEntry{
		RecordID:     &projectID,
		ActivityType: activity.TypeProjectStatusChanged,
		Summary:      fmt.Sprintf("project %s is now %s", projectID, status),
	})
}

func (s *Service) update(ctx context.Context, catalogID string, op func(Tree) (Tree, error), entry *activity.ActivityEntry) (*Catalog, error) {
	cat, err := s.Get(ctx, catalogID)
	if err != nil {
		return nil, err
	}

	tree, err := op(cat.Tree)
	if err != nil {
		return nil, err
	}

	version, err := s.trees.SaveTree(ctx, catalogID, tree, cat.Version)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("saving tree: %w", err)
	}

	entry.ProjectID = catalogID
	s.logActivity(ctx, entry)
	return &Catalog{ID: catalogID, Tree: tree, Version: version}, nil
}

func (s *Service) logActivity(ctx context.Context, entry *activity.ActivityEntry) {
	if s.activities == nil {
		return
	}
	if err := s.activities.Log(ctx, entry); err != nil {
		s.logger.Warn("activity log failed", "type", entry.ActivityType, "error", err)
	}
}
