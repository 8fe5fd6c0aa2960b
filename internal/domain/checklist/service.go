package checklist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/fieldline/sitebook/internal/domain/activity"
)

// Service owns one Reconciler per open project checklist and binds it to the
// item repository.
type Service struct {
	items      ItemRepository
	activities ActivityRepository
	logger     *slog.Logger
	opts       []Option

	mu   sync.Mutex
	open map[string]*Reconciler
}

// NewService creates a new checklist service. opts apply to every
// Reconciler it opens.
func NewService(items ItemRepository, activities ActivityRepository, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		items:      items,
		activities: activities,
		logger:     logger,
		opts:       opts,
		open:       make(map[string]*Reconciler),
	}
}

// Open returns the project's Reconciler, loading it from the repository on
// first use and registering a commit adapter that writes through it.
func (s *Service) Open(ctx context.Context, projectID string) (*Reconciler, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, ErrInvalidInput
	}

	s.mu.Lock()
	rec, ok := s.open[projectID]
	s.mu.Unlock()
	if ok {
		return rec, nil
	}

	items, err := s.items.ListItems(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading checklist items: %w", err)
	}

	rec = NewReconciler(s.opts...)
	rec.IngestBackendSnapshot(items)
	rec.RegisterCommitAdapter(s.adapterFor(projectID))

	s.mu.Lock()
	if existing, ok := s.open[projectID]; ok {
		s.mu.Unlock()
		return existing, nil
	}
	s.open[projectID] = rec
	s.mu.Unlock()

	s.logger.Debug("checklist opened", "project_id", projectID, "items", len(items))
	s.logActivity(ctx, &activity.ActivityEntry{
		ProjectID:    projectID,
		ActivityType: activity.TypeChecklistOpened,
		Summary:      fmt.Sprintf("opened checklist with %d items", len(items)),
	})
	return rec, nil
}

// Get returns an already open Reconciler.
func (s *Service) Get(projectID string) (*Reconciler, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.open[projectID]
	if !ok {
		return nil, ErrNotOpen
	}
	return rec, nil
}

// Refresh re-reads the project's items and ingests them as a backend
// snapshot. It reports whether the draft fast-forwarded.
func (s *Service) Refresh(ctx context.Context, projectID string) (bool, error) {
	rec, err := s.Get(projectID)
	if err != nil {
		return false, err
	}
	items, err := s.items.ListItems(ctx, projectID)
	if err != nil {
		return false, fmt.Errorf("loading checklist items: %w", err)
	}

	fastForwarded := rec.IngestBackendSnapshot(items)
	summary := "ingested snapshot, draft kept"
	if fastForwarded {
		summary = "ingested snapshot, draft fast-forwarded"
	}
	s.logActivity(ctx, &activity.ActivityEntry{
		ProjectID:    projectID,
		ActivityType: activity.TypeSnapshotIngested,
		Summary:      summary,
	})
	return fastForwarded, nil
}

// Close clears and forgets the project's Reconciler.
func (s *Service) Close(projectID string) error {
	s.mu.Lock()
	rec, ok := s.open[projectID]
	delete(s.open, projectID)
	s.mu.Unlock()
	if !ok {
		return ErrNotOpen
	}
	rec.Clear()
	return nil
}

// OpenProjects lists projects with an open checklist.
func (s *Service) OpenProjects() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.open))
	for id := range s.open {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Service) adapterFor(projectID string) CommitAdapter {
	return func(ctx context.Context, itemID string, patch Fields) error {
		recordID := itemID
		if err := s.items.PatchItem(ctx, projectID, itemID, patch); err != nil {
			s.logger.Warn("checklist commit failed", "project_id", projectID, "item_id", itemID, "error", err)
			s.logActivity(ctx, &activity.ActivityEntry{
				ProjectID:    projectID,
				RecordID:     &recordID,
				ActivityType: activity.TypeChecklistCommitFailed,
				Summary:      fmt.Sprintf("commit of item %s failed: %v", itemID, err),
			})
			return fmt.Errorf("patching item: %w", err)
		}

		details, _ := json.Marshal(map[string]any{"fields": patch.Names()})
		s.logActivity(ctx, &activity.ActivityEntry{
			ProjectID:    projectID,
			RecordID:     &recordID,
			ActivityType: activity.TypeChecklistCommitted,
			Summary:      fmt.Sprintf("committed item %s", itemID),
			Details:      string(details),
		})
		return nil
	}
}

func (s *Service) logActivity(ctx context.Context, entry *activity.ActivityEntry) {
	if s.activities == nil {
		return
	}
	if err := s.activities.Log(ctx, entry); err != nil {
		s.logger.Warn("activity log failed", "type", entry.ActivityType, "error", err)
	}
}
