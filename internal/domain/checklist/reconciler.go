package checklist

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// CommitAdapter durably writes one record's field patch.
type CommitAdapter func(ctx context.Context, recordID string, patch Fields) error

// Reconciler keeps a persisted snapshot (last confirmed by the backend) and a
// draft snapshot (with unsaved local edits) of one checklist. Each checklist
// gets its own Reconciler; instances share nothing.
type Reconciler struct {
	mu          sync.Mutex
	persisted   Collection
	draft       Collection
	adapter     CommitAdapter
	generation  uint64
	locks       map[string]*recordLock
	concurrency int
}

// NewReconciler creates an empty Reconciler.
func NewReconciler(opts ...Option) *Reconciler {
	r := &Reconciler{
		persisted:   make(Collection),
		draft:       make(Collection),
		locks:       make(map[string]*recordLock),
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ApplyLocalPatch merges patch into the draft record, creating it if absent.
func (r *Reconciler) ApplyLocalPatch(recordID string, patch Fields) error {
	if strings.TrimSpace(recordID) == "" {
		return ErrInvalidInput
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ApplyPatch(r.draft, recordID, patch)
	return nil
}

// IsDirty reports whether the draft differs from the persisted snapshot.
func (r *Reconciler) IsDirty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.persisted.Equal(r.draft)
}

// IsRecordDirty reports whether one record has unsaved changes.
func (r *Reconciler) IsRecordDirty(recordID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !fieldsEqual(r.persisted[recordID], r.draft[recordID])
}

// DirtyRecordIDs lists records with unsaved changes, sorted.
func (r *Reconciler) DirtyRecordIDs() []string {
	return r.Diff().RecordIDs()
}

// Diff returns the pending per-record, per-field changes.
func (r *Reconciler) Diff() Diff {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ComputeItemDiff(r.persisted, r.draft)
}

// Persisted returns a copy of the persisted snapshot.
func (r *Reconciler) Persisted() Collection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.persisted.Clone()
}

// Draft returns a copy of the draft snapshot.
func (r *Reconciler) Draft() Collection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.draft.Clone()
}

// ResetDraftToPersisted discards all unsaved edits.
func (r *Reconciler) ResetDraftToPersisted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.draft = r.persisted.Clone()
}

// IngestBackendSnapshot accepts a fresh authoritative state. Without unsaved
// edits both snapshots move to it and true is returned. Otherwise only the
// persisted side is replaced and the draft is left untouched.
func (r *Reconciler) IngestBackendSnapshot(snapshot Collection) bool {
	next := snapshot.Clone()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	if r.persisted.Equal(r.draft) {
		r.persisted = next
		r.draft = next.Clone()
		return true
	}
	r.persisted = next
	return false
}

// RegisterCommitAdapter installs fn, replacing any previous adapter. A nil
// fn switches the reconciler to local-only mode.
func (r *Reconciler) RegisterCommitAdapter(fn CommitAdapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapter = fn
}

// HasCommitAdapter reports whether an adapter is registered.
func (r *Reconciler) HasCommitAdapter() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.adapter != nil
}

// Clear empties both snapshots and drops the adapter.
func (r *Reconciler) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.persisted = make(Collection)
	r.draft = make(Collection)
	r.adapter = nil
	r.generation++
}

// CommitFieldPatch applies patch to the draft and writes it through the
// adapter. On success the persisted record takes the same patch, so those
// fields become clean even if others stay dirty. On failure the draft keeps
// the edit and a *CommitError is returned. Without an adapter the call only
// updates the draft.
func (r *Reconciler) CommitFieldPatch(ctx context.Context, recordID string, patch Fields) error {
	if strings.TrimSpace(recordID) == "" {
		return ErrInvalidInput
	}

	r.mu.Lock()
	ApplyPatch(r.draft, recordID, patch)
	adapter := r.adapter
	r.mu.Unlock()

	if adapter == nil {
		return nil
	}
	return r.commitRecord(ctx, adapter, recordID, patch.Clone(), true)
}

// CommitAllChanges writes every pending record patch through the adapter.
// Each successful write advances that record's persisted fields right away.
// The first failure stops the remaining writes; the result lists what was
// committed and which record failed. Once every write succeeds the persisted
// snapshot becomes a copy of the draft as it was when the call started.
func (r *Reconciler) CommitAllChanges(ctx context.Context) (CommitResult, error) {
	r.mu.Lock()
	diff := ComputeItemDiff(r.persisted, r.draft)
	target := r.draft.Clone()
	adapter := r.adapter
	generation := r.generation
	if adapter == nil {
		r.persisted = target
		r.mu.Unlock()
		return CommitResult{Committed: diff.RecordIDs(), LocalOnly: true}, nil
	}
	r.mu.Unlock()

	ids := diff.RecordIDs()
	if len(ids) == 0 {
		return CommitResult{Committed: []string{}}, nil
	}

	var (
		result CommitResult
		err    error
	)
	if r.concurrency > 1 && len(ids) > 1 {
		result, err = r.commitParallel(ctx, adapter, ids, diff)
	} else {
		result, err = r.commitSequential(ctx, adapter, ids, diff)
	}
	if err != nil {
		return result, err
	}

	r.mu.Lock()
	// A snapshot ingested or a field patch committed mid-commit is newer than
	// target; the per-record advances already applied stand on their own.
	if r.generation == generation {
		r.persisted = target
	}
	r.mu.Unlock()
	return result, nil
}

func (r *Reconciler) commitSequential(ctx context.Context, adapter CommitAdapter, ids []string, diff Diff) (CommitResult, error) {
	result := CommitResult{Committed: make([]string, 0, len(ids))}
	for _, id := range ids {
		if err := r.commitRecord(ctx, adapter, id, diff[id], false); err != nil {
			result.FailedRecordID = id
			return result, err
		}
		result.Committed = append(result.Committed, id)
	}
	return result, nil
}

func (r *Reconciler) commitParallel(ctx context.Context, adapter CommitAdapter, ids []string, diff Diff) (CommitResult, error) {
	var (
		mu       sync.Mutex
		result   = CommitResult{Committed: make([]string, 0, len(ids))}
		firstErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			if err := r.commitRecord(gctx, adapter, id, diff[id], false); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
					result.FailedRecordID = id
				}
				mu.Unlock()
				return err
			}
			mu.Lock()
			result.Committed = append(result.Committed, id)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(result.Committed)
	if firstErr != nil {
		return result, firstErr
	}
	if len(result.Committed) != len(ids) {
		// The caller's context ended before every record was attempted.
		return result, fmt.Errorf("committing checklist: %w", ctx.Err())
	}
	return result, nil
}

// commitRecord writes one patch while holding that record's commit lock, so
// two writes for the same record never overlap. Writes outside a running
// CommitAllChanges bump the generation so its final snapshot swap can't roll
// them back.
func (r *Reconciler) commitRecord(ctx context.Context, adapter CommitAdapter, recordID string, patch Fields, single bool) error {
	if err := ctx.Err(); err != nil {
		return &CommitError{RecordID: recordID, Err: err}
	}
	release, err := r.lockRecord(ctx, recordID)
	if err != nil {
		return &CommitError{RecordID: recordID, Err: err}
	}
	defer release()

	if err := adapter(ctx, recordID, patch); err != nil {
		return &CommitError{RecordID: recordID, Err: err}
	}

	r.mu.Lock()
	ApplyPatch(r.persisted, recordID, patch)
	if single {
		r.generation++
	}
	r.mu.Unlock()
	return nil
}

// recordLock serializes writes to one record. refs counts holders and
// waiters; the entry is dropped from the map when it reaches zero.
type recordLock struct {
	ch   chan struct{}
	refs int
}

func (r *Reconciler) lockRecord(ctx context.Context, recordID string) (func(), error) {
	r.mu.Lock()
	lock, ok := r.locks[recordID]
	if !ok {
		lock = &recordLock{ch: make(chan struct{}, 1)}
		r.locks[recordID] = lock
	}
	lock.refs++
	r.mu.Unlock()

	select {
	case lock.ch <- struct{}{}:
		return func() {
			<-lock.ch
			r.unrefLock(recordID, lock)
		}, nil
	case <-ctx.Done():
		r.unrefLock(recordID, lock)
		return nil, ctx.Err()
	}
}

func (r *Reconciler) unrefLock(recordID string, lock *recordLock) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock.refs--
	if lock.refs == 0 && r.locks[recordID] == lock {
		delete(r.locks, recordID)
	}
}
