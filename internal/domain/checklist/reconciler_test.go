package checklist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingAdapter struct {
	mu      sync.Mutex
	calls   []string
	patches map[string]Fields
	failOn  map[string]error
}

func newRecordingAdapter() *recordingAdapter {
	return &recordingAdapter{
		patches: make(map[string]Fields),
		failOn:  make(map[string]error),
	}
}

func (a *recordingAdapter) commit(_ context.Context, recordID string, patch Fields) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, recordID)
	if err := a.failOn[recordID]; err != nil {
		return err
	}
	a.patches[recordID] = patch
	return nil
}

func seeded(t *testing.T, c Collection, opts ...Option) *Reconciler {
	t.Helper()
	r := NewReconciler(opts...)
	require.True(t, r.IngestBackendSnapshot(c))
	require.False(t, r.IsDirty())
	return r
}

func TestReconciler_CommitAllScenario(t *testing.T) {
	ctx := context.Background()
	r := seeded(t, Collection{"item1": {"status": "NotStarted"}})
	adapter := newRecordingAdapter()
	r.RegisterCommitAdapter(adapter.commit)

	require.NoError(t, r.ApplyLocalPatch("item1", Fields{"status": "Done"}))
	require.True(t, r.IsDirty())
	require.True(t, r.IsRecordDirty("item1"))

	result, err := r.CommitAllChanges(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"item1"}, result.Committed)
	require.Empty(t, result.FailedRecordID)
	require.Equal(t, "Done", r.Persisted()["item1"]["status"])
	require.False(t, r.IsDirty())
	require.Equal(t, Fields{"status": "Done"}, adapter.patches["item1"])
}

func TestReconciler_ApplyLocalPatchValidation(t *testing.T) {
	r := NewReconciler()
	require.ErrorIs(t, r.ApplyLocalPatch("  ", Fields{"a": 1}), ErrInvalidInput)
	require.NoError(t, r.ApplyLocalPatch("new", Fields{"a": 1}))
	require.Equal(t, Fields{"a": 1}, r.Draft()["new"])
}

func TestReconciler_ResetDiscardsEdits(t *testing.T) {
	r := seeded(t, Collection{"item1": {"status": "NotStarted"}})
	require.NoError(t, r.ApplyLocalPatch("item1", Fields{"status": "Done"}))
	require.NoError(t, r.ApplyLocalPatch("item2", Fields{"status": "Done"}))
	require.True(t, r.IsDirty())

	r.ResetDraftToPersisted()
	require.False(t, r.IsDirty())
	require.Equal(t, r.Persisted(), r.Draft())
}

func TestReconciler_IngestFastForwardsWhenClean(t *testing.T) {
	r := seeded(t, Collection{"item1": {"status": "NotStarted"}})

	next := Collection{"item1": {"status": "Done"}, "item2": {"status": "NotStarted"}}
	require.True(t, r.IngestBackendSnapshot(next))
	require.Equal(t, next, r.Persisted())
	require.Equal(t, next, r.Draft())

	// The reconciler keeps its own copy.
	next["item1"]["status"] = "mutated"
	require.Equal(t, "Done", r.Draft()["item1"]["status"])
}

func TestReconciler_IngestKeepsUnsavedEdits(t *testing.T) {
	r := seeded(t, Collection{"item1": {"status": "NotStarted"}, "item2": {"status": "NotStarted"}})
	require.NoError(t, r.ApplyLocalPatch("item1", Fields{"status": "Done"}))
	draftBefore := r.Draft()

	p1 := Collection{"item1": {"status": "NotStarted"}, "item2": {"status": "Blocked"}}
	require.False(t, r.IngestBackendSnapshot(p1))
	require.Equal(t, draftBefore, r.Draft())
	require.Equal(t, p1, r.Persisted())
	require.True(t, r.IsDirty())
}

func TestReconciler_CommitFieldPatchCleansOnlyThatField(t *testing.T) {
	ctx := context.Background()
	r := seeded(t, Collection{"item1": {"status": "NotStarted", "note": ""}})
	adapter := newRecordingAdapter()
	r.RegisterCommitAdapter(adapter.commit)

	require.NoError(t, r.ApplyLocalPatch("item1", Fields{"note": "pending inspection"}))
	require.NoError(t, r.CommitFieldPatch(ctx, "item1", Fields{"status": "Done"}))

	require.Equal(t, "Done", r.Persisted()["item1"]["status"])
	require.Equal(t, "", r.Persisted()["item1"]["note"])
	require.Equal(t, Diff{"item1": {"note": "pending inspection"}}, r.Diff())
}

func TestReconciler_CommitFieldPatchFailureKeepsDraft(t *testing.T) {
	ctx := context.Background()
	r := seeded(t, Collection{"item1": {"status": "NotStarted"}})
	boom := errors.New("backend unavailable")
	adapter := newRecordingAdapter()
	adapter.failOn["item1"] = boom
	r.RegisterCommitAdapter(adapter.commit)

	err := r.CommitFieldPatch(ctx, "item1", Fields{"status": "Done"})
	require.ErrorIs(t, err, ErrCommitFailed)
	require.ErrorIs(t, err, boom)

	var commitErr *CommitError
	require.ErrorAs(t, err, &commitErr)
	require.Equal(t, "item1", commitErr.RecordID)

	require.Equal(t, "Done", r.Draft()["item1"]["status"])
	require.Equal(t, "NotStarted", r.Persisted()["item1"]["status"])
	require.True(t, r.IsRecordDirty("item1"))
}

func TestReconciler_LocalOnlyMode(t *testing.T) {
	ctx := context.Background()
	r := seeded(t, Collection{"item1": {"status": "NotStarted"}})
	require.False(t, r.HasCommitAdapter())

	require.NoError(t, r.CommitFieldPatch(ctx, "item1", Fields{"status": "Done"}))
	require.True(t, r.IsDirty())
	require.Equal(t, "NotStarted", r.Persisted()["item1"]["status"])

	result, err := r.CommitAllChanges(ctx)
	require.NoError(t, err)
	require.True(t, result.LocalOnly)
	require.Equal(t, []string{"item1"}, result.Committed)
	require.False(t, r.IsDirty())
	require.Equal(t, "Done", r.Persisted()["item1"]["status"])
}

func TestReconciler_RegisterCommitAdapterLastWins(t *testing.T) {
	ctx := context.Background()
	r := seeded(t, Collection{})
	first := newRecordingAdapter()
	second := newRecordingAdapter()
	r.RegisterCommitAdapter(first.commit)
	r.RegisterCommitAdapter(second.commit)

	require.NoError(t, r.CommitFieldPatch(ctx, "item1", Fields{"status": "Done"}))
	require.Empty(t, first.calls)
	require.Equal(t, []string{"item1"}, second.calls)

	r.RegisterCommitAdapter(nil)
	require.False(t, r.HasCommitAdapter())
}

func TestReconciler_CommitAllStopsAtFirstFailure(t *testing.T) {
	ctx := context.Background()
	r := seeded(t, Collection{
		"a": {"status": "NotStarted"},
		"b": {"status": "NotStarted"},
		"c": {"status": "NotStarted"},
	})
	boom := errors.New("write rejected")
	adapter := newRecordingAdapter()
	adapter.failOn["b"] = boom
	r.RegisterCommitAdapter(adapter.commit)

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, r.ApplyLocalPatch(id, Fields{"status": "Done"}))
	}

	result, err := r.CommitAllChanges(ctx)
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, err, ErrCommitFailed)
	require.Equal(t, []string{"a"}, result.Committed)
	require.Equal(t, "b", result.FailedRecordID)
	require.Equal(t, []string{"a", "b"}, adapter.calls)

	persisted := r.Persisted()
	require.Equal(t, "Done", persisted["a"]["status"])
	require.Equal(t, "NotStarted", persisted["b"]["status"])
	require.Equal(t, "NotStarted", persisted["c"]["status"])
	require.Equal(t, []string{"b", "c"}, r.DirtyRecordIDs())
	require.Equal(t, "Done", r.Draft()["c"]["status"])
}

func TestReconciler_CommitAllNothingPending(t *testing.T) {
	r := seeded(t, Collection{"a": {"status": "Done"}})
	adapter := newRecordingAdapter()
	r.RegisterCommitAdapter(adapter.commit)

	result, err := r.CommitAllChanges(context.Background())
	require.NoError(t, err)
	require.Empty(t, result.Committed)
	require.Empty(t, adapter.calls)
}

func TestReconciler_CommitAllCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := seeded(t, Collection{"a": {"status": "NotStarted"}})
	adapter := newRecordingAdapter()
	r.RegisterCommitAdapter(adapter.commit)
	require.NoError(t, r.ApplyLocalPatch("a", Fields{"status": "Done"}))

	result, err := r.CommitAllChanges(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, "a", result.FailedRecordID)
	require.Empty(t, adapter.calls)
	require.True(t, r.IsDirty())
}

func TestReconciler_CommitAllRemovesDeletedFields(t *testing.T) {
	ctx := context.Background()
	r := seeded(t, Collection{"a": {"status": "Done", "photo": "p1.jpg"}})
	adapter := newRecordingAdapter()
	r.RegisterCommitAdapter(adapter.commit)

	require.NoError(t, r.ApplyLocalPatch("a", Fields{"photo": Removed}))
	_, err := r.CommitAllChanges(ctx)
	require.NoError(t, err)

	require.True(t, IsRemoved(adapter.patches["a"]["photo"]))
	require.Equal(t, Fields{"status": "Done"}, r.Persisted()["a"])
	require.False(t, r.IsDirty())
}

func TestReconciler_EditsDuringCommitStayDirty(t *testing.T) {
	ctx := context.Background()
	r := seeded(t, Collection{"a": {"status": "NotStarted"}})

	release := make(chan struct{})
	started := make(chan struct{})
	r.RegisterCommitAdapter(func(ctx context.Context, recordID string, patch Fields) error {
		close(started)
		<-release
		return nil
	})
	require.NoError(t, r.ApplyLocalPatch("a", Fields{"status": "InProgress"}))

	done := make(chan error, 1)
	go func() {
		_, err := r.CommitAllChanges(ctx)
		done <- err
	}()

	<-started
	require.NoError(t, r.ApplyLocalPatch("a", Fields{"status": "Done"}))
	close(release)
	require.NoError(t, <-done)

	require.Equal(t, "InProgress", r.Persisted()["a"]["status"])
	require.Equal(t, "Done", r.Draft()["a"]["status"])
	require.True(t, r.IsDirty())
}

func TestReconciler_IngestDuringCommitIsKept(t *testing.T) {
	ctx := context.Background()
	r := seeded(t, Collection{"a": {"status": "NotStarted"}, "b": {"status": "NotStarted"}})

	release := make(chan struct{})
	started := make(chan struct{})
	r.RegisterCommitAdapter(func(ctx context.Context, recordID string, patch Fields) error {
		close(started)
		<-release
		return nil
	})
	require.NoError(t, r.ApplyLocalPatch("a", Fields{"status": "Done"}))

	done := make(chan error, 1)
	go func() {
		_, err := r.CommitAllChanges(ctx)
		done <- err
	}()

	<-started
	// Upstream changed b while a was being written.
	require.False(t, r.IngestBackendSnapshot(Collection{"a": {"status": "NotStarted"}, "b": {"status": "Blocked"}}))
	close(release)
	require.NoError(t, <-done)

	persisted := r.Persisted()
	require.Equal(t, "Done", persisted["a"]["status"])
	require.Equal(t, "Blocked", persisted["b"]["status"])
	require.Equal(t, []string{"b"}, r.DirtyRecordIDs())

	// Draft still holds the stale b; dropping it fast-forwards on next ingest.
	r.ResetDraftToPersisted()
	require.True(t, r.IngestBackendSnapshot(persisted))
}

func TestReconciler_ParallelCommitNeverOverlapsPerRecord(t *testing.T) {
	ctx := context.Background()
	initial := Collection{}
	for i := 0; i < 12; i++ {
		initial[fmt.Sprintf("item%02d", i)] = Fields{"status": "NotStarted"}
	}
	r := seeded(t, initial, WithCommitConcurrency(4))

	var (
		mu       sync.Mutex
		inFlight = make(map[string]int)
		overlap  atomic.Bool
		maxTotal atomic.Int32
		total    atomic.Int32
	)
	r.RegisterCommitAdapter(func(ctx context.Context, recordID string, patch Fields) error {
		mu.Lock()
		inFlight[recordID]++
		if inFlight[recordID] > 1 {
			overlap.Store(true)
		}
		mu.Unlock()

		n := total.Add(1)
		for {
			cur := maxTotal.Load()
			if n <= cur || maxTotal.CompareAndSwap(cur, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		total.Add(-1)

		mu.Lock()
		inFlight[recordID]--
		mu.Unlock()
		return nil
	})

	for id := range initial {
		require.NoError(t, r.ApplyLocalPatch(id, Fields{"status": "Done"}))
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 5; i++ {
			_ = r.CommitFieldPatch(ctx, "item00", Fields{"note": fmt.Sprintf("n%d", i)})
		}
	}()

	result, err := r.CommitAllChanges(ctx)
	wg.Wait()
	require.NoError(t, err)
	require.Len(t, result.Committed, len(initial))
	require.False(t, overlap.Load(), "two writes for one record overlapped")
	require.LessOrEqual(t, maxTotal.Load(), int32(5))
}

func TestReconciler_ParallelCommitReportsFailure(t *testing.T) {
	ctx := context.Background()
	r := seeded(t, Collection{"a": {"s": 1}, "b": {"s": 1}, "c": {"s": 1}}, WithCommitConcurrency(3))
	boom := errors.New("rejected")
	adapter := newRecordingAdapter()
	adapter.failOn["b"] = boom
	r.RegisterCommitAdapter(adapter.commit)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, r.ApplyLocalPatch(id, Fields{"s": 2}))
	}

	result, err := r.CommitAllChanges(ctx)
	require.ErrorIs(t, err, boom)
	require.Equal(t, "b", result.FailedRecordID)
	require.NotContains(t, result.Committed, "b")
	require.True(t, r.IsRecordDirty("b"))
	for _, id := range result.Committed {
		require.False(t, r.IsRecordDirty(id))
	}
}

func TestReconciler_ClearResetsState(t *testing.T) {
	r := seeded(t, Collection{"a": {"s": 1}})
	r.RegisterCommitAdapter(newRecordingAdapter().commit)
	require.NoError(t, r.ApplyLocalPatch("a", Fields{"s": 2}))

	r.Clear()
	require.Empty(t, r.Persisted())
	require.Empty(t, r.Draft())
	require.False(t, r.HasCommitAdapter())
	require.False(t, r.IsDirty())
}

func TestReconciler_InstancesAreIndependent(t *testing.T) {
	a := NewReconciler()
	b := NewReconciler()
	require.NoError(t, a.ApplyLocalPatch("item1", Fields{"status": "Done"}))
	require.True(t, a.IsDirty())
	require.False(t, b.IsDirty())
}

func TestReconciler_FieldCommitDuringCommitAllIsKept(t *testing.T) {
	ctx := context.Background()
	r := seeded(t, Collection{"a": {"v": 1}, "b": {"v": 1}})

	var mu sync.Mutex
	backend := Collection{"a": {"v": 1}, "b": {"v": 1}}
	release := make(chan struct{})
	started := make(chan struct{})
	r.RegisterCommitAdapter(func(ctx context.Context, recordID string, patch Fields) error {
		if recordID == "a" {
			close(started)
			<-release
		}
		mu.Lock()
		ApplyPatch(backend, recordID, patch)
		mu.Unlock()
		return nil
	})
	require.NoError(t, r.ApplyLocalPatch("a", Fields{"v": 2}))

	done := make(chan error, 1)
	go func() {
		_, err := r.CommitAllChanges(ctx)
		done <- err
	}()

	<-started
	require.NoError(t, r.CommitFieldPatch(ctx, "b", Fields{"v": 9}))
	close(release)
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	require.True(t, r.Persisted().Equal(backend))
	require.Equal(t, 9, r.Persisted()["b"]["v"])
	require.False(t, r.IsDirty())

	r.ResetDraftToPersisted()
	require.Equal(t, 9, r.Draft()["b"]["v"])
}

func TestReconciler_RecordLocksAreReleased(t *testing.T) {
	ctx := context.Background()
	r := seeded(t, Collection{"a": {"v": 1}, "b": {"v": 1}, "c": {"v": 1}}, WithCommitConcurrency(2))

	release := make(chan struct{})
	started := make(chan struct{})
	r.RegisterCommitAdapter(func(ctx context.Context, recordID string, patch Fields) error {
		if recordID == "x" {
			close(started)
			<-release
		}
		return nil
	})

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, r.ApplyLocalPatch(id, Fields{"v": 2}))
	}
	_, err := r.CommitAllChanges(ctx)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- r.CommitFieldPatch(ctx, "x", Fields{"v": 1}) }()
	<-started

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	err = r.CommitFieldPatch(waitCtx, "x", Fields{"v": 2})
	var commitErr *CommitError
	require.ErrorAs(t, err, &commitErr)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	r.Clear()
	close(release)
	require.NoError(t, <-done)

	r.mu.Lock()
	defer r.mu.Unlock()
	require.Empty(t, r.locks)
}
