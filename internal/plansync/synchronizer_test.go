package plansync

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ecoeats/mealplanner/pkg/metrics"
	"github.com/ecoeats/mealplanner/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	mu      sync.Mutex
	written []string
	fail    map[string]error
	gate    chan struct{}
}

func (w *recordingWriter) SavePlan(_ context.Context, plan *types.WeekPlan) error {
	if w.gate != nil {
		<-w.gate
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.written = append(w.written, plan.ID)
	if err, ok := w.fail[plan.ID]; ok {
		return err
	}
	return nil
}

func (w *recordingWriter) order() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.written...)
}

type fakeJournal struct {
	mu       sync.Mutex
	recorded []string
	cleared  []string
}

func (j *fakeJournal) Record(_ context.Context, plan *types.WeekPlan, _ error) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.recorded = append(j.recorded, plan.ID)
	return nil
}

func (j *fakeJournal) Clear(_ context.Context, _, weekStart string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cleared = append(j.cleared, weekStart)
	return nil
}

func doc(id string) *types.WeekPlan {
	plan := types.NewWeekPlan("me", "2025-01-06T00:00:00.000Z")
	plan.ID = id
	return plan
}

func flush(t *testing.T, s *Synchronizer) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Flush(ctx))
}

func TestWritesApplyInEnqueueOrder(t *testing.T) {
	writer := &recordingWriter{}
	s, err := New(Params{Writer: writer})
	require.NoError(t, err)
	defer s.Close()

	for _, id := range []string{"r1", "r2", "r3", "r4"} {
		_, err := s.Enqueue(context.Background(), Command{Document: doc(id)})
		require.NoError(t, err)
	}
	flush(t, s)
	assert.Equal(t, []string{"r1", "r2", "r3", "r4"}, writer.order())
	assert.Equal(t, 0, s.Pending())
}

func TestEnqueueDoesNotBlockOnSlowWrites(t *testing.T) {
	writer := &recordingWriter{gate: make(chan struct{})}
	s, err := New(Params{Writer: writer})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			_, _ = s.Enqueue(context.Background(), Command{Document: doc("x")})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("enqueue blocked on the network")
	}
	assert.Equal(t, 10, s.Pending())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Flush(ctx), context.DeadlineExceeded)

	close(writer.gate)
	flush(t, s)
	require.NoError(t, s.Close())
	assert.Len(t, writer.order(), 10)
}

func TestFailureIsJournaledCountedAndReported(t *testing.T) {
	boom := errors.New("network down")
	writer := &recordingWriter{fail: map[string]error{"bad": boom}}
	journal := &fakeJournal{}
	reg := prometheus.NewRegistry()
	s, err := New(Params{Writer: writer, Journal: journal, Metrics: metrics.NewPlanSyncMetrics(reg)})
	require.NoError(t, err)
	defer s.Close()

	var mu sync.Mutex
	var results []Result
	onDone := func(_ context.Context, res Result) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, res)
	}

	badID, err := s.Enqueue(context.Background(), Command{WeekKey: "w", Revision: 1, Document: doc("bad"), OnDone: onDone})
	require.NoError(t, err)
	_, err = s.Enqueue(context.Background(), Command{WeekKey: "w", Revision: 2, Document: doc("good"), OnDone: onDone})
	require.NoError(t, err)
	flush(t, s)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, results, 2)
	assert.Equal(t, badID, results[0].CommandID)
	assert.ErrorIs(t, results[0].Err, boom)
	assert.Equal(t, int64(1), results[0].Revision)
	assert.NoError(t, results[1].Err)

	assert.Equal(t, []string{"bad"}, journal.recorded)
	assert.Equal(t, []string{"2025-01-06T00:00:00.000Z"}, journal.cleared)
	assert.Equal(t, []string{"bad", "good"}, writer.order(), "no automatic retry")

	expected := `
# HELP plan_sync_failure Meal plan writes that failed.
# TYPE plan_sync_failure counter
plan_sync_failure{op="save_plan"} 1
# HELP plan_sync_success Meal plan writes accepted by the backend.
# TYPE plan_sync_success counter
plan_sync_success{op="save_plan"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "plan_sync_failure", "plan_sync_success"))
}

func TestCloseRejectsNewWrites(t *testing.T) {
	s, err := New(Params{Writer: &recordingWriter{}})
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.Enqueue(context.Background(), Command{Document: doc("late")})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestEnqueueRequiresDocument(t *testing.T) {
	s, err := New(Params{Writer: &recordingWriter{}})
	require.NoError(t, err)
	defer s.Close()
	_, err = s.Enqueue(context.Background(), Command{})
	assert.Error(t, err)

	_, err = New(Params{})
	assert.Error(t, err)
}
