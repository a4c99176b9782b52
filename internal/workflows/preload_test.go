package workflows

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.temporal.io/sdk/testsuite"

	"github.com/samirrijal/tactilemap/internal/core/domain"
	"github.com/samirrijal/tactilemap/internal/core/usecases"
)

type fakePrefetcher struct {
	results []usecases.PrefetchResult
	errs    []error
	calls   int
}

func (f *fakePrefetcher) Prefetch(ctx context.Context) (usecases.PrefetchResult, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return usecases.PrefetchResult{}, f.errs[i]
	}
	return f.results[i], nil
}

type fakePublisher struct {
	changed []string
}

func (f *fakePublisher) PublishGesture(ctx context.Context, sessionID string, kind domain.GestureKind) error {
	return nil
}
func (f *fakePublisher) PublishAnnouncement(ctx context.Context, sessionID, text string) error {
	return nil
}
func (f *fakePublisher) PublishDatasetChanged(ctx context.Context, source string) error {
	f.changed = append(f.changed, source)
	return nil
}

func runPreload(t *testing.T, acts *PreloadActivities, input PreloadInput) {
	t.Helper()
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(DatasetPreloadWorkflow)
	env.RegisterActivity(acts)

	env.ExecuteWorkflow(DatasetPreloadWorkflow, input)
	if !env.IsWorkflowCompleted() {
		t.Fatal("workflow did not complete")
	}
	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("workflow error: %v", err)
	}
}

func TestPreload_NotifiesOnlyOnChange(t *testing.T) {
	pf := &fakePrefetcher{results: []usecases.PrefetchResult{
		{Bytes: 10, Digest: "a"},
		{Bytes: 10, Digest: "a"},
		{Bytes: 12, Digest: "b"},
	}}
	pub := &fakePublisher{}

	runPreload(t, &PreloadActivities{Datasets: pf, Events: pub}, PreloadInput{Interval: time.Minute, Rounds: 3})

	if pf.calls != 3 {
		t.Errorf("expected 3 prefetches, got %d", pf.calls)
	}
	if len(pub.changed) != 1 || pub.changed[0] != "preloader" {
		t.Errorf("expected one change notice, got %v", pub.changed)
	}
}

func TestPreload_KnownDigestIsNotAChange(t *testing.T) {
	pf := &fakePrefetcher{results: []usecases.PrefetchResult{{Digest: "a"}}}
	pub := &fakePublisher{}

	runPreload(t, &PreloadActivities{Datasets: pf, Events: pub}, PreloadInput{Interval: time.Minute, Rounds: 1, LastDigest: "a"})

	if len(pub.changed) != 0 {
		t.Errorf("expected no change notice, got %v", pub.changed)
	}
}

func TestPreload_FailedRoundContinues(t *testing.T) {
	boom := errors.New("desktop unreachable")
	pf := &fakePrefetcher{
		// Three failed attempts exhaust the retry policy for round one.
		errs:    []error{boom, boom, boom},
		results: []usecases.PrefetchResult{{}, {}, {}, {Digest: "b"}},
	}
	pub := &fakePublisher{}

	runPreload(t, &PreloadActivities{Datasets: pf, Events: pub}, PreloadInput{Interval: time.Minute, Rounds: 2, LastDigest: "a"})

	if pf.calls != 4 {
		t.Errorf("expected 3 failed attempts and one success, got %d calls", pf.calls)
	}
	if len(pub.changed) != 1 {
		t.Errorf("expected one change notice, got %v", pub.changed)
	}
}
