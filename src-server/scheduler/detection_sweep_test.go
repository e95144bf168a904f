package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cadence/src-server/model"
	"cadence/src-server/scheduler"
	"cadence/src-server/service"
)

type fakeDetector struct {
	owners   []string
	ownerErr error
	failFor  map[string]bool

	mu       sync.Mutex
	seen     []string
	triggers []string
}

func (f *fakeDetector) Owners(context.Context) ([]string, error) {
	return f.owners, f.ownerErr
}

func (f *fakeDetector) DetectAndSaveCandidates(ctx context.Context, owner string) ([]model.RecurringCandidate, error) {
	f.mu.Lock()
	f.seen = append(f.seen, owner)
	f.triggers = append(f.triggers, service.TriggerFromContext(ctx))
	f.mu.Unlock()
	if f.failFor[owner] {
		return nil, errors.New("boom")
	}
	return []model.RecurringCandidate{{ID: owner + "-1"}, {ID: owner + "-2"}}, nil
}

func TestSweepVisitsEveryOwner(t *testing.T) {
	detector := &fakeDetector{
		owners:  []string{"a", "b", "c", "d", "e", "f"},
		failFor: map[string]bool{"c": true},
	}

	result := scheduler.Sweep(context.Background(), detector)
	if result.Owners != 6 || result.Failed != 1 || result.Candidates != 10 {
		t.Errorf("result = %+v", result)
	}
	if len(detector.seen) != 6 {
		t.Errorf("visited %v", detector.seen)
	}
	for _, trigger := range detector.triggers {
		if trigger != "cron" {
			t.Errorf("trigger = %q, want cron", trigger)
		}
	}
}

func TestSweepOwnerListFailure(t *testing.T) {
	detector := &fakeDetector{ownerErr: errors.New("db down")}
	if result := scheduler.Sweep(context.Background(), detector); result.Failed != 1 || result.Owners != 0 {
		t.Errorf("result = %+v", result)
	}
}

func TestSweepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	detector := &fakeDetector{owners: []string{"a", "b"}}
	result := scheduler.Sweep(ctx, detector)
	if result.Failed != 2 || len(detector.seen) != 0 {
		t.Errorf("result = %+v, seen = %v", result, detector.seen)
	}
}

func TestDetectionSweepRejectsBadSpec(t *testing.T) {
	ch := make(chan struct{})
	defer close(ch)
	if err := scheduler.DetectionSweep("every now and then", time.UTC, &fakeDetector{}, &ch); err == nil {
		t.Error("expected a parse error")
	}
}

func TestDetectionSweepStops(t *testing.T) {
	ch := make(chan struct{})
	if err := scheduler.DetectionSweep("@every 1h", time.UTC, &fakeDetector{}, &ch); err != nil {
		t.Fatal(err)
	}
	close(ch)
}
