package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"cadence/src-server/model"
	"cadence/src-server/service"

	"github.com/robfig/cron/v3"
)

const (
	WORKER_COUNT = 4
	// per owner
	DETECTION_TIMEOUT = 2 * time.Minute
)

// Detector is the part of the recurring service a sweep needs.
type Detector interface {
	Owners(ctx context.Context) ([]string, error)
	DetectAndSaveCandidates(ctx context.Context, ownerID string) ([]model.RecurringCandidate, error)
}

// SweepResult summarises one pass over every owner.
type SweepResult struct {
	Owners     int
	Failed     int
	Candidates int
}

// Sweep runs detection for every owner with standalone events, WORKER_COUNT
// owners at a time. A failing owner is logged and does not stop the others.
func Sweep(ctx context.Context, detector Detector) SweepResult {
	ctx = service.WithTrigger(ctx, "cron")
	owners, err := detector.Owners(ctx)
	if err != nil {
		slog.Error("detection sweep: can't list owners", "error", err)
		return SweepResult{Failed: 1}
	}

	jobs := make(chan string, len(owners))
	for _, owner := range owners {
		jobs <- owner
	}
	close(jobs)

	var failed, candidates atomic.Int64
	var wg sync.WaitGroup
	for range WORKER_COUNT {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for owner := range jobs {
				if ctx.Err() != nil {
					failed.Add(1)
					continue
				}
				ownerCtx, cancel := context.WithTimeout(ctx, DETECTION_TIMEOUT)
				saved, err := detector.DetectAndSaveCandidates(ownerCtx, owner)
				cancel()
				if err != nil {
					slog.Warn("detection sweep: owner failed", "owner", owner, "error", err)
					failed.Add(1)
					continue
				}
				candidates.Add(int64(len(saved)))
			}
		}()
	}
	wg.Wait()

	result := SweepResult{Owners: len(owners), Failed: int(failed.Load()), Candidates: int(candidates.Load())}
	slog.Info("detection sweep finished", "owners", result.Owners, "failed", result.Failed, "candidates", result.Candidates)
	return result
}

// DetectionSweep schedules Sweep with a cron spec until shutdownCh closes.
// Overlapping runs are skipped.
func DetectionSweep(spec string, loc *time.Location, detector Detector, shutdownCh *chan struct{}) error {
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	ctx, cancel := context.WithCancel(context.Background())
	if _, err := c.AddFunc(spec, func() { Sweep(ctx, detector) }); err != nil {
		cancel()
		return err
	}
	c.Start()
	slog.Info("detection sweep scheduled", "cron", spec)

	go func() {
		<-*shutdownCh
		cancel()
		<-c.Stop().Done()
		slog.Debug("detection sweep stopped")
	}()
	return nil
}
