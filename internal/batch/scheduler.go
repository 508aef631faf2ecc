package batch

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/coral-atlas/poi-cli/internal/model"
)

// ResolveFunc runs the resolution chain for one record.
type ResolveFunc func(ctx context.Context, rec model.PlaceRecord) (*model.GeocodeResult, error)

// Scheduler drains a FIFO queue of records through a fixed worker pool.
// Workers share a token-bucket limiter and sleep a fixed delay between
// records; all checkpoint writes happen on the coordinating goroutine, so
// workers never touch shared state beyond the queue index and the results
// channel.
type Scheduler struct {
	Workers         int
	CheckpointEvery int
	Delay           time.Duration
	Limiter         *rate.Limiter
	ShowProgress    bool
}

// NewScheduler applies the defaults used by the resolve command.
func NewScheduler(workers, checkpointEvery int, delay time.Duration, ratePerSec float64) *Scheduler {
	if workers <= 0 {
		workers = 8
	}
	if checkpointEvery <= 0 {
		checkpointEvery = 20
	}
	var limiter *rate.Limiter
	if ratePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(ratePerSec), workers)
	}
	return &Scheduler{
		Workers:         workers,
		CheckpointEvery: checkpointEvery,
		Delay:           delay,
		Limiter:         limiter,
	}
}

type workerResult struct {
	id  string
	res model.GeocodeResult
}

// Run processes every record not already in the checkpoint, flushing the
// checkpoint every CheckpointEvery results. It returns the merged result
// map (checkpointed plus fresh). On context cancellation the last flushed
// checkpoint stays consistent and the error is ctx.Err().
func (s *Scheduler) Run(ctx context.Context, records []model.PlaceRecord, cp *Checkpoint, cpPath string, fn ResolveFunc) (map[string]model.GeocodeResult, error) {
	pending := make([]model.PlaceRecord, 0, len(records))
	for _, rec := range records {
		if !cp.Has(rec.ID) {
			pending = append(pending, rec)
		}
	}

	zap.L().Info("batch run starting",
		zap.Int("total", len(records)),
		zap.Int("pending", len(pending)),
		zap.Int("skipped", len(records)-len(pending)),
		zap.Int("workers", s.Workers),
	)

	out := make(map[string]model.GeocodeResult, len(records))
	for id, res := range cp.Results {
		out[id] = res
	}

	if len(pending) == 0 {
		return out, nil
	}

	var bar *progressbar.ProgressBar
	if s.ShowProgress {
		bar = progressbar.Default(int64(len(pending)), "resolving")
	}

	results := make(chan workerResult, s.Workers)
	var next atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < s.Workers; w++ {
		g.Go(func() error {
			for {
				i := next.Add(1) - 1
				if int(i) >= len(pending) {
					return nil
				}
				rec := pending[i]

				if s.Limiter != nil {
					if err := s.Limiter.Wait(gctx); err != nil {
						return err
					}
				}

				res, err := fn(gctx, rec)
				if err != nil {
					return err
				}

				select {
				case results <- workerResult{id: rec.ID, res: *res}:
				case <-gctx.Done():
					return gctx.Err()
				}

				if s.Delay > 0 {
					timer := time.NewTimer(s.Delay)
					select {
					case <-gctx.Done():
						timer.Stop()
						return gctx.Err()
					case <-timer.C:
					}
				}
			}
		})
	}

	// Close the results channel once all workers have drained the queue.
	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
		close(results)
	}()

	// Coordinator: the only writer of the checkpoint.
	sinceFlush := 0
	for wr := range results {
		cp.Add(wr.id, wr.res)
		out[wr.id] = wr.res
		sinceFlush++
		if bar != nil {
			_ = bar.Add(1)
		}

		if sinceFlush >= s.CheckpointEvery {
			if err := cp.Save(cpPath); err != nil {
				zap.L().Warn("checkpoint flush failed", zap.Error(err))
			}
			sinceFlush = 0
		}
	}

	runErr := <-done

	// Final flush covers the tail shorter than CheckpointEvery.
	if sinceFlush > 0 || runErr != nil {
		if err := cp.Save(cpPath); err != nil {
			zap.L().Warn("final checkpoint flush failed", zap.Error(err))
		}
	}

	if runErr != nil {
		return out, runErr
	}

	if err := Archive(cpPath); err != nil {
		zap.L().Warn("checkpoint archive failed", zap.Error(err))
	}
	return out, nil
}
