package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Reindexer rebuilds a search index from the primary store.
type Reindexer interface {
	Reindex(ctx context.Context) (int, error)
}

// Scheduler runs the periodic background jobs.
type Scheduler struct {
	sched gocron.Scheduler
}

// StartCatalogReindex pushes the catalog to the search index now and then
// every interval. Overlapping runs are skipped.
func StartCatalogReindex(r Reindexer, interval time.Duration) (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()

			n, err := r.Reindex(ctx)
			if err != nil {
				slog.Error("catalog reindex failed", "error", err)
				return
			}
			slog.Debug("catalog reindex finished", "documents", n)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	return &Scheduler{sched: sched}, nil
}

func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}
