// Package sweeper schedules periodic maintenance tasks such as expiring
// rate-limit windows and evicting dead cache entries.
package sweeper

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/youming-ai/snatch-sub000/internal/observability"
)

// Task is a named maintenance job. It reports how many entries it removed.
type Task struct {
	Name string
	Run  func(ctx context.Context) (int, error)
}

// Sweeper runs registered tasks on a fixed interval using a cron scheduler.
type Sweeper struct {
	cron    *cron.Cron
	logger  observability.Logger
	metrics observability.Metrics
	timeout time.Duration
}

// New creates a sweeper. Each task run is bounded by the given timeout.
func New(logger observability.Logger, metrics observability.Metrics, timeout time.Duration) *Sweeper {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Sweeper{
		cron:    cron.New(),
		logger:  logger,
		metrics: metrics,
		timeout: timeout,
	}
}

// Add registers a task to run every interval. Failures are logged and
// counted but never stop the schedule.
func (s *Sweeper) Add(interval time.Duration, task Task) error {
	spec := "@every " + interval.String()
	_, err := s.cron.AddFunc(spec, func() {
		s.runTask(task)
	})
	return err
}

func (s *Sweeper) runTask(task Task) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	removed, err := task.Run(ctx)
	elapsed := time.Since(start)

	if err != nil {
		s.logger.Error(ctx, "sweep task failed", err, observability.Fields{
			"task": task.Name,
		})
		s.metrics.RecordError("sweep", task.Name)
		return
	}

	s.metrics.RecordSuccess("sweep")
	s.metrics.RecordDuration("sweep", elapsed.Seconds())

	if removed > 0 {
		s.logger.Info(ctx, "sweep task completed", observability.Fields{
			"task":    task.Name,
			"removed": removed,
			"elapsed": elapsed.String(),
		})
	}
}

// Start begins the schedule in its own goroutine.
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for any running task to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
