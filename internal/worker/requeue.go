package worker

import (
	"context"
	"fmt"

	"github.com/zahlentech/str8up_server/internal/pkg/logger"
	"github.com/zahlentech/str8up_server/internal/pkg/queue"
	"github.com/zahlentech/str8up_server/internal/repository"
)

// JobQueue is the producing end of the analysis queue.
type JobQueue interface {
	Push(ctx context.Context, msg *queue.JobMessage) error
	Length(ctx context.Context) (int64, error)
}

// RequeueOrphans pushes jobs still marked queued in the database back onto
// the analysis queue when the queue is empty, as happens after redis loses
// its data. A non-empty queue is left alone. Returns the number pushed.
func RequeueOrphans(ctx context.Context, jobs *repository.JobRepository, q JobQueue, limit int, log logger.Logger) (int, error) {
	if log == nil {
		log = logger.Nop()
	}

	depth, err := q.Length(ctx)
	if err != nil {
		return 0, fmt.Errorf("queue length: %w", err)
	}
	log.Info("analysis queue depth", "length", depth)
	if depth > 0 {
		return 0, nil
	}

	pending, err := jobs.GetPendingJobs(limit)
	if err != nil {
		return 0, fmt.Errorf("load queued jobs: %w", err)
	}

	pushed := 0
	for _, job := range pending {
		msg := &queue.JobMessage{
			JobID:        job.ID,
			AssessmentID: job.AssessmentID,
			SessionID:    job.SessionID,
		}
		if err := q.Push(ctx, msg); err != nil {
			return pushed, fmt.Errorf("requeue job %d: %w", job.ID, err)
		}
		pushed++
	}
	if pushed > 0 {
		log.Warn("requeued orphaned jobs", "count", pushed)
	}
	return pushed, nil
}
