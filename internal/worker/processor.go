package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zahlentech/str8up_server/config"
	"github.com/zahlentech/str8up_server/internal/engine"
	"github.com/zahlentech/str8up_server/internal/pkg/logger"
	"github.com/zahlentech/str8up_server/internal/pkg/pubsub"
	"github.com/zahlentech/str8up_server/internal/pkg/queue"
	"github.com/zahlentech/str8up_server/internal/pkg/storage"
	"github.com/zahlentech/str8up_server/internal/repository"
)

// ProgressPublisher fans progress out to the API servers.
type ProgressPublisher interface {
	PublishProgress(ctx context.Context, msg *pubsub.ProgressMessage) error
}

// JobSource is the blocking end of the analysis queue.
type JobSource interface {
	Pop(ctx context.Context, timeout time.Duration) (*queue.JobMessage, error)
}

const (
	popTimeout    = 5 * time.Second
	popRetryDelay = time.Second
)

// Processor runs queued analyses.
type Processor struct {
	jobRepo        *repository.JobRepository
	assessmentRepo *repository.AssessmentRepository
	store          storage.ObjectStore
	publisher      ProgressPublisher
	cfg            *config.Config
	log            logger.Logger
	now            func() time.Time
}

// NewProcessor builds a processor. store may be nil, in which case
// documents are only kept in the database.
func NewProcessor(
	jobRepo *repository.JobRepository,
	assessmentRepo *repository.AssessmentRepository,
	store storage.ObjectStore,
	publisher ProgressPublisher,
	cfg *config.Config,
	log logger.Logger,
) *Processor {
	if log == nil {
		log = logger.Nop()
	}
	return &Processor{
		jobRepo:        jobRepo,
		assessmentRepo: assessmentRepo,
		store:          store,
		publisher:      publisher,
		cfg:            cfg,
		log:            log,
		now:            time.Now,
	}
}

// Process runs one analysis job to completion or failure.
func (p *Processor) Process(ctx context.Context, msg *queue.JobMessage) error {
	job, err := p.jobRepo.GetByID(msg.JobID)
	if err != nil {
		return fmt.Errorf("failed to get job: %w", err)
	}
	// requeued duplicates
	if job.Status != "queued" {
		p.log.Info("job already handled", "job_id", job.ID, "status", job.Status)
		return nil
	}
	a, err := p.assessmentRepo.GetBySessionID(msg.SessionID)
	if err != nil {
		return fmt.Errorf("failed to get assessment: %w", err)
	}
	log := p.log.With("job_id", job.ID, "session_id", a.SessionID)

	startedAt := p.now()
	job.Status = "processing"
	job.StartedAt = &startedAt
	if err := p.jobRepo.Update(job); err != nil {
		log.Warn("update job failed", "error", err)
	}
	if err := p.assessmentRepo.MarkStarted(a.SessionID, startedAt); err != nil {
		log.Warn("mark started failed", "error", err)
	}

	publishProgress := func(step, status, errMsg string) {
		if p.publisher == nil {
			return
		}
		err := p.publisher.PublishProgress(ctx, &pubsub.ProgressMessage{
			SessionID: a.SessionID,
			JobID:     job.ID,
			Status:    status,
			Step:      step,
			Error:     errMsg,
		})
		if err != nil {
			log.Warn("publish progress failed", "step", step, "error", err)
		}
	}

	handleError := func(step string, err error) error {
		errMsg := err.Error()
		completedAt := p.now()
		job.Status = "failed"
		job.ErrorMessage = errMsg
		job.CurrentStep = step
		job.CompletedAt = &completedAt
		job.ElapsedSeconds = int(completedAt.Sub(startedAt).Seconds())
		if uerr := p.jobRepo.Update(job); uerr != nil {
			log.Warn("update job failed", "error", uerr)
		}
		if ferr := p.assessmentRepo.Fail(a.SessionID, errMsg, completedAt); ferr != nil {
			log.Error("mark assessment failed", "error", ferr)
		}
		publishProgress(step, "failed", errMsg)
		log.Error("analysis failed", "step", step, "error", err)
		return err
	}

	current := ""
	onStep := func(ctx context.Context, step string) error {
		current = step
		job.CurrentStep = step
		if err := p.jobRepo.UpdateStep(job.ID, step); err != nil {
			log.Warn("update job step failed", "error", err)
		}
		if err := p.assessmentRepo.UpdateProgress(a.SessionID, "processing", pubsub.StepProgress[step], pubsub.StepMessages[step]); err != nil {
			return err
		}
		publishProgress(step, "processing", "")
		log.Debug("analysis step", "step", step)
		return p.pause(ctx)
	}

	result, err := engine.Run(ctx, a.Input(), onStep)
	if err != nil {
		return handleError(current, err)
	}

	doc, err := json.Marshal(result)
	if err != nil {
		return handleError(pubsub.StepDone, fmt.Errorf("encode result: %w", err))
	}

	archiveURL := p.archive(ctx, a.SessionID, doc)

	completedAt := p.now()
	if err := p.assessmentRepo.Complete(a.SessionID, doc, result.OverallScore, archiveURL, completedAt); err != nil {
		return handleError(pubsub.StepDone, fmt.Errorf("store result: %w", err))
	}

	job.Status = "completed"
	job.CurrentStep = pubsub.StepDone
	job.CompletedAt = &completedAt
	job.ElapsedSeconds = int(completedAt.Sub(startedAt).Seconds())
	if err := p.jobRepo.Update(job); err != nil {
		log.Warn("update job failed", "error", err)
	}

	publishProgress(pubsub.StepDone, "completed", "")
	log.Info("analysis completed", "overall_score", result.OverallScore, "elapsed_seconds", job.ElapsedSeconds)
	return nil
}

// archive copies the document to object storage. A failed upload leaves the
// URL empty and the rearchiver picks the session up later.
func (p *Processor) archive(ctx context.Context, sessionID string, doc []byte) string {
	if p.store == nil {
		return ""
	}
	url, err := p.store.Put(ctx, storage.ReportKey(sessionID), doc, "application/json")
	if err != nil {
		p.log.Warn("archive analysis failed", "session_id", sessionID, "error", err)
		return ""
	}
	return url
}

func (p *Processor) pause(ctx context.Context) error {
	return sleep(ctx, p.cfg.Queue.StepDelay)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Consume pops and processes jobs until ctx ends.
func (p *Processor) Consume(ctx context.Context, jobs JobSource, workerID int) error {
	log := p.log.With("worker", workerID)
	for {
		select {
		case <-ctx.Done():
			log.Info("worker shutting down")
			return nil
		default:
		}

		msg, err := jobs.Pop(ctx, popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Error("pop job failed", "error", err)
			if sleep(ctx, popRetryDelay) != nil {
				return nil
			}
			continue
		}
		if msg == nil {
			continue
		}

		log.Info("processing job", "job_id", msg.JobID, "session_id", msg.SessionID)
		if err := p.Process(ctx, msg); err != nil {
			log.Error("job failed", "job_id", msg.JobID, "error", err)
		}
	}
}
