package worker

import (
	"context"
	"time"

	"github.com/zahlentech/str8up_server/internal/pkg/logger"
	"github.com/zahlentech/str8up_server/internal/pkg/storage"
	"github.com/zahlentech/str8up_server/internal/repository"
)

const (
	rearchiveInterval = 5 * time.Minute
	rearchiveBatch    = 50
)

// Rearchiver retries object storage uploads that failed during processing.
type Rearchiver struct {
	assessmentRepo *repository.AssessmentRepository
	store          storage.ObjectStore
	log            logger.Logger
	interval       time.Duration
}

func NewRearchiver(assessmentRepo *repository.AssessmentRepository, store storage.ObjectStore, log logger.Logger) *Rearchiver {
	if log == nil {
		log = logger.Nop()
	}
	return &Rearchiver{
		assessmentRepo: assessmentRepo,
		store:          store,
		log:            log,
		interval:       rearchiveInterval,
	}
}

// Start runs once immediately and then on every tick until ctx ends.
func (r *Rearchiver) Start(ctx context.Context) error {
	r.RunOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("rearchiver stopped")
			return nil
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce uploads one batch and returns how many sessions were archived.
func (r *Rearchiver) RunOnce(ctx context.Context) int {
	list, err := r.assessmentRepo.ListUnarchived(rearchiveBatch)
	if err != nil {
		r.log.Error("query unarchived sessions failed", "error", err)
		return 0
	}
	if len(list) == 0 {
		return 0
	}
	r.log.Info("rearchiving sessions", "count", len(list))

	archived := 0
	for _, a := range list {
		if ctx.Err() != nil {
			break
		}
		if len(a.Result) == 0 {
			continue
		}
		url, err := r.store.Put(ctx, storage.ReportKey(a.SessionID), []byte(a.Result), "application/json")
		if err != nil {
			r.log.Warn("rearchive failed", "session_id", a.SessionID, "error", err)
			continue
		}
		if err := r.assessmentRepo.SetArchiveURL(a.SessionID, url); err != nil {
			r.log.Warn("store archive url failed", "session_id", a.SessionID, "error", err)
			continue
		}
		archived++
	}
	return archived
}
