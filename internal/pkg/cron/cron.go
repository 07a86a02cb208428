package cron

import (
	"sync"
	"time"

	"github.com/zahlentech/str8up_server/internal/pkg/logger"
)

const TimeoutMessage = "analysis timed out"

// StaleFailer is the part of the assessment repository the sweep needs.
type StaleFailer interface {
	FailStale(before time.Time, message string) (int64, error)
}

// Service periodically fails sessions whose analysis stopped moving.
type Service struct {
	assessments StaleFailer
	staleAfter  time.Duration
	interval    time.Duration
	log         logger.Logger
	now         func() time.Time
	stopChan    chan struct{}
	stopOnce    sync.Once
}

func NewService(assessments StaleFailer, expireHours int, log logger.Logger) *Service {
	if expireHours <= 0 {
		expireHours = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		assessments: assessments,
		staleAfter:  time.Duration(expireHours) * time.Hour,
		interval:    time.Hour,
		log:         log,
		now:         time.Now,
		stopChan:    make(chan struct{}),
	}
}

// Start runs the hourly sweep in the background.
func (s *Service) Start() {
	go s.runSweep()
	s.log.Info("cron service started", "interval", s.interval, "stale_after", s.staleAfter)
}

// Stop ends the sweep. Safe to call more than once.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.log.Info("cron service stopped")
	})
}

func (s *Service) runSweep() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			if _, err := s.RunNow(); err != nil {
				s.log.Error("stale session sweep failed", "error", err)
			}
		}
	}
}

// RunNow fails every pending or processing session idle longer than the
// session expiry and returns how many were failed.
func (s *Service) RunNow() (int64, error) {
	if s.assessments == nil {
		return 0, nil
	}
	n, err := s.assessments.FailStale(s.now().Add(-s.staleAfter), TimeoutMessage)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Warn("stale sessions failed", "count", n)
	}
	return n, nil
}
