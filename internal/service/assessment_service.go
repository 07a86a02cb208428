package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zahlentech/str8up_server/config"
	"github.com/zahlentech/str8up_server/internal/model"
	"github.com/zahlentech/str8up_server/internal/model/dto"
	"github.com/zahlentech/str8up_server/internal/pkg/logger"
	"github.com/zahlentech/str8up_server/internal/pkg/pubsub"
	"github.com/zahlentech/str8up_server/internal/pkg/queue"
	"github.com/zahlentech/str8up_server/internal/repository"
	"github.com/zahlentech/str8up_server/internal/str8up"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrAnalysisNotReady = errors.New("analysis is not complete yet")
	ErrAnalysisFailed   = errors.New("analysis failed")
	ErrEnqueueFailed    = errors.New("failed to queue analysis")
)

const enqueueFailedMessage = "failed to queue analysis"

// JobQueue is the part of the redis queue the service needs.
type JobQueue interface {
	Push(ctx context.Context, msg *queue.JobMessage) error
}

type AssessmentService struct {
	assessmentRepo *repository.AssessmentRepository
	jobRepo        *repository.JobRepository
	queue          JobQueue
	cfg            *config.Config
	log            logger.Logger
	now            func() time.Time
}

func NewAssessmentService(
	assessmentRepo *repository.AssessmentRepository,
	jobRepo *repository.JobRepository,
	q JobQueue,
	cfg *config.Config,
	log logger.Logger,
) *AssessmentService {
	if log == nil {
		log = logger.Nop()
	}
	return &AssessmentService{
		assessmentRepo: assessmentRepo,
		jobRepo:        jobRepo,
		queue:          q,
		cfg:            cfg,
		log:            log,
		now:            time.Now,
	}
}

// Start creates a session for the onboarding input and queues its analysis.
func (s *AssessmentService) Start(ctx context.Context, req *dto.StartAnalysisRequest) (*dto.StartAnalysisResponse, error) {
	in := inputFromRequest(req)
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	a := &model.Assessment{
		SessionID:     uuid.NewString(),
		BusinessSize:  string(in.BusinessSize),
		CloudProvider: string(in.CloudProvider),
		Complexity:    in.Complexity,
		Budget:        string(in.BudgetBracket),
		RiskTolerance: string(in.RiskTolerance),
		Compliance:    string(in.Compliance),
		Status:        string(str8up.StatusPending),
		ExpiresAt:     now.Add(time.Duration(s.cfg.Session.ExpireHours) * time.Hour),
	}
	if err := s.assessmentRepo.Create(a); err != nil {
		return nil, fmt.Errorf("create assessment: %w", err)
	}

	job := &model.AnalysisJob{
		AssessmentID: a.ID,
		SessionID:    a.SessionID,
		Status:       "queued",
	}
	if err := s.jobRepo.Create(job); err != nil {
		s.failSession(a.SessionID, enqueueFailedMessage)
		return nil, fmt.Errorf("create job: %w", err)
	}

	msg := &queue.JobMessage{JobID: job.ID, AssessmentID: a.ID, SessionID: a.SessionID}
	if err := s.queue.Push(ctx, msg); err != nil {
		s.log.Error("enqueue analysis failed", "session_id", a.SessionID, "error", err)
		s.failSession(a.SessionID, enqueueFailedMessage)
		return nil, fmt.Errorf("%w: %v", ErrEnqueueFailed, err)
	}

	s.log.Info("analysis queued", "session_id", a.SessionID, "job_id", job.ID)
	return &dto.StartAnalysisResponse{
		Success:            true,
		SessionID:          a.SessionID,
		Message:            "Analysis started",
		ProcessingEstimate: s.estimateRemaining(0),
	}, nil
}

func (s *AssessmentService) failSession(sessionID, message string) {
	if err := s.assessmentRepo.Fail(sessionID, message, s.now()); err != nil {
		s.log.Error("mark session failed", "session_id", sessionID, "error", err)
	}
	if err := s.jobRepo.FailBySessionID(sessionID, message); err != nil {
		s.log.Error("mark job failed", "session_id", sessionID, "error", err)
	}
}

// Status reports the current processing state of a session.
func (s *AssessmentService) Status(sessionID string) (*dto.ProcessingStatusResponse, error) {
	a, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	resp := &dto.ProcessingStatusResponse{
		SessionID:   a.SessionID,
		Status:      str8up.Status(a.Status).Wire(),
		Progress:    a.Progress,
		CurrentStep: a.CurrentStep,
	}
	switch str8up.Status(a.Status) {
	case str8up.StatusCompleted:
		resp.Progress = 100
		resp.CurrentStep = pubsub.StepMessages[pubsub.StepDone]
	case str8up.StatusFailed:
		resp.ErrorMessage = a.ErrorMessage
	default:
		resp.EstimatedTimeRemaining = s.estimateRemaining(a.Progress)
	}
	return resp, nil
}

// Result returns the raw analysis document of a completed session.
func (s *AssessmentService) Result(sessionID string) (*dto.AnalysisResultResponse, error) {
	a, err := s.completed(sessionID)
	if err != nil {
		return nil, err
	}
	return &dto.AnalysisResultResponse{
		SessionID: a.SessionID,
		Data:      []byte(a.Result),
	}, nil
}

// Report transforms the stored analysis into the report shown to the visitor.
func (s *AssessmentService) Report(sessionID string) (*str8up.AnalysisReport, error) {
	a, err := s.completed(sessionID)
	if err != nil {
		return nil, err
	}
	generatedAt := a.UpdatedAt
	if a.CompletedAt != nil {
		generatedAt = *a.CompletedAt
	}
	return str8up.Transform(a.SessionID, []byte(a.Result), a.Input(), generatedAt), nil
}

func (s *AssessmentService) completed(sessionID string) (*model.Assessment, error) {
	a, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}
	switch str8up.Status(a.Status) {
	case str8up.StatusCompleted:
		return a, nil
	case str8up.StatusFailed:
		return nil, ErrAnalysisFailed
	default:
		return nil, ErrAnalysisNotReady
	}
}

func (s *AssessmentService) get(sessionID string) (*model.Assessment, error) {
	a, err := s.assessmentRepo.GetBySessionID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return a, nil
}

// estimateRemaining counts the steps not yet reached, one step delay each.
func (s *AssessmentService) estimateRemaining(progress int) int {
	perStep := int(s.cfg.Queue.StepDelay / time.Second)
	if perStep < 1 {
		perStep = 1
	}
	remaining := 0
	for _, step := range pubsub.Steps {
		if pubsub.StepProgress[step] > progress {
			remaining++
		}
	}
	return remaining * perStep
}

func inputFromRequest(req *dto.StartAnalysisRequest) str8up.OnboardingInput {
	in := str8up.OnboardingInput{
		BusinessSize:  str8up.BusinessSize(req.BusinessSize),
		CloudProvider: str8up.CloudProvider(req.CloudProvider),
		BudgetBracket: str8up.BudgetBracket(req.Budget),
		RiskTolerance: str8up.RiskLevel(req.RiskTolerance),
		Compliance:    str8up.Compliance(req.Compliance),
	}
	if req.Complexity != nil {
		in.Complexity = *req.Complexity
	}
	return in
}
