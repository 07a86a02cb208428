package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zahlentech/str8up_server/internal/model"
	"github.com/zahlentech/str8up_server/internal/model/dto"
	"github.com/zahlentech/str8up_server/internal/pkg/leadstream"
	"github.com/zahlentech/str8up_server/internal/pkg/logger"
	"github.com/zahlentech/str8up_server/internal/repository"
	"github.com/zahlentech/str8up_server/internal/str8up"
)

const leadThanksMessage = "Thank you! We'll be in touch within 24 hours."

var leadNextSteps = []string{
	"Check your email for a confirmation message",
	"Our team will review your analysis results",
	"Expect a follow-up call within 24 business hours",
	"Prepare any questions about your modernization strategy",
}

// ConfirmationMailer sends the "we got your request" email.
type ConfirmationMailer interface {
	SendLeadConfirmation(to, name string) error
}

type LeadService struct {
	leadRepo       *repository.LeadRepository
	assessmentRepo *repository.AssessmentRepository
	stream         leadstream.Publisher
	mailer         ConfirmationMailer
	log            logger.Logger
	now            func() time.Time

	pending sync.WaitGroup
}

// NewLeadService wires the lead capture. stream and mailer may be nil.
func NewLeadService(
	leadRepo *repository.LeadRepository,
	assessmentRepo *repository.AssessmentRepository,
	stream leadstream.Publisher,
	mailer ConfirmationMailer,
	log logger.Logger,
) *LeadService {
	if stream == nil {
		stream = leadstream.Nop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &LeadService{
		leadRepo:       leadRepo,
		assessmentRepo: assessmentRepo,
		stream:         stream,
		mailer:         mailer,
		log:            log,
		now:            time.Now,
	}
}

// Capture stores the contact form of a session and fans it out.
func (s *LeadService) Capture(ctx context.Context, req *dto.CaptureLeadRequest) (*dto.CaptureLeadResponse, error) {
	sub := str8up.LeadSubmission{
		SessionID: strings.TrimSpace(req.SessionID),
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Company:   strings.TrimSpace(req.Company),
		Phone:     strings.TrimSpace(req.Phone),
	}
	if sub.SessionID == "" {
		return nil, ErrSessionNotFound
	}
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	a, err := s.assessmentRepo.GetBySessionID(sub.SessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	lead := &model.Lead{
		LeadID:    uuid.NewString(),
		SessionID: sub.SessionID,
		Name:      sub.Name,
		Email:     sub.Email,
		Company:   sub.Company,
		Phone:     sub.Phone,
		CreatedAt: s.now(),
	}
	if err := s.leadRepo.Create(lead); err != nil {
		return nil, fmt.Errorf("create lead: %w", err)
	}
	s.log.Info("lead captured", "lead_id", lead.LeadID, "session_id", lead.SessionID)

	ev := leadstream.LeadEvent{
		Type:         leadstream.EventLeadCaptured,
		LeadID:       lead.LeadID,
		SessionID:    lead.SessionID,
		Name:         lead.Name,
		Email:        lead.Email,
		Company:      lead.Company,
		Phone:        lead.Phone,
		OverallScore: a.OverallScore,
		CapturedAt:   lead.CreatedAt,
	}
	if err := s.stream.PublishLead(ctx, ev); err != nil {
		s.log.Warn("lead fan-out failed", "lead_id", lead.LeadID, "error", err)
	}

	confirmation := s.mailer != nil
	if confirmation {
		s.pending.Add(1)
		go func() {
			defer s.pending.Done()
			if err := s.mailer.SendLeadConfirmation(lead.Email, lead.Name); err != nil {
				s.log.Error("lead confirmation email failed", "lead_id", lead.LeadID, "error", err)
			}
		}()
	}

	return &dto.CaptureLeadResponse{
		Success:           true,
		LeadID:            lead.LeadID,
		Message:           leadThanksMessage,
		ConfirmationEmail: confirmation,
		NextSteps:         append([]string(nil), leadNextSteps...),
	}, nil
}

// Wait blocks until queued confirmation emails have been attempted.
func (s *LeadService) Wait() {
	s.pending.Wait()
}

// List returns one page of leads with the score of their session.
func (s *LeadService) List(page, pageSize int) ([]dto.LeadItem, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	leads, total, err := s.leadRepo.List(page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]string, 0, len(leads))
	for _, l := range leads {
		ids = append(ids, l.SessionID)
	}
	sessions, err := s.assessmentRepo.GetBySessionIDs(ids)
	if err != nil {
		return nil, 0, err
	}

	items := make([]dto.LeadItem, 0, len(leads))
	for _, l := range leads {
		item := dto.LeadItem{
			LeadID:    l.LeadID,
			SessionID: l.SessionID,
			Name:      l.Name,
			Email:     l.Email,
			Company:   l.Company,
			Phone:     l.Phone,
			CreatedAt: l.CreatedAt.Format(time.RFC3339),
		}
		if a, ok := sessions[l.SessionID]; ok {
			item.OverallScore = a.OverallScore
		}
		items = append(items, item)
	}
	return items, total, nil
}
