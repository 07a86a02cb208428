package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zahlentech/str8up_server/internal/model/dto"
	"github.com/zahlentech/str8up_server/internal/pkg/logger"
	"github.com/zahlentech/str8up_server/internal/pkg/pdf"
	"github.com/zahlentech/str8up_server/internal/str8up"
)

var ErrEmailDisabled = errors.New("email delivery is not configured")

// ResultsMailer sends the analysis report by email.
type ResultsMailer interface {
	SendResults(to, recipientName string, r *str8up.AnalysisReport) error
}

// ReportSource builds the report of a completed session.
type ReportSource interface {
	Report(sessionID string) (*str8up.AnalysisReport, error)
}

type ResultsService struct {
	reports ReportSource
	mailer  ResultsMailer
	log     logger.Logger
}

// NewResultsService exports finished reports. mailer may be nil.
func NewResultsService(reports ReportSource, mailer ResultsMailer, log logger.Logger) *ResultsService {
	if log == nil {
		log = logger.Nop()
	}
	return &ResultsService{reports: reports, mailer: mailer, log: log}
}

// PDF renders the report of a completed session.
func (s *ResultsService) PDF(sessionID string) ([]byte, error) {
	report, err := s.reports.Report(sessionID)
	if err != nil {
		return nil, err
	}
	doc, err := pdf.Render(report)
	if err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	s.log.Info("report pdf rendered", "session_id", sessionID, "bytes", len(doc))
	return doc, nil
}

// Email sends the report of a completed session to the visitor.
func (s *ResultsService) Email(sessionID string, req *dto.EmailResultsRequest) (*dto.EmailResultsResponse, error) {
	if s.mailer == nil {
		return nil, ErrEmailDisabled
	}
	report, err := s.reports.Report(sessionID)
	if err != nil {
		return nil, err
	}

	to := strings.TrimSpace(req.Email)
	if err := s.mailer.SendResults(to, strings.TrimSpace(req.RecipientName), report); err != nil {
		return nil, fmt.Errorf("send results: %w", err)
	}
	s.log.Info("results emailed", "session_id", sessionID)
	return &dto.EmailResultsResponse{
		Success: true,
		Message: "Your results are on their way to " + to,
	}, nil
}
