package dto

import "encoding/json"

// StartAnalysisRequest onboarding form submitted to POST /onboarding/start
type StartAnalysisRequest struct {
	BusinessSize  string `json:"business_size" binding:"required,oneof=small medium large"`
	CloudProvider string `json:"cloud_provider" binding:"required,oneof=aws azure gcp hybrid"`
	Complexity    *int   `json:"complexity" binding:"required,min=0,max=100"`
	Budget        string `json:"budget" binding:"required,oneof=under100k 100k-500k 500k-1m 1m-5m over5m"`
	RiskTolerance string `json:"risk_tolerance" binding:"required,oneof=low medium high"`
	Compliance    string `json:"compliance" binding:"required,oneof=none hipaa pci sox gdpr multiple"`
}

// StartAnalysisResponse new session
type StartAnalysisResponse struct {
	Success            bool   `json:"success"`
	SessionID          string `json:"sessionId"`
	Message            string `json:"message"`
	ProcessingEstimate int    `json:"processingEstimate,omitempty"` // seconds
}

// ProcessingStatusResponse one status observation
type ProcessingStatusResponse struct {
	SessionID              string `json:"sessionId"`
	Status                 string `json:"status"` // PENDING, PROCESSING, COMPLETED, FAILED
	Progress               int    `json:"progress"`
	CurrentStep            string `json:"currentStep,omitempty"`
	EstimatedTimeRemaining int    `json:"estimatedTimeRemaining,omitempty"`
	ErrorMessage           string `json:"errorMessage,omitempty"`
}

// AnalysisResultResponse raw analysis document of a completed session
type AnalysisResultResponse struct {
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
}

// CaptureLeadRequest CTA contact form
type CaptureLeadRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
	Name      string `json:"name" binding:"required,max=100"`
	Email     string `json:"email" binding:"required,email,max=200"`
	Company   string `json:"company,omitempty" binding:"omitempty,max=200"`
	Phone     string `json:"phone,omitempty" binding:"omitempty,max=50"`
}

// CaptureLeadResponse lead accepted
type CaptureLeadResponse struct {
	Success           bool     `json:"success"`
	LeadID            string   `json:"leadId"`
	Message           string   `json:"message"`
	ConfirmationEmail bool     `json:"confirmationEmail"`
	NextSteps         []string `json:"nextSteps,omitempty"`
}

// EmailResultsRequest POST /results/:sessionId/email
type EmailResultsRequest struct {
	Email         string `json:"email" binding:"required,email"`
	RecipientName string `json:"recipientName,omitempty" binding:"omitempty,max=100"`
}

// EmailResultsResponse email accepted
type EmailResultsResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ProgressEvent pushed over the websocket and redis pub/sub
type ProgressEvent struct {
	SessionID   string `json:"sessionId"`
	Status      string `json:"status"`
	Progress    int    `json:"progress"`
	CurrentStep string `json:"currentStep,omitempty"`
	Error       string `json:"error,omitempty"`
}
