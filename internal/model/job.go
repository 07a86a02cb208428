package model

import (
	"time"
)

// AnalysisJob queue job for one assessment
type AnalysisJob struct {
	ID             int64      `gorm:"primaryKey" json:"id"`
	AssessmentID   int64      `gorm:"not null;index" json:"assessment_id"`
	SessionID      string     `gorm:"size:36;not null;index" json:"session_id"`
	Status         string     `gorm:"size:20;default:queued;index" json:"status"` // queued, processing, completed, failed
	CurrentStep    string     `gorm:"size:100" json:"current_step,omitempty"`
	ErrorMessage   string     `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	ElapsedSeconds int        `json:"elapsed_seconds,omitempty"`
}

func (AnalysisJob) TableName() string {
	return "analysis_jobs"
}
