package model

import (
	"database/sql/driver"
	"errors"
	"time"

	"github.com/zahlentech/str8up_server/internal/str8up"
)

// JSONDocument stores a raw JSON document in a json column.
type JSONDocument []byte

func (d JSONDocument) Value() (driver.Value, error) {
	if len(d) == 0 {
		return nil, nil
	}
	return string(d), nil
}

func (d *JSONDocument) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*d = nil
	case []byte:
		*d = append((*d)[:0], v...)
	case string:
		*d = JSONDocument(v)
	default:
		return errors.New("unsupported type for JSONDocument")
	}
	return nil
}

// Assessment one str8up Map session as seen by the analysis service
type Assessment struct {
	ID            int64        `gorm:"primaryKey" json:"id"`
	SessionID     string       `gorm:"size:36;uniqueIndex;not null" json:"session_id"`
	BusinessSize  string       `gorm:"size:20;not null" json:"business_size"`
	CloudProvider string       `gorm:"size:20;not null" json:"cloud_provider"`
	Complexity    int          `gorm:"not null" json:"complexity"`
	Budget        string       `gorm:"size:20;not null" json:"budget"`
	RiskTolerance string       `gorm:"size:20;not null" json:"risk_tolerance"`
	Compliance    string       `gorm:"size:20;not null" json:"compliance"`
	Status        string       `gorm:"size:20;default:pending;index" json:"status"` // pending, processing, completed, failed
	Progress      int          `gorm:"default:0" json:"progress"`
	CurrentStep   string       `gorm:"size:100" json:"current_step,omitempty"`
	ErrorMessage  string       `gorm:"type:text" json:"error_message,omitempty"`
	Result        JSONDocument `gorm:"type:json" json:"-"`
	OverallScore  int          `gorm:"default:0" json:"overall_score"`
	ArchiveURL    string       `gorm:"size:500" json:"archive_url,omitempty"`
	StartedAt     *time.Time   `json:"started_at,omitempty"`
	CompletedAt   *time.Time   `json:"completed_at,omitempty"`
	ExpiresAt     time.Time    `gorm:"index" json:"expires_at"`
	CreatedAt     time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

func (Assessment) TableName() string {
	return "assessments"
}

// Input rebuilds the submitted onboarding form
func (a *Assessment) Input() str8up.OnboardingInput {
	return str8up.OnboardingInput{
		BusinessSize:  str8up.BusinessSize(a.BusinessSize),
		CloudProvider: str8up.CloudProvider(a.CloudProvider),
		Complexity:    a.Complexity,
		BudgetBracket: str8up.BudgetBracket(a.Budget),
		RiskTolerance: str8up.RiskLevel(a.RiskTolerance),
		Compliance:    str8up.Compliance(a.Compliance),
	}
}

// Terminal reports whether the analysis has finished either way.
func (a *Assessment) Terminal() bool {
	return a.Status == string(str8up.StatusCompleted) || a.Status == string(str8up.StatusFailed)
}
