package model

import "time"

// Lead contact captured on the CTA stage
type Lead struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	LeadID    string    `gorm:"size:36;uniqueIndex;not null" json:"lead_id"`
	SessionID string    `gorm:"size:36;not null;index" json:"session_id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"size:200;not null;index" json:"email"`
	Company   string    `gorm:"size:200" json:"company,omitempty"`
	Phone     string    `gorm:"size:50" json:"phone,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (Lead) TableName() string {
	return "leads"
}

// All lists every model for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&Assessment{},
		&AnalysisJob{},
		&Lead{},
	}
}
