package repository

import (
	"gorm.io/gorm"

	"github.com/zahlentech/str8up_server/internal/model"
)

type LeadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

func (r *LeadRepository) Create(lead *model.Lead) error {
	return r.db.Create(lead).Error
}

func (r *LeadRepository) GetByLeadID(leadID string) (*model.Lead, error) {
	var lead model.Lead
	err := r.db.Where("lead_id = ?", leadID).First(&lead).Error
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

// List returns one page of leads, newest first.
func (r *LeadRepository) List(page, pageSize int) ([]*model.Lead, int64, error) {
	var (
		leads []*model.Lead
		total int64
	)

	if err := r.db.Model(&model.Lead{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := r.db.Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&leads).Error
	return leads, total, err
}

func (r *LeadRepository) CountBySessionID(sessionID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Lead{}).Where("session_id = ?", sessionID).Count(&count).Error
	return count, err
}
