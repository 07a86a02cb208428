package repository

import (
	"gorm.io/gorm"

	"github.com/zahlentech/str8up_server/internal/model"
)

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Create(job *model.AnalysisJob) error {
	return r.db.Create(job).Error
}

func (r *JobRepository) GetByID(id int64) (*model.AnalysisJob, error) {
	var job model.AnalysisJob
	err := r.db.Where("id = ?", id).First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// GetBySessionID returns the latest job of a session.
func (r *JobRepository) GetBySessionID(sessionID string) (*model.AnalysisJob, error) {
	var job model.AnalysisJob
	err := r.db.Where("session_id = ?", sessionID).Order("created_at DESC, id DESC").First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *JobRepository) Update(job *model.AnalysisJob) error {
	return r.db.Save(job).Error
}

func (r *JobRepository) UpdateStatus(id int64, status string) error {
	return r.db.Model(&model.AnalysisJob{}).Where("id = ?", id).Update("status", status).Error
}

func (r *JobRepository) UpdateStep(id int64, step string) error {
	return r.db.Model(&model.AnalysisJob{}).Where("id = ?", id).Update("current_step", step).Error
}

// GetPendingJobs returns queued jobs, oldest first.
func (r *JobRepository) GetPendingJobs(limit int) ([]*model.AnalysisJob, error) {
	var jobs []*model.AnalysisJob
	err := r.db.Where("status = ?", "queued").
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}

// FailBySessionID fails the unfinished jobs of a session.
func (r *JobRepository) FailBySessionID(sessionID, message string) error {
	return r.db.Model(&model.AnalysisJob{}).
		Where("session_id = ? AND status IN ?", sessionID, []string{"queued", "processing"}).
		Updates(map[string]interface{}{
			"status":        "failed",
			"error_message": message,
		}).Error
}
