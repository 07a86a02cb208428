package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/zahlentech/str8up_server/internal/model"
)

var activeStatuses = []string{"pending", "processing"}

type AssessmentRepository struct {
	db *gorm.DB
}

func NewAssessmentRepository(db *gorm.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

func (r *AssessmentRepository) Create(a *model.Assessment) error {
	return r.db.Create(a).Error
}

func (r *AssessmentRepository) GetBySessionID(sessionID string) (*model.Assessment, error) {
	var a model.Assessment
	err := r.db.Where("session_id = ?", sessionID).First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetBySessionIDs returns the assessments keyed by session id.
func (r *AssessmentRepository) GetBySessionIDs(sessionIDs []string) (map[string]*model.Assessment, error) {
	result := make(map[string]*model.Assessment, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return result, nil
	}

	var list []*model.Assessment
	if err := r.db.Where("session_id IN ?", sessionIDs).Find(&list).Error; err != nil {
		return nil, err
	}
	for _, a := range list {
		result[a.SessionID] = a
	}
	return result, nil
}

func (r *AssessmentRepository) Update(a *model.Assessment) error {
	return r.db.Save(a).Error
}

// UpdateProgress records a running step. Progress never moves backwards.
func (r *AssessmentRepository) UpdateProgress(sessionID, status string, progress int, step string) error {
	return r.db.Model(&model.Assessment{}).
		Where("session_id = ? AND progress <= ?", sessionID, progress).
		Updates(map[string]interface{}{
			"status":       status,
			"progress":     progress,
			"current_step": step,
		}).Error
}

func (r *AssessmentRepository) MarkStarted(sessionID string, at time.Time) error {
	return r.db.Model(&model.Assessment{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"status":     "processing",
			"started_at": at,
		}).Error
}

func (r *AssessmentRepository) Complete(sessionID string, result []byte, score int, archiveURL string, at time.Time) error {
	return r.db.Model(&model.Assessment{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"status":        "completed",
			"progress":      100,
			"current_step":  "done",
			"result":        model.JSONDocument(result),
			"overall_score": score,
			"archive_url":   archiveURL,
			"completed_at":  at,
		}).Error
}

func (r *AssessmentRepository) Fail(sessionID, message string, at time.Time) error {
	return r.db.Model(&model.Assessment{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"status":        "failed",
			"error_message": message,
			"completed_at":  at,
		}).Error
}

// FailStale fails sessions that have not moved since before.
func (r *AssessmentRepository) FailStale(before time.Time, message string) (int64, error) {
	res := r.db.Model(&model.Assessment{}).
		Where("status IN ? AND updated_at < ?", activeStatuses, before).
		Updates(map[string]interface{}{
			"status":        "failed",
			"error_message": message,
		})
	return res.RowsAffected, res.Error
}

func (r *AssessmentRepository) expiredWithoutLeads(before time.Time) *gorm.DB {
	return r.db.Model(&model.Assessment{}).
		Where("expires_at < ?", before).
		Where("session_id NOT IN (?)", r.db.Model(&model.Lead{}).Select("session_id"))
}

// CountExpiredWithoutLeads counts sessions the cleanup would delete.
func (r *AssessmentRepository) CountExpiredWithoutLeads(before time.Time) (int64, error) {
	var count int64
	err := r.expiredWithoutLeads(before).Count(&count).Error
	return count, err
}

// DeleteExpiredWithoutLeads removes expired sessions nobody converted, with their jobs.
func (r *AssessmentRepository) DeleteExpiredWithoutLeads(before time.Time) (int64, error) {
	var deleted int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&model.Assessment{}).
			Where("expires_at < ?", before).
			Where("session_id NOT IN (?)", tx.Model(&model.Lead{}).Select("session_id")).
			Pluck("session_id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		if err := tx.Where("session_id IN ?", ids).Delete(&model.AnalysisJob{}).Error; err != nil {
			return err
		}
		res := tx.Where("session_id IN ?", ids).Delete(&model.Assessment{})
		deleted = res.RowsAffected
		return res.Error
	})
	return deleted, err
}

// ListUnarchived returns completed sessions whose document never reached object storage.
func (r *AssessmentRepository) ListUnarchived(limit int) ([]*model.Assessment, error) {
	var list []*model.Assessment
	err := r.db.Where("status = ? AND (archive_url = '' OR archive_url IS NULL)", "completed").
		Order("completed_at ASC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *AssessmentRepository) SetArchiveURL(sessionID, url string) error {
	return r.db.Model(&model.Assessment{}).
		Where("session_id = ?", sessionID).
		Update("archive_url", url).Error
}
