package journal

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) StartRun(operation string, host string) (*Run, error) {
	run := &Run{
		ID:        uuid.New().String(),
		Operation: operation,
		Host:      host,
		Status:    RunStatusRunning,
		StartedAt: time.Now(),
	}

	err := r.db.Create(run).Error

	if err != nil {
		return nil, err
	}

	return run, nil
}

func (r *Repository) RecordStep(runID string, seq int, name string, status StepStatus, stepErr error, startedAt time.Time, duration time.Duration) (*StepRecord, error) {
	record := &StepRecord{
		RunID:      runID,
		Seq:        seq,
		Name:       name,
		Status:     status,
		StartedAt:  startedAt,
		DurationMS: duration.Milliseconds(),
	}

	if stepErr != nil {
		record.Error = stepErr.Error()
	}

	err := r.db.Create(record).Error

	if err != nil {
		return nil, err
	}

	return record, nil
}

// FinishRun closes a run. A nil runErr marks it succeeded.
func (r *Repository) FinishRun(runID string, failedStep string, runErr error) error {
	now := time.Now()

	updates := map[string]interface{}{
		"status":      RunStatusSucceeded,
		"finished_at": now,
	}

	if runErr != nil {
		updates["status"] = RunStatusFailed
		updates["failed_step"] = failedStep
		updates["error"] = runErr.Error()
	}

	result := r.db.Model(&Run{}).Where("id = ?", runID).Updates(updates)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrRunNotFound
	}

	return nil
}

func (r *Repository) GetRun(runID string) (*Run, error) {
	run := &Run{}

	err := r.db.Preload("Steps", func(db *gorm.DB) *gorm.DB {
		return db.Order("seq ASC")
	}).Where("id = ?", runID).First(run).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}

	return run, nil
}

// ListRuns returns the most recent runs first, with their steps in order.
func (r *Repository) ListRuns(limit int) ([]*Run, error) {
	var runs []*Run

	query := r.db.Preload("Steps", func(db *gorm.DB) *gorm.DB {
		return db.Order("seq ASC")
	}).Order("started_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Find(&runs).Error

	if err != nil {
		return nil, err
	}

	return runs, nil
}
