package journal

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

type StepStatus string

const (
	StepStatusOK     StepStatus = "ok"
	StepStatusWarned StepStatus = "warned"
	StepStatusFailed StepStatus = "failed"
)

// Run is one invocation of provision or release.
type Run struct {
	ID         string       `gorm:"type:text;primaryKey"`
	Operation  string       `gorm:"type:text;not null;index:idx_run_operation"`
	Host       string       `gorm:"type:text;not null"`
	Status     RunStatus    `gorm:"type:text;not null"`
	FailedStep string       `gorm:"type:text"`
	Error      string       `gorm:"type:text"`
	StartedAt  time.Time    `gorm:"type:timestamp;not null;index:idx_run_started_at"`
	FinishedAt *time.Time   `gorm:"type:timestamp"`
	Steps      []StepRecord `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
}

type StepRecord struct {
	ID         uint       `gorm:"primaryKey;autoIncrement"`
	RunID      string     `gorm:"type:text;not null;index:idx_step_run_id"`
	Seq        int        `gorm:"not null"`
	Name       string     `gorm:"type:text;not null"`
	Status     StepStatus `gorm:"type:text;not null"`
	Error      string     `gorm:"type:text"`
	StartedAt  time.Time  `gorm:"type:timestamp;not null"`
	DurationMS int64      `gorm:"not null"`
}
