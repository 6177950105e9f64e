package deploy

import (
	"time"

	"hypedeploy/internal/journal"
	"hypedeploy/internal/logger"
)

type StepResult struct {
	Err       error
	Optional  bool
	StartedAt time.Time
	Duration  time.Duration
}

// Observer is told about every step as it runs.
type Observer interface {
	StepStarted(operation string, seq int, total int, name string)
	StepFinished(operation string, seq int, name string, result StepResult)
}

// Observers fans out to every member.
type Observers []Observer

func (o Observers) StepStarted(operation string, seq int, total int, name string) {
	for _, observer := range o {
		observer.StepStarted(operation, seq, total, name)
	}
}

func (o Observers) StepFinished(operation string, seq int, name string, result StepResult) {
	for _, observer := range o {
		observer.StepFinished(operation, seq, name, result)
	}
}

// LogObserver writes one line per step transition.
type LogObserver struct{}

func (LogObserver) StepStarted(operation string, seq int, total int, name string) {
	logger.Info("%s [%d/%d] %s", operation, seq, total, name)
}

func (LogObserver) StepFinished(operation string, seq int, name string, result StepResult) {
	switch {
	case result.Err == nil:
		logger.Debug("%s [%d] %s done in %s", operation, seq, name, result.Duration.Round(time.Millisecond))
	case result.Optional:
		logger.Warn("%s [%d] %s failed, continuing: %v", operation, seq, name, result.Err)
	default:
		logger.Error("%s [%d] %s failed: %v", operation, seq, name, result.Err)
	}
}

// JournalObserver records each finished step against a journal run.
// Write failures are logged and otherwise ignored.
type JournalObserver struct {
	Repository *journal.Repository
	RunID      string
}

func (j *JournalObserver) StepStarted(string, int, int, string) {}

func (j *JournalObserver) StepFinished(_ string, seq int, name string, result StepResult) {
	status := journal.StepStatusOK

	if result.Err != nil {
		status = journal.StepStatusFailed
		if result.Optional {
			status = journal.StepStatusWarned
		}
	}

	if _, err := j.Repository.RecordStep(j.RunID, seq, name, status, result.Err, result.StartedAt, result.Duration); err != nil {
		logger.Warn("failed to record step %s in journal: %v", name, err)
	}
}
