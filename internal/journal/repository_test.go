package journal_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"hypedeploy/internal/database"
	"hypedeploy/internal/journal"
)

func newRepository(t *testing.T) *journal.Repository {
	t.Helper()

	db, err := database.InitDB(filepath.Join(t.TempDir(), "state", "journal.db"))

	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}

	t.Cleanup(func() {
		_ = database.CloseDB(db)
	})

	return journal.NewRepository(db)
}

func TestRepository_SucceededRun(t *testing.T) {
	repo := newRepository(t)

	run, err := repo.StartRun("provision", "nickhs")
	if err != nil {
		t.Fatalf("start run: %v", err)
	}

	if run.Status != journal.RunStatusRunning {
		t.Errorf("expected running status, got %s", run.Status)
	}

	started := time.Now()
	if _, err := repo.RecordStep(run.ID, 2, "mkdir-log-dir", journal.StepStatusOK, nil, started, time.Second); err != nil {
		t.Fatalf("record step: %v", err)
	}
	if _, err := repo.RecordStep(run.ID, 1, "mkdir-service-dir", journal.StepStatusOK, nil, started, 1500*time.Millisecond); err != nil {
		t.Fatalf("record step: %v", err)
	}

	if err := repo.FinishRun(run.ID, "", nil); err != nil {
		t.Fatalf("finish run: %v", err)
	}

	got, err := repo.GetRun(run.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}

	if got.Status != journal.RunStatusSucceeded {
		t.Errorf("expected succeeded, got %s", got.Status)
	}

	if got.FinishedAt == nil {
		t.Errorf("expected finished_at to be set")
	}

	if len(got.Steps) != 2 || got.Steps[0].Name != "mkdir-service-dir" || got.Steps[1].Name != "mkdir-log-dir" {
		t.Fatalf("expected steps ordered by seq, got %+v", got.Steps)
	}

	if got.Steps[0].DurationMS != 1500 {
		t.Errorf("expected 1500ms, got %d", got.Steps[0].DurationMS)
	}
}

func TestRepository_FailedRun(t *testing.T) {
	repo := newRepository(t)

	run, err := repo.StartRun("release", "nickhs")
	if err != nil {
		t.Fatalf("start run: %v", err)
	}

	stepErr := errors.New("connection refused")
	if _, err := repo.RecordStep(run.ID, 1, "upload-static", journal.StepStatusFailed, stepErr, time.Now(), 0); err != nil {
		t.Fatalf("record step: %v", err)
	}

	if err := repo.FinishRun(run.ID, "upload-static", stepErr); err != nil {
		t.Fatalf("finish run: %v", err)
	}

	got, err := repo.GetRun(run.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}

	if got.Status != journal.RunStatusFailed || got.FailedStep != "upload-static" || got.Error != "connection refused" {
		t.Errorf("unexpected run %+v", got)
	}

	if got.Steps[0].Error != "connection refused" {
		t.Errorf("expected step error to be stored, got %q", got.Steps[0].Error)
	}
}

func TestRepository_ListRuns_NewestFirst(t *testing.T) {
	repo := newRepository(t)

	first, _ := repo.StartRun("provision", "nickhs")
	time.Sleep(10 * time.Millisecond)
	second, _ := repo.StartRun("release", "nickhs")
	time.Sleep(10 * time.Millisecond)
	third, _ := repo.StartRun("release", "nickhs")

	runs, err := repo.ListRuns(2)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}

	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}

	if runs[0].ID != third.ID || runs[1].ID != second.ID {
		t.Errorf("expected newest runs first, got %s, %s (first was %s)", runs[0].ID, runs[1].ID, first.ID)
	}
}

func TestRepository_UnknownRun(t *testing.T) {
	repo := newRepository(t)

	if _, err := repo.GetRun("missing"); !errors.Is(err, journal.ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}

	if err := repo.FinishRun("missing", "", nil); !errors.Is(err, journal.ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}
