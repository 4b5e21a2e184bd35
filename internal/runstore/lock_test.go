package runstore

import (
	"strings"
	"testing"
	"time"
)

func TestAcquireRunLockIsExclusive(t *testing.T) {
	runsDir := t.TempDir()

	lock, err := AcquireRunLock(runsDir, "run-1")
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	if _, err := AcquireRunLock(runsDir, "run-2"); err == nil {
		t.Fatal("second acquire should fail while lock is held")
	} else if !strings.Contains(err.Error(), "already in progress") {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	lock2, err := AcquireRunLock(runsDir, "run-2")
	if err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}
	_ = lock2.Release()
}

func TestReleaseZeroLockIsNoop(t *testing.T) {
	var lock RunLock
	if err := lock.Release(); err != nil {
		t.Fatalf("zero lock release should be a no-op, got %v", err)
	}
}

func TestReportRoundTripAndLatest(t *testing.T) {
	runsDir := t.TempDir()

	first := RunReport{
		RunID:       NewRunID(),
		StartedAt:   "2026-01-02T03:04:05Z",
		Phase:       "completed",
		VendorCodes: []string{"a", "b"},
		TotalCodes:  2,
		Processed:   2,
		FailedCodes: []string{"b"},
	}
	firstDir := ReportDir(runsDir, first.RunID, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	if err := SaveReport(firstDir, first); err != nil {
		t.Fatalf("save first report: %v", err)
	}

	second := first
	second.RunID = NewRunID()
	second.FailedCodes = nil
	secondDir := ReportDir(runsDir, second.RunID, time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC))
	if err := SaveReport(secondDir, second); err != nil {
		t.Fatalf("save second report: %v", err)
	}

	latest, err := LatestReport(runsDir)
	if err != nil {
		t.Fatalf("latest report: %v", err)
	}
	if latest.RunID != second.RunID {
		t.Fatalf("expected latest run %s, got %s", second.RunID, latest.RunID)
	}
	if len(latest.FailedCodes) != 0 {
		t.Fatalf("expected no failed codes, got %v", latest.FailedCodes)
	}

	loaded, err := LoadReport(firstDir)
	if err != nil {
		t.Fatalf("load first report: %v", err)
	}
	if loaded.FailedCodes[0] != "b" {
		t.Fatalf("round trip lost failed codes: %+v", loaded)
	}
}
