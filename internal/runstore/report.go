package runstore

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const reportFileName = "report.json"

// RunReport is the persisted outcome of one pipeline run. The failed-codes
// list is the seed for the retry command.
type RunReport struct {
	RunID       string   `json:"run_id"`
	StartedAt   string   `json:"started_at"`
	FinishedAt  string   `json:"finished_at,omitempty"`
	Phase       string   `json:"phase"`
	Source      string   `json:"source"`
	SourceRoots []string `json:"source_roots,omitempty"`
	SourcePath  string   `json:"source_path,omitempty"`
	Profile     string   `json:"profile"`
	VendorCodes []string `json:"vendor_codes"`
	TotalCodes  int      `json:"total_codes"`
	Processed   int      `json:"processed"`
	Uploaded    int      `json:"uploaded"`
	FailedCodes []string `json:"failed_codes"`
	Error       string   `json:"error,omitempty"`
	LogTail     []string `json:"log_tail,omitempty"`
}

// NewRunID returns a fresh report identifier.
func NewRunID() string {
	return uuid.NewString()
}

// ReportDir builds the directory for a run started at the given time. The
// timestamp prefix keeps lexical directory order chronological.
func ReportDir(runsDir, runID string, startedAt time.Time) string {
	stamp := startedAt.UTC().Format("20060102T150405Z")
	return filepath.Join(runsDir, stamp+"_"+shortID(runID))
}

func shortID(id string) string {
	id = strings.ReplaceAll(strings.TrimSpace(id), "-", "")
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func SaveReport(runDir string, report RunReport) error {
	return WriteJSON(filepath.Join(runDir, reportFileName), report)
}

func LoadReport(runDir string) (RunReport, error) {
	var report RunReport
	if err := ReadJSON(filepath.Join(runDir, reportFileName), &report); err != nil {
		return RunReport{}, err
	}
	return report, nil
}

// LatestReport loads the most recent run report under runsDir.
func LatestReport(runsDir string) (RunReport, error) {
	dir, err := LatestRunDir(runsDir)
	if err != nil {
		return RunReport{}, err
	}
	report, err := LoadReport(dir)
	if err != nil {
		return RunReport{}, fmt.Errorf("load latest run report: %w", err)
	}
	return report, nil
}
