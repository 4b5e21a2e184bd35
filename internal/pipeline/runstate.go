// Package pipeline drives a run: enumerate once, then resolve and upload per
// vendor code, accumulating progress and failures in a single shared state.
package pipeline

import (
	"fmt"
	"sync"
	"time"

	"wb-content-manager/internal/model"
)

const logRingSize = 200

// RunState holds every run-progress field behind one mutex. The pipeline
// worker writes it, the dashboard reads it through Snapshot.
type RunState struct {
	mu sync.Mutex

	phase       string
	totalCodes  int
	processed   int
	uploaded    int
	currentCode string
	failedCodes []string
	startedAt   time.Time
	finishedAt  time.Time
	runErr      error

	log      []string
	logStart int

	now func() time.Time
}

// Snapshot is a point-in-time copy of the run state, safe to read without
// further locking.
type Snapshot struct {
	Phase            string
	TotalCodes       int
	ProcessedCodes   int
	UploadedProducts int
	CurrentCode      string
	FailedCodes      []string
	StartedAt        time.Time
	FinishedAt       time.Time
	ETA              time.Duration
	Err              error
	Log              []string
}

func NewRunState() *RunState {
	return &RunState{phase: model.PhaseIdle, now: time.Now}
}

// Start validates the phase transition and resets all progress for a new run.
// A second start while running is rejected.
func (s *RunState) Start(totalCodes int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := model.ValidPhaseTransition(s.phase, model.PhaseRunning); err != nil {
		return err
	}
	s.phase = model.PhaseRunning
	s.totalCodes = totalCodes
	s.processed = 0
	s.uploaded = 0
	s.currentCode = ""
	s.failedCodes = nil
	s.startedAt = s.now()
	s.finishedAt = time.Time{}
	s.runErr = nil
	s.log = nil
	s.logStart = 0
	return nil
}

// Logf appends one line to the run log ring.
func (s *RunState) Logf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLog(fmt.Sprintf(format, args...))
}

func (s *RunState) appendLog(line string) {
	if len(s.log) < logRingSize {
		s.log = append(s.log, line)
		return
	}
	s.log[s.logStart] = line
	s.logStart = (s.logStart + 1) % logRingSize
}

// MarkProcessing records the vendor code currently being worked on.
func (s *RunState) MarkProcessing(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentCode = code
	s.appendLog("processing " + code)
}

// MarkProcessed advances the processed counter by one vendor code, success or
// not. The counter never exceeds the total.
func (s *RunState) MarkProcessed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.processed < s.totalCodes {
		s.processed++
	}
}

// MarkFailed records a vendor code failure without stopping the run.
func (s *RunState) MarkFailed(code string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failedCodes = append(s.failedCodes, code)
	s.appendLog(fmt.Sprintf("code %s failed: %v", code, err))
}

// MarkUploaded counts one product whose media upload finally succeeded.
func (s *RunState) MarkUploaded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploaded++
}

// Complete finishes the run normally. The accumulated failed codes stay
// available as the retry seed.
func (s *RunState) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = model.PhaseCompleted
	s.currentCode = ""
	s.finishedAt = s.now()
	s.appendLog(fmt.Sprintf("run completed: %d/%d codes, %d failed", s.processed, s.totalCodes, len(s.failedCodes)))
}

// Abort finishes the run after a setup failure, before any per-code work.
func (s *RunState) Abort(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = model.PhaseAborted
	s.currentCode = ""
	s.finishedAt = s.now()
	s.runErr = err
	s.appendLog(fmt.Sprintf("run aborted: %v", err))
}

// Snapshot copies the current state. The ETA is recomputed from elapsed time
// per processed code extrapolated over the remainder.
func (s *RunState) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Phase:            s.phase,
		TotalCodes:       s.totalCodes,
		ProcessedCodes:   s.processed,
		UploadedProducts: s.uploaded,
		CurrentCode:      s.currentCode,
		FailedCodes:      append([]string(nil), s.failedCodes...),
		StartedAt:        s.startedAt,
		FinishedAt:       s.finishedAt,
		Err:              s.runErr,
	}
	snap.Log = make([]string, 0, len(s.log))
	for i := 0; i < len(s.log); i++ {
		snap.Log = append(snap.Log, s.log[(s.logStart+i)%len(s.log)])
	}
	if s.phase == model.PhaseRunning && s.processed > 0 {
		elapsed := s.now().Sub(s.startedAt)
		perCode := elapsed / time.Duration(s.processed)
		snap.ETA = perCode * time.Duration(s.totalCodes-s.processed)
	}
	return snap
}
