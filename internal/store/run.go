package store

import (
	"errors"
	"time"
)

// ErrRunNotFound is returned when a run id has no row.
var ErrRunNotFound = errors.New("run not found")

// RunStatus is the lifecycle state of a stored run.
type RunStatus string

const (
	StatusRunning  RunStatus = "running"
	StatusFinished RunStatus = "finished"
	StatusFailed   RunStatus = "failed"
)

// Run is one stored simulation run.
type Run struct {
	ID         string    `json:"id"`
	Config     string    `json:"config"` // configuration the run was started with, as JSON
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"` // zero while running
	Status     RunStatus `json:"status"`
	EndTime    float64   `json:"end_time"`
	Steps      int64     `json:"steps"`
	Snapshots  int64     `json:"snapshots"`
	LiveEvents int       `json:"live_events"`
	Error      string    `json:"error,omitempty"`
}

// Summary is what a finished run reports back.
type Summary struct {
	EndTime    float64
	Steps      int64
	Snapshots  int64
	LiveEvents int
	Err        error
}

const timeLayout = time.RFC3339Nano
