package network

import (
	"errors"
	"fmt"
)

// DefaultMaxInstantSteps bounds kernel steps at one simulation time when
// Config.MaxInstantSteps is zero.
const DefaultMaxInstantSteps = 10000

// instantQuota counts kernel steps taken at the current simulation time.
//
// A control algorithm that keeps returning a zero interval never lets time
// advance; the quota turns that livelock into an error.
type instantQuota struct {
	limit   int
	time    float64
	current int
}

func newInstantQuota(limit int) *instantQuota {
	if limit <= 0 {
		limit = DefaultMaxInstantSteps
	}
	return &instantQuota{limit: limit, time: -1}
}

// check counts a step at t and fails once more than limit steps share t.
func (q *instantQuota) check(runID string, t float64) error {
	if t != q.time {
		q.time = t
		q.current = 0
	}
	q.current++
	if q.current > q.limit {
		return &InstantStepsExceededError{RunID: runID, Time: t, Steps: q.current, Limit: q.limit}
	}
	return nil
}

// InstantStepsExceededError is returned by Run when too many kernel steps
// happen without simulation time advancing.
type InstantStepsExceededError struct {
	RunID string
	Time  float64
	Steps int
	Limit int
}

func (e *InstantStepsExceededError) Error() string {
	return fmt.Sprintf("run %s exceeded step quota at t=%g: %d steps > %d limit",
		e.RunID, e.Time, e.Steps, e.Limit)
}

// IsInstantStepsExceeded reports whether err is or wraps an
// InstantStepsExceededError.
func IsInstantStepsExceeded(err error) bool {
	var se *InstantStepsExceededError
	return errors.As(err, &se)
}
