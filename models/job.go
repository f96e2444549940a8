package models

import "time"

// JobStatus is the lifecycle state of an asynchronous booking job. Unlike
// AppointmentStatus, job state lives only in memory (see the orchestrator
// package) and is never persisted — only the lifecycle events it emits are
// durable.
type JobStatus string

const (
	JobQueued    JobStatus = "QUEUED"
	JobRunning   JobStatus = "RUNNING"
	JobCompleted JobStatus = "COMPLETED"
	JobFailed    JobStatus = "FAILED"
	JobCancelled JobStatus = "CANCELLED"
)

// IsTerminal reports whether the job can no longer change state.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobCompleted, JobFailed, JobCancelled:
		return true
	default:
		return false
	}
}

// jobStatusRank gives a total order over statuses so transitions can be
// checked for monotonicity: a job must never move backwards (e.g. Running
// after Completed), even under concurrent worker retries.
var jobStatusRank = map[JobStatus]int{
	JobQueued:    0,
	JobRunning:   1,
	JobCompleted: 2,
	JobFailed:    2,
	JobCancelled: 2,
}

// IsMonotonicAdvance reports whether moving from s to next respects the
// queued -> running -> terminal ordering.
func (s JobStatus) IsMonotonicAdvance(next JobStatus) bool {
	if s.IsTerminal() {
		return false
	}
	return jobStatusRank[next] >= jobStatusRank[s]
}

// BookingJob tracks an asynchronous smart-book-async request.
type BookingJob struct {
	ID            string
	PatientID     uint
	RequestedType AppointmentType
	Status        JobStatus
	RetryCount    int
	MaxRetries    int
	WorkerID      string
	LeaseExpiry   time.Time
	AppointmentID *uint
	Error         string
	Cancelled     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Snapshot returns a value copy safe to hand to callers outside the
// orchestrator's lock.
func (j *BookingJob) Snapshot() BookingJob {
	return *j
}
