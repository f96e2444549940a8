package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobStatus_IsMonotonicAdvance(t *testing.T) {
	assert.True(t, JobQueued.IsMonotonicAdvance(JobRunning))
	assert.True(t, JobRunning.IsMonotonicAdvance(JobCompleted))
	assert.True(t, JobQueued.IsMonotonicAdvance(JobQueued))

	assert.False(t, JobRunning.IsMonotonicAdvance(JobQueued))
	assert.False(t, JobCompleted.IsMonotonicAdvance(JobRunning))
	assert.False(t, JobFailed.IsMonotonicAdvance(JobQueued))
}

func TestJobStatus_IsTerminal(t *testing.T) {
	for _, s := range []JobStatus{JobCompleted, JobFailed, JobCancelled} {
		assert.True(t, s.IsTerminal())
	}
	for _, s := range []JobStatus{JobQueued, JobRunning} {
		assert.False(t, s.IsTerminal())
	}
}

func TestBookingJob_SnapshotIsIndependentCopy(t *testing.T) {
	job := &BookingJob{ID: "job-1", Status: JobQueued}
	snap := job.Snapshot()
	job.Status = JobRunning
	assert.Equal(t, JobQueued, snap.Status)
	assert.Equal(t, JobRunning, job.Status)
}
