// Package orchestrator implements the Booking Orchestrator and its
// asynchronous job queue: synchronous booking for callers that can wait on
// the request path, and a smart-book-async path backed by a small
// goroutine worker pool with lease-based ownership, retry with backoff, and
// a subscribe-to-status-stream API for callers that can't.
//
// The design notes call for "a thread per worker plus a
// condition-variable-signalled status table" where no async task-queue
// library fits the required lease/cancellation/subscribe shape; this
// package is that literal implementation, generalizing the teacher's
// interface-segregated service style and fire-and-forget goroutine usage
// from scheduling_service.go.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"telehealth-scheduling-core/clock"
	"telehealth-scheduling-core/consistency"
	"telehealth-scheduling-core/matcher"
	"telehealth-scheduling-core/models"
	"telehealth-scheduling-core/repository"
	"telehealth-scheduling-core/scheduling"
	"telehealth-scheduling-core/utils"
)

// BookingRequest describes a booking attempt, either synchronous or async.
type BookingRequest struct {
	PatientID       uint
	ClinicianID     uint // optional: 0 means "let the matcher choose"
	SpecialtyName   string
	AppointmentType models.AppointmentType
	WindowStart     time.Time
	WindowEnd       time.Time
	PreferredStart  time.Time // optional exact slot the caller wants
	PatientNotes    string
	BufferMin       int
	IdempotencyKey  string

	// AllowHistoryPrioritization controls whether the matcher rewards a
	// clinician the patient has seen before. The zero value (false) turns
	// the prior-relationship factor off; the HTTP booking handler fills it
	// from the configured default when the caller omits it.
	AllowHistoryPrioritization bool
}

// Result is the outcome of a successful booking.
type Result struct {
	Appointment models.Appointment
	Reasons     []string
}

// jobEntry bundles a BookingJob with its broadcast subscribers. All access
// goes through Orchestrator.mu.
type jobEntry struct {
	job         models.BookingJob
	request     BookingRequest
	subscribers []chan models.BookingJob
}

// Orchestrator wires the matcher, consistency layer and stores into the
// booking and job-queue operations.
type Orchestrator struct {
	matcher     *matcher.Matcher
	consistency *consistency.Layer
	appts       repository.AppointmentStore
	events      repository.EventSink
	video       repository.VideoProvisioner
	clock       clock.Clock

	maxRetries  int
	baseBackoff time.Duration
	backoffCap  time.Duration
	jobTimeout  time.Duration

	mu             sync.Mutex
	jobs           map[string]*jobEntry
	idempotency    map[string]string // idempotency key -> job id
	queue          chan string
	workerQuit     chan struct{}
	workersStarted bool
}

// Config carries the orchestrator's tunables, sourced from
// config.OrchestratorConfig.
type Config struct {
	MaxRetries  int
	BaseBackoff time.Duration
	BackoffCap  time.Duration
	JobTimeout  time.Duration
	Workers     int
}

// New constructs an Orchestrator and starts its worker pool.
func New(m *matcher.Matcher, c *consistency.Layer, appts repository.AppointmentStore, events repository.EventSink, video repository.VideoProvisioner, clk clock.Clock, cfg Config) *Orchestrator {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	o := &Orchestrator{
		matcher:     m,
		consistency: c,
		appts:       appts,
		events:      events,
		video:       video,
		clock:       clk,
		maxRetries:  cfg.MaxRetries,
		baseBackoff: cfg.BaseBackoff,
		backoffCap:  cfg.BackoffCap,
		jobTimeout:  cfg.JobTimeout,
		jobs:        make(map[string]*jobEntry),
		idempotency: make(map[string]string),
		queue:       make(chan string, 256),
		workerQuit:  make(chan struct{}),
	}
	o.startWorkers(cfg.Workers)
	return o
}

func (o *Orchestrator) startWorkers(n int) {
	if o.workersStarted {
		return
	}
	o.workersStarted = true
	for i := 0; i < n; i++ {
		workerID := fmt.Sprintf("worker-%d", i)
		go o.workerLoop(workerID)
	}
}

// Stop signals every worker goroutine to exit after its current job.
func (o *Orchestrator) Stop() {
	close(o.workerQuit)
}

// Book performs a synchronous booking: resolve clinician (via the matcher,
// if ClinicianID is unset), then atomically check-and-insert through the
// consistency layer. Used by callers on the request path who can afford to
// wait for the result.
func (o *Orchestrator) Book(ctx context.Context, req BookingRequest) (*Result, error) {
	clinicianID := req.ClinicianID
	var reasons []string

	if clinicianID == 0 {
		candidates, err := o.matcher.Match(ctx, req.PatientID, req.SpecialtyName, req.AppointmentType, req.WindowStart, req.WindowEnd, req.AllowHistoryPrioritization)
		if err != nil {
			return nil, err
		}
		best := candidates[0]
		clinicianID = best.Clinician.ID
		reasons = best.Reasons
		if req.PreferredStart.IsZero() && len(best.Slots) > 0 {
			req.PreferredStart = best.Slots[0].Start
		}
	}

	if req.PreferredStart.IsZero() {
		return nil, scheduling.New(scheduling.KindInvalidInput, "missing_preferred_start", "a preferred start time is required")
	}

	duration := req.WindowEnd.Sub(req.WindowStart)
	if duration <= 0 {
		duration = 30 * time.Minute
	}

	appt := &models.Appointment{
		PatientID:       req.PatientID,
		ClinicianID:     clinicianID,
		AppointmentTime: req.PreferredStart,
		EndTime:         req.PreferredStart.Add(duration),
		Status:          models.StatusPending,
		Type:            req.AppointmentType,
		PatientNotes:    utils.SanitizeString(req.PatientNotes),
	}

	if err := o.consistency.InsertIfNoConflict(ctx, appt, req.BufferMin); err != nil {
		return nil, err
	}

	o.provisionVideoIfNeeded(ctx, appt)
	o.emitEvent(ctx, models.EventAppointmentCreated, &appt.ID, "", true, appt)

	return &Result{Appointment: *appt, Reasons: reasons}, nil
}

// SmartBookAsync enqueues req as a BookingJob and returns immediately with
// its ID. Idempotent on IdempotencyKey: a repeated call with the same key
// returns the existing job instead of enqueuing a duplicate.
func (o *Orchestrator) SmartBookAsync(req BookingRequest) models.BookingJob {
	o.mu.Lock()
	if req.IdempotencyKey != "" {
		if existingID, ok := o.idempotency[req.IdempotencyKey]; ok {
			existing := o.jobs[existingID].job
			o.mu.Unlock()
			return existing
		}
	}

	now := o.clock.Now()
	job := models.BookingJob{
		ID:            uuid.NewString(),
		PatientID:     req.PatientID,
		RequestedType: req.AppointmentType,
		Status:        models.JobQueued,
		MaxRetries:    o.maxRetries,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	o.jobs[job.ID] = &jobEntry{job: job, request: req}
	if req.IdempotencyKey != "" {
		o.idempotency[req.IdempotencyKey] = job.ID
	}
	o.mu.Unlock()

	o.queue <- job.ID
	return job
}

// JobStatus returns a snapshot of the job's current state.
func (o *Orchestrator) JobStatus(jobID string) (models.BookingJob, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	entry, ok := o.jobs[jobID]
	if !ok {
		return models.BookingJob{}, scheduling.ErrJobNotFound
	}
	return entry.job.Snapshot(), nil
}

// JobCancel requests cooperative cancellation of a queued or running job.
// The worker checks the flag at its next suspension point. A job that has
// already reached a terminal state (including Completed, which means an
// appointment now exists) rejects the cancel with ErrJobAlreadyTerminal;
// cancel the appointment itself through the appointment API instead.
func (o *Orchestrator) JobCancel(ctx context.Context, jobID string) error {
	o.mu.Lock()
	entry, ok := o.jobs[jobID]
	if !ok {
		o.mu.Unlock()
		return scheduling.ErrJobNotFound
	}
	if entry.job.Status.IsTerminal() {
		o.mu.Unlock()
		return scheduling.ErrJobAlreadyTerminal
	}
	entry.job.Cancelled = true
	o.mu.Unlock()
	return nil
}

// JobList returns jobs matching the given status filter (empty string
// matches all), most recently created first.
func (o *Orchestrator) JobList(status models.JobStatus) []models.BookingJob {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []models.BookingJob
	for _, entry := range o.jobs {
		if status == "" || entry.job.Status == status {
			out = append(out, entry.job.Snapshot())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Subscribe returns a channel that immediately receives the job's current
// status, then every subsequent transition until the job reaches a
// terminal state, at which point the channel is closed. A late subscriber
// to an already-terminal job receives that terminal status once and the
// channel closes right after.
func (o *Orchestrator) Subscribe(jobID string) (<-chan models.BookingJob, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	entry, ok := o.jobs[jobID]
	if !ok {
		return nil, scheduling.ErrJobNotFound
	}

	ch := make(chan models.BookingJob, 8)
	ch <- entry.job.Snapshot()
	if entry.job.Status.IsTerminal() {
		close(ch)
		return ch, nil
	}
	entry.subscribers = append(entry.subscribers, ch)
	return ch, nil
}

// publish pushes the job's current status to every subscriber, closing and
// clearing the subscriber list once the job reaches a terminal state.
func (o *Orchestrator) publish(jobID string) {
	entry, ok := o.jobs[jobID]
	if !ok {
		return
	}
	snapshot := entry.job.Snapshot()
	for _, ch := range entry.subscribers {
		select {
		case ch <- snapshot:
		default:
		}
	}
	if entry.job.Status.IsTerminal() {
		for _, ch := range entry.subscribers {
			close(ch)
		}
		entry.subscribers = nil
	}
}

// transition applies a monotonic status change under the orchestrator's
// lock and publishes it to subscribers.
func (o *Orchestrator) transition(jobID string, mutate func(job *models.BookingJob)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	entry, ok := o.jobs[jobID]
	if !ok {
		return
	}
	before := entry.job.Status
	mutate(&entry.job)
	if !before.IsMonotonicAdvance(entry.job.Status) && before != entry.job.Status {
		entry.job.Status = before // refuse a non-monotonic move
	}
	entry.job.UpdatedAt = o.clock.Now()
	o.publish(jobID)
}

func (o *Orchestrator) workerLoop(workerID string) {
	for {
		select {
		case <-o.workerQuit:
			return
		case jobID := <-o.queue:
			o.runJob(workerID, jobID)
		}
	}
}

// runJob implements the worker loop steps: claim with a lease, check
// cancellation, attempt the booking, retry with exponential backoff and
// jitter on a retryable failure, and finish terminally.
func (o *Orchestrator) runJob(workerID, jobID string) {
	o.mu.Lock()
	entry, ok := o.jobs[jobID]
	if !ok {
		o.mu.Unlock()
		return
	}
	if entry.job.Cancelled {
		entry.job.Status = models.JobCancelled
		entry.job.UpdatedAt = o.clock.Now()
		o.publish(jobID)
		o.mu.Unlock()
		return
	}
	entry.job.Status = models.JobRunning
	entry.job.WorkerID = workerID
	entry.job.LeaseExpiry = o.clock.Now().Add(o.jobTimeout)
	entry.job.UpdatedAt = o.clock.Now()
	req := entry.request
	o.publish(jobID)
	o.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), o.jobTimeout)
	defer cancel()

	result, err := o.Book(ctx, req)
	if err == nil {
		o.transition(jobID, func(job *models.BookingJob) {
			job.Status = models.JobCompleted
			job.AppointmentID = &result.Appointment.ID
		})
		return
	}

	o.mu.Lock()
	cancelled := entry.job.Cancelled
	retryCount := entry.job.RetryCount
	o.mu.Unlock()

	if cancelled {
		o.transition(jobID, func(job *models.BookingJob) { job.Status = models.JobCancelled })
		return
	}

	if scheduling.IsRetryable(err) && retryCount < o.maxRetries {
		o.mu.Lock()
		entry.job.RetryCount++
		next := entry.job.RetryCount
		o.mu.Unlock()

		delay := o.backoffDelay(next)
		o.emitEvent(context.Background(), models.EventBookingJobFailed, nil, jobID, false, map[string]any{"error": err.Error(), "retry": next})
		time.AfterFunc(delay, func() { o.queue <- jobID })
		return
	}

	o.transition(jobID, func(job *models.BookingJob) {
		job.Status = models.JobFailed
		job.Error = err.Error()
	})
	o.emitEvent(context.Background(), models.EventBookingJobFailed, nil, jobID, false, map[string]any{"error": err.Error()})
}

// backoffDelay computes base*2^retry capped and jittered by +/-20%, per the
// spec's retry policy.
func (o *Orchestrator) backoffDelay(retry int) time.Duration {
	delay := o.baseBackoff
	for i := 0; i < retry; i++ {
		delay *= 2
		if delay > o.backoffCap {
			delay = o.backoffCap
			break
		}
	}
	jitter := time.Duration(float64(delay) * (rand.Float64()*0.4 - 0.2))
	return delay + jitter
}

func (o *Orchestrator) provisionVideoIfNeeded(ctx context.Context, appt *models.Appointment) {
	if o.video == nil || appt.Type != models.TypeTelehealthCheckIn {
		return
	}
	sessionID, err := o.video.Provision(ctx, *appt)
	if err != nil {
		utils.LogWarn("video provisioning failed, appointment kept without a session", nil)
		o.emitEvent(ctx, models.EventVideoProvisionFailed, &appt.ID, "", false, map[string]any{"error": err.Error()})
		return
	}
	appt.VideoSessionID = sessionID
	_ = o.appts.Update(ctx, appt)
}

func (o *Orchestrator) emitEvent(ctx context.Context, eventType models.LifecycleEventType, appointmentID *uint, jobID string, success bool, payload any) {
	raw, _ := json.Marshal(payload)
	event := models.LifecycleEvent{
		EventID:       uuid.NewString(),
		Type:          eventType,
		AppointmentID: appointmentID,
		JobID:         jobID,
		Success:       success,
		Payload:       string(raw),
	}
	if err := o.events.Emit(ctx, event); err != nil {
		utils.LogWarn("failed to emit lifecycle event", nil)
	}
}
