package tasks

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/arztportal/patient-portal/internal/apperrors"
)

// Tracker turns appointment requests into call tasks and follows their
// outcome. Submission and result retrieval are deliberately decoupled: the
// scheduler executes the call asynchronously, so the tracker fires once and
// the caller polls. A failed submit is never retried automatically, since a
// resubmission could duplicate a call that was already placed.
type Tracker struct {
	scheduler Scheduler
	journal   Journal
	log       *zap.Logger

	mu          sync.Mutex
	known       map[string]*CallTask
	order       []string
	fetchSeq    uint64
	lastApplied uint64
	lastResults []TaskResult
}

func NewTracker(scheduler Scheduler, journal Journal, log *zap.Logger) *Tracker {
	return &Tracker{
		scheduler: scheduler,
		journal:   journal,
		log:       log,
		known:     make(map[string]*CallTask),
	}
}

// Restore repopulates the tracker from the journal, so tasks submitted in a
// previous portal session stay visible. Journal errors are not fatal.
func (t *Tracker) Restore(ctx context.Context) error {
	recorded, err := t.journal.List(ctx)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, task := range recorded {
		if _, ok := t.known[task.ID]; ok {
			continue
		}
		cp := task
		t.known[task.ID] = &cp
		t.order = append(t.order, task.ID)
	}
	return nil
}

// Submit validates the request and sends it to the scheduler exactly once.
// On acceptance it records an immutable snapshot under the assigned task id.
func (t *Tracker) Submit(ctx context.Context, req AppointmentRequest) (CallTask, error) {
	if verr := validateRequest(req); verr != nil {
		return CallTask{}, verr
	}

	taskID, err := t.scheduler.ScheduleCallTask(ctx, req)
	if err != nil {
		// The request is discarded; the caller decides whether to resubmit.
		return CallTask{}, err
	}

	task := CallTask{
		ID:          taskID,
		Request:     req,
		Status:      StatusSubmitted,
		SubmittedAt: time.Now().UTC(),
	}

	t.mu.Lock()
	cp := task
	t.known[task.ID] = &cp
	t.order = append(t.order, task.ID)
	t.mu.Unlock()

	if err := t.journal.Append(ctx, task); err != nil {
		t.log.Warn("journal append failed", zap.String("task_id", task.ID), zap.Error(err))
	}

	t.log.Info("call task submitted",
		zap.String("task_id", task.ID),
		zap.String("doctor_id", req.DoctorID),
	)
	return task, nil
}

// ListResults fetches the current task summaries from the scheduler. Each
// fetch is sequence-stamped; a response that resolves after a newer fetch
// has already been applied is discarded, and the newer data is returned
// instead. Known snapshots are updated from the applied payload, without
// ever leaving a terminal status.
func (t *Tracker) ListResults(ctx context.Context) ([]TaskResult, error) {
	t.mu.Lock()
	t.fetchSeq++
	seq := t.fetchSeq
	t.mu.Unlock()

	results, err := t.scheduler.ListTaskResults(ctx)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if seq <= t.lastApplied {
		return append([]TaskResult(nil), t.lastResults...), nil
	}
	t.lastApplied = seq
	t.lastResults = append(t.lastResults[:0:0], results...)

	for _, res := range results {
		task, ok := t.known[res.TaskID]
		if !ok || task.Status.Terminal() {
			continue
		}
		task.Status = res.Status
	}

	return append([]TaskResult(nil), results...), nil
}

// GetTranscript returns the ordered call protocol of a completed task. An
// unknown id surfaces as NotFoundError; a task whose call has not finished
// yet yields a transcript with Ready == false.
func (t *Tracker) GetTranscript(ctx context.Context, taskID string) (Transcript, error) {
	if strings.TrimSpace(taskID) == "" {
		return Transcript{}, apperrors.Validation(apperrors.FieldError{Field: "task_id", Reason: "required"})
	}
	return t.scheduler.GetCallTranscript(ctx, taskID)
}

// Submitted returns the snapshots of all tasks this session knows about,
// in submission order.
func (t *Tracker) Submitted() []CallTask {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]CallTask, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, *t.known[id])
	}
	return out
}

func validateRequest(req AppointmentRequest) *apperrors.ValidationError {
	var fields []apperrors.FieldError

	if strings.TrimSpace(req.UserID) == "" {
		fields = append(fields, apperrors.FieldError{Field: "user_id", Reason: "required"})
	}
	if strings.TrimSpace(req.DoctorID) == "" {
		fields = append(fields, apperrors.FieldError{Field: "doctor_id", Reason: "required"})
	}

	if req.Reason == "" {
		fields = append(fields, apperrors.FieldError{Field: "appointment_reason", Reason: "required"})
	} else if !req.Reason.Valid() {
		fields = append(fields, apperrors.FieldError{Field: "appointment_reason", Reason: "unknown reason code"})
	}
	if req.Reason == ReasonOther && strings.TrimSpace(req.Remark) == "" {
		fields = append(fields, apperrors.FieldError{Field: "additional_remark", Reason: "required for reason other"})
	}

	missingWindow := false
	if strings.TrimSpace(req.Date) == "" {
		fields = append(fields, apperrors.FieldError{Field: "date", Reason: "required"})
		missingWindow = true
	}
	if strings.TrimSpace(req.Start) == "" {
		fields = append(fields, apperrors.FieldError{Field: "time_range_start", Reason: "required"})
		missingWindow = true
	}
	if strings.TrimSpace(req.End) == "" {
		fields = append(fields, apperrors.FieldError{Field: "time_range_end", Reason: "required"})
		missingWindow = true
	}
	if !missingWindow {
		start, end, err := req.Window()
		if err != nil {
			fields = append(fields, apperrors.FieldError{Field: "date", Reason: "invalid date or time format"})
		} else if !end.After(start) {
			fields = append(fields, apperrors.FieldError{Field: "time_range_end", Reason: "must be after time_range_start"})
		}
	}

	if len(fields) == 0 {
		return nil
	}
	return apperrors.Validation(fields...)
}
