package tasks

import "context"

// Scheduler contains the remote scheduler calls needed by the tracker.
type Scheduler interface {
	ScheduleCallTask(ctx context.Context, req AppointmentRequest) (taskID string, err error)
	ListTaskResults(ctx context.Context) ([]TaskResult, error)
	GetCallTranscript(ctx context.Context, taskID string) (Transcript, error)
}
