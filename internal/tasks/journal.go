package tasks

import (
	"context"
	"sync"
)

// Journal records accepted call tasks so a restarted portal session can
// still list and poll them. Journal writes are best-effort: a failure is
// logged by the tracker, never surfaced to the submitting user.
type Journal interface {
	Append(ctx context.Context, task CallTask) error
	List(ctx context.Context) ([]CallTask, error)
}

// MemoryJournal keeps the session journal in process memory. It is the
// default when no Redis address is configured, and what tests use.
type MemoryJournal struct {
	mu    sync.Mutex
	tasks []CallTask
}

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{}
}

func (j *MemoryJournal) Append(_ context.Context, task CallTask) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.tasks = append(j.tasks, task)
	return nil
}

func (j *MemoryJournal) List(_ context.Context) ([]CallTask, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]CallTask(nil), j.tasks...), nil
}
