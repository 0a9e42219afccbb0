package tasks

import (
	"fmt"
	"time"
)

// Reason is the appointment reason chosen on the request form.
type Reason string

const (
	ReasonGeneralCheckup Reason = "general-checkup"
	ReasonAcuteComplaint Reason = "acute-complaint"
	ReasonConsultation   Reason = "consultation"
	ReasonOther          Reason = "other"
)

func (r Reason) Valid() bool {
	switch r {
	case ReasonGeneralCheckup, ReasonAcuteComplaint, ReasonConsultation, ReasonOther:
		return true
	}
	return false
}

// Status is the server-driven call task state. Completed and failed are
// terminal; the client only observes transitions, it never drives them.
type Status string

const (
	StatusSubmitted  Status = "submitted"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// AppointmentRequest is the user's scheduling request. It is transient:
// it only exists long enough to be validated and submitted, after which
// the CallTask carries an immutable snapshot of it.
type AppointmentRequest struct {
	UserID   string `json:"user_id"`
	DoctorID string `json:"doctor_id"`
	Reason   Reason `json:"appointment_reason"`
	Remark   string `json:"additional_remark,omitempty"`
	Date     string `json:"date"`             // DateLayout
	Start    string `json:"time_range_start"` // TimeLayout
	End      string `json:"time_range_end"`   // TimeLayout
}

// Window resolves the request's date and time range into concrete instants.
func (r AppointmentRequest) Window() (start, end time.Time, err error) {
	day, err := time.Parse(DateLayout, r.Date)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse date: %w", err)
	}
	from, err := time.Parse(TimeLayout, r.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse start time: %w", err)
	}
	to, err := time.Parse(TimeLayout, r.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse end time: %w", err)
	}

	start = day.Add(time.Duration(from.Hour())*time.Hour + time.Duration(from.Minute())*time.Minute)
	end = day.Add(time.Duration(to.Hour())*time.Hour + time.Duration(to.Minute())*time.Minute)
	return start, end, nil
}

// CallTask tracks one accepted scheduling request. The request snapshot is
// immutable once the scheduler has assigned the task identifier.
type CallTask struct {
	ID          string             `json:"task_id"`
	Request     AppointmentRequest `json:"request"`
	Status      Status             `json:"status"`
	SubmittedAt time.Time          `json:"submitted_at"`
}

// TaskResult is a summary row as returned by the scheduler.
type TaskResult struct {
	TaskID string `json:"task_id"`
	Status Status `json:"status"`
}

// Exchange is one turn of an executed call.
type Exchange struct {
	Speaker string `json:"speaker"`
	Message string `json:"message"`
}

// Transcript is the ordered call protocol of a task. Ready distinguishes
// "not yet written" from "available"; an unknown task is a NotFoundError,
// never a Transcript.
type Transcript struct {
	TaskID    string     `json:"task_id"`
	Ready     bool       `json:"ready"`
	Exchanges []Exchange `json:"exchanges,omitempty"`
}
