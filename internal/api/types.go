package api

import (
	"time"

	"github.com/arztportal/patient-portal/internal/apperrors"
	"github.com/arztportal/patient-portal/internal/calendar"
	"github.com/arztportal/patient-portal/internal/directory"
	"github.com/arztportal/patient-portal/internal/tasks"
)

type DoctorPayload struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	OpeningHours string `json:"opening_hours"`
	Profession   string `json:"profession"`
}

type DoctorResponse struct {
	DoctorID     string `json:"doctor_id"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	OpeningHours string `json:"opening_hours"`
	Profession   string `json:"profession"`
}

type DoctorListResponse struct {
	Doctors []DoctorResponse `json:"doctors"`
}

type SubmitTaskRequest struct {
	UserID   string `json:"user_id"`
	DoctorID string `json:"doctor_id"`
	Reason   string `json:"appointment_reason"`
	Remark   string `json:"additional_remark"`
	Date     string `json:"date"`
	Start    string `json:"time_range_start"`
	End      string `json:"time_range_end"`
}

type SubmitTaskResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

type TaskResultsResponse struct {
	Results    []TaskResultEntry `json:"results"`
	TotalCount int               `json:"total_count"`
}

type TaskResultEntry struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

type TranscriptResponse struct {
	TaskID    string          `json:"task_id"`
	Ready     bool            `json:"ready"`
	Exchanges []ExchangeEntry `json:"exchanges,omitempty"`
}

type ExchangeEntry struct {
	Speaker string `json:"speaker"`
	Message string `json:"message"`
}

type CalendarResponse struct {
	Events []CalendarEventEntry `json:"events"`
}

type CalendarEventEntry struct {
	ID         string    `json:"id"`
	Provenance string    `json:"provenance"`
	Title      string    `json:"title"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Category   string    `json:"category"`
}

type ProfilePayload struct {
	FirstName string `json:"first_name"`
	Surname   string `json:"surname"`
	BirthDate string `json:"birth_date"`
	Insurance string `json:"insurance"`
}

type ErrorResponse struct {
	Error   string                 `json:"error"`
	Details string                 `json:"details,omitempty"`
	Fields  []apperrors.FieldError `json:"fields,omitempty"`
}

func toDoctorResponse(d directory.Doctor) DoctorResponse {
	return DoctorResponse{
		DoctorID:     d.ID,
		Name:         d.Name,
		Phone:        d.Phone,
		OpeningHours: d.OpeningHours,
		Profession:   d.Profession,
	}
}

func toCalendarEntry(ev calendar.Event) CalendarEventEntry {
	return CalendarEventEntry{
		ID:         ev.ID,
		Provenance: string(ev.Provenance),
		Title:      ev.Title,
		Start:      ev.Start,
		End:        ev.End,
		Category:   ev.Category,
	}
}

func toTranscriptResponse(tr tasks.Transcript) TranscriptResponse {
	out := TranscriptResponse{TaskID: tr.TaskID, Ready: tr.Ready}
	for _, e := range tr.Exchanges {
		out.Exchanges = append(out.Exchanges, ExchangeEntry{Speaker: e.Speaker, Message: e.Message})
	}
	return out
}
