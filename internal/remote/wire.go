package remote

import "github.com/arztportal/patient-portal/internal/tasks"

// Wire shapes of the scheduler/directory service.

type wireDoctor struct {
	DoctorID     string `json:"doctor_id"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	OpeningHours string `json:"opening_hours"`
	Profession   string `json:"profession"`
}

type listDoctorsResponse struct {
	Doctors []wireDoctor `json:"doctors"`
}

type addDoctorRequest struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	OpeningHours string `json:"opening_hours"`
	Profession   string `json:"profession"`
}

type addDoctorResponse struct {
	DoctorID string `json:"doctor_id"`
}

type updateDoctorRequest struct {
	DoctorID     string `json:"doctor_id"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	OpeningHours string `json:"opening_hours"`
	Profession   string `json:"profession"`
}

type scheduleCallTaskResponse struct {
	Message string `json:"message"`
	TaskID  string `json:"task_id"`
	Status  string `json:"status"`
}

type wireTaskResult struct {
	TaskID     string `json:"task_id"`
	StatusCode string `json:"status_code"`
}

type taskResultsResponse struct {
	Results    []wireTaskResult `json:"results"`
	TotalCount int              `json:"total_count"`
}

type wireExchange struct {
	Speaker string `json:"speaker"`
	Message string `json:"message"`
}

type callProtocolResponse struct {
	TaskID       string         `json:"task_id"`
	CallProtocol []wireExchange `json:"call_protocol"`
	TaskStatus   string         `json:"task_status"`
}

type errorResponse struct {
	Error  string `json:"error"`
	TaskID string `json:"task_id,omitempty"`
}

type wireProfile struct {
	UserID    string `json:"user_id"`
	FirstName string `json:"first_name"`
	Surname   string `json:"surname"`
	BirthDate string `json:"birth_date"`
	Insurance string `json:"insurance"`
}

// The service reports "scheduled" for a freshly accepted task; the portal
// calls that state submitted.
func mapWireStatus(s string) tasks.Status {
	switch s {
	case "scheduled":
		return tasks.StatusSubmitted
	case "in_progress":
		return tasks.StatusInProgress
	case "completed":
		return tasks.StatusCompleted
	case "failed":
		return tasks.StatusFailed
	}
	return tasks.Status(s)
}
