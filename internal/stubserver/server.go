// Package stubserver is an in-memory stand-in for the remote scheduler and
// directory service, for local development and tests. Unlike the real
// service it advances call tasks deterministically: every poll of the task
// results moves each unfinished task one step forward and writes a call
// protocol when the task completes.
package stubserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type stubDoctor struct {
	DoctorID     string `json:"doctor_id"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	OpeningHours string `json:"opening_hours"`
	Profession   string `json:"profession"`
}

type stubTask struct {
	TaskID     string `json:"task_id"`
	DoctorID   string `json:"doctor_id"`
	UserID     string `json:"user_id"`
	Reason     string `json:"appointment_reason"`
	Remark     string `json:"additional_remark"`
	Date       string `json:"date"`
	Start      string `json:"time_range_start"`
	End        string `json:"time_range_end"`
	StatusCode string `json:"status_code"`
	CreatedAt  string `json:"created_at"`
}

type stubExchange struct {
	Speaker string `json:"speaker"`
	Message string `json:"message"`
}

type stubProfile struct {
	UserID    string `json:"user_id"`
	FirstName string `json:"first_name"`
	Surname   string `json:"surname"`
	BirthDate string `json:"birth_date"`
	Insurance string `json:"insurance"`
}

type Server struct {
	mu        sync.Mutex
	doctors   []stubDoctor
	tasks     map[string]*stubTask
	taskOrder []string
	protocols map[string][]stubExchange
	profiles  map[string]stubProfile
}

func New() *Server {
	return &Server{
		tasks:     make(map[string]*stubTask),
		protocols: make(map[string][]stubExchange),
		profiles:  make(map[string]stubProfile),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.apiInfo)
	r.Get("/health", s.health)

	r.Get("/list_all_doctors", s.listDoctors)
	r.Post("/add_doctor", s.addDoctor)
	r.Put("/update_doctor", s.updateDoctor)
	r.Delete("/delete_doctor/{id}", s.deleteDoctor)

	r.Post("/schedule_call_task", s.scheduleCallTask)
	r.Get("/get_task_results", s.taskResults)
	r.Get("/get_task_call_protocol/{id}", s.callProtocol)

	r.Get("/get_profile/{id}", s.getProfile)
	r.Put("/update_profile", s.updateProfile)

	return r
}

func (s *Server) apiInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"api_name": "Medical Appointment Scheduling API (stub)",
		"version":  "1.0.0",
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	active := len(s.tasks)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "healthy",
		"timestamp":    time.Now().Format(time.RFC3339),
		"active_tasks": active,
	})
}

func (s *Server) listDoctors(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	doctors := append([]stubDoctor(nil), s.doctors...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"doctors": doctors})
}

func (s *Server) addDoctor(w http.ResponseWriter, r *http.Request) {
	var req stubDoctor
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "could not parse JSON")
		return
	}
	if req.Name == "" || req.Phone == "" || req.OpeningHours == "" || req.Profession == "" {
		writeError(w, http.StatusBadRequest, "missing required doctor fields")
		return
	}

	req.DoctorID = uuid.NewString()

	s.mu.Lock()
	s.doctors = append(s.doctors, req)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{"doctor_id": req.DoctorID})
}

func (s *Server) updateDoctor(w http.ResponseWriter, r *http.Request) {
	var req stubDoctor
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "could not parse JSON")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.doctors {
		if s.doctors[i].DoctorID == req.DoctorID {
			s.doctors[i] = req
			writeJSON(w, http.StatusOK, map[string]any{"message": "doctor updated"})
			return
		}
	}
	writeError(w, http.StatusNotFound, "Doctor not found")
}

// deleteDoctor rejects the removal of a doctor that still has call tasks,
// mirroring the business rule of the real service.
func (s *Server) deleteDoctor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, task := range s.tasks {
		if task.DoctorID == id {
			writeError(w, http.StatusConflict, "doctor has outstanding scheduled call tasks")
			return
		}
	}

	for i := range s.doctors {
		if s.doctors[i].DoctorID == id {
			s.doctors = append(s.doctors[:i], s.doctors[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]any{"message": "doctor deleted"})
			return
		}
	}
	writeError(w, http.StatusNotFound, "Doctor not found")
}

func (s *Server) scheduleCallTask(w http.ResponseWriter, r *http.Request) {
	var req stubTask
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "could not parse JSON")
		return
	}

	for field, v := range map[string]string{
		"user_id":            req.UserID,
		"doctor_id":          req.DoctorID,
		"appointment_reason": req.Reason,
		"date":               req.Date,
		"time_range_start":   req.Start,
		"time_range_end":     req.End,
	} {
		if v == "" {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Missing required field: %s", field))
			return
		}
	}

	req.TaskID = uuid.NewString()
	req.StatusCode = "scheduled"
	req.CreatedAt = time.Now().Format(time.RFC3339)

	s.mu.Lock()
	s.tasks[req.TaskID] = &req
	s.taskOrder = append(s.taskOrder, req.TaskID)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Task scheduled successfully",
		"task_id": req.TaskID,
		"status":  "scheduled",
	})
}

func (s *Server) taskResults(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.advanceAll()

	results := make([]map[string]any, 0, len(s.taskOrder))
	for _, id := range s.taskOrder {
		task := s.tasks[id]
		results = append(results, map[string]any{
			"task_id":     task.TaskID,
			"status_code": task.StatusCode,
		})
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"results":     results,
		"total_count": len(results),
	})
}

// advanceAll moves every unfinished task one lifecycle step. Callers hold
// the mutex.
func (s *Server) advanceAll() {
	for _, task := range s.tasks {
		switch task.StatusCode {
		case "scheduled":
			task.StatusCode = "in_progress"
		case "in_progress":
			task.StatusCode = "completed"
			s.protocols[task.TaskID] = []stubExchange{
				{Speaker: "agent", Message: "Calling to book an appointment on " + task.Date + " between " + task.Start + " and " + task.End + "."},
				{Speaker: "assistant", Message: "One moment, let me check the schedule."},
				{Speaker: "assistant", Message: "That works, the appointment is booked."},
				{Speaker: "agent", Message: "Thank you, goodbye."},
			}
		}
	}
}

func (s *Server) callProtocol(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Task not found", "task_id": id})
		return
	}

	protocol, ok := s.protocols[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error":   "Call protocol not available for this task",
			"task_id": id,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"task_id":       id,
		"call_protocol": protocol,
		"task_status":   task.StatusCode,
	})
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	p, ok := s.profiles[id]
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Profile not found", "user_id": id})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req stubProfile
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "could not parse JSON")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "Missing required field: user_id")
		return
	}

	s.mu.Lock()
	s.profiles[req.UserID] = req
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"message": "Profile updated"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}
