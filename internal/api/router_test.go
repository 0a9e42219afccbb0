package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/arztportal/patient-portal/internal/apperrors"
	"github.com/arztportal/patient-portal/internal/calendar"
	"github.com/arztportal/patient-portal/internal/directory"
	"github.com/arztportal/patient-portal/internal/profile"
	"github.com/arztportal/patient-portal/internal/tasks"
)

type fakeBackend struct {
	doctors        []directory.Doctor
	deleteErr      error
	scheduleFn     func(req tasks.AppointmentRequest) (string, error)
	results        []tasks.TaskResult
	transcriptFn   func(taskID string) (tasks.Transcript, error)
	profiles       map[string]profile.Profile
	healthErr      error
	scheduledCalls int
}

func (f *fakeBackend) ListDoctors(ctx context.Context) ([]directory.Doctor, error) {
	return f.doctors, nil
}

func (f *fakeBackend) CreateDoctor(ctx context.Context, in directory.DoctorInput) (directory.Doctor, error) {
	return directory.Doctor{
		ID: "d-new", Name: in.Name, Phone: in.Phone,
		OpeningHours: in.OpeningHours, Profession: in.Profession,
	}, nil
}

func (f *fakeBackend) UpdateDoctor(ctx context.Context, doc directory.Doctor) (directory.Doctor, error) {
	return doc, nil
}

func (f *fakeBackend) DeleteDoctor(ctx context.Context, id string) error {
	return f.deleteErr
}

func (f *fakeBackend) ScheduleCallTask(ctx context.Context, req tasks.AppointmentRequest) (string, error) {
	f.scheduledCalls++
	if f.scheduleFn != nil {
		return f.scheduleFn(req)
	}
	return "T1", nil
}

func (f *fakeBackend) ListTaskResults(ctx context.Context) ([]tasks.TaskResult, error) {
	return f.results, nil
}

func (f *fakeBackend) GetCallTranscript(ctx context.Context, taskID string) (tasks.Transcript, error) {
	if f.transcriptFn != nil {
		return f.transcriptFn(taskID)
	}
	return tasks.Transcript{TaskID: taskID, Ready: false}, nil
}

func (f *fakeBackend) FetchProfile(ctx context.Context, userID string) (profile.Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return profile.Profile{}, apperrors.NotFound("profile", userID)
	}
	return p, nil
}

func (f *fakeBackend) UpdateProfile(ctx context.Context, p profile.Profile) error {
	if f.profiles == nil {
		f.profiles = map[string]profile.Profile{}
	}
	f.profiles[p.UserID] = p
	return nil
}

func (f *fakeBackend) Health(ctx context.Context) error {
	return f.healthErr
}

func newTestRouter(t *testing.T, backend *fakeBackend) (http.Handler, *calendar.Reconciler) {
	t.Helper()
	log := zap.NewNop()

	store := directory.NewStore(backend, log)
	if len(backend.doctors) > 0 {
		if _, err := store.List(context.Background()); err != nil {
			t.Fatalf("seed directory: %v", err)
		}
	}

	reconciler := calendar.NewReconciler(nil, 30*24*time.Hour, 90*24*time.Hour, log)
	router := NewRouter(RouterConfig{
		Directory:  store,
		Tracker:    tasks.NewTracker(backend, tasks.NewMemoryJournal(), log),
		Reconciler: reconciler,
		Profile:    profile.NewService(backend),
		Scheduler:  backend,
		Logger:     log,
		Env:        "test",
		Version:    "test",
	})
	return router, reconciler
}

func doRequest(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func validSubmitBody() SubmitTaskRequest {
	return SubmitTaskRequest{
		UserID:   "u1",
		DoctorID: "d1",
		Reason:   "general-checkup",
		Date:     "2024-06-01",
		Start:    "08:00",
		End:      "08:30",
	}
}

func TestSubmitTask_AcceptedAndPlacedOnCalendar(t *testing.T) {
	backend := &fakeBackend{
		doctors: []directory.Doctor{{ID: "d1", Name: "Dr. A", Phone: "1", OpeningHours: "8-16", Profession: "GP"}},
	}
	router, reconciler := newTestRouter(t, backend)

	rec := doRequest(t, router, http.MethodPost, "/tasks", validSubmitBody())
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp SubmitTaskResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TaskID != "T1" || resp.Status != string(tasks.StatusSubmitted) {
		t.Fatalf("resp = %+v", resp)
	}

	merged := reconciler.MergedView()
	if len(merged) != 1 || merged[0].ID != "T1" {
		t.Fatalf("merged = %v, want the accepted appointment", merged)
	}
	if merged[0].Title != "Appointment: Dr. A" {
		t.Fatalf("title = %q", merged[0].Title)
	}
	if merged[0].Provenance != calendar.ProvenanceLocal {
		t.Fatalf("provenance = %q, want local", merged[0].Provenance)
	}
}

func TestSubmitTask_ValidationFailureListsFields(t *testing.T) {
	backend := &fakeBackend{}
	router, reconciler := newTestRouter(t, backend)

	body := validSubmitBody()
	body.Reason = "other"
	body.Remark = ""
	body.End = "08:00"

	rec := doRequest(t, router, http.MethodPost, "/tasks", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != "validation_failed" || len(resp.Fields) == 0 {
		t.Fatalf("resp = %+v, want field-level details", resp)
	}
	if backend.scheduledCalls != 0 {
		t.Fatalf("scheduler calls = %d, want 0", backend.scheduledCalls)
	}
	if len(reconciler.MergedView()) != 0 {
		t.Fatalf("rejected request must not reach the calendar")
	}
}

func TestSubmitTask_RemoteFailureIsBadGateway(t *testing.T) {
	backend := &fakeBackend{
		scheduleFn: func(req tasks.AppointmentRequest) (string, error) {
			return "", apperrors.Remote("schedule call task", context.DeadlineExceeded)
		},
	}
	router, reconciler := newTestRouter(t, backend)

	rec := doRequest(t, router, http.MethodPost, "/tasks", validSubmitBody())
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if len(reconciler.MergedView()) != 0 {
		t.Fatalf("failed submit must not reach the calendar")
	}
}

func TestDeleteDoctor_ConflictExplainsWhy(t *testing.T) {
	backend := &fakeBackend{
		doctors:   []directory.Doctor{{ID: "d1", Name: "Dr. A", Phone: "1", OpeningHours: "8-16", Profession: "GP"}},
		deleteErr: apperrors.Conflict("delete doctor", "doctor has outstanding scheduled call tasks"),
	}
	router, _ := newTestRouter(t, backend)

	rec := doRequest(t, router, http.MethodDelete, "/doctors/d1", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Details != "doctor has outstanding scheduled call tasks" {
		t.Fatalf("details = %q, want the server's reason", resp.Details)
	}
}

func TestAddDoctor_MissingFieldsRejected(t *testing.T) {
	router, _ := newTestRouter(t, &fakeBackend{})

	rec := doRequest(t, router, http.MethodPost, "/doctors", DoctorPayload{Name: "Dr. A"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAddDoctor_ReturnsServerAssignedID(t *testing.T) {
	router, _ := newTestRouter(t, &fakeBackend{})

	rec := doRequest(t, router, http.MethodPost, "/doctors", DoctorPayload{
		Name: "Dr. A", Phone: "1", OpeningHours: "8-16", Profession: "GP",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp DoctorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.DoctorID != "d-new" {
		t.Fatalf("doctor_id = %q", resp.DoctorID)
	}
}

func TestTaskResults_ReportsCurrentStatuses(t *testing.T) {
	backend := &fakeBackend{}
	router, _ := newTestRouter(t, backend)

	if rec := doRequest(t, router, http.MethodPost, "/tasks", validSubmitBody()); rec.Code != http.StatusAccepted {
		t.Fatalf("submit status = %d", rec.Code)
	}
	backend.results = []tasks.TaskResult{{TaskID: "T1", Status: tasks.StatusInProgress}}

	rec := doRequest(t, router, http.MethodGet, "/tasks/results", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp TaskResultsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TotalCount != 1 || resp.Results[0].Status != "in-progress" {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestTranscript_UnknownTaskIs404(t *testing.T) {
	backend := &fakeBackend{
		transcriptFn: func(taskID string) (tasks.Transcript, error) {
			return tasks.Transcript{}, apperrors.NotFound("task", taskID)
		},
	}
	router, _ := newTestRouter(t, backend)

	rec := doRequest(t, router, http.MethodGet, "/tasks/nope/transcript", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestCalendarRefresh_WithoutFeedFails(t *testing.T) {
	router, _ := newTestRouter(t, &fakeBackend{})

	rec := doRequest(t, router, http.MethodPost, "/calendar/refresh", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 without a configured feed", rec.Code)
	}
}

func TestProfile_RoundTrip(t *testing.T) {
	backend := &fakeBackend{}
	router, _ := newTestRouter(t, backend)

	rec := doRequest(t, router, http.MethodGet, "/profile/u1", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 before save", rec.Code)
	}

	rec = doRequest(t, router, http.MethodPut, "/profile/u1", ProfilePayload{
		FirstName: "Max", Surname: "Mustermann", BirthDate: "1980-01-01", Insurance: "AOK",
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("save status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, router, http.MethodGet, "/profile/u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var p profile.Profile
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Surname != "Mustermann" {
		t.Fatalf("profile = %+v", p)
	}
}

func TestHealth_ReadinessDependsOnScheduler(t *testing.T) {
	backend := &fakeBackend{}
	router, _ := newTestRouter(t, backend)

	if rec := doRequest(t, router, http.MethodGet, "/health/ready", nil); rec.Code != http.StatusOK {
		t.Fatalf("ready status = %d, want 200", rec.Code)
	}

	backend.healthErr = apperrors.Remote("health", context.DeadlineExceeded)
	if rec := doRequest(t, router, http.MethodGet, "/health/ready", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("ready status = %d, want 503 when the scheduler is down", rec.Code)
	}
}

func TestRequestID_EchoedOnResponses(t *testing.T) {
	router, _ := newTestRouter(t, &fakeBackend{})

	rec := doRequest(t, router, http.MethodGet, "/health/live", nil)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing X-Request-ID header")
	}
}
