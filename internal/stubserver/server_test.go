package stubserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	decoded := map[string]any{}
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, decoded
}

func scheduleTask(t *testing.T, handler http.Handler) string {
	t.Helper()
	rec, body := doJSON(t, handler, http.MethodPost, "/schedule_call_task", map[string]string{
		"user_id":            "u1",
		"doctor_id":          "d1",
		"appointment_reason": "general-checkup",
		"date":               "2024-06-01",
		"time_range_start":   "08:00",
		"time_range_end":     "08:30",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("schedule status = %d, body %v", rec.Code, body)
	}
	id, _ := body["task_id"].(string)
	if id == "" {
		t.Fatalf("no task_id in %v", body)
	}
	return id
}

func TestScheduleCallTask_MissingFieldRejected(t *testing.T) {
	router := New().Router()

	rec, body := doJSON(t, router, http.MethodPost, "/schedule_call_task", map[string]string{
		"user_id":          "u1",
		"doctor_id":        "d1",
		"date":             "2024-06-01",
		"time_range_start": "08:00",
		"time_range_end":   "08:30",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if body["error"] != "Missing required field: appointment_reason" {
		t.Fatalf("error = %v", body["error"])
	}
}

func TestTaskProgression_EachPollAdvancesOneStep(t *testing.T) {
	router := New().Router()
	id := scheduleTask(t, router)

	wantSteps := []string{"in_progress", "completed", "completed"}
	for i, want := range wantSteps {
		_, body := doJSON(t, router, http.MethodGet, "/get_task_results", nil)
		results, _ := body["results"].([]any)
		if len(results) != 1 {
			t.Fatalf("poll %d: results = %v", i, body)
		}
		entry := results[0].(map[string]any)
		if entry["task_id"] != id || entry["status_code"] != want {
			t.Fatalf("poll %d: entry = %v, want status %q", i, entry, want)
		}
	}
}

func TestCallProtocol_DistinctNotFoundBodies(t *testing.T) {
	router := New().Router()
	id := scheduleTask(t, router)

	// Task exists but the call has not finished.
	rec, body := doJSON(t, router, http.MethodGet, "/get_task_call_protocol/"+id, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if body["error"] != "Call protocol not available for this task" {
		t.Fatalf("pending error = %v", body["error"])
	}

	rec, body = doJSON(t, router, http.MethodGet, "/get_task_call_protocol/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if body["error"] != "Task not found" {
		t.Fatalf("unknown error = %v", body["error"])
	}
}

func TestCallProtocol_WrittenOnCompletion(t *testing.T) {
	router := New().Router()
	id := scheduleTask(t, router)

	// Two polls: scheduled -> in_progress -> completed.
	doJSON(t, router, http.MethodGet, "/get_task_results", nil)
	doJSON(t, router, http.MethodGet, "/get_task_results", nil)

	rec, body := doJSON(t, router, http.MethodGet, "/get_task_call_protocol/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %v", rec.Code, body)
	}
	protocol, _ := body["call_protocol"].([]any)
	if len(protocol) != 4 {
		t.Fatalf("protocol = %v, want 4 exchanges", protocol)
	}
	if body["task_status"] != "completed" {
		t.Fatalf("task_status = %v, want completed", body["task_status"])
	}
}

func TestDeleteDoctor_RejectedWhileTasksReferenceIt(t *testing.T) {
	srv := New()
	router := srv.Router()

	rec, body := doJSON(t, router, http.MethodPost, "/add_doctor", map[string]string{
		"name": "Dr. A", "phone": "1", "opening_hours": "8-16", "profession": "GP",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status = %d, body %v", rec.Code, body)
	}
	doctorID := body["doctor_id"].(string)

	doJSON(t, router, http.MethodPost, "/schedule_call_task", map[string]string{
		"user_id":            "u1",
		"doctor_id":          doctorID,
		"appointment_reason": "general-checkup",
		"date":               "2024-06-01",
		"time_range_start":   "08:00",
		"time_range_end":     "08:30",
	})

	rec, body = doJSON(t, router, http.MethodDelete, "/delete_doctor/"+doctorID, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if body["error"] != "doctor has outstanding scheduled call tasks" {
		t.Fatalf("error = %v", body["error"])
	}

	_, listBody := doJSON(t, router, http.MethodGet, "/list_all_doctors", nil)
	doctors, _ := listBody["doctors"].([]any)
	if len(doctors) != 1 {
		t.Fatalf("doctors = %v, doctor must survive rejected delete", doctors)
	}
}

func TestUpdateDoctor_UnknownIDNotFound(t *testing.T) {
	router := New().Router()

	rec, _ := doJSON(t, router, http.MethodPut, "/update_doctor", map[string]string{
		"doctor_id": "nope", "name": "Dr. X", "phone": "1", "opening_hours": "8-16", "profession": "GP",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestProfile_RoundTrip(t *testing.T) {
	router := New().Router()

	rec, _ := doJSON(t, router, http.MethodGet, "/get_profile/u1", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 before save", rec.Code)
	}

	rec, _ = doJSON(t, router, http.MethodPut, "/update_profile", map[string]string{
		"user_id": "u1", "first_name": "Max", "surname": "Mustermann",
		"birth_date": "1980-01-01", "insurance": "AOK",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d", rec.Code)
	}

	rec, body := doJSON(t, router, http.MethodGet, "/get_profile/u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	if body["surname"] != "Mustermann" {
		t.Fatalf("profile = %v", body)
	}
}

func TestSeedDoctors_PopulatesDirectory(t *testing.T) {
	srv := New()
	srv.SeedDoctors(5)

	_, body := doJSON(t, srv.Router(), http.MethodGet, "/list_all_doctors", nil)
	doctors, _ := body["doctors"].([]any)
	if len(doctors) != 5 {
		t.Fatalf("doctors = %d, want 5", len(doctors))
	}
}
