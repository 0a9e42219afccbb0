package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arztportal/patient-portal/internal/calendar"
	"github.com/arztportal/patient-portal/internal/directory"
	"github.com/arztportal/patient-portal/internal/profile"
	"github.com/arztportal/patient-portal/internal/tasks"
)

func listDoctorsHandler(store *directory.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctors, err := store.List(r.Context())
		if err != nil {
			respondError(w, err)
			return
		}

		resp := DoctorListResponse{Doctors: make([]DoctorResponse, 0, len(doctors))}
		for _, d := range doctors {
			resp.Doctors = append(resp.Doctors, toDoctorResponse(d))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func addDoctorHandler(store *directory.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DoctorPayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		created, err := store.Add(r.Context(), directory.DoctorInput{
			Name:         req.Name,
			Phone:        req.Phone,
			OpeningHours: req.OpeningHours,
			Profession:   req.Profession,
		})
		if err != nil {
			respondError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toDoctorResponse(created))
	}
}

func updateDoctorHandler(store *directory.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DoctorPayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		updated, err := store.Update(r.Context(), directory.Doctor{
			ID:           chi.URLParam(r, "id"),
			Name:         req.Name,
			Phone:        req.Phone,
			OpeningHours: req.OpeningHours,
			Profession:   req.Profession,
		})
		if err != nil {
			respondError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toDoctorResponse(updated))
	}
}

func deleteDoctorHandler(store *directory.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// submitTaskHandler accepts a scheduling request, submits it as a call
// task and, on acceptance, immediately places the appointment on the local
// calendar. The local entry is the one optimistic mutation the portal
// allows itself: the task id is already server-confirmed at that point.
func submitTaskHandler(tracker *tasks.Tracker, reconciler *calendar.Reconciler, store *directory.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SubmitTaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		task, err := tracker.Submit(r.Context(), tasks.AppointmentRequest{
			UserID:   req.UserID,
			DoctorID: req.DoctorID,
			Reason:   tasks.Reason(req.Reason),
			Remark:   req.Remark,
			Date:     req.Date,
			Start:    req.Start,
			End:      req.End,
		})
		if err != nil {
			respondError(w, err)
			return
		}

		if start, end, werr := task.Request.Window(); werr == nil {
			reconciler.AddLocal(calendar.Event{
				ID:    task.ID,
				Title: localEventTitle(store, task.Request.DoctorID),
				Start: start,
				End:   end,
			})
		}

		writeJSON(w, http.StatusAccepted, SubmitTaskResponse{
			TaskID: task.ID,
			Status: string(task.Status),
		})
	}
}

func localEventTitle(store *directory.Store, doctorID string) string {
	for _, d := range store.Cached() {
		if d.ID == doctorID {
			return "Appointment: " + d.Name
		}
	}
	return "Doctor appointment"
}

func taskResultsHandler(tracker *tasks.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results, err := tracker.ListResults(r.Context())
		if err != nil {
			respondError(w, err)
			return
		}

		resp := TaskResultsResponse{
			Results:    make([]TaskResultEntry, 0, len(results)),
			TotalCount: len(results),
		}
		for _, res := range results {
			resp.Results = append(resp.Results, TaskResultEntry{
				TaskID: res.TaskID,
				Status: string(res.Status),
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func transcriptHandler(tracker *tasks.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		transcript, err := tracker.GetTranscript(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toTranscriptResponse(transcript))
	}
}

func mergedCalendarHandler(reconciler *calendar.Reconciler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merged := reconciler.MergedView()

		resp := CalendarResponse{Events: make([]CalendarEventEntry, 0, len(merged))}
		for _, ev := range merged {
			resp.Events = append(resp.Events, toCalendarEntry(ev))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func refreshCalendarHandler(reconciler *calendar.Reconciler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := reconciler.RefreshExternal(r.Context()); err != nil {
			// Local events are untouched; the merged view degrades to the
			// last successful pull.
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func getProfileHandler(svc *profile.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func updateProfileHandler(svc *profile.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ProfilePayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		err := svc.Save(r.Context(), profile.Profile{
			UserID:    chi.URLParam(r, "id"),
			FirstName: req.FirstName,
			Surname:   req.Surname,
			BirthDate: req.BirthDate,
			Insurance: req.Insurance,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
