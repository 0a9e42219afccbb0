package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/arztportal/patient-portal/internal/apperrors"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// respondError maps the portal error taxonomy onto HTTP statuses. Every
// failure carries a human-readable explanation; a conflict in particular
// must say why, not just that it was rejected.
func respondError(w http.ResponseWriter, err error) {
	var verr *apperrors.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_failed",
			Details: verr.Error(),
			Fields:  verr.Fields,
		})
		return
	}

	var nf *apperrors.NotFoundError
	if errors.As(err, &nf) {
		writeError(w, http.StatusNotFound, "not_found", nf.Error())
		return
	}

	var conflict *apperrors.ConflictError
	if errors.As(err, &conflict) {
		writeError(w, http.StatusConflict, "conflict", conflict.Reason)
		return
	}

	var remote *apperrors.RemoteError
	if errors.As(err, &remote) {
		writeError(w, http.StatusBadGateway, "remote_failure", remote.Error())
		return
	}

	writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
}
