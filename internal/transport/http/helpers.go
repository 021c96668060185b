package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"quiz-link-service/internal/domain"
)

type errorResponse struct {
	Error    string `json:"error"`
	Used     *int   `json:"used,omitempty"`
	Capacity *int   `json:"capacity,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(dst)
}

// writeDomainError maps the error taxonomy onto HTTP statuses. Usage is
// included on capacity rejections so clients can display the state.
func writeDomainError(w http.ResponseWriter, err error, usage domain.LinkUsage) {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrLinkNotFound),
		errors.Is(err, domain.ErrSubmissionNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrCapacityExceeded):
		writeJSON(w, http.StatusForbidden, errorResponse{
			Error:    err.Error(),
			Used:     &usage.Used,
			Capacity: &usage.Capacity,
		})
	case errors.Is(err, domain.ErrDuplicateSubmission):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidCapacity):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
