package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"quizboard/internal/quiz"
)

const maxBodyBytes = 1 << 16

func (a *API) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, quiz.ErrInvalidAccountName):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "account name is required"})
	case errors.Is(err, quiz.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, quiz.ErrConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, quiz.ErrInvalidReference):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		a.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestIDFromContext(r.Context()),
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "request failed"})
	}
}

func parseQuizID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	quizID, err := strconv.ParseInt(chi.URLParam(r, "quiz_id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "quiz_id must be an integer"})
		return 0, false
	}
	return quizID, true
}

// decodeOptionalJSON decodes the request body into dst. An empty body leaves
// dst at its zero value.
func decodeOptionalJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()

	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
