package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"quizboard/internal/quiz"
)

func (a *API) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if a.health != nil {
		if err := a.health.Ping(r.Context()); err != nil {
			a.logger.ErrorContext(r.Context(), "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "storage unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (a *API) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := a.service.GetUser(r.Context(), chi.URLParam(r, "account_name"))
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleRegisterUser is get-or-create; the body is optional.
func (a *API) HandleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var request registerUserRequest
	if err := decodeOptionalJSON(r, &request); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	user, err := a.service.RegisterUser(r.Context(), chi.URLParam(r, "account_name"), request.PrivateKey)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var request updateUserRequest
	if err := decodeOptionalJSON(r, &request); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	user, err := a.service.UpdateUser(r.Context(), chi.URLParam(r, "account_name"), quiz.UserUpdate{
		PrivateKey: request.PrivateKey,
	})
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeleteUser(r.Context(), chi.URLParam(r, "account_name")); err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (a *API) HandleJoinQuiz(w http.ResponseWriter, r *http.Request) {
	quizID, ok := parseQuizID(w, r)
	if !ok {
		return
	}

	score, err := a.service.JoinQuiz(r.Context(), chi.URLParam(r, "account_name"), quizID)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, score)
}

func (a *API) HandleQuizQuestions(w http.ResponseWriter, r *http.Request) {
	quizID, ok := parseQuizID(w, r)
	if !ok {
		return
	}

	questions, err := a.service.QuizQuestions(r.Context(), chi.URLParam(r, "account_name"), quizID)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (a *API) HandleSubmitScore(w http.ResponseWriter, r *http.Request) {
	quizID, ok := parseQuizID(w, r)
	if !ok {
		return
	}

	var request submitScoreRequest
	if err := decodeOptionalJSON(r, &request); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	if err := a.service.SubmitScore(r.Context(), chi.URLParam(r, "account_name"), quizID, request.Score); err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (a *API) HandleQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := a.service.QuizzesFor(r.Context(), chi.URLParam(r, "account_name"))
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (a *API) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	quizID, ok := parseQuizID(w, r)
	if !ok {
		return
	}

	standings, err := a.service.Leaderboard(r.Context(), quizID)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, standings)
}
