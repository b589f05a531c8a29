package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
)

// Handler translates core outcomes into HTTP responses. Identity arrives
// already resolved: the session layer in front of this service sets the
// X-User-ID header, and quiz ids come from the path. The handler never
// renders HTML; it only maps outcome values to status codes and messages.
type Handler struct {
	service *app.AttemptService
}

func NewHandler(service *app.AttemptService) *Handler {
	return &Handler{service: service}
}

// Register mounts all routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /quizzes", h.listQuizzes)
	mux.HandleFunc("GET /quizzes/{id}", h.startQuiz)
	mux.HandleFunc("POST /quizzes/{id}/submit", h.submit)
	mux.HandleFunc("GET /quizzes/{id}/result", h.resultBreakdown)
	mux.HandleFunc("GET /quizzes/{id}/top", h.topResults)
	mux.HandleFunc("GET /quizzes/{id}/stats", h.averageTimes)
}

type submitRequest struct {
	Answers []domain.AnswerStat `json:"answers"`
}

type submitResponse struct {
	Result  domain.Result         `json:"result"`
	Answers []domain.AnswerRecord `json:"answers"`
}

type startResponse struct {
	Quiz      domain.Quiz       `json:"quiz"`
	Questions []domain.Question `json:"questions"`
}

func (h *Handler) listQuizzes(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	summaries, err := h.service.ListQuizzes(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, summaries)
}

func (h *Handler) startQuiz(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	quizID, ok := h.quizID(w, r)
	if !ok {
		return
	}
	quiz, questions, err := h.service.StartQuiz(r.Context(), quizID, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, startResponse{Quiz: quiz, Questions: questions})
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	quizID, ok := h.quizID(w, r)
	if !ok {
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid submission payload", http.StatusBadRequest)
		return
	}

	result, answers, err := h.service.SubmitTracked(r.Context(), quizID, userID, req.Answers)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, submitResponse{Result: result, Answers: answers})
}

func (h *Handler) resultBreakdown(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	quizID, ok := h.quizID(w, r)
	if !ok {
		return
	}
	result, answers, err := h.service.ResultBreakdown(r.Context(), quizID, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, submitResponse{Result: result, Answers: answers})
}

func (h *Handler) topResults(w http.ResponseWriter, r *http.Request) {
	quizID, ok := h.quizID(w, r)
	if !ok {
		return
	}
	entries, err := h.service.TopResults(r.Context(), quizID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) averageTimes(w http.ResponseWriter, r *http.Request) {
	quizID, ok := h.quizID(w, r)
	if !ok {
		return
	}
	averages, err := h.service.AverageTimes(r.Context(), quizID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, averages)
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
	if err != nil {
		http.Error(w, "missing or invalid X-User-ID", http.StatusUnauthorized)
		return 0, false
	}
	return userID, true
}

func (h *Handler) quizID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	quizID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid quiz id", http.StatusBadRequest)
		return 0, false
	}
	return quizID, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound):
		http.Error(w, "No such quiz", http.StatusNotFound)
	case errors.Is(err, domain.ErrResultNotFound):
		http.Error(w, "No result recorded", http.StatusNotFound)
	case errors.Is(err, domain.ErrAlreadyAttempted), errors.Is(err, domain.ErrDuplicateAttempt):
		// Duplicate attempts are expected outcomes, not failures.
		http.Error(w, "User is not allowed", http.StatusForbidden)
	case errors.Is(err, domain.ErrQuizNotStarted):
		http.Error(w, "Quiz was not started", http.StatusForbidden)
	case errors.Is(err, domain.ErrLengthMismatch),
		errors.Is(err, domain.ErrAlignmentMismatch),
		errors.Is(err, domain.ErrMissingAnswer):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("request failed: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
