package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/memory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.NewStore()
	err := store.Load(context.Background(), []domain.QuizDefinition{
		{
			Title: "Addition",
			Intro: "This is an easy quiz: add numbers as fast as you can!",
			Questions: []domain.QuestionDefinition{
				{Text: "2 + 2 = ?", Answer: 4, Penalty: 5},
				{Text: "4 + 3 = ?", Answer: 7, Penalty: 10},
				{Text: "5 + 1 = ?", Answer: 6, Penalty: 2},
			},
		},
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	service := app.NewAttemptService(store, store)
	handler := NewHandler(service)
	wsHandler := NewWSHandler(service)

	mux := http.NewServeMux()
	handler.Register(mux)
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url string, userID string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, raw
}

func TestStartQuizEndpoint(t *testing.T) {
	server := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, server.URL+"/quizzes/1", "7", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}

	var start struct {
		Quiz      domain.Quiz       `json:"quiz"`
		Questions []domain.Question `json:"questions"`
	}
	if err := json.Unmarshal(body, &start); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if start.Quiz.Title != "Addition" || len(start.Questions) != 3 {
		t.Fatalf("unexpected start payload: %s", body)
	}
	if strings.Contains(string(body), `"answer"`) {
		t.Fatalf("answers leaked to the client: %s", body)
	}
}

func TestStartQuizUnknownQuiz(t *testing.T) {
	server := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, server.URL+"/quizzes/42", "7", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "No such quiz") {
		t.Fatalf("expected not-found message, got %s", body)
	}
}

func TestStartQuizRequiresIdentity(t *testing.T) {
	server := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, server.URL+"/quizzes/1", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestSubmitFlowAndSecondAttemptRejected(t *testing.T) {
	server := newTestServer(t)

	if resp, body := doJSON(t, http.MethodGet, server.URL+"/quizzes/1", "7", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("start: %d: %s", resp.StatusCode, body)
	}

	submission := map[string]any{
		"answers": []map[string]any{
			{"questionId": 1, "answer": 4, "timeSpent": 10},
			{"questionId": 2, "answer": 0, "timeSpent": 30},
			{"questionId": 3, "answer": 6, "timeSpent": 60},
		},
	}
	resp, body := doJSON(t, http.MethodPost, server.URL+"/quizzes/1/submit", "7", submission)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, body)
	}

	var submitted struct {
		Result  domain.Result         `json:"result"`
		Answers []domain.AnswerRecord `json:"answers"`
	}
	if err := json.Unmarshal(body, &submitted); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Sub-second test run: points are the wrong answer's penalty alone.
	if submitted.Result.Points != 10 {
		t.Fatalf("expected 10 points, got %d", submitted.Result.Points)
	}
	if len(submitted.Answers) != 3 {
		t.Fatalf("expected 3 answer records, got %d", len(submitted.Answers))
	}
	if submitted.Answers[1].CorrectAnswer == nil || *submitted.Answers[1].CorrectAnswer != 7 {
		t.Fatalf("expected correct answer 7 on the miss, got %+v", submitted.Answers[1])
	}

	// Starting again is refused.
	resp, body = doJSON(t, http.MethodGet, server.URL+"/quizzes/1", "7", nil)
	if resp.StatusCode != http.StatusForbidden || !strings.Contains(string(body), "User is not allowed") {
		t.Fatalf("expected forbidden restart, got %d: %s", resp.StatusCode, body)
	}

	// So is submitting again.
	resp, body = doJSON(t, http.MethodPost, server.URL+"/quizzes/1/submit", "7", submission)
	if resp.StatusCode != http.StatusForbidden || !strings.Contains(string(body), "User is not allowed") {
		t.Fatalf("expected forbidden resubmit, got %d: %s", resp.StatusCode, body)
	}

	// The recorded breakdown stays readable.
	resp, body = doJSON(t, http.MethodGet, server.URL+"/quizzes/1/result", "7", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("result: %d: %s", resp.StatusCode, body)
	}

	// Another user is unaffected.
	resp, _ = doJSON(t, http.MethodGet, server.URL+"/quizzes/1", "8", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected other user allowed, got %d", resp.StatusCode)
	}
}

func TestSubmitWithoutStart(t *testing.T) {
	server := newTestServer(t)

	submission := map[string]any{
		"answers": []map[string]any{
			{"questionId": 1, "answer": 4},
			{"questionId": 2, "answer": 7},
			{"questionId": 3, "answer": 6},
		},
	}
	resp, body := doJSON(t, http.MethodPost, server.URL+"/quizzes/1/submit", "7", submission)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 without a started quiz, got %d: %s", resp.StatusCode, body)
	}
}

func TestSubmitShortAnswerSet(t *testing.T) {
	server := newTestServer(t)

	if resp, _ := doJSON(t, http.MethodGet, server.URL+"/quizzes/1", "7", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("start failed")
	}

	submission := map[string]any{
		"answers": []map[string]any{
			{"questionId": 1, "answer": 4},
			{"questionId": 2, "answer": 7},
		},
	}
	resp, _ := doJSON(t, http.MethodPost, server.URL+"/quizzes/1/submit", "7", submission)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 on short submission, got %d", resp.StatusCode)
	}

	// Nothing was persisted; the quiz can still be submitted.
	resp, _ = doJSON(t, http.MethodGet, server.URL+"/quizzes/1/result", "7", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected no recorded result, got %d", resp.StatusCode)
	}
}

func TestTopResultsEndpoint(t *testing.T) {
	server := newTestServer(t)

	for _, user := range []string{"7", "8"} {
		if resp, _ := doJSON(t, http.MethodGet, server.URL+"/quizzes/1", user, nil); resp.StatusCode != http.StatusOK {
			t.Fatalf("start for %s failed", user)
		}
	}

	perfect := map[string]any{
		"answers": []map[string]any{
			{"questionId": 1, "answer": 4},
			{"questionId": 2, "answer": 7},
			{"questionId": 3, "answer": 6},
		},
	}
	missed := map[string]any{
		"answers": []map[string]any{
			{"questionId": 1, "answer": 4},
			{"questionId": 2, "answer": 0},
			{"questionId": 3, "answer": 6},
		},
	}
	if resp, body := doJSON(t, http.MethodPost, server.URL+"/quizzes/1/submit", "7", missed); resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit 7: %d: %s", resp.StatusCode, body)
	}
	if resp, body := doJSON(t, http.MethodPost, server.URL+"/quizzes/1/submit", "8", perfect); resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit 8: %d: %s", resp.StatusCode, body)
	}

	resp, body := doJSON(t, http.MethodGet, server.URL+"/quizzes/1/top", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("top: %d", resp.StatusCode)
	}
	var entries []domain.ResultEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 2 || entries[0].UserID != 8 {
		t.Fatalf("expected the perfect run leading, got %+v", entries)
	}
}
