package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"timedquiz/internal/model"
	"timedquiz/internal/service"
)

// TestHandler handles test session endpoints
type TestHandler struct {
	testSvc *service.TestService
	logger  *zap.Logger
}

// NewTestHandler creates a new test handler
func NewTestHandler(testSvc *service.TestService, logger *zap.Logger) *TestHandler {
	return &TestHandler{
		testSvc: testSvc,
		logger:  logger,
	}
}

// StartResponse is returned by Start
type StartResponse struct {
	Valid bool                  `json:"valid"`
	Token string                `json:"token"`
	Test  *model.TestDescriptor `json:"test"`
}

// SubmitResponse is returned by Submit
type SubmitResponse struct {
	Valid     bool   `json:"valid"`
	IsCorrect bool   `json:"isCorrect"`
	Message   string `json:"message"`
}

// CompleteResponse is returned by End
type CompleteResponse struct {
	Valid   bool           `json:"valid"`
	Message string         `json:"message"`
	Results []model.Result `json:"results"`
}

// SessionResponse is returned by Get
type SessionResponse struct {
	Valid bool `json:"valid"`
	*model.SessionView
}

// ResultsResponse is returned by Results
type ResultsResponse struct {
	Valid   bool           `json:"valid"`
	Results []model.Result `json:"results"`
}

// HistoryResponse is returned by History
type HistoryResponse struct {
	Valid    bool                   `json:"valid"`
	TestID   string                 `json:"testId"`
	Sessions []*model.SessionRecord `json:"sessions"`
}

// Start handles POST /v1/test/start/{testId}
func (h *TestHandler) Start(w http.ResponseWriter, r *http.Request) {
	testID := mux.Vars(r)["testId"]

	started, err := h.testSvc.StartTest(testID)
	if err != nil {
		h.fail(w, err, "Test not found or not active.")
		return
	}

	writeJSON(w, http.StatusCreated, StartResponse{
		Valid: true,
		Token: started.Token,
		Test:  started.Test,
	})
}

// Submit handles POST /v1/test/submit/{token}
func (h *TestHandler) Submit(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	var req model.SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if errors.Is(err, model.ErrInvalidAnswer) {
			writeError(w, http.StatusBadRequest, "Invalid answer format.")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.QuestionID == nil {
		writeError(w, http.StatusBadRequest, "questionId is required.")
		return
	}
	answer, err := req.Answer()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid answer format.")
		return
	}

	isCorrect, err := h.testSvc.SubmitAnswer(token, *req.QuestionID, answer)
	if err != nil {
		h.fail(w, err, submitMessage(err))
		return
	}

	message := "Incorrect answer."
	if isCorrect {
		message = "Correct answer."
	}
	writeJSON(w, http.StatusOK, SubmitResponse{
		Valid:     true,
		IsCorrect: isCorrect,
		Message:   message,
	})
}

func submitMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return "Invalid test session."
	case errors.Is(err, service.ErrTestNotFound):
		return "Test not found."
	case errors.Is(err, service.ErrQuestionNotFound):
		return "Invalid question."
	case errors.Is(err, service.ErrTimeExpired):
		return "Time limit for this question has expired."
	case errors.Is(err, service.ErrAlreadyCompleted):
		return "Test already completed."
	}
	return ""
}

// End handles POST /v1/test/end/{token}
func (h *TestHandler) End(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	results, err := h.testSvc.CompleteTest(token)
	if err != nil {
		message := "Test session not found."
		if errors.Is(err, service.ErrAlreadyCompleted) {
			message = "Test already completed."
		}
		h.fail(w, err, message)
		return
	}

	writeJSON(w, http.StatusOK, CompleteResponse{
		Valid:   true,
		Message: "Test completed successfully.",
		Results: results,
	})
}

// Get handles GET /v1/test/get/{token}
func (h *TestHandler) Get(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	view, err := h.testSvc.GetSessionByToken(r.Context(), token)
	if err != nil {
		message := "Invalid or expired test session."
		if errors.Is(err, service.ErrTestNotFound) {
			message = "Test not found."
		}
		h.fail(w, err, message)
		return
	}

	writeJSON(w, http.StatusOK, SessionResponse{Valid: true, SessionView: view})
}

// Results handles GET /v1/test/results/{token}
func (h *TestHandler) Results(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	results, err := h.testSvc.GetResults(r.Context(), token)
	if err != nil {
		h.fail(w, err, "Invalid test session.")
		return
	}

	writeJSON(w, http.StatusOK, ResultsResponse{Valid: true, Results: results})
}

// History handles GET /v1/test/{testId}/results
func (h *TestHandler) History(w http.ResponseWriter, r *http.Request) {
	testID := mux.Vars(r)["testId"]

	records, err := h.testSvc.ListTestResults(r.Context(), testID)
	if err != nil {
		message := "Test not found."
		if errors.Is(err, service.ErrHistoryUnavailable) {
			message = "Result history is not available."
		}
		h.fail(w, err, message)
		return
	}

	writeJSON(w, http.StatusOK, HistoryResponse{Valid: true, TestID: testID, Sessions: records})
}

// Active handles GET /v1/test/active
func (h *TestHandler) Active(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.testSvc.ListActiveTests())
}

// fail writes a service error; internal errors are logged and not echoed
func (h *TestHandler) fail(w http.ResponseWriter, err error, message string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("test request failed", zap.Error(err))
		writeError(w, status, "Internal server error.")
		return
	}
	if message == "" {
		message = err.Error()
	}
	writeError(w, status, message)
}
