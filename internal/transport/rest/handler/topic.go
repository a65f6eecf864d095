package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"timedquiz/internal/service"
)

// TopicHandler handles time tracking lookups
type TopicHandler struct {
	tracker *service.TimeTracker
	logger  *zap.Logger
}

// NewTopicHandler creates a new topic handler
func NewTopicHandler(tracker *service.TimeTracker, logger *zap.Logger) *TopicHandler {
	return &TopicHandler{
		tracker: tracker,
		logger:  logger,
	}
}

// TimeSpentResponse is returned by TimeSpent
type TimeSpentResponse struct {
	Valid     bool   `json:"valid"`
	UserID    string `json:"userId"`
	TopicID   string `json:"topicId"`
	TotalTime int    `json:"totalTime"`
}

// TimeSpent handles GET /v1/topics/timeSpent/{userId}/{topicId}
func (h *TopicHandler) TimeSpent(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, topicID := vars["userId"], vars["topicId"]

	total, found, err := h.tracker.TimeSpent(r.Context(), userID, topicID)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("time spent lookup failed", zap.Error(err))
			writeError(w, status, "Internal server error.")
			return
		}
		writeError(w, status, err.Error())
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "No time recorded for this topic.")
		return
	}

	writeJSON(w, http.StatusOK, TimeSpentResponse{
		Valid:     true,
		UserID:    userID,
		TopicID:   topicID,
		TotalTime: total,
	})
}
