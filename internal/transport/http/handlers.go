package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pixel-quiz-service/internal/app"
	"pixel-quiz-service/internal/domain"
)

// Handler serves the REST API on top of the quiz use cases.
type Handler struct {
	service *app.QuizService
	log     *zap.Logger
}

func NewHandler(service *app.QuizService, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{service: service, log: log}
}

// countParam reads ?count=N; anything unparsable falls back to the
// configured default.
func countParam(c *gin.Context) int {
	n, err := strconv.Atoi(strings.TrimSpace(c.Query("count")))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Questions serves GET /api/questions?count=N.
func (h *Handler) Questions(c *gin.Context) {
	questions, err := h.service.Questions(c.Request.Context(), countParam(c))
	if err != nil {
		failErr(c, err, nil)
		return
	}
	respond(c, http.StatusOK, questions)
}

type submitResultRequest struct {
	ID             string                      `json:"id"`
	UserID         string                      `json:"userId"`
	Score          int                         `json:"score"`
	TotalQuestions int                         `json:"totalQuestions"`
	Passed         bool                        `json:"passed"`
	Answers        map[string]domain.OptionKey `json:"answers"`
}

type resultResponse struct {
	Summary domain.AttemptSummary `json:"summary"`
	Record  *domain.UserRecord    `json:"record,omitempty"`
}

// SubmitResult serves POST /api/results for client-scored attempts.
func (h *Handler) SubmitResult(c *gin.Context) {
	var req submitResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	userID := req.UserID
	if strings.TrimSpace(userID) == "" {
		userID = req.ID
	}
	answers := make(map[string]domain.OptionKey, len(req.Answers))
	for id, raw := range req.Answers {
		if key, ok := domain.ParseOptionKey(string(raw)); ok {
			raw = key
		}
		answers[id] = raw
	}

	summary, rec, err := h.service.SubmitSummary(c.Request.Context(), domain.AttemptSummary{
		UserID:         userID,
		Score:          req.Score,
		TotalQuestions: req.TotalQuestions,
		Passed:         req.Passed,
		Answers:        answers,
	})
	if err != nil {
		var data interface{}
		if errors.Is(err, domain.ErrPersistence) {
			data = resultResponse{Summary: summary}
		}
		failErr(c, err, data)
		return
	}
	respond(c, http.StatusOK, resultResponse{Summary: summary, Record: &rec})
}

type startSessionRequest struct {
	UserID string `json:"userId"`
	Count  int    `json:"count"`
}

// StartSession serves POST /api/sessions.
func (h *Handler) StartSession(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if req.Count < 0 {
		failErr(c, app.ErrInvalidCount, nil)
		return
	}
	snap, err := h.service.StartSession(c.Request.Context(), req.UserID, req.Count)
	if err != nil {
		failErr(c, err, nil)
		return
	}
	respond(c, http.StatusCreated, snap)
}

// Session serves GET /api/sessions/:id.
func (h *Handler) Session(c *gin.Context) {
	snap, err := h.service.Session(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err, nil)
		return
	}
	respond(c, http.StatusOK, snap)
}

type answerRequest struct {
	Option string `json:"option"`
}

// Answer serves POST /api/sessions/:id/answers.
func (h *Handler) Answer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	result, err := h.service.Answer(c.Request.Context(), c.Param("id"), req.Option)
	if err != nil {
		failErr(c, err, nil)
		return
	}
	respond(c, http.StatusOK, result)
}

// Abandon serves DELETE /api/sessions/:id.
func (h *Handler) Abandon(c *gin.Context) {
	h.service.Abandon(c.Request.Context(), c.Param("id"))
	c.Status(http.StatusNoContent)
}

// Record serves GET /api/users/:id/record.
func (h *Handler) Record(c *gin.Context) {
	rec, err := h.service.Record(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err, nil)
		return
	}
	respond(c, http.StatusOK, rec)
}

// Rules serves GET /api/rules.
func (h *Handler) Rules(c *gin.Context) {
	respond(c, http.StatusOK, h.service.Rules())
}
