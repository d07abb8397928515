package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pixel-quiz-service/internal/app"
	"pixel-quiz-service/internal/domain"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// envelope is the body of every REST response.
type envelope struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func respond(c *gin.Context, code int, data interface{}) {
	c.JSON(code, envelope{Status: statusSuccess, Data: data})
}

func fail(c *gin.Context, code int, message string, data interface{}) {
	c.AbortWithStatusJSON(code, envelope{Status: statusError, Message: message, Data: data})
}

// statusFor maps domain errors onto HTTP status codes. Lifecycle conflicts are
// checked before input errors since an out-of-sequence answer matches both.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionCompleted),
		errors.Is(err, domain.ErrSessionNotStarted),
		errors.Is(err, domain.ErrSessionStarted):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidAnswerInput),
		errors.Is(err, domain.ErrInvalidUserID),
		errors.Is(err, domain.ErrInvalidSummary),
		errors.Is(err, app.ErrInvalidCount):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNoQuestionsAvailable),
		errors.Is(err, domain.ErrPersistence):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func failErr(c *gin.Context, err error, data interface{}) {
	code := statusFor(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		message = "internal error"
	}
	_ = c.Error(err)
	fail(c, code, message, data)
}
