package api

import (
	"errors"
	"net/http"

	"github.com/Veraticus/noumi/internal/common"
	"github.com/Veraticus/noumi/internal/model"
	"github.com/Veraticus/noumi/internal/storage"
	"github.com/gin-gonic/gin"
)

var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error string `json:"error"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, common.ErrInvalidInput),
		errors.Is(err, model.ErrMalformedDate),
		errors.Is(err, storage.ErrInvalidUser),
		errors.Is(err, storage.ErrInvalidGoal):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrDuplicateEntry), errors.Is(err, common.ErrNotLinked):
		return http.StatusConflict
	case errors.Is(err, common.ErrMissingConfig):
		return http.StatusServiceUnavailable
	case errors.Is(err, common.ErrPlaidConnection), errors.Is(err, common.ErrPlaidRateLimit):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as a JSON error body. Server errors are logged and their
// detail withheld from the client.
func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	msg, ok := common.UserMessage(err)
	if !ok {
		msg = err.Error()
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", "error", err, "path", c.Request.URL.Path, "request_id", c.GetString(requestIDKey))
		msg = http.StatusText(status)
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}
