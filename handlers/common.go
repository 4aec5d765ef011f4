package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"catstagram/apierr"
	"catstagram/logger"
)

const requestTimeout = 10 * time.Second

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// respondError writes the error envelope. Store and unknown failures are
// logged and answered with a generic message.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	status := apierr.Status(err)
	msg := err.Error()
	if status >= 500 {
		log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		msg = "internal error"
	}
	c.JSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: apierr.Code(err)}})
}

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

// bindError turns a failed ShouldBindJSON into a Validation error that
// names the missing fields the way clients spell them.
func bindError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apierr.Validation("invalid request body: %v", err)
	}
	missing := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		name := fe.Field()
		missing = append(missing, strings.ToLower(name[:1])+name[1:])
	}
	return apierr.Validation("missing required fields: %s", strings.Join(missing, ", "))
}
