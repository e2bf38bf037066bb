package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/travel-voucher/internal/application/workflow"
	"github.com/garyjia/travel-voucher/internal/domain/entity"
)

const (
	headerUserID   = "X-User-ID"
	headerUserRole = "X-User-Role"

	userIDKey   = "user_id"
	userRoleKey = "user_role"
)

// requireUser reads the acting user from headers set by the upstream
// authenticating proxy.
func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(headerUserID))
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "missing " + headerUserID + " header",
			})
			return
		}

		role := workflow.RoleEmployee
		if r := strings.TrimSpace(c.GetHeader(headerUserRole)); r != "" {
			role = workflow.Role(strings.ToLower(r))
		}

		c.Set(userIDKey, userID)
		c.Set(userRoleKey, role)
		c.Next()
	}
}

func actingUser(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func actingRole(c *gin.Context) workflow.Role {
	if role, ok := c.Get(userRoleKey); ok {
		if r, ok := role.(workflow.Role); ok {
			return r
		}
	}
	return workflow.RoleEmployee
}

// statusFor maps domain errors onto HTTP status codes and client messages
func statusFor(err error) (int, string) {
	var transitionErr *entity.TransitionError
	switch {
	case errors.As(err, &transitionErr):
		return http.StatusConflict, transitionErr.Error()
	case errors.Is(err, entity.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, entity.ErrNotOwner), errors.Is(err, entity.ErrUnauthorizedApprover):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, entity.ErrDuplicatePeriod), errors.Is(err, entity.ErrConflict):
		return http.StatusConflict, err.Error()
	case errors.Is(err, entity.ErrNoTripsFound):
		return http.StatusUnprocessableEntity, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func (h *Handlers) fail(c *gin.Context, msg string, err error, keysAndValues ...interface{}) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, append(keysAndValues, "error", err)...)
	} else {
		h.logger.Info(msg, append(keysAndValues, "error", err.Error(), "status", status)...)
	}
	c.JSON(status, Response{Success: false, Error: message})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: message})
}

func forbidden(c *gin.Context, message string) {
	c.JSON(http.StatusForbidden, Response{Success: false, Error: message})
}
