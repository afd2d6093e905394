package http

import (
	"errors"
	"net/http"

	"github.com/comitanigiacomo/kanso-habit-tracker/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-habit-tracker/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-tracker/internal/core/services"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

var badRequestErrors = []error{
	domain.ErrHabitNameTooLong,
	domain.ErrInvalidColor,
	domain.ErrInvalidDateKey,
	domain.ErrIndexOutOfRange,
	domain.ErrInvalidReminder,
	domain.ErrReminderTimeRequired,
	domain.ErrInvalidMonth,
	domain.ErrInvalidEmail,
	domain.ErrPasswordTooShort,
	services.ErrInvalidStatsRange,
}

// respondError maps domain and service errors to a status code. Anything
// unrecognized is a 500 and is attached to the context for the access log.
func respondError(c *gin.Context, err error) {
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
	}

	switch {
	case errors.Is(err, domain.ErrHabitNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: "habit not found"})
	case errors.Is(err, domain.ErrHabitConflict):
		c.JSON(http.StatusConflict, errorResponse{
			Error:   "version conflict",
			Message: "Data has been modified elsewhere. Reload and retry.",
		})
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		c.JSON(http.StatusConflict, errorResponse{Error: "email already exists"})
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "invalid email or password"})
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

// currentUser reads the id set by the auth middleware and answers 401
// when it is missing.
func currentUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, domain.ErrUnauthorized)
		return "", false
	}
	return userID, true
}
