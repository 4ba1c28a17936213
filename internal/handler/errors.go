package handler

import (
	"errors"
	"net/http"

	"backend/internal/workflow"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// writeError translates workflow error types into HTTP responses:
// validation errors are 400, authorization guards are 403, state guards
// and concurrent conflicts are 409, missing records are 404.
func writeError(c *gin.Context, err error) {
	var validation *workflow.ValidationError
	if errors.As(err, &validation) {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, validation.Error()))
		return
	}

	if guard, ok := workflow.AsGuard(err); ok {
		status := http.StatusConflict
		if guard.Code == workflow.GuardWrongRole {
			status = http.StatusForbidden
		}
		c.JSON(status, response.Error(status, guard.Error()))
		return
	}

	if errors.Is(err, workflow.ErrNotFound) {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	if errors.Is(err, workflow.ErrConflict) {
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
		return
	}

	c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
}
