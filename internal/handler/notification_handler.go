package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/internal/workflow"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService service.NotificationService
}

func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) RegisterRoutes(router *gin.RouterGroup) {
	notifications := router.Group("/api/notifications")
	{
		notifications.GET("", middleware.RequireRole(workflow.RoleBuyer, workflow.RoleOperations, workflow.RoleManagement, workflow.RoleFinance, workflow.RoleAdmin), h.ListMine)
	}
}

// ListMine returns notifications targeted at the caller's role
// @Summary      List my notifications
// @Description  Retrieves workflow notifications addressed to the caller's role, newest first
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /api/notifications [get]
func (h *NotificationHandler) ListMine(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing actor identity"))
		return
	}

	params := pagination.Parse(c)

	notifications, total, err := h.notificationService.ListForRole(c.Request.Context(), actor.Role, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"notifications": notifications,
		"total":         total,
		"page":          params.Page,
		"limit":         params.Limit,
	}))
}
