package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/internal/workflow"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type AmendmentHandler struct {
	amendmentService service.AmendmentService
}

func NewAmendmentHandler(amendmentService service.AmendmentService) *AmendmentHandler {
	return &AmendmentHandler{amendmentService: amendmentService}
}

func (h *AmendmentHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/orders")
	{
		orders.POST("/:id/edit-requests", middleware.RequireRole(workflow.RoleBuyer, workflow.RoleAdmin), h.RequestAmendment)
		orders.GET("/:id/edit-requests", middleware.RequireRole(workflow.RoleBuyer, workflow.RoleOperations, workflow.RoleManagement, workflow.RoleFinance, workflow.RoleAdmin), h.ListByOrder)
	}

	requests := router.Group("/api/edit-requests")
	{
		requests.PUT("/:id/approve", middleware.RequireRole(workflow.RoleOperations, workflow.RoleManagement, workflow.RoleFinance, workflow.RoleAdmin), h.Approve)
		requests.PUT("/:id/reject", middleware.RequireRole(workflow.RoleOperations, workflow.RoleManagement, workflow.RoleFinance, workflow.RoleAdmin), h.Reject)
	}
}

// RequestAmendment opens an edit request against a rejected order
// @Summary      Request amendment
// @Description  Asks an approver to unlock a rejected order for editing
// @Tags         amendments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Order ID"
// @Param        payload  body      service.CreateEditRequestDTO  true  "Amendment Payload"
// @Success      201      {object}  response.Response{data=service.EditRequestResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/orders/{id}/edit-requests [post]
func (h *AmendmentHandler) RequestAmendment(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing actor identity"))
		return
	}

	var req service.CreateEditRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	edit, err := h.amendmentService.RequestAmendment(c.Request.Context(), c.Param("id"), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, edit))
}

// ListByOrder returns every edit request raised against an order
// @Summary      List order edit requests
// @Tags         amendments
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=[]service.EditRequestResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id}/edit-requests [get]
func (h *AmendmentHandler) ListByOrder(c *gin.Context) {
	requests, err := h.amendmentService.ListByOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, requests))
}

// Approve grants a pending edit request and unlocks the order for amendment
// @Summary      Approve edit request
// @Tags         amendments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Edit Request ID"
// @Param        payload  body      service.ResolveEditRequestDTO  false "Resolution Payload"
// @Success      200      {object}  response.Response{data=service.EditRequestResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/edit-requests/{id}/approve [put]
func (h *AmendmentHandler) Approve(c *gin.Context) {
	h.resolve(c, true)
}

// Reject denies a pending edit request; the order stays locked
// @Summary      Reject edit request
// @Tags         amendments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Edit Request ID"
// @Param        payload  body      service.ResolveEditRequestDTO  false "Resolution Payload"
// @Success      200      {object}  response.Response{data=service.EditRequestResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/edit-requests/{id}/reject [put]
func (h *AmendmentHandler) Reject(c *gin.Context) {
	h.resolve(c, false)
}

func (h *AmendmentHandler) resolve(c *gin.Context, approve bool) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing actor identity"))
		return
	}

	// Note body is optional on resolution
	var req service.ResolveEditRequestDTO
	_ = c.ShouldBindJSON(&req)

	edit, err := h.amendmentService.ResolveAmendment(c.Request.Context(), c.Param("id"), actor, approve, req.Note)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, edit))
}
