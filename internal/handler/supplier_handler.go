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

type SupplierHandler struct {
	supplierService service.SupplierService
}

func NewSupplierHandler(supplierService service.SupplierService) *SupplierHandler {
	return &SupplierHandler{supplierService: supplierService}
}

func (h *SupplierHandler) RegisterRoutes(router *gin.RouterGroup) {
	suppliers := router.Group("/api/suppliers")
	{
		suppliers.POST("", middleware.RequireRole(workflow.RoleOperations, workflow.RoleAdmin), h.Create)
		suppliers.GET("", middleware.RequireRole(workflow.RoleBuyer, workflow.RoleOperations, workflow.RoleManagement, workflow.RoleFinance, workflow.RoleAdmin), h.List)
		suppliers.GET("/:id", middleware.RequireRole(workflow.RoleBuyer, workflow.RoleOperations, workflow.RoleManagement, workflow.RoleFinance, workflow.RoleAdmin), h.Get)
		suppliers.PUT("/:id", middleware.RequireRole(workflow.RoleOperations, workflow.RoleAdmin), h.Update)
		suppliers.DELETE("/:id", middleware.RequireRole(workflow.RoleAdmin), h.Delete)
	}
}

// Create registers a new supplier
// @Summary      Create supplier
// @Tags         suppliers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SupplierDTO  true  "Supplier Payload"
// @Success      201      {object}  response.Response{data=service.SupplierResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/suppliers [post]
func (h *SupplierHandler) Create(c *gin.Context) {
	var req service.SupplierDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	supplier, err := h.supplierService.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, supplier))
}

// List returns a paginated supplier list
// @Summary      List suppliers
// @Tags         suppliers
// @Security     BearerAuth
// @Produce      json
// @Param        search       query     string  false  "Search by name or company"
// @Param        active_only  query     bool    false  "Only active suppliers"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Number of items per page (default 20)"
// @Success      200          {object}  response.Response{data=object}
// @Failure      500          {object}  response.Response
// @Router       /api/suppliers [get]
func (h *SupplierHandler) List(c *gin.Context) {
	params := pagination.Parse(c)
	activeOnly := c.Query("active_only") == "true"

	suppliers, total, err := h.supplierService.List(c.Request.Context(), c.Query("search"), activeOnly, params.Page, params.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"suppliers": suppliers,
		"total":     total,
		"page":      params.Page,
		"limit":     params.Limit,
	}))
}

// Get returns a single supplier by ID
// @Summary      Get supplier
// @Tags         suppliers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Supplier ID"
// @Success      200  {object}  response.Response{data=service.SupplierResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/suppliers/{id} [get]
func (h *SupplierHandler) Get(c *gin.Context) {
	supplier, err := h.supplierService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, supplier))
}

// Update modifies an existing supplier
// @Summary      Update supplier
// @Tags         suppliers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string               true  "Supplier ID"
// @Param        payload  body      service.SupplierDTO  true  "Supplier Payload"
// @Success      200      {object}  response.Response{data=service.SupplierResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/suppliers/{id} [put]
func (h *SupplierHandler) Update(c *gin.Context) {
	var req service.SupplierDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	supplier, err := h.supplierService.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, supplier))
}

// Delete soft-deletes a supplier
// @Summary      Delete supplier
// @Tags         suppliers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Supplier ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/suppliers/{id} [delete]
func (h *SupplierHandler) Delete(c *gin.Context) {
	if err := h.supplierService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Supplier deleted successfully"}))
}
