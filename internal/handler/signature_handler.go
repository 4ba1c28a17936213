package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/internal/workflow"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type SignatureHandler struct {
	signatureService service.SignatureService
}

func NewSignatureHandler(signatureService service.SignatureService) *SignatureHandler {
	return &SignatureHandler{signatureService: signatureService}
}

func (h *SignatureHandler) RegisterRoutes(router *gin.RouterGroup) {
	signatures := router.Group("/api/signatures")
	{
		signatures.PUT("/me", middleware.RequireRole(workflow.RoleBuyer, workflow.RoleOperations, workflow.RoleManagement, workflow.RoleFinance, workflow.RoleAdmin), h.RegisterMine)
		signatures.GET("/me", middleware.RequireRole(workflow.RoleBuyer, workflow.RoleOperations, workflow.RoleManagement, workflow.RoleFinance, workflow.RoleAdmin), h.GetMine)
	}
}

// RegisterMine uploads or replaces the caller's signature image reference
// @Summary      Register signature
// @Description  Stores the signature image reference used when signing approval stages
// @Tags         signatures
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RegisterSignatureDTO  true  "Signature Payload"
// @Success      200      {object}  response.Response{data=service.SignatureResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/signatures/me [put]
func (h *SignatureHandler) RegisterMine(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing actor identity"))
		return
	}

	var req service.RegisterSignatureDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	sig, err := h.signatureService.Register(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, sig))
}

// GetMine returns the caller's registered signature, if any
// @Summary      Get my signature
// @Tags         signatures
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.SignatureResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/signatures/me [get]
func (h *SignatureHandler) GetMine(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing actor identity"))
		return
	}

	sig, err := h.signatureService.GetByEmail(c.Request.Context(), actor.Email)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, sig))
}
