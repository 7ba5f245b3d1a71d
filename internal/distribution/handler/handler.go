package handler

import (
	"net/http"

	"leadrouter_backend/internal/distribution/service"
	"leadrouter_backend/internal/distribution/transport"
	"leadrouter_backend/platform/httpkit"
	"leadrouter_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.PUT("/:operatorId/:sourceId", h.Update)
	rg.DELETE("/:operatorId/:sourceId", h.Delete)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	assignment, err := h.svc.CreateAssignment(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, assignment)
}

func (h *Handler) Update(c *gin.Context) {
	operatorID, sourceID, ok := parseEdgeIDs(c)
	if !ok {
		return
	}

	var req transport.UpdateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	assignment, err := h.svc.UpdateAssignment(c.Request.Context(), operatorID, sourceID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, assignment)
}

func (h *Handler) Delete(c *gin.Context) {
	operatorID, sourceID, ok := parseEdgeIDs(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.DeleteAssignment(c.Request.Context(), operatorID, sourceID)) {
		return
	}
	httpkit.OK(c, gin.H{"message": "assignment deleted"})
}

func parseEdgeIDs(c *gin.Context) (operatorID, sourceID uuid.UUID, ok bool) {
	operatorID, err := uuid.Parse(c.Param("operatorId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.Nil, uuid.Nil, false
	}
	sourceID, err = uuid.Parse(c.Param("sourceId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.Nil, uuid.Nil, false
	}
	return operatorID, sourceID, true
}
