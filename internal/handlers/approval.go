package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wellspring/maternal-backend/internal/apierr"
	"github.com/wellspring/maternal-backend/internal/services"
)

type ApprovalHandler struct {
	approvalService services.ApprovalService
}

func NewApprovalHandler(approvalService services.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService}
}

func (ah *ApprovalHandler) Approve(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	childID, ok := parseIDParam(c, "childID")
	if !ok {
		return
	}
	var req struct {
		Notes string `json:"notes"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errors.New("invalid request body"))
			return
		}
	}

	record, err := ah.approvalService.Approve(c.Request.Context(), actor, childID, req.Notes)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, record)
}

func (ah *ApprovalHandler) Get(c *gin.Context) {
	if _, ok := actorFrom(c); !ok {
		return
	}
	childID, ok := parseIDParam(c, "childID")
	if !ok {
		return
	}
	record, err := ah.approvalService.GetByChildID(c.Request.Context(), childID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, record)
}
