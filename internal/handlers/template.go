package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wellspring/maternal-backend/internal/apierr"
	"github.com/wellspring/maternal-backend/internal/services"
)

type TemplateHandler struct {
	templateService services.TemplateService
}

func NewTemplateHandler(templateService services.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateService: templateService}
}

func (th *TemplateHandler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		OffsetValue int    `json:"offset_value"`
		OffsetUnit  string `json:"offset_unit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errors.New("invalid request body"))
		return
	}

	template, err := th.templateService.Create(c.Request.Context(), actor, services.CreateTemplateInput{
		Name:        req.Name,
		Description: req.Description,
		OffsetValue: req.OffsetValue,
		OffsetUnit:  req.OffsetUnit,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, template)
}

func (th *TemplateHandler) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	templates, err := th.templateService.List(c.Request.Context(), actor)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, templates)
}

func (th *TemplateHandler) Update(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	templateID, ok := parseIDParam(c, "templateID")
	if !ok {
		return
	}
	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		OffsetValue *int    `json:"offset_value"`
		OffsetUnit  *string `json:"offset_unit"`
		IsActive    *bool   `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errors.New("invalid request body"))
		return
	}

	fields := map[string]any{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.OffsetValue != nil {
		fields["offset_value"] = *req.OffsetValue
	}
	if req.OffsetUnit != nil {
		fields["offset_unit"] = *req.OffsetUnit
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}
	if len(fields) == 0 {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errors.New("no fields to update"))
		return
	}

	template, err := th.templateService.Update(c.Request.Context(), actor, templateID, fields)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, template)
}
