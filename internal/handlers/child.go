package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wellspring/maternal-backend/internal/apierr"
	"github.com/wellspring/maternal-backend/internal/services"
)

type ChildHandler struct {
	childService services.ChildService
	certService  services.CertificateService
}

func NewChildHandler(childService services.ChildService, certService services.CertificateService) *ChildHandler {
	return &ChildHandler{childService: childService, certService: certService}
}

func (ch *ChildHandler) Register(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req struct {
		CaregiverID string `json:"caregiver_id"`
		Name        string `json:"name"`
		DateOfBirth string `json:"date_of_birth"`
		Gender      string `json:"gender"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errors.New("invalid request body"))
		return
	}
	caregiverID, err := uuid.Parse(req.CaregiverID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errors.New("invalid caregiver_id"))
		return
	}
	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errors.New("date_of_birth must be YYYY-MM-DD"))
		return
	}

	child, err := ch.childService.Register(c.Request.Context(), actor, services.RegisterChildInput{
		CaregiverID: caregiverID,
		Name:        req.Name,
		DateOfBirth: dob,
		Gender:      req.Gender,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, child)
}

func (ch *ChildHandler) Get(c *gin.Context) {
	if _, ok := actorFrom(c); !ok {
		return
	}
	childID, ok := parseIDParam(c, "childID")
	if !ok {
		return
	}
	child, err := ch.childService.GetByID(c.Request.Context(), childID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, child)
}

func (ch *ChildHandler) ListMine(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	children, err := ch.childService.ListForCaregiver(c.Request.Context(), actor)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, children)
}

func (ch *ChildHandler) ListAll(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	children, err := ch.childService.List(c.Request.Context(), actor)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, children)
}

func (ch *ChildHandler) Certificate(c *gin.Context) {
	if _, ok := actorFrom(c); !ok {
		return
	}
	childID, ok := parseIDParam(c, "childID")
	if !ok {
		return
	}
	cert, err := ch.certService.GetByChildID(c.Request.Context(), childID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, cert)
}
