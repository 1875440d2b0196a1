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

type ScheduleHandler struct {
	scheduleService services.ScheduleService
	workflowService services.WorkflowService
}

func NewScheduleHandler(scheduleService services.ScheduleService, workflowService services.WorkflowService) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService, workflowService: workflowService}
}

func parseDateQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, errors.New(name + " must be YYYY-MM-DD")
	}
	return &t, nil
}

func (sh *ScheduleHandler) Get(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	scheduleID, ok := parseIDParam(c, "scheduleID")
	if !ok {
		return
	}
	schedule, err := sh.scheduleService.GetByID(c.Request.Context(), actor, scheduleID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, schedule)
}

// MyView is the caregiver screen: own children, approved entries only.
func (sh *ScheduleHandler) MyView(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	views, err := sh.scheduleService.CaregiverView(c.Request.Context(), actor)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, views)
}

func (sh *ScheduleHandler) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	query := services.ScheduleQuery{Status: c.Query("status")}
	if raw := c.Query("child_id"); raw != "" {
		childID, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errors.New("invalid child_id"))
			return
		}
		query.ChildID = childID
	}
	var err error
	if query.StartDate, err = parseDateQuery(c, "start_date"); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	if query.EndDate, err = parseDateQuery(c, "end_date"); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}

	schedules, err := sh.scheduleService.StaffList(c.Request.Context(), actor, query)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, schedules)
}

func (sh *ScheduleHandler) ChildView(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	childID, ok := parseIDParam(c, "childID")
	if !ok {
		return
	}
	view, err := sh.scheduleService.ChildView(c.Request.Context(), actor, childID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, view)
}

func (sh *ScheduleHandler) Add(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	childID, ok := parseIDParam(c, "childID")
	if !ok {
		return
	}
	var req struct {
		TemplateID string `json:"template_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errors.New("invalid request body"))
		return
	}
	templateID, err := uuid.Parse(req.TemplateID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errors.New("invalid template_id"))
		return
	}

	schedule, err := sh.scheduleService.AddFromTemplate(c.Request.Context(), actor, childID, templateID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, schedule)
}

func (sh *ScheduleHandler) Remove(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	scheduleID, ok := parseIDParam(c, "scheduleID")
	if !ok {
		return
	}
	if err := sh.scheduleService.Remove(c.Request.Context(), actor, scheduleID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

func (sh *ScheduleHandler) Complete(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	scheduleID, ok := parseIDParam(c, "scheduleID")
	if !ok {
		return
	}
	var req struct {
		DateCompleted      string `json:"date_completed"`
		BatchNumber        string `json:"batch_number"`
		Manufacturer       string `json:"manufacturer"`
		AdministrationSite string `json:"administration_site"`
		Notes              string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errors.New("invalid request body"))
		return
	}

	input := services.CompleteInput{
		BatchNumber:        req.BatchNumber,
		Manufacturer:       req.Manufacturer,
		AdministrationSite: req.AdministrationSite,
		Notes:              req.Notes,
	}
	if req.DateCompleted != "" {
		completed, err := time.Parse("2006-01-02", req.DateCompleted)
		if err != nil {
			RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errors.New("date_completed must be YYYY-MM-DD"))
			return
		}
		input.DateCompleted = &completed
	}

	schedule, err := sh.workflowService.Complete(c.Request.Context(), actor, scheduleID, input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, schedule)
}

func (sh *ScheduleHandler) Observe(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	scheduleID, ok := parseIDParam(c, "scheduleID")
	if !ok {
		return
	}
	var req struct {
		Notes string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errors.New("invalid request body"))
		return
	}

	schedule, err := sh.workflowService.Observe(c.Request.Context(), actor, scheduleID, req.Notes)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, schedule)
}

func (sh *ScheduleHandler) Reschedule(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	scheduleID, ok := parseIDParam(c, "scheduleID")
	if !ok {
		return
	}
	var req struct {
		NewDate string `json:"new_date"`
		Reason  string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errors.New("invalid request body"))
		return
	}
	newDate, err := time.Parse("2006-01-02", req.NewDate)
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errors.New("new_date must be YYYY-MM-DD"))
		return
	}

	schedule, err := sh.workflowService.Reschedule(c.Request.Context(), actor, scheduleID, newDate, req.Reason)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, schedule)
}

func (sh *ScheduleHandler) SetStatus(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	scheduleID, ok := parseIDParam(c, "scheduleID")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errors.New("invalid request body"))
		return
	}

	schedule, err := sh.workflowService.SetStatus(c.Request.Context(), actor, scheduleID, req.Status)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, schedule)
}

func (sh *ScheduleHandler) Events(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	scheduleID, ok := parseIDParam(c, "scheduleID")
	if !ok {
		return
	}
	events, err := sh.scheduleService.Events(c.Request.Context(), actor, scheduleID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, events)
}
