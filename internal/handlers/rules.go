package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wellspring/maternal-backend/internal/apierr"
	"github.com/wellspring/maternal-backend/internal/services"
)

type RulesHandler struct {
	rulesService services.RulesService
}

func NewRulesHandler(rulesService services.RulesService) *RulesHandler {
	return &RulesHandler{rulesService: rulesService}
}

func (rh *RulesHandler) Get(c *gin.Context) {
	if _, ok := actorFrom(c); !ok {
		return
	}
	cfg, err := rh.rulesService.Get(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, cfg)
}

func (rh *RulesHandler) Update(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req struct {
		RescheduleWindowDays     *int    `json:"reschedule_window_days"`
		PreDueReminderDays       *int    `json:"pre_due_reminder_days"`
		ObservationReminderHours *int    `json:"observation_reminder_hours"`
		MissedAfterDays          *int    `json:"missed_after_days"`
		HospitalName             *string `json:"hospital_name"`
		CertificateFooterNote    *string `json:"certificate_footer_note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errors.New("invalid request body"))
		return
	}

	fields := map[string]any{}
	if req.RescheduleWindowDays != nil {
		fields["reschedule_window_days"] = *req.RescheduleWindowDays
	}
	if req.PreDueReminderDays != nil {
		fields["pre_due_reminder_days"] = *req.PreDueReminderDays
	}
	if req.ObservationReminderHours != nil {
		fields["observation_reminder_hours"] = *req.ObservationReminderHours
	}
	if req.MissedAfterDays != nil {
		fields["missed_after_days"] = *req.MissedAfterDays
	}
	if req.HospitalName != nil {
		fields["hospital_name"] = *req.HospitalName
	}
	if req.CertificateFooterNote != nil {
		fields["certificate_footer_note"] = *req.CertificateFooterNote
	}
	if len(fields) == 0 {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errors.New("no fields to update"))
		return
	}

	cfg, err := rh.rulesService.Update(c.Request.Context(), actor, fields)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, cfg)
}
