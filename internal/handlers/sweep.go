package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wellspring/maternal-backend/internal/apierr"
	"github.com/wellspring/maternal-backend/internal/services"
)

type SweepHandler struct {
	sweepService services.SweepService
	statsService services.StatsService
}

func NewSweepHandler(sweepService services.SweepService, statsService services.StatsService) *SweepHandler {
	return &SweepHandler{sweepService: sweepService, statsService: statsService}
}

// Run triggers the daily sweep on demand. The optional date query lets
// operators replay a specific day.
func (sh *SweepHandler) Run(c *gin.Context) {
	if _, ok := actorFrom(c); !ok {
		return
	}

	today := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errors.New("date must be YYYY-MM-DD"))
			return
		}
		today = parsed
	}

	result, err := sh.sweepService.Run(c.Request.Context(), today)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}

func (sh *SweepHandler) Stats(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	stats, err := sh.statsService.Overview(c.Request.Context(), actor)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, stats)
}
