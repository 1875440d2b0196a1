package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/wellspring/maternal-backend/internal/handlers"
	"github.com/wellspring/maternal-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler     *handlers.AuthHandler
	AuthMiddleware  *middleware.AuthMiddleware
	ChildHandler    *handlers.ChildHandler
	ScheduleHandler *handlers.ScheduleHandler
	ApprovalHandler *handlers.ApprovalHandler
	TemplateHandler *handlers.TemplateHandler
	RulesHandler    *handlers.RulesHandler
	SweepHandler    *handlers.SweepHandler
	AllowOrigins    []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	allowOrigins := cfg.AllowOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/api/register", cfg.AuthHandler.RegisterCaregiver)
	router.POST("/api/login", cfg.AuthHandler.Login)

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/api")
	protected.Use(cfg.AuthMiddleware.RequireAuth())

	// Caregiver-facing
	protected.GET("/children", cfg.ChildHandler.ListMine)
	protected.GET("/children/:childID", cfg.ChildHandler.Get)
	protected.GET("/children/:childID/certificate", cfg.ChildHandler.Certificate)
	protected.GET("/children/:childID/schedules", cfg.ScheduleHandler.ChildView)
	protected.GET("/schedules/mine", cfg.ScheduleHandler.MyView)
	protected.GET("/schedules/:scheduleID", cfg.ScheduleHandler.Get)
	protected.GET("/rules", cfg.RulesHandler.Get)

	// Staff-only
	staff := protected.Group("/")
	staff.Use(cfg.AuthMiddleware.RequireStaff())
	staff.POST("/staff/register", cfg.AuthHandler.RegisterStaff)
	staff.POST("/children", cfg.ChildHandler.Register)
	staff.GET("/staff/children", cfg.ChildHandler.ListAll)
	staff.GET("/schedules", cfg.ScheduleHandler.List)
	staff.POST("/children/:childID/schedules", cfg.ScheduleHandler.Add)
	staff.DELETE("/schedules/:scheduleID", cfg.ScheduleHandler.Remove)
	staff.POST("/schedules/:scheduleID/complete", cfg.ScheduleHandler.Complete)
	staff.POST("/schedules/:scheduleID/observe", cfg.ScheduleHandler.Observe)
	staff.POST("/schedules/:scheduleID/reschedule", cfg.ScheduleHandler.Reschedule)
	staff.POST("/schedules/:scheduleID/status", cfg.ScheduleHandler.SetStatus)
	staff.GET("/schedules/:scheduleID/events", cfg.ScheduleHandler.Events)
	staff.POST("/children/:childID/approve", cfg.ApprovalHandler.Approve)
	staff.GET("/children/:childID/approval", cfg.ApprovalHandler.Get)
	staff.POST("/templates", cfg.TemplateHandler.Create)
	staff.GET("/templates", cfg.TemplateHandler.List)
	staff.PATCH("/templates/:templateID", cfg.TemplateHandler.Update)
	staff.PATCH("/rules", cfg.RulesHandler.Update)
	staff.POST("/sweep/run", cfg.SweepHandler.Run)
	staff.GET("/stats/overview", cfg.SweepHandler.Stats)

	return router
}
