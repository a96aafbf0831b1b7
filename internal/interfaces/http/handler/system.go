package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/chrono60/backend/internal/infrastructure/scheduler"
	"github.com/chrono60/backend/internal/interfaces/http/dto"
)

// SystemHandler serves health checks and scheduler administration
type SystemHandler struct {
	BaseHandler
	db        *gorm.DB
	scheduler *scheduler.SettlementScheduler
	startedAt time.Time
}

// NewSystemHandler creates a SystemHandler. The scheduler may be nil
// when settlement is disabled.
func NewSystemHandler(db *gorm.DB, sched *scheduler.SettlementScheduler) *SystemHandler {
	return &SystemHandler{db: db, scheduler: sched, startedAt: time.Now()}
}

// Health handles GET /healthz
func (h *SystemHandler) Health(c *gin.Context) {
	status := "ok"
	dbStatus := "ok"

	sqlDB, err := h.db.DB()
	if err != nil {
		dbStatus = "unavailable"
	} else if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		dbStatus = "unavailable"
	}
	if dbStatus != "ok" {
		status = "degraded"
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":   status,
		"database": dbStatus,
		"uptime":   time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// SchedulerStatus handles GET /api/v1/admin/scheduler
func (h *SystemHandler) SchedulerStatus(c *gin.Context) {
	if h.scheduler == nil {
		h.Success(c, gin.H{"enabled": false})
		return
	}
	status := h.scheduler.GetStatus()
	status["enabled"] = true
	h.Success(c, status)
}

// TriggerSettlement handles POST /api/v1/admin/scheduler/run
func (h *SystemHandler) TriggerSettlement(c *gin.Context) {
	if h.scheduler == nil {
		h.Error(c, http.StatusConflict, dto.ErrCodeInvalidState, "Settlement scheduler is disabled")
		return
	}
	if err := h.scheduler.TriggerManualRun(); err != nil {
		h.Error(c, http.StatusConflict, dto.ErrCodeConflict, err.Error())
		return
	}
	h.Success(c, gin.H{"triggered": true})
}
