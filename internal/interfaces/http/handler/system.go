package handler

import (
	"runtime"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zenheart/ordersync/internal/infrastructure/scheduler"
)

// SchedulerInspector exposes the running scheduler's state.
type SchedulerInspector interface {
	Stats() map[string]interface{}
	GetJobHistory(limit int) []*scheduler.SyncJob
}

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	startTime time.Time
	scheduler SchedulerInspector
}

// NewSystemHandler creates a new SystemHandler. scheduler may be nil when
// background sync is disabled.
func NewSystemHandler(scheduler SchedulerInspector) *SystemHandler {
	return &SystemHandler{
		startTime: time.Now(),
		scheduler: scheduler,
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name" example:"Order Sync API"`
	Version   string `json:"version" example:"1.0.0"`
	GoVersion string `json:"go_version" example:"go1.25.5"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
}

// GetSystemInfo godoc
// @Summary      Get system information
// @Description  Returns basic system information including version and uptime
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=SystemInfoResponse}
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      "Order Sync API",
		Version:   "1.0.0",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// PingResponse represents the ping response
type PingResponse struct {
	Message   string `json:"message" example:"pong"`
	Timestamp string `json:"timestamp" example:"2026-02-13T10:00:00Z"`
}

// Ping godoc
// @Summary      Ping the API
// @Description  Simple ping endpoint to check if the API is responsive
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=PingResponse}
// @Router       /system/ping [get]
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, PingResponse{
		Message:   "pong",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// SyncJobResponse represents a sync job in API responses
type SyncJobResponse struct {
	ID             string     `json:"id"`
	ShopID         string     `json:"shop_id"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        time.Time  `json:"end_time"`
	Status         string     `json:"status" example:"SUCCESS"`
	Error          string     `json:"error,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	RetryCount     int        `json:"retry_count"`
	TotalOrders    int        `json:"total_orders"`
	SuccessCount   int        `json:"success_count"`
	FailedCount    int        `json:"failed_count"`
	FailedOrderIDs []int64    `json:"failed_order_ids,omitempty"`
}

// SchedulerStatusResponse represents scheduler state
type SchedulerStatusResponse struct {
	Stats   map[string]interface{} `json:"stats"`
	History []SyncJobResponse      `json:"history"`
}

// GetSchedulerStatus godoc
// @Summary      Get scheduler status
// @Description  Returns scheduler statistics and recent sync job history
// @Tags         system
// @Produce      json
// @Param        limit query int false "Maximum history entries" default(20)
// @Success      200 {object} dto.Response{data=SchedulerStatusResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /system/scheduler [get]
func (h *SystemHandler) GetSchedulerStatus(c *gin.Context) {
	if h.scheduler == nil {
		h.NotFound(c, "Background sync is disabled")
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	jobs := h.scheduler.GetJobHistory(limit)
	history := make([]SyncJobResponse, 0, len(jobs))
	for _, job := range jobs {
		history = append(history, toSyncJobResponse(job))
	}

	h.Success(c, SchedulerStatusResponse{
		Stats:   h.scheduler.Stats(),
		History: history,
	})
}

func toSyncJobResponse(job *scheduler.SyncJob) SyncJobResponse {
	return SyncJobResponse{
		ID:             job.ID.String(),
		ShopID:         job.ShopID,
		StartTime:      job.StartTime,
		EndTime:        job.EndTime,
		Status:         string(job.Status),
		Error:          job.Error,
		StartedAt:      job.StartedAt,
		CompletedAt:    job.CompletedAt,
		RetryCount:     job.RetryCount,
		TotalOrders:    job.TotalOrders,
		SuccessCount:   job.SuccessCount,
		FailedCount:    job.FailedCount,
		FailedOrderIDs: job.FailedOrderIDs,
	}
}

// RegisterRoutes registers system routes
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	system := rg.Group("/system")
	{
		system.GET("/info", h.GetSystemInfo)
		system.GET("/ping", h.Ping)
		system.GET("/scheduler", h.GetSchedulerStatus)
	}
}
