package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	appsplitting "github.com/zenheart/ordersync/internal/application/splitting"
	"github.com/zenheart/ordersync/internal/domain/splitting"
	"github.com/zenheart/ordersync/internal/interfaces/http/dto"
)

// SplitService is the application surface the order endpoints drive.
type SplitService interface {
	ShopID() string
	IngestSnapshot(ctx context.Context, payload []byte) (*appsplitting.SplitOutcome, error)
	SplitOrder(ctx context.Context, sourceOrderID int64) (*appsplitting.SplitOutcome, error)
	SplitRange(ctx context.Context, min, max time.Time) (*appsplitting.SyncResult, error)
	ListSubOrders(ctx context.Context, filter splitting.ExportFilter) ([]splitting.SubOrder, error)
}

// SyncScheduler enqueues platform sync jobs.
type SyncScheduler interface {
	ScheduleSync(startTime, endTime time.Time) error
	ScheduleSyncWithLookback() error
}

// OrderHandler handles order sync and split API endpoints
type OrderHandler struct {
	BaseHandler
	service   SplitService
	scheduler SyncScheduler
}

// NewOrderHandler creates a new OrderHandler. scheduler may be nil when
// background sync is disabled; the sync endpoint then answers 503.
func NewOrderHandler(service SplitService, scheduler SyncScheduler) *OrderHandler {
	return &OrderHandler{
		service:   service,
		scheduler: scheduler,
	}
}

// TimeRangeRequest represents a request scoped to an order creation window
// @Description Time window in RFC3339; both bounds empty means the configured lookback
type TimeRangeRequest struct {
	StartTime string `json:"start_time" example:"2026-02-13T00:00:00Z"`
	EndTime   string `json:"end_time" example:"2026-02-14T00:00:00Z"`
}

// parseWindow parses both bounds of a TimeRangeRequest. ok is false and a
// response has been written when either bound is malformed.
func (h *OrderHandler) parseWindow(c *gin.Context, req TimeRangeRequest) (start, end time.Time, ok bool) {
	var err error
	if req.StartTime != "" {
		start, err = time.Parse(time.RFC3339, req.StartTime)
		if err != nil {
			h.BadRequest(c, "start_time must be RFC3339")
			return start, end, false
		}
	}
	if req.EndTime != "" {
		end, err = time.Parse(time.RFC3339, req.EndTime)
		if err != nil {
			h.BadRequest(c, "end_time must be RFC3339")
			return start, end, false
		}
	}
	return start, end, true
}

// SyncAcceptedResponse acknowledges an enqueued sync job
// @Description Sync job acknowledgement
type SyncAcceptedResponse struct {
	ShopID    string `json:"shop_id" example:"teststore.myshopify.com"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
}

// TriggerSync godoc
// @Summary      Trigger a platform order sync
// @Description  Enqueue a sync job for the given window, or the configured lookback when no window is supplied
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body TimeRangeRequest false "Sync window"
// @Success      202 {object} dto.Response{data=SyncAcceptedResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/sync [post]
func (h *OrderHandler) TriggerSync(c *gin.Context) {
	if h.scheduler == nil {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeSyncDisabled, "Background sync is disabled")
		return
	}

	var req TimeRangeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}

	if req.StartTime == "" && req.EndTime == "" {
		if err := h.scheduler.ScheduleSyncWithLookback(); err != nil {
			h.HandleError(c, err)
			return
		}
		h.Accepted(c, SyncAcceptedResponse{ShopID: h.service.ShopID()})
		return
	}

	start, end, ok := h.parseWindow(c, req)
	if !ok {
		return
	}
	if err := h.scheduler.ScheduleSync(start, end); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, SyncAcceptedResponse{
		ShopID:    h.service.ShopID(),
		StartTime: start.Format(time.RFC3339),
		EndTime:   end.Format(time.RFC3339),
	})
}

// IngestSnapshot godoc
// @Summary      Ingest a raw order snapshot
// @Description  Store a platform order payload and derive its sub-order set
// @Tags         orders
// @Accept       json
// @Produce      json
// @Success      200 {object} dto.Response{data=SplitOutcomeResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/snapshots [post]
func (h *OrderHandler) IngestSnapshot(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.BadRequest(c, "Failed to read request body")
		return
	}
	if len(payload) == 0 {
		h.BadRequest(c, "Request body is required")
		return
	}

	outcome, err := h.service.IngestSnapshot(c.Request.Context(), payload)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toSplitOutcomeResponse(outcome))
}

// SplitOrder godoc
// @Summary      Re-split a stored order
// @Description  Re-derive the sub-order set of an already stored snapshot
// @Tags         orders
// @Produce      json
// @Param        id path int true "Source order ID"
// @Success      200 {object} dto.Response{data=SplitOutcomeResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/split [post]
func (h *OrderHandler) SplitOrder(c *gin.Context) {
	sourceOrderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || sourceOrderID <= 0 {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	outcome, err := h.service.SplitOrder(c.Request.Context(), sourceOrderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toSplitOutcomeResponse(outcome))
}

// SplitRange godoc
// @Summary      Re-split stored orders in a window
// @Description  Re-derive sub-order sets for every stored snapshot in the window, e.g. after a region table change
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body TimeRangeRequest true "Order creation window"
// @Success      200 {object} dto.Response{data=SyncResultResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/resplit [post]
func (h *OrderHandler) SplitRange(c *gin.Context) {
	var req TimeRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.StartTime == "" || req.EndTime == "" {
		h.BadRequest(c, "start_time and end_time are required")
		return
	}

	start, end, ok := h.parseWindow(c, req)
	if !ok {
		return
	}
	if end.Before(start) {
		h.BadRequest(c, "end_time must not precede start_time")
		return
	}

	result, err := h.service.SplitRange(c.Request.Context(), start, end)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toSyncResultResponse(result))
}

// ListSubOrders godoc
// @Summary      List persisted sub-orders
// @Description  List sub-orders, optionally filtered by source order or creation window
// @Tags         sub-orders
// @Produce      json
// @Param        source_order_id query int false "Source order ID"
// @Param        created_at_min query string false "Window lower bound (RFC3339)"
// @Param        created_at_max query string false "Window upper bound (RFC3339)"
// @Success      200 {object} dto.Response{data=[]SubOrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /sub-orders [get]
func (h *OrderHandler) ListSubOrders(c *gin.Context) {
	filter, ok := parseExportFilter(c, &h.BaseHandler)
	if !ok {
		return
	}

	subOrders, err := h.service.ListSubOrders(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]SubOrderResponse, 0, len(subOrders))
	for i := range subOrders {
		responses = append(responses, toSubOrderResponse(&subOrders[i]))
	}
	h.Success(c, responses)
}

// parseExportFilter reads the shared sub-order filter query parameters. ok
// is false and a response has been written on a malformed parameter.
func parseExportFilter(c *gin.Context, base *BaseHandler) (splitting.ExportFilter, bool) {
	var filter splitting.ExportFilter

	if raw := c.Query("source_order_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			base.BadRequest(c, "source_order_id must be a positive integer")
			return filter, false
		}
		filter.SourceOrderID = &id
	}
	if raw := c.Query("created_at_min"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			base.BadRequest(c, "created_at_min must be RFC3339")
			return filter, false
		}
		filter.CreatedAtMin = &t
	}
	if raw := c.Query("created_at_max"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			base.BadRequest(c, "created_at_max must be RFC3339")
			return filter, false
		}
		filter.CreatedAtMax = &t
	}
	return filter, true
}

// RegisterRoutes registers order and sub-order routes
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	{
		orders.POST("/sync", h.TriggerSync)
		orders.POST("/snapshots", h.IngestSnapshot)
		orders.POST("/:id/split", h.SplitOrder)
		orders.POST("/resplit", h.SplitRange)
	}
	rg.GET("/sub-orders", h.ListSubOrders)
}
