package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenheart/ordersync/internal/infrastructure/scheduler"
)

type mockSchedulerInspector struct {
	stats   map[string]interface{}
	history []*scheduler.SyncJob

	lastLimit int
}

func (m *mockSchedulerInspector) Stats() map[string]interface{} { return m.stats }

func (m *mockSchedulerInspector) GetJobHistory(limit int) []*scheduler.SyncJob {
	m.lastLimit = limit
	return m.history
}

func newSystemRouter(inspector SchedulerInspector) *gin.Engine {
	router := gin.New()
	NewSystemHandler(inspector).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func TestSystemHandler_Ping(t *testing.T) {
	router := newSystemRouter(nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/system/ping", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "pong", data["message"])
	assert.NotEmpty(t, data["timestamp"])
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	router := newSystemRouter(nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/system/info", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "Order Sync API", data["name"])
	assert.Equal(t, "1.0.0", data["version"])
	assert.NotEmpty(t, data["go_version"])
	assert.NotEmpty(t, data["uptime"])
}

func TestSystemHandler_GetSchedulerStatus(t *testing.T) {
	now := time.Now().UTC()
	job := &scheduler.SyncJob{
		ID:           uuid.New(),
		ShopID:       testShopID,
		StartTime:    now.Add(-24 * time.Hour),
		EndTime:      now,
		Status:       scheduler.SyncJobStatusSuccess,
		TotalOrders:  10,
		SuccessCount: 10,
	}
	inspector := &mockSchedulerInspector{
		stats:   map[string]interface{}{"running": true, "queued_jobs": 0},
		history: []*scheduler.SyncJob{job},
	}
	router := newSystemRouter(inspector)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/system/scheduler", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 20, inspector.lastLimit)

	resp := decodeResponse(t, w)
	data := resp.Data.(map[string]interface{})
	stats := data["stats"].(map[string]interface{})
	assert.Equal(t, true, stats["running"])

	history := data["history"].([]interface{})
	require.Len(t, history, 1)
	first := history[0].(map[string]interface{})
	assert.Equal(t, string(scheduler.SyncJobStatusSuccess), first["status"])
	assert.Equal(t, float64(10), first["total_orders"])
}

func TestSystemHandler_GetSchedulerStatus_CustomLimit(t *testing.T) {
	inspector := &mockSchedulerInspector{stats: map[string]interface{}{}}
	router := newSystemRouter(inspector)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/system/scheduler?limit=5", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, inspector.lastLimit)
}

func TestSystemHandler_GetSchedulerStatus_BadLimit(t *testing.T) {
	router := newSystemRouter(&mockSchedulerInspector{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/system/scheduler?limit=-1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSystemHandler_GetSchedulerStatus_Disabled(t *testing.T) {
	router := newSystemRouter(nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/system/scheduler", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
