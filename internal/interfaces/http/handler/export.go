package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	appsplitting "github.com/zenheart/ordersync/internal/application/splitting"
	"github.com/zenheart/ordersync/internal/domain/splitting"
)

// ExportService renders sub-order CSV exports.
type ExportService interface {
	Export(ctx context.Context, filter splitting.ExportFilter) (*appsplitting.ExportResult, error)
	ExportToStorage(ctx context.Context, filter splitting.ExportFilter) (*appsplitting.ExportResult, error)
}

// DownloadURLSigner issues presigned download URLs for stored exports.
// Implemented by the S3 storage adapter.
type DownloadURLSigner interface {
	GenerateDownloadURL(ctx context.Context, storageKey string, expiration time.Duration) (string, time.Time, error)
}

// ExportHandler handles sub-order export API endpoints
type ExportHandler struct {
	BaseHandler
	exports ExportService
	signer  DownloadURLSigner
}

// NewExportHandler creates a new ExportHandler. signer may be nil when
// object storage is not configured.
func NewExportHandler(exports ExportService, signer DownloadURLSigner) *ExportHandler {
	return &ExportHandler{
		exports: exports,
		signer:  signer,
	}
}

// Download godoc
// @Summary      Download a sub-order CSV export
// @Description  Render the sub-orders matching the filter as a CSV attachment
// @Tags         exports
// @Produce      text/csv
// @Param        source_order_id query int false "Source order ID"
// @Param        created_at_min query string false "Window lower bound (RFC3339)"
// @Param        created_at_max query string false "Window upper bound (RFC3339)"
// @Success      200 {string} string "CSV file"
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /exports/sub-orders [get]
func (h *ExportHandler) Download(c *gin.Context) {
	filter, ok := parseExportFilter(c, &h.BaseHandler)
	if !ok {
		return
	}

	result, err := h.exports.Export(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	filename := fmt.Sprintf("suborders-%s.csv", time.Now().UTC().Format("20060102T150405Z"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", result.Data)
}

// UploadExportResponse describes a stored export
// @Description Stored export response
type UploadExportResponse struct {
	StorageKey  string `json:"storage_key" example:"exports/suborders-20260213T100000Z.csv"`
	RowCount    int    `json:"row_count" example:"42"`
	DownloadURL string `json:"download_url,omitempty"`
}

// Upload godoc
// @Summary      Upload a sub-order CSV export to object storage
// @Description  Render the export and store it under a timestamped key, returning a presigned download URL when available
// @Tags         exports
// @Produce      json
// @Param        source_order_id query int false "Source order ID"
// @Param        created_at_min query string false "Window lower bound (RFC3339)"
// @Param        created_at_max query string false "Window upper bound (RFC3339)"
// @Success      200 {object} dto.Response{data=UploadExportResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /exports/sub-orders [post]
func (h *ExportHandler) Upload(c *gin.Context) {
	filter, ok := parseExportFilter(c, &h.BaseHandler)
	if !ok {
		return
	}

	result, err := h.exports.ExportToStorage(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := UploadExportResponse{
		StorageKey: result.StorageKey,
		RowCount:   result.RowCount,
	}
	if h.signer != nil {
		// The export is already stored; a failed presign drops the URL
		// from the response rather than failing the request.
		if url, _, err := h.signer.GenerateDownloadURL(c.Request.Context(), result.StorageKey, 0); err == nil {
			resp.DownloadURL = url
		}
	}
	h.Success(c, resp)
}

// RegisterRoutes registers export routes
func (h *ExportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	exports := rg.Group("/exports")
	{
		exports.GET("/sub-orders", h.Download)
		exports.POST("/sub-orders", h.Upload)
	}
}
