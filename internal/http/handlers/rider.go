package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	riderdomain "github.com/Ex-Ignis/RiTrackApp-sub001/internal/domain/rider"
	"github.com/Ex-Ignis/RiTrackApp-sub001/internal/http/middleware"
)

const maxUploadSizeBytes = 20 << 20

type RiderService interface {
	ListRiders(ctx context.Context, tenantID int64, filter riderdomain.ListFilter) ([]riderdomain.Entity, error)
	GetRider(ctx context.Context, tenantID int64, riderID string) (*riderdomain.Entity, error)
	BlockRider(ctx context.Context, tenantID int64, riderID, reason string) error
	UnblockRider(ctx context.Context, tenantID int64, riderID string) error
	IngestMetricsCSV(ctx context.Context, tenantID int64, csvReader io.Reader) (*riderdomain.UploadResult, error)
	Capacity(ctx context.Context, tenantID int64) (*riderdomain.CapacityStatus, error)
}

type RiderHandler struct {
	riderService RiderService
}

func NewRiderHandler(riderService RiderService) *RiderHandler {
	return &RiderHandler{riderService: riderService}
}

func (h *RiderHandler) ListRiders(c *gin.Context) {
	tenantID := middleware.TenantID(c)
	cityID, _ := strconv.ParseInt(strings.TrimSpace(c.Query("city_id")), 10, 64)
	limit, _ := strconv.ParseInt(strings.TrimSpace(c.DefaultQuery("limit", "50")), 10, 32)
	offset, _ := strconv.ParseInt(strings.TrimSpace(c.DefaultQuery("offset", "0")), 10, 32)

	items, err := h.riderService.ListRiders(c.Request.Context(), tenantID, riderdomain.ListFilter{
		CityID: cityID,
		Status: strings.TrimSpace(c.Query("status")),
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_riders_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *RiderHandler) GetRider(c *gin.Context) {
	riderID := strings.TrimSpace(c.Param("riderId"))
	if riderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_rider_id"})
		return
	}
	item, err := h.riderService.GetRider(c.Request.Context(), middleware.TenantID(c), riderID)
	if err != nil {
		if errors.Is(err, riderdomain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "rider_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get_rider_failed"})
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *RiderHandler) BlockRider(c *gin.Context) {
	riderID := strings.TrimSpace(c.Param("riderId"))
	if riderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_rider_id"})
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	if err := h.riderService.BlockRider(c.Request.Context(), middleware.TenantID(c), riderID, req.Reason); err != nil {
		if errors.Is(err, riderdomain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "rider_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "block_rider_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "blocked"})
}

func (h *RiderHandler) UnblockRider(c *gin.Context) {
	riderID := strings.TrimSpace(c.Param("riderId"))
	if riderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_rider_id"})
		return
	}
	if err := h.riderService.UnblockRider(c.Request.Context(), middleware.TenantID(c), riderID); err != nil {
		if errors.Is(err, riderdomain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "rider_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unblock_rider_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "active"})
}

func (h *RiderHandler) UploadMetrics(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_file"})
		return
	}
	if file.Size > maxUploadSizeBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_too_large"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_file"})
		return
	}
	defer src.Close()

	result, err := h.riderService.IngestMetricsCSV(c.Request.Context(), middleware.TenantID(c), src)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload_failed"})
		return
	}

	if len(result.Errors) > 0 && result.Processed == 0 {
		c.JSON(http.StatusBadRequest, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *RiderHandler) Capacity(c *gin.Context) {
	status, err := h.riderService.Capacity(c.Request.Context(), middleware.TenantID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "capacity_failed"})
		return
	}
	c.JSON(http.StatusOK, status)
}
