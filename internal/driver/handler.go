package driver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pos-dispatch/internal/pkg/apperrors"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type ReportPositionRequest struct {
	Latitude  float64  `json:"latitude" binding:"required"`
	Longitude float64  `json:"longitude" binding:"required"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	OrderID   *string  `json:"order_id,omitempty"`
}

type ReportPositionResponse struct {
	Tracking       bool    `json:"tracking"`
	CurrentOrderID *string `json:"current_order_id,omitempty"`
}

func (h *Handler) ReportPosition(c *gin.Context) {
	var req ReportPositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION", "message": err.Error()}})
		return
	}

	var orderID *uuid.UUID
	if req.OrderID != nil {
		id, err := uuid.Parse(*req.OrderID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION", "message": "invalid order id"}})
			return
		}
		orderID = &id
	}

	driverID := c.GetString("sub")
	d, err := h.service.ReportPosition(c.Request.Context(), driverID, req.Latitude, req.Longitude, req.Accuracy, orderID)
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}

	resp := ReportPositionResponse{Tracking: d.Tracking}
	if d.CurrentOrderID != nil {
		s := d.CurrentOrderID.String()
		resp.CurrentOrderID = &s
	}
	c.JSON(http.StatusOK, resp)
}

// GetPosition serves the board's "where is this driver now" lookup.
func (h *Handler) GetPosition(c *gin.Context) {
	p, err := h.service.GetPosition(c.Request.Context(), c.Param("id"))
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"position": p})
}

func (h *Handler) StopTracking(c *gin.Context) {
	driverID := c.GetString("sub")
	if err := h.service.StopTracking(c.Request.Context(), driverID); err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "tracking stopped"})
}
