package dispatch

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pos-dispatch/internal/order"
	"pos-dispatch/internal/pkg/apperrors"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type SetStatusRequest struct {
	Status        order.Status         `json:"status" binding:"required"`
	PaymentMethod *order.PaymentMethod `json:"payment_method,omitempty"`
}

type OrderResponse struct {
	Order *order.Order `json:"order"`
}

type OrderListResponse struct {
	Orders []*order.Order `json:"orders"`
	Meta   order.PageMeta `json:"meta"`
}

func pageParams(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// -------------------------------------------------------------------------------------------------
func (h *Handler) ListAvailable(c *gin.Context) {
	page, limit := pageParams(c)
	orders, meta, err := h.service.ListAvailable(c.Request.Context(), page, limit)
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}
	c.JSON(http.StatusOK, OrderListResponse{Orders: orders, Meta: meta})
}

// -------------------------------------------------------------------------------------------------
func (h *Handler) ListMine(c *gin.Context) {
	page, limit := pageParams(c)
	driverID := c.GetString("sub")
	orders, meta, err := h.service.ListMine(c.Request.Context(), driverID, page, limit)
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}
	c.JSON(http.StatusOK, OrderListResponse{Orders: orders, Meta: meta})
}

// -------------------------------------------------------------------------------------------------
func (h *Handler) Claim(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION", "message": "invalid order id"}})
		return
	}

	driverID := c.GetString("sub")
	o, err := h.service.Claim(c.Request.Context(), id, driverID)
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}
	c.JSON(http.StatusOK, OrderResponse{Order: o})
}

// -------------------------------------------------------------------------------------------------
func (h *Handler) SetStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION", "message": "invalid order id"}})
		return
	}

	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION", "message": err.Error()}})
		return
	}

	driverID := c.GetString("sub")
	o, err := h.service.SetStatus(c.Request.Context(), id, driverID, req.Status, req.PaymentMethod)
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}
	c.JSON(http.StatusOK, OrderResponse{Order: o})
}
