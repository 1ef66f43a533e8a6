package board

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainerrors "pos-dispatch/internal/errors"
	"pos-dispatch/internal/order"
	"pos-dispatch/internal/pkg/apperrors"
)

type Handler struct {
	boardService Service
}

func NewHandler(boardService Service) *Handler {
	return &Handler{boardService: boardService}
}

type createOrderRequest struct {
	Number          string               `json:"number" binding:"required"`
	Fulfillment     order.Fulfillment    `json:"fulfillment" binding:"required"`
	TotalAmount     float64              `json:"total_amount"`
	CustomerName    string               `json:"customer_name"`
	CustomerPhone   string               `json:"customer_phone"`
	DeliveryAddress *string              `json:"delivery_address"`
	PaymentMethod   *order.PaymentMethod `json:"payment_method"`
	PromisedMinutes int                  `json:"promised_minutes"`
}

func (h *Handler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.ToHTTPError(c, domainerrors.NewValidation(err.Error()))
		return
	}

	o, err := h.boardService.CreateOrder(c.Request.Context(), CreateOrderInput{
		Number:          req.Number,
		Fulfillment:     req.Fulfillment,
		TotalAmount:     req.TotalAmount,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		DeliveryAddress: req.DeliveryAddress,
		PaymentMethod:   req.PaymentMethod,
		PromisedMinutes: req.PromisedMinutes,
	})
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"order": o})
}

func (h *Handler) ListOrders(c *gin.Context) {
	page, limit := parsePagination(c)

	var statusPtr *order.Status
	if s := c.Query("status"); s != "" {
		st := order.Status(s)
		statusPtr = &st
	}

	orders, total, err := h.boardService.ListOrders(c.Request.Context(), statusPtr, page, limit)
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"meta":   order.PageMeta{Page: page, Limit: limit, Total: total},
	})
}

func (h *Handler) ListDrivers(c *gin.Context) {
	page, limit := parsePagination(c)

	drivers, total, err := h.boardService.ListDrivers(c.Request.Context(), page, limit)
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"drivers": drivers,
		"meta":    order.PageMeta{Page: page, Limit: limit, Total: total},
	})
}

func (h *Handler) CompleteOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apperrors.ToHTTPError(c, domainerrors.NewValidation("invalid order id"))
		return
	}

	o, err := h.boardService.CompleteOrder(c.Request.Context(), id, c.GetString("sub"))
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": o})
}

func (h *Handler) CancelOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apperrors.ToHTTPError(c, domainerrors.NewValidation("invalid order id"))
		return
	}

	o, err := h.boardService.CancelOrder(c.Request.Context(), id)
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": o})
}

func parsePagination(c *gin.Context) (int, int) {
	page := 1
	limit := 20
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	if l := c.Query("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}
	return page, limit
}
