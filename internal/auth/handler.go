package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainerrors "pos-dispatch/internal/errors"
	"pos-dispatch/internal/pkg/apperrors"
)

type Handler struct {
	authService Service
}

func NewHandler(authService Service) *Handler {
	return &Handler{authService: authService}
}

type sessionRequest struct {
	Sub  string `json:"sub" binding:"required"`
	Role string `json:"role" binding:"required"`
}

func (h *Handler) CreateSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.ToHTTPError(c, domainerrors.NewValidation("sub and role are required"))
		return
	}

	token, err := h.authService.GenerateToken(req.Sub, req.Role)
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
