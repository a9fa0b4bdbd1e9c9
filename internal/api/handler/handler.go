package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tolkbridge/booking-be/internal/booking/domain"
	"github.com/tolkbridge/booking-be/internal/booking/service"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger  *slog.Logger
	Service *service.Service
}

// BookingHandler handles booking-related HTTP requests
type BookingHandler struct {
	logger  *slog.Logger
	service *service.Service
}

// NewBookingHandler creates a new BookingHandler instance
func NewBookingHandler(deps *Dependencies) *BookingHandler {
	return &BookingHandler{
		logger:  deps.Logger,
		service: deps.Service,
	}
}

// respondError maps domain sentinels to HTTP statuses so handlers
// stay uniform.
func (h *BookingHandler) respondError(c *gin.Context, err error) {
	var validation *domain.ValidationError

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": validation.Reason,
			"field": validation.Field,
		})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrAlreadyBooked):
		c.JSON(http.StatusConflict, gin.H{"error": "you already have a booking at this time"})
	case errors.Is(err, domain.ErrNotAcceptable),
		errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Request failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
