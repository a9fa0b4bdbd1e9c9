package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tolkbridge/booking-be/internal/api/dto"
	"github.com/tolkbridge/booking-be/internal/booking/domain"
	"github.com/tolkbridge/booking-be/internal/booking/service"
)

// CreateBooking handles POST /api/v1/bookings
// Stores a new interpretation booking and solicits translators
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	var due time.Time
	if req.Due != "" {
		parsed, err := time.Parse(time.RFC3339, req.Due)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "due must be RFC 3339",
			})
			return
		}
		due = parsed
	}

	job, err := h.service.Create(c.Request.Context(), service.CreateParams{
		UserID:         req.UserID,
		FromLanguageID: req.FromLanguageID,
		Immediate:      req.Immediate,
		Due:            due,
		Duration:       req.Duration,
		JobFor:         dto.NormalizeJobFor(req.JobFor),
		CustomerPhone:  req.CustomerPhone,
		CustomerOnSite: req.CustomerOnSite,
		Town:           req.Town,
		Reference:      req.Reference,
		UserEmail:      req.UserEmail,
		ByAdmin:        req.ByAdmin,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromDomain(job))
}

// GetBooking handles GET /api/v1/bookings/:job_id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	jobID := c.Param("job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	job, err := h.service.GetJob(c.Request.Context(), jobID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromDomain(job))
}

// ListBookings handles GET /api/v1/bookings
// Returns the caller's live bookings split into emergency and normal
func (h *BookingHandler) ListBookings(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "user_id is required",
		})
		return
	}

	list, err := h.service.ActiveJobs(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.BookingListResponse{
		Emergency: dto.FromDomainList(list.Emergency),
		Normal:    dto.FromDomainList(list.Normal),
	})
}

// BookingHistory handles GET /api/v1/bookings/history
// Returns the caller's finished bookings, keyset-paginated
func (h *BookingHandler) BookingHistory(c *gin.Context) {
	var req dto.HistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}
	if req.PageSize <= 0 {
		req.PageSize = 15
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	cursor, err := DecodeHistoryCursor(req.Cursor)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return
	}

	var afterDue time.Time
	var afterID string
	if cursor != nil {
		afterDue = cursor.Due
		afterID = cursor.JobID
	}

	// Fetch one extra row to know whether a next page exists.
	jobs, err := h.service.JobHistory(c.Request.Context(), req.UserID, req.PageSize+1, afterDue, afterID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	hasMore := len(jobs) > req.PageSize
	if hasMore {
		jobs = jobs[:req.PageSize]
	}

	var nextCursor string
	if hasMore {
		last := jobs[len(jobs)-1]
		nextCursor = EncodeHistoryCursor(&HistoryCursor{Due: last.Due, JobID: last.ID})
	}

	c.JSON(http.StatusOK, dto.HistoryResponse{
		Jobs:       dto.FromDomainList(jobs),
		NextCursor: nextCursor,
	})
}

// AcceptBooking handles POST /api/v1/bookings/:job_id/accept
func (h *BookingHandler) AcceptBooking(c *gin.Context) {
	jobID := c.Param("job_id")
	var req dto.UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "user_id is required",
		})
		return
	}

	job, err := h.service.Accept(c.Request.Context(), jobID, req.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromDomain(job))
}

// CancelBooking handles POST /api/v1/bookings/:job_id/cancel
// The caller's role picks the customer or translator cancel path
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	jobID := c.Param("job_id")
	var req dto.UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "user_id is required",
		})
		return
	}

	job, err := h.service.Cancel(c.Request.Context(), jobID, req.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromDomain(job))
}

// EndBooking handles POST /api/v1/bookings/:job_id/end
func (h *BookingHandler) EndBooking(c *gin.Context) {
	jobID := c.Param("job_id")
	var req dto.UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "user_id is required",
		})
		return
	}

	job, err := h.service.End(c.Request.Context(), jobID, req.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromDomain(job))
}

// CustomerNotCall handles POST /api/v1/bookings/:job_id/customer-not-call
func (h *BookingHandler) CustomerNotCall(c *gin.Context) {
	jobID := c.Param("job_id")
	var req dto.UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "user_id is required",
		})
		return
	}

	job, err := h.service.CustomerNotCall(c.Request.Context(), jobID, req.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromDomain(job))
}

// ReopenBooking handles POST /api/v1/bookings/:job_id/reopen
func (h *BookingHandler) ReopenBooking(c *gin.Context) {
	jobID := c.Param("job_id")

	job, err := h.service.Reopen(c.Request.Context(), jobID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromDomain(job))
}

// UpdateBooking handles PUT /api/v1/bookings/:job_id
// Admin edit: schedule, language, translator, and guarded status moves
func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	jobID := c.Param("job_id")
	var req dto.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	params := service.UpdateParams{
		FromLanguageID:  req.FromLanguageID,
		TranslatorID:    req.TranslatorID,
		TranslatorEmail: req.TranslatorEmail,
		Status:          domain.JobStatus(req.Status),
		SessionTime:     req.SessionTime,
		AdminComments:   req.AdminComments,
		Reference:       req.Reference,
	}
	if req.Due != "" {
		due, err := time.Parse(time.RFC3339, req.Due)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "due must be RFC 3339",
			})
			return
		}
		params.Due = &due
	}

	job, changes, err := h.service.AdminUpdate(c.Request.Context(), jobID, params)
	if err != nil {
		h.respondError(c, err)
		return
	}

	changeDTOs := make([]dto.ChangeDTO, len(changes))
	for i, change := range changes {
		changeDTOs[i] = dto.ChangeDTO{Field: change.Field, Old: change.Old, New: change.New}
	}
	c.JSON(http.StatusOK, gin.H{
		"booking": dto.FromDomain(job),
		"changes": changeDTOs,
	})
}

// PotentialJobs handles GET /api/v1/translators/:translator_id/potential-jobs
func (h *BookingHandler) PotentialJobs(c *gin.Context) {
	translatorID := c.Param("translator_id")

	jobs, err := h.service.PotentialJobs(c.Request.Context(), translatorID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"jobs": dto.FromDomainList(jobs),
	})
}

// ResendNotifications handles POST /api/v1/bookings/:job_id/resend-notifications
func (h *BookingHandler) ResendNotifications(c *gin.Context) {
	jobID := c.Param("job_id")

	if err := h.service.ResendNotifications(c.Request.Context(), jobID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": "Push sent"})
}

// ResendSMS handles POST /api/v1/bookings/:job_id/resend-sms
func (h *BookingHandler) ResendSMS(c *gin.Context) {
	jobID := c.Param("job_id")

	sent, err := h.service.ResendSMS(c.Request.Context(), jobID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": "SMS sent", "count": sent})
}
