package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tolkbridge/booking-be/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "booking-api-service",
		})
	})

	bookingHandler := handler.NewBookingHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		bookings := v1.Group("/bookings")
		{
			// POST /api/v1/bookings - Create a new booking
			bookings.POST("", bookingHandler.CreateBooking)

			// GET /api/v1/bookings - List the caller's live bookings
			bookings.GET("", bookingHandler.ListBookings)

			// GET /api/v1/bookings/history - Finished bookings, paginated
			bookings.GET("/history", bookingHandler.BookingHistory)

			// GET /api/v1/bookings/:job_id - Booking details
			bookings.GET("/:job_id", bookingHandler.GetBooking)

			// PUT /api/v1/bookings/:job_id - Admin edit
			bookings.PUT("/:job_id", bookingHandler.UpdateBooking)

			// POST /api/v1/bookings/:job_id/accept - Translator accepts
			bookings.POST("/:job_id/accept", bookingHandler.AcceptBooking)

			// POST /api/v1/bookings/:job_id/cancel - Withdraw a booking
			bookings.POST("/:job_id/cancel", bookingHandler.CancelBooking)

			// POST /api/v1/bookings/:job_id/end - Complete the session
			bookings.POST("/:job_id/end", bookingHandler.EndBooking)

			// POST /api/v1/bookings/:job_id/customer-not-call - No-show
			bookings.POST("/:job_id/customer-not-call", bookingHandler.CustomerNotCall)

			// POST /api/v1/bookings/:job_id/reopen - Put it back on the market
			bookings.POST("/:job_id/reopen", bookingHandler.ReopenBooking)

			// POST /api/v1/bookings/:job_id/resend-notifications
			bookings.POST("/:job_id/resend-notifications", bookingHandler.ResendNotifications)

			// POST /api/v1/bookings/:job_id/resend-sms
			bookings.POST("/:job_id/resend-sms", bookingHandler.ResendSMS)
		}

		translators := v1.Group("/translators")
		{
			// GET /api/v1/translators/:translator_id/potential-jobs
			translators.GET("/:translator_id/potential-jobs", bookingHandler.PotentialJobs)
		}
	}

	return r
}
