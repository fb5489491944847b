package routes

import (
	"net/http"
	"time"

	"visaflow/handlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterAcquisitionRoutes sets up the endpoints for the acquisition engine.
func RegisterAcquisitionRoutes(r *gin.Engine, h *handlers.AcquisitionHandler) {
	api := r.Group("/api/appointments")
	{
		api.POST("/book", h.BookAppointment)
		api.GET("/slots", h.FindSlots)
		api.DELETE("/:id", h.CancelAppointment)
		api.POST("/:id/reschedule", h.RescheduleAppointment)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, h *handlers.AcquisitionHandler) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterAcquisitionRoutes(r, h)
}
