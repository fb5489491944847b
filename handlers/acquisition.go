package handlers

import (
	"net/http"

	"visaflow/models"
	"visaflow/services/acquisition"
	"visaflow/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AcquisitionHandler exposes the hybrid acquisition engine over JSON.
type AcquisitionHandler struct {
	Service acquisition.HybridBookingService
	Logger  *zap.Logger
}

func NewAcquisitionHandler(service acquisition.HybridBookingService, logger *zap.Logger) *AcquisitionHandler {
	return &AcquisitionHandler{Service: service, Logger: logger}
}

// BookAppointment runs the full acquisition flow. The response is always 200
// with the hybrid result; channel failures live inside the result, not in the
// HTTP status.
func (h *AcquisitionHandler) BookAppointment(c *gin.Context) {
	var input struct {
		Request models.BookingRequest       `json:"request"`
		Options models.HybridBookingOptions `json:"options"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	if input.Request.Consulate == "" || input.Request.VisaType == "" {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", "consulate and visaType are required")
		return
	}

	result := h.Service.BookAppointment(c.Request.Context(), input.Request, input.Options)
	c.JSON(http.StatusOK, result)
}

// FindSlots returns the consolidated availability view across all channels.
func (h *AcquisitionHandler) FindSlots(c *gin.Context) {
	country := c.Query("country")
	visaType := c.Query("visaType")
	if country == "" || visaType == "" {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", "country and visaType query parameters are required")
		return
	}

	result, err := h.Service.FindAvailableSlots(c.Request.Context(), country, visaType)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "slot discovery failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}

// CancelAppointment delegates cancellation to the issuing channel.
func (h *AcquisitionHandler) CancelAppointment(c *gin.Context) {
	appointmentID := c.Param("id")
	consulate := c.Query("consulate")
	if consulate == "" {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", "consulate query parameter is required")
		return
	}

	result := h.Service.CancelAppointment(c.Request.Context(), appointmentID, consulate)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, result)
}

// RescheduleAppointment books a replacement before releasing the original.
func (h *AcquisitionHandler) RescheduleAppointment(c *gin.Context) {
	appointmentID := c.Param("id")
	var input struct {
		NewDate   string `json:"newDate" binding:"required"`
		NewTime   string `json:"newTime"`
		Consulate string `json:"consulate" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	result := h.Service.RescheduleAppointment(c.Request.Context(), appointmentID, input.NewDate, input.NewTime, input.Consulate)
	c.JSON(http.StatusOK, result)
}
