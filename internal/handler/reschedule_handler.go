package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-appointments-api/internal/dto"
	appErrors "github.com/noah-isme/sma-appointments-api/pkg/errors"
	"github.com/noah-isme/sma-appointments-api/pkg/response"
)

type rescheduleService interface {
	Reschedule(ctx context.Context, req dto.RescheduleRequest) (*dto.RescheduleResult, error)
}

// RescheduleHandler exposes the guardian-facing reschedule endpoint.
type RescheduleHandler struct {
	service rescheduleService
}

// NewRescheduleHandler constructs the handler.
func NewRescheduleHandler(service rescheduleService) *RescheduleHandler {
	return &RescheduleHandler{service: service}
}

// Reschedule godoc
// @Summary Reschedule a guardian appointment
// @Description Moves the guardian's appointment to the requested slot, or answers with readable alternatives.
// @Tags Appointments
// @Accept json
// @Produce json
// @Param payload body dto.RescheduleRequest true "Guardian identifier, date (YYYY-MM-DD) and time (HH:MM[:SS]) in UTC"
// @Success 200 {object} response.MessageBody "Appointment rescheduled"
// @Success 200 {object} response.AlternativesBody "Readable alternative times"
// @Failure 400 {object} response.MessageBody
// @Failure 404 {object} response.MessageBody
// @Failure 409 {object} response.MessageBody
// @Failure 429 {object} response.MessageBody
// @Router /reschedule [post]
func (h *RescheduleHandler) Reschedule(c *gin.Context) {
	if h.service == nil {
		response.ErrorMessage(c, appErrors.ErrInternal)
		return
	}
	var req dto.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// an unreadable body is reported like one with missing fields
		req = dto.RescheduleRequest{}
	}

	result, err := h.service.Reschedule(c.Request.Context(), req)
	if err != nil {
		response.ErrorMessage(c, err)
		return
	}
	if result.Accepted() {
		response.Message(c, http.StatusOK, result.Message)
		return
	}
	response.Alternatives(c, result.AlternativeTimesText)
}
