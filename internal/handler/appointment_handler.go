package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-appointments-api/internal/dto"
	"github.com/noah-isme/sma-appointments-api/internal/middleware"
	"github.com/noah-isme/sma-appointments-api/internal/models"
	appErrors "github.com/noah-isme/sma-appointments-api/pkg/errors"
	"github.com/noah-isme/sma-appointments-api/pkg/response"
)

type appointmentService interface {
	List(ctx context.Context) ([]models.Appointment, bool, error)
	Export(ctx context.Context, format dto.ExportFormat) (*dto.ExportFile, error)
	GradeLevels() []models.GradeLevel
}

type snapshotSubscriber interface {
	Subscribe(ctx context.Context) (<-chan []models.Appointment, func(), error)
}

// AppointmentHandler serves the dashboard-facing read endpoints.
type AppointmentHandler struct {
	service   appointmentService
	stream    snapshotSubscriber
	heartbeat time.Duration
}

// NewAppointmentHandler constructs the handler. A non-positive heartbeat
// defaults to 15 seconds.
func NewAppointmentHandler(service appointmentService, stream snapshotSubscriber, heartbeat time.Duration) *AppointmentHandler {
	if heartbeat <= 0 {
		heartbeat = 15 * time.Second
	}
	return &AppointmentHandler{service: service, stream: stream, heartbeat: heartbeat}
}

// List godoc
// @Summary List appointments
// @Tags Appointments
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /appointments [get]
func (h *AppointmentHandler) List(c *gin.Context) {
	appointments, cacheHit, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	middleware.SetMeta(c, "total", len(appointments))
	response.JSON(c, http.StatusOK, appointments, middleware.ExtractMeta(c))
}

// Export godoc
// @Summary Export the appointment roster
// @Tags Appointments
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /appointments/export [get]
func (h *AppointmentHandler) Export(c *gin.Context) {
	format := dto.ExportFormat(strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", string(dto.ExportCSV)))))
	file, err := h.service.Export(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Body)
}

// GradeLevels godoc
// @Summary List grade levels
// @Tags Appointments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /grade-levels [get]
func (h *AppointmentHandler) GradeLevels(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.GradeLevels())
}

// Stream godoc
// @Summary Live appointment snapshots
// @Description Server-Sent Events. A "snapshot" event carrying every appointment is sent on connect and after each change.
// @Tags Appointments
// @Produce text/event-stream
// @Success 200 {array} models.Appointment
// @Failure 503 {object} response.Envelope
// @Router /appointments/stream [get]
func (h *AppointmentHandler) Stream(c *gin.Context) {
	if h.stream == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnavailable, "live updates unavailable"))
		return
	}
	ctx := c.Request.Context()

	// subscribe before reading so no change between the two is lost
	updates, unsubscribe, err := h.stream.Subscribe(ctx)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer unsubscribe()

	current, _, err := h.service.List(ctx)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.SSEvent("snapshot", current)
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case snapshot, ok := <-updates:
			if !ok {
				return
			}
			c.SSEvent("snapshot", snapshot)
		case now := <-ticker.C:
			c.SSEvent("heartbeat", now.UTC().Format(time.RFC3339))
		}
		c.Writer.Flush()
	}
}
