package dto

import "github.com/noah-isme/sma-appointments-api/internal/models"

// AppointmentSnapshot is the full appointment set delivered to live dashboards.
type AppointmentSnapshot struct {
	Reason       string               `json:"reason,omitempty"`
	Appointments []models.Appointment `json:"appointments"`
}

// ExportFormat selects the roster export encoding.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// ExportFile is a rendered roster ready to be served.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}
