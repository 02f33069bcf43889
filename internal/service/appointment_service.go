package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-appointments-api/internal/dto"
	"github.com/noah-isme/sma-appointments-api/internal/models"
	appErrors "github.com/noah-isme/sma-appointments-api/pkg/errors"
	"github.com/noah-isme/sma-appointments-api/pkg/export"
)

const appointmentsCacheKey = "appointments:all"

type appointmentCatalog interface {
	List(ctx context.Context) ([]models.Appointment, error)
	Create(ctx context.Context, appointment *models.Appointment) error
	DeleteAll(ctx context.Context) error
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// AppointmentService serves the read side of the appointment store: the
// cached roster, exports and demo seeding.
type AppointmentService struct {
	store    appointmentCatalog
	cache    *CacheService
	notifier changeNotifier
	metrics  *MetricsService
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
	rand     *rand.Rand
	now      func() time.Time
}

// NewAppointmentService wires the service. cache, notifier and metrics may be nil.
func NewAppointmentService(store appointmentCatalog, cache *CacheService, notifier changeNotifier, metrics *MetricsService, logger *zap.Logger) *AppointmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AppointmentService{
		store:    store,
		cache:    cache,
		notifier: notifier,
		metrics:  metrics,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
	}
}

// List returns every appointment ordered by datetime and whether the result
// came from cache.
func (s *AppointmentService) List(ctx context.Context) ([]models.Appointment, bool, error) {
	var cached []models.Appointment
	if hit, err := s.cache.Get(ctx, appointmentsCacheKey, &cached); err == nil && hit {
		return cached, true, nil
	}

	start := time.Now()
	appointments, err := s.store.List(ctx)
	s.metrics.ObserveStore("list", time.Since(start))
	if err != nil {
		s.logger.Error("failed to list appointments", zap.Error(err))
		return nil, false, appErrors.Wrap(err, appErrors.ErrStoreFailure.Code, appErrors.ErrStoreFailure.Status, "failed to load appointments")
	}
	_ = s.cache.Set(ctx, appointmentsCacheKey, appointments, 0)
	return appointments, false, nil
}

// InvalidateCache drops the cached roster.
func (s *AppointmentService) InvalidateCache(ctx context.Context) error {
	return s.cache.Invalidate(ctx, appointmentsCacheKey)
}

// GradeLevels lists the supported grade levels.
func (s *AppointmentService) GradeLevels() []models.GradeLevel {
	return models.GradeLevels()
}

// Export renders the roster in the requested format.
func (s *AppointmentService) Export(ctx context.Context, format dto.ExportFormat) (*dto.ExportFile, error) {
	appointments, _, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	dataset := RosterDataset(appointments)
	stamp := s.now().UTC().Format("20060102_150405")

	switch format {
	case dto.ExportCSV, "":
		body, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
		}
		return &dto.ExportFile{Filename: "appointments_" + stamp + ".csv", ContentType: "text/csv; charset=utf-8", Body: body}, nil
	case dto.ExportPDF:
		body, err := s.pdf.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
		}
		return &dto.ExportFile{Filename: "appointments_" + stamp + ".pdf", ContentType: "application/pdf", Body: body}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrInvalidRequest, fmt.Sprintf("Bad request: unsupported format %q", format))
	}
}

// RosterDataset flattens appointments into an export table.
func RosterDataset(appointments []models.Appointment) export.Dataset {
	data := export.Dataset{
		Title:   "Appointments",
		Columns: []string{"Datetime", "Time", "Guardian", "Email", "Phone", "Student", "Grade"},
		Rows:    make([][]string, 0, len(appointments)),
	}
	for _, a := range appointments {
		data.Rows = append(data.Rows, []string{
			a.Datetime.UTC().Format(time.RFC3339),
			ReadableTime(a.Datetime),
			a.GuardianName,
			a.GuardianEmail,
			a.GuardianPhone,
			a.StudentName,
			a.StudentGradeLevel.Description,
		})
	}
	return data
}

// SeedOptions controls demo seeding.
type SeedOptions struct {
	Date  time.Time
	Reset bool
}

// Seed inserts the demo appointments on opts.Date (today when zero), after
// clearing the table when Reset is set.
func (s *AppointmentService) Seed(ctx context.Context, opts SeedOptions) ([]models.Appointment, error) {
	if opts.Reset {
		if err := s.store.DeleteAll(ctx); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStoreFailure.Code, appErrors.ErrStoreFailure.Status, "failed to reset appointments")
		}
		s.logger.Info("appointments reset")
	}

	day := opts.Date
	if day.IsZero() {
		day = s.now()
	}
	appointments := DemoAppointments(day, s.rand)
	for i := range appointments {
		if err := s.store.Create(ctx, &appointments[i]); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStoreFailure.Code, appErrors.ErrStoreFailure.Status,
				fmt.Sprintf("failed to seed appointment at %s", appointments[i].Datetime.Format(time.RFC3339)))
		}
	}
	s.logger.Info("appointments seeded", zap.Int("count", len(appointments)), zap.String("date", day.UTC().Format("2006-01-02")))

	_ = s.InvalidateCache(ctx)
	if s.notifier != nil {
		s.notifier.NotifyChanged("seeded")
	}
	return appointments, nil
}

type demoGuardian struct {
	name    string
	ssn     string
	email   string
	phone   string
	student string
	hour    int
	minute  int
}

var demoGuardians = []demoGuardian{
	{name: "John Johnson", ssn: "123456789", email: "john.doe@mail.com", phone: "+1 505-415-9991", student: "Carl", hour: 10},
	{name: "Jane Doe", ssn: "987654321", email: "jane.doe@mail.com", phone: "+1 505-644-6070", student: "Ken", hour: 11, minute: 30},
	{name: "Tom Smith", ssn: "456789123", email: "tom.smith@mail.com", phone: "+1 202-443-2300", student: "Barbie", hour: 13},
	{name: "Emily Johnson", ssn: "789123456", email: "emily.johnson@mail.com", phone: "+1 203-974-0128", student: "Allan", hour: 14, minute: 30},
}

// DemoAppointments builds the four demo appointments on the UTC day of day,
// each with a random grade level.
func DemoAppointments(day time.Time, rng *rand.Rand) []models.Appointment {
	day = day.UTC()
	levels := models.GradeLevels()
	out := make([]models.Appointment, 0, len(demoGuardians))
	for _, g := range demoGuardians {
		ssn := g.ssn
		out = append(out, models.Appointment{
			Datetime:          time.Date(day.Year(), day.Month(), day.Day(), g.hour, g.minute, 0, 0, time.UTC),
			GuardianName:      g.name,
			GuardianSSN:       &ssn,
			GuardianEmail:     strings.ToLower(g.email),
			GuardianPhone:     g.phone,
			StudentName:       g.student,
			StudentGradeLevel: levels[rng.Intn(len(levels))],
		})
	}
	return out
}
