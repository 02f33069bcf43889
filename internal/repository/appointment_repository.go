package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-appointments-api/internal/models"
)

// ErrSlotConflict is returned when a conditional datetime update did not apply,
// either because the appointment moved meanwhile or the target slot was taken.
var ErrSlotConflict = errors.New("appointment slot conflict")

const uniqueViolation = "23505"

const appointmentColumns = `id, datetime, guardian_name, guardian_email, guardian_phone, guardian_ssn, student_name, student_grade_code, student_grade_description, created_at, updated_at`

type appointmentRow struct {
	ID               string         `db:"id"`
	Datetime         time.Time      `db:"datetime"`
	GuardianName     string         `db:"guardian_name"`
	GuardianEmail    string         `db:"guardian_email"`
	GuardianPhone    string         `db:"guardian_phone"`
	GuardianSSN      sql.NullString `db:"guardian_ssn"`
	StudentName      string         `db:"student_name"`
	GradeCode        string         `db:"student_grade_code"`
	GradeDescription string         `db:"student_grade_description"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func (r appointmentRow) toModel() models.Appointment {
	a := models.Appointment{
		ID:            r.ID,
		Datetime:      r.Datetime.UTC(),
		GuardianName:  r.GuardianName,
		GuardianEmail: r.GuardianEmail,
		GuardianPhone: r.GuardianPhone,
		StudentName:   r.StudentName,
		StudentGradeLevel: models.GradeLevel{
			Code:        r.GradeCode,
			Description: r.GradeDescription,
		},
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
	if r.GuardianSSN.Valid {
		ssn := r.GuardianSSN.String
		a.GuardianSSN = &ssn
	}
	return a
}

func rowFromModel(a *models.Appointment) appointmentRow {
	row := appointmentRow{
		ID:               a.ID,
		Datetime:         a.Datetime.UTC(),
		GuardianName:     a.GuardianName,
		GuardianEmail:    a.GuardianEmail,
		GuardianPhone:    a.GuardianPhone,
		StudentName:      a.StudentName,
		GradeCode:        a.StudentGradeLevel.Code,
		GradeDescription: a.StudentGradeLevel.Description,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
	if a.GuardianSSN != nil {
		row.GuardianSSN = sql.NullString{String: *a.GuardianSSN, Valid: true}
	}
	return row
}

// AppointmentRepository persists appointments in PostgreSQL.
type AppointmentRepository struct {
	db *sqlx.DB
}

// NewAppointmentRepository instantiates the repository.
func NewAppointmentRepository(db *sqlx.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// List returns every appointment ordered by datetime.
func (r *AppointmentRepository) List(ctx context.Context) ([]models.Appointment, error) {
	query := fmt.Sprintf("SELECT %s FROM appointments ORDER BY datetime ASC, id ASC", appointmentColumns)
	var rows []appointmentRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	appointments := make([]models.Appointment, 0, len(rows))
	for _, row := range rows {
		appointments = append(appointments, row.toModel())
	}
	return appointments, nil
}

// Create inserts a new appointment, assigning an ID when missing.
func (r *AppointmentRepository) Create(ctx context.Context, appointment *models.Appointment) error {
	if appointment.ID == "" {
		appointment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if appointment.CreatedAt.IsZero() {
		appointment.CreatedAt = now
	}
	appointment.UpdatedAt = now
	appointment.Datetime = appointment.Datetime.UTC().Truncate(time.Minute)

	const query = `INSERT INTO appointments (id, datetime, guardian_name, guardian_email, guardian_phone, guardian_ssn, student_name, student_grade_code, student_grade_description, created_at, updated_at) VALUES (:id, :datetime, :guardian_name, :guardian_email, :guardian_phone, :guardian_ssn, :student_name, :student_grade_code, :student_grade_description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rowFromModel(appointment)); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create appointment: %w", ErrSlotConflict)
		}
		return fmt.Errorf("create appointment: %w", err)
	}
	return nil
}

// UpdateDatetime moves an appointment to next only while it still holds expected
// and no other appointment holds next.
func (r *AppointmentRepository) UpdateDatetime(ctx context.Context, id string, expected, next time.Time) error {
	const query = `UPDATE appointments SET datetime = $1, updated_at = $2 WHERE id = $3 AND datetime = $4 AND NOT EXISTS (SELECT 1 FROM appointments WHERE datetime = $1 AND id <> $3)`
	result, err := r.db.ExecContext(ctx, query, next.UTC(), time.Now().UTC(), id, expected.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlotConflict
		}
		return fmt.Errorf("update appointment datetime: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update appointment datetime: %w", err)
	}
	if rows == 0 {
		return ErrSlotConflict
	}
	return nil
}

// DeleteAll removes every appointment. Used by the seed command's reset flag.
func (r *AppointmentRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM appointments`); err != nil {
		return fmt.Errorf("delete appointments: %w", err)
	}
	return nil
}

// Ping checks database connectivity for readiness probes.
func (r *AppointmentRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}
