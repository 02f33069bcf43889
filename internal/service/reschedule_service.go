package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-appointments-api/internal/dto"
	"github.com/noah-isme/sma-appointments-api/internal/models"
	"github.com/noah-isme/sma-appointments-api/internal/repository"
	appErrors "github.com/noah-isme/sma-appointments-api/pkg/errors"
)

const rescheduledMessage = "Appointment rescheduled"

type appointmentStore interface {
	List(ctx context.Context) ([]models.Appointment, error)
	UpdateDatetime(ctx context.Context, id string, expected, next time.Time) error
}

type changeNotifier interface {
	NotifyChanged(reason string)
}

// RescheduleService negotiates a new time for a guardian's appointment.
type RescheduleService struct {
	store     appointmentStore
	policy    SlotPolicy
	matcher   GuardianMatcher
	notifier  changeNotifier
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRescheduleService wires the reschedule workflow. notifier and metrics may be nil.
func NewRescheduleService(
	store appointmentStore,
	policy SlotPolicy,
	matcher GuardianMatcher,
	notifier changeNotifier,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *RescheduleService {
	if matcher == nil {
		matcher = PhoneSuffixMatcher{}
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RescheduleService{
		store:     store,
		policy:    policy,
		matcher:   matcher,
		notifier:  notifier,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// Policy returns the slot policy in use.
func (s *RescheduleService) Policy() SlotPolicy {
	return s.policy
}

// Reschedule validates the request, checks the requested slot and either moves
// the matching appointment or returns readable alternatives. Errors are typed
// *appErrors.Error values; a full day is reported as a result, not an error.
func (s *RescheduleService) Reschedule(ctx context.Context, req dto.RescheduleRequest) (*dto.RescheduleResult, error) {
	s.logger.Debug("processing reschedule request",
		zap.String(s.matcher.Field(), s.matcher.Extract(req)),
		zap.String("date", req.Date),
		zap.String("time", req.Time),
	)

	result, err := s.reschedule(ctx, req)
	if err != nil {
		s.metrics.ObserveRescheduleError(appErrors.FromError(err).Code)
		return nil, err
	}
	s.metrics.ObserveReschedule(result)
	return result, nil
}

func (s *RescheduleService) reschedule(ctx context.Context, req dto.RescheduleRequest) (*dto.RescheduleResult, error) {
	valid, err := validateReschedule(s.validator, s.matcher, req)
	if err != nil {
		return nil, err
	}
	requested := valid.Requested

	if !s.policy.IsWithinWorkingHours(requested) {
		return &dto.RescheduleResult{
			Outcome:              dto.OutcomeOutOfHours,
			AlternativeTimesText: s.policy.WorkingHoursText(),
		}, nil
	}

	if !s.policy.IsValidSlotBoundary(requested) {
		options := s.policy.BoundaryAlternatives(requested)
		return &dto.RescheduleResult{
			Outcome:              dto.OutcomeOffBoundary,
			AlternativeTimesText: ReadableTimesText(options),
			Alternatives:         options,
		}, nil
	}

	start := time.Now()
	appointments, err := s.store.List(ctx)
	s.metrics.ObserveStore("list", time.Since(start))
	if err != nil {
		s.logger.Error("failed to load appointments", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrStoreFailure.Code, appErrors.ErrStoreFailure.Status, "failed to load appointments")
	}

	appointment := s.findAppointment(appointments, valid.Identifier)
	if appointment == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "No appointment found")
	}
	s.logger.Debug("found appointment",
		zap.String("appointment_id", appointment.ID),
		zap.Time("current", appointment.Datetime),
	)

	occupied := NewOccupiedSlots(appointments)
	if occupied.Has(requested) {
		options := s.policy.ConflictAlternatives(requested, occupied)
		if len(options) == 0 {
			return &dto.RescheduleResult{
				Outcome:              dto.OutcomeNoAvailability,
				AlternativeTimesText: NoAvailabilityText,
				AppointmentID:        appointment.ID,
			}, nil
		}
		return &dto.RescheduleResult{
			Outcome:              dto.OutcomeConflict,
			AlternativeTimesText: ReadableTimesText(options),
			Alternatives:         options,
			AppointmentID:        appointment.ID,
		}, nil
	}

	start = time.Now()
	err = s.store.UpdateDatetime(ctx, appointment.ID, appointment.Datetime, requested)
	s.metrics.ObserveStore("update_datetime", time.Since(start))
	if err != nil {
		if errors.Is(err, repository.ErrSlotConflict) {
			s.logger.Warn("reschedule lost race for slot",
				zap.String("appointment_id", appointment.ID),
				zap.Time("requested", requested),
			)
			return nil, appErrors.Wrap(err, appErrors.ErrSlotTaken.Code, appErrors.ErrSlotTaken.Status, appErrors.ErrSlotTaken.Message)
		}
		s.logger.Error("failed to persist appointment datetime", zap.String("appointment_id", appointment.ID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrStoreFailure.Code, appErrors.ErrStoreFailure.Status, "failed to reschedule appointment")
	}

	s.logger.Info("appointment rescheduled",
		zap.String("appointment_id", appointment.ID),
		zap.String("guardian", appointment.GuardianName),
		zap.Time("from", appointment.Datetime),
		zap.Time("to", requested),
	)
	if s.notifier != nil {
		s.notifier.NotifyChanged("rescheduled")
	}

	return &dto.RescheduleResult{
		Outcome:       dto.OutcomeRescheduled,
		Message:       rescheduledMessage,
		AppointmentID: appointment.ID,
	}, nil
}

func (s *RescheduleService) findAppointment(appointments []models.Appointment, identifier string) *models.Appointment {
	for i := range appointments {
		if s.matcher.Match(appointments[i], identifier) {
			return &appointments[i]
		}
	}
	return nil
}
