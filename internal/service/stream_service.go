package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-appointments-api/internal/dto"
	"github.com/noah-isme/sma-appointments-api/internal/models"
	appErrors "github.com/noah-isme/sma-appointments-api/pkg/errors"
	"github.com/noah-isme/sma-appointments-api/pkg/jobs"
)

const publishSnapshotJob = "publish_snapshot"

type snapshotSource interface {
	List(ctx context.Context) ([]models.Appointment, error)
}

type snapshotBus interface {
	Publish(ctx context.Context, snapshot dto.AppointmentSnapshot) error
	Subscribe(ctx context.Context) (<-chan dto.AppointmentSnapshot, func() error, error)
}

type cacheInvalidator interface {
	InvalidateCache(ctx context.Context) error
}

// StreamConfig tunes the notification worker.
type StreamConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// StreamService publishes full appointment snapshots whenever the set changes
// and lets dashboards subscribe to them.
type StreamService struct {
	source  snapshotSource
	bus     snapshotBus
	cache   cacheInvalidator
	metrics *MetricsService
	logger  *zap.Logger
	queue   *jobs.Queue
}

// NewStreamService builds the service. A nil bus disables live updates; cache
// and metrics may be nil.
func NewStreamService(source snapshotSource, bus snapshotBus, cache cacheInvalidator, metrics *MetricsService, cfg StreamConfig, logger *zap.Logger) *StreamService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &StreamService{
		source:  source,
		bus:     bus,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
	s.queue = jobs.NewQueue("appointment-snapshots", s.handleJob, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: 16,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Coalesce:   true,
		Logger:     logger,
	})
	return s
}

// Start launches the notification workers.
func (s *StreamService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *StreamService) Stop() {
	s.queue.Stop()
}

// NotifyChanged schedules a snapshot publication. It never blocks; bursts of
// changes collapse into a single pending publication.
func (s *StreamService) NotifyChanged(reason string) {
	job := jobs.Job{ID: uuid.NewString(), Type: publishSnapshotJob, Payload: reason}
	if err := s.queue.TryEnqueue(job); err != nil {
		s.logger.Warn("snapshot notification dropped", zap.String("reason", reason), zap.Error(err))
	}
}

func (s *StreamService) handleJob(ctx context.Context, job jobs.Job) error {
	reason, _ := job.Payload.(string)
	return s.Publish(ctx, reason)
}

// Publish loads the current appointments and sends them to every subscriber.
// The roster cache is dropped first so readers do not outlive the change.
func (s *StreamService) Publish(ctx context.Context, reason string) error {
	if s.cache != nil {
		_ = s.cache.InvalidateCache(ctx)
	}
	if s.bus == nil {
		return nil
	}

	appointments, err := s.source.List(ctx)
	if err != nil {
		s.metrics.RecordSnapshotPublish(err)
		return err
	}
	err = s.bus.Publish(ctx, dto.AppointmentSnapshot{Reason: reason, Appointments: appointments})
	s.metrics.RecordSnapshotPublish(err)
	if err != nil {
		return err
	}
	s.logger.Debug("appointment snapshot published", zap.String("reason", reason), zap.Int("appointments", len(appointments)))
	return nil
}

// Subscribe returns a channel of full snapshots and a function releasing the
// subscription. The channel closes when ctx ends or the release function runs.
func (s *StreamService) Subscribe(ctx context.Context) (<-chan []models.Appointment, func(), error) {
	if s.bus == nil {
		return nil, nil, appErrors.Clone(appErrors.ErrUnavailable, "live updates unavailable")
	}

	ctx, cancel := context.WithCancel(ctx)
	snapshots, closeBus, err := s.bus.Subscribe(ctx)
	if err != nil {
		cancel()
		s.logger.Error("snapshot subscription failed", zap.Error(err))
		return nil, nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "live updates unavailable")
	}
	s.metrics.StreamSubscribed(1)

	var once sync.Once
	release := func() {
		once.Do(func() {
			cancel()
			if err := closeBus(); err != nil {
				s.logger.Debug("snapshot unsubscribe", zap.Error(err))
			}
			s.metrics.StreamSubscribed(-1)
		})
	}

	out := make(chan []models.Appointment, 1)
	go func() {
		defer close(out)
		defer release()
		for {
			select {
			case <-ctx.Done():
				return
			case snapshot, ok := <-snapshots:
				if !ok {
					return
				}
				select {
				case out <- snapshot.Appointments:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, release, nil
}
