package service

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-appointments-api/internal/dto"
	"github.com/noah-isme/sma-appointments-api/internal/models"
	"github.com/noah-isme/sma-appointments-api/internal/repository"
	appErrors "github.com/noah-isme/sma-appointments-api/pkg/errors"
)

type appointmentCatalogStub struct {
	appointments []models.Appointment
	listErr      error
	createErr    error
	listCalls    int
	deleted      bool
}

func (s *appointmentCatalogStub) List(ctx context.Context) ([]models.Appointment, error) {
	s.listCalls++
	return s.appointments, s.listErr
}

func (s *appointmentCatalogStub) Create(ctx context.Context, appointment *models.Appointment) error {
	if s.createErr != nil {
		return s.createErr
	}
	appointment.ID = "seed-" + appointment.Datetime.Format("1504")
	s.appointments = append(s.appointments, *appointment)
	return nil
}

func (s *appointmentCatalogStub) DeleteAll(ctx context.Context) error {
	s.deleted = true
	s.appointments = nil
	return nil
}

func newRedisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func newCachedAppointmentService(t *testing.T, store *appointmentCatalogStub) (*AppointmentService, *miniredis.Miniredis, *MetricsService) {
	t.Helper()
	mr, client := newRedisClient(t)
	metrics := NewMetricsService()
	cache := NewCacheService(repository.NewCacheRepository(client, "test"), metrics, time.Minute, zap.NewNop(), true)
	svc := NewAppointmentService(store, cache, nil, metrics, zap.NewNop())
	svc.now = func() time.Time { return at(8, 0) }
	return svc, mr, metrics
}

func TestAppointmentServiceListUsesCache(t *testing.T) {
	store := &appointmentCatalogStub{appointments: []models.Appointment{guardianAppointment()}}
	svc, mr, metrics := newCachedAppointmentService(t, store)
	ctx := context.Background()

	first, hit, err := svc.List(ctx)
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, first, 1)
	assert.True(t, mr.Exists("test:appointments:all"))

	second, hit, err := svc.List(ctx)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, store.listCalls)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.True(t, first[0].Datetime.Equal(second[0].Datetime))
	assert.Equal(t, first[0].StudentGradeLevel, second[0].StudentGradeLevel)

	require.NoError(t, svc.InvalidateCache(ctx))
	_, hit, err = svc.List(ctx)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, store.listCalls)
	assert.Equal(t, 1.0, metricValue(t, metrics.cacheHits))
}

func TestAppointmentServiceListWithoutCache(t *testing.T) {
	store := &appointmentCatalogStub{listErr: errors.New("timeout")}
	svc := NewAppointmentService(store, nil, nil, nil, nil)

	_, _, err := svc.List(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStoreFailure.Code, appErrors.FromError(err).Code)
}

func TestAppointmentServiceExport(t *testing.T) {
	store := &appointmentCatalogStub{appointments: []models.Appointment{guardianAppointment()}}
	svc, _, _ := newCachedAppointmentService(t, store)

	file, err := svc.Export(context.Background(), dto.ExportCSV)
	require.NoError(t, err)
	assert.Equal(t, "appointments_20230901_080000.csv", file.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", file.ContentType)
	lines := strings.Split(strings.TrimSpace(string(file.Body)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Datetime,Time,Guardian,Email,Phone,Student,Grade", lines[0])
	assert.Equal(t, "2023-09-01T14:00:00Z,2:00 PM,Jane Doe,jane@example.com,+1 (505) 415-9991,Sam Doe,Fifth Grade", lines[1])

	file, err = svc.Export(context.Background(), dto.ExportPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Body, []byte("%PDF-")))

	_, err = svc.Export(context.Background(), "xlsx")
	require.Error(t, err)
	assert.Equal(t, 400, appErrors.FromError(err).Status)
}

func TestAppointmentServiceSeed(t *testing.T) {
	store := &appointmentCatalogStub{appointments: otherAppointments(at(9, 0))}
	notifier := &notifierStub{}
	svc := NewAppointmentService(store, nil, notifier, nil, zap.NewNop())
	svc.rand = rand.New(rand.NewSource(1))

	seeded, err := svc.Seed(context.Background(), SeedOptions{Date: at(0, 0), Reset: true})
	require.NoError(t, err)
	assert.True(t, store.deleted)
	require.Len(t, seeded, 4)
	assert.Len(t, store.appointments, 4)
	assert.Equal(t, []string{"seeded"}, notifier.reasons)

	want := []time.Time{at(10, 0), at(11, 30), at(13, 0), at(14, 30)}
	for i, a := range seeded {
		assert.Equal(t, want[i], a.Datetime)
		assert.NotEmpty(t, a.ID)
		_, ok := models.GradeLevelByCode(a.StudentGradeLevel.Code)
		assert.True(t, ok)
	}
}

func TestAppointmentServiceSeedFailure(t *testing.T) {
	store := &appointmentCatalogStub{createErr: repository.ErrSlotConflict}
	notifier := &notifierStub{}
	svc := NewAppointmentService(store, nil, notifier, nil, nil)

	_, err := svc.Seed(context.Background(), SeedOptions{Date: at(0, 0)})
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrSlotConflict)
	assert.False(t, store.deleted)
	assert.Empty(t, notifier.reasons)
}

func TestDemoAppointmentsUseUTCDay(t *testing.T) {
	zone := time.FixedZone("UTC+9", 9*3600)
	day := time.Date(2023, 9, 2, 3, 0, 0, 0, zone) // still 1 September in UTC
	appointments := DemoAppointments(day, rand.New(rand.NewSource(7)))
	require.Len(t, appointments, 4)
	assert.Equal(t, at(10, 0), appointments[0].Datetime)
	for _, a := range appointments {
		assert.GreaterOrEqual(t, len(NormalizeDigits(a.GuardianPhone)), MinPhoneDigits)
	}
}

func TestDemoAppointmentsMatchableBySSNAndPhone(t *testing.T) {
	appointments := DemoAppointments(at(0, 0), rand.New(rand.NewSource(1)))
	require.Len(t, appointments, 4)

	ssns := []string{"123456789", "987654321", "456789123", "789123456"}
	for i, a := range appointments {
		require.NotNil(t, a.GuardianSSN, a.GuardianName)
		assert.Equal(t, ssns[i], *a.GuardianSSN)

		identifier, err := SSNMatcher{}.Normalize(*a.GuardianSSN)
		require.NoError(t, err)
		assert.True(t, SSNMatcher{}.Match(a, identifier), a.GuardianName)
	}

	phone, err := PhoneSuffixMatcher{}.Normalize("+1 (505) 415-9991")
	require.NoError(t, err)
	assert.True(t, PhoneSuffixMatcher{}.Match(appointments[0], phone))
	assert.Equal(t, "John Johnson", appointments[0].GuardianName)
}

func TestAppointmentServiceGradeLevels(t *testing.T) {
	svc := NewAppointmentService(&appointmentCatalogStub{}, nil, nil, nil, nil)
	levels := svc.GradeLevels()
	require.Len(t, levels, 12)
	assert.Equal(t, "Twelfth Grade", levels[11].Description)
}
