package service

import (
	"time"

	"github.com/noah-isme/sma-appointments-api/internal/models"
	"github.com/noah-isme/sma-appointments-api/pkg/config"
)

// SlotPolicy holds the working-hours window and slot granularity used to
// classify requested instants and to search for alternatives. All hours are UTC.
type SlotPolicy struct {
	OpeningHour    int
	ClosingHour    int
	SlotsPerHour   int
	MaxSuggestions int
	// LegacyDayScan walks the full-day fallback at OpeningHour*i instead of
	// OpeningHour+i, reproducing the behaviour of the first bot integration.
	LegacyDayScan bool
}

// DefaultSlotPolicy is 09:00-18:00 UTC in 15 minute slots with three suggestions.
func DefaultSlotPolicy() SlotPolicy {
	return SlotPolicy{OpeningHour: 9, ClosingHour: 18, SlotsPerHour: 4, MaxSuggestions: 3}
}

// NewSlotPolicy builds a policy from scheduling configuration.
func NewSlotPolicy(cfg config.SchedulingConfig) SlotPolicy {
	policy := SlotPolicy{
		OpeningHour:    cfg.OpeningHour,
		ClosingHour:    cfg.ClosingHour,
		SlotsPerHour:   cfg.SlotsPerHour,
		MaxSuggestions: cfg.MaxSuggestions,
		LegacyDayScan:  cfg.LegacyDayScan,
	}
	if policy.SlotsPerHour <= 0 {
		policy.SlotsPerHour = 4
	}
	if policy.MaxSuggestions <= 0 {
		policy.MaxSuggestions = 3
	}
	return policy
}

// SlotMinutes is the length of a single slot.
func (p SlotPolicy) SlotMinutes() int {
	return 60 / p.SlotsPerHour
}

// IsWithinWorkingHours reports whether t falls in [OpeningHour, ClosingHour).
func (p SlotPolicy) IsWithinWorkingHours(t time.Time) bool {
	hour := t.UTC().Hour()
	return hour >= p.OpeningHour && hour < p.ClosingHour
}

// IsValidSlotBoundary reports whether t starts a slot.
func (p SlotPolicy) IsValidSlotBoundary(t time.Time) bool {
	return t.UTC().Minute()%p.SlotMinutes() == 0
}

// WorkingHoursText renders the window for guardians, e.g. "after 9 AM and before 6 PM".
func (p SlotPolicy) WorkingHoursText() string {
	return "after " + hourText(p.OpeningHour) + " and before " + hourText(p.ClosingHour)
}

// TimeSlots returns every slot start in the hour of t, ascending, or nothing
// when that hour is outside working hours.
func (p SlotPolicy) TimeSlots(t time.Time) []time.Time {
	if !p.IsWithinWorkingHours(t) {
		return nil
	}
	t = t.UTC()
	hourStart := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)
	slots := make([]time.Time, 0, p.SlotsPerHour)
	step := time.Duration(p.SlotMinutes()) * time.Minute
	for i := 0; i < p.SlotsPerHour; i++ {
		slots = append(slots, hourStart.Add(time.Duration(i)*step))
	}
	return slots
}

// BoundaryAlternatives suggests every slot of the requested hour. Occupancy is
// not considered at this stage.
func (p SlotPolicy) BoundaryAlternatives(t time.Time) []time.Time {
	return p.TimeSlots(t)
}

// ConflictAlternatives searches free slots for a requested instant that is
// already taken: the same hour first, then the previous and the next hour, and
// finally the whole working day. An empty result means the day is full.
func (p SlotPolicy) ConflictAlternatives(t time.Time, occupied OccupiedSlots) []time.Time {
	candidates := make([]time.Time, 0, 3*p.SlotsPerHour)
	candidates = append(candidates, p.TimeSlots(t)...)
	candidates = append(candidates, p.TimeSlots(t.Add(-time.Hour))...)
	candidates = append(candidates, p.TimeSlots(t.Add(time.Hour))...)

	if free := occupied.Free(candidates); len(free) > 0 {
		return p.limit(free)
	}

	t = t.UTC()
	var day []time.Time
	for i := 0; i < p.ClosingHour-p.OpeningHour; i++ {
		hour := p.OpeningHour + i
		if p.LegacyDayScan {
			hour = p.OpeningHour * i
		}
		// time.Date normalizes hours past 23 into the following days.
		at := time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, time.UTC)
		day = append(day, occupied.Free(p.TimeSlots(at))...)
	}
	return p.limit(day)
}

func (p SlotPolicy) limit(slots []time.Time) []time.Time {
	if len(slots) > p.MaxSuggestions {
		return slots[:p.MaxSuggestions]
	}
	return slots
}

// OccupiedSlots is the set of minute-truncated instants held by appointments.
type OccupiedSlots map[int64]struct{}

// NewOccupiedSlots indexes the datetimes of the given appointments.
func NewOccupiedSlots(appointments []models.Appointment) OccupiedSlots {
	occupied := make(OccupiedSlots, len(appointments))
	for _, a := range appointments {
		occupied[TruncateToMinute(a.Datetime).Unix()] = struct{}{}
	}
	return occupied
}

// Has reports whether t (truncated to the minute) is taken.
func (o OccupiedSlots) Has(t time.Time) bool {
	_, ok := o[TruncateToMinute(t).Unix()]
	return ok
}

// Free filters out taken instants, preserving order.
func (o OccupiedSlots) Free(candidates []time.Time) []time.Time {
	free := make([]time.Time, 0, len(candidates))
	for _, c := range candidates {
		if !o.Has(c) {
			free = append(free, c)
		}
	}
	return free
}

// TruncateToMinute drops seconds and sub-second components and normalizes to UTC.
func TruncateToMinute(t time.Time) time.Time {
	return t.UTC().Truncate(time.Minute)
}

func hourText(hour int) string {
	return time.Date(2000, time.January, 1, hour, 0, 0, 0, time.UTC).Format("3 PM")
}
