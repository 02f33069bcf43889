package dto

import "time"

// RescheduleRequest is the payload sent by the guardian-facing bot.
type RescheduleRequest struct {
	Phone string `json:"phone"`
	SSN   string `json:"ssn"`
	Date  string `json:"date"`
	Time  string `json:"time"`
}

// RescheduleOutcome labels how a reschedule request was resolved.
type RescheduleOutcome string

const (
	OutcomeRescheduled    RescheduleOutcome = "rescheduled"
	OutcomeOutOfHours     RescheduleOutcome = "out_of_hours"
	OutcomeOffBoundary    RescheduleOutcome = "off_boundary"
	OutcomeConflict       RescheduleOutcome = "conflict"
	OutcomeNoAvailability RescheduleOutcome = "no_availability"
)

// RescheduleResult is the non-error result of a reschedule request. Exactly one of
// Message or AlternativeTimesText is set.
type RescheduleResult struct {
	Outcome              RescheduleOutcome `json:"-"`
	Message              string            `json:"message,omitempty"`
	AlternativeTimesText string            `json:"alternativeTimesText,omitempty"`
	Alternatives         []time.Time       `json:"-"`
	AppointmentID        string            `json:"-"`
}

// Accepted reports whether the appointment was moved.
func (r *RescheduleResult) Accepted() bool {
	return r != nil && r.Outcome == OutcomeRescheduled
}
