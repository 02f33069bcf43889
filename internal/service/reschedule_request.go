package service

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sma-appointments-api/internal/dto"
	appErrors "github.com/noah-isme/sma-appointments-api/pkg/errors"
)

// MinPhoneDigits is the shortest phone number accepted after normalization.
const MinPhoneDigits = 9

var timeLayouts = []string{"15:04:05", "15:04"}

type rescheduleFields struct {
	Identifier string `validate:"required"`
	Date       string `validate:"required"`
	Time       string `validate:"required"`
}

// validatedReschedule is a request that passed field checks.
type validatedReschedule struct {
	Identifier string
	Requested  time.Time
}

// NormalizeDigits strips every non-digit character.
func NormalizeDigits(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParseRequestedInstant combines a YYYY-MM-DD date and an HH:MM[:SS] time as a
// UTC wall-clock instant with seconds zeroed.
func ParseRequestedInstant(date, clock string) (time.Time, error) {
	day, err := time.Parse("2006-01-02", strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	clock = strings.TrimSpace(clock)
	for _, layout := range timeLayouts {
		tod, err := time.Parse(layout, clock)
		if err != nil {
			continue
		}
		instant := time.Date(day.Year(), day.Month(), day.Day(), tod.Hour(), tod.Minute(), 0, 0, time.UTC)
		return instant, nil
	}
	return time.Time{}, fmt.Errorf("parse time %q", clock)
}

func validateReschedule(v *validator.Validate, matcher GuardianMatcher, req dto.RescheduleRequest) (*validatedReschedule, error) {
	fields := rescheduleFields{
		Identifier: strings.TrimFunc(matcher.Extract(req), unicode.IsSpace),
		Date:       strings.TrimSpace(req.Date),
		Time:       strings.TrimSpace(req.Time),
	}
	if err := v.Struct(fields); err != nil {
		msg := fmt.Sprintf("Bad request, required: %s, date, time", matcher.Field())
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidRequest.Code, appErrors.ErrInvalidRequest.Status, msg)
	}

	identifier, err := matcher.Normalize(fields.Identifier)
	if err != nil {
		return nil, err
	}

	requested, err := ParseRequestedInstant(fields.Date, fields.Time)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidRequest.Code, appErrors.ErrInvalidRequest.Status, "Bad request: invalid date or time")
	}

	return &validatedReschedule{Identifier: identifier, Requested: requested}, nil
}
