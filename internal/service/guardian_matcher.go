package service

import (
	"fmt"
	"strings"

	"github.com/noah-isme/sma-appointments-api/internal/dto"
	"github.com/noah-isme/sma-appointments-api/internal/models"
	"github.com/noah-isme/sma-appointments-api/pkg/config"
	appErrors "github.com/noah-isme/sma-appointments-api/pkg/errors"
)

// GuardianMatcher identifies which appointment a reschedule request refers to.
type GuardianMatcher interface {
	// Field is the request field carrying the guardian identifier.
	Field() string
	Extract(req dto.RescheduleRequest) string
	Normalize(raw string) (string, error)
	Match(appointment models.Appointment, identifier string) bool
}

// NewGuardianMatcher returns the matcher for the configured strategy.
func NewGuardianMatcher(strategy string) (GuardianMatcher, error) {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "", config.MatchByPhone:
		return PhoneSuffixMatcher{}, nil
	case config.MatchBySSN:
		return SSNMatcher{}, nil
	default:
		return nil, fmt.Errorf("unknown match strategy %q", strategy)
	}
}

// PhoneSuffixMatcher matches when one phone's digits end with the other's, so
// a country code may be present on either side. Stored numbers shorter than
// MinPhoneDigits never match.
type PhoneSuffixMatcher struct{}

func (PhoneSuffixMatcher) Field() string { return "phone" }

func (PhoneSuffixMatcher) Extract(req dto.RescheduleRequest) string { return req.Phone }

func (PhoneSuffixMatcher) Normalize(raw string) (string, error) {
	digits := NormalizeDigits(raw)
	if len(digits) < MinPhoneDigits {
		return "", appErrors.Clone(appErrors.ErrInvalidRequest, "Bad request: phone digits")
	}
	return digits, nil
}

func (PhoneSuffixMatcher) Match(appointment models.Appointment, identifier string) bool {
	stored := NormalizeDigits(appointment.GuardianPhone)
	if len(stored) < MinPhoneDigits || identifier == "" {
		return false
	}
	return strings.HasSuffix(stored, identifier) || strings.HasSuffix(identifier, stored)
}

// SSNMatcher matches the guardian SSN exactly after digit normalization.
type SSNMatcher struct{}

func (SSNMatcher) Field() string { return "ssn" }

func (SSNMatcher) Extract(req dto.RescheduleRequest) string { return req.SSN }

func (SSNMatcher) Normalize(raw string) (string, error) {
	digits := NormalizeDigits(raw)
	if digits == "" {
		return "", appErrors.Clone(appErrors.ErrInvalidRequest, "Bad request: ssn digits")
	}
	return digits, nil
}

func (SSNMatcher) Match(appointment models.Appointment, identifier string) bool {
	if appointment.GuardianSSN == nil {
		return false
	}
	return NormalizeDigits(*appointment.GuardianSSN) == identifier
}
