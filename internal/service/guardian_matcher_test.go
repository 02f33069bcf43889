package service

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-appointments-api/internal/dto"
	"github.com/noah-isme/sma-appointments-api/internal/models"
	appErrors "github.com/noah-isme/sma-appointments-api/pkg/errors"
)

func TestNewGuardianMatcher(t *testing.T) {
	m, err := NewGuardianMatcher("")
	require.NoError(t, err)
	assert.Equal(t, "phone", m.Field())

	m, err = NewGuardianMatcher(" SSN ")
	require.NoError(t, err)
	assert.Equal(t, "ssn", m.Field())

	_, err = NewGuardianMatcher("email")
	assert.Error(t, err)
}

func TestPhoneSuffixMatcher(t *testing.T) {
	m := PhoneSuffixMatcher{}
	stored := models.Appointment{GuardianPhone: "5054159991"}

	id, err := m.Normalize("+1 (505) 415-9991")
	require.NoError(t, err)
	assert.Equal(t, "15054159991", id)
	assert.True(t, m.Match(stored, id))

	assert.True(t, m.Match(models.Appointment{GuardianPhone: "+55 (505) 415-9991"}, "5054159991"))
	assert.True(t, m.Match(stored, "054159991"))
	assert.False(t, m.Match(stored, "5054159992"))
	assert.False(t, m.Match(models.Appointment{GuardianPhone: "9991"}, "5054159991"))
}

func TestPhoneSuffixMatcherRejectsShortNumbers(t *testing.T) {
	_, err := PhoneSuffixMatcher{}.Normalize("(505) 415-99")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, 400, appErr.Status)
	assert.Equal(t, "Bad request: phone digits", appErr.Message)
}

func TestSSNMatcher(t *testing.T) {
	m := SSNMatcher{}
	ssn := "123-45-6789"
	withSSN := models.Appointment{GuardianSSN: &ssn}

	id, err := m.Normalize("123 45 6789")
	require.NoError(t, err)
	assert.True(t, m.Match(withSSN, id))
	assert.False(t, m.Match(withSSN, "23456789"))
	assert.False(t, m.Match(models.Appointment{}, id))

	_, err = m.Normalize("---")
	assert.Error(t, err)
}

func TestParseRequestedInstant(t *testing.T) {
	got, err := ParseRequestedInstant("2023-09-01", "05:00:00")
	require.NoError(t, err)
	assert.Equal(t, at(5, 0), got)

	got, err = ParseRequestedInstant(" 2023-09-01 ", "09:07:59")
	require.NoError(t, err)
	assert.Equal(t, at(9, 7), got)

	got, err = ParseRequestedInstant("2023-09-01", "14:30")
	require.NoError(t, err)
	assert.Equal(t, at(14, 30), got)

	_, err = ParseRequestedInstant("2023-02-30", "10:00")
	assert.Error(t, err)
	_, err = ParseRequestedInstant("2023-09-01", "25:00")
	assert.Error(t, err)
}

func TestValidateRescheduleHaltsOnFirstFailure(t *testing.T) {
	v := validator.New()
	cases := []struct {
		name    string
		matcher GuardianMatcher
		req     dto.RescheduleRequest
		message string
	}{
		{name: "missing phone", matcher: PhoneSuffixMatcher{}, req: dto.RescheduleRequest{Date: "2023-09-01", Time: "10:00"}, message: "Bad request, required: phone, date, time"},
		{name: "blank time", matcher: PhoneSuffixMatcher{}, req: dto.RescheduleRequest{Phone: "5054159991", Date: "2023-09-01", Time: "  "}, message: "Bad request, required: phone, date, time"},
		{name: "missing ssn", matcher: SSNMatcher{}, req: dto.RescheduleRequest{Phone: "5054159991", Date: "2023-09-01", Time: "10:00"}, message: "Bad request, required: ssn, date, time"},
		{name: "short phone with bad date", matcher: PhoneSuffixMatcher{}, req: dto.RescheduleRequest{Phone: "1234", Date: "nope", Time: "10:00"}, message: "Bad request: phone digits"},
		{name: "bad date", matcher: PhoneSuffixMatcher{}, req: dto.RescheduleRequest{Phone: "5054159991", Date: "01/09/2023", Time: "10:00"}, message: "Bad request: invalid date or time"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := validateReschedule(v, tc.matcher, tc.req)
			require.Error(t, err)
			appErr := appErrors.FromError(err)
			assert.Equal(t, appErrors.ErrInvalidRequest.Code, appErr.Code)
			assert.Equal(t, tc.message, appErr.Message)
		})
	}
}
