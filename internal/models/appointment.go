package models

import "time"

// GradeLevel is a student's grade as a code and its human description.
type GradeLevel struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

var gradeLevels = [...]GradeLevel{
	{Code: "01", Description: "First Grade"},
	{Code: "02", Description: "Second Grade"},
	{Code: "03", Description: "Third Grade"},
	{Code: "04", Description: "Fourth Grade"},
	{Code: "05", Description: "Fifth Grade"},
	{Code: "06", Description: "Sixth Grade"},
	{Code: "07", Description: "Seventh Grade"},
	{Code: "08", Description: "Eighth Grade"},
	{Code: "09", Description: "Ninth Grade"},
	{Code: "10", Description: "Tenth Grade"},
	{Code: "11", Description: "Eleventh Grade"},
	{Code: "12", Description: "Twelfth Grade"},
}

// GradeLevels returns a copy of the twelve supported grade levels in order.
func GradeLevels() []GradeLevel {
	out := make([]GradeLevel, len(gradeLevels))
	copy(out, gradeLevels[:])
	return out
}

// GradeLevelByCode looks up a grade level by its two digit code.
func GradeLevelByCode(code string) (GradeLevel, bool) {
	for _, g := range gradeLevels {
		if g.Code == code {
			return g, true
		}
	}
	return GradeLevel{}, false
}

// Appointment is a scheduled meeting between a guardian and the school about a student.
type Appointment struct {
	ID                string     `db:"id" json:"uid"`
	Datetime          time.Time  `db:"datetime" json:"datetime"`
	GuardianName      string     `db:"guardian_name" json:"guardianName"`
	GuardianEmail     string     `db:"guardian_email" json:"guardianEmail"`
	GuardianPhone     string     `db:"guardian_phone" json:"guardianPhone"`
	GuardianSSN       *string    `db:"guardian_ssn" json:"guardianSsn,omitempty"`
	StudentName       string     `db:"student_name" json:"studentName"`
	StudentGradeLevel GradeLevel `db:"-" json:"studentGradeLevel"`
	CreatedAt         time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updatedAt"`
}
