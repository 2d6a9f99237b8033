package models

import "time"

// Course represents a course whose question papers are indexed.
type Course struct {
	ID         int64      `json:"id" db:"id"`
	Code       string     `json:"code" db:"code"` // e.g. "CS301", unique
	Name       string     `json:"name" db:"name"`
	Credits    int        `json:"credits" db:"credits"`
	CourseType CourseType `json:"courseType" db:"course_type"`
	Semester   int        `json:"semester" db:"semester"`
	IsActive   bool       `json:"isActive" db:"is_active"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time  `json:"updatedAt" db:"updated_at"`

	// Relations (populated when needed)
	Units []*Unit `json:"units,omitempty"`
}

// Unit is a syllabus unit within a course. Unit numbers are unique per course.
type Unit struct {
	ID         int64     `json:"id" db:"id"`
	CourseID   int64     `json:"courseId" db:"course_id"`
	UnitNumber int       `json:"unitNumber" db:"unit_number"`
	Title      string    `json:"title" db:"title"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}
