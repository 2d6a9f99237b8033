package models

import "time"

// StudentCourse records a student's course selection. The selection set is
// replaced atomically by the select-courses operation.
type StudentCourse struct {
	ID         int64     `json:"id" db:"id"`
	UserID     int64     `json:"userId" db:"user_id"`
	CourseID   int64     `json:"courseId" db:"course_id"`
	SelectedAt time.Time `json:"selectedAt" db:"selected_at"`

	// Relations (populated when needed)
	Course *Course `json:"course,omitempty"`
}
