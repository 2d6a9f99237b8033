package models

import "time"

// Bookmark marks a question a student saved for later practice.
// One row per (user, question) pair.
type Bookmark struct {
	ID         int64     `json:"id" db:"id"`
	UserID     int64     `json:"userId" db:"user_id"`
	QuestionID int64     `json:"questionId" db:"question_id"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}
