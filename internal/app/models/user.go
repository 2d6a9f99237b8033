package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID           int64      `json:"id" db:"id" example:"1"`                                                  // Unique identifier for the user
	Username     string     `json:"username" db:"username" example:"jdoe"`                                   // Login name, unique
	Email        string     `json:"email" db:"email" example:"jdoe@college.edu"`                             // User's email address, unique
	Password     string     `json:"-" db:"password_hash"`                                                    // Hashed password (excluded from JSON)
	FullName     string     `json:"fullName" db:"full_name" example:"Jane Doe"`                              // Display name
	RoleType     RoleType   `json:"roleType" db:"role_type" example:"STUDENT"`                               // ADMIN, FACULTY or STUDENT
	IsActive     bool       `json:"isActive" db:"is_active" example:"true"`                                  // Whether the account can log in
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at" example:"2026-02-10T18:00:00Z"` // Timestamp of the last login (nullable)
	CreatedAt    time.Time  `json:"createdAt" db:"created_at" example:"2026-01-01T10:00:00Z"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at" example:"2026-01-02T15:30:00Z"`
}
