package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCourseCodePattern(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"CS301", true},
		{"MATH41", true},
		{"EC8551", false}, // four digits
		{"cs301", false},  // lowercase
		{"C301", false},   // single-letter prefix
		{"CS", false},
		{"CS3", false},
		{"COMPSCI301", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CompiledPatterns.CourseCode.MatchString(tt.code), "CourseCode.MatchString(%q)", tt.code)
	}
}

func TestEmailPattern(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"jdoe@college.edu", true},
		{"j.doe+papers@college.co.in", true},
		{"no-at-sign.example.com", false},
		{"spaces in@example.com", false},
		{"jdoe@example", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CompiledPatterns.Email.MatchString(tt.email), "Email.MatchString(%q)", tt.email)
	}
}

func TestUsernamePattern(t *testing.T) {
	tests := []struct {
		username string
		want     bool
	}{
		{"jdoe", true},
		{"j.doe_42", true},
		{"ab", false}, // too short
		{"has space", false},
		{"hyphen-ated", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CompiledPatterns.Username.MatchString(tt.username), "Username.MatchString(%q)", tt.username)
	}
}
