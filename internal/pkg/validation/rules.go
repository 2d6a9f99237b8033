package validation

import (
	"regexp"
)

// Validation rule patterns
var (
	// EmailPattern matches ordinary mailbox addresses
	EmailPattern = `^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,4}$`

	// CourseCodePattern matches codes like "CS301" or "MATH41"
	CourseCodePattern = `^[A-Z]{2,4}[0-9]{2,3}$`

	// UsernamePattern allows handles of letters, digits, underscore and dot
	UsernamePattern = `^[a-zA-Z0-9_.]{3,32}$`

	// PasswordMinLength is the minimum accepted password length
	PasswordMinLength = 8
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	Email      *regexp.Regexp
	CourseCode *regexp.Regexp
	Username   *regexp.Regexp
}{
	Email:      regexp.MustCompile(EmailPattern),
	CourseCode: regexp.MustCompile(CourseCodePattern),
	Username:   regexp.MustCompile(UsernamePattern),
}
