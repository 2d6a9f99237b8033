package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in         string
		defaultDur time.Duration
		want       time.Duration
	}{
		{"30s", time.Minute, 30 * time.Second},
		{"2h45m", time.Minute, 2*time.Hour + 45*time.Minute},
		{"", time.Minute, time.Minute},
		{"not-a-duration", 5 * time.Minute, 5 * time.Minute},
		{"10", time.Minute, time.Minute}, // bare numbers have no unit
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseDuration(tt.in, tt.defaultDur), "ParseDuration(%q)", tt.in)
	}
}
