package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{"full date", "2025-06-15", "2025-06-15", true},
		{"year month", "2025-06", "2025-06-01", true},
		{"bare year", "2025", "2025-01-01", true},
		{"iso datetime", "2025-06-15T08:30:00Z", "2025-06-15", true},
		{"garbage", "mid-June", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, ok := Parse(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				require.False(t, parsed.IsZero())
				assert.Equal(t, tt.expected, ISODate(parsed))
			}
		})
	}
}

func TestPrecision(t *testing.T) {
	assert.Equal(t, PrecisionDay, Precision("2025-06-15"))
	assert.Equal(t, PrecisionMonth, Precision("2025-06"))
	assert.Equal(t, PrecisionYear, Precision("2025"))
	assert.Equal(t, PrecisionUnknown, Precision("2025-06-15T08:30:00Z"))
	assert.Equal(t, PrecisionUnknown, Precision(""))
}

func TestWithinDays(t *testing.T) {
	assert.True(t, WithinDays("2025-06-15", "2025-06-20", 7))
	assert.True(t, WithinDays("2025-06-20", "2025-06-15", 7))
	assert.False(t, WithinDays("2025-06-15", "2025-06-25", 7))
	assert.False(t, WithinDays("2025-06-15", "unknown", 7))
	assert.False(t, WithinDays("", "2025-06-15", 7))

	// partial dates resolve to the start of the period
	assert.True(t, WithinDays("2025-06", "2025-06-05", 7))
}

func TestYear(t *testing.T) {
	assert.Equal(t, "2025", Year("2025-06-15"))
	assert.Equal(t, "2025", Year("2025"))
	assert.Equal(t, "", Year("June 2025"))
	assert.Equal(t, "", Year(""))
}

func TestISODate(t *testing.T) {
	assert.Equal(t, "2026-01-02", ISODate(time.Date(2026, 1, 2, 13, 0, 0, 0, time.UTC)))
}
