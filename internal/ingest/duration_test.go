package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDurationSeconds(t *testing.T) {
	tests := map[string]struct {
		input    string
		expected int
	}{
		"MinutesSeconds":        {"05:00", 300},
		"HoursMinutesSeconds":   {"01:02:03", 3723},
		"FractionalSeconds":     {"00:13:56.528", 836},
		"BareSeconds":           {"120", 120},
		"FloatSeconds":          {"90.7", 90},
		"Empty":                 {"", 0},
		"Whitespace":            {"   ", 0},
		"NaN":                   {"nan", 0},
		"NaNUpper":              {"NaN", 0},
		"None":                  {"none", 0},
		"NaT":                   {"NaT", 0},
		"NonNumericParts":       {"bogus:a:b", 0},
		"TooManyParts":          {"1:2:3:4", 0},
		"SinglePartWithColon":   {"12:", 0},
		"Garbage":               {"twelve seconds", 0},
		"Negative":              {"-30", 0},
		"LeadingTrailingSpaces": {" 02:30 ", 150},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ParseDurationSeconds(tc.input))
		})
	}
}
