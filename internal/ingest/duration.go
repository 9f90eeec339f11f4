package ingest

import (
	"strconv"
	"strings"
)

// ParseDurationSeconds converts heterogeneous duration text into whole
// seconds. Accepted shapes: "mm:ss", "hh:mm:ss", either with a fractional
// suffix ("00:13:56.528"), or a bare number of seconds. Anything else,
// including empty and pandas-style placeholder values, comes back as 0.
// It never returns a negative value and never fails.
func ParseDurationSeconds(raw string) int {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	switch strings.ToLower(s) {
	case "nan", "none", "nat":
		return 0
	}

	// fractional-second suffix, e.g. "00:13:56.528"
	if i := strings.Index(s, "."); i >= 0 {
		s = s[:i]
	}

	if strings.Contains(s, ":") {
		parts := strings.Split(s, ":")
		vals := make([]int, 0, len(parts))
		for _, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return 0
			}
			vals = append(vals, n)
		}
		var secs int
		switch len(vals) {
		case 2:
			secs = vals[0]*60 + vals[1]
		case 3:
			secs = vals[0]*3600 + vals[1]*60 + vals[2]
		default:
			return 0
		}
		if secs < 0 {
			return 0
		}
		return secs
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0
	}
	return int(f)
}
