package ingest

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"recall-insights-go/internal/logger"
	"recall-insights-go/internal/metrics"
	"recall-insights-go/internal/table"
	"recall-insights-go/internal/types"
)

// ErrNoTimestampColumn means no header matched the date/time detection
// rules; a call log without timestamps cannot be analyzed.
var ErrNoTimestampColumn = errors.New("no timestamp column detected")

// ErrNoValidTimestamps means a column was detected but no row survived
// the format cascade.
var ErrNoValidTimestamps = errors.New("no row has a parseable timestamp")

// Stats reports what normalization did to the upload. Informational
// only: callers may log or display it, nothing downstream consumes it.
type Stats struct {
	TotalRows            int    `json:"total_rows"`
	Kept                 int    `json:"kept"`
	DroppedNoTimestamp   int    `json:"dropped_no_timestamp"`
	DroppedBlockedPhone  int    `json:"dropped_blocked_phone"`
	DroppedShortPhone    int    `json:"dropped_short_phone"`
	DroppedInvalidNumber int    `json:"dropped_invalid_number"`
	DroppedRepeatedDigit int    `json:"dropped_repeated_digit"`
	TimestampColumn      string `json:"timestamp_column,omitempty"`
	PhoneColumn          string `json:"phone_column,omitempty"`
	DurationColumn       string `json:"duration_column,omitempty"`
	ConversationColumn   string `json:"conversation_column,omitempty"`
}

// Ordered timestamp cascade: day-first Brazilian exports take priority,
// then ISO variants, then month-first. Go's time.Parse already accepts a
// fractional-second suffix even when the layout has none, which covers
// the "...15:04:05.528" shape. Bare clock times parse to the zero date.
var timestampLayouts = []string{
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
	"15:04:05",
	"15:04",
}

// Lenient day-first fallback for rows the strict cascade rejected:
// unpadded fields and dash/dot separated dates.
var fallbackLayouts = []string{
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006",
	"02-01-2006 15:04:05",
	"02-01-2006 15:04",
	"02-01-2006",
	"2.1.2006 15:04:05",
	"2.1.2006",
}

var whitespaceRun = regexp.MustCompile(`\s+`)

func parseTimestamp(raw string) (time.Time, bool) {
	s := whitespaceRun.ReplaceAllString(strings.TrimSpace(raw), " ")
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Phone values that identify withheld caller IDs rather than numbers.
var blockedPhoneValues = map[string]struct{}{
	"sip:anonymous@anonymous.invalid": {},
	"anonymous":                       {},
	"blocked":                         {},
	"bloqueado":                       {},
	"privado":                         {},
	"private":                         {},
	"unknown":                         {},
	"desconhecido":                    {},
}

// Numbers that show up in exports but are not dialable.
var invalidPhoneNumbers = map[string]struct{}{
	"2020159147": {},
	"0000000000": {},
	"1111111111": {},
	"9999999999": {},
}

func isBlockedPhone(raw string) bool {
	v := strings.ToLower(strings.TrimSpace(raw))
	if _, ok := blockedPhoneValues[v]; ok {
		return true
	}
	return strings.Contains(v, "sip:") || strings.Contains(v, "@")
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isRepeatedDigit(s string) bool {
	if s == "" {
		return false
	}
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

// NormalizeCalls turns a loaded call-log table into the canonical call
// record slice. Column detection is heuristic; rows with unparseable
// timestamps or blocked/invalid phones are silently excluded and only
// counted. The result is sorted by (phone, timestamp).
func NormalizeCalls(t table.Table) ([]types.CallRecord, Stats, error) {
	log := logger.Component("ingest.normalize")
	stats := Stats{TotalRows: len(t.Rows)}
	metrics.RowsIngested.Add(float64(len(t.Rows)))

	tsCol := detectTimestampColumn(t.Headers)
	if tsCol < 0 {
		log.Warn("no timestamp column detected")
		return nil, stats, ErrNoTimestampColumn
	}
	stats.TimestampColumn = t.Headers[tsCol]

	phoneCol := detectPhoneColumn(t.Headers)
	if phoneCol >= 0 {
		stats.PhoneColumn = t.Headers[phoneCol]
	}
	durCol := detectDurationColumn(t.Headers)
	if durCol >= 0 {
		stats.DurationColumn = t.Headers[durCol]
	}
	idCol := detectConversationIDColumn(t.Headers)
	if idCol >= 0 {
		stats.ConversationColumn = t.Headers[idCol]
	}
	log.WithFields(map[string]interface{}{
		"timestamp_col":    stats.TimestampColumn,
		"phone_col":        stats.PhoneColumn,
		"duration_col":     stats.DurationColumn,
		"conversation_col": stats.ConversationColumn,
	}).Info("detected call-log columns")

	records := make([]types.CallRecord, 0, len(t.Rows))
	for ri := range t.Rows {
		ts, ok := parseTimestamp(t.Cell(ri, tsCol))
		if !ok {
			stats.DroppedNoTimestamp++
			metrics.RowsDropped.WithLabelValues(metrics.CauseNoTimestamp).Inc()
			continue
		}

		phone := ""
		if phoneCol >= 0 {
			raw := t.Cell(ri, phoneCol)
			if isBlockedPhone(raw) {
				stats.DroppedBlockedPhone++
				metrics.RowsDropped.WithLabelValues(metrics.CauseBlockedPhone).Inc()
				continue
			}
			phone = digitsOnly(raw)
			if _, bad := invalidPhoneNumbers[phone]; bad {
				stats.DroppedInvalidNumber++
				metrics.RowsDropped.WithLabelValues(metrics.CauseInvalidNumber).Inc()
				continue
			}
			if len(phone) < 8 {
				stats.DroppedShortPhone++
				metrics.RowsDropped.WithLabelValues(metrics.CauseShortPhone).Inc()
				continue
			}
			if isRepeatedDigit(phone) {
				stats.DroppedRepeatedDigit++
				metrics.RowsDropped.WithLabelValues(metrics.CauseRepeatedDigit).Inc()
				continue
			}
		}

		dur := 0
		if durCol >= 0 {
			dur = ParseDurationSeconds(t.Cell(ri, durCol))
		}

		var convID string
		if idCol >= 0 {
			convID = strings.TrimSpace(t.Cell(ri, idCol))
		}
		if convID == "" {
			convID = fmt.Sprintf("%d_%s", ri, ts.Format("20060102150405"))
		}

		records = append(records, types.CallRecord{
			Phone:           phone,
			Timestamp:       ts,
			DurationSeconds: dur,
			ConversationID:  convID,
		})
	}

	if len(records) == 0 {
		log.Warn("no rows survived timestamp parsing")
		return nil, stats, ErrNoValidTimestamps
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Phone != records[j].Phone {
			return records[i].Phone < records[j].Phone
		}
		return records[i].Timestamp.Before(records[j].Timestamp)
	})

	stats.Kept = len(records)
	log.WithFields(map[string]interface{}{
		"total": stats.TotalRows,
		"kept":  stats.Kept,
	}).Info("call log normalized")
	return records, stats, nil
}
