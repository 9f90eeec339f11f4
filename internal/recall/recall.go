// Package recall detects repeat calls. A recall is any call from a phone
// that already called, measured against that phone's very first recorded
// call. Call 3 is compared to call 1, never to call 2: the business rule
// attributes every repeat back to the originating contact, so financial
// impact and reason attribution always reason about "first contact to
// any subsequent recall", not chains of consecutive calls.
package recall

import (
	"time"

	"recall-insights-go/internal/logger"
	"recall-insights-go/internal/metrics"
	"recall-insights-go/internal/types"
)

// Window is a fixed recall-latency bucket. Boundaries are inclusive on
// the upper end: exactly 24.0h lands in Window0to24.
type Window string

const (
	Window0to24  Window = "0-24h"
	Window24to48 Window = "24-48h"
	Window48to72 Window = "48-72h"
	WindowOver72 Window = "mais_72h"
)

// Windows lists every bucket in ascending latency order.
var Windows = []Window{Window0to24, Window24to48, Window48to72, WindowOver72}

// Event is one detected recall pair; FirstCall* always reference the
// phone's first recorded call.
type Event struct {
	Phone              string    `json:"phone"`
	FirstCallID        string    `json:"first_call_id"`
	RepeatCallID       string    `json:"repeat_call_id"`
	FirstCallTime      time.Time `json:"first_call_time"`
	RepeatCallTime     time.Time `json:"repeat_call_time"`
	HoursSinceFirst    float64   `json:"hours_since_first"`
	FirstCallDuration  int       `json:"first_call_duration_seconds"`
	RepeatCallDuration int       `json:"repeat_call_duration_seconds"`
}

// Buckets maps each window to its events in detection order.
type Buckets map[Window][]Event

// Total returns the number of events across all windows.
func (b Buckets) Total() int {
	n := 0
	for _, evs := range b {
		n += len(evs)
	}
	return n
}

func classify(hours float64) Window {
	switch {
	case hours <= 24:
		return Window0to24
	case hours <= 48:
		return Window24to48
	case hours <= 72:
		return Window48to72
	default:
		return WindowOver72
	}
}

// Detect groups the canonical call table by phone and emits one event
// per repeat call, anchored to the group's first call. The input is
// expected sorted by (phone, timestamp), which ingestion guarantees;
// grouping walks consecutive runs of the same phone. Non-positive time
// deltas (duplicate or out-of-order timestamps) are skipped. Phones
// with a single call produce nothing.
func Detect(records []types.CallRecord) Buckets {
	buckets := Buckets{
		Window0to24:  nil,
		Window24to48: nil,
		Window48to72: nil,
		WindowOver72: nil,
	}

	for start := 0; start < len(records); {
		end := start + 1
		for end < len(records) && records[end].Phone == records[start].Phone {
			end++
		}
		group := records[start:end]
		start = end
		if len(group) < 2 {
			continue
		}

		first := group[0]
		for _, repeat := range group[1:] {
			hours := repeat.Timestamp.Sub(first.Timestamp).Hours()
			if hours <= 0 {
				continue
			}
			w := classify(hours)
			buckets[w] = append(buckets[w], Event{
				Phone:              first.Phone,
				FirstCallID:        first.ConversationID,
				RepeatCallID:       repeat.ConversationID,
				FirstCallTime:      first.Timestamp,
				RepeatCallTime:     repeat.Timestamp,
				HoursSinceFirst:    hours,
				FirstCallDuration:  first.DurationSeconds,
				RepeatCallDuration: repeat.DurationSeconds,
			})
			metrics.RecallEvents.WithLabelValues(string(w)).Inc()
		}
	}

	logger.Component("recall").WithFields(map[string]interface{}{
		"events_0_24":  len(buckets[Window0to24]),
		"events_24_48": len(buckets[Window24to48]),
		"events_48_72": len(buckets[Window48to72]),
		"events_72":    len(buckets[WindowOver72]),
	}).Info("recall detection complete")
	return buckets
}
