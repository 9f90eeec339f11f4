// Package mailing assembles a contact list from the analysis results:
// phones worth a proactive callback because they call often, recalled
// recently, or sat through long calls.
package mailing

import (
	"sort"

	"recall-insights-go/internal/recall"
	"recall-insights-go/internal/types"
)

// Criteria selects which signals put a phone on the list. A zero value
// for a threshold disables that criterion.
type Criteria struct {
	MinCalls           int             `json:"min_calls"`
	RecallWindows      []recall.Window `json:"recall_windows"`
	MinLongCallSeconds int             `json:"min_long_call_seconds"`
}

// Contact is one mailing-list row. Flags record which criteria matched;
// TotalCalls is filled for every contact regardless of criterion.
type Contact struct {
	Phone          string `json:"phone"`
	TotalCalls     int    `json:"total_calls"`
	FrequentCaller bool   `json:"frequent_caller"`
	HasRecall      bool   `json:"has_recall"`
	HasLongCall    bool   `json:"has_long_call"`
}

// Build returns one deduplicated contact per phone matching at least one
// enabled criterion, sorted by phone for stable output.
func Build(records []types.CallRecord, buckets recall.Buckets, c Criteria) []Contact {
	counts := map[string]int{}
	longCall := map[string]bool{}
	for _, r := range records {
		if r.Phone == "" {
			continue
		}
		counts[r.Phone]++
		if c.MinLongCallSeconds > 0 && r.DurationSeconds >= c.MinLongCallSeconds {
			longCall[r.Phone] = true
		}
	}

	recalled := map[string]bool{}
	for _, w := range c.RecallWindows {
		for _, ev := range buckets[w] {
			recalled[ev.Phone] = true
		}
	}

	selected := map[string]*Contact{}
	add := func(phone string) *Contact {
		ct, ok := selected[phone]
		if !ok {
			ct = &Contact{Phone: phone, TotalCalls: counts[phone]}
			selected[phone] = ct
		}
		return ct
	}

	if c.MinCalls > 0 {
		for phone, n := range counts {
			if n >= c.MinCalls {
				add(phone).FrequentCaller = true
			}
		}
	}
	for phone := range recalled {
		add(phone).HasRecall = true
	}
	for phone := range longCall {
		add(phone).HasLongCall = true
	}

	out := make([]Contact, 0, len(selected))
	for _, ct := range selected {
		out = append(out, *ct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Phone < out[j].Phone })
	return out
}
