package recall

import (
	"time"

	"recall-insights-go/internal/types"
)

// CallBands is the distribution of phones by how many times they called.
type CallBands struct {
	Bands         map[string]int `json:"bands"`
	RepeatCallers int            `json:"repeat_callers"`
}

var bandLabels = []struct {
	label    string
	min, max int
}{
	{"1 ligação", 1, 1},
	{"2-5 ligações", 2, 5},
	{"6-10 ligações", 6, 10},
	{"11-20 ligações", 11, 20},
	{"21-50 ligações", 21, 50},
	{"Mais de 50 ligações", 51, 1 << 30},
}

// CallCountBands counts phones per call-count band and how many phones
// called more than once. Records without a phone are ignored.
func CallCountBands(records []types.CallRecord) CallBands {
	perPhone := map[string]int{}
	for _, r := range records {
		if r.Phone == "" {
			continue
		}
		perPhone[r.Phone]++
	}

	out := CallBands{Bands: map[string]int{}}
	for _, b := range bandLabels {
		out.Bands[b.label] = 0
	}
	for _, n := range perPhone {
		for _, b := range bandLabels {
			if n >= b.min && n <= b.max {
				out.Bands[b.label]++
				break
			}
		}
		if n > 1 {
			out.RepeatCallers++
		}
	}
	return out
}

// VolumeStats summarizes call volume for reporting: totals, the covered
// period, and distributions over weekday and hour of day.
type VolumeStats struct {
	TotalCalls   int            `json:"total_calls"`
	UniquePhones int            `json:"unique_phones"`
	PeriodStart  time.Time      `json:"period_start"`
	PeriodEnd    time.Time      `json:"period_end"`
	ByWeekday    map[string]int `json:"calls_by_weekday"`
	ByHour       map[int]int    `json:"calls_by_hour"`
}

var weekdayNames = map[time.Weekday]string{
	time.Monday:    "Segunda-feira",
	time.Tuesday:   "Terça-feira",
	time.Wednesday: "Quarta-feira",
	time.Thursday:  "Quinta-feira",
	time.Friday:    "Sexta-feira",
	time.Saturday:  "Sábado",
	time.Sunday:    "Domingo",
}

// Volume computes VolumeStats over the canonical call table.
func Volume(records []types.CallRecord) VolumeStats {
	stats := VolumeStats{
		TotalCalls: len(records),
		ByWeekday:  map[string]int{},
		ByHour:     map[int]int{},
	}
	phones := map[string]struct{}{}
	for i, r := range records {
		if r.Phone != "" {
			phones[r.Phone] = struct{}{}
		}
		if i == 0 || r.Timestamp.Before(stats.PeriodStart) {
			stats.PeriodStart = r.Timestamp
		}
		if i == 0 || r.Timestamp.After(stats.PeriodEnd) {
			stats.PeriodEnd = r.Timestamp
		}
		stats.ByWeekday[weekdayNames[r.Timestamp.Weekday()]]++
		stats.ByHour[r.Timestamp.Hour()]++
	}
	stats.UniquePhones = len(phones)
	return stats
}
