// Package reasons joins detected recall pairs against the uploaded
// reason ("target") dataset, attributing a contact reason to both the
// first call and the repeat call of every pair.
package reasons

import (
	"errors"
	"sort"
	"strings"
	"time"

	"recall-insights-go/internal/logger"
	"recall-insights-go/internal/recall"
	"recall-insights-go/internal/table"
)

var (
	ErrNoRecallEvents  = errors.New("no recall events to cross-reference")
	ErrEmptyTarget     = errors.New("reason dataset is empty")
	ErrMissingIDColumn = errors.New("identifier column not found in reason dataset")
	ErrNoReasonColumns = errors.New("none of the requested reason columns exist in the dataset")
)

// ValueSeparator joins multiple distinct reason values for one
// conversation id.
const ValueSeparator = " | "

// Attribution is one recall pair enriched with reason values. Reason
// maps are keyed by source column name; an id with no match in the
// dataset simply has no entry.
type Attribution struct {
	Phone           string            `json:"phone"`
	Window          recall.Window     `json:"window"`
	FirstCallID     string            `json:"first_call_id"`
	RepeatCallID    string            `json:"repeat_call_id"`
	FirstCallTime   time.Time         `json:"first_call_time"`
	RepeatCallTime  time.Time         `json:"repeat_call_time"`
	HoursSinceFirst float64           `json:"hours_since_first"`
	FirstReasons    map[string]string `json:"first_call_reasons,omitempty"`
	RepeatReasons   map[string]string `json:"repeat_call_reasons,omitempty"`
}

// CrossReference flattens the recall buckets and left-joins them twice
// against the reason dataset, once per side of the pair. The dataset is
// pre-aggregated to one row per identifier (sorted distinct non-empty
// values joined with ValueSeparator), so the joins cannot fan out: the
// output row count equals the flattened event count.
func CrossReference(buckets recall.Buckets, target table.Table, idCol string, reasonCols []string) ([]Attribution, error) {
	log := logger.Component("reasons")

	if buckets.Total() == 0 {
		return nil, ErrNoRecallEvents
	}
	if target.Empty() {
		return nil, ErrEmptyTarget
	}
	idIdx := target.ColumnIndex(idCol)
	if idIdx < 0 {
		return nil, ErrMissingIDColumn
	}

	present := make([]string, 0, len(reasonCols))
	colIdx := make([]int, 0, len(reasonCols))
	for _, c := range reasonCols {
		if i := target.ColumnIndex(c); i >= 0 {
			present = append(present, c)
			colIdx = append(colIdx, i)
		}
	}
	if len(present) == 0 {
		return nil, ErrNoReasonColumns
	}

	// One row per identifier: distinct non-empty values per reason
	// column, sorted and joined.
	distinct := map[string]map[string]map[string]struct{}{}
	for ri := range target.Rows {
		id := strings.TrimSpace(target.Cell(ri, idIdx))
		if id == "" {
			continue
		}
		if distinct[id] == nil {
			distinct[id] = map[string]map[string]struct{}{}
		}
		for ci, col := range present {
			v := strings.TrimSpace(target.Cell(ri, colIdx[ci]))
			if v == "" {
				continue
			}
			if distinct[id][col] == nil {
				distinct[id][col] = map[string]struct{}{}
			}
			distinct[id][col][v] = struct{}{}
		}
	}
	aggregated := make(map[string]map[string]string, len(distinct))
	for id, cols := range distinct {
		row := map[string]string{}
		for col, vals := range cols {
			joined := make([]string, 0, len(vals))
			for v := range vals {
				joined = append(joined, v)
			}
			sort.Strings(joined)
			row[col] = strings.Join(joined, ValueSeparator)
		}
		aggregated[id] = row
	}

	lookup := func(id string) map[string]string {
		row, ok := aggregated[strings.TrimSpace(id)]
		if !ok || len(row) == 0 {
			return nil
		}
		out := make(map[string]string, len(row))
		for k, v := range row {
			out[k] = v
		}
		return out
	}

	type naturalKey struct {
		phone, firstID, repeatID string
		firstTime, repeatTime    time.Time
	}
	seen := map[naturalKey]struct{}{}

	var out []Attribution
	for _, w := range recall.Windows {
		for _, ev := range buckets[w] {
			key := naturalKey{ev.Phone, ev.FirstCallID, ev.RepeatCallID, ev.FirstCallTime, ev.RepeatCallTime}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, Attribution{
				Phone:           ev.Phone,
				Window:          w,
				FirstCallID:     ev.FirstCallID,
				RepeatCallID:    ev.RepeatCallID,
				FirstCallTime:   ev.FirstCallTime,
				RepeatCallTime:  ev.RepeatCallTime,
				HoursSinceFirst: ev.HoursSinceFirst,
				FirstReasons:    lookup(ev.FirstCallID),
				RepeatReasons:   lookup(ev.RepeatCallID),
			})
		}
	}

	log.WithFields(map[string]interface{}{
		"pairs":          len(out),
		"reason_columns": present,
	}).Info("cross-reference complete")
	return out, nil
}
