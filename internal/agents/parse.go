// Package agents merges agent-keyed performance exports into a single
// scored, ranked table. Three source files feed it: the handle-time
// export (calls handled, transfers, average handle time), the disconnect
// export (which side hung up), and the satisfaction survey.
package agents

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"recall-insights-go/internal/ingest"
	"recall-insights-go/internal/table"
)

var ErrMissingColumns = errors.New("required columns missing")

// Source column names as the telephony platform exports them.
const (
	colAgentName    = "Nome do agente"
	colCallsHandled = "Atendidas"
	colTransfers    = "Transferidas"
	colHandleTime   = "TMA"
	colDisconnectBy = "Desligou"
	colAssignee     = "Nome do atribuído"
	colSurveyScore  = "NPS Atendente"
)

// HandleTime is one agent's row from the handle-time export.
type HandleTime struct {
	CallsHandled     float64
	Transfers        float64
	AvgHandleSeconds float64
}

// agentKey normalizes an agent name for joining across files.
func agentKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func requireColumns(t table.Table, kind string, cols ...string) (map[string]int, error) {
	idx := make(map[string]int, len(cols))
	var missing []string
	for _, c := range cols {
		i := t.ColumnIndex(c)
		if i < 0 {
			missing = append(missing, c)
			continue
		}
		idx[c] = i
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w in %s file: %s", ErrMissingColumns, kind, strings.Join(missing, ", "))
	}
	return idx, nil
}

func parseNumber(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

var handleTimePattern = regexp.MustCompile(`\d{2}:\d{2}:\d{2}`)

// ParseHandleTime reads the handle-time export. The TMA cell may embed
// the hh:mm:ss value in surrounding text; anything without one parses
// to 0. Duplicate agent rows are aggregated: counts are summed and the
// average handle time is weighted by calls handled.
func ParseHandleTime(t table.Table) (map[string]HandleTime, error) {
	idx, err := requireColumns(t, "handle-time", colAgentName, colCallsHandled, colTransfers, colHandleTime)
	if err != nil {
		return nil, err
	}

	type acc struct {
		ht          HandleTime
		weightedSum float64
	}
	accs := map[string]*acc{}
	for ri := range t.Rows {
		key := agentKey(t.Cell(ri, idx[colAgentName]))
		if key == "" {
			continue
		}
		calls := parseNumber(t.Cell(ri, idx[colCallsHandled]))
		transfers := parseNumber(t.Cell(ri, idx[colTransfers]))
		tma := 0
		if m := handleTimePattern.FindString(t.Cell(ri, idx[colHandleTime])); m != "" {
			tma = ingest.ParseDurationSeconds(m)
		}
		a := accs[key]
		if a == nil {
			a = &acc{}
			accs[key] = a
		}
		a.ht.CallsHandled += calls
		a.ht.Transfers += transfers
		a.weightedSum += float64(tma) * calls
	}

	out := make(map[string]HandleTime, len(accs))
	for key, a := range accs {
		if a.ht.CallsHandled > 0 {
			a.ht.AvgHandleSeconds = a.weightedSum / a.ht.CallsHandled
		}
		out[key] = a.ht
	}
	return out, nil
}

// ParseDisconnects counts, per agent, the calls the agent side hung up.
func ParseDisconnects(t table.Table) (map[string]float64, error) {
	idx, err := requireColumns(t, "disconnect", colAgentName, colDisconnectBy)
	if err != nil {
		return nil, err
	}
	out := map[string]float64{}
	for ri := range t.Rows {
		key := agentKey(t.Cell(ri, idx[colAgentName]))
		if key == "" {
			continue
		}
		if _, ok := out[key]; !ok {
			out[key] = 0
		}
		if strings.ToLower(strings.TrimSpace(t.Cell(ri, idx[colDisconnectBy]))) == "agente" {
			out[key]++
		}
	}
	return out, nil
}

// ParseSatisfaction averages the numeric survey score per agent.
// Non-numeric scores are skipped, not zeroed, so an agent's mean only
// reflects answered surveys.
func ParseSatisfaction(t table.Table) (map[string]float64, error) {
	idx, err := requireColumns(t, "satisfaction", colAssignee, colSurveyScore)
	if err != nil {
		return nil, err
	}
	sums := map[string]float64{}
	counts := map[string]int{}
	for ri := range t.Rows {
		key := agentKey(t.Cell(ri, idx[colAssignee]))
		if key == "" {
			continue
		}
		raw := strings.TrimSpace(strings.ReplaceAll(t.Cell(ri, idx[colSurveyScore]), ",", "."))
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		sums[key] += score
		counts[key]++
	}
	out := make(map[string]float64, len(sums))
	for key, sum := range sums {
		out[key] = sum / float64(counts[key])
	}
	return out, nil
}
