package agents

import (
	"errors"
	"fmt"
	"sort"

	"recall-insights-go/internal/logger"
	"recall-insights-go/internal/metrics"
	"recall-insights-go/internal/types"
)

// Metric names accepted in a weight configuration.
const (
	MetricHandleTime     = "handle_time"
	MetricSatisfaction   = "satisfaction"
	MetricTransferRate   = "transfer_rate"
	MetricDisconnectRate = "disconnect_rate"
)

var (
	ErrZeroWeights   = errors.New("at least one metric weight must be non-zero")
	ErrUnknownMetric = errors.New("unknown metric in weights")
	ErrNoAgents      = errors.New("no agent has handled calls")
)

// Weights maps metric name to relative weight. Weights need not sum to
// 1; they are renormalized before use.
type Weights map[string]float64

var knownMetrics = map[string]struct{}{
	MetricHandleTime:     {},
	MetricSatisfaction:   {},
	MetricTransferRate:   {},
	MetricDisconnectRate: {},
}

// normalize validates the weight set and scales it to sum to 1.
func (w Weights) normalize() (Weights, error) {
	total := 0.0
	for name, v := range w {
		if _, ok := knownMetrics[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
		}
		total += v
	}
	if total == 0 {
		return nil, ErrZeroWeights
	}
	out := make(Weights, len(w))
	for name, v := range w {
		out[name] = v / total
	}
	return out, nil
}

// normalizeSeries min-max scales values to 0-100. With invert set, the
// lowest raw value scores 100. A constant series scores everyone at the
// midpoint instead of dividing by zero.
func normalizeSeries(values []float64, invert bool) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if max == min {
		for i := range out {
			out[i] = 50
		}
		return out
	}
	for i, v := range values {
		score := (v - min) / (max - min) * 100
		if invert {
			score = 100 - score
		}
		out[i] = score
	}
	return out
}

func clipPct(v float64) float64 {
	if v > 100 {
		return 100
	}
	return v
}

// Score outer-merges the three performance sources on the normalized
// agent key, derives percentages, min-max normalizes every metric and
// combines them into a weighted composite with competition ranking.
// Agents with zero handled calls cannot be scored and are excluded.
// When maxDisconnectPct > 0 the disconnect score is additionally scaled
// by 1 - min(pct/max, 1) before weighting.
func Score(handle map[string]HandleTime, disconnects, satisfaction map[string]float64, weights Weights, maxDisconnectPct float64) ([]types.AgentMetrics, error) {
	norm, err := weights.normalize()
	if err != nil {
		return nil, err
	}

	keys := map[string]struct{}{}
	for k := range handle {
		keys[k] = struct{}{}
	}
	for k := range disconnects {
		keys[k] = struct{}{}
	}
	for k := range satisfaction {
		keys[k] = struct{}{}
	}

	rows := make([]types.AgentMetrics, 0, len(keys))
	for k := range keys {
		ht := handle[k] // zero value fills missing metrics
		if ht.CallsHandled == 0 {
			continue
		}
		row := types.AgentMetrics{
			AgentID:            k,
			CallsHandled:       ht.CallsHandled,
			AvgHandleSeconds:   ht.AvgHandleSeconds,
			Transfers:          ht.Transfers,
			DisconnectsByAgent: disconnects[k],
			SatisfactionScore:  satisfaction[k],
		}
		row.PctTransfer = clipPct(row.Transfers / row.CallsHandled * 100)
		row.PctDisconnectAgent = clipPct(row.DisconnectsByAgent / row.CallsHandled * 100)
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, ErrNoAgents
	}

	series := func(get func(types.AgentMetrics) float64) []float64 {
		vals := make([]float64, len(rows))
		for i, r := range rows {
			vals[i] = get(r)
		}
		return vals
	}
	handleScores := normalizeSeries(series(func(r types.AgentMetrics) float64 { return r.AvgHandleSeconds }), true)
	satScores := normalizeSeries(series(func(r types.AgentMetrics) float64 { return r.SatisfactionScore }), false)
	// transfers here are survey forwardings: a higher rate is better
	transferScores := normalizeSeries(series(func(r types.AgentMetrics) float64 { return r.PctTransfer }), false)
	disconnectScores := normalizeSeries(series(func(r types.AgentMetrics) float64 { return r.PctDisconnectAgent }), true)

	for i := range rows {
		rows[i].HandleTimeScore = handleScores[i]
		rows[i].SatisfactionNorm = satScores[i]
		rows[i].TransferRateScore = transferScores[i]
		rows[i].DisconnectRateScore = disconnectScores[i]

		if maxDisconnectPct > 0 {
			over := rows[i].PctDisconnectAgent / maxDisconnectPct
			if over > 1 {
				over = 1
			}
			rows[i].DisconnectRateScore *= 1 - over
		}

		rows[i].CompositeScore = rows[i].HandleTimeScore*norm[MetricHandleTime] +
			rows[i].SatisfactionNorm*norm[MetricSatisfaction] +
			rows[i].TransferRateScore*norm[MetricTransferRate] +
			rows[i].DisconnectRateScore*norm[MetricDisconnectRate]
	}

	// Competition ranking over descending score: ties share the best
	// rank, the next distinct score continues past the tied block.
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].CompositeScore != rows[j].CompositeScore {
			return rows[i].CompositeScore > rows[j].CompositeScore
		}
		return rows[i].AgentID < rows[j].AgentID
	})
	for i := range rows {
		if i > 0 && rows[i].CompositeScore == rows[i-1].CompositeScore {
			rows[i].Rank = rows[i-1].Rank
			continue
		}
		rows[i].Rank = i + 1
	}

	metrics.AgentsRanked.Set(float64(len(rows)))
	logger.Component("agents").WithField("agents", len(rows)).Info("agent ranking generated")
	return rows, nil
}
