package types

import "time"

// CallRecord is one normalized row of the canonical call table. Every
// record that survives ingestion has a valid timestamp and a phone with
// at least 8 digits (or "" when the source had no phone column at all).
type CallRecord struct {
	Phone           string    `json:"phone"`
	Timestamp       time.Time `json:"timestamp"`
	DurationSeconds int       `json:"duration_seconds"`
	ConversationID  string    `json:"conversation_id"`
}

// AgentMetrics is one merged, scored row of the agent ranking.
type AgentMetrics struct {
	AgentID             string  `json:"agent_id"`
	CallsHandled        float64 `json:"calls_handled"`
	AvgHandleSeconds    float64 `json:"avg_handle_time_seconds"`
	Transfers           float64 `json:"transfers"`
	DisconnectsByAgent  float64 `json:"disconnects_by_agent"`
	SatisfactionScore   float64 `json:"satisfaction_score"`
	PctTransfer         float64 `json:"pct_transfer"`
	PctDisconnectAgent  float64 `json:"pct_disconnect_by_agent"`
	HandleTimeScore     float64 `json:"handle_time_score"`
	SatisfactionNorm    float64 `json:"satisfaction_score_norm"`
	TransferRateScore   float64 `json:"transfer_rate_score"`
	DisconnectRateScore float64 `json:"disconnect_rate_score"`
	CompositeScore      float64 `json:"composite_score"`
	Rank                int     `json:"rank"`
}
