package recall

// Impact is the estimated cost of recalls at a per-call unit cost. The
// mais_72h bucket sits outside the actionable recall window and never
// contributes, so its per-window entry is fixed at zero.
type Impact struct {
	Total    float64            `json:"total"`
	ByWindow map[Window]float64 `json:"by_window"`
	UnitCost float64            `json:"unit_cost"`
}

// FinancialImpact prices the actionable recall buckets.
func FinancialImpact(buckets Buckets, unitCost float64) Impact {
	imp := Impact{
		UnitCost: unitCost,
		ByWindow: map[Window]float64{
			Window0to24:  float64(len(buckets[Window0to24])) * unitCost,
			Window24to48: float64(len(buckets[Window24to48])) * unitCost,
			Window48to72: float64(len(buckets[Window48to72])) * unitCost,
			WindowOver72: 0,
		},
	}
	actionable := len(buckets[Window0to24]) + len(buckets[Window24to48]) + len(buckets[Window48to72])
	imp.Total = float64(actionable) * unitCost
	return imp
}
