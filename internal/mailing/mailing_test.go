package mailing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recall-insights-go/internal/recall"
	"recall-insights-go/internal/types"
)

var t0 = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func call(phone string, durSec int) types.CallRecord {
	return types.CallRecord{Phone: phone, Timestamp: t0, DurationSeconds: durSec}
}

func TestBuildCombinesCriteria(t *testing.T) {
	records := []types.CallRecord{
		call("p1", 60), call("p1", 60), call("p1", 60), // frequent
		call("p2", 1200),       // long call
		call("p3", 30),         // recalled (via buckets below)
		call("quiet", 10),      // matches nothing
	}
	buckets := recall.Buckets{
		recall.Window0to24: {recall.Event{Phone: "p3"}},
	}
	list := Build(records, buckets, Criteria{
		MinCalls:           3,
		RecallWindows:      []recall.Window{recall.Window0to24},
		MinLongCallSeconds: 600,
	})
	require.Len(t, list, 3)

	byPhone := map[string]Contact{}
	for _, c := range list {
		byPhone[c.Phone] = c
	}
	assert.True(t, byPhone["p1"].FrequentCaller)
	assert.Equal(t, 3, byPhone["p1"].TotalCalls)
	assert.True(t, byPhone["p2"].HasLongCall)
	assert.True(t, byPhone["p3"].HasRecall)
	assert.NotContains(t, byPhone, "quiet")
}

func TestBuildDisabledCriteriaSelectNothing(t *testing.T) {
	records := []types.CallRecord{call("p1", 5000), call("p1", 5000)}
	list := Build(records, recall.Buckets{}, Criteria{})
	assert.Empty(t, list)
}

func TestBuildRecallWindowFilter(t *testing.T) {
	buckets := recall.Buckets{
		recall.Window0to24:  {recall.Event{Phone: "early"}},
		recall.WindowOver72: {recall.Event{Phone: "late"}},
	}
	records := []types.CallRecord{call("early", 0), call("late", 0)}
	list := Build(records, buckets, Criteria{RecallWindows: []recall.Window{recall.Window0to24}})
	require.Len(t, list, 1)
	assert.Equal(t, "early", list[0].Phone)
}

func TestBuildDeduplicatesPhones(t *testing.T) {
	records := []types.CallRecord{
		call("p1", 1200), call("p1", 1300), call("p1", 1400),
	}
	list := Build(records, recall.Buckets{}, Criteria{MinCalls: 2, MinLongCallSeconds: 600})
	require.Len(t, list, 1)
	assert.True(t, list[0].FrequentCaller)
	assert.True(t, list[0].HasLongCall)
}
