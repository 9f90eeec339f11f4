package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recall-insights-go/internal/table"
)

func callTable(headers []string, rows ...[]string) table.Table {
	return table.Table{Headers: headers, Rows: rows}
}

func TestNormalizeCallsColumnDetection(t *testing.T) {
	tab := callTable(
		[]string{"Data", "ANI", "Duração", "ID de conversa"},
		[]string{"02/01/2024 10:30:00", "+55 (11) 99999-0000", "05:00", "conv-1"},
	)
	records, stats, err := NormalizeCalls(tab)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "5511999990000", rec.Phone)
	assert.Equal(t, time.Date(2024, 1, 2, 10, 30, 0, 0, time.UTC), rec.Timestamp)
	assert.Equal(t, 300, rec.DurationSeconds)
	assert.Equal(t, "conv-1", rec.ConversationID)

	assert.Equal(t, "Data", stats.TimestampColumn)
	assert.Equal(t, "ANI", stats.PhoneColumn)
	assert.Equal(t, "Duração", stats.DurationColumn)
	assert.Equal(t, "ID de conversa", stats.ConversationColumn)
}

func TestNormalizeCallsKeywordFallbacks(t *testing.T) {
	// no exact names: keyword scans must find these, and the metadata
	// marker column must not win the timestamp scan
	tab := callTable(
		[]string{"Carimbo parcial", "Hora da chamada", "Telefone cliente", "duration_sec", "Protocolo"},
		[]string{"meta", "2024-01-02 08:00:00", "5511988887777", "120", "p-9"},
	)
	records, stats, err := NormalizeCalls(tab)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Hora da chamada", stats.TimestampColumn)
	assert.Equal(t, "Telefone cliente", stats.PhoneColumn)
	assert.Equal(t, "duration_sec", stats.DurationColumn)
	assert.Equal(t, "Protocolo", stats.ConversationColumn)
	assert.Equal(t, 120, records[0].DurationSeconds)
}

func TestNormalizeCallsNoTimestampColumn(t *testing.T) {
	tab := callTable(
		[]string{"ANI", "Duração"},
		[]string{"5511999990000", "05:00"},
	)
	_, _, err := NormalizeCalls(tab)
	assert.ErrorIs(t, err, ErrNoTimestampColumn)
}

func TestNormalizeCallsTimestampCascade(t *testing.T) {
	tests := map[string]struct {
		raw      string
		expected time.Time
	}{
		"DayFirstFull":      {"15/03/2024 14:20:10", time.Date(2024, 3, 15, 14, 20, 10, 0, time.UTC)},
		"DayFirstNoSeconds": {"15/03/2024 14:20", time.Date(2024, 3, 15, 14, 20, 0, 0, time.UTC)},
		"DayFirstDateOnly":  {"15/03/2024", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		"ISOWithT":          {"2024-03-15T14:20:10", time.Date(2024, 3, 15, 14, 20, 10, 0, time.UTC)},
		"ISOSpace":          {"2024-03-15 14:20:10", time.Date(2024, 3, 15, 14, 20, 10, 0, time.UTC)},
		"ISOFractional":     {"2024-03-15 14:20:10.528", time.Date(2024, 3, 15, 14, 20, 10, 528000000, time.UTC)},
		"CollapsedSpaces":   {"15/03/2024   14:20:10", time.Date(2024, 3, 15, 14, 20, 10, 0, time.UTC)},
		"UnpaddedDayFirst":  {"5/3/2024 14:20:10", time.Date(2024, 3, 5, 14, 20, 10, 0, time.UTC)},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			ts, ok := parseTimestamp(tc.raw)
			require.True(t, ok)
			assert.True(t, tc.expected.Equal(ts), "got %v", ts)
		})
	}

	_, ok := parseTimestamp("not a date")
	assert.False(t, ok)
}

func TestNormalizeCallsDropsInvalidRows(t *testing.T) {
	tab := callTable(
		[]string{"Data", "ANI"},
		[]string{"01/01/2024 10:00:00", "5511999990000"},
		[]string{"never", "5511999990001"},
		[]string{"02/01/2024 10:00:00", "sip:anonymous@anonymous.invalid"},
		[]string{"03/01/2024 10:00:00", "anonymous"},
		[]string{"04/01/2024 10:00:00", "12345"},
		[]string{"05/01/2024 10:00:00", "2020159147"},
		[]string{"06/01/2024 10:00:00", "999999999"},
		[]string{"07/01/2024 10:00:00", "5511999990002"},
	)
	records, stats, err := NormalizeCalls(tab)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 1, stats.DroppedNoTimestamp)
	assert.Equal(t, 2, stats.DroppedBlockedPhone)
	assert.Equal(t, 1, stats.DroppedShortPhone)
	assert.Equal(t, 1, stats.DroppedInvalidNumber)
	assert.Equal(t, 1, stats.DroppedRepeatedDigit)
	assert.Equal(t, 2, stats.Kept)
}

func TestNormalizeCallsNoPhoneColumn(t *testing.T) {
	tab := callTable(
		[]string{"Data", "Observação"},
		[]string{"01/01/2024 10:00:00", "x"},
		[]string{"02/01/2024 10:00:00", "y"},
	)
	records, stats, err := NormalizeCalls(tab)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Empty(t, stats.PhoneColumn)
	for _, r := range records {
		assert.Equal(t, "", r.Phone)
	}
}

func TestNormalizeCallsSynthesizesConversationID(t *testing.T) {
	tab := callTable(
		[]string{"Data", "ANI"},
		[]string{"01/01/2024 10:00:00", "5511999990000"},
	)
	records, _, err := NormalizeCalls(tab)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "0_20240101100000", records[0].ConversationID)
}

func TestNormalizeCallsSortsByPhoneThenTime(t *testing.T) {
	tab := callTable(
		[]string{"Data", "ANI", "ID de conversa"},
		[]string{"03/01/2024 10:00:00", "5511999990001", "b2"},
		[]string{"01/01/2024 10:00:00", "5511999990001", "b1"},
		[]string{"02/01/2024 10:00:00", "5511999990000", "a1"},
	)
	records, _, err := NormalizeCalls(tab)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "a1", records[0].ConversationID)
	assert.Equal(t, "b1", records[1].ConversationID)
	assert.Equal(t, "b2", records[2].ConversationID)
}

func TestIngestionIsDeterministic(t *testing.T) {
	raw := []byte("Data;ANI;Dura\xe7\xe3o\n01/01/2024 10:00:00;5511999990000;05:00\n02/01/2024 11:00:00;5511999990001;00:30\n")
	run := func() []string {
		tab, err := LoadTable(raw, "csv")
		require.NoError(t, err)
		records, _, err := NormalizeCalls(tab)
		require.NoError(t, err)
		ids := make([]string, len(records))
		for i, r := range records {
			ids[i] = r.ConversationID + "|" + r.Phone + "|" + r.Timestamp.String()
		}
		return ids
	}
	assert.Equal(t, run(), run())
}
