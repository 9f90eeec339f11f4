package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recall-insights-go/internal/table"
)

func TestParseHandleTime(t *testing.T) {
	tab := table.Table{
		Headers: []string{"Nome do agente", "Atendidas", "Transferidas", "TMA"},
		Rows: [][]string{
			{"  Ana Silva  ", "100", "10", "00:05:00"},
			{"Bruno", "50", "5", "TMA: 00:02:00 (média)"},
			{"Carla", "20", "0", "sem dados"},
		},
	}
	out, err := ParseHandleTime(tab)
	require.NoError(t, err)
	require.Len(t, out, 3)

	ana := out["ana silva"]
	assert.Equal(t, 100.0, ana.CallsHandled)
	assert.Equal(t, 10.0, ana.Transfers)
	assert.InDelta(t, 300.0, ana.AvgHandleSeconds, 1e-9)

	// embedded hh:mm:ss is extracted from surrounding text
	assert.InDelta(t, 120.0, out["bruno"].AvgHandleSeconds, 1e-9)
	// no hh:mm:ss anywhere degrades to zero
	assert.InDelta(t, 0.0, out["carla"].AvgHandleSeconds, 1e-9)
}

func TestParseHandleTimeAggregatesDuplicates(t *testing.T) {
	tab := table.Table{
		Headers: []string{"Nome do agente", "Atendidas", "Transferidas", "TMA"},
		Rows: [][]string{
			{"Ana", "100", "10", "00:05:00"},
			{"ana", "100", "0", "00:03:00"},
		},
	}
	out, err := ParseHandleTime(tab)
	require.NoError(t, err)
	require.Len(t, out, 1)
	ana := out["ana"]
	assert.Equal(t, 200.0, ana.CallsHandled)
	assert.Equal(t, 10.0, ana.Transfers)
	assert.InDelta(t, 240.0, ana.AvgHandleSeconds, 1e-9) // call-weighted mean
}

func TestParseHandleTimeMissingColumns(t *testing.T) {
	tab := table.Table{Headers: []string{"Nome do agente", "Atendidas"}}
	_, err := ParseHandleTime(tab)
	require.ErrorIs(t, err, ErrMissingColumns)
	assert.Contains(t, err.Error(), "TMA")
	assert.Contains(t, err.Error(), "Transferidas")
}

func TestParseDisconnects(t *testing.T) {
	tab := table.Table{
		Headers: []string{"Nome do agente", "Desligou"},
		Rows: [][]string{
			{"Ana", "Agente"},
			{"Ana", "Cliente"},
			{"Ana", " agente "},
			{"Bruno", "Cliente"},
		},
	}
	out, err := ParseDisconnects(tab)
	require.NoError(t, err)
	assert.Equal(t, 2.0, out["ana"])
	assert.Equal(t, 0.0, out["bruno"])
	_, present := out["bruno"]
	assert.True(t, present, "agents with zero disconnects still appear")
}

func TestParseSatisfaction(t *testing.T) {
	tab := table.Table{
		Headers: []string{"Nome do atribuído", "NPS Atendente"},
		Rows: [][]string{
			{"Ana", "8"},
			{"Ana", "10"},
			{"Ana", "sem resposta"},
			{"Bruno", "7,5"},
		},
	}
	out, err := ParseSatisfaction(tab)
	require.NoError(t, err)
	assert.InDelta(t, 9.0, out["ana"], 1e-9, "non-numeric rows are skipped, not zeroed")
	assert.InDelta(t, 7.5, out["bruno"], 1e-9)
}
