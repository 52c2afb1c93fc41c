package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePayload = `{
	"hoje": [
		{
			"id": "A1",
			"descricao": "Chuvas Intensas",
			"severidade": "Perigo",
			"id_severidade": 2,
			"riscos": "Risco de alagamentos",
			"instrucoes": "Evite enfrentar o mau tempo",
			"aviso_cor": "Laranja",
			"alterado": false,
			"encerrado": false,
			"inicio": "2025-03-10 08:00",
			"fim": "2025-03-10 20:00",
			"id_sequencia": 42,
			"geocodes": "3509502,3550308"
		}
	],
	"futuro": [
		{
			"id": "A2",
			"descricao": "Tempestade",
			"severidade": "Grande Perigo",
			"id_severidade": 3,
			"geocodes": "3509502",
			"alterado": true,
			"encerrado": false,
			"inicio": "2025-03-11 00:00",
			"fim": "2025-03-11 12:00",
			"id_sequencia": 43
		}
	]
}`

func TestFeedPayloadDecode(t *testing.T) {
	var payload FeedPayload
	require.NoError(t, json.Unmarshal([]byte(samplePayload), &payload))

	require.Len(t, payload.Today, 1)
	require.Len(t, payload.Future, 1)

	alert := payload.Today[0]
	assert.Equal(t, "A1", alert.ID)
	assert.Equal(t, "Chuvas Intensas", alert.Description)
	assert.Equal(t, "Perigo", alert.Severity)
	assert.Equal(t, 2, alert.SeverityID)
	assert.Equal(t, "Laranja", alert.Color)
	assert.False(t, alert.Modified)
	assert.Equal(t, 42, alert.Sequence)
	assert.Equal(t, time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC), alert.Start.Time)
	assert.Equal(t, time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC), alert.End.Time)
}

func TestFeedTimeUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{name: "valid", input: `"2025-03-10 08:00"`, want: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)},
		{name: "empty", input: `""`, want: time.Time{}},
		{name: "null", input: `null`, want: time.Time{}},
		{name: "garbage", input: `"10/03/2025"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ft FeedTime
			err := json.Unmarshal([]byte(tt.input), &ft)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ft.Time)
		})
	}
}

func TestFeedTimeMarshalRoundTrip(t *testing.T) {
	ft := FeedTime{Time: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)}
	data, err := json.Marshal(ft)
	require.NoError(t, err)
	assert.Equal(t, `"2025-03-10 08:00"`, string(data))

	data, err = json.Marshal(FeedTime{})
	require.NoError(t, err)
	assert.Equal(t, `""`, string(data))
}

func TestAlertAppliesTo(t *testing.T) {
	alert := Alert{Geocodes: "3509502, 3550308,1234"}

	assert.True(t, alert.AppliesTo("3509502"))
	assert.True(t, alert.AppliesTo("3550308"))
	assert.True(t, alert.AppliesTo("1234"))
	// Substrings of a listed code do not match.
	assert.False(t, alert.AppliesTo("350950"))
	assert.False(t, alert.AppliesTo("9999999"))
}

func TestSnapshotLookup(t *testing.T) {
	snap := NewSnapshot([]Alert{
		{ID: "A1", Description: "Chuvas Intensas"},
		{ID: "A2", Description: "Tempestade", Future: true},
	})

	assert.Equal(t, 2, snap.Count())

	alert, ok := snap.Get("A2")
	require.True(t, ok)
	assert.True(t, alert.Future)

	_, ok = snap.Get("missing")
	assert.False(t, ok)

	ids := snap.AlertIDs()
	assert.Len(t, ids, 2)
	assert.Contains(t, ids, "A1")
	assert.Contains(t, ids, "A2")
}

func TestSnapshotAlertsCopies(t *testing.T) {
	snap := NewSnapshot([]Alert{{ID: "A1"}})
	alerts := snap.Alerts()
	alerts[0].ID = "mutated"

	alert, ok := snap.Get("A1")
	require.True(t, ok)
	assert.Equal(t, "A1", alert.ID)
}
