package snapshot

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fpl-strategy-mcp/internal/model"
	"fpl-strategy-mcp/internal/store"
)

func writeJSON(t *testing.T, st *store.JSONStore, rel string, v any) {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, st.WriteRaw(rel, b, false))
}

func seed(t *testing.T) *store.JSONStore {
	t.Helper()
	st := store.NewJSONStore(t.TempDir())
	writeJSON(t, st, store.BootstrapPath, map[string]any{
		"teams": []map[string]any{
			{"id": 1, "name": "Arsenal", "short_name": "ARS"},
			{"id": 2, "name": "Chelsea", "short_name": "CHE"},
		},
		"events": []map[string]any{
			{"id": 3, "is_current": true, "finished": true},
			{"id": 4, "is_next": true},
		},
		"elements": []map[string]any{
			{"id": 10, "web_name": "Saka", "element_type": 3, "team": 1, "now_cost": 100, "status": "a",
				"form": "6.5", "points_per_game": "6.0", "total_points": 18, "bonus": 3,
				"minutes": 270, "starts": 3, "goals_scored": 2, "assists": 1, "ict_index": "30.1"},
			{"id": 11, "web_name": "Raya", "element_type": 1, "team": 1, "now_cost": 55, "status": "a",
				"form": "4.0", "points_per_game": "4.0", "total_points": 12, "minutes": 270, "starts": 3, "clean_sheets": 2},
			{"id": 20, "web_name": "Palmer", "element_type": 3, "team": 2, "now_cost": 105, "status": "a",
				"form": "8.0", "points_per_game": "0.0", "total_points": 0, "minutes": 0, "starts": 0},
			{"id": 21, "web_name": "Gone", "element_type": 4, "team": 2, "now_cost": 45, "status": "u"},
		},
	})
	writeJSON(t, st, store.FixturesPath, []map[string]any{
		{"id": 2, "event": 4, "team_h": 2, "team_a": 1, "team_h_difficulty": 4, "team_a_difficulty": 3},
		{"id": 1, "event": 3, "team_h": 1, "team_a": 2, "team_h_difficulty": 3, "team_a_difficulty": 4, "finished": true},
		{"id": 3, "event": nil, "team_h": 1, "team_a": 2, "team_h_difficulty": 2, "team_a_difficulty": 5},
	})
	writeJSON(t, st, store.PicksPath(77, 3), map[string]any{
		"active_chip":   nil,
		"entry_history": map[string]any{"event": 3, "bank": 15},
		"picks": []map[string]any{
			{"element": 10, "position": 2},
			{"element": 11, "position": 1},
		},
	})
	writeJSON(t, st, store.HistoryPath(77), map[string]any{
		"current": []map[string]any{
			{"event": 1, "event_transfers": 0},
			{"event": 2, "event_transfers": 0},
			{"event": 3, "event_transfers": 5},
		},
		"chips": []map[string]any{
			{"name": "wildcard", "event": 3},
			{"name": "3xc", "event": 2},
		},
	})
	return st
}

func TestLoadSeason(t *testing.T) {
	s, err := LoadSeason(seed(t))
	require.NoError(t, err)

	assert.Equal(t, 3, s.CurrentCycle)
	assert.Equal(t, 4, s.NextCycle)
	assert.Equal(t, "ARS", s.TeamNames[1])
	require.Len(t, s.Calendar, 3)
	assert.Equal(t, 0, s.Calendar[0].Cycle, "unscheduled fixture sorts first")
	assert.Equal(t, 3, s.Calendar[1].Cycle)

	saka, ok := s.Member(10)
	require.True(t, ok)
	assert.Equal(t, model.Midfielder, saka.Role)
	assert.InDelta(t, 10.0, saka.Price, 1e-9)
	assert.InDelta(t, 6.5, saka.Form, 1e-9)
	assert.Equal(t, 3, saka.GamesPlayed)
	assert.InDelta(t, 30.1, saka.ICTIndex, 1e-9)

	palmer, _ := s.Member(20)
	assert.Equal(t, 0, palmer.GamesPlayed)
}

func TestLoadEntry(t *testing.T) {
	st := seed(t)
	s, err := LoadSeason(st)
	require.NoError(t, err)

	e, err := s.LoadEntry(st, 77, 3, Rules{FreeTransferCap: 2, ChipsPerSeason: 2})
	require.NoError(t, err)

	require.Len(t, e.Roster, 2)
	assert.Equal(t, 11, e.Roster[0].ID, "ordered by squad position")
	require.Len(t, e.Pool, 1)
	assert.Equal(t, 20, e.Pool[0].ID)
	assert.InDelta(t, 1.5, e.Budget.Bank, 1e-9)
	assert.Equal(t, 2, e.Budget.FreeTransfers)
	assert.Equal(t, []int{1}, e.Teams())

	want := map[model.ChipType]int{model.Wildcard: 1, model.BenchBoost: 2, model.TripleCaptain: 1, model.FreeHit: 2}
	for _, a := range e.Chips {
		assert.Equal(t, want[a.Type], a.Remaining, a.Type.String())
	}
	assert.Equal(t, []int{3}, e.Chips[0].Used, "played wildcard cycle is kept")
	assert.Equal(t, []int{2}, e.Chips[2].Used)
	assert.Nil(t, e.Chips[1].Used)
}

func TestLoadEntry_Missing(t *testing.T) {
	st := seed(t)
	s, err := LoadSeason(st)
	require.NoError(t, err)

	_, err = s.LoadEntry(st, 99, 3, Rules{FreeTransferCap: 2, ChipsPerSeason: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load picks")
}

func TestLoadSeason_Missing(t *testing.T) {
	_, err := LoadSeason(store.NewJSONStore(t.TempDir()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load bootstrap")
}

func TestFreeTransfers(t *testing.T) {
	row := func(ev, n int) struct {
		Event          int `json:"event"`
		Bank           int `json:"bank"`
		EventTransfers int `json:"event_transfers"`
	} {
		return struct {
			Event          int `json:"event"`
			Bank           int `json:"bank"`
			EventTransfers int `json:"event_transfers"`
		}{Event: ev, EventTransfers: n}
	}
	tests := []struct {
		name string
		rows []int
		want int
	}{
		{"NoHistory", nil, 1},
		{"FirstWeekOnly", []int{3}, 1},
		{"Rollover", []int{0, 0}, 2},
		{"Capped", []int{0, 0, 0, 0}, 2},
		{"SpentAll", []int{0, 0, 2}, 1},
		{"Hit", []int{0, 3}, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var h rawHistory
			for i, n := range tc.rows {
				h.Current = append(h.Current, row(i+1, n))
			}
			assert.Equal(t, tc.want, freeTransfers(h, 2))
		})
	}
}
