package projection

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fpl-strategy-mcp/internal/config"
	"fpl-strategy-mcp/internal/fixtures"
	"fpl-strategy-mcp/internal/model"
)

// steady is a midfielder averaging 5 points with full minutes and no secondary signals.
func steady() model.RosterMember {
	return model.RosterMember{
		ID: 1, Role: model.Midfielder, TeamID: 1, Price: 6.0,
		Form: 5, SeasonPoints: 50, GamesPlayed: 10,
		Minutes: 900, Starts: 10,
	}
}

func flatCalendar(team, from, n, difficulty int) []model.Fixture {
	out := make([]model.Fixture, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, model.Fixture{
			ID: i + 1, Cycle: from + i, HomeTeam: team, AwayTeam: 99,
			HomeDifficulty: difficulty, AwayDifficulty: 3,
		})
	}
	return out
}

func newModel(calendar []model.Fixture, from int) *Model {
	cfg := config.Default()
	return New(cfg.Projection, fixtures.NewIndex(cfg.Difficulty, calendar), from)
}

func TestProject_BaseBlend(t *testing.T) {
	m := newModel(nil, 10)

	got, err := m.Project(steady(), 2)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, got, 1e-9)
}

func TestProject_FixtureMultiplier(t *testing.T) {
	tests := []struct {
		name       string
		difficulty int
		want       float64
	}{
		{"Easiest", 1, 12.0},
		{"Easy", 2, 11.0},
		{"Neutral", 3, 10.0},
		{"Hardest", 5, 8.0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := newModel(flatCalendar(1, 10, 2, tc.difficulty), 10)
			got, err := m.Project(steady(), 2)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestBreakdown_Components(t *testing.T) {
	m := newModel(flatCalendar(1, 10, 3, 2), 10)
	member := steady()
	member.Bonus = 10

	b, err := m.Breakdown(member, 3)
	require.NoError(t, err)
	assert.Equal(t, 10, b.FromCycle)
	assert.Equal(t, 3, b.Horizon)
	assert.InDelta(t, 15.0, b.Base, 1e-9)
	assert.InDelta(t, 1.02, b.BonusFactor, 1e-9)
	assert.InDelta(t, 2.0, b.Difficulty, 1e-9)
	assert.InDelta(t, 1.1, b.Fixture, 1e-9)
	assert.InDelta(t, 1.0, b.Role, 1e-9)
	assert.InDelta(t, 1.0, b.Availability, 1e-9)
	assert.InDelta(t, 15.0*1.02*1.1, b.Projection, 1e-9)
}

func TestBreakdown_RoleBonusCapped(t *testing.T) {
	m := newModel(nil, 1)

	def := steady()
	def.Role = model.Defender
	def.CleanSheets = 10
	def.Goals = 10
	b, err := m.Breakdown(def, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.15, b.Role, 1e-9)

	def.Goals = 20
	b, err = m.Breakdown(def, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.15, b.Role, 1e-9, "bonus is capped")

	gk := steady()
	gk.Role = model.Goalkeeper
	gk.CleanSheets = 5
	b, err = m.Breakdown(gk, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.05, b.Role, 1e-9)
}

func TestBreakdown_Availability(t *testing.T) {
	m := newModel(nil, 1)
	tests := []struct {
		name    string
		minutes int
		starts  int
		want    float64
	}{
		{"FullMinutes", 900, 10, 1.0},
		{"SixtyPerStart", 600, 10, 600.0 / 10 / 90},
		{"RotationRiskFloored", 300, 10, 0.7},
		{"NeverStarted", 0, 0, 0.7},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			member := steady()
			member.Minutes = tc.minutes
			member.Starts = tc.starts
			b, err := m.Breakdown(member, 1)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, b.Availability, 1e-9)
		})
	}
}

func TestProject_FlooredAtZero(t *testing.T) {
	m := newModel(nil, 1)
	member := steady()
	member.Form = -20

	got, err := m.Project(member, 3)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestProject_InvalidHorizon(t *testing.T) {
	m := newModel(nil, 1)
	for _, h := range []int{0, -3} {
		_, err := m.Project(steady(), h)
		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrInvalidHorizon))

		var ce *model.ComponentError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "projection", ce.Component)
		assert.Equal(t, "horizon", ce.Input)
	}
}

func TestProject_Deterministic(t *testing.T) {
	m := newModel(flatCalendar(1, 5, 6, 2), 5)
	member := steady()
	member.Bonus = 7
	member.Assists = 3

	first, err := m.Project(member, 6)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := m.Project(member, 6)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestBreakdown_MinutesFactor(t *testing.T) {
	// two full appearances in ten elapsed cycles
	sparse := steady()
	sparse.Minutes = 180
	sparse.Starts = 2

	tests := []struct {
		name   string
		from   int
		weight float64
		want   float64
	}{
		{"FewAppearances", 11, 1, 0.2},
		{"HalfWeighted", 11, 0.5, 0.6},
		{"Disabled", 11, 0, 1},
		{"SeasonStart", 1, 1, 1},
		{"EveryCycle", 3, 1, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Projection.MinutesWeight = tc.weight
			m := New(cfg.Projection, fixtures.NewIndex(cfg.Difficulty, nil), tc.from)

			b, err := m.Breakdown(sparse, 1)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, b.Minutes, 1e-9)
			assert.InDelta(t, 5*tc.want, b.Base, 1e-9)
			assert.InDelta(t, 1.0, b.Availability, 1e-9)
			assert.InDelta(t, 5*tc.want, b.Projection, 1e-9)
		})
	}
}
