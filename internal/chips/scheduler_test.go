package chips

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fpl-strategy-mcp/internal/anomaly"
	"fpl-strategy-mcp/internal/config"
	"fpl-strategy-mcp/internal/fixtures"
	"fpl-strategy-mcp/internal/model"
)

func flatSeason(difficulty int) []model.Fixture {
	var out []model.Fixture
	id := 1
	for c := 1; c <= 38; c++ {
		for t := 1; t <= 10; t++ {
			out = append(out, model.Fixture{
				ID: id, Cycle: c, HomeTeam: t, AwayTeam: t + 10,
				HomeDifficulty: difficulty, AwayDifficulty: difficulty,
			})
			id++
		}
	}
	return out
}

func drop(calendar []model.Fixture, cycle int, teams ...int) []model.Fixture {
	skip := map[int]bool{}
	for _, t := range teams {
		skip[t] = true
	}
	out := calendar[:0:0]
	for _, f := range calendar {
		if f.Cycle == cycle && (skip[f.HomeTeam] || skip[f.AwayTeam]) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// eventful has congested cycles 26 (easy) and 30 (hard) and a sparse cycle 33.
func eventful() []model.Fixture {
	cal := flatSeason(3)
	cal = append(cal,
		model.Fixture{ID: 901, Cycle: 26, HomeTeam: 1, AwayTeam: 2, HomeDifficulty: 2, AwayDifficulty: 2},
		model.Fixture{ID: 902, Cycle: 30, HomeTeam: 3, AwayTeam: 4, HomeDifficulty: 4, AwayDifficulty: 4},
	)
	return drop(cal, 33, 1, 2, 3, 4, 5, 6, 7)
}

type harness struct {
	scheduler *Scheduler
	anomalies map[int]anomaly.CycleInfo
	index     *fixtures.Index
}

func newHarness(t *testing.T, calendar []model.Fixture, current int) harness {
	t.Helper()
	cfg := config.Default()
	cfg.Anomaly.LikelyCongested = []config.CycleWindow{}
	cfg.Anomaly.LikelySparse = []config.CycleWindow{}

	classes, err := anomaly.NewDetector(cfg.Anomaly, cfg.Difficulty).Classify(calendar, current+1, cfg.Chips.SeasonLength-current)
	require.NoError(t, err)
	return harness{
		scheduler: NewScheduler(cfg.Chips),
		anomalies: classes,
		index:     fixtures.NewIndex(cfg.Difficulty, calendar),
	}
}

func (h harness) schedule(current int, focus []int, allotments ...model.ChipAllotment) []model.ChipAssignment {
	return h.scheduler.Schedule(allotments, h.anomalies, h.index, current, focus)
}

func cycles(as []model.ChipAssignment, t model.ChipType) []int {
	out := []int{}
	for _, a := range as {
		if a.Type == t {
			out = append(out, a.Cycle)
		}
	}
	return out
}

func TestSchedule_FullSeason(t *testing.T) {
	h := newHarness(t, eventful(), 5)
	got := h.schedule(5, nil,
		model.ChipAllotment{Type: model.FreeHit, Remaining: 1},
		model.ChipAllotment{Type: model.TripleCaptain, Remaining: 1},
		model.ChipAllotment{Type: model.BenchBoost, Remaining: 2},
		model.ChipAllotment{Type: model.Wildcard, Remaining: 2},
	)

	require.Len(t, got, 6)
	assert.Equal(t, []int{8, 25}, cycles(got, model.Wildcard))
	assert.Equal(t, []int{26, 30}, cycles(got, model.BenchBoost))
	assert.Equal(t, []int{26}, cycles(got, model.TripleCaptain))
	assert.Equal(t, []int{33}, cycles(got, model.FreeHit))

	wantOrder := []model.ChipType{model.Wildcard, model.Wildcard, model.BenchBoost, model.BenchBoost, model.TripleCaptain, model.FreeHit}
	for i, a := range got {
		assert.Equal(t, wantOrder[i], a.Type)
		assert.Equal(t, i+1, a.Priority)
		assert.NotEmpty(t, a.Rationale)
	}
	assert.Equal(t, 1, got[0].Allotment)
	assert.Equal(t, 2, got[1].Allotment)
	assert.Contains(t, got[2].Rationale, "congested")
	assert.Equal(t, 14.0, got[5].Score)
}

func TestSchedule_RestructureWindows(t *testing.T) {
	h := newHarness(t, flatSeason(3), 5)
	got := h.schedule(5, nil, model.ChipAllotment{Type: model.Wildcard, Remaining: 2})

	require.Len(t, got, 2)
	assert.GreaterOrEqual(t, got[0].Cycle, 8)
	assert.LessOrEqual(t, got[0].Cycle, 15)
	assert.GreaterOrEqual(t, got[1].Cycle, 25)
	assert.LessOrEqual(t, got[1].Cycle, 35)
	assert.NotEqual(t, got[0].Cycle, got[1].Cycle)
}

func TestSchedule_RestructureWindowsExhausted(t *testing.T) {
	h := newHarness(t, flatSeason(3), 34)
	got := h.schedule(34, nil, model.ChipAllotment{Type: model.Wildcard, Remaining: 2})

	assert.Equal(t, []int{37, 38}, cycles(got, model.Wildcard))
	assert.Contains(t, got[0].Rationale, "exhausted")
}

func TestSchedule_LockedCycles(t *testing.T) {
	h := newHarness(t, eventful(), 5)
	got := h.schedule(5, nil,
		model.ChipAllotment{Type: model.Wildcard, Remaining: 1, Locked: []int{10}},
		model.ChipAllotment{Type: model.BenchBoost, Remaining: 1, Locked: []int{26}},
	)

	require.Len(t, got, 2)
	assert.Equal(t, 25, got[0].Cycle)
	assert.Equal(t, 2, got[0].Allotment)
	assert.Equal(t, 30, got[1].Cycle)
	for _, a := range got {
		assert.NotEqual(t, 10, a.Cycle)
	}
}

func TestSchedule_PlayedWildcardOccupiesWindow(t *testing.T) {
	h := newHarness(t, flatSeason(3), 10)
	got := h.schedule(10, nil, model.ChipAllotment{Type: model.Wildcard, Remaining: 1, Used: []int{3}})

	require.Len(t, got, 1)
	assert.Equal(t, 25, got[0].Cycle)
	assert.Equal(t, 2, got[0].Allotment)
	assert.Contains(t, got[0].Rationale, "GW25-35")
}

func TestSchedule_PlayedAndLockedCapRemaining(t *testing.T) {
	h := newHarness(t, eventful(), 5)
	got := h.schedule(5, nil,
		model.ChipAllotment{Type: model.BenchBoost, Remaining: 2, Used: []int{2}},
		model.ChipAllotment{Type: model.Wildcard, Remaining: 2, Used: []int{3}, Locked: []int{28}},
	)

	assert.Len(t, cycles(got, model.BenchBoost), 1)
	assert.Empty(t, cycles(got, model.Wildcard), "both wildcards spoken for")
	require.NotEmpty(t, got)
	assert.Equal(t, 2, got[0].Allotment)
}

func TestSchedule_Exhaustion(t *testing.T) {
	h := newHarness(t, eventful(), 5)

	assert.Empty(t, h.schedule(5, nil, model.ChipAllotment{Type: model.BenchBoost, Remaining: 0}))

	got := h.schedule(5, nil, model.ChipAllotment{Type: model.TripleCaptain, Remaining: 5})
	assert.Len(t, got, 2)
	assert.NotEqual(t, got[0].Cycle, got[1].Cycle)
}

func TestSchedule_Fallbacks(t *testing.T) {
	cal := flatSeason(3)
	for i := range cal {
		if cal[i].Cycle == 12 {
			cal[i].HomeDifficulty, cal[i].AwayDifficulty = 2, 2
		}
	}
	h := newHarness(t, cal, 5)

	got := h.schedule(5, nil,
		model.ChipAllotment{Type: model.BenchBoost, Remaining: 1},
		model.ChipAllotment{Type: model.FreeHit, Remaining: 1},
	)
	require.Len(t, got, 2)
	assert.Equal(t, 12, got[0].Cycle)
	assert.Contains(t, got[0].Rationale, "no congested cycle")
	assert.Equal(t, 25, got[1].Cycle)
	assert.Contains(t, got[1].Rationale, "no sparse cycle")
}

func TestSchedule_FocusTeamBlank(t *testing.T) {
	h := newHarness(t, drop(flatSeason(3), 20, 1), 5)

	got := h.schedule(5, []int{1, 5}, model.ChipAllotment{Type: model.FreeHit, Remaining: 1})
	require.Len(t, got, 1)
	assert.Equal(t, 20, got[0].Cycle)
	assert.Equal(t, "1 of your teams blank", got[0].Rationale)

	got = h.schedule(5, []int{5}, model.ChipAllotment{Type: model.FreeHit, Remaining: 1})
	require.Len(t, got, 1)
	assert.Equal(t, 25, got[0].Cycle)
}

func TestSchedule_Deterministic(t *testing.T) {
	h := newHarness(t, eventful(), 5)
	all := []model.ChipAllotment{
		{Type: model.Wildcard, Remaining: 2},
		{Type: model.BenchBoost, Remaining: 2},
		{Type: model.TripleCaptain, Remaining: 2},
		{Type: model.FreeHit, Remaining: 2},
	}

	first := h.scheduler.Schedule(all, h.anomalies, h.index, 5, nil)
	second := h.scheduler.Schedule(all, h.anomalies, h.index, 5, nil)
	assert.Equal(t, first, second)
}
