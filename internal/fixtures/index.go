package fixtures

import (
	"math"
	"sort"

	"fpl-strategy-mcp/internal/config"
	"fpl-strategy-mcp/internal/model"
)

// Index answers difficulty lookups for (team, cycle) pairs. Gaps in the
// calendar resolve to the neutral rating rather than an error.
type Index struct {
	cfg config.DifficultyConfig

	// sides[cycle][team] holds the ratings of every side team plays in cycle.
	sides  map[int]map[int][]int
	counts map[int]int
	teams  []int

	unscheduled int
}

// NewIndex builds an index over a fixture calendar. The calendar slice is not retained.
func NewIndex(cfg config.DifficultyConfig, calendar []model.Fixture) *Index {
	idx := &Index{
		cfg:    cfg,
		sides:  make(map[int]map[int][]int),
		counts: make(map[int]int),
	}
	seen := make(map[int]bool)
	for _, f := range calendar {
		for _, team := range []int{f.HomeTeam, f.AwayTeam} {
			if team != 0 && !seen[team] {
				seen[team] = true
				idx.teams = append(idx.teams, team)
			}
		}
		if f.Cycle <= 0 {
			if !f.Finished {
				idx.unscheduled++
			}
			continue
		}
		idx.counts[f.Cycle]++
		if _, ok := idx.sides[f.Cycle]; !ok {
			idx.sides[f.Cycle] = make(map[int][]int)
		}
		idx.sides[f.Cycle][f.HomeTeam] = append(idx.sides[f.Cycle][f.HomeTeam], idx.clamp(f.HomeDifficulty))
		idx.sides[f.Cycle][f.AwayTeam] = append(idx.sides[f.Cycle][f.AwayTeam], idx.clamp(f.AwayDifficulty))
	}
	sort.Ints(idx.teams)
	return idx
}

func (idx *Index) clamp(d int) int {
	if d == 0 {
		return idx.cfg.Neutral
	}
	if d < idx.cfg.Min {
		return idx.cfg.Min
	}
	if d > idx.cfg.Max {
		return idx.cfg.Max
	}
	return d
}

// DifficultyFor returns team's rating in cycle, always within the configured
// bounds. With two fixtures in the cycle the rounded mean is returned.
func (idx *Index) DifficultyFor(team, cycle int) int {
	ratings := idx.sides[cycle][team]
	if len(ratings) == 0 {
		return idx.cfg.Neutral
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return idx.clamp(int(math.Round(float64(sum) / float64(len(ratings)))))
}

// FixtureCount is how many fixtures team plays in cycle.
func (idx *Index) FixtureCount(team, cycle int) int {
	return len(idx.sides[cycle][team])
}

// ProfileFor returns horizon cycles of ratings and fixture counts for team,
// starting at fromCycle. A non-positive horizon yields an empty profile.
func (idx *Index) ProfileFor(team, fromCycle, horizon int) model.TeamCycleProfile {
	if horizon < 0 {
		horizon = 0
	}
	p := model.TeamCycleProfile{
		TeamID:        team,
		FromCycle:     fromCycle,
		Difficulties:  make([]int, horizon),
		FixtureCounts: make([]int, horizon),
	}
	for i := 0; i < horizon; i++ {
		p.Difficulties[i] = idx.DifficultyFor(team, fromCycle+i)
		p.FixtureCounts[i] = idx.FixtureCount(team, fromCycle+i)
	}
	return p
}

// MeanDifficulty is the mean rating for team over the profile window.
func (idx *Index) MeanDifficulty(team, fromCycle, horizon int) float64 {
	return idx.ProfileFor(team, fromCycle, horizon).Mean(float64(idx.cfg.Neutral))
}

// LeagueMean is the mean rating of every side playing in cycle.
func (idx *Index) LeagueMean(cycle int) float64 {
	sum, n := 0, 0
	for _, ratings := range idx.sides[cycle] {
		for _, r := range ratings {
			sum += r
			n++
		}
	}
	if n == 0 {
		return float64(idx.cfg.Neutral)
	}
	return float64(sum) / float64(n)
}

// TeamsMean is the mean of DifficultyFor across teams in cycle.
func (idx *Index) TeamsMean(teams []int, cycle int) float64 {
	if len(teams) == 0 {
		return idx.LeagueMean(cycle)
	}
	sum := 0
	for _, t := range teams {
		sum += idx.DifficultyFor(t, cycle)
	}
	return float64(sum) / float64(len(teams))
}

// CycleFixtures is the number of scheduled fixtures in cycle.
func (idx *Index) CycleFixtures(cycle int) int {
	return idx.counts[cycle]
}

// Teams returns the sorted ids of every team in the calendar.
func (idx *Index) Teams() []int {
	out := make([]int, len(idx.teams))
	copy(out, idx.teams)
	return out
}

// Unscheduled counts unfinished fixtures that have no cycle yet.
func (idx *Index) Unscheduled() int {
	return idx.unscheduled
}

// Neutral is the default rating.
func (idx *Index) Neutral() int {
	return idx.cfg.Neutral
}

// Max is the hardest rating.
func (idx *Index) Max() int {
	return idx.cfg.Max
}
