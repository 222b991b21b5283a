package chips

import (
	"fmt"
	"sort"

	"fpl-strategy-mcp/internal/anomaly"
	"fpl-strategy-mcp/internal/config"
	"fpl-strategy-mcp/internal/fixtures"
	"fpl-strategy-mcp/internal/model"
)

// Scheduler assigns remaining chip allotments to target cycles.
type Scheduler struct {
	cfg config.ChipConfig
}

func NewScheduler(cfg config.ChipConfig) *Scheduler {
	return &Scheduler{cfg: cfg}
}

// plan carries the per-call inputs shared by every type-specific planner.
type plan struct {
	anomalies map[int]anomaly.CycleInfo
	index     *fixtures.Index
	current   int
	focus     []int
	cycles    []int // candidate cycles after current, ascending
}

// Schedule returns one assignment per remaining allotment that has a viable
// cycle, ordered by chip type and then allotment. Cycles locked for a type are
// never proposed again for that type, and played or locked cycles occupy the
// restructure window they fall in. focusTeams may be empty, in which case
// difficulty is the league mean.
func (s *Scheduler) Schedule(allotments []model.ChipAllotment, anomalies map[int]anomaly.CycleInfo, index *fixtures.Index, currentCycle int, focusTeams []int) []model.ChipAssignment {
	p := &plan{anomalies: anomalies, index: index, current: currentCycle, focus: focusTeams}
	for c := range anomalies {
		if c > currentCycle && c <= s.cfg.SeasonLength {
			p.cycles = append(p.cycles, c)
		}
	}
	sort.Ints(p.cycles)

	used := make(map[model.ChipType]map[int]bool)
	for _, a := range allotments {
		if used[a.Type] == nil {
			used[a.Type] = make(map[int]bool)
		}
		for _, c := range a.Used {
			used[a.Type][c] = true
		}
		for _, c := range a.Locked {
			used[a.Type][c] = true
		}
	}

	out := make([]model.ChipAssignment, 0)
	for _, a := range allotments {
		committed := len(a.Used) + len(a.Locked)
		remaining := a.Remaining
		if left := s.cfg.PerSeason - committed; remaining > left {
			remaining = left
		}
		for i := 0; i < remaining; i++ {
			var (
				as model.ChipAssignment
				ok bool
			)
			switch a.Type {
			case model.Wildcard:
				as, ok = s.restructure(p, used[a.Type])
			case model.BenchBoost, model.TripleCaptain:
				as, ok = s.multiplier(p, a.Type, used[a.Type])
			case model.FreeHit:
				as, ok = s.squadSwap(p, used[a.Type])
			}
			if !ok {
				break
			}
			as.Type = a.Type
			as.Allotment = committed + i + 1
			used[a.Type][as.Cycle] = true
			out = append(out, as)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Type.Rank() != out[j].Type.Rank() {
			return out[i].Type.Rank() < out[j].Type.Rank()
		}
		return out[i].Allotment < out[j].Allotment
	})
	for i := range out {
		out[i].Priority = i + 1
	}
	return out
}

func (p *plan) difficulty(cycle int) float64 {
	return p.index.TeamsMean(p.focus, cycle)
}

func (p *plan) class(cycle int) anomaly.Class {
	return p.anomalies[cycle].Class
}

// restructure places a wildcard in the first restructure window not yet
// exhausted or occupied, scoring each cycle by the run of fixtures after it.
func (s *Scheduler) restructure(p *plan, used map[int]bool) (model.ChipAssignment, bool) {
	earliest := p.current + s.cfg.MinLead
	window, windowed := s.openWindow(used, earliest)
	if !windowed {
		window = config.CycleWindow{From: earliest, To: s.cfg.SeasonLength}
	}

	best, bestScore, found := 0, 0.0, false
	for _, c := range p.cycles {
		if c < earliest || !window.Contains(c) || used[c] {
			continue
		}
		score := s.runScore(p, c)
		if !found || score > bestScore {
			best, bestScore, found = c, score, true
		}
	}
	if !found {
		return model.ChipAssignment{}, false
	}
	why := fmt.Sprintf("precedes a %d-cycle run scoring %.1f", s.cfg.RestructureRun, bestScore)
	if windowed {
		why += fmt.Sprintf(" within GW%d-%d", window.From, window.To)
	} else {
		why += "; restructure windows exhausted"
	}
	return model.ChipAssignment{Cycle: best, Score: bestScore, Rationale: why}, true
}

// openWindow returns the first window that still has a reachable cycle and
// holds no played, locked or already planned restructure.
func (s *Scheduler) openWindow(used map[int]bool, earliest int) (config.CycleWindow, bool) {
	for _, w := range s.cfg.RestructureWindows {
		if w.To < earliest {
			continue
		}
		occupied := false
		for c := range used {
			if w.Contains(c) {
				occupied = true
				break
			}
		}
		if !occupied {
			return w, true
		}
	}
	return config.CycleWindow{}, false
}

func (s *Scheduler) runScore(p *plan, cycle int) float64 {
	top := float64(p.index.Max())
	score := 0.0
	for k := 1; k <= s.cfg.RestructureRun && cycle+k <= s.cfg.SeasonLength; k++ {
		c := cycle + k
		score += top - p.difficulty(c)
		if p.class(c) == anomaly.Congested {
			score += s.cfg.CongestedBonus
		}
	}
	return score
}

// multiplier places bench boost and triple captain on the easiest congested
// cycle, or failing that the easiest normal cycle.
func (s *Scheduler) multiplier(p *plan, t model.ChipType, used map[int]bool) (model.ChipAssignment, bool) {
	top := float64(p.index.Max())
	for _, want := range []anomaly.Class{anomaly.Congested, anomaly.Normal} {
		best, bestMean, found := 0, 0.0, false
		for _, c := range p.cycles {
			if used[c] || p.class(c) != want {
				continue
			}
			mean := p.difficulty(c)
			if !found || mean < bestMean {
				best, bestMean, found = c, mean, true
			}
		}
		if !found {
			continue
		}
		var why string
		if want == anomaly.Congested {
			why = fmt.Sprintf("congested cycle with %d fixtures, mean difficulty %.2f", p.anomalies[best].Fixtures, bestMean)
		} else {
			why = fmt.Sprintf("no congested cycle ahead; easiest normal cycle, mean difficulty %.2f", bestMean)
		}
		return model.ChipAssignment{Cycle: best, Score: top - bestMean, Rationale: why}, true
	}
	return model.ChipAssignment{}, false
}

// squadSwap places a free hit on the first league-wide sparse cycle, then on
// the cycle where most focus teams blank, then near the late-season fallback.
func (s *Scheduler) squadSwap(p *plan, used map[int]bool) (model.ChipAssignment, bool) {
	for _, c := range p.cycles {
		if used[c] || p.class(c) != anomaly.Sparse {
			continue
		}
		info := p.anomalies[c]
		return model.ChipAssignment{
			Cycle:     c,
			Score:     float64(len(info.Blanks)),
			Rationale: fmt.Sprintf("sparse cycle with %d fixtures and %d teams blank", info.Fixtures, len(info.Blanks)),
		}, true
	}

	if len(p.focus) > 0 {
		focus := make(map[int]bool, len(p.focus))
		for _, t := range p.focus {
			focus[t] = true
		}
		best, bestHit, found := 0, 0, false
		for _, c := range p.cycles {
			if used[c] {
				continue
			}
			hit := 0
			for _, t := range p.anomalies[c].Blanks {
				if focus[t] {
					hit++
				}
			}
			if hit == 0 {
				continue
			}
			if !found || hit > bestHit || (hit == bestHit && p.anomalies[c].Fixtures < p.anomalies[best].Fixtures) {
				best, bestHit, found = c, hit, true
			}
		}
		if found {
			return model.ChipAssignment{
				Cycle:     best,
				Score:     float64(bestHit),
				Rationale: fmt.Sprintf("%d of your teams blank", bestHit),
			}, true
		}
	}

	target := p.current + s.cfg.SquadSwapReach
	if target > s.cfg.SquadSwapFallback {
		target = s.cfg.SquadSwapFallback
	}
	best, bestGap, found := 0, 0, false
	for _, c := range p.cycles {
		if used[c] || p.class(c) != anomaly.Normal {
			continue
		}
		gap := c - target
		if gap < 0 {
			gap = -gap
		}
		if !found || gap < bestGap {
			best, bestGap, found = c, gap, true
		}
	}
	if !found {
		return model.ChipAssignment{}, false
	}
	return model.ChipAssignment{
		Cycle:     best,
		Rationale: fmt.Sprintf("no sparse cycle ahead; held for late-season schedule changes around GW%d", target),
	}, true
}
