package transfer

import (
	"math"

	"fpl-strategy-mcp/internal/config"
	"fpl-strategy-mcp/internal/model"
	"fpl-strategy-mcp/internal/projection"
)

// Search enumerates same-role, affordable swaps between a roster and a pool.
type Search struct {
	transfers  config.TransferConfig
	projection config.ProjectionConfig
	model      *projection.Model
	horizon    int

	cache map[int]projection.Breakdown
}

func NewSearch(cfg config.Config, m *projection.Model, horizon int) *Search {
	return &Search{
		transfers:  cfg.Transfers,
		projection: cfg.Projection,
		model:      m,
		horizon:    horizon,
		cache:      make(map[int]projection.Breakdown),
	}
}

// FindCandidates returns every swap with a positive projected gain whose
// incoming price fits within the outgoing price plus spare funds. Output order
// follows roster order, then pool order.
func (s *Search) FindCandidates(roster, pool []model.RosterMember, budget model.BudgetState) ([]model.TransferCandidate, error) {
	if s.horizon <= 0 {
		return nil, model.InvalidHorizon("candidate search", s.horizon)
	}
	if budget.Bank < 0 {
		return nil, &model.ComponentError{Component: "candidate search", Input: "budget", Err: model.ErrInvalidBudget}
	}

	owned := make(map[int]bool, len(roster))
	for _, m := range roster {
		owned[m.ID] = true
	}
	byRole := make(map[model.Role][]model.RosterMember)
	seen := make(map[int]bool, len(pool))
	for _, p := range pool {
		if owned[p.ID] || seen[p.ID] || !p.Role.Valid() {
			continue
		}
		seen[p.ID] = true
		byRole[p.Role] = append(byRole[p.Role], p)
	}

	out := make([]model.TransferCandidate, 0)
	for _, current := range roster {
		outB, err := s.breakdown(current)
		if err != nil {
			return nil, err
		}
		for _, incoming := range byRole[current.Role] {
			cost := roundTenth(incoming.Price - current.Price)
			if cost > budget.Bank+1e-9 {
				continue
			}
			inB, err := s.breakdown(incoming)
			if err != nil {
				return nil, err
			}
			gain := inB.Projection - outB.Projection
			if gain <= 0 {
				continue
			}
			out = append(out, model.TransferCandidate{
				OutID:         current.ID,
				InID:          incoming.ID,
				OutName:       current.Name,
				InName:        incoming.Name,
				Role:          current.Role,
				OutTeam:       current.TeamID,
				InTeam:        incoming.TeamID,
				CostDelta:     cost,
				OutProjection: outB.Projection,
				InProjection:  inB.Projection,
				ProjectedGain: gain,
				ValueRatio:    gain / math.Max(math.Abs(cost), s.transfers.CostEpsilon),
				OutDifficulty: outB.Difficulty,
				InDifficulty:  inB.Difficulty,
				Confidence:    s.confidence(gain),
			})
		}
	}
	return out, nil
}

// Projection returns the cached breakdown for member.
func (s *Search) Projection(member model.RosterMember) (projection.Breakdown, error) {
	return s.breakdown(member)
}

func (s *Search) breakdown(member model.RosterMember) (projection.Breakdown, error) {
	if b, ok := s.cache[member.ID]; ok {
		return b, nil
	}
	b, err := s.model.Breakdown(member, s.horizon)
	if err != nil {
		return projection.Breakdown{}, err
	}
	s.cache[member.ID] = b
	return b, nil
}

// confidence scales gain to [0,1] and decays it with horizon length.
func (s *Search) confidence(gain float64) float64 {
	c := math.Min(gain/s.projection.ConfidenceScale, 1)
	decay := math.Max(0.5, 1-s.projection.HorizonDecay*float64(s.horizon-1))
	return c * decay
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
