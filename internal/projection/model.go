package projection

import (
	"math"

	"fpl-strategy-mcp/internal/config"
	"fpl-strategy-mcp/internal/fixtures"
	"fpl-strategy-mcp/internal/model"
)

// Breakdown is every factor that went into one projection.
type Breakdown struct {
	MemberID     int     `json:"member_id"`
	FromCycle    int     `json:"from_cycle"`
	Horizon      int     `json:"horizon"`
	Base         float64 `json:"base"`
	Minutes      float64 `json:"minutes_factor"`
	BonusFactor  float64 `json:"bonus_factor"`
	Difficulty   float64 `json:"mean_difficulty"`
	Fixture      float64 `json:"fixture_multiplier"`
	Role         float64 `json:"role_multiplier"`
	Availability float64 `json:"availability_multiplier"`
	Projection   float64 `json:"projection"`
}

// Model projects expected points over a run of cycles starting at a fixed cycle.
// It has no state beyond its inputs.
type Model struct {
	cfg       config.ProjectionConfig
	index     *fixtures.Index
	fromCycle int
	neutral   float64
}

func New(cfg config.ProjectionConfig, index *fixtures.Index, fromCycle int) *Model {
	return &Model{
		cfg:       cfg,
		index:     index,
		fromCycle: fromCycle,
		neutral:   float64(index.Neutral()),
	}
}

// FromCycle is the first cycle covered by projections.
func (m *Model) FromCycle() int {
	return m.fromCycle
}

// Project returns expected points for member over horizon cycles.
func (m *Model) Project(member model.RosterMember, horizon int) (float64, error) {
	b, err := m.Breakdown(member, horizon)
	if err != nil {
		return 0, err
	}
	return b.Projection, nil
}

// Breakdown computes the projection and keeps its components.
func (m *Model) Breakdown(member model.RosterMember, horizon int) (Breakdown, error) {
	if horizon <= 0 {
		return Breakdown{}, model.InvalidHorizon("projection", horizon)
	}
	b := Breakdown{
		MemberID:  member.ID,
		FromCycle: m.fromCycle,
		Horizon:   horizon,
	}
	b.Minutes = m.minutesFactor(member)
	b.Base = (member.Form*m.cfg.FormWeight + member.SeasonAverage()*m.cfg.SeasonWeight) * float64(horizon) * b.Minutes
	b.BonusFactor = 1 + float64(member.Bonus)/math.Max(float64(member.SeasonPoints), 1)*m.cfg.BonusWeight
	b.Difficulty = m.index.MeanDifficulty(member.TeamID, m.fromCycle, horizon)
	b.Fixture = m.fixtureMultiplier(b.Difficulty)
	b.Role = m.roleMultiplier(member)
	b.Availability = m.availabilityMultiplier(member)

	p := b.Base * b.BonusFactor * b.Fixture * b.Role * b.Availability
	if p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
		p = 0
	}
	b.Projection = p
	return b, nil
}

// fixtureMultiplier rises as fixtures get easier than neutral, within [FixtureMin, FixtureMax].
func (m *Model) fixtureMultiplier(meanDifficulty float64) float64 {
	mult := 1 + (m.neutral-meanDifficulty)*m.cfg.FixtureStep
	return clamp(mult, m.cfg.FixtureMin, m.cfg.FixtureMax)
}

func (m *Model) roleMultiplier(member model.RosterMember) float64 {
	w, ok := m.cfg.Roles[member.Role.String()]
	if !ok {
		return 1
	}
	csRate := float64(member.CleanSheets) / math.Max(float64(member.Starts), 1)
	involvement := float64(member.Goals+member.Assists) / math.Max(float64(member.GamesPlayed), 1)

	bonus := w.CleanSheet*csRate + w.Involvement*involvement + w.ICT*member.ICTIndex/100
	return 1 + clamp(bonus, 0, m.cfg.RoleBonusCap)
}

// minutesFactor is the share of the elapsed season the member has been on the
// pitch, blended towards 1 by MinutesWeight. Before any cycle has been played
// it is 1.
func (m *Model) minutesFactor(member model.RosterMember) float64 {
	elapsed := m.fromCycle - 1
	if elapsed <= 0 || m.cfg.FullAppearanceMinutes <= 0 {
		return 1
	}
	share := math.Min(float64(member.Minutes)/float64(elapsed*m.cfg.FullAppearanceMinutes), 1)
	return 1 - m.cfg.MinutesWeight + m.cfg.MinutesWeight*share
}

func (m *Model) availabilityMultiplier(member model.RosterMember) float64 {
	starts := math.Max(float64(member.Starts), 1)
	perStart := float64(member.Minutes) / starts
	factor := math.Min(perStart/float64(m.cfg.FullAppearanceMinutes), 1)
	if float64(member.Minutes) < starts*float64(m.cfg.HalfAppearanceMinutes) {
		factor *= m.cfg.LowMinutesPenalty
	}
	return math.Max(m.cfg.AvailabilityFloor, factor)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
