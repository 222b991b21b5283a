package model

// Fixture is one scheduled match. Cycle 0 marks a fixture without a
// confirmed gameweek (postponed and not yet rescheduled).
type Fixture struct {
	ID             int  `json:"id"`
	Cycle          int  `json:"event"`
	HomeTeam       int  `json:"team_h"`
	AwayTeam       int  `json:"team_a"`
	HomeDifficulty int  `json:"team_h_difficulty"`
	AwayDifficulty int  `json:"team_a_difficulty"`
	Finished       bool `json:"finished"`
}

// Involves reports whether team plays in f.
func (f Fixture) Involves(team int) bool {
	return f.HomeTeam == team || f.AwayTeam == team
}

// DifficultyFor returns the rating for team's side of f.
func (f Fixture) DifficultyFor(team int) (int, bool) {
	switch team {
	case f.HomeTeam:
		return f.HomeDifficulty, true
	case f.AwayTeam:
		return f.AwayDifficulty, true
	}
	return 0, false
}

// TeamCycleProfile is the forward view of one team's fixtures starting at FromCycle.
// Difficulties and FixtureCounts always have one entry per requested cycle.
type TeamCycleProfile struct {
	TeamID        int   `json:"team_id"`
	FromCycle     int   `json:"from_cycle"`
	Difficulties  []int `json:"difficulties"`
	FixtureCounts []int `json:"fixture_counts"`
}

// Mean is the average difficulty across the profile, or neutral when empty.
func (p TeamCycleProfile) Mean(neutral float64) float64 {
	if len(p.Difficulties) == 0 {
		return neutral
	}
	sum := 0
	for _, d := range p.Difficulties {
		sum += d
	}
	return float64(sum) / float64(len(p.Difficulties))
}
