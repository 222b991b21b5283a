package snapshot

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"fpl-strategy-mcp/internal/model"
	"fpl-strategy-mcp/internal/store"
)

type rawBootstrap struct {
	Elements []rawElement `json:"elements"`
	Teams    []rawTeam    `json:"teams"`
	Events   []rawEvent   `json:"events"`
}

type rawElement struct {
	ID            int    `json:"id"`
	WebName       string `json:"web_name"`
	ElementType   int    `json:"element_type"`
	Team          int    `json:"team"`
	NowCost       int    `json:"now_cost"`
	Status        string `json:"status"`
	Form          string `json:"form"`
	PointsPerGame string `json:"points_per_game"`
	TotalPoints   int    `json:"total_points"`
	Bonus         int    `json:"bonus"`
	Minutes       int    `json:"minutes"`
	Starts        int    `json:"starts"`
	CleanSheets   int    `json:"clean_sheets"`
	GoalsScored   int    `json:"goals_scored"`
	Assists       int    `json:"assists"`
	ICTIndex      string `json:"ict_index"`
}

type rawTeam struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
}

type rawEvent struct {
	ID        int  `json:"id"`
	IsCurrent bool `json:"is_current"`
	IsNext    bool `json:"is_next"`
	Finished  bool `json:"finished"`
}

type rawPicks struct {
	ActiveChip   string `json:"active_chip"`
	EntryHistory struct {
		Event int `json:"event"`
		Bank  int `json:"bank"`
	} `json:"entry_history"`
	Picks []struct {
		Element  int `json:"element"`
		Position int `json:"position"`
	} `json:"picks"`
}

type rawHistory struct {
	Current []struct {
		Event          int `json:"event"`
		Bank           int `json:"bank"`
		EventTransfers int `json:"event_transfers"`
	} `json:"current"`
	Chips []struct {
		Name  string `json:"name"`
		Event int    `json:"event"`
	} `json:"chips"`
}

// Season is the league-wide state decoded from bootstrap-static and fixtures.
type Season struct {
	Members   []model.RosterMember
	Calendar  []model.Fixture
	TeamNames map[int]string
	// CurrentCycle is the latest started gameweek, 0 before the season.
	CurrentCycle int
	NextCycle    int

	byID map[int]model.RosterMember
}

// Member looks up a player by id.
func (s *Season) Member(id int) (model.RosterMember, bool) {
	m, ok := s.byID[id]
	return m, ok
}

// LoadSeason reads the shared snapshots from st.
func LoadSeason(st *store.JSONStore) (*Season, error) {
	var boot rawBootstrap
	if err := st.ReadJSON(store.BootstrapPath, &boot); err != nil {
		return nil, fmt.Errorf("load bootstrap: %w", err)
	}
	var calendar []model.Fixture
	if err := st.ReadJSON(store.FixturesPath, &calendar); err != nil {
		return nil, fmt.Errorf("load fixtures: %w", err)
	}
	sort.SliceStable(calendar, func(i, j int) bool {
		if calendar[i].Cycle != calendar[j].Cycle {
			return calendar[i].Cycle < calendar[j].Cycle
		}
		return calendar[i].ID < calendar[j].ID
	})

	s := &Season{
		Members:   make([]model.RosterMember, 0, len(boot.Elements)),
		Calendar:  calendar,
		TeamNames: make(map[int]string, len(boot.Teams)),
		byID:      make(map[int]model.RosterMember, len(boot.Elements)),
	}
	for _, t := range boot.Teams {
		s.TeamNames[t.ID] = t.ShortName
	}
	for _, e := range boot.Elements {
		m := member(e)
		s.Members = append(s.Members, m)
		s.byID[m.ID] = m
	}
	for _, ev := range boot.Events {
		if ev.IsCurrent {
			s.CurrentCycle = ev.ID
		}
		if ev.IsNext {
			s.NextCycle = ev.ID
		}
	}
	return s, nil
}

func member(e rawElement) model.RosterMember {
	total := e.TotalPoints
	games := e.Starts
	if ppg := parseFloat(e.PointsPerGame); ppg > 0 {
		games = int(math.Round(float64(total) / ppg))
	}
	return model.RosterMember{
		ID:           e.ID,
		Name:         e.WebName,
		Role:         model.Role(e.ElementType),
		TeamID:       e.Team,
		Price:        float64(e.NowCost) / 10,
		Status:       e.Status,
		Form:         parseFloat(e.Form),
		SeasonPoints: total,
		GamesPlayed:  games,
		Bonus:        e.Bonus,
		Minutes:      e.Minutes,
		Starts:       e.Starts,
		CleanSheets:  e.CleanSheets,
		Goals:        e.GoalsScored,
		Assists:      e.Assists,
		ICTIndex:     parseFloat(e.ICTIndex),
	}
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// Entry is one manager's planning inputs.
type Entry struct {
	EntryID    int
	Cycle      int
	Roster     []model.RosterMember
	Pool       []model.RosterMember
	Budget     model.BudgetState
	Chips      []model.ChipAllotment
	ActiveChip string
}

// Teams returns the distinct team ids on the roster, ascending.
func (e *Entry) Teams() []int {
	seen := map[int]bool{}
	var out []int
	for _, m := range e.Roster {
		if !seen[m.TeamID] {
			seen[m.TeamID] = true
			out = append(out, m.TeamID)
		}
	}
	sort.Ints(out)
	return out
}

// Rules are the game rules needed to rebuild an entry's budget state.
type Rules struct {
	FreeTransferCap int
	ChipsPerSeason  int
}

// LoadEntry builds entryID's roster, pool, budget and chip allotments from
// its picks for gw and its season history.
func (s *Season) LoadEntry(st *store.JSONStore, entryID, gw int, rules Rules) (*Entry, error) {
	var picks rawPicks
	if err := st.ReadJSON(store.PicksPath(entryID, gw), &picks); err != nil {
		return nil, fmt.Errorf("load picks: %w", err)
	}
	var hist rawHistory
	if err := st.ReadJSON(store.HistoryPath(entryID), &hist); err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	e := &Entry{
		EntryID:    entryID,
		Cycle:      gw,
		ActiveChip: picks.ActiveChip,
		Budget: model.BudgetState{
			Bank:          float64(picks.EntryHistory.Bank) / 10,
			FreeTransfers: freeTransfers(hist, rules.FreeTransferCap),
		},
		Chips: allotments(hist, rules.ChipsPerSeason),
	}

	owned := make(map[int]bool, len(picks.Picks))
	sort.SliceStable(picks.Picks, func(i, j int) bool { return picks.Picks[i].Position < picks.Picks[j].Position })
	for _, p := range picks.Picks {
		m, ok := s.byID[p.Element]
		if !ok {
			return nil, fmt.Errorf("pick %d not in bootstrap", p.Element)
		}
		owned[m.ID] = true
		e.Roster = append(e.Roster, m)
	}
	for _, m := range s.Members {
		if owned[m.ID] || m.Status == "u" || !m.Role.Valid() {
			continue
		}
		e.Pool = append(e.Pool, m)
	}
	return e, nil
}

// freeTransfers replays the season: one transfer is banked per finished
// gameweek up to the cap, and wildcard or free hit weeks spend none.
func freeTransfers(h rawHistory, limit int) int {
	if len(h.Current) == 0 {
		return 1
	}
	chipWeek := make(map[int]bool)
	for _, c := range h.Chips {
		if c.Name == "wildcard" || c.Name == "freehit" {
			chipWeek[c.Event] = true
		}
	}
	ft := 1
	for i, row := range h.Current {
		if i == 0 {
			continue
		}
		used := row.EventTransfers
		if chipWeek[row.Event] {
			used = 0
		}
		ft -= used
		if ft < 0 {
			ft = 0
		}
		ft++
		if ft > limit {
			ft = limit
		}
	}
	return ft
}

func allotments(h rawHistory, perSeason int) []model.ChipAllotment {
	played := make(map[model.ChipType][]int)
	for _, c := range h.Chips {
		if t, err := model.ParseChipType(c.Name); err == nil {
			played[t] = append(played[t], c.Event)
		}
	}
	out := make([]model.ChipAllotment, 0, len(model.ChipTypes))
	for _, t := range model.ChipTypes {
		used := played[t]
		sort.Ints(used)
		left := perSeason - len(used)
		if left < 0 {
			left = 0
		}
		out = append(out, model.ChipAllotment{Type: t, Remaining: left, Used: used})
	}
	return out
}
