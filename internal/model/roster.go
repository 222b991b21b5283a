package model

import (
	"fmt"
	"strings"
)

// Role is the FPL element_type of a player.
type Role int

const (
	RoleUnknown Role = iota
	Goalkeeper
	Defender
	Midfielder
	Forward
)

// Roles lists the four playable roles in element_type order.
var Roles = []Role{Goalkeeper, Defender, Midfielder, Forward}

func (r Role) String() string {
	switch r {
	case Goalkeeper:
		return "GK"
	case Defender:
		return "DEF"
	case Midfielder:
		return "MID"
	case Forward:
		return "FWD"
	default:
		return "UNK"
	}
}

// Valid reports whether r is one of the four playable roles.
func (r Role) Valid() bool {
	return r >= Goalkeeper && r <= Forward
}

// ParseRole accepts either a label (GK, GKP, DEF, MID, FWD) or an element_type number.
func ParseRole(s string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "GK", "GKP", "1":
		return Goalkeeper, nil
	case "DEF", "2":
		return Defender, nil
	case "MID", "3":
		return Midfielder, nil
	case "FWD", "4":
		return Forward, nil
	}
	return RoleUnknown, fmt.Errorf("unknown role %q", s)
}

// RosterMember is an immutable snapshot of one player for a planning request.
type RosterMember struct {
	ID     int     `json:"id"`
	Name   string  `json:"name"`
	Role   Role    `json:"role"`
	TeamID int     `json:"team_id"`
	Price  float64 `json:"price"`
	Status string  `json:"status,omitempty"`

	// Form is the short rolling points-per-game value.
	Form         float64 `json:"form"`
	SeasonPoints int     `json:"season_points"`
	GamesPlayed  int     `json:"games_played"`
	Bonus        int     `json:"bonus"`

	Minutes     int     `json:"minutes"`
	Starts      int     `json:"starts"`
	CleanSheets int     `json:"clean_sheets"`
	Goals       int     `json:"goals"`
	Assists     int     `json:"assists"`
	ICTIndex    float64 `json:"ict_index"`
}

// SeasonAverage is season points per game played, zero before a first appearance.
func (m RosterMember) SeasonAverage() float64 {
	if m.GamesPlayed <= 0 {
		return 0
	}
	return float64(m.SeasonPoints) / float64(m.GamesPlayed)
}

// BudgetState is the transfer allowance for the cycle being planned.
type BudgetState struct {
	FreeTransfers int     `json:"free_transfers"`
	Bank          float64 `json:"bank"`
}
