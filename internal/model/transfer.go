package model

// TransferCandidate is one outgoing/incoming swap scored over a horizon.
type TransferCandidate struct {
	OutID   int    `json:"out_id"`
	InID    int    `json:"in_id"`
	OutName string `json:"out_name,omitempty"`
	InName  string `json:"in_name,omitempty"`
	Role    Role   `json:"role"`
	OutTeam int    `json:"out_team"`
	InTeam  int    `json:"in_team"`

	CostDelta     float64 `json:"cost_delta"`
	OutProjection float64 `json:"out_projection"`
	InProjection  float64 `json:"in_projection"`
	ProjectedGain float64 `json:"projected_gain"`
	ValueRatio    float64 `json:"value_ratio"`

	// OutDifficulty and InDifficulty are mean fixture difficulty over the horizon.
	OutDifficulty float64 `json:"out_difficulty"`
	InDifficulty  float64 `json:"in_difficulty"`

	Confidence float64         `json:"confidence,omitempty"`
	Hit        bool            `json:"hit,omitempty"`
	Priority   int             `json:"priority,omitempty"`
	Rationale  string          `json:"rationale,omitempty"`
	Timing     *TransferTiming `json:"timing,omitempty"`
}

// TransferTiming suggests the cycle in which a swap gains the most fixture advantage.
type TransferTiming struct {
	Cycle     int    `json:"cycle"`
	Advantage int    `json:"advantage"`
	Immediate bool   `json:"immediate"`
	Reason    string `json:"reason"`
}
