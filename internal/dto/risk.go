package dto

type RiskOption struct {
	Text  string `yaml:"text" json:"text"`
	Score int    `yaml:"score" json:"score"`
}

type RiskQuestion struct {
	ID      int          `yaml:"id" json:"id"`
	Text    string       `yaml:"text" json:"text"`
	Options []RiskOption `yaml:"options" json:"options"`
}

type Allocation struct {
	Asset string `yaml:"asset" json:"asset"`
	Range string `yaml:"range" json:"range"`
}

// RiskProfileDefinition is one scoring bucket. MinScore and MaxScore are inclusive.
type RiskProfileDefinition struct {
	Name              string       `yaml:"name" json:"name"`
	MinScore          int          `yaml:"min_score" json:"min_score"`
	MaxScore          int          `yaml:"max_score" json:"max_score"`
	Description       string       `yaml:"description" json:"description"`
	RecommendedAssets []string     `yaml:"recommended_assets" json:"recommended_assets"`
	Allocation        []Allocation `yaml:"allocation" json:"allocation"`
}

type RiskProfile struct {
	Profile           string       `json:"profile"`
	Score             int          `json:"score"`
	Description       string       `json:"description"`
	RecommendedAssets []string     `json:"recommended_assets"`
	Allocation        []Allocation `json:"allocation"`
	// Fallback is set when the score is outside every defined range.
	Fallback bool `json:"fallback,omitempty"`
}

type RiskProfileSummary struct {
	Profile   string `json:"profile"`
	Score     int    `json:"score"`
	Horizon   string `json:"horizon"`
	RiskTaken string `json:"risk_taken"`
	Objective string `json:"objective"`
}

type PortfolioRisk struct {
	RiskLevel            string `json:"risk_level"`
	DiversificationScore int    `json:"diversification_score"`
	ConcentrationRisk    string `json:"concentration_risk"`
}

// RiskProfileRequest maps question id to the chosen option score.
type RiskProfileRequest struct {
	Answers map[int]int `json:"answers" validate:"required"`
}
