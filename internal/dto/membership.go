package dto

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type Plan struct {
	Name     string          `json:"name"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Features []string        `json:"features"`
}

type SubscribeRequest struct {
	Plan string `json:"plan" validate:"required,oneof=basic pro enterprise"`
}

type MembershipResponse struct {
	Plan   Plan   `json:"plan"`
	Status string `json:"status"`
}

type TrackConversionParam struct {
	UserID   *uint
	Event    string
	Value    decimal.Decimal
	Source   string
	Metadata map[string]interface{}
}

type ConversionBreakdown struct {
	Key   string          `json:"key" gorm:"column:group_key"`
	Count int64           `json:"count" gorm:"column:count"`
	Value decimal.Decimal `json:"value" gorm:"column:value"`
}

type ConversionMetrics struct {
	Days         int                   `json:"days"`
	Total        int64                 `json:"total"`
	TotalValue   decimal.Decimal       `json:"total_value"`
	AverageValue decimal.Decimal       `json:"average_value"`
	BySource     []ConversionBreakdown `json:"by_source"`
	ByEvent      []ConversionBreakdown `json:"by_event"`
}

type JoinWaitlistRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"max=255"`
	Notes string `json:"notes" validate:"max=2000"`
}

type TrackConversionRequest struct {
	Event    string          `json:"event" validate:"required,max=50"`
	Value    float64         `json:"value"`
	Source   string          `json:"source" validate:"max=50"`
	Metadata json.RawMessage `json:"metadata"`
}
