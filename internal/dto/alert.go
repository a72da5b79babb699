package dto

import "finance-dashboard/internal/model"

// AlertCondition is the comparison an alert watches for.
type AlertCondition struct {
	Comparator model.AlertComparator
	Threshold  float64
}

// Matches reports whether value strictly satisfies the condition.
func (c AlertCondition) Matches(value float64) bool {
	switch c.Comparator {
	case model.ComparatorAbove:
		return value > c.Threshold
	case model.ComparatorBelow:
		return value < c.Threshold
	default:
		return false
	}
}

type CreateAlertRequest struct {
	Symbol      string  `json:"symbol" validate:"required,max=20"`
	Kind        string  `json:"kind" validate:"required,oneof=price volume technical"`
	Comparator  string  `json:"comparator" validate:"required,oneof=above below"`
	Threshold   float64 `json:"threshold"`
	NotifyEmail string  `json:"notify_email" validate:"omitempty,email"`
}

type ListAlertsRequest struct {
	Symbol string `query:"symbol"`
}

// CheckAlertsRequest carries caller-supplied metric values keyed by symbol.
type CheckAlertsRequest struct {
	Kind   string             `json:"kind" validate:"omitempty,oneof=price volume technical"`
	Values map[string]float64 `json:"values" validate:"required"`
}

type CreateAlertResponse struct {
	ID string `json:"id"`
}

type RemoveAlertResponse struct {
	Removed bool `json:"removed"`
}
