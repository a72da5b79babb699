package model

import (
	"database/sql"
	"time"
)

type AlertKind string

const (
	AlertKindPrice     AlertKind = "price"
	AlertKindVolume    AlertKind = "volume"
	AlertKindTechnical AlertKind = "technical"
)

func AllAlertKinds() []AlertKind {
	return []AlertKind{AlertKindPrice, AlertKindVolume, AlertKindTechnical}
}

type AlertComparator string

const (
	ComparatorAbove AlertComparator = "above"
	ComparatorBelow AlertComparator = "below"
)

type Alert struct {
	ID          string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	Symbol      string          `gorm:"type:varchar(20);not null;index" json:"symbol"`
	Kind        AlertKind       `gorm:"type:varchar(20);not null" json:"kind"`
	Comparator  AlertComparator `gorm:"type:varchar(10);not null" json:"comparator"`
	Threshold   float64         `gorm:"not null" json:"threshold"`
	NotifyEmail sql.NullString  `gorm:"type:varchar(255)" json:"notify_email"`
	Triggered   bool            `gorm:"not null;default:false;index" json:"triggered"`
	TriggeredAt sql.NullTime    `json:"triggered_at"`
	// TriggeredValue is the metric value observed when the alert triggered.
	TriggeredValue sql.NullFloat64 `json:"triggered_value"`
	LastChecked    sql.NullTime    `json:"last_checked"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (Alert) TableName() string {
	return "alerts"
}

type GetAlertParam struct {
	IDs       []string
	UserID    *uint
	Symbol    *string
	Kinds     []AlertKind
	Symbols   []string
	Triggered *bool
}
