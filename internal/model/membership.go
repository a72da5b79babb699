package model

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	MembershipStatusActive    = "active"
	MembershipStatusCancelled = "cancelled"

	WaitlistStatusPending  = "pending"
	WaitlistStatusApproved = "approved"
)

type Membership struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"not null;index" json:"user_id"`
	Plan      string          `gorm:"type:varchar(20);not null" json:"plan"`
	Status    string          `gorm:"type:varchar(20);not null" json:"status"`
	Price     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	StartedAt time.Time       `gorm:"not null" json:"started_at"`
	EndsAt    sql.NullTime    `json:"ends_at"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (Membership) TableName() string {
	return "memberships"
}

type Conversion struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    sql.NullInt64   `gorm:"index" json:"user_id"`
	Event     string          `gorm:"type:varchar(50);not null;index" json:"event"`
	Value     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"value"`
	Source    string          `gorm:"type:varchar(50)" json:"source"`
	Metadata  datatypes.JSON  `gorm:"type:jsonb" json:"metadata"`
	CreatedAt time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Conversion) TableName() string {
	return "conversions"
}

type WaitlistEntry struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Email         string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name          string         `gorm:"type:varchar(255)" json:"name"`
	Notes         string         `gorm:"type:text" json:"notes"`
	Status        string         `gorm:"type:varchar(20);not null" json:"status"`
	InvitedAt     sql.NullTime   `json:"invited_at"`
	InvitationKey sql.NullString `gorm:"type:varchar(100)" json:"-"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (WaitlistEntry) TableName() string {
	return "waitlist"
}
