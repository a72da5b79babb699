package model

import (
	"database/sql"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	Email             string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash      string         `gorm:"type:varchar(255);not null" json:"-"`
	Name              string         `gorm:"type:varchar(255)" json:"name"`
	Role              string         `gorm:"type:varchar(20);not null;default:user" json:"role"`
	EmailVerified     bool           `gorm:"not null;default:false" json:"email_verified"`
	VerificationToken sql.NullString `gorm:"type:varchar(100);index" json:"-"`
	RememberToken     sql.NullString `gorm:"type:varchar(100);index" json:"-"`
	TokenExpiresAt    sql.NullTime   `json:"-"`
	LastLogin         sql.NullTime   `json:"last_login"`
	TelegramChatID    sql.NullInt64  `gorm:"index" json:"telegram_chat_id"`
	RiskProfile       sql.NullString `gorm:"type:varchar(50)" json:"risk_profile"`
	RiskScore         sql.NullInt32  `json:"risk_score"`
	CreatedAt         time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

type GetUserParam struct {
	ID                *uint
	Email             *string
	VerificationToken *string
	RememberToken     *string
	TelegramChatID    *int64
}
