package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"finance-dashboard/internal/model"
	"finance-dashboard/pkg/utils"

	"gorm.io/gorm"
)

type UserRepository interface {
	Get(ctx context.Context, param model.GetUserParam, opts ...utils.DBOption) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User, opts ...utils.DBOption) error
	UpdateFields(ctx context.Context, userID uint, fields map[string]interface{}, opts ...utils.DBOption) error
	ClearExpiredRememberTokens(ctx context.Context, before time.Time, opts ...utils.DBOption) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{
		db: db,
	}
}

// Get returns the first user matching every filter set in param, or nil when none matches.
func (r *userRepository) Get(ctx context.Context, param model.GetUserParam, opts ...utils.DBOption) (*model.User, error) {
	var user model.User

	qFilter := []string{}
	qFilterParam := []interface{}{}

	if param.ID != nil {
		qFilter = append(qFilter, "id = ?")
		qFilterParam = append(qFilterParam, *param.ID)
	}
	if param.Email != nil {
		qFilter = append(qFilter, "email = ?")
		qFilterParam = append(qFilterParam, strings.ToLower(strings.TrimSpace(*param.Email)))
	}
	if param.VerificationToken != nil {
		qFilter = append(qFilter, "verification_token = ?")
		qFilterParam = append(qFilterParam, *param.VerificationToken)
	}
	if param.RememberToken != nil {
		qFilter = append(qFilter, "remember_token = ?")
		qFilterParam = append(qFilterParam, *param.RememberToken)
	}
	if param.TelegramChatID != nil {
		qFilter = append(qFilter, "telegram_chat_id = ?")
		qFilterParam = append(qFilterParam, *param.TelegramChatID)
	}

	if len(qFilter) == 0 {
		return nil, fmt.Errorf("no filter provided")
	}

	tx := utils.ApplyOptions(r.db.WithContext(ctx), opts...)
	result := tx.Where(strings.Join(qFilter, " AND "), qFilterParam...).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}

	return &user, nil
}

func (r *userRepository) CreateUser(ctx context.Context, user *model.User, opts ...utils.DBOption) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	tx := utils.ApplyOptions(r.db.WithContext(ctx), opts...)
	return tx.Create(user).Error
}

func (r *userRepository) UpdateFields(ctx context.Context, userID uint, fields map[string]interface{}, opts ...utils.DBOption) error {
	tx := utils.ApplyOptions(r.db.WithContext(ctx), opts...)
	return tx.Model(&model.User{}).Where("id = ?", userID).Updates(fields).Error
}

func (r *userRepository) ClearExpiredRememberTokens(ctx context.Context, before time.Time, opts ...utils.DBOption) (int64, error) {
	tx := utils.ApplyOptions(r.db.WithContext(ctx), opts...)
	result := tx.Model(&model.User{}).
		Where("remember_token IS NOT NULL AND token_expires_at < ?", before).
		Updates(map[string]interface{}{"remember_token": nil, "token_expires_at": nil})
	return result.RowsAffected, result.Error
}
