package repository

import (
	"context"
	"errors"
	"time"

	"finance-dashboard/internal/dto"
	"finance-dashboard/internal/model"
	"finance-dashboard/pkg/utils"

	"gorm.io/gorm"
)

type MembershipRepository interface {
	GetActive(ctx context.Context, userID uint, opts ...utils.DBOption) (*model.Membership, error)
	Create(ctx context.Context, membership *model.Membership, opts ...utils.DBOption) error
	CancelActive(ctx context.Context, userID uint, at time.Time, opts ...utils.DBOption) error
}

type ConversionRepository interface {
	Create(ctx context.Context, conversion *model.Conversion, opts ...utils.DBOption) error
	GroupBy(ctx context.Context, column string, since time.Time, opts ...utils.DBOption) ([]dto.ConversionBreakdown, error)
}

type WaitlistRepository interface {
	GetByEmail(ctx context.Context, email string, opts ...utils.DBOption) (*model.WaitlistEntry, error)
	GetByID(ctx context.Context, id uint, opts ...utils.DBOption) (*model.WaitlistEntry, error)
	Create(ctx context.Context, entry *model.WaitlistEntry, opts ...utils.DBOption) error
	List(ctx context.Context, status string, opts ...utils.DBOption) ([]model.WaitlistEntry, error)
	Update(ctx context.Context, entry *model.WaitlistEntry, opts ...utils.DBOption) error
}

type membershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

func (r *membershipRepository) GetActive(ctx context.Context, userID uint, opts ...utils.DBOption) (*model.Membership, error) {
	var membership model.Membership
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("user_id = ? AND status = ?", userID, model.MembershipStatusActive).
		Order("started_at DESC, id DESC").
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &membership, nil
}

func (r *membershipRepository) Create(ctx context.Context, membership *model.Membership, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Create(membership).Error
}

func (r *membershipRepository) CancelActive(ctx context.Context, userID uint, at time.Time, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Model(&model.Membership{}).
		Where("user_id = ? AND status = ?", userID, model.MembershipStatusActive).
		Updates(map[string]interface{}{"status": model.MembershipStatusCancelled, "ends_at": at}).Error
}

type conversionRepository struct {
	db *gorm.DB
}

func NewConversionRepository(db *gorm.DB) ConversionRepository {
	return &conversionRepository{db: db}
}

func (r *conversionRepository) Create(ctx context.Context, conversion *model.Conversion, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Create(conversion).Error
}

// GroupBy aggregates conversions created since the given time by "event" or "source".
func (r *conversionRepository) GroupBy(ctx context.Context, column string, since time.Time, opts ...utils.DBOption) ([]dto.ConversionBreakdown, error) {
	if column != "event" && column != "source" {
		return nil, dto.ErrInvalidInput
	}

	var rows []dto.ConversionBreakdown
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Model(&model.Conversion{}).
		Select(column+" AS group_key, COUNT(*) AS count, COALESCE(SUM(value), 0) AS value").
		Where("created_at >= ?", since).
		Group(column).
		Order("count DESC, group_key ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

type waitlistRepository struct {
	db *gorm.DB
}

func NewWaitlistRepository(db *gorm.DB) WaitlistRepository {
	return &waitlistRepository{db: db}
}

func (r *waitlistRepository) GetByEmail(ctx context.Context, email string, opts ...utils.DBOption) (*model.WaitlistEntry, error) {
	return r.first(ctx, "email = ?", email, opts...)
}

func (r *waitlistRepository) GetByID(ctx context.Context, id uint, opts ...utils.DBOption) (*model.WaitlistEntry, error) {
	return r.first(ctx, "id = ?", id, opts...)
}

func (r *waitlistRepository) first(ctx context.Context, query string, arg interface{}, opts ...utils.DBOption) (*model.WaitlistEntry, error) {
	var entry model.WaitlistEntry
	if err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).Where(query, arg).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *waitlistRepository) Create(ctx context.Context, entry *model.WaitlistEntry, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Create(entry).Error
}

func (r *waitlistRepository) List(ctx context.Context, status string, opts ...utils.DBOption) ([]model.WaitlistEntry, error) {
	var entries []model.WaitlistEntry
	db := utils.ApplyOptions(r.db.WithContext(ctx), opts...)
	if status != "" {
		db = db.Where("status = ?", status)
	}
	if err := db.Order("created_at ASC, id ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *waitlistRepository) Update(ctx context.Context, entry *model.WaitlistEntry, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Save(entry).Error
}
