package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"finance-dashboard/internal/model"
	"finance-dashboard/pkg/utils"

	"gorm.io/gorm"
)

type AlertRepository interface {
	Create(ctx context.Context, alert *model.Alert, opts ...utils.DBOption) error
	Get(ctx context.Context, param model.GetAlertParam, opts ...utils.DBOption) ([]model.Alert, error)
	Delete(ctx context.Context, id string, opts ...utils.DBOption) (bool, error)
	MarkChecked(ctx context.Context, ids []string, at time.Time, opts ...utils.DBOption) error
	MarkTriggered(ctx context.Context, id string, at time.Time, value float64, opts ...utils.DBOption) error
	PendingSymbols(ctx context.Context, opts ...utils.DBOption) ([]string, error)
}

type alertRepository struct {
	db *gorm.DB
}

func NewAlertRepository(db *gorm.DB) AlertRepository {
	return &alertRepository{db: db}
}

func (r *alertRepository) Create(ctx context.Context, alert *model.Alert, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Create(alert).Error
}

func (r *alertRepository) Get(ctx context.Context, param model.GetAlertParam, opts ...utils.DBOption) ([]model.Alert, error) {
	var alerts []model.Alert

	qFilter := []string{}
	qFilterParam := []interface{}{}

	if len(param.IDs) > 0 {
		qFilter = append(qFilter, "id IN (?)")
		qFilterParam = append(qFilterParam, param.IDs)
	}
	if param.UserID != nil {
		qFilter = append(qFilter, "user_id = ?")
		qFilterParam = append(qFilterParam, *param.UserID)
	}
	if param.Symbol != nil {
		qFilter = append(qFilter, "symbol = ?")
		qFilterParam = append(qFilterParam, *param.Symbol)
	}
	if len(param.Symbols) > 0 {
		qFilter = append(qFilter, "symbol IN (?)")
		qFilterParam = append(qFilterParam, param.Symbols)
	}
	if len(param.Kinds) > 0 {
		qFilter = append(qFilter, "kind IN (?)")
		qFilterParam = append(qFilterParam, param.Kinds)
	}
	if param.Triggered != nil {
		qFilter = append(qFilter, "triggered = ?")
		qFilterParam = append(qFilterParam, *param.Triggered)
	}

	if len(qFilter) == 0 {
		return nil, fmt.Errorf("no filter provided")
	}

	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where(strings.Join(qFilter, " AND "), qFilterParam...).
		Order("created_at ASC, id ASC").
		Find(&alerts).Error
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

// Delete reports whether a row was removed.
func (r *alertRepository) Delete(ctx context.Context, id string, opts ...utils.DBOption) (bool, error) {
	result := utils.ApplyOptions(r.db.WithContext(ctx), opts...).Where("id = ?", id).Delete(&model.Alert{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *alertRepository) MarkChecked(ctx context.Context, ids []string, at time.Time, opts ...utils.DBOption) error {
	if len(ids) == 0 {
		return nil
	}
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Model(&model.Alert{}).
		Where("id IN (?)", ids).
		Update("last_checked", at).Error
}

// MarkTriggered latches a pending alert. Already triggered alerts are left as they are.
func (r *alertRepository) MarkTriggered(ctx context.Context, id string, at time.Time, value float64, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Model(&model.Alert{}).
		Where("id = ? AND triggered = ?", id, false).
		Updates(map[string]interface{}{
			"triggered":       true,
			"triggered_at":    at,
			"triggered_value": value,
			"last_checked":    at,
		}).Error
}

func (r *alertRepository) PendingSymbols(ctx context.Context, opts ...utils.DBOption) ([]string, error) {
	var symbols []string
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Model(&model.Alert{}).
		Where("triggered = ?", false).
		Distinct("symbol").
		Order("symbol ASC").
		Pluck("symbol", &symbols).Error
	if err != nil {
		return nil, err
	}
	return symbols, nil
}
