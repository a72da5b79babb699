package repository

import (
	"context"
	"encoding/json"
	"errors"

	"finance-dashboard/config"
	"finance-dashboard/internal/model"
	"finance-dashboard/pkg/cache"
	"finance-dashboard/pkg/logger"

	"gorm.io/gorm"
)

type SystemParamRepository interface {
	Get(ctx context.Context, name string, destValue interface{}) error
	GetCompanyTickers(ctx context.Context) (map[string]string, error)
}

type systemParamRepository struct {
	cfg           *config.Config
	log           *logger.Logger
	inmemoryCache cache.Cache
	db            *gorm.DB
}

func NewSystemParamRepository(cfg *config.Config, log *logger.Logger, inmemoryCache cache.Cache, db *gorm.DB) SystemParamRepository {
	return &systemParamRepository{cfg: cfg, log: log, inmemoryCache: inmemoryCache, db: db}
}

func (s *systemParamRepository) Get(ctx context.Context, name string, destValue interface{}) error {
	var param model.SystemParameter

	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&param).Error; err != nil {
		return err
	}
	return json.Unmarshal(param.Value, destValue)
}

// GetCompanyTickers returns the company name to ticker map used to spot companies in free text.
// The built-in map is used when the parameter is not stored.
func (s *systemParamRepository) GetCompanyTickers(ctx context.Context) (map[string]string, error) {
	if val, found := cache.GetFromCache[map[string]string](s.inmemoryCache, model.SysParamCompanyTickers); found {
		return val, nil
	}

	destValue := map[string]string{}
	if err := s.Get(ctx, model.SysParamCompanyTickers, &destValue); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.WarnContext(ctx, "Failed to load company tickers, using defaults", logger.ErrorField(err))
		}
		destValue = defaultCompanyTickers()
	}
	s.inmemoryCache.Set(model.SysParamCompanyTickers, destValue, s.cfg.Cache.SysParamExpDuration)
	return destValue, nil
}

func defaultCompanyTickers() map[string]string {
	return map[string]string{
		"nvidia":    "NVDA",
		"apple":     "AAPL",
		"microsoft": "MSFT",
		"amazon":    "AMZN",
		"google":    "GOOGL",
		"meta":      "META",
		"tesla":     "TSLA",
	}
}
