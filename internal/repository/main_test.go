package repository

import (
	"testing"

	"finance-dashboard/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Portfolio{},
		&model.Position{},
		&model.Alert{},
		&model.Membership{},
		&model.Conversion{},
		&model.WaitlistEntry{},
		&model.Job{},
		&model.TaskSchedule{},
		&model.TaskExecutionHistory{},
		&model.SystemParameter{},
	))
	return db
}
