package postgres

import (
	"testing"

	"finance-dashboard/config"

	"github.com/stretchr/testify/assert"
	gormlogger "gorm.io/gorm/logger"
)

func TestDSN(t *testing.T) {
	cfg := config.Database{Host: "localhost", Port: 5432, User: "app", Password: "pw", DBName: "finance", SSLMode: "disable"}
	assert.Equal(t, "host=localhost user=app password=pw dbname=finance port=5432 sslmode=disable", DSN(cfg))

	cfg.TimeZone = "UTC"
	assert.Equal(t, "host=localhost user=app password=pw dbname=finance port=5432 sslmode=disable TimeZone=UTC", DSN(cfg))
}

func TestMigrationURL(t *testing.T) {
	cfg := config.Database{Host: "db", Port: 5433, User: "app", Password: "p@ss", DBName: "finance", SSLMode: "require"}
	assert.Equal(t, "postgres://app:p%40ss@db:5433/finance?sslmode=require", MigrationURL(cfg))
}

func TestGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, gormLogLevel("Silent"))
	assert.Equal(t, gormlogger.Info, gormLogLevel("Info"))
	assert.Equal(t, gormlogger.Warn, gormLogLevel(""))
}
