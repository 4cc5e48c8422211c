package postgres

import (
	"testing"

	"backtest-catalog/config"

	"github.com/stretchr/testify/assert"
	gormlogger "gorm.io/gorm/logger"
)

func TestDSN(t *testing.T) {
	cfg := config.Database{Host: "db", Port: 5432, User: "catalog", Password: "pw", DBName: "bt", SSLMode: "disable"}
	assert.Equal(t, "host=db user=catalog password=pw dbname=bt port=5432 sslmode=disable", DSN(cfg))

	cfg.TimeZone = "Europe/Rome"
	assert.Contains(t, DSN(cfg), "TimeZone=Europe/Rome")
}

func TestURL(t *testing.T) {
	cfg := config.Database{Host: "db", Port: 5432, User: "catalog", Password: "p@ss", DBName: "bt", SSLMode: "require"}
	assert.Equal(t, "postgres://catalog:p%40ss@db:5432/bt?sslmode=require", URL(cfg))
}

func TestGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, gormLogLevel("Silent"))
	assert.Equal(t, gormlogger.Info, gormLogLevel("Info"))
	assert.Equal(t, gormlogger.Warn, gormLogLevel("whatever"))
}
