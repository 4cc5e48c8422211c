package model

import (
	"gorm.io/datatypes"
)

// ManifestEntry is one published row of the manifest collection projected
// onto the logical column names.
type ManifestEntry struct {
	Code     string  `gorm:"column:code" json:"code"`
	ImageURL *string `gorm:"column:image_url" json:"image_url"`
	ExcelURL *string `gorm:"column:excel_url" json:"excel_url"`
}

// BacktestDetail carries the performance payload of one backtest code.
// PerformanceJSON is nil when the column is NULL.
type BacktestDetail struct {
	Code            string          `gorm:"column:code" json:"code"`
	PerformanceJSON *datatypes.JSON `gorm:"column:performance_json" json:"performance_json"`
}

// Backtest and BacktestDetailRow describe the default Postgres schema created
// by the migrations. The catalog reads through configurable column names and
// never writes to these tables.
type Backtest struct {
	ID        uint   `gorm:"primarykey"`
	Code      string `gorm:"uniqueIndex;not null"`
	Symbol    string
	ImageURL  *string
	ExcelURL  *string
	Published bool `gorm:"not null;default:false"`
}

func (Backtest) TableName() string {
	return "backtests"
}

type BacktestDetailRow struct {
	Code            string         `gorm:"primarykey"`
	PerformanceJSON datatypes.JSON `gorm:"type:jsonb"`
}

func (BacktestDetailRow) TableName() string {
	return "backtest_details"
}
