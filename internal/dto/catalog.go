package dto

import "encoding/json"

// BacktestRecord is one manifest row merged with its performance payload.
// PerformanceJSON is nil when no details row matched or the column was NULL.
type BacktestRecord struct {
	Code            string          `json:"code"`
	ImageURL        *string         `json:"image_url"`
	ExcelURL        *string         `json:"excel_url"`
	PerformanceJSON json.RawMessage `json:"performance_json"`
}

// CatalogPage is one fetched page. Total is the exact published count, nil
// when the backend did not report one.
type CatalogPage struct {
	Items []BacktestRecord `json:"items"`
	Total *int64           `json:"total,omitempty"`
}

// Card is one rendered catalog entry.
type Card struct {
	Code         string `json:"code"`
	ImageURL     string `json:"image_url,omitempty"`
	ExcelURL     string `json:"excel_url,omitempty"`
	NetProfit    string `json:"net_profit"`
	ProfitFactor string `json:"profit_factor"`
	MaxDrawdown  string `json:"max_drawdown"`
	WinRate      string `json:"win_rate"`
	TradeCount   string `json:"trade_count"`
	ContactURL   string `json:"contact_url"`
}

func (c Card) HasImage() bool {
	return c.ImageURL != ""
}

func (c Card) HasExcel() bool {
	return c.ExcelURL != ""
}

// PageView is everything needed to draw one catalog page.
type PageView struct {
	Title      string   `json:"-"`
	Cards      []Card   `json:"cards"`
	Rows       [][]Card `json:"-"`
	Columns    int      `json:"columns"`
	PageSize   int      `json:"page_size"`
	Page       int      `json:"page"`
	TotalPages int      `json:"total_pages"`
	Total      *int64   `json:"total,omitempty"`
	Mobile     bool     `json:"mobile"`
	Note       string   `json:"note,omitempty"`
	HasPrev    bool     `json:"has_prev"`
	HasNext    bool     `json:"has_next"`
}

// CatalogQuery is the query string of the JSON catalog endpoint.
type CatalogQuery struct {
	Page   int  `query:"page" validate:"omitempty,min=1"`
	Mobile bool `query:"mobile"`
}
