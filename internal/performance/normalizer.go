// Package performance turns loosely structured backtest performance payloads
// into the five display values shown on a catalog card.
//
// Three payload shapes are accepted and may be mixed in the same document:
//
//	nested:       {"returns": {"net_profit_eur": 1200}}
//	flat-dotted:  {"returns.net_profit_eur": 1200} or {"metrics": {"returns.net_profit_eur": 1200}}
//	summary:      {"summary": {"net_profit_eur": 1200}}
//
// When several shapes carry the same field the nested value wins, then the
// flat-dotted value, then the summary value, then a bare top-level key.
package performance

import (
	"encoding/json"
	"strings"

	"gorm.io/datatypes"
)

// NoData is rendered for every value that is missing or not numeric.
const NoData = "—"

const (
	metricsSection = "metrics"
	summarySection = "summary"
)

// Summary holds the five formatted card values.
type Summary struct {
	NetProfit    string `json:"net_profit"`
	ProfitFactor string `json:"profit_factor"`
	MaxDrawdown  string `json:"max_drawdown"`
	WinRate      string `json:"win_rate"`
	TradeCount   string `json:"trade_count"`

	// Parsed is false when the payload was absent or could not be read as a
	// JSON object.
	Parsed bool `json:"-"`
}

// Fields returns net profit, profit factor, max drawdown, win rate and trade
// count in display order.
func (s Summary) Fields() (string, string, string, string, string) {
	return s.NetProfit, s.ProfitFactor, s.MaxDrawdown, s.WinRate, s.TradeCount
}

func emptySummary() Summary {
	return Summary{
		NetProfit:    NoData,
		ProfitFactor: NoData,
		MaxDrawdown:  NoData,
		WinRate:      NoData,
		TradeCount:   NoData,
	}
}

// field lists the lookup keys of one logical metric in priority order.
type field struct {
	nested [][]string
	dotted string
	bare   string
}

var (
	netProfitField = field{
		nested: [][]string{{"returns", "net_profit_eur"}},
		dotted: "returns.net_profit_eur",
		bare:   "net_profit_eur",
	}
	profitFactorField = field{
		nested: [][]string{{"returns", "profit_factor"}},
		dotted: "returns.profit_factor",
		bare:   "profit_factor",
	}
	maxDrawdownField = field{
		nested: [][]string{{"risk", "max_drawdown"}, {"risk", "max_drawdown_eur"}},
		dotted: "risk.max_drawdown_eur",
		bare:   "max_drawdown_eur",
	}
	winRateField = field{
		nested: [][]string{{"trades", "win_rate"}, {"trades", "win_rate_pct"}},
		dotted: "trades.win_rate_pct",
		bare:   "win_rate_pct",
	}
	tradeCountField = field{
		nested: [][]string{{"trades", "count"}},
		dotted: "trades.count",
		bare:   "count",
	}
)

// Normalize never fails: nil, unparseable text and non-object values yield
// NoData for all five fields.
func Normalize(payload interface{}) Summary {
	perf, ok := decode(payload)
	if !ok {
		return emptySummary()
	}

	return Summary{
		NetProfit:    FormatDecimal(netProfitField.resolve(perf), 2),
		ProfitFactor: FormatDecimal(profitFactorField.resolve(perf), 2),
		MaxDrawdown:  FormatDecimal(maxDrawdownField.resolve(perf), 2),
		WinRate:      FormatPercent(winRateField.resolve(perf)),
		TradeCount:   FormatInt(tradeCountField.resolve(perf)),
		Parsed:       true,
	}
}

// resolve returns the first present, non-null value. Zero counts as present.
func (f field) resolve(perf map[string]interface{}) interface{} {
	for _, path := range f.nested {
		if v, ok := getIn(perf, path...); ok {
			return v
		}
	}
	if v, ok := flatGet(perf, f.dotted); ok {
		return v
	}
	for _, section := range []string{metricsSection, summarySection} {
		if v, ok := getIn(perf, section, f.bare); ok {
			return v
		}
	}
	if v, ok := getIn(perf, f.bare); ok {
		return v
	}
	return nil
}

// getIn walks nested objects. Dotted keys are not split.
func getIn(m map[string]interface{}, keys ...string) (interface{}, bool) {
	var cur interface{} = m
	for _, k := range keys {
		obj, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = obj[k]
		if !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}

// flatGet looks key up in the payload itself, then in its metrics and summary
// sections.
func flatGet(m map[string]interface{}, key string) (interface{}, bool) {
	if v, ok := getIn(m, key); ok {
		return v, true
	}
	for _, section := range []string{metricsSection, summarySection} {
		if v, ok := getIn(m, section, key); ok {
			return v, true
		}
	}
	return nil, false
}

func decode(payload interface{}) (map[string]interface{}, bool) {
	switch p := payload.(type) {
	case nil:
		return nil, false
	case map[string]interface{}:
		return p, true
	case string:
		return decodeObject([]byte(p))
	case json.RawMessage:
		return decodeRaw(p)
	case []byte:
		return decodeRaw(p)
	case datatypes.JSON:
		return decodeRaw(p)
	case *datatypes.JSON:
		if p == nil {
			return nil, false
		}
		return decodeRaw(*p)
	default:
		return nil, false
	}
}

// decodeRaw accepts a raw JSON value. A JSON string is treated as a text
// column holding the document and is decoded once more.
func decodeRaw(raw []byte) (map[string]interface{}, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, false
	}
	if strings.HasPrefix(trimmed, `"`) {
		var text string
		if err := json.Unmarshal([]byte(trimmed), &text); err != nil {
			return nil, false
		}
		return decodeObject([]byte(text))
	}
	return decodeObject([]byte(trimmed))
}

func decodeObject(text []byte) (map[string]interface{}, bool) {
	var v interface{}
	if err := json.Unmarshal(text, &v); err != nil {
		return nil, false
	}
	obj, ok := v.(map[string]interface{})
	return obj, ok
}
