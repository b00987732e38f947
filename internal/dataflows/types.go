package dataflows

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Record is one row of provider output. Content carries the extracted free
// text the debate consumes; PubTime is the publish time in trigger-time
// format.
type Record struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	PubTime string `json:"pub_time"`
	URL     string `json:"url,omitempty"`
}

// RecordSet is the uniform provider result. An empty set signals
// "unavailable"; providers never surface errors to the orchestrator.
type RecordSet []Record

// Empty reports whether the set carries no usable content. A populated but
// content-less set counts as unavailable.
func (rs RecordSet) Empty() bool {
	for _, r := range rs {
		if strings.TrimSpace(r.Content) != "" {
			return false
		}
	}
	return true
}

// FirstContent returns the content of the first non-blank row, or "".
func (rs RecordSet) FirstContent() string {
	for _, r := range rs {
		if strings.TrimSpace(r.Content) != "" {
			return r.Content
		}
	}
	return ""
}

// Candle is one daily bar of an index or stock.
type Candle struct {
	Date   time.Time       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// Quote is a realtime valuation snapshot of a single security.
type Quote struct {
	Symbol    string          `json:"symbol"`
	Name      string          `json:"name"`
	Close     decimal.Decimal `json:"close"`
	ChangePct decimal.Decimal `json:"change_pct"`
	PETTM     decimal.Decimal `json:"pe_ttm"`
	PB        decimal.Decimal `json:"pb"`
	MarketCap decimal.Decimal `json:"market_cap"`
	Turnover  decimal.Decimal `json:"turnover"`
}
