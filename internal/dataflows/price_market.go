package dataflows

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/mxchai/bullbear/internal/market"
)

// PriceMarketProvider builds a market-wide price digest from the daily
// candles of the three benchmark indices (上证指数, 创业板指, 科创50).
type PriceMarketProvider struct {
	client *resty.Client
	window int
}

func NewPriceMarketProvider() *PriceMarketProvider {
	client := resty.New()
	client.SetBaseURL("https://push2his.eastmoney.com")
	client.SetTimeout(15 * time.Second)

	return &PriceMarketProvider{client: client, window: 90}
}

func (p *PriceMarketProvider) Name() string { return "price_market" }

func (p *PriceMarketProvider) PerSymbol() bool { return false }

var benchmarkIndices = []struct {
	secid string
	name  string
}{
	{"1.000001", "上证指数"},
	{"0.399006", "创业板指"},
	{"1.000688", "科创50"},
}

func (p *PriceMarketProvider) Fetch(ctx context.Context, triggerTime, _ string) RecordSet {
	tradeDate, err := market.SmartTradingDate(triggerTime, market.DateLayout)
	if err != nil {
		log.Printf("[price_market] bad trigger time %q: %v", triggerTime, err)
		return nil
	}

	var sections []string
	for _, idx := range benchmarkIndices {
		candles, err := p.fetchCandles(ctx, idx.secid, tradeDate)
		if err != nil {
			log.Printf("[price_market] fetch %s failed: %v", idx.name, err)
			continue
		}
		if len(candles) == 0 {
			continue
		}
		sections = append(sections, formatIndexSection(idx.name, candles))
	}

	if len(sections) == 0 {
		return nil
	}

	content := fmt.Sprintf("## %s 大盘行情\n\n%s", tradeDate, strings.Join(sections, "\n\n"))
	return RecordSet{{
		Title:   fmt.Sprintf("%s:市场宏观数据汇总", tradeDate),
		Content: content,
		PubTime: triggerTime,
	}}
}

type klineResponse struct {
	Data struct {
		Name   string   `json:"name"`
		Klines []string `json:"klines"`
	} `json:"data"`
}

func (p *PriceMarketProvider) fetchCandles(ctx context.Context, secid, endDate string) ([]Candle, error) {
	var parsed klineResponse
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := p.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"secid":   secid,
				"klt":     "101", // daily bars
				"fqt":     "1",
				"beg":     "0",
				"end":     endDate,
				"lmt":     strconv.Itoa(p.window),
				"fields1": "f1,f2,f3",
				"fields2": "f51,f52,f53,f54,f55,f56",
			}).
			Get("/api/qt/stock/kline/get")
		if err != nil {
			return fmt.Errorf("fetch kline %s: %w", secid, err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("kline API error %d for %s", resp.StatusCode(), secid)
		}
		return json.Unmarshal(resp.Body(), &parsed)
	})
	if err != nil {
		return nil, err
	}

	candles := make([]Candle, 0, len(parsed.Data.Klines))
	for _, line := range parsed.Data.Klines {
		// date,open,close,high,low,volume
		parts := strings.Split(line, ",")
		if len(parts) < 6 {
			continue
		}
		date, err := time.Parse("2006-01-02", parts[0])
		if err != nil {
			continue
		}
		open, _ := decimal.NewFromString(parts[1])
		closeP, _ := decimal.NewFromString(parts[2])
		high, _ := decimal.NewFromString(parts[3])
		low, _ := decimal.NewFromString(parts[4])
		volume, _ := strconv.ParseInt(parts[5], 10, 64)
		candles = append(candles, Candle{Date: date, Open: open, Close: closeP, High: high, Low: low, Volume: volume})
	}
	return candles, nil
}

func formatIndexSection(name string, candles []Candle) string {
	latest := candles[len(candles)-1]
	first := candles[0]

	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n", name)
	fmt.Fprintf(&b, "- 最新收盘: %s (%s)\n", latest.Close.StringFixed(2), latest.Date.Format("2006-01-02"))
	fmt.Fprintf(&b, "- 当日区间: %s ~ %s\n", latest.Low.StringFixed(2), latest.High.StringFixed(2))

	if !first.Close.IsZero() {
		change := latest.Close.Sub(first.Close).Div(first.Close).Mul(decimal.NewFromInt(100))
		fmt.Fprintf(&b, "- 近%d个交易日涨跌幅: %s%%\n", len(candles), change.StringFixed(2))
	}

	high, low := candles[0].High, candles[0].Low
	for _, c := range candles[1:] {
		if c.High.GreaterThan(high) {
			high = c.High
		}
		if c.Low.LessThan(low) {
			low = c.Low
		}
	}
	fmt.Fprintf(&b, "- 区间高低点: %s / %s", high.StringFixed(2), low.StringFixed(2))

	return b.String()
}
