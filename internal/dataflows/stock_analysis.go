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

// StockAnalysisProvider builds the per-security digest: realtime valuation
// snapshot plus a recent price trend. When a Longport client is supplied
// its broker-grade candlesticks supplement the trend section.
type StockAnalysisProvider struct {
	client   *resty.Client
	longport *LongportClient
	window   int
}

func NewStockAnalysisProvider(longport *LongportClient) *StockAnalysisProvider {
	client := resty.New()
	client.SetTimeout(15 * time.Second)

	return &StockAnalysisProvider{client: client, longport: longport, window: 30}
}

func (p *StockAnalysisProvider) Name() string { return "stock_analysis" }

func (p *StockAnalysisProvider) PerSymbol() bool { return true }

func (p *StockAnalysisProvider) Fetch(ctx context.Context, triggerTime, symbol string) RecordSet {
	if err := ValidateSymbol(symbol); err != nil {
		log.Printf("[stock_analysis] %v", err)
		return nil
	}
	tradeDate, err := market.SmartTradingDate(triggerTime, market.DateLayout)
	if err != nil {
		log.Printf("[stock_analysis] bad trigger time %q: %v", triggerTime, err)
		return nil
	}

	var sections []string
	quote, err := p.fetchQuote(ctx, symbol)
	if err != nil {
		log.Printf("[stock_analysis] quote %s failed: %v", symbol, err)
	} else {
		sections = append(sections, formatQuoteSection(quote))
	}

	if p.longport != nil {
		if s := p.staticSection(ctx, symbol); s != "" {
			sections = append(sections, s)
		}
	}

	if trend := p.trendSection(ctx, symbol, tradeDate); trend != "" {
		sections = append(sections, trend)
	}

	if len(sections) == 0 {
		return nil
	}

	name := symbol
	if quote != nil && quote.Name != "" {
		name = fmt.Sprintf("%s(%s)", quote.Name, symbol)
	}
	return RecordSet{{
		Title:   fmt.Sprintf("%s 个股分析", name),
		Content: strings.Join(sections, "\n\n"),
		PubTime: triggerTime,
	}}
}

// push2 returns most numeric fields scaled by 100.
type push2Quote struct {
	Data struct {
		Name      string  `json:"f58"`
		Close     float64 `json:"f43"`
		ChangePct float64 `json:"f170"`
		PETTM     float64 `json:"f164"`
		PB        float64 `json:"f167"`
		MarketCap float64 `json:"f116"`
		Turnover  float64 `json:"f168"`
	} `json:"data"`
}

func (p *StockAnalysisProvider) fetchQuote(ctx context.Context, symbol string) (*Quote, error) {
	var parsed push2Quote
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := p.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"secid":  SecID(symbol),
				"fields": "f43,f58,f116,f164,f167,f168,f170",
			}).
			Get("https://push2.eastmoney.com/api/qt/stock/get")
		if err != nil {
			return fmt.Errorf("fetch quote %s: %w", symbol, err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("quote API error %d for %s", resp.StatusCode(), symbol)
		}
		return json.Unmarshal(resp.Body(), &parsed)
	})
	if err != nil {
		return nil, err
	}
	if parsed.Data.Name == "" && parsed.Data.Close == 0 {
		return nil, fmt.Errorf("empty quote for %s", symbol)
	}

	hundred := decimal.NewFromInt(100)
	return &Quote{
		Symbol:    symbol,
		Name:      parsed.Data.Name,
		Close:     decimal.NewFromFloat(parsed.Data.Close).Div(hundred),
		ChangePct: decimal.NewFromFloat(parsed.Data.ChangePct).Div(hundred),
		PETTM:     decimal.NewFromFloat(parsed.Data.PETTM).Div(hundred),
		PB:        decimal.NewFromFloat(parsed.Data.PB).Div(hundred),
		MarketCap: decimal.NewFromFloat(parsed.Data.MarketCap),
		Turnover:  decimal.NewFromFloat(parsed.Data.Turnover).Div(hundred),
	}, nil
}

func formatQuoteSection(q *Quote) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### 估值快照:%s(%s)\n", q.Name, q.Symbol)
	fmt.Fprintf(&b, "- 最新价: %s 元 (%s%%)\n", q.Close.StringFixed(2), q.ChangePct.StringFixed(2))
	fmt.Fprintf(&b, "- 市盈率(TTM): %s\n", q.PETTM.StringFixed(2))
	fmt.Fprintf(&b, "- 市净率: %s\n", q.PB.StringFixed(2))
	fmt.Fprintf(&b, "- 总市值: %s 亿元\n", q.MarketCap.Div(decimal.NewFromInt(1e8)).StringFixed(2))
	fmt.Fprintf(&b, "- 换手率: %s%%", q.Turnover.StringFixed(2))
	return b.String()
}

// staticSection renders the broker-grade security profile.
func (p *StockAnalysisProvider) staticSection(ctx context.Context, symbol string) string {
	infos, err := p.longport.GetStaticInfo(ctx, []string{ExchangeSuffix(symbol)})
	if err != nil {
		log.Printf("[stock_analysis] longport static info %s failed: %v", symbol, err)
		return ""
	}
	if len(infos) == 0 || infos[0] == nil {
		return ""
	}

	info := infos[0]
	var b strings.Builder
	fmt.Fprintf(&b, "### 证券概况:%s\n", info.Symbol)
	if info.NameCn != "" {
		fmt.Fprintf(&b, "- 名称: %s\n", info.NameCn)
	}
	fmt.Fprintf(&b, "- 交易所: %s\n", info.Exchange)
	fmt.Fprintf(&b, "- 币种: %s\n", info.Currency)
	fmt.Fprintf(&b, "- 每手股数: %d", info.LotSize)
	return b.String()
}

// trendSection prefers Longport candlesticks, falling back to the public
// kline endpoint when no broker credentials are configured.
func (p *StockAnalysisProvider) trendSection(ctx context.Context, symbol, tradeDate string) string {
	if p.longport != nil {
		sticks, err := p.longport.GetSticksWithDay(ctx, ExchangeSuffix(symbol), p.window)
		if err != nil {
			log.Printf("[stock_analysis] longport sticks %s failed: %v", symbol, err)
		} else if len(sticks) > 0 {
			candles := make([]Candle, 0, len(sticks))
			for _, stick := range sticks {
				if stick == nil || stick.Close == nil {
					continue
				}
				candles = append(candles, Candle{
					Date:   time.Unix(stick.Timestamp, 0),
					Open:   decVal(stick.Open),
					High:   decVal(stick.High),
					Low:    decVal(stick.Low),
					Close:  *stick.Close,
					Volume: stick.Volume,
				})
			}
			if len(candles) > 0 {
				return formatTrend(candles)
			}
		}
	}

	candles, err := p.fetchCandles(ctx, symbol, tradeDate)
	if err != nil {
		log.Printf("[stock_analysis] kline %s failed: %v", symbol, err)
		return ""
	}
	if len(candles) == 0 {
		return ""
	}
	return formatTrend(candles)
}

func (p *StockAnalysisProvider) fetchCandles(ctx context.Context, symbol, endDate string) ([]Candle, error) {
	var parsed klineResponse
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := p.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"secid":   SecID(symbol),
				"klt":     "101",
				"fqt":     "1",
				"beg":     "0",
				"end":     endDate,
				"lmt":     strconv.Itoa(p.window),
				"fields1": "f1,f2,f3",
				"fields2": "f51,f52,f53,f54,f55,f56",
			}).
			Get("https://push2his.eastmoney.com/api/qt/stock/kline/get")
		if err != nil {
			return fmt.Errorf("fetch kline %s: %w", symbol, err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("kline API error %d for %s", resp.StatusCode(), symbol)
		}
		return json.Unmarshal(resp.Body(), &parsed)
	})
	if err != nil {
		return nil, err
	}

	candles := make([]Candle, 0, len(parsed.Data.Klines))
	for _, line := range parsed.Data.Klines {
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

func decVal(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func formatTrend(candles []Candle) string {
	latest := candles[len(candles)-1]
	first := candles[0]

	var b strings.Builder
	fmt.Fprintf(&b, "### 近%d个交易日走势\n", len(candles))
	fmt.Fprintf(&b, "- 最新收盘: %s (%s)\n", latest.Close.StringFixed(2), latest.Date.Format("2006-01-02"))

	if !first.Close.IsZero() {
		change := latest.Close.Sub(first.Close).Div(first.Close).Mul(decimal.NewFromInt(100))
		fmt.Fprintf(&b, "- 区间涨跌幅: %s%%\n", change.StringFixed(2))
	}

	high, low := candles[0].High, candles[0].Low
	var totalVolume int64
	for _, c := range candles {
		if c.High.GreaterThan(high) {
			high = c.High
		}
		if c.Low.LessThan(low) {
			low = c.Low
		}
		totalVolume += c.Volume
	}
	fmt.Fprintf(&b, "- 区间高低点: %s / %s\n", high.StringFixed(2), low.StringFixed(2))
	fmt.Fprintf(&b, "- 日均成交量: %d 手", totalVolume/int64(len(candles)))

	return b.String()
}
