package dataflows

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mxchai/bullbear/internal/market"
)

// FinancialsProvider fetches the key financial abstract of a single stock
// from the eastmoney F10 data center.
type FinancialsProvider struct {
	client *resty.Client
}

func NewFinancialsProvider() *FinancialsProvider {
	client := resty.New()
	client.SetBaseURL("https://datacenter.eastmoney.com")
	client.SetTimeout(15 * time.Second)

	return &FinancialsProvider{client: client}
}

func (p *FinancialsProvider) Name() string { return "financials" }

func (p *FinancialsProvider) PerSymbol() bool { return true }

type mainFinanceRow struct {
	ReportDateName string   `json:"REPORT_DATE_NAME"`
	EPSJB          *float64 `json:"EPSJB"`            // 基本每股收益
	TotalOperate   *float64 `json:"TOTALOPERATEREVE"` // 营业总收入
	ParentNetProf  *float64 `json:"PARENTNETPROFIT"`  // 归母净利润
	ROEJQ          *float64 `json:"ROEJQ"`            // 净资产收益率(加权)
	XSMLL          *float64 `json:"XSMLL"`            // 毛利率
	ZCFZL          *float64 `json:"ZCFZL"`            // 资产负债率
}

func (p *FinancialsProvider) Fetch(ctx context.Context, triggerTime, symbol string) RecordSet {
	if err := ValidateSymbol(symbol); err != nil {
		log.Printf("[financials] %v", err)
		return nil
	}
	tradeDate, err := market.SmartTradingDate(triggerTime, market.DateLayout)
	if err != nil {
		log.Printf("[financials] bad trigger time %q: %v", triggerTime, err)
		return nil
	}

	var parsed struct {
		Result struct {
			Data []mainFinanceRow `json:"data"`
		} `json:"result"`
	}
	err = WithRetry(DefaultRetryConfig(), func() error {
		resp, err := p.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"reportName":  "RPT_F10_FINANCE_MAINFINADATA",
				"columns":     "ALL",
				"filter":      fmt.Sprintf(`(SECUCODE="%s")`, ExchangeSuffix(symbol)),
				"pageSize":    "8",
				"sortTypes":   "-1",
				"sortColumns": "REPORT_DATE",
			}).
			Get("/securities/api/data/v1/get")
		if err != nil {
			return fmt.Errorf("fetch financial abstract for %s: %w", symbol, err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("F10 API error %d for %s", resp.StatusCode(), symbol)
		}
		return json.Unmarshal(resp.Body(), &parsed)
	})
	if err != nil {
		log.Printf("[financials] %v", err)
		return nil
	}
	if len(parsed.Result.Data) == 0 {
		return nil
	}

	content := formatFinancials(symbol, tradeDate, parsed.Result.Data)
	return RecordSet{{
		Title:   fmt.Sprintf("%s 财务摘要", symbol),
		Content: content,
		PubTime: triggerTime,
	}}
}

func formatFinancials(symbol, tradeDate string, rows []mainFinanceRow) string {
	var b []byte
	b = fmt.Appendf(b, "## %s 财务数据摘要（截至 %s）\n\n", symbol, tradeDate)
	for _, r := range rows {
		b = fmt.Appendf(b, "### %s\n", r.ReportDateName)
		b = appendMetric(b, "基本每股收益", r.EPSJB, "元")
		b = appendMetric(b, "营业总收入", r.TotalOperate, "元")
		b = appendMetric(b, "归母净利润", r.ParentNetProf, "元")
		b = appendMetric(b, "净资产收益率", r.ROEJQ, "%")
		b = appendMetric(b, "毛利率", r.XSMLL, "%")
		b = appendMetric(b, "资产负债率", r.ZCFZL, "%")
		b = append(b, '\n')
	}
	return string(b)
}

func appendMetric(b []byte, label string, v *float64, unit string) []byte {
	if v == nil {
		return b
	}
	return fmt.Appendf(b, "- %s: %.2f%s\n", label, *v, unit)
}
