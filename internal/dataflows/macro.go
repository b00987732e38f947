package dataflows

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	finance "github.com/piquette/finance-go/quote"

	"github.com/mxchai/bullbear/internal/market"
)

// MacroProvider assembles a macro-economic digest: domestic indicators from
// the eastmoney data center plus a global snapshot of the US benchmark
// indices.
type MacroProvider struct {
	client *resty.Client
}

func NewMacroProvider() *MacroProvider {
	client := resty.New()
	client.SetBaseURL("https://datacenter-web.eastmoney.com")
	client.SetTimeout(15 * time.Second)

	return &MacroProvider{client: client}
}

func (p *MacroProvider) Name() string { return "macro" }

func (p *MacroProvider) PerSymbol() bool { return false }

// Domestic indicator reports, in display order.
var macroReports = []struct {
	report string
	label  string
	fields []string
}{
	{"RPT_ECONOMY_CPI", "CPI 居民消费价格指数", []string{"REPORT_DATE", "NATIONAL_SAME"}},
	{"RPT_ECONOMY_PPI", "PPI 工业品出厂价格指数", []string{"REPORT_DATE", "BASE_SAME"}},
	{"RPT_ECONOMY_PMI", "制造业 PMI", []string{"REPORT_DATE", "MAKE_INDEX"}},
	{"RPT_ECONOMY_GDP", "GDP 同比增速", []string{"REPORT_DATE", "SUM_SAME"}},
	{"RPT_ECONOMY_TOTAL_SOCIAL", "社会融资规模增量", []string{"REPORT_DATE", "TOTAL_SOCIAL_FINANCING"}},
}

func (p *MacroProvider) Fetch(ctx context.Context, triggerTime, _ string) RecordSet {
	tradeDate, err := market.SmartTradingDate(triggerTime, market.DateLayout)
	if err != nil {
		log.Printf("[macro] bad trigger time %q: %v", triggerTime, err)
		return nil
	}

	var sections []string
	for _, r := range macroReports {
		section, err := p.fetchIndicator(ctx, r.report, r.label, r.fields)
		if err != nil {
			log.Printf("[macro] fetch %s failed: %v", r.label, err)
			continue
		}
		if section != "" {
			sections = append(sections, section)
		}
	}

	if global := fetchGlobalIndices(); global != "" {
		sections = append(sections, global)
	}

	if len(sections) == 0 {
		return nil
	}

	content := fmt.Sprintf("## %s 宏观经济环境\n\n%s", tradeDate, strings.Join(sections, "\n"))
	return RecordSet{{
		Title:   fmt.Sprintf("%s:宏观经济数据汇总", tradeDate),
		Content: content,
		PubTime: triggerTime,
	}}
}

type datacenterResponse struct {
	Result struct {
		Data []map[string]any `json:"data"`
	} `json:"result"`
}

func (p *MacroProvider) fetchIndicator(ctx context.Context, report, label string, fields []string) (string, error) {
	var parsed datacenterResponse
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := p.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"reportName":  report,
				"columns":     strings.Join(fields, ","),
				"pageSize":    "3",
				"sortTypes":   "-1",
				"sortColumns": "REPORT_DATE",
			}).
			Get("/api/data/v1/get")
		if err != nil {
			return fmt.Errorf("fetch %s: %w", report, err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("datacenter API error %d for %s", resp.StatusCode(), report)
		}
		return json.Unmarshal(resp.Body(), &parsed)
	})
	if err != nil {
		return "", err
	}
	if len(parsed.Result.Data) == 0 {
		return "", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n", label)
	for _, row := range parsed.Result.Data {
		var parts []string
		for _, f := range fields {
			if v, ok := row[f]; ok && v != nil {
				parts = append(parts, fmt.Sprintf("%v", v))
			}
		}
		if len(parts) > 0 {
			fmt.Fprintf(&b, "- %s\n", strings.Join(parts, " / "))
		}
	}
	return b.String(), nil
}

// Global benchmark snapshot via Yahoo quotes. Failures just drop the
// section, the domestic digest stands on its own.
func fetchGlobalIndices() string {
	indices := []struct {
		ticker string
		name   string
	}{
		{"^GSPC", "标普500"},
		{"^IXIC", "纳斯达克"},
		{"^DJI", "道琼斯"},
	}

	var lines []string
	for _, idx := range indices {
		q, err := finance.Get(idx.ticker)
		if err != nil || q == nil {
			log.Printf("[macro] global quote %s failed: %v", idx.ticker, err)
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s: %.2f (%+.2f%%)",
			idx.name, q.RegularMarketPrice, q.RegularMarketChangePercent))
	}
	if len(lines) == 0 {
		return ""
	}
	return "### 全球市场\n" + strings.Join(lines, "\n") + "\n"
}
