package debate

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/mxchai/bullbear/internal/dataflows"
	"github.com/mxchai/bullbear/internal/market"
)

// sourceLabels maps provider names to the Chinese section headings used in
// analyst prompts.
var sourceLabels = map[string]string{
	"price_market":   "价格市场数据",
	"macro":          "宏观经济数据",
	"financials":     "财务数据",
	"sina_news":      "新闻资讯",
	"stock_analysis": "个股分析数据",
}

// ContextBundle is the merged per-source context assembled once per run and
// shared read-only by both analysts and the synthesizer.
type ContextBundle struct {
	Symbol       string            `json:"symbol"`
	TriggerTime  string            `json:"trigger_time"`
	TradeDate    string            `json:"trade_date"`
	Sections     map[string]string `json:"sections"`
	Availability map[string]bool   `json:"availability"`
}

// Unavailable reports whether every source came back empty. Callers must
// not issue any generation call on an unavailable bundle.
func (b *ContextBundle) Unavailable() bool {
	for _, ok := range b.Availability {
		if ok {
			return false
		}
	}
	return true
}

// Section returns the extracted text for a source, or an explicit
// no-data marker so prompts never embed blank sections.
func (b *ContextBundle) Section(source string) string {
	if b.Availability[source] {
		return b.Sections[source]
	}
	label := sourceLabels[source]
	if label == "" {
		label = source
	}
	return label + "无可用数据"
}

// Aggregate fans out to every provider concurrently and joins on all of
// them. One slow source delays the barrier but never blocks the others;
// per-source failures surface only as availability flags.
func Aggregate(ctx context.Context, providers []dataflows.Provider, triggerTime, symbol string) *ContextBundle {
	tradeDate, err := market.SmartTradingDate(triggerTime, market.DateLayout)
	if err != nil {
		log.Printf("[debate] bad trigger time %q: %v", triggerTime, err)
		tradeDate = triggerTime
	}

	results := make([]dataflows.RecordSet, len(providers))
	var wg sync.WaitGroup
	for i, p := range providers {
		wg.Add(1)
		go func(i int, p dataflows.Provider) {
			defer wg.Done()
			results[i] = p.Fetch(ctx, triggerTime, symbol)
		}(i, p)
	}
	wg.Wait()

	bundle := &ContextBundle{
		Symbol:       symbol,
		TriggerTime:  triggerTime,
		TradeDate:    tradeDate,
		Sections:     make(map[string]string, len(providers)),
		Availability: make(map[string]bool, len(providers)),
	}
	for i, p := range providers {
		content := results[i].FirstContent()
		available := strings.TrimSpace(content) != ""
		bundle.Availability[p.Name()] = available
		if available {
			bundle.Sections[p.Name()] = content
		}
	}

	available := 0
	for _, ok := range bundle.Availability {
		if ok {
			available++
		}
	}
	log.Printf("[debate] aggregated %d/%d sources for %s at %s", available, len(providers), symbol, triggerTime)
	return bundle
}

// PromptSections renders every source section under its Chinese heading,
// in a fixed order, for embedding into analyst prompts.
func (b *ContextBundle) PromptSections() string {
	order := []string{"financials", "macro", "price_market", "sina_news", "stock_analysis"}

	var sb strings.Builder
	for _, source := range order {
		label := sourceLabels[source]
		fmt.Fprintf(&sb, "### %s\n%s\n\n", label, b.Section(source))
	}
	return strings.TrimSpace(sb.String())
}
