package debate

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/mxchai/bullbear/internal/dataflows"
)

type countingSource struct {
	name      string
	perSymbol bool
	content   string
	calls     atomic.Int64
}

func (s *countingSource) Name() string    { return s.name }
func (s *countingSource) PerSymbol() bool { return s.perSymbol }

func (s *countingSource) Fetch(_ context.Context, triggerTime, _ string) dataflows.RecordSet {
	s.calls.Add(1)
	if s.content == "" {
		return nil
	}
	return dataflows.RecordSet{{Title: s.name, Content: s.content, PubTime: triggerTime}}
}

func TestMarketOverviewSkipsPerSymbolSources(t *testing.T) {
	fm := &scriptedModel{reply: "当前A股处于震荡市,建议关注高股息板块。"}
	priceMarket := &countingSource{name: "price_market", content: "大盘数据"}
	macro := &countingSource{name: "macro", content: "宏观数据"}
	stock := &countingSource{name: "stock_analysis", perSymbol: true, content: "个股数据"}
	o := NewOverviewer(testClient(fm), []dataflows.Provider{priceMarket, macro, stock})

	report, err := o.MarketOverview(context.Background(), "2024-08-19 09:00:00")
	if err != nil {
		t.Fatalf("MarketOverview: %v", err)
	}
	if !strings.Contains(report, "震荡市") {
		t.Errorf("report = %q", report)
	}
	if priceMarket.calls.Load() != 1 || macro.calls.Load() != 1 {
		t.Errorf("market-wide fetches = %d/%d, want 1/1", priceMarket.calls.Load(), macro.calls.Load())
	}
	if stock.calls.Load() != 0 {
		t.Errorf("per-symbol source fetched %d times, want 0", stock.calls.Load())
	}
}

func TestMarketOverviewNoData(t *testing.T) {
	fm := &scriptedModel{reply: "不应被调用"}
	o := NewOverviewer(testClient(fm), []dataflows.Provider{
		&countingSource{name: "price_market"},
		&countingSource{name: "macro"},
	})

	_, err := o.MarketOverview(context.Background(), "2024-08-19 09:00:00")
	if err == nil {
		t.Fatal("expected error when every source is empty")
	}
	if got := fm.calls.Load(); got != 0 {
		t.Errorf("generation calls = %d, want 0 without data", got)
	}
}
