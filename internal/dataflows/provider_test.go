package dataflows

import (
	"context"
	"testing"
)

type stubProvider struct {
	name      string
	perSymbol bool
	result    RecordSet
	calls     int
}

func (s *stubProvider) Name() string    { return s.name }
func (s *stubProvider) PerSymbol() bool { return s.perSymbol }

func (s *stubProvider) Fetch(_ context.Context, _, _ string) RecordSet {
	s.calls++
	return s.result
}

func TestCachedProviderHitSkipsFetch(t *testing.T) {
	cache := NewSnapshotCache(t.TempDir(), true)
	stub := &stubProvider{
		name:   "macro",
		result: RecordSet{{Title: "宏观", Content: "CPI当月同比 0.5"}},
	}
	p := Cached(stub, cache)
	ctx := context.Background()

	first := p.Fetch(ctx, "2024-08-19 09:00:00", "")
	second := p.Fetch(ctx, "2024-08-19 09:00:00", "")

	if stub.calls != 1 {
		t.Fatalf("calls = %d, want 1", stub.calls)
	}
	if len(first) != 1 || len(second) != 1 || second[0].Content != first[0].Content {
		t.Fatalf("cached result differs: %v vs %v", first, second)
	}
}

func TestCachedProviderDistinctTimeKeys(t *testing.T) {
	cache := NewSnapshotCache(t.TempDir(), true)
	stub := &stubProvider{
		name:   "macro",
		result: RecordSet{{Title: "宏观", Content: "data"}},
	}
	p := Cached(stub, cache)
	ctx := context.Background()

	p.Fetch(ctx, "2024-08-19 09:00:00", "")
	p.Fetch(ctx, "2024-08-20 09:00:00", "")

	if stub.calls != 2 {
		t.Fatalf("calls = %d, want 2 for distinct time keys", stub.calls)
	}
}

func TestCachedProviderSymbolScoping(t *testing.T) {
	cache := NewSnapshotCache(t.TempDir(), true)
	stub := &stubProvider{
		name:      "stock_analysis",
		perSymbol: true,
		result:    RecordSet{{Title: "个股", Content: "data"}},
	}
	p := Cached(stub, cache)
	ctx := context.Background()

	p.Fetch(ctx, "2024-08-19 09:00:00", "000001")
	p.Fetch(ctx, "2024-08-19 09:00:00", "600519")
	p.Fetch(ctx, "2024-08-19 09:00:00", "000001")

	if stub.calls != 2 {
		t.Fatalf("calls = %d, want one fetch per symbol", stub.calls)
	}
}

func TestCachedProviderMarketWideIgnoresSymbol(t *testing.T) {
	cache := NewSnapshotCache(t.TempDir(), true)
	stub := &stubProvider{
		name:   "price_market",
		result: RecordSet{{Title: "大盘", Content: "data"}},
	}
	p := Cached(stub, cache)
	ctx := context.Background()

	p.Fetch(ctx, "2024-08-19 09:00:00", "000001")
	p.Fetch(ctx, "2024-08-19 09:00:00", "600519")

	if stub.calls != 1 {
		t.Fatalf("calls = %d, want market-wide sources to share one entry", stub.calls)
	}
}

func TestCachedProviderEmptyResultNotCached(t *testing.T) {
	cache := NewSnapshotCache(t.TempDir(), true)
	stub := &stubProvider{name: "sina_news"}
	p := Cached(stub, cache)
	ctx := context.Background()

	p.Fetch(ctx, "2024-08-19 09:00:00", "")
	p.Fetch(ctx, "2024-08-19 09:00:00", "")

	if stub.calls != 2 {
		t.Fatalf("calls = %d, want empty results to be re-fetched", stub.calls)
	}
}
