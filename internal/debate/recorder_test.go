package debate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/mxchai/bullbear/config"
	"github.com/mxchai/bullbear/internal/dataflows"
	"github.com/mxchai/bullbear/internal/llm"
)

type fakeModel struct {
	calls atomic.Int64
	fail  bool
}

func (f *fakeModel) Generate(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	n := f.calls.Add(1)
	if f.fail {
		return nil, errors.New("backend unavailable")
	}
	return schema.AssistantMessage(fmt.Sprintf("基于数据的专业分析发言 %d", n), nil), nil
}

func (f *fakeModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

type fakeSource struct {
	name    string
	content string
}

func (s *fakeSource) Name() string    { return s.name }
func (s *fakeSource) PerSymbol() bool { return s.name == "financials" || s.name == "stock_analysis" }

func (s *fakeSource) Fetch(_ context.Context, triggerTime, _ string) dataflows.RecordSet {
	if s.content == "" {
		return nil
	}
	return dataflows.RecordSet{{Title: s.name, Content: s.content, PubTime: triggerTime}}
}

func allSources(content string) []dataflows.Provider {
	names := []string{"price_market", "macro", "financials", "sina_news", "stock_analysis"}
	providers := make([]dataflows.Provider, 0, len(names))
	for _, name := range names {
		providers = append(providers, &fakeSource{name: name, content: content})
	}
	return providers
}

func testClient(m model.BaseChatModel) *llm.Client {
	cfg := &config.Config{
		LLMMaxRetries: 1,
		LLMRetryDelay: time.Millisecond,
		LLMTimeout:    time.Second,
	}
	return llm.NewClient(m, cfg)
}

func newTestRecorder(m model.BaseChatModel, providers []dataflows.Provider) *Recorder {
	client := testClient(m)
	return NewRecorder(NewAnalyst(Bull, client), NewAnalyst(Bear, client), providers)
}

func TestConductDebateSchedule(t *testing.T) {
	fm := &fakeModel{}
	r := newTestRecorder(fm, allSources("市场数据良好"))

	result := r.ConductDebate(context.Background(), "2024-08-19 09:00:00", "000001")

	if !result.Completed {
		t.Fatalf("debate not completed: %s", result.Error)
	}
	if result.TotalSpeeches != 4 {
		t.Errorf("TotalSpeeches = %d, want 4", result.TotalSpeeches)
	}
	if result.State.SpeechCount != 4 || result.State.Round != 2 {
		t.Errorf("state = %d speeches, %d rounds, want 4 and 2", result.State.SpeechCount, result.State.Round)
	}

	wantSpeakers := []Persona{Bear, Bull, Bear, Bull}
	if len(result.Records) != 4 {
		t.Fatalf("records = %d, want 4", len(result.Records))
	}
	for i, rec := range result.Records {
		if rec.Speaker != wantSpeakers[i] {
			t.Errorf("record %d speaker = %s, want %s", i, rec.Speaker, wantSpeakers[i])
		}
		if !strings.HasPrefix(rec.Text, rec.Speaker.Prefix()) {
			t.Errorf("record %d text %q lacks speaker prefix", i, rec.Text)
		}
	}
}

func TestConductDebateTranscriptJoinsUtterances(t *testing.T) {
	fm := &fakeModel{}
	r := newTestRecorder(fm, allSources("市场数据良好"))

	result := r.ConductDebate(context.Background(), "2024-08-19 09:00:00", "000001")

	var texts []string
	for _, rec := range result.Records {
		texts = append(texts, rec.Text)
	}
	want := strings.Join(texts, "\n")
	if result.State.Transcript != want {
		t.Errorf("transcript mismatch:\ngot  %q\nwant %q", result.State.Transcript, want)
	}
	if result.State.LastUtterance != texts[3] {
		t.Errorf("last utterance = %q, want %q", result.State.LastUtterance, texts[3])
	}
	if result.State.NextSpeaker != Bear {
		t.Errorf("next speaker after Bull = %s, want bear", result.State.NextSpeaker)
	}

	for _, rec := range result.Records {
		if rec.Speaker == Bull && !strings.Contains(result.State.BullTranscript, rec.Text) {
			t.Errorf("bull transcript missing %q", rec.Text)
		}
		if rec.Speaker == Bear && !strings.Contains(result.State.BearTranscript, rec.Text) {
			t.Errorf("bear transcript missing %q", rec.Text)
		}
	}
}

func TestConductDebateInitialStatementsRecordedConcurrently(t *testing.T) {
	// The two base positions are generated on separate goroutines; run the
	// debate repeatedly so the race detector exercises that fan-out.
	for i := 0; i < 20; i++ {
		fm := &fakeModel{}
		r := newTestRecorder(fm, allSources("市场数据良好"))

		result := r.ConductDebate(context.Background(), "2024-08-19 09:00:00", "000001")

		if len(result.Initial) != 2 {
			t.Fatalf("initial statements = %d, want one per persona", len(result.Initial))
		}
		if result.Initial[Bull] == "" || result.Initial[Bear] == "" {
			t.Fatalf("initial statements missing: %+v", result.Initial)
		}
	}
}

func TestConductDebateNoDataSkipsGeneration(t *testing.T) {
	fm := &fakeModel{}
	r := newTestRecorder(fm, allSources(""))

	result := r.ConductDebate(context.Background(), "2024-08-19 09:00:00", "000001")

	if result.Completed {
		t.Error("debate completed despite all sources empty")
	}
	if !result.Bundle.Unavailable() {
		t.Error("bundle should be unavailable")
	}
	if result.Error == "" {
		t.Error("no-data result should carry an explicit error")
	}
	if got := fm.calls.Load(); got != 0 {
		t.Errorf("generation calls = %d, want 0 on no-data abort", got)
	}
}

func TestConductDebateGenerationFailureFallsBack(t *testing.T) {
	fm := &fakeModel{fail: true}
	r := newTestRecorder(fm, allSources("市场数据良好"))

	result := r.ConductDebate(context.Background(), "2024-08-19 09:00:00", "000001")

	if !result.Completed {
		t.Fatal("debate must complete even when every generation fails")
	}
	if result.TotalSpeeches != 4 {
		t.Errorf("TotalSpeeches = %d, want 4 fallback turns", result.TotalSpeeches)
	}
	for i, rec := range result.Records {
		want := rec.Speaker.Prefix() + "发言生成失败"
		if rec.Text != want {
			t.Errorf("record %d = %q, want fallback %q", i, rec.Text, want)
		}
	}
}

func TestAggregateAvailability(t *testing.T) {
	providers := []dataflows.Provider{
		&fakeSource{name: "price_market", content: "大盘数据"},
		&fakeSource{name: "macro"},
		&fakeSource{name: "sina_news", content: "新闻内容"},
	}

	bundle := Aggregate(context.Background(), providers, "2024-08-19 09:00:00", "000001")

	if bundle.Unavailable() {
		t.Error("bundle with two live sources must not be unavailable")
	}
	if !bundle.Availability["price_market"] || bundle.Availability["macro"] || !bundle.Availability["sina_news"] {
		t.Errorf("availability = %v", bundle.Availability)
	}
	if got := bundle.Section("price_market"); got != "大盘数据" {
		t.Errorf("Section(price_market) = %q", got)
	}
	if got := bundle.Section("macro"); !strings.Contains(got, "无可用数据") {
		t.Errorf("Section(macro) = %q, want no-data marker", got)
	}
	if bundle.TradeDate != "20240816" {
		t.Errorf("trade date = %q, want previous trading day before market close", bundle.TradeDate)
	}
}

func TestAnalystTurnRebuttalTarget(t *testing.T) {
	state := &State{
		Transcript:    "Bear Analyst: 风险很大",
		LastUtterance: "Bear Analyst: 风险很大",
		SpeechCount:   1,
	}

	bull := NewAnalyst(Bull, testClient(&fakeModel{}))
	prompt := bull.turnUserPrompt("基础分析", state, "000001")
	if !strings.Contains(prompt, "Bear Analyst: 风险很大") {
		t.Error("bull turn prompt should quote the bear's latest utterance")
	}

	bear := NewAnalyst(Bear, testClient(&fakeModel{}))
	prompt = bear.turnUserPrompt("基础分析", state, "000001")
	if !strings.Contains(prompt, "看涨方最新观点\n暂无") {
		t.Error("bear turn prompt should report no rebuttal target when it spoke last")
	}
}
