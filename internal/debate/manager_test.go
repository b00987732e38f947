package debate

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/mxchai/bullbear/internal/dataflows"
	"github.com/mxchai/bullbear/internal/decision"
	"github.com/mxchai/bullbear/internal/storage"
)

type scriptedModel struct {
	calls atomic.Int64
	reply string
}

func (f *scriptedModel) Generate(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.calls.Add(1)
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *scriptedModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

func newTestManager(m model.BaseChatModel, providers []dataflows.Provider, store *storage.ResultStore) *Manager {
	client := testClient(m)
	recorder := NewRecorder(NewAnalyst(Bull, client), NewAnalyst(Bear, client), providers)
	return NewManager(recorder, decision.NewSynthesizer(client), store)
}

func TestConductFullAnalysisEndToEnd(t *testing.T) {
	fm := &scriptedModel{reply: "综合辩论结果,建议买入 000001。信心水平:高。短期目标价 12.5元,中期目标 14.2元,长期目标 16.8元。关键论点是基本面持续改善。"}
	store := storage.NewResultStore(t.TempDir())
	m := newTestManager(fm, allSources("数据内容充分"), store)

	result := m.ConductFullAnalysis(context.Background(), "2024-08-19 09:00:00", "000001")

	if !result.AnalysisCompleted {
		t.Fatalf("analysis not completed: %s", result.Error)
	}
	if result.Summary.TotalSpeeches != 4 || result.Summary.DebateRounds != 2 {
		t.Errorf("summary = %+v, want 4 speeches over 2 rounds", result.Summary)
	}
	if result.Summary.FinalDecision != "买入" {
		t.Errorf("final decision = %q, want 买入", result.Summary.FinalDecision)
	}
	if result.Summary.ConfidenceLevel != "高" {
		t.Errorf("confidence = %q, want 高", result.Summary.ConfidenceLevel)
	}
	if result.Decision.PriceTargets.ShortTerm != "12.5元" {
		t.Errorf("short term target = %q, want 12.5元", result.Decision.PriceTargets.ShortTerm)
	}

	// 2 initial statements + 4 turns + 1 synthesis
	if got := fm.calls.Load(); got != 7 {
		t.Errorf("generation calls = %d, want 7", got)
	}

	var stored AnalysisResult
	if err := store.Load("000001", dataflows.TimeKey("2024-08-19 09:00:00"), &stored); err != nil {
		t.Fatalf("load persisted result: %v", err)
	}
	if !stored.AnalysisCompleted || stored.Summary.FinalDecision != "买入" {
		t.Errorf("persisted result mismatch: %+v", stored.Summary)
	}
}

func TestConductFullAnalysisNoData(t *testing.T) {
	fm := &scriptedModel{reply: "不应被调用"}
	m := newTestManager(fm, allSources(""), nil)

	result := m.ConductFullAnalysis(context.Background(), "2024-08-19 09:00:00", "000001")

	if result.AnalysisCompleted {
		t.Error("analysis must not complete without data")
	}
	if !result.NoData {
		t.Error("result should carry the no-data marker")
	}
	if got := fm.calls.Load(); got != 0 {
		t.Errorf("generation calls = %d, want 0", got)
	}
	if result.Summary.FinalDecision != "未知" || result.Summary.ConfidenceLevel != "未知" {
		t.Errorf("degraded summary = %+v, want 未知 placeholders", result.Summary)
	}
}

func TestConductFullAnalysisGenerationOutage(t *testing.T) {
	fm := &fakeModel{fail: true}
	m := newTestManager(fm, allSources("数据内容充分"), nil)

	result := m.ConductFullAnalysis(context.Background(), "2024-08-19 09:00:00", "000001")

	if !result.AnalysisCompleted {
		t.Fatal("degraded runs still complete with fallback values")
	}
	if result.Summary.TotalSpeeches != 4 {
		t.Errorf("speeches = %d, want 4 fallback turns", result.Summary.TotalSpeeches)
	}
	if result.Decision.Confidence != decision.Low {
		t.Errorf("confidence = %q, want 低 after synthesis failure", result.Decision.Confidence)
	}
	if result.Decision.Action != decision.Hold {
		t.Errorf("action = %q, want 持有 after synthesis failure", result.Decision.Action)
	}
	if result.Decision.PriceTargets.ShortTerm != decision.Unknown {
		t.Errorf("short term = %q, want 未知", result.Decision.PriceTargets.ShortTerm)
	}
}
