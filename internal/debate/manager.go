package debate

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/mxchai/bullbear/internal/dataflows"
	"github.com/mxchai/bullbear/internal/decision"
	"github.com/mxchai/bullbear/internal/storage"
)

// Summary is the condensed run outcome surfaced to callers and reports.
type Summary struct {
	TotalSpeeches   int    `json:"total_speeches"`
	DebateRounds    int    `json:"debate_rounds"`
	FinalDecision   string `json:"final_decision"`
	ConfidenceLevel string `json:"confidence_level"`
}

// AnalysisResult is the full outcome of one debate-plus-decision run.
// Degraded runs still produce a structurally complete result; only the
// flags differ.
type AnalysisResult struct {
	Symbol            string             `json:"symbol"`
	TriggerTime       string             `json:"trigger_time"`
	AnalysisCompleted bool               `json:"analysis_completed"`
	NoData            bool               `json:"no_data"`
	Debate            *Result            `json:"debate"`
	Decision          *decision.Decision `json:"decision,omitempty"`
	Summary           Summary            `json:"summary"`
	Error             string             `json:"error,omitempty"`
}

// Manager is the orchestration entry point: debate, then synthesis, then
// persistence.
type Manager struct {
	recorder    *Recorder
	synthesizer *decision.Synthesizer
	store       *storage.ResultStore
}

func NewManager(recorder *Recorder, synthesizer *decision.Synthesizer, store *storage.ResultStore) *Manager {
	return &Manager{recorder: recorder, synthesizer: synthesizer, store: store}
}

// ConductFullAnalysis runs the whole pipeline for one trigger. It never
// returns an error for degraded runs; the result flags carry the outcome.
func (m *Manager) ConductFullAnalysis(ctx context.Context, triggerTime, symbol string) *AnalysisResult {
	log.Printf("[manager] full analysis: %s at %s", symbol, triggerTime)

	debateResult := m.recorder.ConductDebate(ctx, triggerTime, symbol)
	result := &AnalysisResult{
		Symbol:      symbol,
		TriggerTime: triggerTime,
		Debate:      debateResult,
		Summary: Summary{
			FinalDecision:   "未知",
			ConfidenceLevel: "未知",
		},
	}

	if !debateResult.Completed {
		result.NoData = debateResult.Bundle.Unavailable()
		result.Error = debateResult.Error
		log.Printf("[manager] debate incomplete for %s: %s", symbol, debateResult.Error)
		m.persist(result)
		return result
	}

	dec := m.synthesizer.Decide(ctx, symbol, triggerTime, debateResult.Bundle.Sections, decision.TranscriptViews{
		Combined: debateResult.State.Transcript,
		Bull:     debateResult.State.BullTranscript,
		Bear:     debateResult.State.BearTranscript,
	})

	result.AnalysisCompleted = true
	result.Decision = dec
	result.Summary = Summary{
		TotalSpeeches:   debateResult.TotalSpeeches,
		DebateRounds:    debateResult.State.Round,
		FinalDecision:   string(dec.Action),
		ConfidenceLevel: string(dec.Confidence),
	}

	log.Printf("[manager] analysis complete: %s -> %s (信心: %s)", symbol, dec.Action, dec.Confidence)
	m.persist(result)
	return result
}

func (m *Manager) persist(result *AnalysisResult) {
	if m.store == nil {
		return
	}
	timeKey := dataflows.TimeKey(result.TriggerTime)
	if err := m.store.Save(result.Symbol, timeKey, result, renderReport(result)); err != nil {
		log.Printf("[manager] persist %s/%s: %v", result.Symbol, timeKey, err)
	}
}

func renderReport(r *AnalysisResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s 投资分析报告\n\n", r.Symbol)
	fmt.Fprintf(&b, "- 分析时间: %s\n", r.TriggerTime)
	fmt.Fprintf(&b, "- 交易日: %s\n", r.Debate.TradeDate)

	if !r.AnalysisCompleted {
		fmt.Fprintf(&b, "- 分析状态: 未完成\n\n%s\n", r.Error)
		return b.String()
	}

	fmt.Fprintf(&b, "- 投资决策: %s\n", r.Decision.Action)
	fmt.Fprintf(&b, "- 信心水平: %s\n", r.Decision.Confidence)
	fmt.Fprintf(&b, "- 目标价格: 短期 %s / 中期 %s / 长期 %s\n\n",
		r.Decision.PriceTargets.ShortTerm,
		r.Decision.PriceTargets.MediumTerm,
		r.Decision.PriceTargets.LongTerm)

	b.WriteString("## 决策分析\n\n")
	b.WriteString(r.Decision.Analysis)
	b.WriteString("\n\n## 辩论记录\n\n")
	for _, rec := range r.Debate.Records {
		fmt.Fprintf(&b, "### 第%d轮 第%d次 (%s, %s)\n\n%s\n\n",
			rec.Round, rec.Turn, rec.Speaker.Chinese(), rec.Timestamp, rec.Text)
	}
	return b.String()
}
