package decision

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/mxchai/bullbear/internal/llm"
	"github.com/mxchai/bullbear/internal/market"
)

// Decision is the structured outcome of one debate run. Every field always
// carries at least a default; the synthesizer never produces a partially
// populated record.
type Decision struct {
	Action           Action       `json:"action"`
	Confidence       Confidence   `json:"confidence"`
	PriceTargets     PriceTargets `json:"price_targets"`
	Analysis         string       `json:"analysis"`
	BullKeyPoints    []string     `json:"bull_key_points"`
	BearKeyPoints    []string     `json:"bear_key_points"`
	WinningArguments []string     `json:"winning_arguments"`
}

// TranscriptViews carries the three transcript renderings the synthesis
// prompt embeds.
type TranscriptViews struct {
	Combined string
	Bull     string
	Bear     string
}

// Synthesizer reduces a completed debate into a Decision with a single
// portfolio-manager generation call.
type Synthesizer struct {
	client *llm.Client
	now    func() time.Time
}

func NewSynthesizer(client *llm.Client) *Synthesizer {
	return &Synthesizer{client: client, now: time.Now}
}

// Decide builds the synthesis prompt from the bundle sections and the
// transcript views, issues one generation call, and extracts the
// structured fields. Generation failure degrades to a Hold/Low decision
// with the failure reason in Analysis; it never returns an error.
func (s *Synthesizer) Decide(ctx context.Context, symbol, triggerTime string, sections map[string]string, views TranscriptViews) *Decision {
	messages := []*schema.Message{
		schema.SystemMessage("你是一位资深的投资组合经理,专长于投资决策和风险管理。请基于辩论结果生成专业的投资决策报告。"),
		schema.UserMessage(s.buildPrompt(symbol, triggerTime, sections, views)),
	}

	analysis, err := s.client.Generate(ctx, messages, llm.GenerateOptions{
		Temperature: 0.3,
		MaxTokens:   3000,
	})
	if err != nil {
		log.Printf("[decision] synthesis for %s failed: %v", symbol, err)
		return &Decision{
			Action:       Hold,
			Confidence:   Low,
			PriceTargets: PriceTargets{ShortTerm: Unknown, MediumTerm: Unknown, LongTerm: Unknown},
			Analysis:     fmt.Sprintf("决策分析失败: %v", err),
		}
	}

	return &Decision{
		Action:           ExtractAction(analysis),
		Confidence:       ExtractConfidence(analysis),
		PriceTargets:     ExtractPriceTargets(analysis),
		Analysis:         analysis,
		BullKeyPoints:    KeyPoints(views.Bull),
		BearKeyPoints:    KeyPoints(views.Bear),
		WinningArguments: WinningArguments(analysis),
	}
}

func section(sections map[string]string, name string) string {
	if s := sections[name]; s != "" {
		return s
	}
	return "无数据"
}

func (s *Synthesizer) buildPrompt(symbol, triggerTime string, sections map[string]string, views TranscriptViews) string {
	tradeDate, err := market.ReportDate(triggerTime)
	if err != nil {
		tradeDate = triggerTime
	}

	return fmt.Sprintf(`作为投资组合经理和辩论主持人,您的职责是批判性地评估这轮辩论并做出明确决策:支持看跌分析师、看涨分析师,或者仅在基于所提出论点有强有力理由时选择持有。

简洁地总结双方的关键观点,重点关注最有说服力的证据或推理。您的建议——买入、卖出或持有——必须明确且可操作。避免仅仅因为双方都有有效观点就默认选择持有;要基于辩论中最强有力的论点做出承诺。

此外,为交易员制定详细的投资计划。这应该包括:

您的建议:基于最有说服力论点的明确立场。
理由:解释为什么这些论点导致您的结论。
战略行动:实施建议的具体步骤。

📊 目标价格分析:基于所有可用报告,提供全面的目标价格区间和具体价格目标。考虑:
- 当前价格基准:首先确认股票的最新收盘价格作为分析基准
- 大盘行情及财经新闻对整体市场的影响
- 个股分析数据中的估值(选择TTM估值)
- 个股财报数据对价格预期的影响
- 风险调整价格情景(保守、基准、乐观)
- 价格目标的时间范围(1个月、3个月、6个月)

💰 **目标价格要求**:
1. 必须提供具体的目标价格 - 不要回复"无法确定"或"需要更多信息"
2. **真实价格基准**:必须从个股分析数据中提取真实的"最新收盘价"作为分析基准,不得假设或估算
3. 价格合理性检查:确保目标价格基于真实当前价格合理推算
4. 时间对应:短期(1个月)目标应接近当前价格,中长期目标体现合理增长预期
5. **禁止假设**:严禁使用"假设为XX元"等表述,必须使用数据中的真实价格

以对话方式呈现您的分析,就像自然说话一样,不使用特殊格式。

## 股票信息
- 股票代码:%s
- 分析时间:%s
- 当前日期:%s
- 交易日:%s

## 综合分析报告

### 市场研究(价格市场数据)
%s

### 宏观分析(宏观经济数据)
%s

### 新闻分析
%s

### 基本面分析(财务数据)
%s

### 个股分析数据
%s

## 辩论历史

### 完整辩论记录
%s

### 看涨方观点汇总
%s

### 看跌方观点汇总
%s

## 决策要求

请基于以上信息做出最终投资决策,包括:

1. **投资决策**:明确选择买入、卖出或持有
2. **决策理由**:基于辩论中最强有力的论点
3. **目标价格**:提供具体的价格目标(短期、中期、长期)
4. **风险提示**:识别主要风险和应对策略
5. **实施计划**:具体的操作建议和时间安排
6. **信心水平**:对决策的信心程度(高/中/低)

请用中文撰写所有分析内容和建议。`,
		symbol, triggerTime, s.now().Format(market.ReportDateLayout), tradeDate,
		section(sections, "price_market"),
		section(sections, "macro"),
		section(sections, "sina_news"),
		section(sections, "financials"),
		section(sections, "stock_analysis"),
		views.Combined, views.Bull, views.Bear)
}
