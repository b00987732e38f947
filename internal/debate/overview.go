package debate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/mxchai/bullbear/internal/dataflows"
	"github.com/mxchai/bullbear/internal/llm"
)

// Overviewer produces a single-shot market-wide analysis without a symbol,
// built only from the market-wide sources.
type Overviewer struct {
	client    *llm.Client
	providers []dataflows.Provider
}

func NewOverviewer(client *llm.Client, providers []dataflows.Provider) *Overviewer {
	return &Overviewer{client: client, providers: providers}
}

// MarketOverview aggregates the market-wide sources for the trigger time
// and reduces them into one analysis report. Per-symbol sources are
// skipped entirely.
func (o *Overviewer) MarketOverview(ctx context.Context, triggerTime string) (string, error) {
	var marketWide []dataflows.Provider
	for _, p := range o.providers {
		if !p.PerSymbol() {
			marketWide = append(marketWide, p)
		}
	}
	if len(marketWide) == 0 {
		return "", errors.New("没有可用的大盘数据源")
	}

	bundle := Aggregate(ctx, marketWide, triggerTime, "")
	if bundle.Unavailable() {
		return "", errors.New("所有数据源均无可用数据")
	}

	var sections []string
	for _, p := range marketWide {
		if bundle.Availability[p.Name()] {
			label := sourceLabels[p.Name()]
			sections = append(sections, fmt.Sprintf("### %s\n%s", label, bundle.Sections[p.Name()]))
		}
	}

	messages := []*schema.Message{
		schema.SystemMessage("你是一位资深的量化投资分析师和金融市场专家,具备丰富的市场分析经验。请基于多维度数据生成专业、客观、全面的市场分析报告。"),
		schema.UserMessage(overviewPrompt(bundle.TradeDate, strings.Join(sections, "\n\n"))),
	}

	report, err := o.client.Generate(ctx, messages, llm.GenerateOptions{
		Temperature: 0.3,
		MaxTokens:   3000,
	})
	if err != nil {
		log.Printf("[overview] generation failed: %v", err)
		return "", fmt.Errorf("市场分析生成失败: %w", err)
	}
	return report, nil
}

func overviewPrompt(tradeDate, analysisText string) string {
	return fmt.Sprintf(`请基于以下%s的A股市场综合数据,生成一份专业的市场分析报告(3000字符以内):

%s

## 综合分析要求

请从以下维度进行综合分析:

### 1. 宏观经济环境分析
- 分析GDP、CPI、PPI等核心经济指标
- 评估社会融资情况和制造业景气度
- 判断宏观经济对股市的影响

### 2. 市场技术面分析
- 三大指数表现和技术面分析
- 市场整体走势和趋势判断
- 成交量和资金面情况

### 3. 新闻资讯影响分析
- 分析重要新闻对市场的影响
- 识别政策面、基本面变化
- 评估新闻对投资者情绪的影响

## 输出要求
- 基于宏观经济数据与市场动态,判断当前 A 股处于牛市(慢牛 / 快牛)、熊市(慢熊 / 快熊)还是震荡市;
- 挖掘当前最具关注价值的 3-5 个板块,并列出各板块核心龙头公司;
- 结合行情与板块特征,识别潜在投资风险点,给出简要建议(仅供参考);
- 保持客观、专业、理性,使用中文输出。`, tradeDate, analysisText)
}
