package debate

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/mxchai/bullbear/internal/llm"
)

// Persona is one of the two fixed debate roles.
type Persona string

const (
	Bull Persona = "bull"
	Bear Persona = "bear"
)

// Prefix is the speaker tag every recorded utterance carries.
func (p Persona) Prefix() string {
	if p == Bull {
		return "Bull Analyst: "
	}
	return "Bear Analyst: "
}

// Chinese returns the persona's display name.
func (p Persona) Chinese() string {
	if p == Bull {
		return "看涨分析师"
	}
	return "看跌分析师"
}

// Opponent returns the other persona.
func (p Persona) Opponent() Persona {
	if p == Bull {
		return Bear
	}
	return Bull
}

// Analyst produces one piece of generated text per invocation for a fixed
// persona. It holds no debate state; everything it needs arrives as
// arguments.
type Analyst struct {
	persona Persona
	client  *llm.Client
}

func NewAnalyst(persona Persona, client *llm.Client) *Analyst {
	return &Analyst{persona: persona, client: client}
}

func (a *Analyst) Persona() Persona { return a.persona }

// InitialStatement seeds the persona's base position from the full bundle.
// Generation failure degrades to a fixed marker instead of an error so the
// debate can still run its four turns.
func (a *Analyst) InitialStatement(ctx context.Context, bundle *ContextBundle) string {
	messages := []*schema.Message{
		schema.SystemMessage(a.initialSystemPrompt()),
		schema.UserMessage(a.initialUserPrompt(bundle)),
	}

	content, err := a.client.Generate(ctx, messages, llm.GenerateOptions{
		Temperature: 0.3,
		MaxTokens:   2000,
	})
	if err != nil {
		log.Printf("[%s] initial statement for %s failed: %v", a.persona, bundle.Symbol, err)
		return fmt.Sprintf("%s %s分析生成失败", bundle.Symbol, a.stanceWord())
	}
	return content
}

// TurnStatement produces one debate turn from the persona's base position
// and the live transcript. The opposing side's latest utterance is quoted
// as the rebuttal target when it exists. The returned text always carries
// the speaker prefix; on exhausted retries it is the fixed fallback turn.
func (a *Analyst) TurnStatement(ctx context.Context, base string, state *State, symbol string) string {
	messages := []*schema.Message{
		schema.SystemMessage(a.turnSystemPrompt()),
		schema.UserMessage(a.turnUserPrompt(base, state, symbol)),
	}

	content, err := a.client.Generate(ctx, messages, llm.GenerateOptions{
		Temperature: 0.3,
		MaxTokens:   800,
	})
	if err != nil {
		log.Printf("[%s] turn statement for %s failed: %v", a.persona, symbol, err)
		return a.persona.Prefix() + "发言生成失败"
	}
	return a.persona.Prefix() + content
}

func (a *Analyst) stanceWord() string {
	if a.persona == Bull {
		return "看涨"
	}
	return "看跌"
}

func (a *Analyst) initialSystemPrompt() string {
	return fmt.Sprintf("你是一位资深的%s,专长于%s。请基于实际数据生成专业的%s分析报告。",
		a.persona.Chinese(), a.focusSkill(), a.stanceWord())
}

func (a *Analyst) focusSkill() string {
	if a.persona == Bull {
		return "成长性分析和投资机会挖掘"
	}
	return "风险识别和投资风险分析"
}

func (a *Analyst) initialUserPrompt(bundle *ContextBundle) string {
	goal := "提出合理的论证,强调增长潜力、竞争优势和积极指标。利用提供的研究和数据来突出投资机会并有效反驳看跌论点"
	emphases := `### 1. 增长潜力分析
- 突出公司的市场机会、收入预测和可扩展性
### 2. 竞争优势评估
- 强调护城河、产品优势和市场地位
### 3. 积极指标解读
- 使用财务健康状况、行业趋势和最新利好消息作为证据
### 4. 市场环境有利因素
- 分析宏观环境和资金面对该股票的支撑
### 5. 投资机会提示
- 给出当前时点的布局建议`
	if a.persona == Bear {
		goal = "提出合理的论证,强调风险、挑战和负面指标。利用提供的研究和数据来突出潜在的不利因素并有效反驳看涨论点"
		emphases = `### 1. 风险和挑战识别
- 突出市场饱和、财务不稳定或宏观经济威胁等可能阻碍股票表现的因素
### 2. 竞争劣势分析
- 强调市场地位较弱、创新下降或来自竞争对手威胁等脆弱性
### 3. 负面指标解读
- 使用财务数据、市场趋势或最近不利消息的证据来支持你的立场
### 4. 市场环境不利因素
- 分析宏观经济环境对公司业务的负面影响
### 5. 投资风险提示
- 强调当前时点的投资风险并提供具体的风险规避建议`
	}

	return fmt.Sprintf(`你是一位专业的%s,负责论证%s股票 %s 的理由。

⚠️ 重要提醒:当前分析的是中国A股,所有价格和估值请使用人民币(¥)作为单位。

你的目标是%s。

请用中文回答,重点关注以下几个方面:

## 分析重点

%s

## 可用数据资源

%s

## 输出要求

请基于以上数据源的信息,生成一份专业的%s分析报告,要求:

1. **结构清晰**:按照上述5个分析重点组织内容
2. **数据支撑**:每个观点都要有具体的数据和事实支撑
3. **逻辑严密**:论证过程要逻辑清晰,结论要有说服力
4. **客观专业**:保持专业分析师的客观立场
5. **字数控制**:控制在2000字符以内,重点突出

请确保所有回答都使用中文,并基于实际数据进行分析。`,
		a.persona.Chinese(), a.investVerb(), bundle.Symbol, goal, emphases,
		bundle.PromptSections(), a.stanceWord())
}

func (a *Analyst) investVerb() string {
	if a.persona == Bull {
		return "投资"
	}
	return "不投资"
}

func (a *Analyst) turnSystemPrompt() string {
	return fmt.Sprintf("你是一位资深的%s,正在进行投资辩论。请基于你的分析结果生成专业的%s论点。",
		a.persona.Chinese(), a.stanceWord())
}

func (a *Analyst) turnUserPrompt(base string, state *State, symbol string) string {
	// Only the opponent's latest utterance is a rebuttal target; our own
	// last turn is not.
	opponentLatest := "暂无"
	if strings.HasPrefix(state.LastUtterance, a.persona.Opponent().Prefix()) {
		opponentLatest = state.LastUtterance
	}

	history := state.Transcript
	if strings.TrimSpace(history) == "" {
		history = "暂无"
	}

	focus := "机会导向:重点关注投资机会和积极因素"
	if a.persona == Bear {
		focus = "风险导向:重点关注投资风险和负面因素"
	}

	opponentSide := "看跌方"
	if a.persona == Bear {
		opponentSide = "看涨方"
	}

	return fmt.Sprintf(`你是一位专业的%s,正在进行投资辩论。

⚠️ 重要提醒:当前分析的是中国A股,所有价格和估值请使用人民币(¥)作为单位。

🎯 **核心信息**:
- **当前分析的股票代码:%s**
- **请务必在发言中明确提及股票代码 %s**
- 当前轮次:第 %d 轮
- 发言次数:第 %d 次

## 你的基础分析
%s

## 辩论历史
%s

## %s最新观点
%s

## 发言要求

请基于你的基础分析进行专业辩论发言,要求:

1. **股票代码明确**:**必须在发言开头明确提及股票代码 %s**
2. **基于分析**:基于上述你的基础分析结果进行发言
3. **针对性强**:如果这是回应发言,要直接回应%s的观点
4. **逻辑严密**:论证过程要逻辑清晰,结论要有说服力
5. **%s**
6. **对话风格**:以自然对话的方式呈现,不要使用特殊格式
7. **字数控制**:控制在800字符以内

⚠️ **重要提醒**:请确保使用中文,基于你的分析结果进行辩论,并且始终围绕股票代码 %s 进行讨论。`,
		a.persona.Chinese(), symbol, symbol, state.SpeechCount/2+1, state.SpeechCount+1,
		base, history, opponentSide, opponentLatest,
		symbol, opponentSide, focus, symbol)
}
