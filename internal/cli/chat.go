package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/cloudwego/eino/schema"

	"github.com/mxchai/bullbear/config"
	"github.com/mxchai/bullbear/internal/dataflows"
	"github.com/mxchai/bullbear/internal/llm"
	"github.com/mxchai/bullbear/internal/market"
)

const (
	menuAnalyze = "个股投资分析 (多空辩论 + 决策)"
	menuMarket  = "大盘综合分析"
	menuChat    = "自由问答"
	menuConfig  = "查看配置"
	menuExit    = "退出"
)

// runChat drives the interactive shell: a menu loop over the analysis
// pipeline and a free-form Q&A mode sharing the same client.
func runChat(ctx context.Context, cfg *config.Config) error {
	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	fmt.Println(titleStyle.Render("🐂🐻 BullBear 交互式分析"))
	fmt.Println("多空双方两轮四次发言辩论,由投资组合经理做出最终决策。")
	fmt.Println()

	var history []*schema.Message
	for {
		var choice string
		prompt := &survey.Select{
			Message: "请选择操作:",
			Options: []string{menuAnalyze, menuMarket, menuChat, menuConfig, menuExit},
		}
		if err := survey.AskOne(prompt, &choice); err != nil {
			if errors.Is(err, terminal.InterruptErr) {
				return nil
			}
			return err
		}

		switch choice {
		case menuAnalyze:
			if err := chatAnalyze(ctx, app); err != nil {
				if errors.Is(err, terminal.InterruptErr) {
					continue
				}
				fmt.Println(errorStyle.Render("❌ " + err.Error()))
			}
		case menuMarket:
			if err := chatMarketOverview(ctx, app); err != nil {
				if errors.Is(err, terminal.InterruptErr) {
					continue
				}
				fmt.Println(errorStyle.Render("❌ " + err.Error()))
			}
		case menuChat:
			if err := chatFreeForm(ctx, app.Client, &history); err != nil {
				if errors.Is(err, terminal.InterruptErr) {
					continue
				}
				fmt.Println(errorStyle.Render("❌ " + err.Error()))
			}
		case menuConfig:
			showConfig(app.Config)
		case menuExit:
			fmt.Println("👋 感谢使用 BullBear!")
			return nil
		}
	}
}

func chatAnalyze(ctx context.Context, app *App) error {
	symbol, err := promptForSymbol()
	if err != nil {
		return err
	}
	triggerTime, err := promptForTriggerTime()
	if err != nil {
		return err
	}

	fmt.Printf("🚀 开始分析 %s,这可能需要几分钟...\n", symbol)
	result := app.Manager.ConductFullAnalysis(ctx, triggerTime, symbol)

	fmt.Println(RenderAvailability(result.Debate.Bundle))
	fmt.Println(RenderResult(result))
	return nil
}

func chatMarketOverview(ctx context.Context, app *App) error {
	triggerTime, err := promptForTriggerTime()
	if err != nil {
		return err
	}

	fmt.Println("🚀 开始大盘综合分析,这可能需要几分钟...")
	report, err := app.Overview.MarketOverview(ctx, triggerTime)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(titleStyle.Render("📊 大盘综合分析报告"))
	fmt.Println()
	fmt.Println(report)
	fmt.Println()
	return nil
}

func promptForSymbol() (string, error) {
	var symbol string
	prompt := &survey.Input{
		Message: "请输入A股股票代码 (如 000001, 600519):",
		Help:    "6位数字代码;沪市以6开头,深市以0或3开头",
	}

	err := survey.AskOne(prompt, &symbol, survey.WithValidator(func(val interface{}) error {
		return dataflows.ValidateSymbol(strings.TrimSpace(val.(string)))
	}))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(symbol), nil
}

func promptForTriggerTime() (string, error) {
	var triggerTime string
	prompt := &survey.Input{
		Message: "请输入触发时间 (YYYY-MM-DD HH:MM:SS),回车使用当前时间:",
		Default: time.Now().Format(market.TriggerTimeLayout),
	}

	err := survey.AskOne(prompt, &triggerTime, survey.WithValidator(func(val interface{}) error {
		str := strings.TrimSpace(val.(string))
		if str == "" {
			return nil
		}
		if _, err := time.Parse(market.TriggerTimeLayout, str); err != nil {
			return fmt.Errorf("时间格式应为 YYYY-MM-DD HH:MM:SS")
		}
		return nil
	}))
	if err != nil {
		return "", err
	}

	triggerTime = strings.TrimSpace(triggerTime)
	if triggerTime == "" {
		triggerTime = time.Now().Format(market.TriggerTimeLayout)
	}
	return triggerTime, nil
}

func chatFreeForm(ctx context.Context, client *llm.Client, history *[]*schema.Message) error {
	var question string
	prompt := &survey.Input{Message: "请输入问题 (空行返回菜单):"}
	if err := survey.AskOne(prompt, &question); err != nil {
		return err
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil
	}

	messages := []*schema.Message{
		schema.SystemMessage("你是专业的股票分析师,请用中文客观、专业地回答用户的问题。"),
	}
	messages = append(messages, *history...)
	messages = append(messages, schema.UserMessage(question))

	reply, err := client.Generate(ctx, messages, llm.GenerateOptions{
		Temperature: 0.7,
		MaxTokens:   2000,
	})
	if err != nil {
		return fmt.Errorf("生成回答失败: %w", err)
	}

	*history = append(*history, schema.UserMessage(question), schema.AssistantMessage(reply, nil))
	fmt.Println()
	fmt.Println(reply)
	fmt.Println()
	return nil
}
