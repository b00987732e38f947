package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mxchai/bullbear/internal/debate"
	"github.com/mxchai/bullbear/internal/decision"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	decisionStyle = lipgloss.NewStyle().
			Bold(true).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(1, 2).
			Width(80)

	speakerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F59E0B"))

	buyStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981"))
	sellStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
	holdStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6B7280"))

	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
)

func actionStyle(a decision.Action) lipgloss.Style {
	switch a {
	case decision.Buy:
		return buyStyle
	case decision.Sell:
		return sellStyle
	default:
		return holdStyle
	}
}

// RenderResult renders one full analysis run for the terminal.
func RenderResult(r *debate.AnalysisResult) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("📊 %s 投资分析", r.Symbol)))
	b.WriteString("\n\n")

	if !r.AnalysisCompleted {
		reason := r.Error
		if reason == "" {
			reason = "分析未完成"
		}
		b.WriteString(errorStyle.Render("❌ " + reason))
		b.WriteString("\n")
		return b.String()
	}

	var card strings.Builder
	fmt.Fprintf(&card, "投资决策: %s\n", actionStyle(r.Decision.Action).Render(string(r.Decision.Action)))
	fmt.Fprintf(&card, "信心水平: %s\n", r.Decision.Confidence)
	fmt.Fprintf(&card, "目标价格: 短期 %s | 中期 %s | 长期 %s\n",
		r.Decision.PriceTargets.ShortTerm,
		r.Decision.PriceTargets.MediumTerm,
		r.Decision.PriceTargets.LongTerm)
	fmt.Fprintf(&card, "辩论轮次: %d 轮 %d 次发言", r.Summary.DebateRounds, r.Summary.TotalSpeeches)
	b.WriteString(decisionStyle.Render(card.String()))
	b.WriteString("\n\n")

	if len(r.Debate.Records) > 0 {
		b.WriteString(titleStyle.Render("🗣️ 辩论记录"))
		b.WriteString("\n")
		for _, rec := range r.Debate.Records {
			header := fmt.Sprintf("第%d轮 第%d次 · %s · %s", rec.Round, rec.Turn, rec.Speaker.Chinese(), rec.Timestamp)
			b.WriteString(speakerStyle.Render(header))
			b.WriteString("\n")
			b.WriteString(rec.Text)
			b.WriteString("\n\n")
		}
	}

	b.WriteString(titleStyle.Render("📋 决策分析"))
	b.WriteString("\n")
	b.WriteString(r.Decision.Analysis)
	b.WriteString("\n")

	if len(r.Decision.WinningArguments) > 0 {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render("🏆 获胜论点"))
		b.WriteString("\n")
		for _, arg := range r.Decision.WinningArguments {
			fmt.Fprintf(&b, "- %s\n", arg)
		}
	}

	return b.String()
}

// RenderAvailability formats the per-source availability flags.
func RenderAvailability(bundle *debate.ContextBundle) string {
	order := []string{"price_market", "macro", "financials", "sina_news", "stock_analysis"}
	labels := map[string]string{
		"price_market":   "价格数据",
		"macro":          "宏观数据",
		"financials":     "财务数据",
		"sina_news":      "新闻数据",
		"stock_analysis": "个股数据",
	}

	var parts []string
	for _, source := range order {
		mark := "✗"
		if bundle.Availability[source] {
			mark = "✓"
		}
		parts = append(parts, fmt.Sprintf("%s %s", labels[source], mark))
	}
	return strings.Join(parts, " | ")
}
