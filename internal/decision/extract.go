package decision

import (
	"regexp"
	"strings"
)

// Action is the investment decision label.
type Action string

const (
	Buy  Action = "买入"
	Sell Action = "卖出"
	Hold Action = "持有"
)

// Confidence is the decision confidence tier.
type Confidence string

const (
	High   Confidence = "高"
	Medium Confidence = "中"
	Low    Confidence = "低"
)

// PriceTargets carries the extracted price strings per horizon. Pending
// marks a slot the text never filled; Unknown marks a failed synthesis.
type PriceTargets struct {
	ShortTerm  string `json:"short_term"`
	MediumTerm string `json:"medium_term"`
	LongTerm   string `json:"long_term"`
}

const (
	Pending = "待分析"
	Unknown = "未知"
)

// Extraction is heuristic by construction: every function below scans an
// explicit ordered pattern list with first-match-wins semantics, so the
// priority order is testable in isolation from any generation call.

// Buy-signal tokens are checked before sell before hold; text mentioning
// both 买入 and 持有 therefore resolves to 买入.
var actionTokens = []struct {
	tokens []string
	action Action
}{
	{[]string{"买入", "buy"}, Buy},
	{[]string{"卖出", "sell"}, Sell},
	{[]string{"持有", "hold"}, Hold},
}

// ExtractAction scans for decision tokens in fixed priority order,
// case-insensitively. Default is Hold.
func ExtractAction(analysis string) Action {
	lower := strings.ToLower(analysis)
	for _, group := range actionTokens {
		for _, token := range group.tokens {
			if strings.Contains(lower, token) {
				return group.action
			}
		}
	}
	return Hold
}

// Labeled confidence patterns, high before medium before low, each with an
// emoji-decorated markdown variant.
var confidencePatterns = []struct {
	re   *regexp.Regexp
	tier Confidence
}{
	{regexp.MustCompile(`信心水平[：:]\s*高`), High},
	{regexp.MustCompile(`🎯\s*\*\*信心水平\*\*[：:]\s*高`), High},
	{regexp.MustCompile(`信心水平[：:]\s*中等?`), Medium},
	{regexp.MustCompile(`🎯\s*\*\*信心水平\*\*[：:]\s*中等?`), Medium},
	{regexp.MustCompile(`信心水平[：:]\s*低`), Low},
	{regexp.MustCompile(`🎯\s*\*\*信心水平\*\*[：:]\s*低`), Low},
}

// Bare mentions, tried only when no labeled pattern matched.
var confidenceKeywords = []struct {
	keywords []string
	tier     Confidence
}{
	{[]string{"信心水平高", "信心高"}, High},
	{[]string{"信心水平中等", "信心中等", "信心水平中"}, Medium},
	{[]string{"信心水平低", "信心低"}, Low},
}

// ExtractConfidence returns the first matching confidence tier,
// defaulting to Medium.
func ExtractConfidence(analysis string) Confidence {
	for _, p := range confidencePatterns {
		if p.re.MatchString(analysis) {
			return p.tier
		}
	}
	for _, k := range confidenceKeywords {
		for _, kw := range k.keywords {
			if strings.Contains(analysis, kw) {
				return k.tier
			}
		}
	}
	return Medium
}

var (
	shortTermPatterns = []*regexp.Regexp{
		regexp.MustCompile(`短期.*?(\d+\.?\d*)元`),
		regexp.MustCompile(`1个月.*?(\d+\.?\d*)元`),
		regexp.MustCompile(`近期.*?(\d+\.?\d*)元`),
		regexp.MustCompile(`短期目标.*?(\d+\.?\d*)`),
		regexp.MustCompile(`1个月目标.*?(\d+\.?\d*)`),
	}
	mediumTermPatterns = []*regexp.Regexp{
		regexp.MustCompile(`中期.*?(\d+\.?\d*)元`),
		regexp.MustCompile(`3个月.*?(\d+\.?\d*)元`),
		regexp.MustCompile(`中期目标.*?(\d+\.?\d*)`),
		regexp.MustCompile(`3个月目标.*?(\d+\.?\d*)`),
	}
	longTermPatterns = []*regexp.Regexp{
		regexp.MustCompile(`长期.*?(\d+\.?\d*)元`),
		regexp.MustCompile(`6个月.*?(\d+\.?\d*)元`),
		regexp.MustCompile(`长期目标.*?(\d+\.?\d*)`),
		regexp.MustCompile(`6个月目标.*?(\d+\.?\d*)`),
	}
	genericPricePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d+\.?\d*)元`),
		regexp.MustCompile(`(\d+\.?\d*)块`),
		regexp.MustCompile(`价格.*?(\d+\.?\d*)`),
		regexp.MustCompile(`目标.*?(\d+\.?\d*)`),
	}
)

// ExtractPriceTargets extracts per-horizon price targets. Each horizon has
// its own ordered pattern list. When no horizon-specific phrasing matched
// at all, the first three generic currency-amount mentions are assigned
// positionally to short, medium, long; slots still unfilled stay Pending.
func ExtractPriceTargets(analysis string) PriceTargets {
	targets := PriceTargets{ShortTerm: Pending, MediumTerm: Pending, LongTerm: Pending}
	if analysis == "" {
		return targets
	}

	targets.ShortTerm = matchHorizon(analysis, shortTermPatterns)
	targets.MediumTerm = matchHorizon(analysis, mediumTermPatterns)
	targets.LongTerm = matchHorizon(analysis, longTermPatterns)

	if targets.ShortTerm != Pending || targets.MediumTerm != Pending || targets.LongTerm != Pending {
		return targets
	}

	prices := genericPrices(analysis)
	if len(prices) >= 1 {
		targets.ShortTerm = prices[0] + "元"
	}
	if len(prices) >= 2 {
		targets.MediumTerm = prices[1] + "元"
	}
	if len(prices) >= 3 {
		targets.LongTerm = prices[2] + "元"
	}
	return targets
}

func matchHorizon(analysis string, patterns []*regexp.Regexp) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(analysis); m != nil {
			return m[1] + "元"
		}
	}
	return Pending
}

// genericPrices collects every generic currency-amount mention,
// deduplicated preserving first-appearance order so positional assignment
// is deterministic.
func genericPrices(analysis string) []string {
	var prices []string
	seen := make(map[string]bool)
	for _, re := range genericPricePatterns {
		for _, m := range re.FindAllStringSubmatch(analysis, -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				prices = append(prices, m[1])
			}
		}
	}
	return prices
}

// KeyPoints filters a transcript down to its substantial lines (over 20
// runes), capped at 3.
func KeyPoints(history string) []string {
	if history == "" {
		return nil
	}

	var points []string
	for _, line := range strings.Split(history, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && len([]rune(line)) > 20 {
			points = append(points, line)
			if len(points) == 3 {
				break
			}
		}
	}
	return points
}

var salienceKeywords = []string{"关键", "重要", "主要"}

// WinningArguments picks the lines the synthesis flagged as salient,
// capped at 3.
func WinningArguments(analysis string) []string {
	if analysis == "" {
		return nil
	}

	var arguments []string
	for _, line := range strings.Split(analysis, "\n") {
		for _, kw := range salienceKeywords {
			if strings.Contains(line, kw) {
				arguments = append(arguments, strings.TrimSpace(line))
				break
			}
		}
		if len(arguments) == 3 {
			break
		}
	}
	return arguments
}
