package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mxchai/bullbear/config"
	"github.com/mxchai/bullbear/internal/dataflows"
	"github.com/mxchai/bullbear/internal/debug"
	"github.com/mxchai/bullbear/internal/market"
)

const version = "1.0.0"

// Run starts the CLI application.
func Run() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cfg := config.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "bullbear",
		Short: "BullBear - A股多空辩论分析引擎",
		Long: `BullBear drives a structured bull-vs-bear debate over live A-share market
data and reduces the transcript into an actionable investment decision.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("failed to create directories: %w", err)
			}
			debugger := debug.NewEinoDebugger(cfg)
			if err := debugger.Initialize(); err != nil {
				return err
			}
			if debugger.IsEnabled() {
				fmt.Printf("🔧 Eino debug server: %s\n", debugger.DebugURL())
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), cfg)
		},
	}

	rootCmd.AddCommand(newAnalyzeCmd(cfg))
	rootCmd.AddCommand(newOverviewCmd(cfg))
	rootCmd.AddCommand(newChatCmd(cfg))
	rootCmd.AddCommand(newConfigCmd(cfg))
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable debug mode")

	return rootCmd
}

func newAnalyzeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [SYMBOL]",
		Short: "Run a full bull/bear debate analysis for one A-share symbol",
		Long: `Run the full pipeline for one symbol: aggregate the five data sources,
conduct the two-round debate and synthesize the investment decision.
Example: bullbear analyze 000001 --time="2024-08-19 09:00:00"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := args[0]
			triggerTime, _ := cmd.Flags().GetString("time")
			return runAnalyze(cmd.Context(), cfg, symbol, triggerTime)
		},
	}

	cmd.Flags().String("time", "", `Trigger time "YYYY-MM-DD HH:MM:SS" (now if not provided)`)
	return cmd
}

func runAnalyze(ctx context.Context, cfg *config.Config, symbol, triggerTime string) error {
	if err := dataflows.ValidateSymbol(symbol); err != nil {
		return err
	}
	if triggerTime == "" {
		triggerTime = time.Now().Format(market.TriggerTimeLayout)
	} else if _, err := market.ParseTriggerTime(triggerTime); err != nil {
		return fmt.Errorf("invalid trigger time, use \"YYYY-MM-DD HH:MM:SS\": %w", err)
	}

	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	fmt.Printf("🚀 开始分析 %s (触发时间 %s)\n", symbol, triggerTime)
	result := app.Manager.ConductFullAnalysis(ctx, triggerTime, symbol)

	fmt.Println(RenderAvailability(result.Debate.Bundle))
	fmt.Println(RenderResult(result))
	return nil
}

func newOverviewCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Run a market-wide analysis without a symbol",
		Long: `Aggregate the market-wide data sources (index candles, macro indicators,
news) and generate one comprehensive market report.
Example: bullbear overview --time="2024-08-19 09:00:00"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			triggerTime, _ := cmd.Flags().GetString("time")
			return runOverview(cmd.Context(), cfg, triggerTime)
		},
	}

	cmd.Flags().String("time", "", `Trigger time "YYYY-MM-DD HH:MM:SS" (now if not provided)`)
	return cmd
}

func runOverview(ctx context.Context, cfg *config.Config, triggerTime string) error {
	if triggerTime == "" {
		triggerTime = time.Now().Format(market.TriggerTimeLayout)
	} else if _, err := market.ParseTriggerTime(triggerTime); err != nil {
		return fmt.Errorf("invalid trigger time, use \"YYYY-MM-DD HH:MM:SS\": %w", err)
	}

	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	fmt.Printf("🚀 开始大盘综合分析 (触发时间 %s)\n", triggerTime)
	report, err := app.Overview.MarketOverview(ctx, triggerTime)
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render("📊 大盘综合分析报告"))
	fmt.Println()
	fmt.Println(report)
	return nil
}

func newChatCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start the interactive analysis shell",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), cfg)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("BullBear v%s\n", version)
			fmt.Println("A股多空辩论分析引擎")
		},
	}
}

func newConfigCmd(cfg *config.Config) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Run: func(cmd *cobra.Command, args []string) {
			showConfig(cfg)
		},
	})

	return configCmd
}

func showConfig(cfg *config.Config) {
	fmt.Println("📋 Current BullBear Configuration:")
	fmt.Println("═══════════════════════════════════")
	fmt.Printf("Project Directory:  %s\n", cfg.ProjectDir)
	fmt.Printf("Results Directory:  %s\n", cfg.ResultsDir)
	fmt.Printf("Cache Directory:    %s\n", cfg.DataCacheDir)
	fmt.Println()
	fmt.Printf("LLM Provider:       %s\n", cfg.LLMProvider)
	fmt.Printf("LLM Model:          %s\n", cfg.LLMModel)
	fmt.Printf("Backend URL:        %s\n", cfg.BackendURL)
	fmt.Printf("Max Retries:        %d\n", cfg.LLMMaxRetries)
	fmt.Printf("Retry Delay:        %s\n", cfg.LLMRetryDelay)
	fmt.Printf("Request Timeout:    %s\n", cfg.LLMTimeout)
	fmt.Println()
	fmt.Printf("News Pages:         %d-%d\n", cfg.NewsStartPage, cfg.NewsEndPage)
	fmt.Printf("Cache Enabled:      %t\n", cfg.CacheEnabled)
	fmt.Printf("Debug Mode:         %t\n", cfg.Debug)
	if cfg.EinoDebugEnabled {
		fmt.Printf("Eino Debug URL:     http://localhost:%d\n", cfg.EinoDebugPort)
	}
	fmt.Println()

	fmt.Println("🔌 API Configuration:")
	fmt.Println("─────────────────────")
	if cfg.APIKey() != "" {
		fmt.Printf("%s API:       ✅ Configured\n", cfg.LLMProvider)
	} else {
		fmt.Printf("%s API:       ❌ Not configured\n", cfg.LLMProvider)
	}
	if cfg.LongportAppKey != "" {
		fmt.Println("Longport API:       ✅ Configured")
	} else {
		fmt.Println("Longport API:       ❌ Not configured")
	}
}
