package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/mxchai/bullbear/config"
)

// NewChatModel builds the chat model backend selected by the configuration.
func NewChatModel(ctx context.Context, cfg *config.Config) (model.BaseChatModel, error) {
	switch cfg.LLMProvider {
	case "deepseek":
		conf := &deepseek.ChatModelConfig{
			APIKey:    cfg.DeepSeekAPIKey,
			Model:     cfg.LLMModel,
			MaxTokens: 4096,
		}
		if cfg.BackendURL != "" {
			conf.BaseURL = cfg.BackendURL
		}
		return deepseek.NewChatModel(ctx, conf)
	case "openai", "":
		maxTokens := 4096
		conf := &openai.ChatModelConfig{
			APIKey:    cfg.OpenAIAPIKey,
			Model:     cfg.LLMModel,
			MaxTokens: &maxTokens,
		}
		if cfg.BackendURL != "" {
			conf.BaseURL = cfg.BackendURL
		}
		return openai.NewChatModel(ctx, conf)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}
}
