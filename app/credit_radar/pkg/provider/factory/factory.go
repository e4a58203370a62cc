package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/config"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/ollama"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/provider"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/provider/chatmodel"
)

// NewProvider 根据配置创建推理服务，并套上限流与超时。
// 调用前应先执行 cfg.Validate()。
func NewProvider(ctx context.Context, cfg *config.Config) (provider.Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	timeout := time.Duration(cfg.LLM.TimeoutSeconds) * time.Second
	temperature := model.WithTemperature(cfg.LLM.Temperature)

	var p provider.Provider
	switch cfg.LLM.Provider {
	case config.ProviderOpenAI:
		cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
			Timeout: timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("LLM 初始化失败: %w", err)
		}
		p = chatmodel.New(config.ProviderOpenAI, cm, temperature)

	case config.ProviderDeepSeek:
		cm, err := deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Timeout: timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("LLM 初始化失败: %w", err)
		}
		p = chatmodel.New(config.ProviderDeepSeek, cm, temperature)

	case config.ProviderOllama:
		p = ollama.NewClient(cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.Temperature, timeout)

	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.LLM.Provider)
	}

	limiter := provider.NewLimiter(cfg.Concurrency.RPM, cfg.Concurrency.QPS)
	return provider.Guard(p, limiter, timeout), nil
}
