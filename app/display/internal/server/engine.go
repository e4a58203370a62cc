package server

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/analyst"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/config"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/engine"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/logger"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/provider/factory"
	"github.com/iWorld-y/credit_radar/app/display/internal/conf"
)

// AnalystConfig 将服务配置转换为分析流水线配置，并补齐环境变量与默认值
func AnalystConfig(c *conf.Analyst) *config.Config {
	cfg := &config.Config{}
	if c != nil {
		cfg.Batch.Workers = int(c.Workers)
		if c.Llm != nil {
			cfg.LLM = config.LLMConfig{
				Provider:       c.Llm.Provider,
				BaseURL:        c.Llm.BaseUrl,
				APIKey:         c.Llm.ApiKey,
				Model:          c.Llm.Model,
				Temperature:    c.Llm.Temperature,
				TimeoutSeconds: int(c.Llm.TimeoutSeconds),
				Language:       c.Llm.Language,
			}
		}
		if c.Log != nil {
			cfg.Log = config.LogConfig{Level: c.Log.Level, File: c.Log.File}
		}
		if c.Concurrency != nil {
			cfg.Concurrency = config.ConcurrencyConfig{QPS: int(c.Concurrency.Qps), RPM: int(c.Concurrency.Rpm)}
		}
	}
	cfg.Complete()
	return cfg
}

// NewAnalysisEngine 初始化推理服务与分析引擎，配置不完整时直接返回错误
func NewAnalysisEngine(c *conf.Analyst, l log.Logger) (*engine.Engine, func(), error) {
	helper := log.NewHelper(l)
	cfg := AnalystConfig(c)

	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	p, err := factory.NewProvider(context.Background(), cfg)
	if err != nil {
		return nil, nil, err
	}
	helper.Infof("推理服务: %s, 模型: %s", cfg.LLM.Provider, cfg.LLM.Model)

	an := analyst.New(p, analyst.WithLanguage(cfg.LLM.Language))
	cleanup := func() {
		helper.Info("分析引擎已关闭")
	}
	return engine.NewEngine(an), cleanup, nil
}
