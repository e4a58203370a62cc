package analyst

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/config"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/contract"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/fault"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/logger"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/model"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/provider"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/ratio"
)

const systemPrompt = `You are a Senior Credit Analyst at a receivables registry.
You analyze company financial data to validate "duplicata escritural" (electronic trade bill) operations.`

const userPrompt = `Analyze the data below.

COMPANY: {name} | SECTOR: {sector}

FINANCIAL INDICATORS (Numeric Facts):
- Current Liquidity: {liquidity} (Below 1.0 indicates imminent insolvency risk)
- Net Margin: {margin}%
- Revenue Growth: {growth}%

RISK GUIDELINES:
1. If Liquidity < 1.0, risk is HIGH, even if the company is growing (Cash flow break).
2. Negative Margin (Loss) requires rejection or strong guarantees.
3. Prioritize the safety of the market infrastructure.

Output the response in the requested format.
The 'summary' and 'rationale' text must be written in {language}.
The 'final_verdict' must be one of: {verdicts}.

{format_instructions}`

// Analyst 对单个 CompanyRecord 执行完整分析
type Analyst struct {
	provider provider.Provider
	template prompt.ChatTemplate
	language string
	now      func() time.Time
}

// Option 可选配置
type Option func(*Analyst)

// WithLanguage 设置 summary 与 rationale 的输出语言
func WithLanguage(language string) Option {
	return func(a *Analyst) {
		if strings.TrimSpace(language) != "" {
			a.language = strings.TrimSpace(language)
		}
	}
}

// WithClock 替换分析时间来源
func WithClock(now func() time.Time) Option {
	return func(a *Analyst) { a.now = now }
}

// New 创建 Analyst
func New(p provider.Provider, opts ...Option) *Analyst {
	a := &Analyst{
		provider: p,
		template: prompt.FromMessages(schema.FString,
			schema.SystemMessage(systemPrompt),
			schema.UserMessage(userPrompt),
		),
		language: config.DefaultLanguage,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze 计算指标、请求推理服务并校验输出，成功时返回一行结果。
// 失败时返回 MalformedInputError、ProviderError 或 SchemaValidationError。
func (a *Analyst) Analyze(ctx context.Context, rec *model.CompanyRecord) (*model.AnalysisResult, error) {
	name := rec.Name()
	if name == "" {
		return nil, &fault.MalformedInputError{Field: "company_info.name"}
	}

	ratios, err := ratio.Compute(rec)
	if err != nil {
		return nil, err
	}

	messages, err := a.Messages(ctx, rec, ratios)
	if err != nil {
		return nil, err
	}

	logger.Log.Debugf("请求推理服务 [%s]: %s", a.provider.Name(), name)
	raw, err := a.provider.Generate(ctx, messages)
	if err != nil {
		var pe *fault.ProviderError
		if errors.As(err, &pe) {
			return nil, err
		}
		return nil, &fault.ProviderError{Provider: a.provider.Name(), Err: err}
	}

	report, err := contract.Parse(raw)
	if err != nil {
		return nil, err
	}

	res := model.NewAnalysisResult(a.now(), name, ratios, *report)
	return &res, nil
}

// Messages 渲染发送给推理服务的消息
func (a *Analyst) Messages(ctx context.Context, rec *model.CompanyRecord, ratios model.RatioSet) ([]*schema.Message, error) {
	verdicts := make([]string, 0, len(model.Verdicts))
	for _, v := range model.Verdicts {
		verdicts = append(verdicts, string(v))
	}

	messages, err := a.template.Format(ctx, map[string]any{
		"name":                rec.Name(),
		"sector":              rec.Sector(),
		"liquidity":           ratios.Liquidity.StringFixed(ratio.Places),
		"margin":              ratios.Margin.StringFixed(ratio.Places),
		"growth":              ratios.Growth.StringFixed(ratio.Places),
		"language":            a.language,
		"verdicts":            strings.Join(verdicts, ", "),
		"format_instructions": contract.FormatInstructions(),
	})
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}
	return messages, nil
}
