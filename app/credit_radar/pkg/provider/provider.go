package provider

import (
	"context"
	"time"

	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"
)

// Provider 接收一组消息并返回模型的原始文本输出
type Provider interface {
	Name() string
	Generate(ctx context.Context, messages []*schema.Message) (string, error)
}

// NewLimiter 按每分钟请求数和突发量创建限流器，rpm <= 0 时不限流（配置中用负数表示）
func NewLimiter(rpm, qps int) *rate.Limiter {
	if rpm <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if qps <= 0 {
		qps = 1
	}
	return rate.NewLimiter(rate.Limit(float64(rpm)/60.0), qps)
}

type guarded struct {
	inner   Provider
	limiter *rate.Limiter
	timeout time.Duration
}

// Guard 为 Provider 加上限流和单次调用超时。limiter 为 nil 或 timeout <= 0 时对应约束不生效
func Guard(p Provider, limiter *rate.Limiter, timeout time.Duration) Provider {
	return &guarded{inner: p, limiter: limiter, timeout: timeout}
}

func (g *guarded) Name() string { return g.inner.Name() }

func (g *guarded) Generate(ctx context.Context, messages []*schema.Message) (string, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	return g.inner.Generate(ctx, messages)
}
