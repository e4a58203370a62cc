package chatmodel

import (
	"context"
	"errors"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/provider"
)

// Provider 基于 eino BaseChatModel 的推理服务
type Provider struct {
	name string
	cm   model.BaseChatModel
	opts []model.Option
}

var _ provider.Provider = (*Provider)(nil)

// New 创建适配器，opts 在每次调用时透传给 Generate（例如 model.WithTemperature）
func New(name string, cm model.BaseChatModel, opts ...model.Option) *Provider {
	return &Provider{name: name, cm: cm, opts: opts}
}

// Name 服务名称
func (p *Provider) Name() string { return p.name }

// Generate 调用模型并返回文本内容
func (p *Provider) Generate(ctx context.Context, messages []*schema.Message) (string, error) {
	resp, err := p.cm.Generate(ctx, messages, p.opts...)
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", errors.New("empty response")
	}
	return resp.Content, nil
}
