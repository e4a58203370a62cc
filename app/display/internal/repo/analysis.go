package repo

import (
	"context"

	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/engine"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/source"
)

// BatchRunner 批量分析接口，由 engine.Engine 实现
type BatchRunner interface {
	// Run 分析全部文档，结果保持输入顺序
	Run(ctx context.Context, docs []source.Document, opts engine.RunOptions) (*engine.Outcome, error)
}
