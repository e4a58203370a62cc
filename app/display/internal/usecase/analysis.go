package usecase

import (
	"bytes"
	"context"
	"errors"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/engine"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/export"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/model"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/source"
	"github.com/iWorld-y/credit_radar/app/display/internal/conf"
	"github.com/iWorld-y/credit_radar/app/display/internal/domain"
	"github.com/iWorld-y/credit_radar/app/display/internal/repo"
)

// ErrNoFiles 请求中没有任何文件
var ErrNoFiles = errors.New("no files uploaded")

// AnalysisUseCase 交互式分析业务逻辑
type AnalysisUseCase struct {
	runner  repo.BatchRunner
	workers int
	log     *log.Helper
}

// NewAnalysisUseCase 创建分析业务逻辑实例
func NewAnalysisUseCase(runner repo.BatchRunner, c *conf.Analyst, logger log.Logger) *AnalysisUseCase {
	workers := 1
	if c != nil && c.Workers > 0 {
		workers = int(c.Workers)
	}
	return &AnalysisUseCase{runner: runner, workers: workers, log: log.NewHelper(logger)}
}

// Analyze 分析上传的文件。没有任何成功结果时同时返回结果与 engine.ErrNothingProcessed
func (uc *AnalysisUseCase) Analyze(ctx context.Context, uploads []domain.Upload) (*domain.AnalysisRun, error) {
	if len(uploads) == 0 {
		return nil, ErrNoFiles
	}
	docs := make([]source.Document, 0, len(uploads))
	for _, u := range uploads {
		docs = append(docs, source.FromBytes(u.Name, u.Body))
	}

	outcome, err := uc.runner.Run(ctx, docs, engine.RunOptions{Workers: uc.workers})
	if err != nil {
		return nil, err
	}

	run := &domain.AnalysisRun{
		GeneratedAt: outcome.StartedAt,
		Rows:        outcome.Results,
		Diagnostics: outcome.Diagnostics,
		Stats:       outcome.Stats(),
	}
	if run.Rows == nil {
		run.Rows = []model.AnalysisResult{}
	}
	if run.Diagnostics == nil {
		run.Diagnostics = []engine.Diagnostic{}
	}
	uc.log.WithContext(ctx).Infof("analyzed %d files: %d rows, %d failures", len(uploads), len(run.Rows), len(run.Diagnostics))

	if len(run.Rows) == 0 {
		return run, engine.ErrNothingProcessed
	}
	return run, nil
}

// Export 分析并生成可下载的汇总 CSV
func (uc *AnalysisUseCase) Export(ctx context.Context, uploads []domain.Upload) (string, []byte, *domain.AnalysisRun, error) {
	run, err := uc.Analyze(ctx, uploads)
	if err != nil {
		return "", nil, run, err
	}

	var buf bytes.Buffer
	report := &engine.ConsolidatedReport{GeneratedAt: run.GeneratedAt, Columns: model.Columns, Rows: run.Rows}
	if err := export.WriteCSV(&buf, report); err != nil {
		return "", nil, run, err
	}
	return export.DownloadFileName(run.GeneratedAt), buf.Bytes(), run, nil
}
