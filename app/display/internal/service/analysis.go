package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/engine"
	"github.com/iWorld-y/credit_radar/app/display/internal/conf"
	"github.com/iWorld-y/credit_radar/app/display/internal/domain"
	"github.com/iWorld-y/credit_radar/app/display/internal/usecase"
)

// UploadField 上传表单中的文件字段名
const UploadField = "files"

// 错误原因
const (
	ReasonInvalidUpload  = "INVALID_UPLOAD"
	ReasonNoFiles        = "NO_FILES"
	ReasonAnalysisFailed = "ANALYSIS_FAILED"
)

const defaultMaxUploadMb = 16

// AnalysisService 交互式分析的 HTTP 接口
type AnalysisService struct {
	uc        *usecase.AnalysisUseCase
	maxUpload int64
	log       *log.Helper
}

// NewAnalysisService 创建分析服务
func NewAnalysisService(uc *usecase.AnalysisUseCase, c *conf.Server, logger log.Logger) *AnalysisService {
	limit := int64(defaultMaxUploadMb)
	if c != nil && c.Http != nil && c.Http.MaxUploadMb > 0 {
		limit = int64(c.Http.MaxUploadMb)
	}
	return &AnalysisService{uc: uc, maxUpload: limit << 20, log: log.NewHelper(logger)}
}

// RegisterAnalysisHTTPServer 注册分析接口，处理函数经过服务端中间件
func RegisterAnalysisHTTPServer(s *http.Server, svc *AnalysisService) {
	r := s.Route("/")
	r.POST("/api/v1/analyses", svc.Analyze)
	r.POST("/api/v1/analyses/export", svc.Export)
	r.GET("/healthz", svc.Healthz)
}

// Analyze POST /api/v1/analyses，返回表格行、诊断与概览
func (s *AnalysisService) Analyze(ctx http.Context) error {
	uploads, err := s.readUploads(ctx)
	if err != nil {
		return err
	}

	h := ctx.Middleware(func(c context.Context, req interface{}) (interface{}, error) {
		return s.uc.Analyze(c, req.([]domain.Upload))
	})
	reply, err := h(ctx, uploads)
	run, _ := reply.(*domain.AnalysisRun)
	switch {
	case errors.Is(err, engine.ErrNothingProcessed) && run != nil:
		return ctx.JSON(nethttp.StatusUnprocessableEntity, run)
	case err != nil:
		return s.fail(ctx, err)
	}
	return ctx.JSON(nethttp.StatusOK, run)
}

type download struct {
	name string
	data []byte
	run  *domain.AnalysisRun
}

// Export POST /api/v1/analyses/export，分析并下载汇总 CSV
func (s *AnalysisService) Export(ctx http.Context) error {
	uploads, err := s.readUploads(ctx)
	if err != nil {
		return err
	}

	h := ctx.Middleware(func(c context.Context, req interface{}) (interface{}, error) {
		name, data, run, err := s.uc.Export(c, req.([]domain.Upload))
		return &download{name: name, data: data, run: run}, err
	})
	reply, err := h(ctx, uploads)
	dl, _ := reply.(*download)
	switch {
	case errors.Is(err, engine.ErrNothingProcessed) && dl != nil && dl.run != nil:
		return ctx.JSON(nethttp.StatusUnprocessableEntity, dl.run)
	case err != nil:
		return s.fail(ctx, err)
	}

	ctx.Response().Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dl.name))
	return ctx.Blob(nethttp.StatusOK, "text/csv; charset=utf-8", dl.data)
}

// Healthz GET /healthz
func (s *AnalysisService) Healthz(ctx http.Context) error {
	return ctx.JSON(nethttp.StatusOK, map[string]string{"status": "ok"})
}

func (s *AnalysisService) fail(ctx http.Context, err error) error {
	if errors.Is(err, usecase.ErrNoFiles) {
		return kerrors.BadRequest(ReasonNoFiles, err.Error())
	}
	var se *kerrors.Error
	if errors.As(err, &se) {
		return se
	}
	s.log.WithContext(ctx).Errorf("分析失败: %v", err)
	return kerrors.InternalServer(ReasonAnalysisFailed, err.Error())
}

func (s *AnalysisService) readUploads(ctx http.Context) ([]domain.Upload, error) {
	r := ctx.Request()
	r.Body = nethttp.MaxBytesReader(ctx.Response(), r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		return nil, kerrors.BadRequest(ReasonInvalidUpload, fmt.Sprintf("parse upload: %v", err))
	}

	headers := r.MultipartForm.File[UploadField]
	uploads := make([]domain.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, kerrors.BadRequest(ReasonInvalidUpload, fmt.Sprintf("open %s: %v", fh.Filename, err))
		}
		body, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, kerrors.BadRequest(ReasonInvalidUpload, fmt.Sprintf("read %s: %v", fh.Filename, err))
		}
		uploads = append(uploads, domain.Upload{Name: fh.Filename, Body: body})
	}
	return uploads, nil
}
