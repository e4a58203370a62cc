package domain

import (
	"time"

	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/engine"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/model"
)

// Upload 一个上传的文件
type Upload struct {
	Name string
	Body []byte
}

// AnalysisRun 一次交互式分析的结果
type AnalysisRun struct {
	GeneratedAt time.Time              `json:"-"`
	Rows        []model.AnalysisResult `json:"rows"`
	Diagnostics []engine.Diagnostic    `json:"diagnostics"`
	Stats       engine.Stats           `json:"stats"`
}
