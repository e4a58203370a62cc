package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/fault"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/logger"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/model"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/source"
)

// ErrNothingProcessed 一次运行没有任何成功的结果
var ErrNothingProcessed = errors.New("no data processed")

// Analyzer 对单个公司执行分析
type Analyzer interface {
	Analyze(ctx context.Context, rec *model.CompanyRecord) (*model.AnalysisResult, error)
}

// Engine 批处理引擎：逐条隔离地分析一组输入，并按输入顺序汇总
type Engine struct {
	analyzer Analyzer
	now      func() time.Time
}

// NewEngine 创建引擎实例
func NewEngine(analyzer Analyzer) *Engine {
	return &Engine{analyzer: analyzer, now: time.Now}
}

// RunOptions 运行选项
type RunOptions struct {
	// Workers <= 1 时严格顺序执行
	Workers int
	// Progress 每条输入完成后调用一次，调用之间不会并发
	Progress func(Progress)
}

// Progress 单条输入完成时的进度
type Progress struct {
	Done  int
	Total int
	Item  ItemOutcome
}

// Diagnostic 单条失败的诊断信息
type Diagnostic struct {
	Index   int        `json:"index"`
	Item    string     `json:"item"`
	Kind    fault.Kind `json:"kind"`
	Message string     `json:"message"`
	Raw     string     `json:"raw,omitempty"`
}

// ItemOutcome 单条输入的结果，Result 与 Diagnostic 恰有一个非空
type ItemOutcome struct {
	Index      int
	Item       string
	Result     *model.AnalysisResult
	Diagnostic *Diagnostic
}

// Outcome 一次运行的全部结果，Results 与 Diagnostics 均保持输入顺序
type Outcome struct {
	StartedAt   time.Time
	Total       int
	Results     []model.AnalysisResult
	Diagnostics []Diagnostic
}

// ConsolidatedReport 汇总报表，列顺序固定
type ConsolidatedReport struct {
	GeneratedAt time.Time
	Columns     []string
	Rows        []model.AnalysisResult
}

// Stats 运行概览
type Stats struct {
	Processed int
	Failed    int
	// ApprovalRate APPROVE 占比（百分比，一位小数）
	ApprovalRate decimal.Decimal
	// AverageRisk 平均风险分（一位小数）
	AverageRisk decimal.Decimal
}

// MarshalJSON 百分比与平均分输出为数字
func (s Stats) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Processed    int     `json:"processed"`
		Failed       int     `json:"failed"`
		ApprovalRate float64 `json:"approval_rate"`
		AverageRisk  float64 `json:"average_risk"`
	}{s.Processed, s.Failed, s.ApprovalRate.InexactFloat64(), s.AverageRisk.InexactFloat64()})
}

// Run 分析全部输入。单条失败只会产生一条诊断，不影响其他输入。
// ctx 取消后不再调度新的输入，已完成的结果保留，未执行的输入记为 canceled，并返回 ctx.Err()。
func (e *Engine) Run(ctx context.Context, docs []source.Document, opts RunOptions) (*Outcome, error) {
	started := e.now()
	total := len(docs)
	logger.Log.Infof("开始批量分析，共 %d 个文件", total)

	slots := make([]ItemOutcome, total)
	scheduled := make([]bool, total)

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		done int
	)
	finish := func(out ItemOutcome) {
		mu.Lock()
		defer mu.Unlock()
		slots[out.Index] = out
		done++
		logItem(out)
		if opts.Progress != nil {
			opts.Progress(Progress{Done: done, Total: total, Item: out})
		}
	}

schedule:
	for i, doc := range docs {
		select {
		case <-ctx.Done():
			break schedule
		case sem <- struct{}{}:
		}
		if ctx.Err() != nil {
			<-sem
			break
		}
		scheduled[i] = true

		if workers == 1 {
			finish(e.analyzeOne(ctx, i, doc))
			<-sem
			continue
		}

		wg.Add(1)
		go func(i int, doc source.Document) {
			defer wg.Done()
			defer func() { <-sem }()
			finish(e.analyzeOne(ctx, i, doc))
		}(i, doc)
	}
	wg.Wait()

	for i, doc := range docs {
		if !scheduled[i] {
			slots[i] = ItemOutcome{Index: i, Item: doc.Name, Diagnostic: &Diagnostic{
				Index:   i,
				Item:    doc.Name,
				Kind:    fault.KindCanceled,
				Message: "not analyzed: run canceled",
			}}
		}
	}

	outcome := &Outcome{StartedAt: started, Total: total}
	for _, s := range slots {
		if s.Result != nil {
			outcome.Results = append(outcome.Results, *s.Result)
		} else if s.Diagnostic != nil {
			outcome.Diagnostics = append(outcome.Diagnostics, *s.Diagnostic)
		}
	}
	logger.Log.Infof("批量分析结束: 成功 %d, 失败 %d", len(outcome.Results), len(outcome.Diagnostics))

	return outcome, ctx.Err()
}

// analyzeOne 处理单条输入，所有错误与 panic 都转为诊断
func (e *Engine) analyzeOne(ctx context.Context, i int, doc source.Document) (out ItemOutcome) {
	out = ItemOutcome{Index: i, Item: doc.Name}
	defer func() {
		if r := recover(); r != nil {
			out.Result = nil
			out.Diagnostic = diagnose(i, doc.Name, fmt.Errorf("panic: %v", r))
		}
	}()

	logger.Log.Infof("处理中: %s", doc.Name)
	rec, err := doc.Decode()
	if err != nil {
		out.Diagnostic = diagnose(i, doc.Name, err)
		return out
	}
	res, err := e.analyzer.Analyze(ctx, rec)
	if err != nil {
		out.Diagnostic = diagnose(i, doc.Name, err)
		return out
	}
	out.Result = res
	return out
}

func diagnose(i int, item string, err error) *Diagnostic {
	return &Diagnostic{
		Index:   i,
		Item:    item,
		Kind:    fault.Classify(err),
		Message: err.Error(),
		Raw:     fault.RawResponse(err),
	}
}

func logItem(out ItemOutcome) {
	if out.Result != nil {
		logger.Log.Infof("完成 %s: %s (Score: %d)", out.Item, out.Result.FinalVerdict, out.Result.RiskScore)
		return
	}
	logger.Log.WithField("kind", out.Diagnostic.Kind).Errorf("处理失败 %s: %s", out.Item, out.Diagnostic.Message)
}

// Report 返回汇总报表，没有任何成功结果时返回 ErrNothingProcessed
func (o *Outcome) Report() (*ConsolidatedReport, error) {
	if len(o.Results) == 0 {
		return nil, ErrNothingProcessed
	}
	return &ConsolidatedReport{
		GeneratedAt: o.StartedAt,
		Columns:     model.Columns,
		Rows:        o.Results,
	}, nil
}

// Stats 统计处理数量、通过率与平均风险分
func (o *Outcome) Stats() Stats {
	s := Stats{
		Processed:    len(o.Results),
		Failed:       len(o.Diagnostics),
		ApprovalRate: decimal.Zero,
		AverageRisk:  decimal.Zero,
	}
	if s.Processed == 0 {
		return s
	}

	var approved, risk int64
	for _, r := range o.Results {
		if r.FinalVerdict == model.VerdictApprove {
			approved++
		}
		risk += int64(r.RiskScore)
	}
	n := decimal.NewFromInt(int64(s.Processed))
	s.ApprovalRate = decimal.NewFromInt(approved * 100).Div(n).Round(1)
	s.AverageRisk = decimal.NewFromInt(risk).Div(n).Round(1)
	return s
}
