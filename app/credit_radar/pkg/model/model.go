package model

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// UnknownSector 未提供行业时使用的占位值
const UnknownSector = "unknown"

// DateLayout 分析时间在报表中的格式
const DateLayout = "2006-01-02 15:04"

// CompanyRecord 单个公司的财务输入文档
type CompanyRecord struct {
	CompanyInfo *CompanyInfo `json:"company_info"`
	Financials  *Financials  `json:"financials"`
}

// CompanyInfo 公司基础信息
type CompanyInfo struct {
	Name   string `json:"name"`
	Sector string `json:"sector,omitempty"`
}

// Financials 当年与上一年的财务数据，上一年可选
type Financials struct {
	CurrentYear  *FinancialYear `json:"current_year"`
	PreviousYear *FinancialYear `json:"previous_year,omitempty"`
}

// FinancialYear 单一年度的财务指标，缺失字段按 0 处理
type FinancialYear struct {
	CurrentAssets      decimal.Decimal `json:"current_assets"`
	CurrentLiabilities decimal.Decimal `json:"current_liabilities"`
	Revenue            decimal.Decimal `json:"revenue"`
	NetIncome          decimal.Decimal `json:"net_income"`
}

// Name 返回公司名称（去除首尾空白）
func (r *CompanyRecord) Name() string {
	if r == nil || r.CompanyInfo == nil {
		return ""
	}
	return strings.TrimSpace(r.CompanyInfo.Name)
}

// Sector 返回行业，缺省为 UnknownSector
func (r *CompanyRecord) Sector() string {
	if r == nil || r.CompanyInfo == nil {
		return UnknownSector
	}
	if s := strings.TrimSpace(r.CompanyInfo.Sector); s != "" {
		return s
	}
	return UnknownSector
}

// RatioSet 由财务数据推导出的三个指标，保留两位小数
type RatioSet struct {
	Liquidity decimal.Decimal
	Margin    decimal.Decimal
	Growth    decimal.Decimal
}

// Verdict 授信结论
type Verdict string

const (
	VerdictApprove        Verdict = "APPROVE"
	VerdictDeny           Verdict = "DENY"
	VerdictWithConditions Verdict = "WITH_CONDITIONS"
)

// Verdicts 全部合法结论，顺序固定
var Verdicts = []Verdict{VerdictApprove, VerdictDeny, VerdictWithConditions}

// ParseVerdict 只接受与枚举完全一致的结论，仅忽略首尾空白
func ParseVerdict(s string) (Verdict, bool) {
	norm := strings.TrimSpace(s)
	for _, v := range Verdicts {
		if string(v) == norm {
			return v, true
		}
	}
	return "", false
}

// CreditReport 推理结果必须满足的结构
type CreditReport struct {
	Summary      string  `json:"summary" jsonschema_description:"Executive summary of the company situation"`
	RiskScore    int     `json:"risk_score" jsonschema:"minimum=0,maximum=100" jsonschema_description:"Risk score from 0 (safe) to 100 (extreme risk)"`
	FinalVerdict Verdict `json:"final_verdict" jsonschema:"enum=APPROVE,enum=DENY,enum=WITH_CONDITIONS" jsonschema_description:"Final decision: APPROVE, DENY or WITH_CONDITIONS"`
	Rationale    string  `json:"rationale" jsonschema_description:"Technical justification for the decision"`
}

// Columns 汇总报表的列，顺序即 AnalysisResult 字段顺序
var Columns = []string{
	"analysis_date",
	"company_name",
	"liquidity_ratio",
	"net_margin_percent",
	"revenue_growth_percent",
	"summary",
	"risk_score",
	"final_verdict",
	"rationale",
}

// AnalysisResult 单个公司分析成功后的扁平结果，一行报表
type AnalysisResult struct {
	AnalyzedAt           time.Time
	CompanyName          string
	LiquidityRatio       decimal.Decimal
	NetMarginPercent     decimal.Decimal
	RevenueGrowthPercent decimal.Decimal
	Summary              string
	RiskScore            int
	FinalVerdict         Verdict
	Rationale            string
}

// NewAnalysisResult 合并指标与报告
func NewAnalysisResult(at time.Time, name string, ratios RatioSet, report CreditReport) AnalysisResult {
	return AnalysisResult{
		AnalyzedAt:           at,
		CompanyName:          name,
		LiquidityRatio:       ratios.Liquidity,
		NetMarginPercent:     ratios.Margin,
		RevenueGrowthPercent: ratios.Growth,
		Summary:              report.Summary,
		RiskScore:            report.RiskScore,
		FinalVerdict:         report.FinalVerdict,
		Rationale:            report.Rationale,
	}
}

// Row 按 Columns 的顺序输出字符串
func (r AnalysisResult) Row() []string {
	return []string{
		r.AnalyzedAt.Format(DateLayout),
		r.CompanyName,
		r.LiquidityRatio.StringFixed(2),
		r.NetMarginPercent.StringFixed(2),
		r.RevenueGrowthPercent.StringFixed(2),
		r.Summary,
		strconv.Itoa(r.RiskScore),
		string(r.FinalVerdict),
		r.Rationale,
	}
}

// MarshalJSON 字段名与 Columns 一致
func (r AnalysisResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		AnalysisDate         string  `json:"analysis_date"`
		CompanyName          string  `json:"company_name"`
		LiquidityRatio       float64 `json:"liquidity_ratio"`
		NetMarginPercent     float64 `json:"net_margin_percent"`
		RevenueGrowthPercent float64 `json:"revenue_growth_percent"`
		Summary              string  `json:"summary"`
		RiskScore            int     `json:"risk_score"`
		FinalVerdict         Verdict `json:"final_verdict"`
		Rationale            string  `json:"rationale"`
	}{
		AnalysisDate:         r.AnalyzedAt.Format(DateLayout),
		CompanyName:          r.CompanyName,
		LiquidityRatio:       r.LiquidityRatio.InexactFloat64(),
		NetMarginPercent:     r.NetMarginPercent.InexactFloat64(),
		RevenueGrowthPercent: r.RevenueGrowthPercent.InexactFloat64(),
		Summary:              r.Summary,
		RiskScore:            r.RiskScore,
		FinalVerdict:         r.FinalVerdict,
		Rationale:            r.Rationale,
	})
}
