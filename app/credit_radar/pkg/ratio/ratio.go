package ratio

import (
	"github.com/shopspring/decimal"

	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/fault"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/model"
)

// Places 指标保留的小数位数
const Places = 2

var hundred = decimal.NewFromInt(100)

// Round2 保留两位小数，远离零方向舍入 (2.675 -> 2.68, -2.675 -> -2.68)。
// 对已舍入的值再次调用结果不变。
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Compute 计算流动比率、净利率和营收增长率。
// 分母缺失或不为正时对应指标为 0，表示“不具参考意义”。
// 只有缺少 financials.current_year 时才返回 MalformedInputError。
func Compute(rec *model.CompanyRecord) (model.RatioSet, error) {
	if rec == nil || rec.Financials == nil {
		return model.RatioSet{}, &fault.MalformedInputError{Field: "financials.current_year"}
	}
	cur := rec.Financials.CurrentYear
	if cur == nil {
		return model.RatioSet{}, &fault.MalformedInputError{Field: "financials.current_year"}
	}

	set := model.RatioSet{
		Liquidity: decimal.Zero,
		Margin:    decimal.Zero,
		Growth:    decimal.Zero,
	}

	if cur.CurrentLiabilities.IsPositive() {
		set.Liquidity = Round2(cur.CurrentAssets.Div(cur.CurrentLiabilities))
	}
	if cur.Revenue.IsPositive() {
		set.Margin = Round2(cur.NetIncome.Mul(hundred).Div(cur.Revenue))
	}
	if prev := rec.Financials.PreviousYear; prev != nil && prev.Revenue.IsPositive() {
		set.Growth = Round2(cur.Revenue.Sub(prev.Revenue).Mul(hundred).Div(prev.Revenue))
	}

	return set, nil
}
