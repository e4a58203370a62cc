package display

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/engine"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/model"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	approveStyle    = cellStyle.Foreground(lipgloss.Color("#10B981")).Bold(true)
	denyStyle       = cellStyle.Foreground(lipgloss.Color("#EF4444")).Bold(true)
	conditionsStyle = cellStyle.Foreground(lipgloss.Color("#F59E0B")).Bold(true)

	summaryStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#10B981")).
			Padding(0, 2)

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
)

var tableHeaders = []string{"Company", "Liquidity", "Net Margin %", "Revenue Growth %", "Risk", "Verdict"}

const verdictColumn = 5

// VerdictStyle 结论单元格的颜色：通过为绿色，拒绝为红色，附条件为橙色
func VerdictStyle(v model.Verdict) lipgloss.Style {
	switch v {
	case model.VerdictApprove:
		return approveStyle
	case model.VerdictDeny:
		return denyStyle
	default:
		return conditionsStyle
	}
}

// RenderTable 结果表格
func RenderTable(report *engine.ConsolidatedReport) string {
	rows := make([][]string, 0, len(report.Rows))
	for _, r := range report.Rows {
		rows = append(rows, []string{
			r.CompanyName,
			r.LiquidityRatio.StringFixed(2),
			r.NetMarginPercent.StringFixed(2),
			r.RevenueGrowthPercent.StringFixed(2),
			strconv.Itoa(r.RiskScore),
			string(r.FinalVerdict),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))).
		Headers(tableHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == verdictColumn && row >= 0 && row < len(report.Rows) {
				return VerdictStyle(report.Rows[row].FinalVerdict)
			}
			return cellStyle
		})

	return titleStyle.Render("📝 Analysis Details") + "\n" + t.String()
}

// RenderSummary 运行概览：处理数量、通过率、平均风险分
func RenderSummary(s engine.Stats) string {
	lines := []string{
		fmt.Sprintf("Processed Volume: %d Companies", s.Processed),
		fmt.Sprintf("Approval Rate:    %s%%", s.ApprovalRate.StringFixed(1)),
		fmt.Sprintf("Avg Risk Score:   %d/100", s.AverageRisk.IntPart()),
	}
	if s.Failed > 0 {
		lines = append(lines, fmt.Sprintf("Failed:           %d", s.Failed))
	}
	return titleStyle.Render("📊 Operation Summary") + "\n" + summaryStyle.Render(strings.Join(lines, "\n"))
}

// RenderDiagnostics 失败列表，没有失败时返回空字符串
func RenderDiagnostics(diags []engine.Diagnostic) string {
	if len(diags) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("❌ Failures (%d)", len(diags))))
	sb.WriteString("\n")
	for _, d := range diags {
		sb.WriteString(errorStyle.Render(fmt.Sprintf("[%s] %s: %s", d.Kind, d.Item, d.Message)))
		sb.WriteString("\n")
	}
	return sb.String()
}
