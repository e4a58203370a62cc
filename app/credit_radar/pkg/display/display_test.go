package display

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/engine"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/fault"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/model"
)

func TestRenderTable(t *testing.T) {
	report := &engine.ConsolidatedReport{
		Columns: model.Columns,
		Rows: []model.AnalysisResult{
			{CompanyName: "Acme", LiquidityRatio: decimal.RequireFromString("2"), RiskScore: 20, FinalVerdict: model.VerdictApprove},
			{CompanyName: "Bolt", LiquidityRatio: decimal.RequireFromString("0.5"), RiskScore: 85, FinalVerdict: model.VerdictDeny},
		},
	}
	out := RenderTable(report)
	for _, want := range []string{"Company", "Verdict", "Acme", "2.00", "APPROVE", "Bolt", "0.50", "DENY", "85"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Acme") > strings.Index(out, "Bolt") {
		t.Errorf("rows out of order")
	}
}

func TestRenderSummary(t *testing.T) {
	out := RenderSummary(engine.Stats{
		Processed:    3,
		Failed:       1,
		ApprovalRate: decimal.RequireFromString("66.7"),
		AverageRisk:  decimal.RequireFromString("43.3"),
	})
	for _, want := range []string{"3 Companies", "66.7%", "43/100", "Failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestRenderDiagnostics(t *testing.T) {
	if RenderDiagnostics(nil) != "" {
		t.Error("no failures should render nothing")
	}
	out := RenderDiagnostics([]engine.Diagnostic{{Item: "beta.json", Kind: fault.KindDecode, Message: "unexpected EOF"}})
	if !strings.Contains(out, "[decode] beta.json: unexpected EOF") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestVerdictStyle(t *testing.T) {
	if VerdictStyle(model.VerdictApprove).GetForeground() == VerdictStyle(model.VerdictDeny).GetForeground() {
		t.Error("approve and deny should use different colors")
	}
	if VerdictStyle(model.VerdictWithConditions).GetForeground() != conditionsStyle.GetForeground() {
		t.Error("with conditions should use the amber style")
	}
}
