package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/analyst"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/fault"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/model"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/source"
)

func companyDoc(name string) source.Document {
	body := fmt.Sprintf(`{"company_info":{"name":%q},"financials":{"current_year":{"current_assets":200,"current_liabilities":100,"revenue":1000,"net_income":100}}}`, name)
	return source.FromBytes(strings.ToLower(name)+".json", []byte(body))
}

// scriptedAnalyzer 按公司名返回预设结果
type scriptedAnalyzer struct {
	mu      sync.Mutex
	calls   map[string]int
	verdict map[string]model.Verdict
	fail    map[string]error
	delay   time.Duration
}

func newScripted() *scriptedAnalyzer {
	return &scriptedAnalyzer{
		calls:   map[string]int{},
		verdict: map[string]model.Verdict{},
		fail:    map[string]error{},
	}
}

func (s *scriptedAnalyzer) Analyze(_ context.Context, rec *model.CompanyRecord) (*model.AnalysisResult, error) {
	s.mu.Lock()
	s.calls[rec.Name()]++
	err := s.fail[rec.Name()]
	verdict, ok := s.verdict[rec.Name()]
	s.mu.Unlock()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		verdict = model.VerdictApprove
	}
	res := model.AnalysisResult{CompanyName: rec.Name(), RiskScore: 10, FinalVerdict: verdict, Summary: "s", Rationale: "r"}
	return &res, nil
}

func names(results []model.AnalysisResult) []string {
	var out []string
	for _, r := range results {
		out = append(out, r.CompanyName)
	}
	return out
}

func TestRunIsolatesFailures(t *testing.T) {
	docs := []source.Document{
		companyDoc("Alpha"),
		source.FromBytes("beta.json", []byte(`{"company_info":{"name":"Beta"},"financials":{}}`)),
		companyDoc("Gamma"),
		source.FromBytes("broken.json", []byte(`{not json`)),
		companyDoc("Delta"),
	}
	a := newScripted()
	a.fail["Gamma"] = &fault.SchemaValidationError{Raw: "garbage", Reason: "no JSON object in response"}
	a.fail["Beta"] = &fault.MalformedInputError{Field: "financials.current_year"}

	var progress []int
	out, err := NewEngine(a).Run(context.Background(), docs, RunOptions{
		Progress: func(p Progress) { progress = append(progress, p.Done) },
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := strings.Join(names(out.Results), ","); got != "Alpha,Delta" {
		t.Errorf("results = %s", got)
	}
	if out.Total != 5 || len(out.Results)+len(out.Diagnostics) != out.Total {
		t.Fatalf("total %d, results %d, diagnostics %d", out.Total, len(out.Results), len(out.Diagnostics))
	}

	wantKinds := []struct {
		index int
		kind  fault.Kind
	}{{1, fault.KindMalformedInput}, {2, fault.KindSchemaValidation}, {3, fault.KindDecode}}
	for i, want := range wantKinds {
		d := out.Diagnostics[i]
		if d.Index != want.index || d.Kind != want.kind {
			t.Errorf("diagnostic %d = %+v, want index %d kind %s", i, d, want.index, want.kind)
		}
	}
	if out.Diagnostics[1].Raw != "garbage" {
		t.Errorf("schema diagnostic lost raw response: %+v", out.Diagnostics[1])
	}
	if len(progress) != 5 || progress[4] != 5 {
		t.Errorf("progress = %v", progress)
	}
	for name, n := range a.calls {
		if n != 1 {
			t.Errorf("%s analyzed %d times, want exactly once", name, n)
		}
	}
}

func TestRunPreservesOrderWithWorkers(t *testing.T) {
	var docs []source.Document
	var want []string
	for i := 0; i < 12; i++ {
		name := fmt.Sprintf("Co%02d", i)
		docs = append(docs, companyDoc(name))
		if i%4 != 3 {
			want = append(want, name)
		}
	}
	a := newScripted()
	a.delay = 5 * time.Millisecond
	for i := 3; i < 12; i += 4 {
		a.fail[fmt.Sprintf("Co%02d", i)] = &fault.ProviderError{Provider: "fake", Err: errors.New("503")}
	}

	out, err := NewEngine(a).Run(context.Background(), docs, RunOptions{Workers: 4})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got, w := strings.Join(names(out.Results), ","), strings.Join(want, ","); got != w {
		t.Errorf("results = %s, want %s", got, w)
	}
	for i, d := range out.Diagnostics {
		if d.Index != 3+4*i || d.Kind != fault.KindProvider {
			t.Errorf("diagnostic %d = %+v", i, d)
		}
	}
}

type cancelingAnalyzer struct {
	cancel context.CancelFunc
	calls  int
}

func (c *cancelingAnalyzer) Analyze(_ context.Context, rec *model.CompanyRecord) (*model.AnalysisResult, error) {
	c.calls++
	c.cancel()
	res := model.AnalysisResult{CompanyName: rec.Name(), FinalVerdict: model.VerdictDeny, RiskScore: 90}
	return &res, nil
}

func TestRunStopsSchedulingOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a := &cancelingAnalyzer{cancel: cancel}

	docs := []source.Document{companyDoc("One"), companyDoc("Two"), companyDoc("Three")}
	out, err := NewEngine(a).Run(ctx, docs, RunOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if a.calls != 1 {
		t.Errorf("analyzer called %d times, want 1", a.calls)
	}
	if len(out.Results) != 1 || out.Results[0].CompanyName != "One" {
		t.Errorf("finished result should be kept: %+v", out.Results)
	}
	if len(out.Diagnostics) != 2 || out.Diagnostics[0].Kind != fault.KindCanceled || out.Diagnostics[1].Index != 2 {
		t.Errorf("diagnostics = %+v", out.Diagnostics)
	}
}

func TestOutcomeReportAndStats(t *testing.T) {
	empty := &Outcome{Total: 2, Diagnostics: []Diagnostic{{Index: 0}, {Index: 1}}}
	if _, err := empty.Report(); !errors.Is(err, ErrNothingProcessed) {
		t.Errorf("Report() error = %v, want ErrNothingProcessed", err)
	}
	if s := empty.Stats(); s.Processed != 0 || s.Failed != 2 || !s.ApprovalRate.IsZero() {
		t.Errorf("Stats() = %+v", s)
	}

	out := &Outcome{
		StartedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		Total:     3,
		Results: []model.AnalysisResult{
			{CompanyName: "A", FinalVerdict: model.VerdictApprove, RiskScore: 20},
			{CompanyName: "B", FinalVerdict: model.VerdictApprove, RiskScore: 30},
			{CompanyName: "C", FinalVerdict: model.VerdictDeny, RiskScore: 80},
		},
	}
	report, err := out.Report()
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Rows) != 3 || report.Columns[0] != "analysis_date" || !report.GeneratedAt.Equal(out.StartedAt) {
		t.Errorf("unexpected report %+v", report)
	}

	s := out.Stats()
	if s.Processed != 3 || s.ApprovalRate.String() != "66.7" || s.AverageRisk.String() != "43.3" {
		t.Errorf("Stats() = %+v", s)
	}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"processed":3,"failed":0,"approval_rate":66.7,"average_risk":43.3}` {
		t.Errorf("stats json = %s", data)
	}
}

// echoProvider 根据用户消息中的公司名返回不同的结论
type echoProvider struct{}

func (echoProvider) Name() string { return "echo" }

func (echoProvider) Generate(_ context.Context, messages []*schema.Message) (string, error) {
	user := messages[len(messages)-1].Content
	switch {
	case strings.Contains(user, "COMPANY: Broken"):
		return "I refuse to answer in JSON", nil
	case strings.Contains(user, "COMPANY: Down"):
		return "", errors.New("connection refused")
	default:
		return `{"summary":"ok","risk_score":25,"final_verdict":"APPROVE","rationale":"liquidity 2.00"}`, nil
	}
}

func TestRunWithAnalyst(t *testing.T) {
	docs := []source.Document{companyDoc("Acme"), companyDoc("Broken"), companyDoc("Down"), companyDoc("Zeta")}
	out, err := NewEngine(analyst.New(echoProvider{})).Run(context.Background(), docs, RunOptions{Workers: 2})
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(names(out.Results), ","); got != "Acme,Zeta" {
		t.Errorf("results = %s", got)
	}
	if len(out.Diagnostics) != 2 ||
		out.Diagnostics[0].Kind != fault.KindSchemaValidation || out.Diagnostics[0].Raw != "I refuse to answer in JSON" ||
		out.Diagnostics[1].Kind != fault.KindProvider {
		t.Errorf("diagnostics = %+v", out.Diagnostics)
	}
	if out.Results[0].LiquidityRatio.StringFixed(2) != "2.00" {
		t.Errorf("liquidity = %s", out.Results[0].LiquidityRatio)
	}
}
