package analyst

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/shopspring/decimal"

	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/fault"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/model"
)

type fakeProvider struct {
	reply string
	err   error
	calls int
	seen  []*schema.Message
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Generate(_ context.Context, messages []*schema.Message) (string, error) {
	f.calls++
	f.seen = messages
	return f.reply, f.err
}

var fixedNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func acme() *model.CompanyRecord {
	return &model.CompanyRecord{
		CompanyInfo: &model.CompanyInfo{Name: "Acme"},
		Financials: &model.Financials{
			CurrentYear: &model.FinancialYear{
				CurrentAssets:      decimal.NewFromInt(200),
				CurrentLiabilities: decimal.NewFromInt(100),
				Revenue:            decimal.NewFromInt(1000),
				NetIncome:          decimal.NewFromInt(100),
			},
		},
	}
}

func TestAnalyze(t *testing.T) {
	fp := &fakeProvider{reply: `{"summary":"Healthy","risk_score":20,"final_verdict":"APPROVE","rationale":"Liquidity 2.0"}`}
	a := New(fp, WithClock(func() time.Time { return fixedNow }), WithLanguage("Portuguese"))

	res, err := a.Analyze(context.Background(), acme())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	want := "2026-03-01 09:30|Acme|2.00|10.00|0.00|Healthy|20|APPROVE|Liquidity 2.0"
	if got := strings.Join(res.Row(), "|"); got != want {
		t.Errorf("Row() = %q, want %q", got, want)
	}
	if fp.calls != 1 {
		t.Errorf("provider called %d times, want 1", fp.calls)
	}

	if len(fp.seen) != 2 || fp.seen[0].Role != schema.System || fp.seen[1].Role != schema.User {
		t.Fatalf("unexpected messages %+v", fp.seen)
	}
	user := fp.seen[1].Content
	for _, want := range []string{
		"COMPANY: Acme | SECTOR: unknown",
		"Current Liquidity: 2.00",
		"Net Margin: 10.00%",
		"Revenue Growth: 0.00%",
		"If Liquidity < 1.0",
		"written in Portuguese",
		"APPROVE, DENY, WITH_CONDITIONS",
		"risk_score",
	} {
		if !strings.Contains(user, want) {
			t.Errorf("user message missing %q", want)
		}
	}
	if !strings.Contains(fp.seen[0].Content, "duplicata escritural") {
		t.Errorf("system message missing role description")
	}
}

func TestAnalyzeMissingName(t *testing.T) {
	fp := &fakeProvider{}
	rec := acme()
	rec.CompanyInfo.Name = "   "
	_, err := New(fp).Analyze(context.Background(), rec)
	var malformed *fault.MalformedInputError
	if !errors.As(err, &malformed) || malformed.Field != "company_info.name" {
		t.Fatalf("Analyze() error = %v, want MalformedInputError on company_info.name", err)
	}
	if fp.calls != 0 {
		t.Errorf("provider should not be called")
	}
}

func TestAnalyzeMissingCurrentYear(t *testing.T) {
	fp := &fakeProvider{}
	rec := acme()
	rec.Financials.CurrentYear = nil
	_, err := New(fp).Analyze(context.Background(), rec)
	var malformed *fault.MalformedInputError
	if !errors.As(err, &malformed) || malformed.Field != "financials.current_year" {
		t.Fatalf("Analyze() error = %v, want MalformedInputError", err)
	}
	if fp.calls != 0 {
		t.Errorf("provider should not be called")
	}
}

func TestAnalyzeProviderFailure(t *testing.T) {
	boom := errors.New("503 service unavailable")
	_, err := New(&fakeProvider{err: boom}).Analyze(context.Background(), acme())
	var pe *fault.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("Analyze() error = %v, want ProviderError", err)
	}
	if pe.Provider != "fake" || !errors.Is(err, boom) {
		t.Errorf("unexpected provider error %+v", pe)
	}

	_, err = New(&fakeProvider{err: context.DeadlineExceeded}).Analyze(context.Background(), acme())
	if fault.Classify(err) != fault.KindProvider {
		t.Errorf("timeout should classify as provider failure, got %v", fault.Classify(err))
	}
}

func TestAnalyzeSchemaFailure(t *testing.T) {
	raw := `{"summary":"ok","final_verdict":"APPROVE","rationale":"r"}`
	res, err := New(&fakeProvider{reply: raw}).Analyze(context.Background(), acme())
	if res != nil {
		t.Fatalf("Analyze() returned partial result %+v", res)
	}
	var se *fault.SchemaValidationError
	if !errors.As(err, &se) {
		t.Fatalf("Analyze() error = %v, want SchemaValidationError", err)
	}
	if se.Raw != raw {
		t.Errorf("Raw = %q", se.Raw)
	}
}
