package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/engine"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/fault"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/model"
)

var runAt = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func sampleOutcome() *engine.Outcome {
	return &engine.Outcome{
		StartedAt: runAt,
		Total:     2,
		Results: []model.AnalysisResult{
			model.NewAnalysisResult(runAt, "Acme, Inc.", model.RatioSet{
				Liquidity: decimal.RequireFromString("2"),
				Margin:    decimal.RequireFromString("10"),
				Growth:    decimal.RequireFromString("25"),
			}, model.CreditReport{Summary: "Healthy \"cash\"", RiskScore: 20, FinalVerdict: model.VerdictApprove, Rationale: "ok"}),
		},
		Diagnostics: []engine.Diagnostic{
			{Index: 1, Item: "beta.json", Kind: fault.KindSchemaValidation, Message: "schema validation: missing risk_score", Raw: "{}"},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	report, err := sampleOutcome().Report()
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, report); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records", len(records))
	}
	for i, col := range model.Columns {
		if records[0][i] != col {
			t.Errorf("header[%d] = %q, want %q", i, records[0][i], col)
		}
	}
	row := records[1]
	if row[1] != "Acme, Inc." || row[2] != "2.00" || row[4] != "25.00" || row[5] != `Healthy "cash"` || row[7] != "APPROVE" {
		t.Errorf("row = %q", row)
	}
}

func TestSaveRun(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	paths, err := SaveRun(dir, sampleOutcome())
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if filepath.Base(paths.Report) != "consolidated_report_20260301_0930.csv" {
		t.Errorf("report path = %s", paths.Report)
	}
	if filepath.Base(paths.Diagnostics) != "diagnostics_20260301_0930.json" {
		t.Errorf("diagnostics path = %s", paths.Diagnostics)
	}

	data, err := os.ReadFile(paths.Diagnostics)
	if err != nil {
		t.Fatal(err)
	}
	var diags []engine.Diagnostic
	if err := json.Unmarshal(data, &diags); err != nil {
		t.Fatal(err)
	}
	if len(diags) != 1 || diags[0].Kind != fault.KindSchemaValidation || diags[0].Raw != "{}" {
		t.Errorf("diagnostics = %+v", diags)
	}
}

func TestSaveRunNothingProcessed(t *testing.T) {
	out := sampleOutcome()
	out.Results = nil
	dir := t.TempDir()

	paths, err := SaveRun(dir, out)
	if !errors.Is(err, engine.ErrNothingProcessed) {
		t.Fatalf("SaveRun() error = %v, want ErrNothingProcessed", err)
	}
	if paths.Report != "" {
		t.Errorf("no report should be written, got %s", paths.Report)
	}
	if _, err := os.Stat(filepath.Join(dir, ReportFileName(runAt))); !os.IsNotExist(err) {
		t.Errorf("report file should not exist")
	}
}

func TestSaveRunWithoutFailures(t *testing.T) {
	out := sampleOutcome()
	out.Diagnostics = nil
	paths, err := SaveRun(t.TempDir(), out)
	if err != nil {
		t.Fatal(err)
	}
	if paths.Diagnostics != "" {
		t.Errorf("diagnostics file written without failures: %s", paths.Diagnostics)
	}
}

func TestDownloadFileName(t *testing.T) {
	if got := DownloadFileName(runAt); got != "kyp_report_20260301.csv" {
		t.Errorf("DownloadFileName() = %q", got)
	}
}
