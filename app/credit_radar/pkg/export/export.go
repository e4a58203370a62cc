package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/engine"
)

// TimestampLayout 输出文件名中的时间戳格式
const TimestampLayout = "20060102_1504"

// ReportFileName 汇总报表文件名
func ReportFileName(at time.Time) string {
	return fmt.Sprintf("consolidated_report_%s.csv", at.Format(TimestampLayout))
}

// DiagnosticsFileName 诊断文件名
func DiagnosticsFileName(at time.Time) string {
	return fmt.Sprintf("diagnostics_%s.json", at.Format(TimestampLayout))
}

// DownloadFileName 交互式下载时的文件名
func DownloadFileName(at time.Time) string {
	return fmt.Sprintf("kyp_report_%s.csv", at.Format("20060102"))
}

// WriteCSV 写出表头与全部行，列顺序与 report.Columns 一致
func WriteCSV(w io.Writer, report *engine.ConsolidatedReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(report.Columns); err != nil {
		return err
	}
	for _, row := range report.Rows {
		if err := cw.Write(row.Row()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDiagnostics 以 JSON 数组写出诊断信息
func WriteDiagnostics(w io.Writer, diags []engine.Diagnostic) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if diags == nil {
		diags = []engine.Diagnostic{}
	}
	return enc.Encode(diags)
}

// Paths SaveRun 写出的文件
type Paths struct {
	Report      string
	Diagnostics string
}

// SaveRun 在 dir 下写出本次运行的文件。
// 有成功结果时写汇总报表；有失败时写诊断文件；没有任何成功结果时返回 engine.ErrNothingProcessed（诊断仍会写出）。
func SaveRun(dir string, outcome *engine.Outcome) (Paths, error) {
	var paths Paths
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return paths, fmt.Errorf("create output dir: %w", err)
	}

	if len(outcome.Diagnostics) > 0 {
		p := filepath.Join(dir, DiagnosticsFileName(outcome.StartedAt))
		if err := writeFile(p, func(w io.Writer) error { return WriteDiagnostics(w, outcome.Diagnostics) }); err != nil {
			return paths, err
		}
		paths.Diagnostics = p
	}

	report, err := outcome.Report()
	if err != nil {
		return paths, err
	}
	p := filepath.Join(dir, ReportFileName(outcome.StartedAt))
	if err := writeFile(p, func(w io.Writer) error { return WriteCSV(w, report) }); err != nil {
		return paths, err
	}
	paths.Report = p
	return paths, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
