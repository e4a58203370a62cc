package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/analyst"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/config"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/engine"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/logger"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/provider"
	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/provider/factory"
)

// 退出码
const (
	ExitOK          = 0
	ExitFatal       = 1
	ExitNothingDone = 2
)

// ExitError 携带进程退出码的错误
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode 把命令返回的错误映射为进程退出码
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFatal
}

// ProviderFactory 根据配置创建推理服务
type ProviderFactory func(ctx context.Context, cfg *config.Config) (provider.Provider, error)

// App 各子命令共享的状态
type App struct {
	cfgPath     string
	cfg         *config.Config
	newProvider ProviderFactory
}

// Option 根命令选项
type Option func(*App)

// WithProviderFactory 替换推理服务的创建方式
func WithProviderFactory(f ProviderFactory) Option {
	return func(a *App) { a.newProvider = f }
}

// NewRootCmd creates the root command
func NewRootCmd(opts ...Option) *cobra.Command {
	app := &App{newProvider: factory.NewProvider}
	for _, opt := range opts {
		opt(app)
	}

	rootCmd := &cobra.Command{
		Use:   "credit_radar",
		Short: "Credit Radar - automated credit risk analysis",
		Long: `Credit Radar computes liquidity, margin and growth ratios from company financial
statements and asks a reasoning model for a schema-validated credit verdict,
one company at a time or as a batch.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(app.cfgPath)
			if err != nil {
				return fmt.Errorf("无法加载配置文件: %w", err)
			}
			if err := logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
				return fmt.Errorf("无法初始化日志: %w", err)
			}
			app.cfg = cfg
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&app.cfgPath, "config", "configs/config.yaml", "Configuration file path")

	rootCmd.AddCommand(newBatchCmd(app))
	rootCmd.AddCommand(newAnalyzeCmd(app))
	rootCmd.AddCommand(newPickCmd(app))
	rootCmd.AddCommand(newConfigCmd(app))

	return rootCmd
}

// engine 校验配置并组装分析流水线，配置缺失属于致命错误
func (a *App) engine(ctx context.Context) (*engine.Engine, *analyst.Analyst, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, nil, &ExitError{Code: ExitFatal, Err: err}
	}
	p, err := a.newProvider(ctx, a.cfg)
	if err != nil {
		return nil, nil, &ExitError{Code: ExitFatal, Err: err}
	}
	logger.Log.Infof("推理服务: %s, 模型: %s", p.Name(), a.cfg.LLM.Model)
	an := analyst.New(p, analyst.WithLanguage(a.cfg.LLM.Language))
	return engine.NewEngine(an), an, nil
}

func printProgress(w io.Writer) func(engine.Progress) {
	return func(p engine.Progress) {
		fmt.Fprintf(w, "🔄 [%d/%d] %s\n", p.Done, p.Total, p.Item.Item)
		if r := p.Item.Result; r != nil {
			fmt.Fprintf(w, "   ✅ Verdict: %s (Score: %d)\n", r.FinalVerdict, r.RiskScore)
			return
		}
		fmt.Fprintf(w, "   ❌ %s: %s\n", p.Item.Diagnostic.Kind, p.Item.Diagnostic.Message)
	}
}
