package server

import (
	"github.com/google/wire"

	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/engine"
	"github.com/iWorld-y/credit_radar/app/display/internal/repo"
	"github.com/iWorld-y/credit_radar/app/display/internal/service"
	"github.com/iWorld-y/credit_radar/app/display/internal/usecase"
)

// ProviderSet 是展示服务的依赖注入 Provider 集合
var ProviderSet = wire.NewSet(
	// Server providers
	NewHTTPServer,

	// Engine providers
	NewAnalysisEngine,
	wire.Bind(new(repo.BatchRunner), new(*engine.Engine)),

	// UseCase providers
	usecase.NewAnalysisUseCase,

	// Service providers
	service.NewAnalysisService,
)
