package app

import (
	"shuttle/internal/config"
	"shuttle/internal/coordinator"
	"shuttle/internal/domain"
	"shuttle/internal/health"
	"shuttle/internal/logsink"
	"shuttle/internal/ws"

	"go.uber.org/zap"
)

type Container struct {
	Config      *config.Config
	Store       domain.Store
	Sink        *logsink.Sink
	Coordinator *coordinator.Coordinator
	Hub         *ws.Hub
	Prober      *health.Prober
	Log         *zap.Logger
}
