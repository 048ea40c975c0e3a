package cmd

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/kidoz/zabbix-event-export-go/internal/config"
	"github.com/kidoz/zabbix-event-export-go/internal/export"
	"github.com/kidoz/zabbix-event-export-go/internal/metrics"
)

func initExporter(cfg *config.Config, log *zap.Logger, rec *metrics.Recorder) (*export.Exporter, error) {
	var x *export.Exporter
	app := fx.New(
		fx.NopLogger,
		fx.Supply(cfg, log, rec),
		export.Module,
		fx.Populate(&x),
	)
	if err := app.Err(); err != nil {
		return nil, err
	}
	return x, nil
}
