package export

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/kidoz/zabbix-event-export-go/internal/metrics"
	"github.com/kidoz/zabbix-event-export-go/internal/zabbix"
)

// Module provides the Exporter and its Zabbix client for fx injection.
var Module = fx.Module("export",
	fx.Provide(ProvideExporter),
	zabbix.Module,
)

// ProvideExporter assembles an Exporter from its injected dependencies.
func ProvideExporter(log *zap.Logger, client *zabbix.Client, rec *metrics.Recorder) *Exporter {
	return NewExporter(client, log, rec)
}
