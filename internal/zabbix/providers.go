package zabbix

import "go.uber.org/fx"

// Module provides the Zabbix API client for fx injection.
var Module = fx.Module("zabbix",
	fx.Provide(NewClient),
)
