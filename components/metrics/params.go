package metrics

import (
	"github.com/iotaledger/hive.go/app"
)

// ParametersMetrics contains the definition of the parameters used by the metrics component.
type ParametersMetrics struct {
	// Enabled defines whether the metrics component is enabled.
	Enabled bool `default:"true" usage:"whether the metrics component is enabled"`
	// BindAddress defines the bind address on which the Prometheus exporter listens on.
	BindAddress string `default:"0.0.0.0:9311" usage:"the bind address on which the Prometheus exporter listens on"`
	// GoMetrics defines whether to include Go metrics.
	GoMetrics bool `default:"false" usage:"include go metrics"`
	// ProcessMetrics defines whether to include process metrics.
	ProcessMetrics bool `default:"false" usage:"include process metrics"`
}

var ParamsMetrics = &ParametersMetrics{}

var params = &app.ComponentParams{
	Params: map[string]any{
		"metrics": ParamsMetrics,
	},
}
