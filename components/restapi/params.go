package restapi

import (
	"github.com/iotaledger/hive.go/app"
)

// ParametersRestAPI contains the definition of the parameters used by the REST API.
type ParametersRestAPI struct {
	// Enabled defines whether the REST API component is enabled.
	Enabled bool `default:"true" usage:"whether the REST API component is enabled"`
	// the bind address on which the REST API listens on
	BindAddress string `default:"0.0.0.0:8080" usage:"the bind address on which the REST API listens on"`
	// whether the debug logging for requests should be enabled
	DebugRequestLoggerEnabled bool `default:"false" usage:"whether the debug logging for requests should be enabled"`

	Limits struct {
		// the maximum number of characters that the body of an API call may contain
		MaxBodyLength string `default:"1M" usage:"the maximum number of characters that the body of an API call may contain"`
	}
}

var ParamsRestAPI = &ParametersRestAPI{}

var params = &app.ComponentParams{
	Params: map[string]any{
		"restAPI": ParamsRestAPI,
	},
}
