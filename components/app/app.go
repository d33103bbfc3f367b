package app

import (
	"github.com/iotaledger/hive.go/app"
	"github.com/iotaledger/hive.go/app/components/profiling"
	"github.com/iotaledger/hive.go/app/components/shutdown"

	"github.com/exonum/cryptocurrency/components/blockchain"
	"github.com/exonum/cryptocurrency/components/metrics"
	"github.com/exonum/cryptocurrency/components/restapi"
	coreapi "github.com/exonum/cryptocurrency/components/restapi/core"
)

var (
	// Name of the app.
	Name = "cryptocurrency"

	// Version of the app.
	Version = "0.1.0"
)

func App() *app.App {
	return app.New(Name, Version,
		app.WithInitComponent(InitComponent),
		app.WithComponents(
			shutdown.Component,
			profiling.Component,
			blockchain.Component,
			restapi.Component,
			coreapi.Component,
			metrics.Component,
		),
	)
}

var InitComponent *app.InitComponent

func init() {
	InitComponent = &app.InitComponent{
		Component: &app.Component{
			Name: "App",
		},
		NonHiddenFlags: []string{
			"config",
			"help",
			"version",
		},
	}
}
