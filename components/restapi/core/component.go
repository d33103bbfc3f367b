package core

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/dig"

	"github.com/iotaledger/hive.go/app"

	"github.com/exonum/cryptocurrency/components/restapi"
	"github.com/exonum/cryptocurrency/pkg/blockchain"
)

const (
	// RouteAccounts is the route for creating new wallet accounts.
	// POST submits a signed account creation transaction and returns its hash.
	RouteAccounts = "/accounts"

	// RouteTransfer is the route for moving funds between wallets.
	// POST submits a signed transfer transaction and returns its hash.
	RouteTransfer = "/accounts/transfer"

	// RouteAccount is the route for getting a wallet together with its cryptographic proof.
	// GET returns the wallet info and a proof chained to the latest committed block.
	RouteAccount = "/account/:" + ParameterPubKey

	// ParameterPubKey is the name of the public key path parameter.
	ParameterPubKey = "pub_key"
)

func init() {
	Component = &app.Component{
		Name:      "CoreAPIV1",
		DepsFunc:  func(cDeps dependencies) { deps = cDeps },
		Configure: configure,
		IsEnabled: func(c *dig.Container) bool {
			return restapi.ParamsRestAPI.Enabled
		},
	}
}

var (
	Component *app.Component
	deps      dependencies
)

type dependencies struct {
	dig.In

	Echo       *echo.Echo
	Blockchain *blockchain.Blockchain
}

func configure() error {
	if !Component.App().IsComponentEnabled(restapi.Component.Identifier()) {
		Component.LogPanicf("RestAPI component needs to be enabled to use the %s component", Component.Name)
	}

	routeGroup := deps.Echo.Group("/v1")

	routeGroup.POST(RouteAccounts, func(c echo.Context) error {
		resp, err := createAccount(c)
		if err != nil {
			return err
		}

		return c.JSON(http.StatusOK, resp)
	})

	routeGroup.POST(RouteTransfer, func(c echo.Context) error {
		resp, err := transfer(c)
		if err != nil {
			return err
		}

		return c.JSON(http.StatusOK, resp)
	})

	routeGroup.GET(RouteAccount, func(c echo.Context) error {
		resp, err := accountInfo(c)
		if err != nil {
			return err
		}

		return c.JSON(http.StatusOK, resp)
	})

	return nil
}
