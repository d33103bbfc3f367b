package metrics

// metrics exposes the node's ledger gauges and counters as prometheus
// metrics. Metrics naming follows the guidelines from:
// https://prometheus.io/docs/practices/naming/

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/dig"

	"github.com/iotaledger/hive.go/app"
	"github.com/iotaledger/hive.go/ierrors"

	"github.com/exonum/cryptocurrency/pkg/blockchain"
	"github.com/exonum/cryptocurrency/pkg/daemon"
)

func init() {
	Component = &app.Component{
		Name:     "Metrics",
		DepsFunc: func(cDeps dependencies) { deps = cDeps },
		Params:   params,
		Run:      run,
		IsEnabled: func(container *dig.Container) bool {
			return ParamsMetrics.Enabled
		},
	}
}

var (
	Component *app.Component
	deps      dependencies

	server *http.Server
)

type dependencies struct {
	dig.In

	Blockchain *blockchain.Blockchain
}

func run() error {
	registry := prometheus.NewRegistry()

	if ParamsMetrics.GoMetrics {
		registry.MustRegister(collectors.NewGoCollector())
	}
	if ParamsMetrics.ProcessMetrics {
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "ledger_transactions_submitted_total",
		Help: "number of transactions accepted into the ordering pipeline",
	}, func() float64 {
		return float64(deps.Blockchain.SubmittedTransactions())
	}))
	registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "ledger_transactions_committed_total",
		Help: "number of transactions committed into blocks",
	}, func() float64 {
		return float64(deps.Blockchain.CommittedTransactions())
	}))
	registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "ledger_block_height",
		Help: "height of the latest committed block",
	}, func() float64 {
		return float64(deps.Blockchain.LatestHeight())
	}))

	return Component.Daemon().BackgroundWorker("Prometheus exporter", func(ctx context.Context) {
		Component.LogInfo("Starting Prometheus exporter ... done")

		engine := echo.New()
		engine.HideBanner = true
		engine.HidePort = true
		engine.Use(middleware.Recover())

		engine.GET("/metrics", func(c echo.Context) error {
			handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
			handler.ServeHTTP(c.Response().Writer, c.Request())

			return nil
		})

		bindAddr := ParamsMetrics.BindAddress
		server = &http.Server{Addr: bindAddr, Handler: engine, ReadTimeout: 5 * time.Second, WriteTimeout: 5 * time.Second}

		go func() {
			Component.LogInfof("You can now access the Prometheus exporter using: http://%s/metrics", bindAddr)
			if err := server.ListenAndServe(); err != nil && !ierrors.Is(err, http.ErrServerClosed) {
				Component.LogError("Stopping Prometheus exporter due to an error ... done")
			}
		}()

		<-ctx.Done()
		Component.LogInfo("Stopping Prometheus exporter ...")

		if server != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := server.Shutdown(shutdownCtx); err != nil {
				Component.LogError(err.Error())
			}
			cancel()
		}
		Component.LogInfo("Stopping Prometheus exporter ... done")
	}, daemon.PriorityMetrics)
}
