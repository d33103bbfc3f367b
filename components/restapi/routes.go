package restapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	// RouteHealth is the route for querying the health of the node.
	RouteHealth = "/health"
)

func setupRoutes() {
	deps.Echo.GET(RouteHealth, func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
}
