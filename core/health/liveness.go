package health

import (
	"net/http"

	"github.com/dmitrymomot/routekit/core/handler"
)

// Liveness reports that the process is serving requests. It checks nothing.
func Liveness(_ *handler.Request, res *handler.Response) error {
	res.Text(http.StatusOK, "ALIVE")
	return nil
}

// NoContent answers 204 with no body, for high-frequency pings.
func NoContent(_ *handler.Request, res *handler.Response) error {
	res.SetStatus(http.StatusNoContent)
	return nil
}
