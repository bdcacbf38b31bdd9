package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/routekit/core/logger"
	"github.com/dmitrymomot/routekit/core/router"
	"github.com/dmitrymomot/routekit/core/session"
	"github.com/dmitrymomot/routekit/core/socket"
	"github.com/dmitrymomot/routekit/metrics"
	"github.com/dmitrymomot/routekit/middleware"
)

func routesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Print the route table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := offlineDispatcher()
			if err != nil {
				return err
			}
			return printRoutes(cmd.OutOrStdout(), d.Routes())
		},
	}
}

// offlineDispatcher builds the demo routes against in-memory collaborators.
func offlineDispatcher() (*router.Dispatcher, error) {
	tokens, err := middleware.NewCSRFTokens([]byte(strings.Repeat("x", 32)))
	if err != nil {
		return nil, err
	}
	app, err := newApp(deps{
		log:       logger.Discard(),
		visits:    session.NewMemoryStore[visit](),
		rates:     session.NewMemoryStore[middleware.RateWindow](),
		hub:       socket.NewHub(),
		metrics:   metrics.New(),
		csrf:      tokens,
		rateLimit: middleware.RateLimitConfig{Limit: 1000, Window: time.Minute},
	})
	if err != nil {
		return nil, err
	}
	return app.Build()
}

func printRoutes(w io.Writer, routes []router.RouteDescription) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METHODS\tPATTERN\tNAME\tBLUEPRINT")
	for _, r := range routes {
		bp := r.Blueprint
		if bp == "" {
			bp = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", strings.Join(r.Methods, ","), r.Pattern, r.Name, bp)
	}
	return tw.Flush()
}
