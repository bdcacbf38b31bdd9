// Package metrics exports router dispatch observations to Prometheus.
//
//	m := metrics.New()
//	app := router.New(router.WithObserver(m))
//	app.Get("/metrics", m.Handler())
//
// Requests are labelled by route pattern rather than raw path; requests that
// match no route share the "unmatched" label.
package metrics
