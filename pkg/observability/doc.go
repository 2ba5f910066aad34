/*
Package observability turns funnel lifecycle events into Prometheus metrics and
structured log lines.

Both are exposed as domain.LifecycleHooks, so they compose with any other hooks:

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := metrics.Hooks().Merge(observability.LogHooks(logger))
	c := controller.New(doc, controller.WithLifecycleHooks(hooks))
*/
package observability
