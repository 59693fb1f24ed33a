// Package metrics exports form activity to Prometheus: submission outcomes
// and callback latency, schema validation runs, and the flatten cache.
//
//	obs := metrics.NewObserver("")
//	prometheus.MustRegister(obs, metrics.NewCacheCollector(flat.Shared(), ""))
//	form, _ := validator.New(cfg, validator.WithObserver(obs))
package metrics
