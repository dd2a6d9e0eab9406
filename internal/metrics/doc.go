// Package metrics records build observations.
//
// Components receive a Recorder and default to NoopRecorder, so metrics can be
// switched on without touching call sites:
//
//	reg := metrics.NewRegistry()
//	coordinator := build.NewCoordinator(cfg, deps).WithRecorder(metrics.NewPrometheusRecorder(reg))
//	mux.Handle("/metrics", metrics.HTTPHandler(reg))
package metrics
