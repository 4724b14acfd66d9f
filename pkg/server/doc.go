// Package server serves the telemetry endpoints of a ferry stage.
//
// The server is a plain HTTP listener for the Prometheus metrics endpoint
// and the health probes. It shuts down gracefully when its context is
// cancelled:
//
//	mux := http.NewServeMux()
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//	health.Register(mux, checker, cfg.Telemetry.Health, info)
//
//	srv := server.NewServer(server.Config{ListenAddress: addr}, mux, logger)
//	g.Go(func() error { return srv.Start(ctx) })
//
// Every request passes through panic recovery and debug-level request
// logging.
package server
