package core

import (
	"net/http"
	"time"

	chimd "github.com/go-chi/chi/v5/middleware"
	manifest "github.com/joeydtaylor/steeze-sinks/pkg/manifest"
	hmetrics "github.com/joeydtaylor/steeze-sinks/pkg/middleware/metrics"
	"go.uber.org/zap"
)

func BuildRouter(cfg manifest.Config, d BuildDeps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	r := d.Router
	r.Use(chimd.RequestID, chimd.Recoverer, chimd.Heartbeat("/ping"))

	if d.Auth != nil {
		r.Use(d.Auth.Middleware())
		if d.LogMW != nil {
			r.Use(d.LogMW.Middleware(d.Auth))
		}
		// metrics collector that references auth state without copying it
		r.Use(hmetrics.Collect(d.Auth))
	} else {
		if d.LogMW != nil {
			r.Use(d.LogMW.Middleware(nil))
		}
		r.Use(hmetrics.Collect(nil))
	}

	if d.Metrics != nil {
		r.Handle(http.MethodGet, "/metrics", d.Metrics)
	}

	h := handlers{svc: d.Service, log: d.Logger}
	timeout := time.Duration(cfg.Policy.TimeoutMS) * time.Millisecond
	limit := newLimiter(cfg.Policy.RateLimit)

	read := func(fn http.HandlerFunc) http.Handler {
		return withGuard(withTimeout(fn, timeout), d.Auth, cfg.Auth.Read)
	}
	write := func(fn http.HandlerFunc) http.Handler {
		return withGuard(withRateLimit(withTimeout(fn, timeout), limit), d.Auth, cfg.Auth.Write)
	}

	r.Get("/api/sink-types", read(h.types))
	r.Get("/api/sinks", read(h.list))
	r.Get("/api/sinks/{name}", read(h.get))
	r.Post("/api/sinks/validate", read(h.validate))
	r.Post("/api/sinks", write(h.create))
	r.Put("/api/sinks/{name}", write(h.replace))
	r.Delete("/api/sinks/{name}", write(h.remove))

	if cfg.UI.Dir != "" {
		r.Mount("/ui", http.StripPrefix("/ui", http.FileServer(http.Dir(cfg.UI.Dir))))
	}
	return r.Mux()
}
