package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"convostore/pkg/api"
	"convostore/pkg/logger"
	"convostore/pkg/security"
)

type serverState struct {
	srv *http.Server
}

var httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "convostore",
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "HTTP requests served, by status code and method.",
}, []string{"code", "method"})

func init() {
	prometheus.MustRegister(httpRequests)
}

// handler assembles the full HTTP stack: API routes, metrics, docs, request
// counting, security middleware and the body size cap.
func (a *App) handler() http.Handler {
	root := http.NewServeMux()
	root.Handle("/metrics", promhttp.Handler())
	root.Handle("/docs/", httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))
	root.Handle("/openapi.yaml", http.FileServer(http.Dir("./docs")))
	root.Handle("/", api.Router(a.version))

	h := promhttp.InstrumentHandlerCounter(httpRequests, root)

	sec := security.Middleware(security.SecConfig{
		AllowedOrigins: a.cfg.Security.CORS.AllowedOrigins,
		RPS:            a.cfg.Security.RateLimit.RPS,
		Burst:          a.cfg.Security.RateLimit.Burst,
		IPWhitelist:    a.cfg.Security.IPWhitelist,
	})
	var out http.Handler = sec(h)
	if max := a.cfg.Server.MaxBodySize.Int64(); max > 0 {
		out = http.MaxBytesHandler(out, max)
	}
	return out
}

func (a *App) startHTTP() <-chan error {
	srv := &http.Server{
		Addr:              a.addr,
		Handler:           a.handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	a.srv = &serverState{srv: srv}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	logger.Info("http_listening", "addr", a.addr)
	return errCh
}

func (a *App) stopHTTP() error {
	if a.srv == nil || a.srv.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("http_shutting_down")
	return a.srv.srv.Shutdown(ctx)
}
