package main

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/xbanchon/image-optimizer/internal/format"
	"github.com/xbanchon/image-optimizer/internal/processor"
	"go.uber.org/zap"
)

type application struct {
	config    config
	logger    *zap.SugaredLogger
	optimizer *processor.ReEncoder
}

type config struct {
	addr      string
	env       string
	optimizer optimizerConfig
}

type optimizerConfig struct {
	engine         string
	defaultQuality int
	targets        []format.Format
	maxUploadBytes int64
	previewWidth   int
	maxPixels      int64
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Set a timeout value on the request context (ctx), that will signal
	// through ctx.Done() that the request has timed out and further
	// processing should be stopped.
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", app.healthCheckHandler)
		r.Get("/debug/vars", expvar.Handler().ServeHTTP)

		r.Route("/images", func(r chi.Router) {
			r.Use(app.UploadLimitMiddleware)
			r.Post("/targets", app.targetsHandler)
			r.Post("/optimize", app.optimizeImageHandler)
			r.Post("/report", app.reportHandler)
			r.Post("/preview", app.previewHandler)
		})
	})

	return r
}

// run serves mux until SIGINT or SIGTERM.
func (app *application) run(mux http.Handler) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return app.serve(ctx, mux)
}

// serve serves mux until ctx is done, then shuts down gracefully. A clean
// shutdown returns nil.
func (app *application) serve(ctx context.Context, mux http.Handler) error {

	srv := http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 90,
		ReadTimeout:  time.Second * 30,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error, 1)

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("shutting down", "reason", context.Cause(ctx).Error())

		shutdown <- srv.Shutdown(shutdownCtx)
	}()

	app.logger.Infow("server started", "addr", app.config.addr, "env", app.config.env, "engine", app.config.optimizer.engine)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server stopped", "addr", app.config.addr)

	return nil
}
