// Command scopedauthd is a demo server for token-scoped authentication.
//
// Try it out with:
//
//	curl -i -X POST localhost:8080/login -d '{"subject":"alice"}'
//	curl -X POST localhost:8080/actions/whoami -H "Authorization: Bearer <token>"
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/auth0/go-scoped-auth/config"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	log := logrus.New()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	if err := configureLogger(log, cfg.Log); err != nil {
		log.WithError(err).Fatal("failed to configure logger")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv, err := newServer(ctx, cfg, log, reg)
	if err != nil {
		log.WithError(err).Fatal("failed to set up server")
	}
	defer srv.closeStore()

	httpServer := &http.Server{Addr: cfg.Server.Addr, Handler: srv.handler}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("shutdown did not complete")
		}
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("tracer shutdown did not complete")
		}
	}()

	log.WithFields(logrus.Fields{
		"addr":  cfg.Server.Addr,
		"store": cfg.Store.Driver,
		"model": cfg.Auth.ExecutionModel,
	}).Info("listening")

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server failed")
	}
}

func configureLogger(log *logrus.Logger, cfg config.LogConfig) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return nil
}
