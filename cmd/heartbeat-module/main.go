package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/seanorg/heartbeat-module/internal/config"
	"github.com/seanorg/heartbeat-module/internal/events"
	"github.com/seanorg/heartbeat-module/internal/host"
	"github.com/seanorg/heartbeat-module/internal/httpserver"
	"github.com/seanorg/heartbeat-module/internal/logging"
	"github.com/seanorg/heartbeat-module/internal/registry"
	"github.com/seanorg/heartbeat-module/internal/reloader"
	"go.uber.org/zap"

	// models register themselves
	_ "github.com/seanorg/heartbeat-module/internal/fakecamera"
	_ "github.com/seanorg/heartbeat-module/internal/fakevision"
	_ "github.com/seanorg/heartbeat-module/internal/heartbeat"
)

func loadConfig(env config.Env) (*config.Config, error) {
	cfg, err := config.Load(env.ConfigPath)
	if err != nil {
		return nil, err
	}
	env.Apply(cfg)
	return cfg, nil
}

func main() {
	env, err := config.ParseEnv()
	if err != nil {
		panic(err)
	}
	cfg, err := loadConfig(env)
	if err != nil {
		panic(err)
	}

	logger, err := logging.New(logging.Cfg{
		Level: cfg.Logging.Level,
		JSON:  cfg.Logging.JSON,
	})
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	fmt.Println(`
  _                     _   _           _
 | |__   ___  __ _ _ __| |_| |__   ___ | |_
 | '_ \ / _ \/ _' | '__| __| '_ \ / _ \| __|
 | | | |  __/ (_| | |  | |_| |_) |  __/| |_
 |_| |_|\___|\__,_|_|   \__|_.__/ \___| \__|

heartbeat module host
---------------------
Config:  ` + env.ConfigPath + `
`)

	for _, reg := range registry.Default().Registered() {
		logger.Info("model available", zap.Stringer("api", reg.API), zap.Stringer("model", reg.Model))
	}

	bus := events.NewBus()
	prom := prometheus.NewRegistry()
	prom.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	h := host.New(registry.Default(), logger, bus, prom)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := h.Apply(ctx, cfg.Resources()); err != nil {
		logger.Warn("some resources failed to start", zap.Error(err))
	}

	srv, err := httpserver.New(cfg, logger, bus, h, prom)
	if err != nil {
		logger.Fatal("http server", zap.Error(err))
	}

	reloader.OnSIGHUP(ctx, func() {
		newCfg, err := loadConfig(env)
		if err != nil {
			logger.Warn("config reload failed", zap.Error(err))
			return
		}
		if err := srv.Reload(newCfg); err != nil {
			logger.Warn("http reload failed", zap.Error(err))
		}
		if err := h.Apply(ctx, newCfg.Resources()); err != nil {
			logger.Warn("some resources failed after reload", zap.Error(err))
		}
		logger.Info("reloaded config and resources")
	})

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Bind, cfg.HTTP.Port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http listening", zap.String("addr", addr))
		if cfg.HTTP.TLS.Enabled {
			if err := httpSrv.ListenAndServeTLS(cfg.HTTP.TLS.Cert, cfg.HTTP.TLS.Key); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("http tls", zap.Error(err))
			}
		} else {
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("http", zap.Error(err))
			}
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down...")
	cancel()

	ctxTimeout, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = httpSrv.Shutdown(ctxTimeout)
	if err := h.Close(ctxTimeout); err != nil {
		logger.Warn("closing resources", zap.Error(err))
	}
	logger.Info("bye")
}
