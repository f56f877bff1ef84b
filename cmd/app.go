package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"safeher/internal/components"
	"safeher/internal/config"
)

func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		components.SetupLogger("local").Error("load config failed", "err", err)
		return err
	}
	logger := components.SetupLogger(cfg.Env)

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	comps, err := components.InitComponents(appCtx, cfg, logger)
	if err != nil {
		logger.Error("could not init components", "err", err)
		return err
	}

	httpCtx, stopHTTP := context.WithCancel(context.Background())
	defer stopHTTP()
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()

	var workerWG sync.WaitGroup
	workerWG.Add(1)
	go func() {
		defer workerWG.Done()
		comps.Worker.Run(workerCtx)
		logger.Info("notification worker stopped")
	}()

	httpDone := make(chan struct{})
	go func() {
		defer close(httpDone)
		if err := comps.HttpServer.Run(httpCtx); err != nil {
			logger.Error("http server failed", "err", err)
		}
		logger.Info("http server stopped")
	}()

	quitChan := make(chan os.Signal, 1)
	signal.Notify(quitChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quitChan:
		logger.Info("captured signal, initiating shutdown", slog.String("signal", sig.String()))
	case <-httpDone:
		logger.Warn("http server exited, initiating shutdown")
	}

	// New alerts stop first, then the worker drains what was already scheduled.
	stopHTTP()
	<-httpDone
	stopWorker()
	workerWG.Wait()

	logger.Info("shutting down the services...")
	comps.ShutdownAll()
	logger.Info("gracefully shutting down the servers")

	return nil
}
