package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/jborges/sdtp/internal/config"
	"github.com/jborges/sdtp/internal/payload"
	"github.com/jborges/sdtp/internal/server"
	"github.com/jborges/sdtp/internal/telemetry"
	"github.com/jborges/sdtp/internal/wire"
)

const version = "1.0.0"

func main() {
	telemetry.Banner("SDTP Server", version)

	cfg, err := config.ParseServer(os.Args[1:])
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	log := telemetry.NewLogger(parseLevel(cfg.LogLevel))

	data, err := payload.Load(config.PayloadFile, wire.LoremSize)
	if err != nil {
		log.WithError(err).Fatal("failed to load payload file")
	}
	datasum := payload.Sum(data)
	log.WithField("checksum", datasum).Info("loaded expected payload")

	srv, err := server.New(server.Config{
		Host:            "",
		Port:            config.DefaultPort,
		ExpectedPayload: data,
		ExpectedSum:     datasum,
		Seed:            cfg.Seed,
		IdleTimeout:     cfg.IdleTimeout,
		Logger:          log,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to bind server socket")
	}
	defer srv.Close()

	log.WithField("port", config.DefaultPort).Info("listening for UDP connections")

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(ctx)
	}()

	select {
	case sig := <-sigCh:
		log.WithField("signal", sig).Warn("shutting down")
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil && err != context.Canceled {
			log.WithError(err).Error("server loop exited")
		}
	}
}

func parseLevel(name string) logrus.Level {
	level, err := logrus.ParseLevel(name)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
