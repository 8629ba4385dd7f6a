package main

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/jborges/sdtp/internal/client"
	"github.com/jborges/sdtp/internal/config"
	"github.com/jborges/sdtp/internal/payload"
	"github.com/jborges/sdtp/internal/telemetry"
	"github.com/jborges/sdtp/internal/wire"
)

const version = "1.0.0"

func main() {
	telemetry.Banner("SDTP Client", version)

	cfg, err := config.ParseClient(os.Args[1:])
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	log := telemetry.NewLogger(parseLevel(cfg.LogLevel))

	data, err := payload.Load(config.PayloadFile, wire.LoremSize)
	if err != nil {
		log.WithError(err).Error("failed to load payload file")
		os.Exit(2)
	}

	cl, err := client.New(client.Config{
		ServerHost: cfg.ServerHost,
		ServerPort: cfg.ServerPort,
		Payload:    data,
		Logger:     log,
	})
	if err != nil {
		log.WithError(err).Error("failed to open client socket")
		os.Exit(2)
	}
	defer cl.Close()

	log.WithField("server", cfg.ServerHost).Info("starting upload")

	ok, err := cl.Run(context.Background())
	if err != nil {
		log.WithError(err).Error("transfer failed")
		os.Exit(2)
	}
	if !ok {
		log.Error("server rejected the transfer (checksum mismatch)")
		os.Exit(3)
	}

	log.Info("transfer complete")
	os.Exit(0)
}

func parseLevel(name string) logrus.Level {
	level, err := logrus.ParseLevel(name)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
