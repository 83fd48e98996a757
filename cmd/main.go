package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/johnywind/HA-IoTiX/internal/adam"
	"github.com/johnywind/HA-IoTiX/internal/api"
	"github.com/johnywind/HA-IoTiX/internal/config"
	"github.com/johnywind/HA-IoTiX/internal/coordinator"
	"github.com/johnywind/HA-IoTiX/internal/firmware"
	"github.com/johnywind/HA-IoTiX/internal/metrics"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logger.Warn("No .env file found, using environment variables")
	}

	settings, err := config.FromEnv(logger)
	if err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	logger.Info("Starting IoTiX Adam bridge",
		zap.String("controller", settings.ControllerHost),
		zap.Duration("poll_interval", settings.PollInterval))

	reporter := metrics.New(settings.StatsdAddr, "iotix.", logger)
	defer reporter.Close()

	store, err := config.NewStore(settings.DataDir, logger)
	if err != nil {
		logger.Fatal("Failed to open device registry", zap.Error(err))
	}

	client := adam.NewClient(settings.ControllerHost, logger)
	coord := coordinator.New(client, logger, reporter, settings.PollInterval)
	server := api.NewServer(coord, logger, settings.ListenPort)

	// Every published snapshot and button event goes to websocket
	// clients; snapshots also keep the device registry current.
	coord.OnSnapshot(server.BroadcastSnapshot)
	coord.OnButtonEvent(server.BroadcastButtonEvent)
	coord.OnSnapshot(func(snap *coordinator.Snapshot) {
		if snap.Device.MAC == "" {
			return
		}
		if err := store.Upsert(config.Device{
			MAC:             snap.Device.MAC,
			Host:            settings.ControllerHost,
			Name:            snap.Device.Name,
			FirmwareVersion: snap.Device.FirmwareVersion,
		}); err != nil {
			logger.Error("Failed to update device registry", zap.Error(err))
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// First cycle up front so the API has data immediately. A failure here
	// is not fatal; the poll loop keeps retrying.
	if err := coord.Refresh(ctx); err != nil {
		logger.Warn("Initial refresh failed, controller may be offline", zap.Error(err))
	} else {
		snap := coord.Snapshot()
		logger.Info("Connected to controller",
			zap.String("name", snap.Device.Name),
			zap.String("mac", snap.Device.MAC),
			zap.String("firmware", snap.Device.FirmwareVersion))

		checkFirmware(ctx, client, coord, logger)
	}

	go coord.Run(ctx)
	server.Start()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Bridge running. Press Ctrl+C to exit.")
	<-sigChan

	logger.Info("Shutting down gracefully...")
	cancel()
	if err := server.Stop(); err != nil {
		logger.Error("Failed to stop HTTP server", zap.Error(err))
	}
}

// checkFirmware looks for a newer firmware release and applies it when
// ADAM_AUTO_UPDATE is enabled; otherwise it only logs the availability.
func checkFirmware(ctx context.Context, client *adam.Client, coord *coordinator.Coordinator, logger *zap.Logger) {
	snap := coord.Snapshot()
	if snap == nil || snap.Device.FirmwareVersion == "" {
		return
	}

	updater := firmware.NewUpdater(client, logger)
	release, available, err := updater.UpdateAvailable(ctx, snap.Device.FirmwareVersion)
	if err != nil {
		logger.Warn("Firmware update check failed", zap.Error(err))
		return
	}
	if !available {
		logger.Info("Firmware is up to date", zap.String("version", snap.Device.FirmwareVersion))
		return
	}

	if os.Getenv("ADAM_AUTO_UPDATE") != "true" {
		logger.Info("Set ADAM_AUTO_UPDATE=true to apply the update automatically")
		return
	}

	if err := updater.Apply(ctx, release); err != nil {
		logger.Error("Firmware update failed", zap.Error(err))
		return
	}
	coord.RequestRefresh()
}
