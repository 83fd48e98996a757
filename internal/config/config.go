// Package config holds the bridge's runtime settings and the persisted
// controller registry. Settings come from the environment; known
// controllers are kept in a YAML file so they survive restarts.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Environment variable names.
const (
	EnvControllerHost = "ADAM_HOST"
	EnvPollInterval   = "ADAM_POLL_INTERVAL_SECONDS"
	EnvListenPort     = "BRIDGE_PORT"
	EnvStatsdAddr     = "STATSD_ADDR"
	EnvDataDir        = "BRIDGE_DATA_DIR"
)

// Defaults.
const (
	DefaultListenPort   = 8082
	DefaultPollInterval = 30 * time.Second
	devicesFile         = "devices.yaml"
)

// Settings is the bridge's process-level configuration.
type Settings struct {
	ControllerHost string
	PollInterval   time.Duration
	ListenPort     int
	StatsdAddr     string
	DataDir        string
}

// FromEnv reads settings from the environment. ADAM_HOST is required;
// everything else has a default.
func FromEnv(logger *zap.Logger) (*Settings, error) {
	host := os.Getenv(EnvControllerHost)
	if host == "" {
		return nil, fmt.Errorf("config: %s must be set", EnvControllerHost)
	}

	settings := &Settings{
		ControllerHost: host,
		PollInterval:   DefaultPollInterval,
		ListenPort:     DefaultListenPort,
		StatsdAddr:     os.Getenv(EnvStatsdAddr),
		DataDir:        os.Getenv(EnvDataDir),
	}
	if settings.DataDir == "" {
		settings.DataDir = "."
	}

	if raw := os.Getenv(EnvPollInterval); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds < 1 {
			return nil, fmt.Errorf("config: invalid %s value %q", EnvPollInterval, raw)
		}
		settings.PollInterval = time.Duration(seconds) * time.Second
	}

	if raw := os.Getenv(EnvListenPort); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port < 1 || port > 65535 {
			return nil, fmt.Errorf("config: invalid %s value %q", EnvListenPort, raw)
		}
		settings.ListenPort = port
	}

	logger.Info("Settings loaded",
		zap.String("controller_host", settings.ControllerHost),
		zap.Duration("poll_interval", settings.PollInterval),
		zap.Int("listen_port", settings.ListenPort))

	return settings, nil
}

// Device is one known controller in the registry, keyed by MAC.
type Device struct {
	MAC             string `yaml:"mac"`
	Host            string `yaml:"host"`
	Name            string `yaml:"name"`
	FirmwareVersion string `yaml:"firmware_version,omitempty"`
}

type deviceRegistry struct {
	Devices []Device `yaml:"devices"`
}

// Store persists the controller registry as YAML.
type Store struct {
	path   string
	logger *zap.Logger

	mu      sync.Mutex
	devices []Device
}

// NewStore creates a store backed by devices.yaml under dataDir and
// loads any existing registry. A missing file starts an empty registry.
func NewStore(dataDir string, logger *zap.Logger) (*Store, error) {
	s := &Store{
		path:   filepath.Join(dataDir, devicesFile),
		logger: logger,
	}

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		logger.Info("No device registry found, starting empty", zap.String("path", s.path))
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: failed to read device registry: %w", err)
	}

	var registry deviceRegistry
	if err := yaml.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("config: failed to parse device registry: %w", err)
	}
	s.devices = registry.Devices

	logger.Info("Device registry loaded",
		zap.String("path", s.path),
		zap.Int("devices", len(s.devices)))

	return s, nil
}

// Devices returns a copy of the registry.
func (s *Store) Devices() []Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Device(nil), s.devices...)
}

// ByMAC looks up a known controller by MAC address.
func (s *Store) ByMAC(mac string) (Device, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.devices {
		if d.MAC == mac {
			return d, true
		}
	}
	return Device{}, false
}

// Upsert inserts or updates a controller entry and writes the registry
// to disk.
func (s *Store) Upsert(device Device) error {
	if device.MAC == "" {
		return fmt.Errorf("config: device must have a mac address")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for i, d := range s.devices {
		if d.MAC == device.MAC {
			s.devices[i] = device
			found = true
			break
		}
	}
	if !found {
		s.devices = append(s.devices, device)
	}

	return s.save()
}

// save writes the registry under the lock.
func (s *Store) save() error {
	data, err := yaml.Marshal(deviceRegistry{Devices: s.devices})
	if err != nil {
		return fmt.Errorf("config: failed to encode device registry: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("config: failed to write device registry: %w", err)
	}

	s.logger.Debug("Device registry saved",
		zap.String("path", s.path),
		zap.Int("devices", len(s.devices)))
	return nil
}
