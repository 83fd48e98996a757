// Package metrics emits DogStatsD metrics for the bridge. All methods are
// nil-safe so callers never have to guard on whether metrics are enabled.
package metrics

import (
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"go.uber.org/zap"
)

// Reporter wraps a DogStatsD client.
type Reporter struct {
	client *statsd.Client
	logger *zap.Logger
}

// New connects to the statsd agent at addr. An empty addr disables
// metrics and returns nil, which every method tolerates.
func New(addr, namespace string, logger *zap.Logger) *Reporter {
	if addr == "" {
		return nil
	}

	client, err := statsd.New(addr)
	if err != nil {
		logger.Warn("Failed to create DogStatsD client", zap.Error(err))
		return nil
	}
	client.Namespace = namespace

	logger.Info("Metrics reporting enabled",
		zap.String("addr", addr),
		zap.String("namespace", namespace))

	return &Reporter{client: client, logger: logger}
}

// Gauge records an instantaneous value.
func (r *Reporter) Gauge(name string, value float64, tags ...string) {
	if r == nil {
		return
	}
	if err := r.client.Gauge(name, value, tags, 1); err != nil {
		r.logger.Warn("Failed to emit gauge metric", zap.String("metric", name), zap.Error(err))
	}
}

// Incr bumps a counter by one.
func (r *Reporter) Incr(name string, tags ...string) {
	if r == nil {
		return
	}
	if err := r.client.Incr(name, tags, 1); err != nil {
		r.logger.Warn("Failed to emit count metric", zap.String("metric", name), zap.Error(err))
	}
}

// Timing records a duration.
func (r *Reporter) Timing(name string, value time.Duration, tags ...string) {
	if r == nil {
		return
	}
	if err := r.client.Timing(name, value, tags, 1); err != nil {
		r.logger.Warn("Failed to emit timing metric", zap.String("metric", name), zap.Error(err))
	}
}

// Close flushes and closes the underlying client.
func (r *Reporter) Close() {
	if r == nil {
		return
	}
	if err := r.client.Close(); err != nil {
		r.logger.Warn("Failed to close DogStatsD client", zap.Error(err))
	}
}
