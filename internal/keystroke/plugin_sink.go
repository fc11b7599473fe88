package keystroke

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/ayusman/depthkeys/internal/plugin"
)

const (
	// DefaultPluginName is the plugin that types keys on the host.
	DefaultPluginName = "keyboard"
	// DefaultQueueSize bounds the keys waiting for the plugin.
	DefaultQueueSize = 64
	// DefaultTimeoutMs limits one plugin invocation.
	DefaultTimeoutMs = 2000
)

// PluginSinkConfig configures a PluginSink.
type PluginSinkConfig struct {
	Plugin    *plugin.Plugin
	Config    json.RawMessage
	QueueSize int
	TimeoutMs int
	Logger    *slog.Logger
}

// PluginSink hands keys to a key-delivery plugin from a single worker
// goroutine. Keys arriving while the queue is full are dropped.
type PluginSink struct {
	plugin   *plugin.Plugin
	config   json.RawMessage
	executor *plugin.Executor
	logger   *slog.Logger

	queue     chan string
	stopped   chan struct{}
	closeOnce sync.Once
	cancel    context.CancelFunc

	delivered atomic.Int64
	dropped   atomic.Int64
	failed    atomic.Int64
}

// NewPluginSink validates the plugin and its config and starts the worker.
func NewPluginSink(cfg PluginSinkConfig) (*PluginSink, error) {
	if cfg.Plugin == nil {
		return nil, plugin.ErrPluginNotFound
	}
	if !cfg.Plugin.Manifest.Supports(plugin.ActionKeystroke) {
		return nil, fmt.Errorf("plugin %s does not support %q", cfg.Plugin.Manifest.Name, plugin.ActionKeystroke)
	}
	if err := plugin.ValidateConfig(cfg.Plugin.Manifest, cfg.Config); err != nil {
		return nil, err
	}

	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.TimeoutMs <= 0 {
		cfg.TimeoutMs = DefaultTimeoutMs
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &PluginSink{
		plugin:   cfg.Plugin,
		config:   cfg.Config,
		executor: plugin.NewExecutor(cfg.TimeoutMs),
		logger:   cfg.Logger.With("plugin", cfg.Plugin.Manifest.Name),
		queue:    make(chan string, cfg.QueueSize),
		stopped:  make(chan struct{}),
		cancel:   cancel,
	}
	go s.run(ctx)
	return s, nil
}

// Send queues the key without blocking.
func (s *PluginSink) Send(key string) {
	select {
	case <-s.stopped:
		return
	default:
	}

	select {
	case s.queue <- key:
	default:
		s.dropped.Add(1)
		s.logger.Warn("key dropped, plugin queue full", "key", key)
	}
}

func (s *PluginSink) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case key := <-s.queue:
			s.deliver(ctx, key)
		}
	}
}

func (s *PluginSink) deliver(ctx context.Context, key string) {
	resp, err := s.executor.Execute(ctx, s.plugin, &plugin.Request{
		Action: plugin.ActionKeystroke,
		Key:    key,
		Config: s.config,
	})
	if err != nil {
		s.failed.Add(1)
		s.logger.Error("key delivery failed", "key", key, "error", err)
		return
	}
	if !resp.Success {
		s.failed.Add(1)
		s.logger.Warn("plugin rejected key", "key", key, "error", resp.Error)
		return
	}
	s.delivered.Add(1)
	s.logger.Debug("key delivered", "key", key)
}

// Stats returns delivered, dropped and failed counts.
func (s *PluginSink) Stats() (delivered, dropped, failed int64) {
	return s.delivered.Load(), s.dropped.Load(), s.failed.Load()
}

// Close stops the worker. Queued keys that were not delivered are discarded.
func (s *PluginSink) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopped)
		s.cancel()
	})
	return nil
}
