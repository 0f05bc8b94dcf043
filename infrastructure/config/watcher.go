package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ConfigWatcher watches the dynamic configuration file for changes
type ConfigWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	current  *DynamicConfig
	mu       sync.RWMutex
	onChange []func(*DynamicConfig)
	logger   *zap.Logger
	stopCh   chan struct{}
}

// DynamicConfig represents runtime-changeable configuration
type DynamicConfig struct {
	Engine   EngineConfig   `json:"engine"`
	Features Features       `json:"features"`
	Metadata ConfigMetadata `json:"metadata"`
}

// EngineConfig holds the engine knobs that may change at runtime
type EngineConfig struct {
	PollIntervalMs int `json:"pollIntervalMs"`
	FeedPageSize   int `json:"feedPageSize"`
	PublicFetchCap int `json:"publicFetchCap"`
}

// Features holds feature flags
type Features struct {
	RemoteSearch      bool `json:"remoteSearch"`
	AIInterpretation  bool `json:"aiInterpretation"`
	FollowSuggestions bool `json:"followSuggestions"`
}

// ConfigMetadata holds metadata about the configuration
type ConfigMetadata struct {
	Version   string    `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DefaultDynamicConfig returns the values used when no file is configured.
func DefaultDynamicConfig() *DynamicConfig {
	return &DynamicConfig{
		Engine: EngineConfig{
			PollIntervalMs: 2000,
			FeedPageSize:   20,
			PublicFetchCap: 100,
		},
		Features: Features{
			RemoteSearch:     true,
			AIInterpretation: true,
		},
	}
}

// NewConfigWatcher creates a new configuration watcher
func NewConfigWatcher(configPath string, logger *zap.Logger) (*ConfigWatcher, error) {
	// Load initial configuration
	config, err := loadDynamicConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial config: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := watcher.Add(configPath); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch config file: %w", err)
	}

	// Also watch the directory for atomic saves (rename operations)
	dir := filepath.Dir(configPath)
	if err := watcher.Add(dir); err != nil {
		logger.Warn("Failed to watch config directory", zap.Error(err))
	}

	return &ConfigWatcher{
		path:     configPath,
		watcher:  watcher,
		current:  config,
		onChange: make([]func(*DynamicConfig), 0),
		logger:   logger,
		stopCh:   make(chan struct{}),
	}, nil
}

// Current returns the active dynamic configuration
func (w *ConfigWatcher) Current() *DynamicConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers a callback invoked after every successful reload
func (w *ConfigWatcher) OnChange(handler func(*DynamicConfig)) {
	w.onChange = append(w.onChange, handler)
}

// Start begins watching for configuration changes
func (w *ConfigWatcher) Start() {
	go w.watchLoop()
	w.logger.Info("Configuration watcher started", zap.String("path", w.path))
}

// Stop stops watching for configuration changes
func (w *ConfigWatcher) Stop() {
	close(w.stopCh)
	w.watcher.Close()
	w.logger.Info("Configuration watcher stopped")
}

// watchLoop is the main loop that watches for file changes
func (w *ConfigWatcher) watchLoop() {
	// Debounce timer to avoid multiple reloads on editor save patterns
	var debounceTimer *time.Timer
	debounceDuration := 100 * time.Millisecond

	for {
		select {
		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDuration, func() {
					w.handleConfigChange()
				})
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))
		}
	}
}

// handleConfigChange reloads and validates the file, keeping the current
// configuration when the new one is unusable.
func (w *ConfigWatcher) handleConfigChange() {
	w.logger.Info("Configuration file changed, reloading", zap.String("path", w.path))

	newConfig, err := loadDynamicConfig(w.path)
	if err != nil {
		w.logger.Error("Failed to reload configuration", zap.Error(err))
		return
	}

	if err := validateDynamicConfig(newConfig); err != nil {
		w.logger.Error("Invalid configuration, keeping current", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.current = newConfig
	w.mu.Unlock()

	for _, handler := range w.onChange {
		go handler(newConfig)
	}

	w.logger.Info("Configuration reloaded successfully",
		zap.String("version", newConfig.Metadata.Version),
	)
}

// loadDynamicConfig reads and parses the dynamic configuration file
func loadDynamicConfig(path string) (*DynamicConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultDynamicConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}

// validateDynamicConfig performs basic sanity checks
func validateDynamicConfig(config *DynamicConfig) error {
	if config.Engine.PollIntervalMs <= 0 {
		return fmt.Errorf("pollIntervalMs must be positive")
	}
	if config.Engine.FeedPageSize <= 0 || config.Engine.FeedPageSize > 200 {
		return fmt.Errorf("feedPageSize must be between 1 and 200")
	}
	if config.Engine.PublicFetchCap <= 0 {
		return fmt.Errorf("publicFetchCap must be positive")
	}
	return nil
}
