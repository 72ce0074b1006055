package capture

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Manager holds the current capture configuration and handles updates.
// Changes take effect the next time the device is opened; serve reopens it
// on every change.
type Manager struct {
	config Config
	mu     sync.RWMutex

	// Callback when config changes
	OnConfigChange func(cfg Config) error
}

// NewManager creates a new manager starting from cfg.
func NewManager(cfg Config) *Manager {
	return &Manager{
		config: cfg,
	}
}

// GetConfig returns the current capture configuration.
func (m *Manager) GetConfig() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// SetConfig replaces the capture configuration.
func (m *Manager) SetConfig(cfg Config) error {
	if errors := cfg.Validate(); len(errors) > 0 {
		return fmt.Errorf("validation failed: %v", errors)
	}

	m.mu.Lock()
	m.config = cfg
	callback := m.OnConfigChange
	m.mu.Unlock()

	if callback != nil {
		if err := callback(cfg); err != nil {
			return fmt.Errorf("failed to apply config: %w", err)
		}
	}

	return nil
}

// UpdateConfig updates specific fields of the configuration.
// Accepts a map of field names to values, as decoded from a JSON body.
// A "preset" key replaces everything except the device index first.
func (m *Manager) UpdateConfig(params map[string]interface{}) error {
	cfg := m.GetConfig()

	if presetName, ok := params["preset"].(string); ok {
		preset := GetPreset(presetName)
		if preset == nil {
			return fmt.Errorf("unknown preset: %s", presetName)
		}
		device := cfg.DeviceID
		cfg = *preset
		cfg.DeviceID = device
	}

	for key, value := range params {
		switch key {
		case "preset":
		case "device_id":
			if v, ok := toInt(value); ok {
				cfg.DeviceID = v
			}
		case "width":
			if v, ok := toInt(value); ok {
				cfg.Width = v
			}
		case "height":
			if v, ok := toInt(value); ok {
				cfg.Height = v
			}
		case "framerate":
			if v, ok := toInt(value); ok {
				cfg.Framerate = v
			}
		case "quality":
			if v, ok := toInt(value); ok {
				cfg.Quality = v
			}
		case "buffer_size":
			if v, ok := toInt(value); ok {
				cfg.BufferSize = v
			}
		default:
			return fmt.Errorf("unknown setting: %s", key)
		}
	}

	return m.SetConfig(cfg)
}

// GetConfigJSON returns the current config as a map for JSON serialization.
func (m *Manager) GetConfigJSON() map[string]interface{} {
	cfg := m.GetConfig()

	data, _ := json.Marshal(cfg)
	var result map[string]interface{}
	json.Unmarshal(data, &result)

	return result
}

// Opener returns an Opener that opens the webcam with whatever
// configuration is current at the time of each open.
func (m *Manager) Opener() Opener {
	return func() (Device, error) {
		return OpenWebcam(m.GetConfig())
	}
}

func toInt(v interface{}) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		return int(val), true
	case json.Number:
		i, err := val.Int64()
		if err == nil {
			return int(i), true
		}
	}
	return 0, false
}
