package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/caarlos0/env/v11"

	"github.com/echoform/echoform/pkg/memory"
)

// FlexibleStringSlice is a []string that also accepts JSON numbers,
// so allow_from can contain both "123" and 123.
type FlexibleStringSlice []string

func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	// Try []string first
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}

	// Try []interface{} to handle mixed types
	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	result := make([]string, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case string:
			result = append(result, val)
		case float64:
			result = append(result, fmt.Sprintf("%.0f", val))
		default:
			result = append(result, fmt.Sprintf("%v", val))
		}
	}
	*f = result
	return nil
}

type Config struct {
	Storage   StorageConfig   `json:"storage"`
	Provider  ProviderConfig  `json:"provider"`
	Mutation  MutationConfig  `json:"mutation"`
	Channels  ChannelsConfig  `json:"channels"`
	Gateway   GatewayConfig   `json:"gateway"`
	Heartbeat HeartbeatConfig `json:"heartbeat"`
	mu        sync.RWMutex
}

type StorageConfig struct {
	StateDir string `json:"state_dir" env:"ECHOFORM_STORAGE_STATE_DIR"`
	DBFile   string `json:"db_file" env:"ECHOFORM_STORAGE_DB_FILE"`
}

type ProviderConfig struct {
	APIKey             string `json:"api_key" env:"GEMINI_API_KEY"`
	APIBase            string `json:"api_base" env:"ECHOFORM_PROVIDER_API_BASE"`
	Model              string `json:"model" env:"ECHOFORM_PROVIDER_MODEL"`
	MaxRetries         int    `json:"max_retries" env:"ECHOFORM_PROVIDER_MAX_RETRIES"`
	MaxContextMessages int    `json:"max_context_messages" env:"ECHOFORM_PROVIDER_MAX_CONTEXT_MESSAGES"`
}

type MutationConfig struct {
	Alpha     float64 `json:"alpha" env:"ECHOFORM_MUTATION_ALPHA"`
	Threshold float64 `json:"threshold" env:"ECHOFORM_MUTATION_THRESHOLD"`
	Weights   Weights `json:"weights"`
}

// Weights mirrors the evaluation weighting scheme in config files.
type Weights struct {
	Accuracy    float64 `json:"accuracy" env:"ECHOFORM_WEIGHT_ACCURACY"`
	Clarity     float64 `json:"clarity" env:"ECHOFORM_WEIGHT_CLARITY"`
	Depth       float64 `json:"depth" env:"ECHOFORM_WEIGHT_DEPTH"`
	Originality float64 `json:"originality" env:"ECHOFORM_WEIGHT_ORIGINALITY"`
}

type ChannelsConfig struct {
	Discord DiscordConfig `json:"discord"`
}

type DiscordConfig struct {
	Token     string              `json:"token" env:"ECHOFORM_CHANNELS_DISCORD_TOKEN"`
	AllowFrom FlexibleStringSlice `json:"allow_from" env:"ECHOFORM_CHANNELS_DISCORD_ALLOW_FROM"`
}

type GatewayConfig struct {
	Host string `json:"host" env:"ECHOFORM_GATEWAY_HOST"`
	Port int    `json:"port" env:"ECHOFORM_GATEWAY_PORT"`
}

type HeartbeatConfig struct {
	Enabled  bool   `json:"enabled" env:"ECHOFORM_HEARTBEAT_ENABLED"`
	Schedule string `json:"schedule" env:"ECHOFORM_HEARTBEAT_SCHEDULE"` // cron expression
}

func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			StateDir: "~/.echoform",
			DBFile:   "echoform.db",
		},
		Provider: ProviderConfig{
			Model:              "models/gemini-2.5-flash",
			MaxRetries:         2,
			MaxContextMessages: 10,
		},
		Mutation: MutationConfig{
			Alpha:     0.1,
			Threshold: 0.5,
			Weights: Weights{
				Accuracy:    0.25,
				Clarity:     0.25,
				Depth:       0.25,
				Originality: 0.25,
			},
		},
		Channels: ChannelsConfig{
			Discord: DiscordConfig{
				Token:     "",
				AllowFrom: FlexibleStringSlice{},
			},
		},
		Gateway: GatewayConfig{
			Host: "127.0.0.1",
			Port: 8790,
		},
		Heartbeat: HeartbeatConfig{
			Enabled:  false,
			Schedule: "*/30 * * * *",
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := env.Parse(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// DBPath resolves the database file inside the state directory.
func (c *Config) DBPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return filepath.Join(expandHome(c.Storage.StateDir), c.Storage.DBFile)
}

func (c *Config) StateDirPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return expandHome(c.Storage.StateDir)
}

func (c *Config) GetAPIKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Provider.APIKey
}

func (c *Config) GetAPIBase() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.Provider.APIBase != "" {
		return c.Provider.APIBase
	}
	return "https://generativelanguage.googleapis.com/v1beta"
}

// EvalWeights converts the configured weighting scheme, normalizing so the
// store always sees weights that sum to one.
func (c *Config) EvalWeights() memory.Weights {
	c.mu.RLock()
	defer c.mu.RUnlock()
	w := memory.Weights{
		Accuracy:    c.Mutation.Weights.Accuracy,
		Clarity:     c.Mutation.Weights.Clarity,
		Depth:       c.Mutation.Weights.Depth,
		Originality: c.Mutation.Weights.Originality,
	}
	return w.Normalized()
}

func expandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
