package providers

import (
	"github.com/echoform/echoform/pkg/config"
	"github.com/echoform/echoform/pkg/logger"
)

// NewGenerator picks the provider from configuration: Gemini when an API
// key is present, simulation otherwise.
func NewGenerator(cfg *config.Config) Generator {
	key := cfg.GetAPIKey()
	if key == "" {
		logger.InfoC("provider", "No API key configured, using simulated provider")
		return NewSimulatedProvider()
	}

	logger.InfoCF("provider", "Using Gemini provider", map[string]interface{}{
		"model": cfg.Provider.Model,
	})
	return NewGeminiProvider(key, cfg.GetAPIBase(), cfg.Provider.Model,
		cfg.Provider.MaxRetries, cfg.Provider.MaxContextMessages)
}
