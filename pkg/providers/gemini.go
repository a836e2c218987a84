package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/echoform/echoform/pkg/logger"
	"github.com/echoform/echoform/pkg/memory"
)

const (
	defaultGeminiAPIBase = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel   = "models/gemini-2.5-flash"

	retryBackoff = time.Second
)

// GeminiProvider calls the Gemini generateContent endpoint. Failed requests
// retry with a short backoff; when every attempt fails the provider degrades
// to the simulated variant instead of surfacing an error, so a turn always
// completes.
type GeminiProvider struct {
	apiKey     string
	apiBase    string
	model      string
	maxRetries int
	maxContext int
	httpClient *http.Client
	fallback   *SimulatedProvider
}

func NewGeminiProvider(apiKey, apiBase, model string, maxRetries, maxContext int) *GeminiProvider {
	if apiBase == "" {
		apiBase = defaultGeminiAPIBase
	}
	if model == "" {
		model = defaultGeminiModel
	}
	if maxRetries < 1 {
		maxRetries = 1
	}
	if maxContext < 1 {
		maxContext = 10
	}
	return &GeminiProvider{
		apiKey:     apiKey,
		apiBase:    strings.TrimRight(apiBase, "/"),
		model:      model,
		maxRetries: maxRetries,
		maxContext: maxContext,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		fallback:   NewSimulatedProvider(),
	}
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) Generate(ctx context.Context, prompt string, history []memory.Message, traits memory.Traits) (Result, error) {
	if len(history) > p.maxContext {
		history = history[len(history)-p.maxContext:]
	}
	fullPrompt := buildPrompt(prompt, history, traits)

	var lastErr error
	for attempt := 1; attempt <= p.maxRetries; attempt++ {
		text, err := p.generateContent(ctx, fullPrompt)
		if err == nil {
			return splitResult(text), nil
		}
		lastErr = err
		logger.WarnCF("provider", "Gemini attempt failed", map[string]interface{}{
			"attempt": attempt,
			"error":   err.Error(),
		})

		if attempt < p.maxRetries {
			select {
			case <-ctx.Done():
				return Result{}, ctx.Err()
			case <-time.After(retryBackoff):
			}
		}
	}

	logger.ErrorCF("provider", "All Gemini attempts failed, falling back to simulation",
		map[string]interface{}{"error": lastErr.Error()})
	return p.fallback.Generate(ctx, prompt, history, traits)
}

func (p *GeminiProvider) generateContent(ctx context.Context, prompt string) (string, error) {
	requestBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]string{{"text": prompt}},
			},
		},
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s:generateContent", p.apiBase, p.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Gemini API request failed:\n  Status: %d\n  Body:   %s", resp.StatusCode, string(body))
	}

	return parseGeminiResponse(body)
}

func parseGeminiResponse(body []byte) (string, error) {
	var apiResponse struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(apiResponse.Candidates) == 0 {
		return "", fmt.Errorf("Gemini returned no candidates")
	}

	var b strings.Builder
	for _, part := range apiResponse.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("Gemini returned an empty candidate")
	}
	return text, nil
}
