// Package gpt4o implements transcription.Provider on the GPT-4o audio-preview
// chat completions API. The audio clip is inlined base64 as an input_audio
// content part; token usage from the response is surfaced so runs can be
// costed per backend.
package gpt4o

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kbukum/crosscribe/provider"
	"github.com/kbukum/crosscribe/transcription"
)

const (
	// ProviderName is the registered name for the GPT-4o audio provider.
	ProviderName = "gpt4o"

	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-audio-preview"
	defaultTimeout = 120 * time.Second

	defaultPrompt = "Transcribe this audio recording verbatim. Reply with the transcription only."
)

// Config holds configuration for the GPT-4o audio transcription provider.
type Config struct {
	APIKey  string        `json:"api_key" yaml:"api_key"`
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Model   string        `json:"model" yaml:"model"`
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// Provider implements transcription.Provider using GPT-4o audio chat completions.
type Provider struct {
	cfg    Config
	client *http.Client
}

// NewProvider creates a new GPT-4o audio transcription provider.
func NewProvider(cfg Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Provider{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Factory returns a provider.Factory that creates GPT-4o Provider instances
// from a generic config map.
func Factory() provider.Factory[transcription.Provider] {
	return func(cfg map[string]any) (transcription.Provider, error) {
		gc := Config{}
		if v, ok := cfg["api_key"].(string); ok {
			gc.APIKey = v
		}
		if v, ok := cfg["base_url"].(string); ok {
			gc.BaseURL = v
		}
		if v, ok := cfg["model"].(string); ok {
			gc.Model = v
		}
		if v, ok := cfg["timeout"].(time.Duration); ok {
			gc.Timeout = v
		}
		if gc.APIKey == "" {
			gc.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if gc.APIKey == "" {
			return nil, fmt.Errorf("gpt4o: api_key is required")
		}
		return NewProvider(gc), nil
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable reports whether the provider is configured.
func (p *Provider) IsAvailable(_ context.Context) bool {
	return p.cfg.APIKey != ""
}

// Transcribe inlines the clip as base64 audio in a chat completion request.
func (p *Provider) Transcribe(ctx context.Context, req transcription.TranscriptionRequest) (*transcription.TranscriptionResponse, error) {
	audioData, err := os.ReadFile(req.AudioPath)
	if err != nil {
		return nil, fmt.Errorf("read audio file: %w", err)
	}

	model := p.cfg.Model
	if req.Model != "" {
		model = req.Model
	}
	prompt := req.Prompt
	if prompt == "" {
		prompt = defaultPrompt
	}
	format := audioFormat(req.AudioPath)

	payload := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: prompt},
					{
						Type: "input_audio",
						InputAudio: &inputAudio{
							Data:   base64.StdEncoding.EncodeToString(audioData),
							Format: format,
						},
					},
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, transcription.ClassifyTransportError(ProviderName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, transcription.ClassifyHTTPStatus(ProviderName, resp.StatusCode, string(respBody))
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, transcription.ClassifyHTTPStatus(ProviderName, resp.StatusCode, "malformed response payload")
	}
	if len(result.Choices) == 0 {
		return nil, transcription.ClassifyHTTPStatus(ProviderName, resp.StatusCode, "response contained no choices")
	}

	out := &transcription.TranscriptionResponse{
		Text:     strings.TrimSpace(result.Choices[0].Message.Content),
		Language: req.Language,
	}
	if result.Usage != nil {
		out.Usage = &transcription.Usage{
			PromptTokens:     result.Usage.PromptTokens,
			CompletionTokens: result.Usage.CompletionTokens,
			TotalTokens:      result.Usage.TotalTokens,
		}
	}
	return out, nil
}

func audioFormat(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return "wav"
	}
	return ext
}

// --- internal chat completions API types ---

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type       string      `json:"type"`
	Text       string      `json:"text,omitempty"`
	InputAudio *inputAudio `json:"input_audio,omitempty"`
}

type inputAudio struct {
	Data   string `json:"data"`
	Format string `json:"format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
}
