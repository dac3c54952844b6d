package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"SupportChat/models"
	"SupportChat/pkg/config"

	"github.com/go-resty/resty/v2"
)

const geminiFallbackModel = "gemini-2.0-flash"

type GeminiService struct {
	apiKey     string
	enabled    bool
	model      string
	prompt     string
	client     *resty.Client
	retryDelay time.Duration
}

func NewGeminiService() *GeminiService {
	return &GeminiService{
		apiKey:     config.GeminiAPIKey,
		enabled:    config.IsAssistantEnabled,
		model:      config.GeminiModel,
		prompt:     config.AssistantPrompt,
		client:     resty.New().SetBaseURL(config.GeminiBaseURL),
		retryDelay: 2 * time.Second,
	}
}

func (s *GeminiService) Name() string  { return "gemini" }
func (s *GeminiService) Model() string { return s.model }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  map[string]any  `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// statusError is a non-2xx answer from the API.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.code, e.body)
}

// Ask sends the conversation to Gemini, trying the configured model first
// and then the fallback model. Each model gets one retry on 429/503.
func (s *GeminiService) Ask(ctx context.Context, chat []ChatMessage, apiKey string) (string, error) {
	if !s.enabled {
		log.Printf("[gemini] disabled via config (IsAssistantEnabled=false)")
		return "", ErrAssistantDisabled
	}
	key := pickKey(apiKey, s.apiKey)
	if key == "" {
		log.Printf("[gemini] GEMINI_API_KEY is not set")
		return "", ErrMissingAPIKey
	}

	body := s.buildRequest(chat)
	var tried []string
	for _, m := range s.models() {
		text, err := s.generateContent(ctx, m, key, body)
		if err != nil && isRetriable(err) {
			sleepWithContext(ctx, s.retryDelay)
			text, err = s.generateContent(ctx, m, key, body)
		}
		if err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text), nil
		}
		if err == nil {
			err = errors.New("empty response")
		}
		tried = append(tried, fmt.Sprintf("%s -> %v", m, err))
		log.Printf("[gemini] model %s failed: %v", m, err)
		if ctx.Err() != nil {
			break
		}
	}
	return "", fmt.Errorf("all gemini models failed: %s", strings.Join(tried, "; "))
}

func (s *GeminiService) models() []string {
	out := make([]string, 0, 2)
	for _, m := range []string{s.model, geminiFallbackModel} {
		m = strings.TrimSpace(m)
		if m == "" || (len(out) > 0 && out[0] == m) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func (s *GeminiService) buildRequest(chat []ChatMessage) geminiRequest {
	contents := make([]geminiContent, 0, len(chat))
	for _, m := range chat {
		role := "user"
		if m.Role == models.RoleAssistant {
			role = "model"
		}
		contents = append(contents, geminiContent{Role: role, Parts: []geminiPart{{Text: m.Text}}})
	}
	req := geminiRequest{
		Contents: contents,
		GenerationConfig: map[string]any{
			"temperature":     0.6,
			"maxOutputTokens": 1024,
			"topK":            40,
			"topP":            0.9,
		},
	}
	if strings.TrimSpace(s.prompt) != "" {
		req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: s.prompt}}}
	}
	return req
}

func (s *GeminiService) generateContent(ctx context.Context, model, key string, body geminiRequest) (string, error) {
	log.Printf("[gemini] using model %s", model)
	res, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetQueryParam("key", key).
		SetBody(body).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", model))
	if err != nil {
		return "", fmt.Errorf("http error: %w", err)
	}
	if !res.IsSuccess() {
		return "", &statusError{code: res.StatusCode(), body: strings.TrimSpace(res.String())}
	}

	var parsed geminiResponse
	if err := json.Unmarshal(res.Body(), &parsed); err != nil {
		return "", fmt.Errorf("error parsing gemini response: %w", err)
	}
	for _, cand := range parsed.Candidates {
		for _, p := range cand.Content.Parts {
			if strings.TrimSpace(p.Text) != "" {
				return p.Text, nil
			}
		}
	}
	return "", nil
}

func isRetriable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code == http.StatusServiceUnavailable
	}
	return false
}

func sleepWithContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
