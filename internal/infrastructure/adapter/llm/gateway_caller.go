package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	errs "github.com/brandlens/scan-engine/internal/domain/error"
	coreport "github.com/brandlens/scan-engine/internal/domain/port/core"
	llmport "github.com/brandlens/scan-engine/internal/domain/port/llm"
)

// GatewayCaller executes model calls through an OpenAI-compatible chat
// completions gateway that routes to the named provider. Timeouts come from
// the caller's context; the HTTP client itself carries no deadline.
type GatewayCaller struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  coreport.Logger
}

// NewGatewayCaller creates a gateway-backed model caller
func NewGatewayCaller(baseURL, apiKey string, logger coreport.Logger) *GatewayCaller {
	return &GatewayCaller{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{},
		logger:  logger,
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// CallModel executes one prompt against one provider/model pair
func (c *GatewayCaller) CallModel(ctx context.Context, provider, model, systemPrompt, userPrompt string) (*llmport.ModelResponse, error) {
	payload, err := json.Marshal(chatRequest{
		Model: provider + "/" + model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrProviderFailure, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrProviderFailure, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: call to %s/%s timed out", errs.ErrProviderTimeout, provider, model)
		}
		return nil, fmt.Errorf("%w: %s", errs.ErrProviderFailure, err.Error())
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %s", errs.ErrProviderFailure, err.Error())
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed gateway response (status %d)", errs.ErrProviderFailure, resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK || parsed.Error != nil {
		msg := "gateway error"
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		c.logger.Warn("Model call rejected by gateway", map[string]any{
			"provider": provider,
			"model":    model,
			"status":   resp.StatusCode,
			"message":  msg,
		})
		return nil, fmt.Errorf("%w: %s (status %d)", errs.ErrProviderFailure, msg, resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("%w: gateway returned no choices", errs.ErrProviderFailure)
	}

	return &llmport.ModelResponse{
		Text:      parsed.Choices[0].Message.Content,
		TokensIn:  parsed.Usage.PromptTokens,
		TokensOut: parsed.Usage.CompletionTokens,
	}, nil
}
