// Package textgen is the client of the LLM text-generation vendor. It speaks
// the OpenAI chat-completions protocol.
package textgen

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/reelforge/reelforge/internal/provider"
)

const (
	Name         = "textgen"
	defaultModel = "gpt-4o-mini"
)

type Client struct {
	caller *provider.Caller
	model  string
}

func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+strings.TrimSpace(apiKey))
	return &Client{
		caller: provider.NewCaller(Name, baseURL, timeout, header),
		model:  model,
	}
}

type Prompt struct {
	System string
	User   string
	// JSON asks the model for a single JSON object.
	JSON        bool
	Temperature float64
}

type Completion struct {
	Text  string
	Model string
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (c *Client) Generate(ctx context.Context, p Prompt) (*Completion, error) {
	req := chatRequest{
		Model:       c.model,
		Temperature: p.Temperature,
	}
	if p.System != "" {
		req.Messages = append(req.Messages, chatMessage{Role: "system", Content: p.System})
	}
	req.Messages = append(req.Messages, chatMessage{Role: "user", Content: p.User})
	if p.JSON {
		req.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	var resp chatResponse
	if err := c.caller.Do(ctx, "chat_completion", http.MethodPost, "/chat/completions", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, provider.NewResponseShapeError(Name, "chat_completion", "no choices returned")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return nil, provider.NewResponseShapeError(Name, "chat_completion", "empty message content")
	}

	model := resp.Model
	if model == "" {
		model = c.model
	}
	return &Completion{Text: text, Model: model}, nil
}

// DecodeJSON unmarshals a model answer into out. Models sometimes wrap JSON
// in markdown fences or add prose around it, both are tolerated.
func DecodeJSON(text string, out any) error {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if start, end := strings.Index(cleaned, "{"), strings.LastIndex(cleaned, "}"); start >= 0 && end > start {
		cleaned = cleaned[start : end+1]
	}

	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return provider.NewResponseShapeError(Name, "decode", "model answer is not valid json: %v", err)
	}
	return nil
}
