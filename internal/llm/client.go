// Package llm talks to an OpenAI-compatible completion endpoint, by
// default a local Ollama server.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"syscall"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"parley/internal/chat"
)

// requestTimeout bounds a completion round trip. Local models can be
// slow to first token, so this is generous.
const requestTimeout = 120 * time.Second

type Client struct {
	api   openai.Client
	model string
}

// New builds a completion client against baseURL (an OpenAI-compatible
// /v1 endpoint). apiKey may be empty for servers that ignore auth.
func New(baseURL, apiKey, model string) *Client {
	opts := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(&http.Client{Timeout: requestTimeout}),
	}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &Client{
		api:   openai.NewClient(opts...),
		model: model,
	}
}

// Complete submits the history snapshot and returns the assistant reply.
// Connection refusal surfaces as chat.ErrUnavailable so the loop can
// tell the user to start the server.
func (c *Client) Complete(ctx context.Context, msgs []chat.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: toParams(msgs),
		Model:    openai.ChatModel(c.model),
	})
	if err != nil {
		if isConnRefused(err) {
			return "", fmt.Errorf("%w: %v", chat.ErrUnavailable, err)
		}
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", errors.New("empty message content")
	}
	return content, nil
}

func toParams(msgs []chat.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case chat.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case chat.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func isConnRefused(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}
