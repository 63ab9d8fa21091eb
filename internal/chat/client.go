package chat

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable marks a completion call that never reached the service,
// e.g. Ollama is not running. Callers match it with errors.Is.
var ErrUnavailable = errors.New("completion service unavailable")

// Completer is the external completion service. It receives the full
// history snapshot and returns the assistant's reply.
type Completer interface {
	Complete(ctx context.Context, msgs []Message) (string, error)
}

// Client runs one request/response round per user turn, keeping the
// bounded history in sync with the outcome.
type Client struct {
	completer Completer
	history   *History
}

func NewClient(completer Completer, history *History) *Client {
	return &Client{completer: completer, history: history}
}

// Chat appends message as a user turn, submits the history and records
// the reply. On failure the user turn is rolled back so a retry does not
// duplicate it.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	c.history.AddUser(message)

	reply, err := c.completer.Complete(ctx, c.history.Messages())
	if err != nil {
		c.history.dropLast()
		if errors.Is(err, ErrUnavailable) {
			return "", err
		}
		return "", fmt.Errorf("completion: %w", err)
	}

	c.history.AddAssistant(reply)
	return reply, nil
}

// Reset clears the conversation back to the seeded system prompt.
func (c *Client) Reset() {
	c.history.Reset()
}
