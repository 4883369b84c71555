// Package hint optionally asks an OpenAI-compatible chat model for a
// one-line mnemonic to append to a card's back. It is off unless a model
// endpoint is configured; card creation never depends on it.
package hint

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/consecrate/autocard/internal/cache"
)

// Client is the minimal chat-completion surface the generator needs, so
// any OpenAI-compatible or local backend can be plugged in.
type Client interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// NewOpenAIClient builds a client against an OpenAI-compatible base URL.
func NewOpenAIClient(baseURL, apiKey string) Client {
	cfg := openai.DefaultConfig(apiKey)
	if strings.TrimSpace(baseURL) != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

const systemPrompt = "You write memory hints for flashcards. Given the front and back of a card, reply with one short sentence that helps recall the answer. Reply with the sentence only."

// ErrEmptyHint indicates the model produced no usable text.
var ErrEmptyHint = errors.New("hint: empty model response")

// Generator produces hints, caching them on disk keyed by model and card
// content so repeat runs stay deterministic and cheap.
type Generator struct {
	Client Client
	Model  string
	Cache  *cache.HintCache
}

// Hint returns a one-line mnemonic for the card, from cache when possible.
func (g *Generator) Hint(ctx context.Context, front, back string) (string, error) {
	if g.Client == nil || strings.TrimSpace(g.Model) == "" {
		return "", errors.New("hint: generator not configured")
	}
	key := cache.HintKey(g.Model, front, back)
	if g.Cache != nil {
		if cached, ok, _ := g.Cache.Get(ctx, key); ok && strings.TrimSpace(cached) != "" {
			return cached, nil
		}
	}
	resp, err := g.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "Front:\n" + front + "\n\nBack:\n" + back},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyHint
	}
	hint := strings.TrimSpace(resp.Choices[0].Message.Content)
	if hint == "" {
		return "", ErrEmptyHint
	}
	// Keep it to a single line; models occasionally add commentary.
	if i := strings.IndexByte(hint, '\n'); i >= 0 {
		hint = strings.TrimSpace(hint[:i])
	}
	if g.Cache != nil {
		_ = g.Cache.Save(ctx, key, hint)
	}
	return hint, nil
}
