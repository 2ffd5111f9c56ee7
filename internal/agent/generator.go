package agent

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/nmehra/scamtrap/internal/domain"
)

// LLMConfig holds settings for the OpenAI-compatible model endpoint.
type LLMConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// LLMGenerator produces honeypot turns with a two-pass pipeline: a
// persona reply to the latest message, then a JSON intelligence
// extraction over the whole conversation.
type LLMGenerator struct {
	client *openai.Client
	model  string
}

// NewLLMGenerator creates a generator against an OpenAI-compatible
// endpoint.
func NewLLMGenerator(cfg LLMConfig) *LLMGenerator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &LLMGenerator{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}
}

// Generate runs both passes. A reply failure surfaces as an error so
// the caller can fall back to a canned reply; an extraction failure
// degrades to the defensive default evidence, never an error.
func (g *LLMGenerator) Generate(ctx context.Context, current string, history []domain.Message, sessionID string) (*Result, error) {
	reply, err := g.personaReply(ctx, current, history)
	if err != nil {
		return nil, fmt.Errorf("generate reply for %s: %w", sessionID, err)
	}

	intel := g.extract(ctx, transcript(current, history))
	return &Result{Reply: reply, Intel: intel}, nil
}

func (g *LLMGenerator) personaReply(ctx context.Context, current string, history []domain.Message) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: baitSystemPrompt},
	}
	for _, msg := range history {
		role := openai.ChatMessageRoleUser
		if msg.IsResponse {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: msg.Text})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: current})

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		MaxTokens:   100,
		Temperature: 0.7,
		TopP:        0.9,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return cleanReply(resp.Choices[0].Message.Content), nil
}

func (g *LLMGenerator) extract(ctx context.Context, conversation string) domain.Intelligence {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: extractionPrompt + "\n\nConversation:\n" + conversation},
		},
		MaxTokens:   512,
		Temperature: 0.1,
		TopP:        0.7,
	})
	if err != nil || len(resp.Choices) == 0 {
		return fallbackIntelligence()
	}

	intel, ok := ParseIntelligence(resp.Choices[0].Message.Content)
	if !ok {
		return fallbackIntelligence()
	}
	return intel
}

// fallbackIntelligence is the defensive default when extraction fails:
// flag the session for review rather than losing the turn.
func fallbackIntelligence() domain.Intelligence {
	return domain.Intelligence{
		SuspiciousKeywords: []string{"suspicious"},
		AgentNotes:         "Automated extraction - manual review recommended",
	}
}

// transcript renders the conversation with sender labels, current
// message last.
func transcript(current string, history []domain.Message) string {
	var b strings.Builder
	for _, msg := range history {
		b.WriteString(msg.Sender)
		b.WriteString(": ")
		b.WriteString(msg.Text)
		b.WriteString("\n")
	}
	b.WriteString(domain.SenderScammer)
	b.WriteString(": ")
	b.WriteString(current)
	return b.String()
}

// cleanReply strips model artifacts that would reveal the reply is
// generated: escaped quotes, newlines and "here is the reply" style
// prefixes.
func cleanReply(reply string) string {
	reply = strings.TrimSpace(reply)
	reply = strings.ReplaceAll(reply, `\"`, `"`)
	reply = strings.ReplaceAll(reply, `\n`, " ")

	lower := strings.ToLower(reply)
	for _, prefix := range []string{"sure, here is the reply:", "here is the reply:", "here's the reply:", "amit:", "amit sharma:", "reply:", "response:"} {
		if strings.HasPrefix(lower, prefix) {
			reply = strings.TrimSpace(reply[len(prefix):])
			lower = strings.ToLower(reply)
		}
	}
	return strings.Trim(reply, `"`)
}
