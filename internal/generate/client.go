package generate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/curhatin/curhatin/internal/config"
)

// Client talks to the Gemini API for text generation.
type Client struct {
	genc       *genai.Client
	model      string
	timeout    time.Duration
	maxHistory int
}

// NewClient creates a generation client from config.
func NewClient(ctx context.Context, cfg config.GeminiConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("generate: gemini api key is not configured (set GEMINI_API_KEY)")
	}

	genc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("generate: create gemini client: %w", err)
	}

	return &Client{
		genc:       genc,
		model:      cfg.ChatModel,
		timeout:    time.Duration(cfg.TimeoutMs) * time.Millisecond,
		maxHistory: MaxHistoryTurns,
	}, nil
}

// SetMaxHistory changes the history bound applied per request. Values below
// 1 are ignored.
func (c *Client) SetMaxHistory(n int) {
	if n >= 1 {
		c.maxHistory = n
	}
}

// Generate produces a full chat-mode reply for the given tone, with at most
// the configured number of history entries as context.
func (c *Client) Generate(ctx context.Context, userText string, tone Tone, history []Turn) (string, error) {
	return c.chat(ctx, "generate", chatSystemPrompt(tone), userText, history)
}

// VoiceReply produces a short reply suitable for speech synthesis, used by
// the voice turn loop. Same contract as Generate otherwise.
func (c *Client) VoiceReply(ctx context.Context, userText string, tone Tone, history []Turn) (string, error) {
	return c.chat(ctx, "voice-reply", voiceSystemPrompt(tone), userText, history)
}

// UrgentSupport is the one-shot panic-mode variant: fixed calming prompt,
// no history, no tone selection.
func (c *Client) UrgentSupport(ctx context.Context, userInput string) (string, error) {
	return c.chat(ctx, "urgent-support", urgentSupportPrompt, userInput, nil)
}

// FriendScript generates a two-persona (Ami/Budi) discussion script about
// the user's topic, one "Name: line" per row.
func (c *Client) FriendScript(ctx context.Context, topic string) (string, error) {
	return c.chat(ctx, "friend-script", friendScriptPrompt,
		fmt.Sprintf("Topik dari pengguna: %q", topic), nil)
}

func (c *Client) chat(ctx context.Context, op, systemPrompt, userText string, history []Turn) (string, error) {
	if strings.TrimSpace(userText) == "" {
		return "", fmt.Errorf("%s: empty input", op)
	}
	if len(history) > c.maxHistory {
		history = history[len(history)-c.maxHistory:]
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	}

	hist := make([]*genai.Content, 0, len(history))
	for _, t := range history {
		role := genai.Role(genai.RoleUser)
		if t.Role == RoleAssistant {
			role = genai.RoleModel
		}
		hist = append(hist, genai.NewContentFromText(t.Content, role))
	}

	chat, err := c.genc.Chats.Create(ctx, c.model, cfg, hist)
	if err != nil {
		return "", wrapErr(op, err)
	}

	start := time.Now()
	res, err := chat.SendMessage(ctx, genai.Part{Text: userText})
	if err != nil {
		return "", wrapErr(op, err)
	}

	reply := extractText(res)
	if reply == "" {
		return "", &Error{Op: op, Cause: CauseUnknown, Err: fmt.Errorf("model returned no text")}
	}

	slog.Debug("generation completed", "op", op, "model", c.model,
		"history_turns", len(history), "duration", time.Since(start))
	return reply, nil
}

// extractText pulls the first text part from a response. Empty candidates
// happen when the safety filter blocks the reply.
func extractText(res *genai.GenerateContentResponse) string {
	if res == nil || len(res.Candidates) == 0 {
		return ""
	}
	cand := res.Candidates[0]
	if cand.Content == nil || len(cand.Content.Parts) == 0 {
		return ""
	}
	return strings.TrimSpace(cand.Content.Parts[0].Text)
}
