// Package gemini implements the conversation generator port on the Gemini
// API.
package gemini

import (
	"context"
	"iter"

	"leadchat_backend/internal/conversation/ports"
	"leadchat_backend/platform/config"

	"google.golang.org/genai"
)

// Generator streams replies from a Gemini model.
type Generator struct {
	client *genai.Client
	model  string
}

// New creates a generator from the application config.
func New(ctx context.Context, cfg config.GeneratorConfig) (*Generator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GetGeminiAPIKey(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &Generator{client: client, model: cfg.GetGeminiModel()}, nil
}

// Name returns the configured model identifier.
func (g *Generator) Name() string { return g.model }

// Stream yields content deltas as the model produces them, then one final
// chunk carrying the usage counts. Cancelling ctx aborts the upstream call.
func (g *Generator) Stream(ctx context.Context, req ports.GenerationRequest) iter.Seq2[ports.GenerationChunk, error] {
	return func(yield func(ports.GenerationChunk, error) bool) {
		contents := make([]*genai.Content, 0, len(req.History)+1)
		for _, turn := range req.History {
			role := genai.Role(genai.RoleUser)
			if turn.Role == "assistant" {
				role = genai.RoleModel
			}
			contents = append(contents, genai.NewContentFromText(turn.Content, role))
		}
		contents = append(contents, genai.NewContentFromText(req.UserMessage, genai.RoleUser))

		cfg := &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(req.SystemPrompt, genai.RoleUser),
		}

		var inputTokens, outputTokens int
		for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, contents, cfg) {
			if err != nil {
				yield(ports.GenerationChunk{}, err)
				return
			}
			if um := resp.UsageMetadata; um != nil {
				inputTokens = int(um.PromptTokenCount)
				outputTokens = int(um.CandidatesTokenCount)
			}
			if text := resp.Text(); text != "" {
				if !yield(ports.GenerationChunk{Text: text}, nil) {
					return
				}
			}
		}
		if inputTokens == 0 {
			inputTokens = estimateTokens(req.SystemPrompt) + estimateTokens(req.UserMessage)
		}
		yield(ports.GenerationChunk{Final: true, InputTokens: inputTokens, OutputTokens: outputTokens}, nil)
	}
}

// estimateTokens approximates token counts when the API omits usage
// metadata. Four characters per token is close enough for accounting.
func estimateTokens(s string) int {
	return len(s) / 4
}
