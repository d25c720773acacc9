// Package ports declares the outbound interfaces of the conversation module.
package ports

import (
	"context"
	"iter"
)

// Turn is one prior message handed to the generator as context.
type Turn struct {
	Role    string
	Content string
}

// GenerationRequest carries everything the generator needs for one reply.
type GenerationRequest struct {
	SessionID    string
	SystemPrompt string
	History      []Turn
	UserMessage  string
}

// GenerationChunk is one streamed fragment of the assistant reply. Final is
// set on the last chunk, which also carries the usage estimate.
type GenerationChunk struct {
	Text         string
	Final        bool
	InputTokens  int
	OutputTokens int
}

// Generator produces a streamed assistant reply. Implementations yield zero
// or more chunks followed by either a Final chunk or an error; the consumer
// stops iterating on the first error. Cancelling ctx stops the stream.
type Generator interface {
	Name() string
	Stream(ctx context.Context, req GenerationRequest) iter.Seq2[GenerationChunk, error]
}
