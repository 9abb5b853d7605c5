package chat

import (
	"context"

	"github.com/porchlabs/porch/internal/core"
)

const streamChunkRunes = 48

// ProcessChatStream is the streaming variant of ProcessChat. The full
// response is produced first and then emitted in chunks, so streaming has
// the exact same resilience guarantees as the blocking path. The channel is
// always closed after the final Done chunk.
func (o *Orchestrator) ProcessChatStream(ctx context.Context, req core.ChatRequest) (<-chan core.StreamChunk, error) {
	resp, err := o.ProcessChat(ctx, req)
	if err != nil {
		return nil, err
	}

	out := make(chan core.StreamChunk)
	go func() {
		defer close(out)

		runes := []rune(resp.Content)
		for i := 0; i < len(runes); i += streamChunkRunes {
			end := i + streamChunkRunes
			if end > len(runes) {
				end = len(runes)
			}
			chunk := core.StreamChunk{
				Content:   string(runes[i:end]),
				SessionID: resp.SessionID,
				Model:     resp.Model,
			}
			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
		}

		select {
		case out <- core.StreamChunk{Done: true, SessionID: resp.SessionID, Model: resp.Model}:
		case <-ctx.Done():
		}
	}()

	return out, nil
}
