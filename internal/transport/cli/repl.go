package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/porchlabs/porch/internal/core"
	"github.com/porchlabs/porch/pkg/log"
)

// Chatter is the slice of the orchestrator the REPL needs.
type Chatter interface {
	ProcessChatStream(ctx context.Context, req core.ChatRequest) (<-chan core.StreamChunk, error)
}

// REPL is the interactive terminal transport. It keeps one rolling session
// and mints a new one on /new, carrying memory across via the
// cross-session flag.
type REPL struct {
	chatter Chatter
	userID  string

	in  io.Reader
	out io.Writer

	sessionID string
}

func NewREPL(chatter Chatter, userID string) *REPL {
	return &REPL{
		chatter: chatter,
		userID:  userID,
		in:      os.Stdin,
		out:     os.Stdout,
	}
}

func (r *REPL) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Msg("starting cli transport")

	fmt.Fprintf(r.out, "%s %s. Ask about your portfolio; /new starts a fresh session, /quit exits.\n",
		core.PorchName, core.PorchVersion)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r.in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	r.prompt()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if done := r.handleLine(ctx, strings.TrimSpace(line)); done {
				return nil
			}
			r.prompt()
		}
	}
}

func (r *REPL) Shutdown(ctx context.Context) error {
	log.FromCtx(ctx).Info().Msg("cli transport stopped")
	return nil
}

// handleLine processes one input line. Returns true when the REPL should
// exit.
func (r *REPL) handleLine(ctx context.Context, line string) bool {
	switch line {
	case "":
		return false
	case "/quit", "/exit":
		fmt.Fprintln(r.out, "bye")
		return true
	case "/new":
		r.sessionID = ""
		fmt.Fprintln(r.out, "started a new session")
		return false
	}

	chunks, err := r.chatter.ProcessChatStream(ctx, core.ChatRequest{
		Message:            line,
		SessionID:          r.sessionID,
		UserID:             r.userID,
		SourceInstance:     core.SourceMain,
		CrossSessionMemory: r.sessionID == "",
	})
	if err != nil {
		fmt.Fprintf(r.out, "error: %v\n", err)
		return false
	}

	for chunk := range chunks {
		if chunk.Done {
			r.sessionID = chunk.SessionID
			fmt.Fprintln(r.out)
			continue
		}
		fmt.Fprint(r.out, chunk.Content)
	}
	return false
}

func (r *REPL) prompt() {
	fmt.Fprint(r.out, "> ")
}
