// Package terminal implements the minimal local REPL front door: a
// direct stdin/stdout loop for local use and debugging outside of any
// configured adapter, with no rich TUI.
package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/padaemon/padaemon/internal/agent"
	"github.com/padaemon/padaemon/internal/session"
)

const sessionKey = "terminal--local"

// Run reads lines from in, runs each as an agent turn, and writes the
// final assistant reply to out. It exits when in is closed or ctx is
// cancelled. ":quit" and ":exit" end the loop without an error.
func Run(ctx context.Context, in io.Reader, out io.Writer, turn agent.Turn, opts agent.Options) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprintln(out, "padaemon terminal. Type :quit to exit.")

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := scanner.Text()
		if line == ":quit" || line == ":exit" {
			return nil
		}
		if line == "" {
			continue
		}

		messages, err := turn(ctx, line, sessionKey, opts)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, lastAssistantText(messages))
	}
}

func lastAssistantText(messages []session.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == session.RoleAssistant {
			return messages[i].Content
		}
	}
	return ""
}
