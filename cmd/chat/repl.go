package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"relay-chat/internal/interfaces"
	"relay-chat/internal/locale"
	"relay-chat/internal/model"
)

const debugEntriesShown = 5

type repl struct {
	svc     interfaces.ChatService
	catalog *locale.Catalog
	in      io.Reader
	out     io.Writer

	you       func(a ...interface{}) string
	assistant func(a ...interface{}) string
	errText   func(a ...interface{}) string
	faint     func(a ...interface{}) string
}

func newREPL(svc interfaces.ChatService, catalog *locale.Catalog, in io.Reader, out io.Writer) *repl {
	return &repl{
		svc:       svc,
		catalog:   catalog,
		in:        in,
		out:       out,
		you:       color.New(color.FgGreen, color.Bold).SprintFunc(),
		assistant: color.New(color.FgCyan, color.Bold).SprintFunc(),
		errText:   color.New(color.FgRed).SprintFunc(),
		faint:     color.New(color.Faint).SprintFunc(),
	}
}

// Append prints assistant messages. User messages are already on screen.
func (r *repl) Append(msg model.Message) {
	if msg.Role == model.RoleUser {
		return
	}
	fmt.Fprintf(r.out, "%s %s\n\n", r.assistant("Assistant:"), msg.Content)
}

// SetBusy shows the thinking line while a turn is in flight. With color on
// the line is erased once the reply arrives; plain output keeps it.
func (r *repl) SetBusy(busy bool) {
	if busy {
		if color.NoColor {
			fmt.Fprintln(r.out, r.catalog.Thinking)
			return
		}
		fmt.Fprint(r.out, r.faint(r.catalog.Thinking))
		return
	}
	if !color.NoColor {
		fmt.Fprint(r.out, "\r\033[K")
	}
}

func (r *repl) ShowError(message string) {
	fmt.Fprintln(r.out, r.errText("Error: "+message))
	fmt.Fprintln(r.out)
}

// run reads commands until "exit", end of input or cancellation of ctx.
func (r *repl) run(ctx context.Context) int {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sessionID, err := r.start(ctx)
	if err != nil {
		fmt.Fprintln(r.out, r.errText(fmt.Sprintf("Could not start a session: %v", err)))
		return 1
	}

	lines := r.readLines(ctx)
	for {
		fmt.Fprint(r.out, r.you("You: "))

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(r.out)
			r.end(context.WithoutCancel(ctx), sessionID)
			return 0
		case l, ok := <-lines:
			if !ok {
				r.end(ctx, sessionID)
				return 0
			}
			line = strings.TrimSpace(l)
		}

		switch {
		case line == "":
			continue
		case strings.EqualFold(line, "exit"):
			r.end(ctx, sessionID)
			return 0
		case line == "/new":
			r.end(ctx, sessionID)
			if sessionID, err = r.start(ctx); err != nil {
				fmt.Fprintln(r.out, r.errText(fmt.Sprintf("Could not start a session: %v", err)))
				return 1
			}
		case line == "/debug":
			r.printDebug(ctx, sessionID)
		default:
			if _, err := r.svc.SendMessage(ctx, sessionID, line, r); err != nil {
				r.ShowError(err.Error())
			}
		}
	}
}

// readLines feeds input lines to the returned channel until end of input or
// cancellation. A Read blocked on a terminal is left behind on cancel.
func (r *repl) readLines(ctx context.Context) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

func (r *repl) start(ctx context.Context) (string, error) {
	session, err := r.svc.StartSession(ctx)
	if err != nil {
		return "", err
	}
	for _, msg := range session.Transcript() {
		r.Append(msg)
	}
	return session.ID, nil
}

func (r *repl) end(ctx context.Context, sessionID string) {
	if err := r.svc.EndSession(ctx, sessionID); err != nil {
		fmt.Fprintln(r.out, r.errText(fmt.Sprintf("Could not end the session: %v", err)))
	}
}

func (r *repl) printDebug(ctx context.Context, sessionID string) {
	entries, err := r.svc.DebugEntries(ctx, sessionID, debugEntriesShown)
	if err != nil {
		r.ShowError(err.Error())
		return
	}
	if len(entries) == 0 {
		fmt.Fprintln(r.out, r.faint("No requests sent yet."))
		fmt.Fprintln(r.out)
		return
	}
	for _, e := range entries {
		fmt.Fprintln(r.out, r.faint(fmt.Sprintf("[%s] POST %s -> %d %s (%dms)",
			e.CreatedAt.Format("15:04:05"), e.Endpoint, e.Status, e.Outcome, e.Latency.Milliseconds())))
		fmt.Fprintln(r.out, r.faint("  headers: "+formatHeaders(e.Headers)))
		fmt.Fprintln(r.out, r.faint("  payload: "+e.Payload))
		if e.Body != "" {
			fmt.Fprintln(r.out, r.faint("  body:    "+e.Body))
		}
		if e.Error != "" {
			fmt.Fprintln(r.out, r.faint("  error:   "+e.Error))
		}
	}
	fmt.Fprintln(r.out)
}

func formatHeaders(headers map[string]string) string {
	parts := make([]string, 0, len(headers))
	for _, k := range []string{"Authorization", "Content-Type", "Accept"} {
		if v, ok := headers[k]; ok {
			parts = append(parts, k+": "+v)
		}
	}
	return strings.Join(parts, ", ")
}
