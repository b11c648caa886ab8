// Package cli bridges a terminal's stdin/stdout to a running Ctx. Stdin
// lines are pushed onto Ctx.Channel.Rx, the same shared inbound queue a
// paused sub-context reads from, and the root Ctx is driven by draining
// that queue one line at a time. Text streamed back through Ctx.Channel.Tx
// is printed as it arrives.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"

	ctxrun "ctxrun"
)

// Runner drives one interactive session against a root Ctx.
type Runner struct {
	Ctx    *ctxrun.Ctx
	In     io.Reader
	Out    io.Writer
	Logger *slog.Logger
}

// New returns a Runner reading from in and writing to out.
func New(c *ctxrun.Ctx, in io.Reader, out io.Writer, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{Ctx: c, In: in, Out: out, Logger: logger}
}

// Run feeds r.In into r.Ctx.Channel.Rx and drives r.Ctx from that same
// queue: each line received is appended as a user turn before calling
// r.Ctx.Tick. It stops when the sentinel latches (r.Ctx.IsEnded), stdin
// closes and the queue drains, or Tick returns an error. Model text
// streamed during each tick is printed to r.Out concurrently, in arrival
// order. Returns the first error observed, or nil on a clean end.
func (r *Runner) Run(ctx context.Context) error {
	printerDone := make(chan struct{})
	go r.printLoop(printerDone)

	go r.stdinLoop()

	var tickErr error
	for {
		line, ok := r.Ctx.Channel.Rx.Recv()
		if !ok {
			break
		}
		r.Ctx.Contents = append(r.Ctx.Contents, ctxrun.Content{
			Role:  ctxrun.RoleUser,
			Parts: []ctxrun.Part{ctxrun.TextPart(line)},
		})
		if _, err := r.Ctx.Tick(ctx); err != nil {
			tickErr = fmt.Errorf("cli: tick: %w", err)
			break
		}
		if r.Ctx.IsEnded {
			break
		}
	}

	r.Ctx.Channel.Tx.Close()
	<-printerDone
	return tickErr
}

// stdinLoop reads lines from r.In and pushes each onto r.Ctx.Channel.Rx,
// the shared inbound queue that both the root Ctx and any paused
// sub-context drain from. It closes the queue once stdin is exhausted.
func (r *Runner) stdinLoop() {
	scanner := bufio.NewScanner(r.In)
	for scanner.Scan() {
		r.Ctx.Channel.Rx.Send(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		r.Logger.Error("cli: reading stdin", "err", err)
	}
	r.Ctx.Channel.Rx.Close()
}

// printLoop drains r.Ctx.Channel.Tx to r.Out until the queue is closed.
func (r *Runner) printLoop(done chan struct{}) {
	defer close(done)
	w := bufio.NewWriter(r.Out)
	defer w.Flush()
	for {
		line, ok := r.Ctx.Channel.Tx.Recv()
		if !ok {
			return
		}
		fmt.Fprintln(w, line)
		w.Flush()
	}
}
