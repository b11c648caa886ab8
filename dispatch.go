package ctxrun

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"
)

const subContextInputKey = "input"

// Dispatch resolves name to either a sub-context (§4.3 step 1) or a shell
// tool (§4.3 step 2) and returns the functionResponse Part recording its
// result. It never treats a non-zero shell exit as fatal; only I/O or
// UTF-8 decoding failures propagate.
func Dispatch(ctx context.Context, c *Ctx, name string, args json.RawMessage) (Part, error) {
	var span Span
	if c.Tracer != nil {
		ctx, span = c.Tracer.Start(ctx, "ctxrun.dispatch", StringAttr("tool", name), StringAttr("ctx_id", c.ID))
		defer span.End()
	}

	subPath := filepath.Join(c.ConfigDir, name+".module")
	if _, statErr := os.Stat(subPath); statErr == nil {
		part, err := dispatchSubContext(ctx, c, subPath, name, args)
		if err == nil {
			return part, nil
		}
		// A sub-context module that fails to load falls back to treating the
		// tool as a shell tool (§7 policy table); any other sub-context
		// failure (bad args, a failed tick) fails the dispatch.
		var badModule *ErrBadModule
		if !errors.As(err, &badModule) {
			return Part{}, err
		}
		c.Logger.Debug("ctxrun: sub-context load failed, falling back to shell tool", "name", name, "err", err)
	}

	return dispatchShell(ctx, c, name, args)
}

func dispatchSubContext(ctx context.Context, c *Ctx, subPath, name string, args json.RawMessage) (Part, error) {
	var decoded map[string]any
	if len(args) > 0 {
		if err := json.Unmarshal(args, &decoded); err != nil {
			return Part{}, &ErrBadArgs{Tool: name, Key: subContextInputKey}
		}
	}
	input, ok := decoded[subContextInputKey].(string)
	if !ok {
		return Part{}, &ErrBadArgs{Tool: name, Key: subContextInputKey}
	}

	start := time.Now()
	sub, err := NewSubContext(subPath, c.Channel, c.Client, c.Tracer, c.Metrics, c.Logger)
	if err != nil {
		return Part{}, err
	}
	sub.DocReader = c.DocReader
	sub.appendContent(RoleUser, TextPart(input))

	// Drive the sub-context until it reports ended. If a tick pauses
	// expecting more input, the next turn comes off the same shared
	// inbound queue as the parent (sub-contexts clone it verbatim), so a
	// paused sub-context is fed by whatever the front-end pushes next.
	var transcript []Content
	for {
		transcript, err = sub.Tick(ctx)
		if err != nil {
			return Part{}, err
		}
		if sub.IsEnded {
			break
		}
		line, ok := c.Channel.Rx.Recv()
		if !ok {
			break
		}
		sub.appendContent(RoleUser, TextPart(line))
	}

	body, err := marshalTranscript(transcript)
	if err != nil {
		return Part{}, &ErrToolExec{Tool: name, Reason: err.Error()}
	}

	if c.Metrics != nil {
		c.Metrics.ToolDispatched(ctx, "sub_context", float64(time.Since(start).Milliseconds()))
	}
	return FunctionResponsePart(name, body), nil
}

// docReadPrefix mirrors tools/docread.Prefix. It is duplicated rather than
// imported so that the root package does not depend on tools/docread; the
// implementation is reached only through the DocReader interface.
const docReadPrefix = "#!doc"

func dispatchShell(ctx context.Context, c *Ctx, name string, args json.RawMessage) (Part, error) {
	if fn, ok := c.functionByName(name); ok && strings.HasPrefix(fn.Exec, docReadPrefix) {
		return dispatchDocRead(ctx, c, name, args)
	}

	tmpl, ok := c.Templates[name]
	if !ok {
		return Part{}, &ErrBadModule{Path: name, Reason: "no template registered for tool"}
	}

	var decoded map[string]any
	if len(args) > 0 {
		if err := json.Unmarshal(args, &decoded); err != nil {
			return Part{}, &ErrBadArgs{Tool: name, Key: "*"}
		}
	}

	var rendered bytes.Buffer
	if err := tmpl.Execute(&rendered, decoded); err != nil {
		return Part{}, &ErrToolExec{Tool: name, Reason: err.Error()}
	}
	cmd := rendered.String()

	start := time.Now()
	if nowait, detached := strings.CutPrefix(cmd, "#!nowait"); detached {
		if err := spawnDetached(`trap "" HUP;` + nowait); err != nil {
			return Part{}, &ErrToolExec{Tool: name, Reason: err.Error()}
		}
		if c.Metrics != nil {
			c.Metrics.ToolDispatched(ctx, "shell_detached", float64(time.Since(start).Milliseconds()))
		}
		return FunctionResponsePart(name, ""), nil
	}

	out, err := exec.CommandContext(ctx, "sh", "-c", cmd).Output()
	exitCode := 0
	if err != nil {
		exitErr, isExit := err.(*exec.ExitError)
		if !isExit {
			return Part{}, &ErrToolExec{Tool: name, Reason: err.Error()}
		}
		exitCode = exitErr.ExitCode()
	}
	if !utf8.Valid(out) {
		return Part{}, &ErrToolExec{Tool: name, Reason: "stdout is not valid UTF-8"}
	}
	if c.Metrics != nil {
		c.Metrics.ToolDispatched(ctx, "shell", float64(time.Since(start).Milliseconds()))
		c.Metrics.ToolExitCode(ctx, exitCode)
	}
	return FunctionResponsePart(name, string(out)), nil
}

// dispatchDocRead routes a "#!doc"-prefixed function straight to c.DocReader,
// passing args through unrendered: read_document takes a structured source
// argument, not shell-command template variables.
func dispatchDocRead(ctx context.Context, c *Ctx, name string, args json.RawMessage) (Part, error) {
	if c.DocReader == nil {
		return Part{}, &ErrToolExec{Tool: name, Reason: "no DocReader configured"}
	}

	start := time.Now()
	text, err := c.DocReader.Read(ctx, args)
	if err != nil {
		return Part{}, &ErrToolExec{Tool: name, Reason: err.Error()}
	}
	if c.Metrics != nil {
		c.Metrics.ToolDispatched(ctx, "doc_read", float64(time.Since(start).Milliseconds()))
	}
	return FunctionResponsePart(name, text), nil
}

// spawnDetached starts cmd under sh -c without waiting for completion,
// surviving the parent process group via setsid so that the commands
// fired under #!nowait outlive the tick call that spawned them.
func spawnDetached(cmd string) error {
	c := exec.Command("sh", "-c", cmd)
	c.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := c.Start(); err != nil {
		return err
	}
	go c.Wait()
	return nil
}
