package ctxrun

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Tick is the engine's turn loop (§4.4). Callers seed Ctx.Contents with a
// user turn before the first call. Tick runs model rounds — recursing
// internally whenever the model owes another response after a tool call —
// until the last transcript entry is a completed model reply, at which
// point the entire transcript is returned to the caller (this
// implementation's resolution of the full-transcript-vs-final-turn
// ambiguity in §9). The recursion in the source material is realized here
// as a bounded loop: transcripts are append-only, so no call stack is
// required.
func (c *Ctx) Tick(ctx context.Context) ([]Content, error) {
	start := time.Now()
	record := func(outcome string) {
		if c.Metrics != nil {
			c.Metrics.TickCompleted(ctx, outcome, float64(time.Since(start).Milliseconds()))
		}
	}

	for iter := 0; iter < c.MaxIterations; iter++ {
		if err := c.runRound(ctx); err != nil {
			record("error")
			return nil, err
		}

		switch c.lastRole() {
		case RoleModel:
			record("ended")
			return c.Contents, nil
		case RoleFunction:
			continue
		default:
			line, ok := c.Channel.Rx.Recv()
			if !ok {
				record("ended")
				return c.Contents, nil
			}
			c.appendContent(RoleUser, TextPart(line))
			continue
		}
	}
	record("max_iterations")
	return nil, fmt.Errorf("tick: exceeded max iterations (%d)", c.MaxIterations)
}

// runRound performs one AWAIT_MODEL -> REPLIED/TOOL_RUN pass: opens an SSE
// stream against the remote endpoint, drains it, and dispatches any
// functionCall parts observed. It appends at most one model-role Content
// for batched text/inlineData parts plus one model/function Content pair
// per dispatched tool call.
func (c *Ctx) runRound(ctx context.Context) error {
	var span Span
	if c.Tracer != nil {
		ctx, span = c.Tracer.Start(ctx, "ctxrun.tick", StringAttr("ctx_id", c.ID))
		defer span.End()
	}

	req := ChatCompletionRequest{
		Contents: c.Contents,
		Tools:    []Tool{{FunctionDeclarations: declarations(c.Functions)}},
		SystemInstruction: &Content{
			Parts: []Part{TextPart(c.Sys)},
			Role:  RoleNone,
		},
	}

	c.Logger.Debug("ctxrun: sending request", "contents", len(req.Contents))

	next, closer, err := c.Client.Stream(ctx, req)
	if err != nil {
		if span != nil {
			span.Error(err)
		}
		return err
	}
	defer closer()

	var pending []Part

	for {
		chunk, err := next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if span != nil {
				span.Error(err)
			}
			return err
		}

		var resp ChatCompletionResponse
		if jsonErr := json.Unmarshal([]byte(chunk), &resp); jsonErr != nil {
			return &ErrBadResponse{Body: chunk}
		}

		for _, cand := range resp.Candidates {
			for _, part := range cand.Content.Parts {
				switch part.Kind {
				case PartText:
					c.Channel.Tx.Send(part.Text)
					if sentinelMatch(part.Text) {
						c.IsEnded = true
					}
					pending = append(pending, part)

				case PartInlineData:
					url := fmt.Sprintf("![](data:%s;base64,%s)", part.InlineData.MimeType, part.InlineData.Data)
					c.Channel.Tx.Send(url)
					pending = append(pending, part)

				case PartFunctionCall:
					c.appendContent(RoleModel, part)
					c.Logger.Info("ctxrun: dispatching tool", "name", part.FunctionCall.Name)
					respPart, dispatchErr := Dispatch(ctx, c, part.FunctionCall.Name, part.FunctionCall.Args)
					if dispatchErr != nil {
						if span != nil {
							span.Error(dispatchErr)
						}
						return dispatchErr
					}
					c.appendContent(RoleFunction, respPart)

				case PartFunctionResponse:
					return &ErrProtocolViolation{Detail: "functionResponse part received from model"}
				}
			}
		}
	}

	if len(pending) > 0 {
		c.appendContent(RoleModel, pending...)
	}
	return nil
}

func declarations(fns []Function) []FunctionDeclaration {
	out := make([]FunctionDeclaration, len(fns))
	for i, f := range fns {
		out[i] = f.Declaration()
	}
	return out
}
