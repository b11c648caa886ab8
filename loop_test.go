package ctxrun

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"text/template"
)

type streamCall struct {
	chunks []string
	err    error
}

type fakeStreamer struct {
	calls []streamCall
	idx   int
}

func (f *fakeStreamer) Stream(ctx context.Context, req any) (func() (string, error), func(), error) {
	call := f.calls[f.idx]
	f.idx++
	if call.err != nil {
		return nil, nil, call.err
	}
	i := 0
	next := func() (string, error) {
		if i >= len(call.chunks) {
			return "", io.EOF
		}
		c := call.chunks[i]
		i++
		return c, nil
	}
	return next, func() {}, nil
}

func chunkOf(t *testing.T, cand Candidate) string {
	t.Helper()
	b, err := json.Marshal(ChatCompletionResponse{Candidates: []Candidate{cand}})
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func newTestCtx(streamer Streamer) *Ctx {
	return &Ctx{
		Sys:           "be terse",
		Templates:     map[string]*template.Template{},
		Channel:       NewPair(),
		Client:        streamer,
		Logger:        nopLogger(),
		MaxIterations: 10,
	}
}

func TestTickPlainEcho(t *testing.T) {
	fs := &fakeStreamer{calls: []streamCall{
		{chunks: []string{chunkOf(t, Candidate{Content: Content{Role: RoleModel, Parts: []Part{TextPart("hi END")}}})}},
	}}
	c := newTestCtx(fs)
	c.appendContent(RoleUser, TextPart("hello"))

	transcript, err := c.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if !c.IsEnded {
		t.Error("expected IsEnded = true")
	}
	if len(transcript) != 2 {
		t.Fatalf("expected 2 entries, got %d: %+v", len(transcript), transcript)
	}
	if transcript[1].Role != RoleModel || transcript[1].Parts[0].Text != "hi END" {
		t.Errorf("unexpected final entry: %+v", transcript[1])
	}

	out, ok := c.Channel.Tx.Recv()
	if !ok || out != "hi END" {
		t.Errorf("expected outbound %q, got %q ok=%v", "hi END", out, ok)
	}
}

func TestTickShellTool(t *testing.T) {
	fs := &fakeStreamer{calls: []streamCall{
		{chunks: []string{chunkOf(t, Candidate{Content: Content{Role: RoleModel, Parts: []Part{FunctionCallPart("ls", json.RawMessage("{}"))}}})}},
		{chunks: []string{chunkOf(t, Candidate{Content: Content{Role: RoleModel, Parts: []Part{TextPart("done END")}}})}},
	}}
	c := newTestCtx(fs)
	c.ConfigDir = t.TempDir()
	tmpl, err := template.New("ls").Parse("echo X")
	if err != nil {
		t.Fatal(err)
	}
	c.Templates["ls"] = tmpl
	c.appendContent(RoleUser, TextPart("list files"))

	transcript, err := c.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(transcript) != 4 {
		t.Fatalf("expected 4 entries, got %d: %+v", len(transcript), transcript)
	}
	if transcript[1].Role != RoleModel || transcript[1].Parts[0].Kind != PartFunctionCall {
		t.Errorf("unexpected entry 1: %+v", transcript[1])
	}
	if transcript[2].Role != RoleFunction || transcript[2].Parts[0].FunctionResponse.Response.Content != "X\n" {
		t.Errorf("unexpected entry 2: %+v", transcript[2])
	}
	if transcript[3].Role != RoleModel || transcript[3].Parts[0].Text != "done END" {
		t.Errorf("unexpected entry 3: %+v", transcript[3])
	}
}

func TestTickStreamedTextOrder(t *testing.T) {
	fs := &fakeStreamer{calls: []streamCall{
		{chunks: []string{
			chunkOf(t, Candidate{Content: Content{Role: RoleModel, Parts: []Part{TextPart("one ")}}}),
			chunkOf(t, Candidate{Content: Content{Role: RoleModel, Parts: []Part{TextPart("two ")}}}),
			chunkOf(t, Candidate{Content: Content{Role: RoleModel, Parts: []Part{TextPart("three")}}}),
		}},
	}}
	c := newTestCtx(fs)
	c.appendContent(RoleUser, TextPart("go"))

	transcript, err := c.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	final := transcript[len(transcript)-1]
	if len(final.Parts) != 3 {
		t.Fatalf("expected 3 parts in final model turn, got %d", len(final.Parts))
	}
	want := []string{"one ", "two ", "three"}
	for i, w := range want {
		if final.Parts[i].Text != w {
			t.Errorf("part %d: got %q want %q", i, final.Parts[i].Text, w)
		}
		out, ok := c.Channel.Tx.Recv()
		if !ok || out != w {
			t.Errorf("outbound %d: got %q ok=%v want %q", i, out, ok, w)
		}
	}
}

func TestTickServerErrorLeavesTranscriptUnchanged(t *testing.T) {
	fs := &fakeStreamer{calls: []streamCall{
		{err: errors.New("bad response: {\"error\":\"boom\"}")},
	}}
	c := newTestCtx(fs)
	c.appendContent(RoleUser, TextPart("hello"))
	before := len(c.Contents)

	_, err := c.Tick(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if len(c.Contents) != before {
		t.Errorf("transcript mutated on error: %+v", c.Contents)
	}
}
