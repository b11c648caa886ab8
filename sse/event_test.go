package sse

import (
	"io"
	"strings"
	"testing"
)

func TestDecoderDataLine(t *testing.T) {
	d := NewDecoder(strings.NewReader("data: hello\n"))
	ev, err := d.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Kind != KindData || ev.Value != "hello" {
		t.Fatalf("got %+v", ev)
	}
}

func TestDecoderEventAndID(t *testing.T) {
	d := NewDecoder(strings.NewReader("event: message\nid: 42\n"))
	ev, err := d.Next()
	if err != nil || ev.Kind != KindEvent || ev.Value != "message" {
		t.Fatalf("event line: got %+v err=%v", ev, err)
	}
	ev, err = d.Next()
	if err != nil || ev.Kind != KindID || ev.Value != "42" {
		t.Fatalf("id line: got %+v err=%v", ev, err)
	}
}

func TestDecoderRetry(t *testing.T) {
	d := NewDecoder(strings.NewReader("retry: 3000\n"))
	ev, err := d.Next()
	if err != nil || ev.Kind != KindRetry || ev.Retry != 3000 {
		t.Fatalf("got %+v err=%v", ev, err)
	}
}

func TestDecoderLineWithNoColonIsComment(t *testing.T) {
	d := NewDecoder(strings.NewReader("bare line\n"))
	ev, err := d.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Kind != KindComment {
		t.Fatalf("got %+v", ev)
	}
}

func TestDecoderBlankSeparatorLineDoesNotEndStream(t *testing.T) {
	d := NewDecoder(strings.NewReader("data: one\n\ndata: two\n"))
	ev, err := d.Next()
	if err != nil || ev.Kind != KindData || ev.Value != "one" {
		t.Fatalf("first event: got %+v err=%v", ev, err)
	}
	ev, err = d.Next()
	if err != nil || ev.Kind != KindComment {
		t.Fatalf("blank separator: got %+v err=%v", ev, err)
	}
	ev, err = d.Next()
	if err != nil || ev.Kind != KindData || ev.Value != "two" {
		t.Fatalf("second event: got %+v err=%v", ev, err)
	}
}

func TestDecoderUnrecognizedLabelIsComment(t *testing.T) {
	d := NewDecoder(strings.NewReader("foo: bar\n"))
	ev, err := d.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Kind != KindComment {
		t.Fatalf("got %+v", ev)
	}
}

func TestDecoderFirstChunkErrorPayload(t *testing.T) {
	d := NewDecoder(strings.NewReader("{\"error\":\"boom\"}\n"))
	_, err := d.Next()
	if err == nil {
		t.Fatal("expected BadResponseError")
	}
	if _, ok := err.(*BadResponseError); !ok {
		t.Fatalf("got %T: %v", err, err)
	}
}

func TestDecoderEndOfStream(t *testing.T) {
	d := NewDecoder(strings.NewReader("data: x\n"))
	if _, err := d.Next(); err != nil {
		t.Fatalf("first line: %v", err)
	}
	if _, err := d.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestCheckFirstChunkAlnumPrefix(t *testing.T) {
	if err := CheckFirstChunk("data: hi"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := CheckFirstChunk("{\"error\":true}"); err == nil {
		t.Fatal("expected error for non-alnum prefix")
	}
}
