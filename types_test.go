package ctxrun

import (
	"encoding/json"
	"testing"
)

func TestPartRoundTripText(t *testing.T) {
	p := TextPart("hello")
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(b); got != `{"text":"hello"}` {
		t.Errorf("got %s", got)
	}
	var got Part
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if got.Kind != PartText || got.Text != "hello" {
		t.Errorf("round-trip mismatch: %+v", got)
	}
}

func TestPartRoundTripFunctionCall(t *testing.T) {
	p := FunctionCallPart("ls", json.RawMessage(`{"dir":"."}`))
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	var got Part
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if got.Kind != PartFunctionCall || got.FunctionCall.Name != "ls" {
		t.Errorf("round-trip mismatch: %+v", got)
	}
	if string(got.FunctionCall.Args) != `{"dir":"."}` {
		t.Errorf("args mismatch: %s", got.FunctionCall.Args)
	}
}

func TestPartRoundTripFunctionResponse(t *testing.T) {
	p := FunctionResponsePart("ls", "a.txt\nb.txt\n")
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	var got Part
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if got.Kind != PartFunctionResponse {
		t.Fatalf("unexpected kind: %+v", got)
	}
	if got.FunctionResponse.Response.Content != "a.txt\nb.txt\n" {
		t.Errorf("content mismatch: %+v", got.FunctionResponse.Response)
	}
}

func TestContentRoleOmittedWhenEmpty(t *testing.T) {
	c := Content{Parts: []Part{TextPart("hi")}}
	b, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatal(err)
	}
	if _, ok := raw["role"]; ok {
		t.Errorf("expected role to be omitted, got raw: %s", b)
	}
}

func TestContentRolePresentWhenSet(t *testing.T) {
	c := Content{Parts: []Part{TextPart("hi")}, Role: RoleUser}
	b, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["role"] != "user" {
		t.Errorf("expected role=user, got raw: %s", b)
	}
}

func TestFunctionDeclarationStripsExec(t *testing.T) {
	f := Function{Name: "ls", Description: "list files", Exec: "echo X"}
	decl := f.Declaration()
	b, err := json.Marshal(decl)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatal(err)
	}
	if _, ok := raw["Exec"]; ok {
		t.Errorf("Exec must not be serialized upstream: %s", b)
	}
	if _, ok := raw["exec"]; ok {
		t.Errorf("Exec must not be serialized upstream: %s", b)
	}
}
