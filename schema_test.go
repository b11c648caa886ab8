package ctxrun

import (
	"encoding/json"
	"testing"
)

func TestSchemaRoundTripRef(t *testing.T) {
	s := Schema{Kind: SchemaRef, Ref: "#/defs/Query"}
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"#/defs/Query"` {
		t.Errorf("got %s", b)
	}
	var got Schema
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if got.Kind != SchemaRef || got.Ref != "#/defs/Query" {
		t.Errorf("round-trip mismatch: %+v", got)
	}
}

func TestSchemaRoundTripNull(t *testing.T) {
	s := Schema{Kind: SchemaNull}
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "null" {
		t.Errorf("got %s", b)
	}
	var got Schema
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if !got.IsNull() {
		t.Errorf("expected null schema, got %+v", got)
	}
}

func TestSchemaRoundTripObjectElidesDefaults(t *testing.T) {
	s := Schema{
		Kind: SchemaObject,
		Type: "object",
		Properties: map[string]Schema{
			"query": {Kind: SchemaObject, Type: "string"},
		},
		Required: []string{"query"},
	}
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatal(err)
	}
	for _, absent := range []string{"enum", "nullable", "description", "format", "items"} {
		if _, ok := raw[absent]; ok {
			t.Errorf("expected %q to be elided, got raw: %s", absent, b)
		}
	}

	var got Schema
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if got.Kind != SchemaObject || got.Type != "object" {
		t.Errorf("round-trip mismatch: %+v", got)
	}
	if len(got.Required) != 1 || got.Required[0] != "query" {
		t.Errorf("required mismatch: %+v", got.Required)
	}
	if got.Properties["query"].Type != "string" {
		t.Errorf("nested property mismatch: %+v", got.Properties)
	}
}

func TestSchemaIsZero(t *testing.T) {
	if !(Schema{Kind: SchemaObject}).IsZero() {
		t.Error("expected zero-value object Schema to be IsZero")
	}
	if (Schema{Kind: SchemaObject, Type: "string"}).IsZero() {
		t.Error("expected populated Schema to not be IsZero")
	}
	if (Schema{Kind: SchemaNull}).IsZero() {
		t.Error("null Schema should not be IsZero")
	}
}

func TestSchemaFromAnyNested(t *testing.T) {
	raw := map[string]any{
		"Type":        "object",
		"Description": "a search request",
		"Required":    []any{"query"},
		"Properties": map[string]any{
			"query": map[string]any{
				"Type": "string",
			},
			"limit": map[string]any{
				"Type":     "integer",
				"Nullable": true,
			},
		},
	}
	s := SchemaFromAny(raw)
	if s.Kind != SchemaObject || s.Type != "object" {
		t.Fatalf("unexpected top-level schema: %+v", s)
	}
	if s.Description != "a search request" {
		t.Errorf("description mismatch: %q", s.Description)
	}
	if len(s.Required) != 1 || s.Required[0] != "query" {
		t.Errorf("required mismatch: %+v", s.Required)
	}
	if s.Properties["query"].Type != "string" {
		t.Errorf("query property mismatch: %+v", s.Properties["query"])
	}
	if !s.Properties["limit"].Nullable || s.Properties["limit"].Type != "integer" {
		t.Errorf("limit property mismatch: %+v", s.Properties["limit"])
	}
}

func TestSchemaFromAnyNullAndRef(t *testing.T) {
	if got := SchemaFromAny(nil); !got.IsNull() {
		t.Errorf("expected null schema from nil, got %+v", got)
	}
	if got := SchemaFromAny("#/defs/Query"); got.Kind != SchemaRef || got.Ref != "#/defs/Query" {
		t.Errorf("expected ref schema from string, got %+v", got)
	}
}
