package ctxrun

import "encoding/json"

// Role identifies who produced a Content entry in the transcript.
type Role string

const (
	RoleUser     Role = "user"
	RoleModel    Role = "model"
	RoleFunction Role = "function"
	RoleNone     Role = ""
)

// Part is a tagged variant carrying one fragment of a Content entry.
// Exactly one of the embedded payload fields is meaningful, selected by Kind.
type Part struct {
	Kind PartKind `json:"-"`

	Text string `json:"text,omitempty"`

	InlineData *InlineData `json:"inlineData,omitempty"`

	FunctionCall *FunctionCall `json:"functionCall,omitempty"`

	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
}

// PartKind discriminates the variant carried by a Part.
type PartKind int

const (
	PartText PartKind = iota
	PartInlineData
	PartFunctionCall
	PartFunctionResponse
)

// InlineData is a base64-encoded binary payload with its MIME type.
type InlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// FunctionCall is a tool invocation emitted by the model. Args is a
// free-form structured value (mapping, array, or scalar tree).
type FunctionCall struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

// FunctionResponse is the local reply to a prior FunctionCall.
type FunctionResponse struct {
	Name     string               `json:"name"`
	Response FunctionResponseBody `json:"response"`
}

// FunctionResponseBody wraps the string content a dispatched tool produced.
type FunctionResponseBody struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// TextPart builds a text Part.
func TextPart(s string) Part {
	return Part{Kind: PartText, Text: s}
}

// InlineDataPart builds an inlineData Part.
func InlineDataPart(mimeType, data string) Part {
	return Part{Kind: PartInlineData, InlineData: &InlineData{MimeType: mimeType, Data: data}}
}

// FunctionCallPart builds a functionCall Part.
func FunctionCallPart(name string, args json.RawMessage) Part {
	return Part{Kind: PartFunctionCall, FunctionCall: &FunctionCall{Name: name, Args: args}}
}

// FunctionResponsePart builds a functionResponse Part recording a tool's result.
func FunctionResponsePart(name, content string) Part {
	return Part{
		Kind: PartFunctionResponse,
		FunctionResponse: &FunctionResponse{
			Name:     name,
			Response: FunctionResponseBody{Name: name, Content: content},
		},
	}
}

// MarshalJSON externally tags the Part by emitting only the field matching Kind.
func (p Part) MarshalJSON() ([]byte, error) {
	switch p.Kind {
	case PartText:
		return json.Marshal(struct {
			Text string `json:"text"`
		}{p.Text})
	case PartInlineData:
		return json.Marshal(struct {
			InlineData *InlineData `json:"inlineData"`
		}{p.InlineData})
	case PartFunctionCall:
		return json.Marshal(struct {
			FunctionCall *FunctionCall `json:"functionCall"`
		}{p.FunctionCall})
	case PartFunctionResponse:
		return json.Marshal(struct {
			FunctionResponse *FunctionResponse `json:"functionResponse"`
		}{p.FunctionResponse})
	default:
		return json.Marshal(struct{}{})
	}
}

// UnmarshalJSON infers Kind from whichever tagged field is present.
func (p *Part) UnmarshalJSON(data []byte) error {
	var raw struct {
		Text             *string           `json:"text"`
		InlineData       *InlineData       `json:"inlineData"`
		FunctionCall     *FunctionCall     `json:"functionCall"`
		FunctionResponse *FunctionResponse `json:"functionResponse"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.FunctionResponse != nil:
		p.Kind = PartFunctionResponse
		p.FunctionResponse = raw.FunctionResponse
	case raw.FunctionCall != nil:
		p.Kind = PartFunctionCall
		p.FunctionCall = raw.FunctionCall
	case raw.InlineData != nil:
		p.Kind = PartInlineData
		p.InlineData = raw.InlineData
	case raw.Text != nil:
		p.Kind = PartText
		p.Text = *raw.Text
	}
	return nil
}

// Content is one transcript entry: an ordered sequence of Part under a Role.
// For role "function" there is exactly one functionResponse part.
type Content struct {
	Parts []Part `json:"parts"`
	Role  Role   `json:"role,omitempty"`
}

// Function is a tool declaration parsed from a module file. Exec is kept
// only locally; it is stripped before the declaration is sent upstream.
type Function struct {
	Name        string
	Description string
	Parameters  Schema
	Exec        string
}

// Declaration returns the wire form of Function sent to the remote model —
// Exec is local-only and never serialized upstream.
func (f Function) Declaration() FunctionDeclaration {
	return FunctionDeclaration{
		Name:        f.Name,
		Description: f.Description,
		Parameters:  f.Parameters,
	}
}

// FunctionDeclaration is the upstream-visible shape of a Function.
type FunctionDeclaration struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters  Schema `json:"parameters,omitempty"`
}

// Tool wraps a set of FunctionDeclaration under the wire key the remote
// API expects for tool registration.
type Tool struct {
	FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations"`
}

// ChatCompletionRequest is the JSON body sent to the streaming endpoint.
type ChatCompletionRequest struct {
	Contents          []Content `json:"contents"`
	Tools             []Tool    `json:"tools,omitempty"`
	SystemInstruction *Content  `json:"system_instruction,omitempty"`
}

// ChatCompletionResponse is decoded from each SSE data event in the content phase.
type ChatCompletionResponse struct {
	Candidates []Candidate `json:"candidates"`
}

// Candidate holds one model-produced Content with its position in the response.
type Candidate struct {
	Content Content `json:"content"`
	Index   int     `json:"index"`
}
