package ctxrun

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"ctxrun/modparse"
)

// Streamer opens a streaming chat completion call. *sse.Client implements
// this; tests substitute a fake to avoid real network I/O.
type Streamer interface {
	Stream(ctx context.Context, req any) (next func() (string, error), closer func(), err error)
}

// TerminationSentinel is the word a model's trailing text (after stripping
// trailing '.' and whitespace) must end with to latch IsEnded. The source
// material has historically used both "END" and "***"; this implementation
// fixes on "END".
const TerminationSentinel = "END"

// Ctx is the runtime state of one conversation (§3). Sub-contexts own their
// Contents/Functions/Templates but share their parent's Channel verbatim.
type Ctx struct {
	// ID is a UUIDv7 assigned at Load time, used to correlate this
	// context's spans and log lines across a recursive sub-context chain.
	ID        string
	Sys       string
	Functions []Function
	Contents  []Content
	Templates map[string]*template.Template

	Channel Pair
	IsEnded bool

	ConfigDir string
	Client    Streamer
	Tracer    Tracer
	Metrics   Metrics
	DocReader DocReader
	Logger    *slog.Logger

	MaxIterations int
}

// DocReader extracts readable text from the source named in a "#!doc"
// function's args (§ DOMAIN STACK: tools/docread). Set Ctx.DocReader to
// wire the built-in implementation in; left nil, "#!doc" functions fail
// with ErrToolExec.
type DocReader interface {
	Read(ctx context.Context, args json.RawMessage) (string, error)
}

// nopLogger is used whenever no *slog.Logger is configured.
func nopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// Load parses the module file at path and builds a Ctx sharing channel with
// its caller. tracer and metrics may be nil, which skips tracing and metric
// recording; a nil logger is replaced by a silent one. The dispatcher hands
// each sub-context its parent's client, tracer, metrics and logger here.
func Load(path string, channel Pair, client Streamer, tracer Tracer, metrics Metrics, logger *slog.Logger) (*Ctx, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ErrBadModule{Path: path, Reason: err.Error()}
	}
	defer f.Close()

	parsed, err := modparse.Parse(f)
	if err != nil {
		return nil, &ErrBadModule{Path: path, Reason: err.Error()}
	}

	if logger == nil {
		logger = nopLogger()
	}
	id := NewID()
	logger = logger.With("ctx_id", id)

	c := &Ctx{
		ID:            id,
		Sys:           parsed.Sys,
		Channel:       channel,
		Templates:     make(map[string]*template.Template, len(parsed.Functions)),
		ConfigDir:     filepath.Dir(path),
		Client:        client,
		Tracer:        tracer,
		Metrics:       metrics,
		Logger:        logger,
		MaxIterations: 50,
	}

	for _, pf := range parsed.Functions {
		fn := Function{
			Name:        pf.Name,
			Description: pf.Description,
			Parameters:  SchemaFromAny(pf.Parameters),
			Exec:        pf.Exec,
		}
		c.Functions = append(c.Functions, fn)
		c.Templates[pf.Name] = pf.Template
	}

	return c, nil
}

// NewSubContext builds a fresh Ctx for a nested tool invocation, sharing
// the parent's channel (deliberately, per §5) but starting with an empty
// transcript and no inherited preamble (the sub-context does not inherit
// DEFAULT_PROMPT — this implementation's resolution of the inheritance
// ambiguity in §9).
func NewSubContext(path string, channel Pair, client Streamer, tracer Tracer, metrics Metrics, logger *slog.Logger) (*Ctx, error) {
	return Load(path, channel, client, tracer, metrics, logger)
}

// sentinelMatch reports whether text's trailing characters, after trimming
// trailing '.' and whitespace, end with TerminationSentinel.
func sentinelMatch(text string) bool {
	t := strings.TrimRight(text, " \t\r\n")
	t = strings.TrimRight(t, ".")
	return strings.HasSuffix(t, TerminationSentinel)
}

// lastRole returns the Role of the final Content in the transcript, or
// RoleNone if the transcript is empty.
func (c *Ctx) lastRole() Role {
	if len(c.Contents) == 0 {
		return RoleNone
	}
	return c.Contents[len(c.Contents)-1].Role
}

// functionByName looks up a parsed Function declaration by name.
func (c *Ctx) functionByName(name string) (Function, bool) {
	for _, f := range c.Functions {
		if f.Name == name {
			return f, true
		}
	}
	return Function{}, false
}

// appendContent appends one transcript entry.
func (c *Ctx) appendContent(role Role, parts ...Part) {
	c.Contents = append(c.Contents, Content{Parts: parts, Role: role})
}

// marshalTranscript serializes contents for embedding as a sub-context's
// functionResponse content (§4.3 step 1).
func marshalTranscript(contents []Content) (string, error) {
	b, err := json.Marshal(contents)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
