package ctxrun

import "fmt"

// ErrConfigMissing is fatal at startup: the API-key env var is absent or
// the home directory cannot be resolved.
type ErrConfigMissing struct {
	Reason string
}

func (e *ErrConfigMissing) Error() string {
	return fmt.Sprintf("config missing: %s", e.Reason)
}

// ErrBadModule is raised by a failed parse or template compile of a module
// file. Fatal for the root context; for a sub-context it triggers the
// shell-tool fallback (§4.3).
type ErrBadModule struct {
	Path   string
	Reason string
}

func (e *ErrBadModule) Error() string {
	return fmt.Sprintf("bad module %s: %s", e.Path, e.Reason)
}

// ErrTransport covers TCP/TLS/HTTP failures while talking to the remote
// endpoint. Fails the current tick; the context survives.
type ErrTransport struct {
	Reason string
}

func (e *ErrTransport) Error() string {
	return fmt.Sprintf("transport error: %s", e.Reason)
}

// ErrBadResponse covers a non-SSE server reply or malformed JSON inside a
// data: event.
type ErrBadResponse struct {
	Body string
}

func (e *ErrBadResponse) Error() string {
	return fmt.Sprintf("bad response: %s", e.Body)
}

// ErrBadArgs is raised when a sub-context invocation is missing its
// required input argument.
type ErrBadArgs struct {
	Tool string
	Key  string
}

func (e *ErrBadArgs) Error() string {
	return fmt.Sprintf("tool %s: missing arg %q", e.Tool, e.Key)
}

// ErrToolExec covers subprocess spawn failure or invalid UTF-8 in a
// subprocess's stdout.
type ErrToolExec struct {
	Tool   string
	Reason string
}

func (e *ErrToolExec) Error() string {
	return fmt.Sprintf("tool %s exec failed: %s", e.Tool, e.Reason)
}

// ErrProtocolViolation marks a part variant the model is never supposed to
// send (e.g. a functionResponse from the model side).
type ErrProtocolViolation struct {
	Detail string
}

func (e *ErrProtocolViolation) Error() string {
	return fmt.Sprintf("protocol violation: %s", e.Detail)
}
