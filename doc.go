// Package ctxrun is a recursive, tool-using conversational agent runtime.
//
// A Ctx holds one conversation's transcript, its declared functions, and a
// shared pair of unbounded queues linking it to a front-end or parent
// context. Tick drains the model's streamed response, dispatching any
// functionCall parts either to a shell command rendered from a template or
// to a nested sub-context loaded from its own module file.
//
// # Quick Start
//
//	cfg, err := config.Load()
//	path := config.DefaultModulePath(cfg.ConfigDir)
//	c, err := ctxrun.Load(path, ctxrun.NewPair(), client, tracer, metrics, logger)
//	transcript, err := c.Tick(ctx)
//
// # Core Types
//
//   - [Ctx] — one conversation's runtime state
//   - [Part] / [Content] — the tagged-variant transcript model
//   - [Function] / [Schema] — a tool declaration and its parameter schema
//   - [Tracer] / [Span] — observability hooks, OTEL-backed by package observer
//
// # Included Implementations
//
// SSE streaming: package sse. Module file parsing: package modparse.
// Configuration and bootstrap: package internal/config. Document-reading
// tool: package tools/docread. Stdin/stdout bridge: package frontend/cli.
package ctxrun
