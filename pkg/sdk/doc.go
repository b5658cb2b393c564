// Package sdk is the embedded draftforge client: it wires the pipeline
// against a database and an OpenAI-compatible provider in-process, without
// running the HTTP server. Intended for batch tooling and tests that want
// the full draft pipeline behind a plain Go API.
package sdk
