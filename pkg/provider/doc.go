// Package provider is the SDK for writing component providers: processes the
// orchestration engine delegates component construction and method invocation
// to. A provider implements the Provider interface and hands it to Main (or
// NewServer + Serve for finer control); the package owns the engine-facing
// pipeline around it — request validation, settings overwrite, property
// decode/encode with secrecy and dependency tracking, and draining of
// background work before each response.
package provider
