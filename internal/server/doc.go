// Package server implements the transport layer of the chat relay: the
// WebSocket hub, per-client read/write pumps, HTTP routing, and runtime
// configuration.
//
// The implementation is organized into specialized files for configuration,
// hub management, clients, routing, and HTTP handlers to keep the codebase
// maintainable and testable as the project grows. The relay core itself
// lives in internal/chat and is driven by the hub's event loop.
package server
