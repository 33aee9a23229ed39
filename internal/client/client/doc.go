// Package client contains client-side building blocks for gophcontacts.
//
// # Overview
//
// The package provides:
//  1. GRPCClient, the remote store.Gateway and auth provider. It manages a
//     connection, injects the session's access token via interceptors, and
//     maps gRPC status codes to sentinel errors.
//  2. InitDatabase, the local-mode bootstrap: an SQLite database with the
//     embedded goose migrations applied.
//
// # Error Handling
//
// Server-side failures keep the server's message and match the shared
// sentinels with errors.Is (common.ErrorNotFound, common.ErrAlreadyExists,
// common.ErrValidation, common.ErrorUnauthorized). Transport failures match
// ErrUnavailable.
//
// # Concurrency & Contexts
//
// GRPCClient is safe for concurrent use. All operations accept
// context.Context and honor cancellation and timeouts.
package client
