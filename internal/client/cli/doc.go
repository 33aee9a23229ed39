// Package cli provides the interactive contacts command-line client.
//
// It wires configuration, the document store (embedded SQLite in local mode
// or the gRPC server in remote mode), the auth provider and a REPL. After a
// successful sign-in the contact list is loaded and kept current by a store
// subscription; changes made elsewhere are re-rendered while the prompt is
// idle.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
