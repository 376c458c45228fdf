// Package cli provides the interactive uploader command-line client.
//
// It wires configuration, the local profile store, the wallet, identity and
// upload services, and a REPL that plays the part of the UI: it selects a
// file, triggers an upload and renders the status the services report.
//
// Typical flow: restore a remembered login, create or unlock a sponsored
// wallet (or connect an external one through the wallet agent), select a
// file and upload it. The REPL is started via App.Run(ctx), which blocks
// until the user exits.
package cli
