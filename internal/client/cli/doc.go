// Package cli provides the interactive steamhub desktop launcher.
//
// It wires configuration, the local state file, the storefront API client
// and a small REPL. On start it tries to resume the saved session; after
// that the user can log in, list the library, download the installer and
// log out. The REPL is started via App.Run(ctx), which blocks until the
// user exits.
package cli
