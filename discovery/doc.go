// Package discovery is the client SDK pipeline collaborators use to talk to
// the beacon registry. It covers the full collaborator lifecycle:
//
//   - Register announces this process and returns a Registration handle that
//     renews the lease in the background.
//   - Find resolves another collaborator by name, retrying with exponential
//     backoff because discovery is expected to race collaborator startup.
//   - Registration.Close performs a best-effort unregister on shutdown;
//     if it fails, the record self-expires when the lease lapses.
//
// A statically configured address (config override or <NAME>_SERVICE_ADDR
// environment variable) bypasses the registry entirely, which keeps
// collaborators runnable without a registry in development.
package discovery
