// Package vault provides durable key/value storage for the persisted credential record.
//
// The record is two keys: [KeyToken] holds the opaque bearer token and [KeyUserData]
// holds the serialized identity snapshot. Backends are selected at runtime through
// [Open]; core logic only sees the [Storage] interface.
//
// # Backends
//
//   - [Memory]: process-local map, for tests and ephemeral sessions.
//   - [File]: JSON object file guarded by an advisory file lock and replaced atomically.
//   - [Sealed]: wraps another Storage and encrypts every value with XChaCha20-Poly1305
//     under an Argon2id-derived key.
//   - [Redis]: shared storage for lab and kiosk deployments.
//
// # What this package must NOT do
//
//   - Interpret stored values.
//   - Decide when the record is written; only the session store writes it.
package vault
