// Package api is the REST client for the university backend.
//
// The backend is an external collaborator consumed as a fixed JSON-over-HTTP contract.
// Authentication endpoints ([Client.Login], [Client.Me]) are typed; the remaining
// endpoints return the server's JSON verbatim as [json.RawMessage], since schedule,
// grade and AI payloads are owned by the backend.
//
// # Architecture boundaries
//
// This package defines the backend data types ([Identity], [LoginResponse]) and performs
// HTTP. It does not persist tokens or hold session state; bearer tokens are pulled from a
// [TokenSource] supplied by the caller.
//
// # What this package must NOT do
//
//   - Import goCampus, session, vault or navigation (no upward imports).
//   - Retry the login or session-check endpoints.
package api
