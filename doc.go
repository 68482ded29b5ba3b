// Package goCampus is the session and role-routing core of the university client.
//
// An [Engine] composes three parts: the session store (who is signed in, persisted in a
// credential vault), the navigation guard (which screen tree that user belongs in) and
// the backend REST client. Engine methods are safe to call from multiple goroutines after
// [Builder.Build].
//
// # Architecture boundaries
//
// goCampus is the public surface. It exposes [Engine], [Builder], [Config] and the value
// types re-exported from api, session and navigation. Event dispatch and logging live
// under internal/.
//
// # What this package must NOT do
//
//   - Write the credential record outside the session store.
//   - Choose a landing screen for a role the registry cannot classify.
//   - Import any sub-package that re-imports goCampus (no import cycles).
//
// # Failure contract
//
// Only login failures and unrecognized roles reach the caller. An unverifiable session
// is downgraded to signed-out, and storage failures during logout are logged.
package goCampus
