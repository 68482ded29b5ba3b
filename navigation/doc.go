// Package navigation implements the role-based navigation guard.
//
// [Guard.Evaluate] is a pure function from the session and router state ([Input]) to a
// [Decision]: stay, defer, or replace the current location with a target path. Only the
// top-level group of the location is compared, so screens nested under a role's root
// are never disturbed. [Navigator] wraps a Guard around a [Router] and issues at most one
// replace per divergence.
//
// # Architecture boundaries
//
// The guard reads locations and issues replace instructions; it never owns navigation
// state and never transitions on a timer.
//
// # What this package must NOT do
//
//   - Write session state or the credential record.
//   - Pick a landing screen for a role it cannot classify.
package navigation
