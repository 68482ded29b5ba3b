// Package session owns the client-side authentication state: the signed-in identity, its
// lifecycle status, and the persisted credential record.
//
// # Lifecycle
//
// A [Store] starts in [StatusUninitialized]. [Store.Initialize] moves it to
// [StatusLoading], validates any persisted token against the backend exactly once, and
// settles in [StatusResolved]. An unverifiable token is treated as no token: the record
// is cleared and the store resolves unauthenticated without surfacing an error.
//
// # Architecture boundaries
//
// The Store is the only writer of the credential record ([vault.KeyToken],
// [vault.KeyUserData]). It does not route; observers registered with [Store.Subscribe]
// react to state changes.
//
// # What this package must NOT do
//
//   - Import goCampus or navigation (no upward imports).
//   - Retry a session check or guess an identity from cached userData.
//   - Surface logout storage failures to the caller.
package session
