// Package role normalizes the free-text role strings returned by the university backend
// and classifies them into the closed set of roles the client routes on.
//
// # Normalization
//
// Role values arrive as user-facing Russian strings ("Декан", "заместитель декана",
// "преподаватель (лектор)", ...). [Normalize] applies NFC, trims, collapses inner
// whitespace and Unicode case-folds, so "  Декан " and "декан" compare equal.
//
// # Architecture boundaries
//
// This package is a pure in-memory table with no I/O. It does not know about screens,
// routes or sessions; the navigation package maps a [Kind] to a route.
//
// # What this package must NOT do
//
//   - Guess a role for an unrecognized value (return [ErrUnknownRole] instead).
//   - Import goCampus, session or navigation.
package role
