// Package mockapi is a development backend speaking the campus REST contract. It keeps
// users, lessons, marks and chat history in memory, issues JWT access tokens and is
// used by cmd/campus-mockapi and by integration tests of the client packages.
package mockapi
