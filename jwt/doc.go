// Package jwt issues and verifies campus access tokens for the development backend and
// decodes tokens for display.
//
// The client treats its bearer token as opaque. [Inspect] exists so tools can show who
// a stored token belongs to and when it expires; only the backend decides validity.
package jwt
