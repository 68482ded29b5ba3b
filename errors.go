package goCampus

import (
	"errors"

	"github.com/MrEthical07/goCampus/api"
	"github.com/MrEthical07/goCampus/role"
	"github.com/MrEthical07/goCampus/session"
)

var (
	// ErrUnknownRole is returned when an authenticated user's role has no route.
	ErrUnknownRole = role.ErrUnknownRole
	// ErrLoginRejected is matched by every login failure carrying a user-facing message.
	ErrLoginRejected = session.ErrLoginRejected
	// ErrStorageUnavailable is returned when a successful login cannot be persisted.
	ErrStorageUnavailable = session.ErrStorageUnavailable
	// ErrAuthRequired is returned by API calls that need a session when none exists.
	ErrAuthRequired = api.ErrAuthRequired
	// ErrMalformedResponse is returned when the backend reply has an unexpected shape.
	ErrMalformedResponse = api.ErrMalformedResponse
	// ErrEngineNotReady is returned by methods called on a nil or closed Engine.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrRouterRequired is returned by Build when no Router was configured.
	ErrRouterRequired = errors.New("router required")
	// ErrBackendRequired is returned by Build when neither a backend nor an API base URL is set.
	ErrBackendRequired = errors.New("backend or API base URL required")
)

// LoginError carries the message shown after a rejected login.
type LoginError = session.LoginError

// APIError is a non-2xx backend reply.
type APIError = api.APIError
