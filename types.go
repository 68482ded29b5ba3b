package goCampus

import (
	"github.com/MrEthical07/goCampus/api"
	"github.com/MrEthical07/goCampus/internal/logger"
	"github.com/MrEthical07/goCampus/navigation"
	"github.com/MrEthical07/goCampus/session"
)

// Identity is the authenticated user as returned by the backend.
type Identity = api.Identity

// Credentials is the login request.
type Credentials = api.Credentials

// LoginResponse is the backend's login reply, kept verbatim in Raw.
type LoginResponse = api.LoginResponse

// SessionToken carries the opaque bearer token.
type SessionToken = api.SessionToken

// SessionSnapshot is an immutable view of the session state.
type SessionSnapshot = session.Snapshot

// Decision is a navigation guard verdict.
type Decision = navigation.Decision

// Location is a router path split into segments.
type Location = navigation.Location

// Router receives replace instructions from the guard.
type Router = navigation.Router

// Logger is the structured logger accepted by the Builder.
type Logger = logger.Logger
