package session

import (
	"context"

	"github.com/MrEthical07/goCampus/api"
)

// Status is the lifecycle phase of a Store.
type Status uint8

const (
	StatusUninitialized Status = iota
	StatusLoading
	StatusResolved
)

func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusLoading:
		return "loading"
	case StatusResolved:
		return "resolved"
	default:
		return "invalid"
	}
}

// Snapshot is an immutable view of the store. Identity is a copy.
type Snapshot struct {
	Status        Status
	Identity      *api.Identity
	Authenticated bool
}

// Loading reports whether the session has not been resolved yet.
func (s Snapshot) Loading() bool { return s.Status != StatusResolved }

// Role returns the raw role string, or "" when unauthenticated.
func (s Snapshot) Role() string {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.Role
}

// Backend is the subset of the REST API the store depends on. *api.Client implements it.
type Backend interface {
	Login(ctx context.Context, creds api.Credentials) (*api.LoginResponse, error)
	Me(ctx context.Context, token string) (*api.Identity, error)
}

// Observer receives a snapshot after every state change.
type Observer func(Snapshot)
