package navigation

import (
	"context"
	"errors"
	"sync"

	"github.com/MrEthical07/goCampus/internal/logger"
	"github.com/MrEthical07/goCampus/session"
)

// Router is the navigation surface the guard drives.
type Router interface {
	Replace(ctx context.Context, path string) error
}

// RouterFunc adapts a function to Router.
type RouterFunc func(ctx context.Context, path string) error

// Replace implements Router.
func (f RouterFunc) Replace(ctx context.Context, path string) error { return f(ctx, path) }

// UnknownRoleHandler is told once each time the session enters an unclassifiable role.
type UnknownRoleHandler func(ctx context.Context, rawRole string, err error)

// RedirectHook observes every replace the navigator issues.
type RedirectHook func(from Location, d Decision)

// NavigatorOption configures a Navigator.
type NavigatorOption func(*Navigator)

// WithUnknownRoleHandler sets the unknown-role callback.
func WithUnknownRoleHandler(h UnknownRoleHandler) NavigatorOption {
	return func(n *Navigator) { n.onUnknown = h }
}

// WithRedirectHook sets the redirect observer.
func WithRedirectHook(h RedirectHook) NavigatorOption {
	return func(n *Navigator) { n.onRedirect = h }
}

// WithNavigatorLogger sets the navigator logger.
func WithNavigatorLogger(l logger.Logger) NavigatorOption {
	return func(n *Navigator) { n.log = logger.OrNop(l) }
}

// Navigator keeps the latest Input and applies guard decisions to a Router. A redirect
// is issued once; the same target is not replaced again until the location changes.
type Navigator struct {
	guard  *Guard
	router Router
	log    logger.Logger

	onUnknown  UnknownRoleHandler
	onRedirect RedirectHook

	mu      sync.Mutex
	in      Input
	pending string
	// unknown holds the role last reported to onUnknown; reported says whether one was.
	unknown  string
	reported bool
}

// NewNavigator binds guard to router.
func NewNavigator(guard *Guard, router Router, opts ...NavigatorOption) (*Navigator, error) {
	if guard == nil {
		return nil, errors.New("navigation: guard required")
	}
	if router == nil {
		return nil, errors.New("navigation: router required")
	}
	n := &Navigator{guard: guard, router: router, log: logger.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}
	return n, nil
}

// Input returns the navigator's current view.
func (n *Navigator) Input() Input {
	n.mu.Lock()
	defer n.mu.Unlock()
	in := n.in
	in.Location = append(Location(nil), n.in.Location...)
	return in
}

// Pending returns the target of an issued redirect not yet reflected in the location.
func (n *Navigator) Pending() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.pending
}

// Sync replaces the whole input and applies the resulting decision.
func (n *Navigator) Sync(ctx context.Context, in Input) (Decision, error) {
	return n.update(ctx, func(cur *Input) { *cur = in })
}

// OnSession feeds a session snapshot.
func (n *Navigator) OnSession(ctx context.Context, snap session.Snapshot) (Decision, error) {
	return n.update(ctx, func(cur *Input) {
		cur.Loading = snap.Loading()
		cur.Authenticated = snap.Authenticated
		cur.Role = snap.Role()
	})
}

// OnLocation feeds a location change reported by the router.
func (n *Navigator) OnLocation(ctx context.Context, loc Location) (Decision, error) {
	return n.update(ctx, func(cur *Input) { cur.Location = append(Location(nil), loc...) })
}

// OnRouterReady marks the router as mounted.
func (n *Navigator) OnRouterReady(ctx context.Context) (Decision, error) {
	return n.update(ctx, func(cur *Input) { cur.RouterReady = true })
}

func (n *Navigator) update(ctx context.Context, mutate func(*Input)) (Decision, error) {
	n.mu.Lock()
	prevLoc := n.in.Location
	mutate(&n.in)
	if n.in.Location.String() != prevLoc.String() {
		n.pending = ""
	}
	in := n.in
	d, err := n.guard.Evaluate(in)

	var (
		issue       bool
		reportRole  bool
		unknownRole = in.Role
	)
	switch {
	case err != nil:
		n.pending = ""
		if !n.reported || n.unknown != unknownRole {
			n.unknown, n.reported = unknownRole, true
			reportRole = true
		}
	case d.Action == Redirect:
		n.unknown, n.reported = "", false
		if n.pending != d.Target {
			n.pending = d.Target
			issue = true
		}
	default:
		n.unknown, n.reported = "", false
		n.pending = ""
	}
	n.mu.Unlock()

	if reportRole {
		n.log.Warn("unrecognized role, no landing screen", "role", unknownRole, "error", err)
		if n.onUnknown != nil {
			n.onUnknown(ctx, unknownRole, err)
		}
	}
	if err != nil {
		return d, err
	}
	if !issue {
		return d, nil
	}

	n.log.Debug("navigation redirect", "from", in.Location.String(), "to", d.Target, "state", d.State.String())
	if err := n.router.Replace(ctx, d.Target); err != nil {
		n.mu.Lock()
		if n.pending == d.Target {
			n.pending = ""
		}
		n.mu.Unlock()
		return d, err
	}
	if n.onRedirect != nil {
		n.onRedirect(in.Location, d)
	}
	return d, nil
}
