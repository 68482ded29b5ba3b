package navigation

import (
	"fmt"

	"github.com/MrEthical07/goCampus/role"
)

// Action is what the router should do.
type Action uint8

const (
	// Stay leaves the location alone.
	Stay Action = iota
	// Defer waits for the router or the session to become ready.
	Defer
	// Redirect replaces the location with Decision.Target.
	Redirect
)

func (a Action) String() string {
	switch a {
	case Stay:
		return "stay"
	case Defer:
		return "defer"
	case Redirect:
		return "redirect"
	default:
		return "invalid"
	}
}

// State is the conceptual phase the guard observed.
type State uint8

const (
	Uninitialized State = iota
	Checking
	Unauthenticated
	AuthenticatedDean
	AuthenticatedViceDean
	AuthenticatedTeacher
	AuthenticatedStudent
	AuthenticatedUnknownRole
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Checking:
		return "checking"
	case Unauthenticated:
		return "unauthenticated"
	case AuthenticatedDean:
		return "authenticated-dean"
	case AuthenticatedViceDean:
		return "authenticated-vice-dean"
	case AuthenticatedTeacher:
		return "authenticated-teacher"
	case AuthenticatedStudent:
		return "authenticated-student"
	case AuthenticatedUnknownRole:
		return "authenticated-unknown-role"
	default:
		return "invalid"
	}
}

func stateFor(kind role.Kind) State {
	switch kind {
	case role.Dean:
		return AuthenticatedDean
	case role.ViceDean:
		return AuthenticatedViceDean
	case role.Teacher:
		return AuthenticatedTeacher
	case role.Student:
		return AuthenticatedStudent
	default:
		return AuthenticatedUnknownRole
	}
}

// Input is everything the guard reads.
type Input struct {
	RouterReady   bool
	Loading       bool
	Authenticated bool
	Role          string
	Location      Location
}

// Decision is the guard's verdict.
type Decision struct {
	Action Action
	Target string
	State  State
}

func (d Decision) String() string {
	if d.Action == Redirect {
		return fmt.Sprintf("%s %s (%s)", d.Action, d.Target, d.State)
	}
	return fmt.Sprintf("%s (%s)", d.Action, d.State)
}

// Guard maps session state to navigation decisions. It is immutable and safe for
// concurrent use.
type Guard struct {
	registry *role.Registry
	routes   Routes
}

// NewGuard builds a guard. A nil registry uses role.DefaultRegistry; a zero Routes uses
// DefaultRoutes.
func NewGuard(registry *role.Registry, routes Routes) (*Guard, error) {
	if registry == nil {
		registry = role.DefaultRegistry()
	}
	if routes.Login == "" && len(routes.Homes) == 0 {
		routes = DefaultRoutes()
	}
	if err := routes.Validate(); err != nil {
		return nil, err
	}
	return &Guard{registry: registry, routes: routes.clone()}, nil
}

// Routes returns a copy of the route table.
func (g *Guard) Routes() Routes { return g.routes.clone() }

// Classify exposes the guard's role classification.
func (g *Guard) Classify(raw string) (role.Kind, role.Variant, error) {
	return g.registry.Classify(raw)
}

// Evaluate decides what the router should do for in. An authenticated user whose role
// cannot be classified, or has no route, gets a Stay decision with state
// AuthenticatedUnknownRole and an error wrapping role.ErrUnknownRole.
func (g *Guard) Evaluate(in Input) (Decision, error) {
	if !in.RouterReady {
		return Decision{Action: Defer, State: Uninitialized}, nil
	}
	if in.Loading {
		return Decision{Action: Defer, State: Checking}, nil
	}

	group := in.Location.Group()
	if !in.Authenticated {
		if group == g.routes.AuthGroup {
			return Decision{Action: Stay, State: Unauthenticated}, nil
		}
		return Decision{Action: Redirect, Target: g.routes.Login, State: Unauthenticated}, nil
	}

	kind, _, err := g.registry.Classify(in.Role)
	if err != nil {
		return Decision{Action: Stay, State: AuthenticatedUnknownRole}, err
	}
	rt, ok := g.routes.For(kind)
	if !ok {
		return Decision{Action: Stay, State: AuthenticatedUnknownRole},
			fmt.Errorf("%w: no route for %s", role.ErrUnknownRole, kind)
	}

	state := stateFor(kind)
	if group == rt.Group {
		return Decision{Action: Stay, State: state}, nil
	}
	return Decision{Action: Redirect, Target: rt.Home, State: state}, nil
}
