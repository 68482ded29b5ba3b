package navigation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/goCampus/role"
)

// Location is the router's current path as ordered segments.
type Location []string

// ParseLocation splits a path into segments. Query strings, fragments and empty
// segments are dropped.
func ParseLocation(path string) Location {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(path, "/")
	loc := make(Location, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			loc = append(loc, p)
		}
	}
	return loc
}

// Group returns the top-level segment, or "" at the root.
func (l Location) Group() string {
	if len(l) == 0 {
		return ""
	}
	return l[0]
}

// String renders the location as an absolute path.
func (l Location) String() string {
	return "/" + strings.Join(l, "/")
}

// Top-level route groups.
const (
	GroupAuth     = "auth"
	GroupStudent  = "student"
	GroupTeacher  = "teacher"
	GroupDean     = "dean"
	GroupViceDean = "vice-dean"
)

// Route is a role's landing screen and the group its screens live under.
type Route struct {
	Home  string
	Group string
}

// Routes is the route table consulted by the guard.
type Routes struct {
	Login     string
	AuthGroup string
	Homes     map[role.Kind]Route
}

// DefaultRoutes returns the client's route table.
func DefaultRoutes() Routes {
	return Routes{
		Login:     "/auth/login",
		AuthGroup: GroupAuth,
		Homes: map[role.Kind]Route{
			role.Dean:     {Home: "/dean/dashboard", Group: GroupDean},
			role.ViceDean: {Home: "/vice-dean", Group: GroupViceDean},
			role.Teacher:  {Home: "/teacher", Group: GroupTeacher},
			role.Student:  {Home: "/student", Group: GroupStudent},
		},
	}
}

// For returns the route of kind.
func (r Routes) For(kind role.Kind) (Route, bool) {
	rt, ok := r.Homes[kind]
	return rt, ok
}

// Validate checks that every target lands inside the group it is checked against, so a
// redirect always settles.
func (r Routes) Validate() error {
	if r.Login == "" || r.AuthGroup == "" {
		return errors.New("navigation: login path and auth group are required")
	}
	if g := ParseLocation(r.Login).Group(); g != r.AuthGroup {
		return fmt.Errorf("navigation: login path %q is outside auth group %q", r.Login, r.AuthGroup)
	}
	for kind, rt := range r.Homes {
		if kind == role.Unknown {
			return errors.New("navigation: unknown role cannot have a home")
		}
		if rt.Group == "" || rt.Home == "" {
			return fmt.Errorf("navigation: incomplete route for %s", kind)
		}
		if g := ParseLocation(rt.Home).Group(); g != rt.Group {
			return fmt.Errorf("navigation: %s home %q is outside group %q", kind, rt.Home, rt.Group)
		}
		if rt.Group == r.AuthGroup {
			return fmt.Errorf("navigation: %s home is inside the auth group", kind)
		}
	}
	return nil
}

func (r Routes) clone() Routes {
	out := r
	out.Homes = make(map[role.Kind]Route, len(r.Homes))
	for k, v := range r.Homes {
		out.Homes[k] = v
	}
	return out
}
