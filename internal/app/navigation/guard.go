/*
Package navigation resolves route transitions and gates them on the session.

A Router holds the route table, matches paths with a chi mux, and runs every
registered Hook before a route's loader executes. Guard is the hook that sends an
unauthenticated user away from protected routes. Hooks carry no memory: every
transition, including Back and Forward, is decided from scratch.
*/
package navigation

// Authenticator is the part of the session the guard consults.
type Authenticator interface {
	IsAuthenticated() bool
}

// Decision is the outcome of a pre-navigation hook.
type Decision struct {
	// Redirect, when non-empty, restarts navigation at this path.
	Redirect string
}

// Proceed reports whether the transition may continue to its target.
func (d Decision) Proceed() bool {
	return d.Redirect == ""
}

// Hook runs before a route's loader. from is nil on the first navigation.
type Hook func(to *Match, from *Match) Decision

// Decide is the guard's decision table: a protected target visited without a
// session is redirected to loginPath, everything else proceeds.
func Decide(requiresAuth, isAuthenticated bool, loginPath string) Decision {
	if requiresAuth && !isAuthenticated {
		return Decision{Redirect: loginPath}
	}
	return Decision{}
}

// Guard returns the hook enforcing Decide against auth, read fresh on every call.
func Guard(auth Authenticator, loginPath string) Hook {
	return func(to *Match, _ *Match) Decision {
		return Decide(to.RequiresAuth, auth.IsAuthenticated(), loginPath)
	}
}
