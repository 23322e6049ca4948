package session

import (
	"github.com/hustlefy/hustlefy_be/internal/models"
	"github.com/hustlefy/hustlefy_be/internal/onboarding"
)

// Client-side routes the guards redirect to.
const (
	RouteHome              = "/"
	RouteLogin             = "/login"
	RouteOnboarding        = "/onboarding"
	RouteProviderDashboard = "/provider/dashboard"
	RouteSeekerDashboard   = "/seeker/dashboard"
)

type OutcomeKind int

const (
	// ShowLoading renders a placeholder; no redirect may happen while
	// the session restore is still running, or login flashes by on
	// every cold start.
	ShowLoading OutcomeKind = iota
	Render
	Redirect
)

// Outcome is a guard's decision for one navigation.
type Outcome struct {
	Kind       OutcomeKind
	RedirectTo string
}

func render() Outcome            { return Outcome{Kind: Render} }
func redirect(to string) Outcome { return Outcome{Kind: Redirect, RedirectTo: to} }
func loading() Outcome           { return Outcome{Kind: ShowLoading} }

// Protected guards authenticated screens. requiredRole of "" accepts
// any signed-in user; a mismatched role bounces to home rather than
// login since the user is signed in, just in the wrong half of the
// app.
func Protected(st State, requiredRole models.Role) Outcome {
	if st.IsAuthLoading {
		return loading()
	}
	if !st.IsAuthenticated {
		return redirect(RouteLogin)
	}
	if requiredRole != "" && st.User.Role != requiredRole {
		return redirect(RouteHome)
	}
	return render()
}

// ProtectedDashboard additionally requires a complete onboarding
// record, re-evaluated on every navigation.
func ProtectedDashboard(st State) Outcome {
	if st.IsAuthLoading {
		return loading()
	}
	if st.User == nil {
		return redirect(RouteLogin)
	}
	if !onboarding.IsComplete(st.User) {
		return redirect(RouteOnboarding)
	}
	return render()
}

// Public guards the login/signup screens: signed-in users get pushed
// to onboarding or their dashboard instead.
func Public(st State) Outcome {
	if st.IsAuthLoading {
		return loading()
	}
	if st.IsAuthenticated {
		if !onboarding.IsComplete(st.User) {
			return redirect(RouteOnboarding)
		}
		if st.User.Role == models.RoleProvider {
			return redirect(RouteProviderDashboard)
		}
		return redirect(RouteSeekerDashboard)
	}
	return render()
}
