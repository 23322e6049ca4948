// Package onboarding decides whether a user has finished the one-time
// post-signup profile flow. Dashboard access (client guards and the
// server middleware) is gated on this predicate; it has to be cheap
// because it runs on every navigation.
package onboarding

import "github.com/hustlefy/hustlefy_be/internal/models"

func IsComplete(u *models.User) bool {
	if u == nil {
		return false
	}

	if u.Role == models.RoleProvider {
		return u.Name != "" && u.Phone != "" && u.Email != ""
	}

	// Seekers additionally need a bio and at least one work category
	// before relevance matching can do anything useful.
	return u.Name != "" &&
		u.Phone != "" &&
		u.Email != "" &&
		u.Bio != "" &&
		len(u.WorkCategories) > 0
}
