package services

import "github.com/yukikurage/worktime-api/internal/models"

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID         uint64
	Username   string
	Role       models.Role
	Department string
}

// ActorFromUser builds the actor for an authenticated user.
func ActorFromUser(user *models.User) Actor {
	return Actor{
		ID:         user.ID,
		Username:   user.Username,
		Role:       user.Role,
		Department: user.Department,
	}
}

// IsAdmin reports whether the actor is an admin or the superadmin.
func (a Actor) IsAdmin() bool {
	return a.Role.IsAdmin()
}

// IsSuperadmin reports whether the actor is the superadmin.
func (a Actor) IsSuperadmin() bool {
	return a.Role == models.RoleSuperadmin
}
