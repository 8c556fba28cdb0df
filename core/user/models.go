package user

import (
	"time"

	"github.com/trezcool/masomo-console/core"
)

// Roles
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
)

var (
	AllRoles = []string{RoleAdmin, RoleTeacher}

	Roles = []Role{
		{Name: "Administrator", Value: RoleAdmin},
		{Name: "Teacher", Value: RoleTeacher},
	}
)

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Profile is the user in session. It is never mutated in place:
// a profile update replaces it wholesale.
type Profile struct {
	ID        string    `json:"_id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// Complete reports whether p carries enough to be a session user.
func (p Profile) Complete() bool {
	return p.ID != "" && p.Email != ""
}

func (p Profile) IsAdmin() bool   { return p.Role == RoleAdmin }
func (p Profile) IsTeacher() bool { return p.Role == RoleTeacher }

func (p Profile) Initials() string {
	return core.Initials(p.FullName)
}

// AuthResponse is what the backend returns on login and registration.
type AuthResponse struct {
	Token string  `json:"token"`
	User  Profile `json:"user"`
}

type ProfileResponse struct {
	User Profile `json:"user"`
}

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (c *Credentials) Clean() {
	c.Email = core.CleanString(c.Email, true /* lower */)
}

type Registration struct {
	FullName        string `json:"full_name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"-" validate:"eqfield=Password"`
	Role            string `json:"role" validate:"required,oneof=admin teacher"`
}

func (r *Registration) Clean() {
	r.FullName = core.CleanString(r.FullName)
	r.Email = core.CleanString(r.Email, true /* lower */)
	r.Role = core.CleanString(r.Role, true /* lower */)
}

type ProfileUpdate struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}

func (u *ProfileUpdate) Clean() {
	u.FullName = core.CleanString(u.FullName)
	u.Email = core.CleanString(u.Email, true /* lower */)
}

type PasswordChange struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
	ConfirmPassword string `json:"-" validate:"eqfield=NewPassword"`

	// user attributes the new password must not resemble
	FullName string `json:"-"`
	Email    string `json:"-"`
}
