// internal/models/user.go
package models

import "time"

// User roles.
const (
	RoleJobSeeker = "job_seeker"
	RoleRecruiter = "recruiter"
)

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Headline  string    `json:"headline,omitempty"`
	Location  string    `json:"location,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProfileUpdate carries the mutable profile fields. ID, email and
// createdAt are never updated through the API.
type ProfileUpdate struct {
	Name     *string `json:"name,omitempty"`
	Headline *string `json:"headline,omitempty"`
	Location *string `json:"location,omitempty"`
	Phone    *string `json:"phone,omitempty"`
}

func IsValidRole(role string) bool {
	switch role {
	case RoleJobSeeker, RoleRecruiter:
		return true
	}
	return false
}
