package models

import "github.com/google/uuid"

type UserRole string

const (
	UserRoleStudent  UserRole = "student"
	UserRoleReviewer UserRole = "reviewer"
	UserRoleAdmin    UserRole = "admin"
)

// User is the read-only identity record resolved from the profiles table.
type User struct {
	ID       uuid.UUID `db:"id"`
	FullName string    `db:"full_name"`
	Email    string    `db:"email"`
	Role     UserRole  `db:"role"`
}

// CanMentor reports whether the user may be booked as a session reviewer.
func (u *User) CanMentor() bool {
	return u.Role == UserRoleReviewer || u.Role == UserRoleAdmin
}

// DisplayName falls back to the email when no name is set.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

type Course struct {
	ID    uuid.UUID `db:"id"`
	Title string    `db:"title"`
}
