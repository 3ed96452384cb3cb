package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/twy/backoffice/rbac"
)

// BranchRef identifies the branch a user belongs to
type BranchRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// User represents a back-office account
type User struct {
	ID             string     `json:"id"`
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	Email          string     `json:"email"`
	IsActive       bool       `json:"isActive"`
	Role           rbac.Role  `json:"role"`
	RegisteredDate time.Time  `json:"registeredDate"`
	Branch         *BranchRef `json:"branch,omitempty"`
}

// NewUser creates a new active User
func NewUser(firstName, lastName, email string, role rbac.Role, branch *BranchRef) *User {
	return &User{
		ID:             uuid.New().String(),
		FirstName:      firstName,
		LastName:       lastName,
		Email:          email,
		IsActive:       true,
		Role:           role,
		RegisteredDate: time.Now().UTC(),
		Branch:         branch,
	}
}

// FullName returns first and last name
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// CurrentUser is the profile returned by GET /user
type CurrentUser struct {
	Email          string     `json:"email"`
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	Role           rbac.Role  `json:"role"`
	IsActive       bool       `json:"isActive"`
	Branch         *BranchRef `json:"branch,omitempty"`
	RegisteredDate time.Time  `json:"registeredDate"`
}

// UserForm is the body of POST /users
type UserForm struct {
	FirstName string    `json:"firstName" validate:"required,max=100"`
	LastName  string    `json:"lastName" validate:"required,max=100"`
	Email     string    `json:"email" validate:"required,email"`
	IsActive  bool      `json:"isActive"`
	Role      rbac.Role `json:"role" validate:"required,role"`
	BranchID  string    `json:"branchId" validate:"required"`
}

// UpdateUserRequest is the body of PATCH /users/{id}
type UpdateUserRequest struct {
	ID       string     `json:"id" validate:"required"`
	BranchID *string    `json:"branchId,omitempty"`
	Role     *rbac.Role `json:"role,omitempty" validate:"omitempty,role"`
	IsActive *bool      `json:"isActive,omitempty"`
}

// SelfUpdateRequest is the body of PATCH /user
type SelfUpdateRequest struct {
	FirstName *string `json:"firstName,omitempty" validate:"omitempty,max=100"`
	LastName  *string `json:"lastName,omitempty" validate:"omitempty,max=100"`
}

// PaginatedUsers is one page of GET /users
type PaginatedUsers struct {
	Users      []User `json:"users"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	TotalPages int    `json:"totalPages"`
}
