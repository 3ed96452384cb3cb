package models

import (
	"time"

	"github.com/google/uuid"
)

// BranchOwner is the owner summary embedded in a Branch
type BranchOwner struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// Branch represents an office of the company
type Branch struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Contact   *string      `json:"contact"`
	Owner     *BranchOwner `json:"owner"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// NewBranch creates a new Branch instance
func NewBranch(name string, contact *string, owner *BranchOwner) *Branch {
	now := time.Now().UTC()
	return &Branch{
		ID:        uuid.New().String(),
		Name:      name,
		Contact:   contact,
		Owner:     owner,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// BranchForm is the body of POST /branches. Owner is a user ID.
type BranchForm struct {
	Name    string  `json:"name" validate:"required,max=200"`
	Owner   string  `json:"owner" validate:"required"`
	Contact *string `json:"contact,omitempty"`
}

// UpdateBranchRequest is the body of PUT /branches/{id}
type UpdateBranchRequest struct {
	ID      string  `json:"id" validate:"required"`
	Name    *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Contact *string `json:"contact,omitempty"`
	Owner   *string `json:"owner,omitempty"`
}

// PaginatedBranches is one page of GET /branches
type PaginatedBranches struct {
	Branches []Branch `json:"branches"`
	Total    int      `json:"total"`
}
