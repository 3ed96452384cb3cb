package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/twy/backoffice/models"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a unique field is already taken
	ErrDuplicate = errors.New("duplicate key value violates unique constraint")
)

// Credential is the sign-in record behind a user account
type Credential struct {
	Email        string
	UserID       string
	PasswordHash []byte
	Confirmed    bool
	Code         string
	CodeExpires  time.Time
}

// UserRepository handles user data operations
type UserRepository interface {
	// Create stores a new user. Emails are unique.
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*models.User, error)

	// GetByEmail retrieves a user by email, case-insensitively
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// List returns every user
	List(ctx context.Context) ([]*models.User, error)

	// Update replaces a stored user
	Update(ctx context.Context, user *models.User) error

	// Delete removes a user
	Delete(ctx context.Context, id string) error
}

// BranchRepository handles branch data operations
type BranchRepository interface {
	Create(ctx context.Context, branch *models.Branch) error
	GetByID(ctx context.Context, id string) (*models.Branch, error)
	List(ctx context.Context) ([]*models.Branch, error)
	Update(ctx context.Context, branch *models.Branch) error
	Delete(ctx context.Context, id string) error
}

// LoadRepository handles load data operations
type LoadRepository interface {
	Create(ctx context.Context, load *models.Load) error
	GetByID(ctx context.Context, id string) (*models.Load, error)
	List(ctx context.Context) ([]*models.Load, error)
	Update(ctx context.Context, load *models.Load) error
	Delete(ctx context.Context, id string) error
}

// CredentialRepository handles sign-in records, keyed by email
type CredentialRepository interface {
	// Create stores a new credential. Emails are unique.
	Create(ctx context.Context, cred *Credential) error

	// Get retrieves a credential by email, case-insensitively
	Get(ctx context.Context, email string) (*Credential, error)

	// Update replaces a stored credential
	Update(ctx context.Context, cred *Credential) error

	// Delete removes a credential
	Delete(ctx context.Context, email string) error
}
