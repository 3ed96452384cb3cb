// Package memory implements the repositories on process memory. Records are
// stored by value.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/twy/backoffice/models"
	"github.com/twy/backoffice/repositories"
)

// table is a mutex-guarded map of records keyed by ID
type table[T any] struct {
	mu   sync.RWMutex
	rows map[string]T
	ids  []string
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]T)}
}

func (t *table[T]) insert(id string, row T) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; ok {
		return repositories.ErrDuplicate
	}
	t.rows[id] = row
	t.ids = append(t.ids, id)
	return nil
}

func (t *table[T]) get(id string) (T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	row, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, repositories.ErrNotFound
	}
	return row, nil
}

func (t *table[T]) replace(id string, row T) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return repositories.ErrNotFound
	}
	t.rows[id] = row
	return nil
}

func (t *table[T]) remove(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(t.rows, id)
	t.ids = slices.DeleteFunc(t.ids, func(s string) bool { return s == id })
	return nil
}

// all returns rows in insertion order
func (t *table[T]) all() []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]T, 0, len(t.ids))
	for _, id := range t.ids {
		out = append(out, t.rows[id])
	}
	return out
}

// UserRepository implements repositories.UserRepository
type UserRepository struct {
	rows *table[models.User]
	// serializes Create so the email check and insert are atomic
	mu sync.Mutex
}

// NewUserRepository creates an empty user repository
func NewUserRepository() *UserRepository {
	return &UserRepository{rows: newTable[models.User]()}
}

// Create stores a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.GetByEmail(ctx, user.Email); err == nil {
		return repositories.ErrDuplicate
	}
	return r.rows.insert(user.ID, *user)
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	user, err := r.rows.get(id)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range r.rows.all() {
		if strings.EqualFold(user.Email, email) {
			return &user, nil
		}
	}
	return nil, repositories.ErrNotFound
}

// List returns every user
func (r *UserRepository) List(_ context.Context) ([]*models.User, error) {
	return pointers(r.rows.all()), nil
}

// Update replaces a stored user
func (r *UserRepository) Update(_ context.Context, user *models.User) error {
	return r.rows.replace(user.ID, *user)
}

// Delete removes a user
func (r *UserRepository) Delete(_ context.Context, id string) error {
	return r.rows.remove(id)
}

// BranchRepository implements repositories.BranchRepository
type BranchRepository struct {
	rows *table[models.Branch]
}

// NewBranchRepository creates an empty branch repository
func NewBranchRepository() *BranchRepository {
	return &BranchRepository{rows: newTable[models.Branch]()}
}

// Create stores a new branch
func (r *BranchRepository) Create(_ context.Context, branch *models.Branch) error {
	return r.rows.insert(branch.ID, *branch)
}

// GetByID retrieves a branch by ID
func (r *BranchRepository) GetByID(_ context.Context, id string) (*models.Branch, error) {
	branch, err := r.rows.get(id)
	if err != nil {
		return nil, err
	}
	return &branch, nil
}

// List returns every branch
func (r *BranchRepository) List(_ context.Context) ([]*models.Branch, error) {
	return pointers(r.rows.all()), nil
}

// Update replaces a stored branch
func (r *BranchRepository) Update(_ context.Context, branch *models.Branch) error {
	return r.rows.replace(branch.ID, *branch)
}

// Delete removes a branch
func (r *BranchRepository) Delete(_ context.Context, id string) error {
	return r.rows.remove(id)
}

// LoadRepository implements repositories.LoadRepository
type LoadRepository struct {
	rows *table[models.Load]
}

// NewLoadRepository creates an empty load repository
func NewLoadRepository() *LoadRepository {
	return &LoadRepository{rows: newTable[models.Load]()}
}

// Create stores a new load
func (r *LoadRepository) Create(_ context.Context, load *models.Load) error {
	return r.rows.insert(load.ID, *load)
}

// GetByID retrieves a load by ID
func (r *LoadRepository) GetByID(_ context.Context, id string) (*models.Load, error) {
	load, err := r.rows.get(id)
	if err != nil {
		return nil, err
	}
	return &load, nil
}

// List returns every load
func (r *LoadRepository) List(_ context.Context) ([]*models.Load, error) {
	return pointers(r.rows.all()), nil
}

// Update replaces a stored load
func (r *LoadRepository) Update(_ context.Context, load *models.Load) error {
	return r.rows.replace(load.ID, *load)
}

// Delete removes a load
func (r *LoadRepository) Delete(_ context.Context, id string) error {
	return r.rows.remove(id)
}

// CredentialRepository implements repositories.CredentialRepository
type CredentialRepository struct {
	rows *table[repositories.Credential]
}

// NewCredentialRepository creates an empty credential repository
func NewCredentialRepository() *CredentialRepository {
	return &CredentialRepository{rows: newTable[repositories.Credential]()}
}

func credentialKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create stores a new credential
func (r *CredentialRepository) Create(_ context.Context, cred *repositories.Credential) error {
	return r.rows.insert(credentialKey(cred.Email), *cred)
}

// Get retrieves a credential by email
func (r *CredentialRepository) Get(_ context.Context, email string) (*repositories.Credential, error) {
	cred, err := r.rows.get(credentialKey(email))
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

// Update replaces a stored credential
func (r *CredentialRepository) Update(_ context.Context, cred *repositories.Credential) error {
	return r.rows.replace(credentialKey(cred.Email), *cred)
}

// Delete removes a credential
func (r *CredentialRepository) Delete(_ context.Context, email string) error {
	return r.rows.remove(credentialKey(email))
}

func pointers[T any](rows []T) []*T {
	out := make([]*T, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out
}
