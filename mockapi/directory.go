package mockapi

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/twy/backoffice/models"
	"github.com/twy/backoffice/rbac"
	"github.com/twy/backoffice/repositories"
	"go.uber.org/zap"
)

// DefaultPageSize applies when a list request sets no limit
const DefaultPageSize = 10

// Directory implements the user, branch and load resources
type Directory struct {
	users    repositories.UserRepository
	branches repositories.BranchRepository
	loads    repositories.LoadRepository
	accounts *Accounts
	logger   *zap.Logger
}

// NewDirectory creates the resource service
func NewDirectory(users repositories.UserRepository, branches repositories.BranchRepository, loads repositories.LoadRepository, accounts *Accounts, logger *zap.Logger) *Directory {
	return &Directory{
		users:    users,
		branches: branches,
		loads:    loads,
		accounts: accounts,
		logger:   logger,
	}
}

// sorters order list results by a named field
type sorters[T any] map[string]func(a, b *T) int

// page filters, sorts and windows rows
func page[T any](rows []*T, params models.ListParams, match func(*T, string) bool, by sorters[T]) ([]T, int) {
	if q := strings.ToLower(strings.TrimSpace(params.Query)); q != "" {
		rows = slices.DeleteFunc(rows, func(row *T) bool { return !match(row, q) })
	}
	if less, ok := by[params.SortField]; ok {
		slices.SortStableFunc(rows, func(a, b *T) int {
			if params.SortOrder == models.SortDescend {
				return less(b, a)
			}
			return less(a, b)
		})
	}

	start, end := params.Window(len(rows), DefaultPageSize)
	out := make([]T, 0, end-start)
	for _, row := range rows[start:end] {
		out = append(out, *row)
	}
	return out, len(rows)
}

func contains(q string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

var userSorters = sorters[models.User]{
	"firstName":      func(a, b *models.User) int { return strings.Compare(a.FirstName, b.FirstName) },
	"lastName":       func(a, b *models.User) int { return strings.Compare(a.LastName, b.LastName) },
	"email":          func(a, b *models.User) int { return strings.Compare(a.Email, b.Email) },
	"role":           func(a, b *models.User) int { return strings.Compare(string(a.Role), string(b.Role)) },
	"registeredDate": func(a, b *models.User) int { return a.RegisteredDate.Compare(b.RegisteredDate) },
}

// ListUsers returns one page of users
func (d *Directory) ListUsers(ctx context.Context, params models.ListParams) (models.PaginatedUsers, error) {
	rows, err := d.users.List(ctx)
	if err != nil {
		return models.PaginatedUsers{}, WrapInternal("failed to list users", err)
	}
	users, total := page(rows, params, func(u *models.User, q string) bool {
		return contains(q, u.FirstName, u.LastName, u.Email)
	}, userSorters)

	limit := DefaultPageSize
	if params.Limit != nil && *params.Limit > 0 {
		limit = *params.Limit
	}
	current := 0
	if params.Page != nil {
		current = *params.Page
	}
	return models.PaginatedUsers{
		Users:      users,
		Total:      total,
		Page:       current,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}, nil
}

// GetUser returns a user by ID
func (d *Directory) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := d.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound, "failed to get user")
	}
	return user, nil
}

// CreateUser provisions an account. The new user sets a password through
// the create-password flow.
func (d *Directory) CreateUser(ctx context.Context, form models.UserForm) (*models.User, error) {
	branch, err := d.branchRef(ctx, form.BranchID)
	if err != nil {
		return nil, err
	}
	user := models.NewUser(form.FirstName, form.LastName, form.Email, form.Role, branch)
	user.IsActive = form.IsActive
	if err := d.accounts.Provision(ctx, user, "", false); err != nil {
		return nil, err
	}
	d.logger.Info("user created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// UpdateUser changes branch, role or active flag
func (d *Directory) UpdateUser(ctx context.Context, req models.UpdateUserRequest) (*models.User, error) {
	user, err := d.GetUser(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if req.BranchID != nil {
		if user.Branch, err = d.branchRef(ctx, *req.BranchID); err != nil {
			return nil, err
		}
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if err := d.users.Update(ctx, user); err != nil {
		return nil, notFound(err, ErrUserNotFound, "failed to update user")
	}
	return user, nil
}

// DeleteUser removes a user and its credential
func (d *Directory) DeleteUser(ctx context.Context, id string) error {
	user, err := d.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if err := d.users.Delete(ctx, id); err != nil {
		return notFound(err, ErrUserNotFound, "failed to delete user")
	}
	return d.accounts.Remove(ctx, user.Email)
}

// CurrentUser returns the profile of the user with id
func (d *Directory) CurrentUser(ctx context.Context, id string) (*models.CurrentUser, error) {
	user, err := d.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return currentUser(user), nil
}

// SelfUpdate changes the caller's own name
func (d *Directory) SelfUpdate(ctx context.Context, id string, req models.SelfUpdateRequest) (*models.CurrentUser, error) {
	user, err := d.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if err := d.users.Update(ctx, user); err != nil {
		return nil, notFound(err, ErrUserNotFound, "failed to update user")
	}
	return currentUser(user), nil
}

func currentUser(u *models.User) *models.CurrentUser {
	return &models.CurrentUser{
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Role:           u.Role,
		IsActive:       u.IsActive,
		Branch:         u.Branch,
		RegisteredDate: u.RegisteredDate,
	}
}

var branchSorters = sorters[models.Branch]{
	"name":      func(a, b *models.Branch) int { return strings.Compare(a.Name, b.Name) },
	"createdAt": func(a, b *models.Branch) int { return a.CreatedAt.Compare(b.CreatedAt) },
}

// ListBranches returns one page of branches
func (d *Directory) ListBranches(ctx context.Context, params models.ListParams) (models.PaginatedBranches, error) {
	rows, err := d.branches.List(ctx)
	if err != nil {
		return models.PaginatedBranches{}, WrapInternal("failed to list branches", err)
	}
	branches, total := page(rows, params, func(b *models.Branch, q string) bool {
		return contains(q, b.Name)
	}, branchSorters)
	return models.PaginatedBranches{Branches: branches, Total: total}, nil
}

// GetBranch returns a branch by ID
func (d *Directory) GetBranch(ctx context.Context, id string) (*models.Branch, error) {
	branch, err := d.branches.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrBranchNotFound, "failed to get branch")
	}
	return branch, nil
}

// CreateBranch adds a branch owned by an existing user
func (d *Directory) CreateBranch(ctx context.Context, form models.BranchForm) (*models.Branch, error) {
	owner, err := d.branchOwner(ctx, form.Owner)
	if err != nil {
		return nil, err
	}
	branch := models.NewBranch(form.Name, form.Contact, owner)
	if err := d.branches.Create(ctx, branch); err != nil {
		return nil, WrapInternal("failed to create branch", err)
	}
	return branch, nil
}

// UpdateBranch replaces the set fields of a branch
func (d *Directory) UpdateBranch(ctx context.Context, req models.UpdateBranchRequest) (*models.Branch, error) {
	branch, err := d.GetBranch(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		branch.Name = *req.Name
	}
	if req.Contact != nil {
		branch.Contact = req.Contact
	}
	if req.Owner != nil {
		if branch.Owner, err = d.branchOwner(ctx, *req.Owner); err != nil {
			return nil, err
		}
	}
	branch.UpdatedAt = time.Now().UTC()
	if err := d.branches.Update(ctx, branch); err != nil {
		return nil, notFound(err, ErrBranchNotFound, "failed to update branch")
	}
	return branch, nil
}

// DeleteBranch removes a branch
func (d *Directory) DeleteBranch(ctx context.Context, id string) error {
	if err := d.branches.Delete(ctx, id); err != nil {
		return notFound(err, ErrBranchNotFound, "failed to delete branch")
	}
	return nil
}

func (d *Directory) branchRef(ctx context.Context, id string) (*models.BranchRef, error) {
	branch, err := d.branches.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrBranchNotFound, "failed to get branch")
	}
	return &models.BranchRef{ID: branch.ID, Name: branch.Name}, nil
}

func (d *Directory) branchOwner(ctx context.Context, userID string) (*models.BranchOwner, error) {
	user, err := d.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.BranchOwner{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
	}, nil
}

var loadSorters = sorters[models.Load]{
	"customer":        func(a, b *models.Load) int { return strings.Compare(a.Customer, b.Customer) },
	"referenceNumber": func(a, b *models.Load) int { return strings.Compare(a.ReferenceNumber, b.ReferenceNumber) },
	"status":          func(a, b *models.Load) int { return cmp.Compare(a.Status, b.Status) },
	"createdAt":       func(a, b *models.Load) int { return a.CreatedAt.Compare(b.CreatedAt) },
}

// ListLoads returns one page of loads
func (d *Directory) ListLoads(ctx context.Context, params models.ListParams) (models.PaginatedLoads, error) {
	rows, err := d.loads.List(ctx)
	if err != nil {
		return models.PaginatedLoads{}, WrapInternal("failed to list loads", err)
	}
	loads, total := page(rows, params, func(l *models.Load, q string) bool {
		return contains(q, l.Customer, l.ReferenceNumber, l.ContactName, l.Commodity)
	}, loadSorters)
	return models.PaginatedLoads{Loads: loads, Total: total}, nil
}

// CreateLoad submits a pending load
func (d *Directory) CreateLoad(ctx context.Context, details models.LoadDetails) (models.CreateLoadResponse, error) {
	load := models.NewLoad(details)
	if err := d.loads.Create(ctx, load); err != nil {
		return models.CreateLoadResponse{}, WrapInternal("failed to create load", err)
	}
	return models.CreateLoadResponse{Message: "Load created successfully", LoadID: load.ID}, nil
}

// UpdateLoad changes the set fields of a load
func (d *Directory) UpdateLoad(ctx context.Context, id string, req models.UpdateLoadRequest) (*models.Load, error) {
	load, err := d.loads.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrLoadNotFound, "failed to get load")
	}
	req.Apply(load)
	if err := d.loads.Update(ctx, load); err != nil {
		return nil, notFound(err, ErrLoadNotFound, "failed to update load")
	}
	return load, nil
}

// ChangeLoadStatus records a review decision made by the user with
// reviewerID
func (d *Directory) ChangeLoadStatus(ctx context.Context, id string, status models.LoadStatus, reviewerID string) (models.ChangeStatusResponse, error) {
	load, err := d.loads.GetByID(ctx, id)
	if err != nil {
		return models.ChangeStatusResponse{}, notFound(err, ErrLoadNotFound, "failed to get load")
	}
	reviewer, err := d.GetUser(ctx, reviewerID)
	if err != nil {
		return models.ChangeStatusResponse{}, err
	}
	name := reviewer.FullName()

	load.Status = status
	load.StatusChangedBy = &name
	load.UpdatedAt = time.Now().UTC()
	if err := d.loads.Update(ctx, load); err != nil {
		return models.ChangeStatusResponse{}, notFound(err, ErrLoadNotFound, "failed to update load")
	}
	d.logger.Info("load status changed",
		zap.String("load_id", id),
		zap.String("status", string(status)),
		zap.String("reviewer_id", reviewerID))
	return models.ChangeStatusResponse{
		Message:         "Load status updated successfully",
		LoadID:          id,
		Status:          status,
		StatusChangedBy: &name,
	}, nil
}

// DeleteLoad removes a load
func (d *Directory) DeleteLoad(ctx context.Context, id string) error {
	if err := d.loads.Delete(ctx, id); err != nil {
		return notFound(err, ErrLoadNotFound, "failed to delete load")
	}
	return nil
}

// CanReview reports whether role may change a load's status
func CanReview(role rbac.Role) bool {
	return rbac.HasLoadPermission(role, rbac.ActionUpdate) && role != rbac.RoleCarrier
}

func notFound(err error, sentinel *DomainError, message string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return sentinel
	}
	return WrapInternal(message, err)
}
