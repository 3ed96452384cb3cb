package mockapi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twy/backoffice/models"
	"github.com/twy/backoffice/rbac"
)

func seeded(t *testing.T) *Backend {
	t.Helper()
	b := newTestBackend(t)
	require.NoError(t, b.Seed(context.Background(), strongPass))
	return b
}

func TestDirectory_ListUsers(t *testing.T) {
	b := seeded(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		params    models.ListParams
		wantLen   int
		wantTotal int
		check     func(t *testing.T, page models.PaginatedUsers)
	}{
		{
			name:      "default page",
			wantLen:   len(rbac.Roles),
			wantTotal: len(rbac.Roles),
		},
		{
			name:      "second page of two",
			params:    models.ListParams{Page: models.Int(1), Limit: models.Int(2)},
			wantLen:   2,
			wantTotal: len(rbac.Roles),
			check: func(t *testing.T, page models.PaginatedUsers) {
				assert.Equal(t, 1, page.Page)
				assert.Equal(t, 3, page.TotalPages)
			},
		},
		{
			name:      "query matches email",
			params:    models.ListParams{Query: "CARRIER"},
			wantLen:   1,
			wantTotal: 1,
		},
		{
			name:      "sorted by email descending",
			params:    models.ListParams{SortField: "email", SortOrder: models.SortDescend},
			wantLen:   len(rbac.Roles),
			wantTotal: len(rbac.Roles),
			check: func(t *testing.T, page models.PaginatedUsers) {
				assert.Equal(t, SeedEmail(rbac.RoleOwner), page.Users[0].Email)
				assert.Equal(t, SeedEmail(rbac.RoleAccountant), page.Users[len(page.Users)-1].Email)
			},
		},
		{
			name:      "page past the end",
			params:    models.ListParams{Page: models.Int(9)},
			wantLen:   0,
			wantTotal: len(rbac.Roles),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := b.Directory.ListUsers(ctx, tt.params)
			require.NoError(t, err)
			assert.Len(t, page.Users, tt.wantLen)
			assert.Equal(t, tt.wantTotal, page.Total)
			if tt.check != nil {
				tt.check(t, page)
			}
		})
	}
}

func TestDirectory_UserLifecycle(t *testing.T) {
	b := seeded(t)
	ctx := context.Background()

	branches, err := b.Directory.ListBranches(ctx, models.ListParams{})
	require.NoError(t, err)
	require.Len(t, branches.Branches, 1)
	branchID := branches.Branches[0].ID

	_, err = b.Directory.CreateUser(ctx, models.UserForm{FirstName: "New", LastName: "Agent", Email: "new@example.com", Role: rbac.RoleAgent, BranchID: "missing"})
	assert.ErrorIs(t, err, ErrBranchNotFound)

	user, err := b.Directory.CreateUser(ctx, models.UserForm{
		FirstName: "New", LastName: "Agent", Email: "new@example.com",
		IsActive: true, Role: rbac.RoleAgent, BranchID: branchID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Head Office", user.Branch.Name)

	// provisioned users set their password with the emailed code
	_, err = b.Accounts.Login(ctx, "new@example.com", strongPass)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	code, ok := b.Accounts.PendingCode(ctx, "new@example.com")
	require.True(t, ok)
	_, err = b.Accounts.CreatePassword(ctx, models.CreatePasswordRequest{Email: "new@example.com", Code: code, NewPassword: strongPass})
	require.NoError(t, err)
	_, err = b.Accounts.Login(ctx, "new@example.com", strongPass)
	require.NoError(t, err)

	role := rbac.RoleAccountant
	updated, err := b.Directory.UpdateUser(ctx, models.UpdateUserRequest{ID: user.ID, Role: &role})
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleAccountant, updated.Role)

	name := "Renamed"
	me, err := b.Directory.SelfUpdate(ctx, user.ID, models.SelfUpdateRequest{FirstName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", me.FirstName)
	assert.Equal(t, rbac.RoleAccountant, me.Role)

	require.NoError(t, b.Directory.DeleteUser(ctx, user.ID))
	_, err = b.Directory.GetUser(ctx, user.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = b.Accounts.Login(ctx, "new@example.com", strongPass)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestDirectory_Branches(t *testing.T) {
	b := seeded(t)
	ctx := context.Background()

	owner, err := b.Directory.users.GetByEmail(ctx, SeedEmail(rbac.RoleOwner))
	require.NoError(t, err)

	contact := "555-0100"
	branch, err := b.Directory.CreateBranch(ctx, models.BranchForm{Name: "North", Owner: owner.ID, Contact: &contact})
	require.NoError(t, err)
	assert.Equal(t, owner.Email, branch.Owner.Email)

	_, err = b.Directory.CreateBranch(ctx, models.BranchForm{Name: "Nowhere", Owner: "missing"})
	assert.ErrorIs(t, err, ErrUserNotFound)

	renamed := "North Hub"
	updated, err := b.Directory.UpdateBranch(ctx, models.UpdateBranchRequest{ID: branch.ID, Name: &renamed})
	require.NoError(t, err)
	assert.Equal(t, "North Hub", updated.Name)
	assert.Equal(t, "555-0100", *updated.Contact)

	page, err := b.Directory.ListBranches(ctx, models.ListParams{SortField: "name"})
	require.NoError(t, err)
	require.Len(t, page.Branches, 2)
	assert.Equal(t, "Head Office", page.Branches[0].Name)

	require.NoError(t, b.Directory.DeleteBranch(ctx, branch.ID))
	assert.ErrorIs(t, b.Directory.DeleteBranch(ctx, branch.ID), ErrBranchNotFound)
}

func TestDirectory_LoadReview(t *testing.T) {
	b := seeded(t)
	ctx := context.Background()

	page, err := b.Directory.ListLoads(ctx, models.ListParams{Query: "acme"})
	require.NoError(t, err)
	require.Len(t, page.Loads, 1)
	load := page.Loads[0]
	assert.Equal(t, models.LoadPending, load.Status)

	reviewer, err := b.Directory.users.GetByEmail(ctx, SeedEmail(rbac.RoleAgent))
	require.NoError(t, err)

	resp, err := b.Directory.ChangeLoadStatus(ctx, load.ID, models.LoadApproved, reviewer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LoadApproved, resp.Status)
	require.NotNil(t, resp.StatusChangedBy)
	assert.Equal(t, "Seed Agent", *resp.StatusChangedBy)

	weight := "40000"
	updated, err := b.Directory.UpdateLoad(ctx, load.ID, models.UpdateLoadRequest{Weight: &weight})
	require.NoError(t, err)
	assert.Equal(t, "40000", updated.Weight)
	assert.Equal(t, models.LoadApproved, updated.Status)

	_, err = b.Directory.ChangeLoadStatus(ctx, "missing", models.LoadDenied, reviewer.ID)
	assert.ErrorIs(t, err, ErrLoadNotFound)

	require.NoError(t, b.Directory.DeleteLoad(ctx, load.ID))
	_, err = b.Directory.UpdateLoad(ctx, load.ID, models.UpdateLoadRequest{})
	assert.ErrorIs(t, err, ErrLoadNotFound)
}

func TestCanReview(t *testing.T) {
	assert.True(t, CanReview(rbac.RoleAgent))
	assert.True(t, CanReview(rbac.RoleOwner))
	assert.True(t, CanReview(rbac.RoleAccountant))
	assert.False(t, CanReview(rbac.RoleCarrier))
	assert.False(t, CanReview("Janitor"))
}
