package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twy/backoffice/cognito"
	"github.com/twy/backoffice/config"
	"github.com/twy/backoffice/middleware"
	"github.com/twy/backoffice/mockapi"
	"github.com/twy/backoffice/models"
	"github.com/twy/backoffice/rbac"
	"github.com/twy/backoffice/utils"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

const seedPassword = "S3cret-pass!"

type fixture struct {
	backend *mockapi.Backend
	router  chi.Router
}

// newFixture serves the handlers on a bare router. The caller's identity is
// taken from the X-Test-Sub header in place of a bearer token.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)

	backend := mockapi.New(config.MockAPIConfig{
		SigningSecret:   "handler-test-secret",
		AccessTokenTTL:  time.Minute,
		IDTokenTTL:      time.Minute,
		RefreshTokenTTL: time.Hour,
	}, logger)
	backend.Accounts.SetBcryptCost(bcrypt.MinCost)
	require.NoError(t, backend.Seed(context.Background(), seedPassword))

	h := NewHandler(backend, logger)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if sub := req.Header.Get("X-Test-Sub"); sub != "" {
				claims := &cognito.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: sub}}
				req = req.WithContext(middleware.WithClaims(req.Context(), claims))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Post("/login", h.HandleLogin)
	r.Post("/refresh-token", h.HandleRefreshToken)
	r.Post("/signup", h.HandleSignUp)
	r.Post("/verify", h.HandleVerify)
	r.Post("/forgot-password", h.HandleForgotPassword)
	r.Post("/create-password", h.HandleCreatePassword)
	r.Post("/resend-code", h.HandleResendCode)
	r.Get("/user", h.HandleCurrentUser)
	r.Patch("/user", h.HandleSelfUpdate)
	r.Get("/users", h.HandleListUsers)
	r.Post("/users", h.HandleCreateUser)
	r.Get("/users/{id}", h.HandleGetUser)
	r.Patch("/users/{id}", h.HandleUpdateUser)
	r.Delete("/users/{id}", h.HandleDeleteUser)
	r.Get("/branches", h.HandleListBranches)
	r.Post("/branches", h.HandleCreateBranch)
	r.Get("/branches/{id}", h.HandleGetBranch)
	r.Put("/branches/{id}", h.HandleUpdateBranch)
	r.Delete("/branches/{id}", h.HandleDeleteBranch)
	r.Get("/loads", h.HandleListLoads)
	r.Post("/loads", h.HandleCreateLoad)
	r.Put("/loads/{id}", h.HandleUpdateLoad)
	r.Patch("/loads/{id}/status", h.HandleChangeLoadStatus)
	r.Delete("/loads/{id}", h.HandleDeleteLoad)

	return &fixture{backend: backend, router: r}
}

func (f *fixture) do(t *testing.T, method, path, sub string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if sub != "" {
		req.Header.Set("X-Test-Sub", sub)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) userID(t *testing.T, role rbac.Role) string {
	t.Helper()
	users, err := f.backend.Directory.ListUsers(context.Background(), models.ListParams{Limit: models.Int(100)})
	require.NoError(t, err)
	for _, u := range users.Users {
		if u.Email == mockapi.SeedEmail(role) {
			return u.ID
		}
	}
	t.Fatalf("no seeded user for %s", role)
	return ""
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var env models.APIResponse[T]
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
	return env.Data
}

func decodeErr(t *testing.T, w *httptest.ResponseRecorder) utils.ErrorResponse {
	t.Helper()
	var body utils.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestHandleLogin(t *testing.T) {
	f := newFixture(t)

	t.Run("issues tokens for valid credentials", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/login", "", models.LoginRequest{
			Email:    mockapi.SeedEmail(rbac.RoleAgent),
			Password: seedPassword,
		})

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		tokens := decodeData[models.LoginResponse](t, w)
		assert.NotEmpty(t, tokens.AccessToken)
		assert.NotEmpty(t, tokens.IDToken)
		assert.NotEmpty(t, tokens.RefreshToken)

		role, err := cognito.ExtractRole(tokens.IDToken)
		require.NoError(t, err)
		assert.Equal(t, string(rbac.RoleAgent), role)
	})

	t.Run("rejects wrong password with 401", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/login", "", models.LoginRequest{
			Email:    mockapi.SeedEmail(rbac.RoleAgent),
			Password: "nope",
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Incorrect username or password.", decodeErr(t, w).Message)
	})

	t.Run("rejects malformed body with 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString("{"))
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid request body", decodeErr(t, w).Message)
	})

	t.Run("rejects invalid email with field details", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/login", "", models.LoginRequest{Email: "not-an-email", Password: "x"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeErr(t, w)
		assert.Equal(t, "Validation failed", body.Message)
		assert.Contains(t, body.Details, "email")
	})
}

func TestHandleRefreshToken(t *testing.T) {
	f := newFixture(t)

	login, err := f.backend.Accounts.Login(context.Background(), mockapi.SeedEmail(rbac.RoleOwner), seedPassword)
	require.NoError(t, err)

	t.Run("reissues access and id tokens", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/refresh-token", "", models.RefreshTokenRequest{RefreshToken: login.RefreshToken})

		require.Equal(t, http.StatusOK, w.Code)
		tokens := decodeData[models.RefreshTokenResponse](t, w)
		assert.NotEmpty(t, tokens.AccessToken)
		assert.NotEmpty(t, tokens.IDToken)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/refresh-token", "", models.RefreshTokenRequest{RefreshToken: login.AccessToken})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAccountFlow(t *testing.T) {
	f := newFixture(t)
	email := "new.carrier@example.com"

	w := f.do(t, http.MethodPost, "/signup", "", models.SignUpRequest{
		FirstName: "Nina",
		LastName:  "Cole",
		Email:     email,
		Password:  seedPassword,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, decodeData[models.AccountResponse](t, w).UserSub)

	t.Run("duplicate sign up is a conflict", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/signup", "", models.SignUpRequest{
			FirstName: "Nina",
			LastName:  "Cole",
			Email:     email,
			Password:  seedPassword,
		})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "EMAIL_ALREADY_EXISTS", decodeErr(t, w).Message)
	})

	t.Run("weak password is rejected", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/signup", "", models.SignUpRequest{
			FirstName: "Weak",
			LastName:  "Pass",
			Email:     "weak@example.com",
			Password:  "alllowercase",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "WEAK_PASSWORD", decodeErr(t, w).Message)
	})

	t.Run("login before verify is refused", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/login", "", models.LoginRequest{Email: email, Password: seedPassword})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "User is not confirmed.", decodeErr(t, w).Message)
	})

	t.Run("resend then verify", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/resend-code", "", models.ResendCodeRequest{Email: email})
		require.Equal(t, http.StatusOK, w.Code)

		w = f.do(t, http.MethodPost, "/verify", "", models.VerifyRequest{Email: email, Code: "000000x"})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		code, ok := f.backend.Accounts.PendingCode(context.Background(), email)
		require.True(t, ok)
		w = f.do(t, http.MethodPost, "/verify", "", models.VerifyRequest{Email: email, Code: code})
		require.Equal(t, http.StatusOK, w.Code)

		w = f.do(t, http.MethodPost, "/login", "", models.LoginRequest{Email: email, Password: seedPassword})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("forgot then create password", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/forgot-password", "", models.ForgotPasswordRequest{Email: email})
		require.Equal(t, http.StatusOK, w.Code)

		code, ok := f.backend.Accounts.PendingCode(context.Background(), email)
		require.True(t, ok)
		w = f.do(t, http.MethodPost, "/create-password", "", models.CreatePasswordRequest{
			Email:       email,
			Code:        code,
			NewPassword: "N3w-password!",
		})
		require.Equal(t, http.StatusOK, w.Code)

		w = f.do(t, http.MethodPost, "/login", "", models.LoginRequest{Email: email, Password: "N3w-password!"})
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestUserHandlers(t *testing.T) {
	f := newFixture(t)
	ownerID := f.userID(t, rbac.RoleHeadOwner)

	t.Run("current user comes from the caller", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/user", ownerID, nil)
		require.Equal(t, http.StatusOK, w.Code)
		me := decodeData[models.CurrentUser](t, w)
		assert.Equal(t, mockapi.SeedEmail(rbac.RoleHeadOwner), me.Email)
		assert.Equal(t, rbac.RoleHeadOwner, me.Role)
	})

	t.Run("current user without claims is 401", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/user", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("self update renames", func(t *testing.T) {
		first := "Harriet"
		w := f.do(t, http.MethodPatch, "/user", ownerID, models.SelfUpdateRequest{FirstName: &first})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Harriet", decodeData[models.CurrentUser](t, w).FirstName)
	})

	t.Run("list paginates and searches", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/users?limit=2&page=0", ownerID, nil)
		require.Equal(t, http.StatusOK, w.Code)
		page := decodeData[models.PaginatedUsers](t, w)
		assert.Len(t, page.Users, 2)
		assert.Equal(t, len(rbac.Roles), page.Total)
		assert.Equal(t, 2, page.Limit)

		w = f.do(t, http.MethodGet, "/users?query=carrier", ownerID, nil)
		require.Equal(t, http.StatusOK, w.Code)
		page = decodeData[models.PaginatedUsers](t, w)
		require.Len(t, page.Users, 1)
		assert.Equal(t, mockapi.SeedEmail(rbac.RoleCarrier), page.Users[0].Email)
	})

	t.Run("invalid list params are 400", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/users?sortOrder=sideways", ownerID, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("create update delete", func(t *testing.T) {
		branches, err := f.backend.Directory.ListBranches(context.Background(), models.ListParams{})
		require.NoError(t, err)
		require.NotEmpty(t, branches.Branches)

		w := f.do(t, http.MethodPost, "/users", ownerID, models.UserForm{
			FirstName: "Ada",
			LastName:  "Park",
			Email:     "ada@example.com",
			IsActive:  true,
			Role:      rbac.RoleAccountant,
			BranchID:  branches.Branches[0].ID,
		})
		require.Equal(t, http.StatusCreated, w.Code)
		created := decodeData[models.User](t, w)
		assert.Equal(t, rbac.RoleAccountant, created.Role)

		role := rbac.RoleAgent
		w = f.do(t, http.MethodPatch, "/users/"+created.ID, ownerID, models.UpdateUserRequest{ID: created.ID, Role: &role})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, rbac.RoleAgent, decodeData[models.User](t, w).Role)

		w = f.do(t, http.MethodDelete, "/users/"+created.ID, ownerID, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = f.do(t, http.MethodGet, "/users/"+created.ID, ownerID, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "User not found", decodeErr(t, w).Message)
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/users", ownerID, map[string]any{
			"firstName": "X",
			"lastName":  "Y",
			"email":     "xy@example.com",
			"role":      "Janitor",
			"branchId":  "b",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBranchHandlers(t *testing.T) {
	f := newFixture(t)
	ownerID := f.userID(t, rbac.RoleHeadOwner)

	w := f.do(t, http.MethodPost, "/branches", ownerID, models.BranchForm{Name: "North", Owner: ownerID})
	require.Equal(t, http.StatusCreated, w.Code)
	branch := decodeData[models.Branch](t, w)
	require.NotNil(t, branch.Owner)
	assert.Equal(t, ownerID, branch.Owner.ID)

	name := "North Yard"
	w = f.do(t, http.MethodPut, "/branches/"+branch.ID, ownerID, models.UpdateBranchRequest{ID: branch.ID, Name: &name})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "North Yard", decodeData[models.Branch](t, w).Name)

	w = f.do(t, http.MethodGet, "/branches", ownerID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decodeData[models.PaginatedBranches](t, w).Total)

	w = f.do(t, http.MethodDelete, "/branches/"+branch.ID, ownerID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/branches/"+branch.ID, ownerID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLoadHandlers(t *testing.T) {
	f := newFixture(t)
	agentID := f.userID(t, rbac.RoleAgent)

	w := f.do(t, http.MethodGet, "/loads", agentID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	loads := decodeData[models.PaginatedLoads](t, w)
	require.Equal(t, 1, loads.Total)
	load := loads.Loads[0]
	assert.Equal(t, models.LoadPending, load.Status)

	t.Run("status change records the reviewer", func(t *testing.T) {
		w := f.do(t, http.MethodPatch, "/loads/"+load.ID+"/status", agentID, models.ChangeLoadStatusRequest{Status: models.LoadApproved})
		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeData[models.ChangeStatusResponse](t, w)
		assert.Equal(t, models.LoadApproved, resp.Status)
		require.NotNil(t, resp.StatusChangedBy)
		assert.Equal(t, "Seed Agent", *resp.StatusChangedBy)
	})

	t.Run("unknown status is 400", func(t *testing.T) {
		w := f.do(t, http.MethodPatch, "/loads/"+load.ID+"/status", agentID, map[string]string{"status": "Lost"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("update changes set fields only", func(t *testing.T) {
		weight := "40000"
		w := f.do(t, http.MethodPut, "/loads/"+load.ID, agentID, models.UpdateLoadRequest{Weight: &weight})
		require.Equal(t, http.StatusOK, w.Code)
		updated := decodeData[models.Load](t, w)
		assert.Equal(t, "40000", updated.Weight)
		assert.Equal(t, load.Customer, updated.Customer)
	})

	t.Run("incomplete load is rejected", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/loads", agentID, models.LoadDetails{Customer: "Only a name"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("delete then missing", func(t *testing.T) {
		w := f.do(t, http.MethodDelete, "/loads/"+load.ID, agentID, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = f.do(t, http.MethodDelete, "/loads/"+load.ID, agentID, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
