package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twy/backoffice/client"
	"github.com/twy/backoffice/models"
	"github.com/twy/backoffice/rbac"
	"github.com/twy/backoffice/store"
	"github.com/twy/backoffice/utils"
	"go.uber.org/zap/zaptest"
)

type recorded struct {
	method string
	path   string
	query  string
	auth   string
	body   map[string]any
}

// stubAPI answers every request with the configured envelope payload
type stubAPI struct {
	mu       sync.Mutex
	requests []recorded
	status   int
	data     any
}

func (s *stubAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &body)
	}

	s.mu.Lock()
	s.requests = append(s.requests, recorded{
		method: r.Method,
		path:   r.URL.Path,
		query:  r.URL.RawQuery,
		auth:   r.Header.Get("Authorization"),
		body:   body,
	})
	status, data := s.status, s.data
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if status >= 400 {
		_, _ = w.Write([]byte(`{"error":"Conflict","message":"duplicate key value violates unique constraint"}`))
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data, "requestId": "req-1"})
}

func (s *stubAPI) respond(status int, data any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status, s.data = status, data
}

func (s *stubAPI) last(t *testing.T) recorded {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.requests)
	return s.requests[len(s.requests)-1]
}

func (s *stubAPI) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func newServices(t *testing.T) (*Services, *stubAPI, string) {
	t.Helper()
	api := &stubAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	tokens := store.New(store.NewMemoryBackend(nil), zaptest.NewLogger(t))
	access, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	require.NoError(t, tokens.Set(context.Background(), store.KindAccess, access))

	opts := client.DefaultOptions(srv.URL + "/api")
	opts.Logger = zaptest.NewLogger(t)
	return New(client.New(tokens, opts), zaptest.NewLogger(t)), api, "Bearer " + access
}

func validLoad() models.LoadDetails {
	return models.LoadDetails{
		Customer:             "Acme",
		ReferenceNumber:      "REF-1",
		ContactName:          "Sam",
		CarrierRate:          "1200",
		LoadType:             "FTL",
		ServiceType:          "Dry",
		ServiceGivenAs:       "Broker",
		Commodity:            "Paper",
		BookedAs:             "Full",
		SoldAs:               "Full",
		Weight:               "40000",
		PickupSelectCarrier:  "Own",
		PickupName:           "Mill",
		PickupAddress:        "1 Mill Rd",
		DropoffSelectCarrier: "Own",
		DropoffName:          "Store",
		DropoffAddress:       "9 Main St",
	}
}

func TestServices_Routes(t *testing.T) {
	role := rbac.RoleAgent
	active := false

	tests := []struct {
		name       string
		data       any
		call       func(ctx context.Context, s *Services) error
		wantMethod string
		wantPath   string
		wantQuery  string
		wantBody   map[string]any
	}{
		{
			name: "list users",
			data: models.PaginatedUsers{Total: 0},
			call: func(ctx context.Context, s *Services) error {
				_, err := s.Users.List(ctx, models.ListParams{Page: models.Int(1), Limit: models.Int(20), Query: "dana"})
				return err
			},
			wantMethod: http.MethodGet,
			wantPath:   "/api/users",
			wantQuery:  "limit=20&page=1&query=dana",
		},
		{
			name: "get user",
			data: models.User{ID: "a/b"},
			call: func(ctx context.Context, s *Services) error {
				_, err := s.Users.Get(ctx, "a/b")
				return err
			},
			wantMethod: http.MethodGet,
			wantPath:   "/api/users/a/b",
		},
		{
			name: "update user",
			data: models.User{ID: "u1"},
			call: func(ctx context.Context, s *Services) error {
				_, err := s.Users.Update(ctx, models.UpdateUserRequest{ID: "u1", Role: &role, IsActive: &active})
				return err
			},
			wantMethod: http.MethodPatch,
			wantPath:   "/api/users/u1",
			wantBody:   map[string]any{"id": "u1", "role": "Agent", "isActive": false},
		},
		{
			name: "self update",
			data: models.CurrentUser{FirstName: "Dana"},
			call: func(ctx context.Context, s *Services) error {
				name := "Dana"
				_, err := s.Users.SelfUpdate(ctx, models.SelfUpdateRequest{FirstName: &name})
				return err
			},
			wantMethod: http.MethodPatch,
			wantPath:   "/api/user",
			wantBody:   map[string]any{"firstName": "Dana"},
		},
		{
			name: "current user",
			data: models.CurrentUser{Role: rbac.RoleOwner},
			call: func(ctx context.Context, s *Services) error {
				_, err := s.Users.Current(ctx)
				return err
			},
			wantMethod: http.MethodGet,
			wantPath:   "/api/user",
		},
		{
			name: "delete user",
			data: models.MessageResponse{Message: "deleted"},
			call: func(ctx context.Context, s *Services) error {
				return s.Users.Delete(ctx, "u1")
			},
			wantMethod: http.MethodDelete,
			wantPath:   "/api/users/u1",
		},
		{
			name: "update branch",
			data: models.Branch{ID: "b1"},
			call: func(ctx context.Context, s *Services) error {
				name := "North"
				_, err := s.Branches.Update(ctx, models.UpdateBranchRequest{ID: "b1", Name: &name})
				return err
			},
			wantMethod: http.MethodPut,
			wantPath:   "/api/branches/b1",
			wantBody:   map[string]any{"id": "b1", "name": "North"},
		},
		{
			name: "create load",
			data: models.CreateLoadResponse{LoadID: "l1"},
			call: func(ctx context.Context, s *Services) error {
				_, err := s.Loads.Create(ctx, validLoad())
				return err
			},
			wantMethod: http.MethodPost,
			wantPath:   "/api/loads",
		},
		{
			name: "change load status",
			data: models.ChangeStatusResponse{LoadID: "l1", Status: models.LoadApproved},
			call: func(ctx context.Context, s *Services) error {
				_, err := s.Loads.ChangeStatus(ctx, "l1", models.LoadApproved)
				return err
			},
			wantMethod: http.MethodPatch,
			wantPath:   "/api/loads/l1/status",
			wantBody:   map[string]any{"status": "Approved"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, api, bearer := newServices(t)
			api.respond(http.StatusOK, tt.data)

			require.NoError(t, tt.call(context.Background(), s))

			got := api.last(t)
			assert.Equal(t, tt.wantMethod, got.method)
			assert.Equal(t, tt.wantPath, got.path)
			assert.Equal(t, tt.wantQuery, got.query)
			assert.Equal(t, bearer, got.auth)
			if tt.wantBody != nil {
				assert.Equal(t, tt.wantBody, got.body)
			}
		})
	}
}

func TestServices_UnwrapsEnvelope(t *testing.T) {
	s, api, _ := newServices(t)
	api.respond(http.StatusOK, models.PaginatedLoads{
		Loads: []models.Load{{ID: "l1", Status: models.LoadPending}},
		Total: 1,
	})

	page, err := s.Loads.List(context.Background(), models.ListParams{SortField: "createdAt", SortOrder: models.SortDescend})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Loads, 1)
	assert.Equal(t, "l1", page.Loads[0].ID)
	assert.Equal(t, "sortField=createdAt&sortOrder=descend", api.last(t).query)
}

func TestAccount_SkipsAuth(t *testing.T) {
	tests := []struct {
		name string
		path string
		call func(ctx context.Context, a *Account) error
	}{
		{"sign up", "/api/signup", func(ctx context.Context, a *Account) error {
			_, err := a.SignUp(ctx, models.SignUpRequest{FirstName: "Dana", LastName: "Reyes", Email: "dana@example.com", Password: "s3cret-pass"})
			return err
		}},
		{"verify", "/api/verify", func(ctx context.Context, a *Account) error {
			_, err := a.Verify(ctx, models.VerifyRequest{Email: "dana@example.com", Code: "123456"})
			return err
		}},
		{"forgot password", "/api/forgot-password", func(ctx context.Context, a *Account) error {
			_, err := a.ForgotPassword(ctx, "dana@example.com")
			return err
		}},
		{"create password", "/api/create-password", func(ctx context.Context, a *Account) error {
			_, err := a.CreatePassword(ctx, models.CreatePasswordRequest{Email: "dana@example.com", Code: "123456", NewPassword: "n3w-pass-word"})
			return err
		}},
		{"resend code", "/api/resend-code", func(ctx context.Context, a *Account) error {
			_, err := a.ResendCode(ctx, "dana@example.com")
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, api, _ := newServices(t)
			api.respond(http.StatusOK, models.AccountResponse{Message: "ok"})

			require.NoError(t, tt.call(context.Background(), s.Account))
			got := api.last(t)
			assert.Equal(t, http.MethodPost, got.method)
			assert.Equal(t, tt.path, got.path)
			assert.Empty(t, got.auth)
		})
	}
}

func TestServices_InvalidInputNeverSent(t *testing.T) {
	s, api, _ := newServices(t)
	ctx := context.Background()

	_, err := s.Users.Create(ctx, models.UserForm{Email: "nope"})
	assert.True(t, utils.IsValidationError(err))

	_, err = s.Loads.ChangeStatus(ctx, "l1", "Shipped")
	assert.True(t, utils.IsValidationError(err))

	_, err = s.Users.List(ctx, models.ListParams{Limit: models.Int(1000)})
	assert.True(t, utils.IsValidationError(err))

	assert.Zero(t, api.count())
}

func TestServices_ErrorsAreNormalized(t *testing.T) {
	s, api, _ := newServices(t)
	api.respond(http.StatusConflict, nil)

	_, err := s.Branches.Create(context.Background(), models.BranchForm{Name: "North", Owner: "u1"})
	require.Error(t, err)
	assert.True(t, client.IsConflictError(err))
	assert.True(t, client.IsDuplicateKey(err))
	assert.Equal(t, "duplicate key value violates unique constraint", err.Error())
}
