package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/twy/backoffice/config"
	"github.com/twy/backoffice/handlers"
	"github.com/twy/backoffice/middleware"
	"github.com/twy/backoffice/mockapi"
	"github.com/twy/backoffice/models"
	"github.com/twy/backoffice/rbac"
	"github.com/twy/backoffice/utils"
	"go.uber.org/zap"
)

// APIPrefix is where the API is mounted
const APIPrefix = "/api"

// Deps are what the router serves
type Deps struct {
	Backend *mockapi.Backend
	Config  config.MockAPIConfig
	Logger  *zap.Logger
	// Gatherer backs /metrics, which is not mounted when nil
	Gatherer prometheus.Gatherer
}

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps Deps) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.EchoRequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	h := handlers.NewHandler(deps.Backend, deps.Logger.Named("handlers"))
	auth := middleware.NewAuthMiddleware(deps.Backend.Issuer, deps.Logger.Named("auth"))
	health := handlers.NewHealthHandler(map[string]handlers.Check{
		"directory": func(ctx context.Context) error {
			_, err := deps.Backend.Directory.ListBranches(ctx, models.ListParams{Limit: models.Int(1)})
			return err
		},
	}, deps.Logger)

	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route(APIPrefix, func(r chi.Router) {
		// Account endpoints
		r.Post("/login", h.HandleLogin)
		r.Post("/refresh-token", h.HandleRefreshToken)
		r.Post("/signup", h.HandleSignUp)
		r.Post("/verify", h.HandleVerify)
		r.Post("/forgot-password", h.HandleForgotPassword)
		r.Post("/create-password", h.HandleCreatePassword)
		r.Post("/resend-code", h.HandleResendCode)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth)

			r.Get("/user", h.HandleCurrentUser)
			r.Patch("/user", h.HandleSelfUpdate)

			r.Route("/users", func(r chi.Router) {
				r.Use(auth.RequireFeature(rbac.FeatureUsers))
				r.Get("/", h.HandleListUsers)
				r.With(userPermission(auth, rbac.ActionCreate)).Post("/", h.HandleCreateUser)
				r.Get("/{id}", h.HandleGetUser)
				r.With(userPermission(auth, rbac.ActionUpdate)).Patch("/{id}", h.HandleUpdateUser)
				r.With(userPermission(auth, rbac.ActionDelete)).Delete("/{id}", h.HandleDeleteUser)
			})

			r.Route("/branches", func(r chi.Router) {
				r.Use(auth.RequireFeature(rbac.FeatureBranches))
				r.Get("/", h.HandleListBranches)
				r.With(branchPermission(auth, rbac.ActionCreate)).Post("/", h.HandleCreateBranch)
				r.Get("/{id}", h.HandleGetBranch)
				r.With(branchPermission(auth, rbac.ActionUpdate)).Put("/{id}", h.HandleUpdateBranch)
				r.With(branchPermission(auth, rbac.ActionDelete)).Delete("/{id}", h.HandleDeleteBranch)
			})

			r.Route("/loads", func(r chi.Router) {
				r.Use(auth.RequireFeature(rbac.FeatureLoads))
				r.Get("/", h.HandleListLoads)
				r.With(loadPermission(auth, rbac.ActionCreate)).Post("/", h.HandleCreateLoad)
				r.With(loadPermission(auth, rbac.ActionUpdate)).Put("/{id}", h.HandleUpdateLoad)
				r.With(auth.RequirePermission("loads:review", mockapi.CanReview)).Patch("/{id}/status", h.HandleChangeLoadStatus)
				r.With(loadPermission(auth, rbac.ActionDelete)).Delete("/{id}", h.HandleDeleteLoad)
			})
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})

	return r
}

func userPermission(auth *middleware.AuthMiddleware, action rbac.Action) func(http.Handler) http.Handler {
	return auth.RequirePermission("users:"+string(action), func(role rbac.Role) bool {
		return rbac.HasUserPermission(role, action)
	})
}

func branchPermission(auth *middleware.AuthMiddleware, action rbac.Action) func(http.Handler) http.Handler {
	return auth.RequirePermission("branches:"+string(action), func(role rbac.Role) bool {
		return rbac.HasBranchPermission(role, action)
	})
}

func loadPermission(auth *middleware.AuthMiddleware, action rbac.Action) func(http.Handler) http.Handler {
	return auth.RequirePermission("loads:"+string(action), func(role rbac.Role) bool {
		return rbac.HasLoadPermission(role, action)
	})
}
