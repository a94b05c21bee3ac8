package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/upb/hotel-booking-api/app"
	"github.com/upb/hotel-booking-api/handlers"
	"github.com/upb/hotel-booking-api/middleware"
	"github.com/upb/hotel-booking-api/services/authz"
	"github.com/upb/hotel-booking-api/utils"
)

// Gate selects the access check applied to one resource operation
type Gate int

const (
	Public Gate = iota
	Authenticated
	Owner // authenticated and owner of {id}, or admin
)

// ResourceGates lists the gate for each CRUD operation of a resource
type ResourceGates struct {
	List, Create, Get, Update, Delete Gate
}

// ResourceAccess holds the gates of every /api/v1 resource
var ResourceAccess = map[string]ResourceGates{
	"users":    {List: Authenticated, Create: Public, Get: Authenticated, Update: Owner, Delete: Owner},
	"cities":   {List: Public, Create: Authenticated, Get: Authenticated, Update: Authenticated, Delete: Authenticated},
	"hotels":   {List: Public, Create: Authenticated, Get: Public, Update: Authenticated, Delete: Authenticated},
	"bookings": {List: Public, Create: Authenticated, Get: Public, Update: Authenticated, Delete: Authenticated},
	"reviews":  {List: Public, Create: Authenticated, Get: Public, Update: Authenticated, Delete: Authenticated},
	"images":   {List: Public, Create: Authenticated, Get: Public, Update: Authenticated, Delete: Authenticated},
}

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()
	cfg := deps.Config

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer(deps.Logger))
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(middleware.SecurityHeaders)

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           300,
	}))

	if deps.GlobalLimiter != nil {
		r.Use(deps.GlobalLimiter.Limit)
	}

	// Health check endpoints
	r.Get("/healthz", deps.HealthHandler.HandleHealth)
	r.Get("/readyz", deps.HealthHandler.HandleReadiness)
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	auth := deps.AuthMiddleware
	demo := deps.DemoHandler

	r.Get("/", demo.HandleIndex)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			if deps.AuthLimiter != nil {
				r.Use(deps.AuthLimiter.Limit)
			}
			r.Post("/login", deps.AuthHandler.HandleLogin)
			r.Post("/register", deps.AuthHandler.HandleRegister)
			r.Post("/refresh", deps.AuthHandler.HandleRefresh)
		})

		r.With(auth.OptionalAuth).Get("/public", demo.HandlePublic)
		r.With(auth.RequireAuth).Get("/profile", demo.HandleProfile)
		r.With(auth.RequireOwnership(middleware.OwnerFromParamOrBody("userId", "userId"))).
			Put("/users/{userId}/profile", demo.HandleUpdateProfile)
		r.With(auth.RequireRole(authz.UserOrAdminRoles...)).Get("/dashboard", demo.HandleDashboard)

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequireRole(cfg.Auth.AdminRoles...))
			r.Get("/dashboard", demo.HandleAdminDashboard)
			r.Get("/users", demo.HandleAdminListUsers)
			r.Delete("/users/{userId}", demo.HandleAdminDeleteUser)
		})

		// API v1 routes
		r.Route("/v1", func(r chi.Router) {
			r.Get("/status", handlers.StatusHandler(cfg))

			r.Route("/users", func(r chi.Router) {
				r.With(auth.RequireAuth).Get("/me", demo.HandleProfile)
				if deps.AuthLimiter != nil {
					r.With(deps.AuthLimiter.Limit).Post("/login", deps.AuthHandler.HandleLogin)
				} else {
					r.Post("/login", deps.AuthHandler.HandleLogin)
				}
				mountResource(r, auth, "users", ResourceAccess["users"])
			})
			for _, name := range handlers.Resources {
				if name == "users" {
					continue
				}
				r.Route("/"+name, func(r chi.Router) {
					mountResource(r, auth, name, ResourceAccess[name])
				})
			}
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})

	return r
}

// mountResource registers the CRUD placeholders of one resource behind its gates
func mountResource(r chi.Router, auth *middleware.AuthMiddleware, name string, gates ResourceGates) {
	with := func(g Gate) chi.Router {
		switch g {
		case Authenticated:
			return r.With(auth.RequireAuth)
		case Owner:
			return r.With(auth.RequireOwnership(middleware.OwnerFromURLParam("id")))
		default:
			return r.With()
		}
	}

	with(gates.List).Get("/", handlers.NotImplementedHandler(name, "List"))
	with(gates.Create).Post("/", handlers.NotImplementedHandler(name, "Create"))
	with(gates.Get).Get("/{id}", handlers.NotImplementedHandler(name, "Get"))
	with(gates.Update).Put("/{id}", handlers.NotImplementedHandler(name, "Update"))
	with(gates.Delete).Delete("/{id}", handlers.NotImplementedHandler(name, "Delete"))
}
