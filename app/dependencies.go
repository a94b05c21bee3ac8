package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/upb/hotel-booking-api/auth"
	"github.com/upb/hotel-booking-api/config"
	"github.com/upb/hotel-booking-api/handlers"
	"github.com/upb/hotel-booking-api/internal/observability"
	"github.com/upb/hotel-booking-api/middleware"
	"github.com/upb/hotel-booking-api/repositories"
	"github.com/upb/hotel-booking-api/repositories/memory"
	"github.com/upb/hotel-booking-api/repositories/postgres"
	"github.com/upb/hotel-booking-api/services/authz"
	"github.com/upb/hotel-booking-api/services/credentials"
	"github.com/upb/hotel-booking-api/services/token"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config  *config.Config
	DB      *postgres.DB
	Logger  *zap.Logger
	Metrics *observability.Metrics

	// Repository Factory (nil with the in-memory store)
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Users repositories.UserRepository

	// Tokens and authorization
	Issuer         *token.Issuer
	Verifier       *token.Verifier
	Refresher      *token.Refresher
	RoleAuthorizer *authz.RoleAuthorizer
	OwnershipGuard *authz.OwnershipGuard
	Credentials    *credentials.Service

	// HTTP
	AuthMiddleware *middleware.AuthMiddleware
	AuthHandler    *auth.Handler
	HealthHandler  *handlers.HealthHandler
	DemoHandler    *handlers.DemoHandler
	GlobalLimiter  *middleware.RateLimiter
	AuthLimiter    *middleware.RateLimiter
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}
	if cfg.Observability.MetricsEnabled {
		deps.Metrics = observability.NewMetrics()
	}

	// Initialize the user store
	if err := deps.initStore(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize token services
	if err := deps.initTokens(cfg); err != nil {
		deps.closeStore()
		return nil, fmt.Errorf("failed to initialize token services: %w", err)
	}

	// Initialize credentials and HTTP components
	if err := deps.initAuth(ctx, cfg); err != nil {
		deps.closeStore()
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	logger.Info("all dependencies initialized successfully",
		zap.String("user_store", cfg.Auth.UserStore),
		zap.Bool("metrics", deps.Metrics != nil))
	return deps, nil
}

// initStore opens PostgreSQL or creates the in-memory store
func (d *Dependencies) initStore(ctx context.Context, cfg *config.Config) error {
	if !cfg.UsesDatabase() {
		d.Users = memory.NewUserRepository()
		d.Logger.Warn("using in-memory user store; data is lost on restart")
		return nil
	}

	factory, err := postgres.NewRepositoryFactory(cfg, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	if err := factory.InitSchema(ctx); err != nil {
		_ = factory.Close()
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	d.RepoFactory = factory
	d.DB = factory.GetDB()
	d.Users = factory.NewRepositories().Users

	d.Logger.Info("repositories initialized",
		zap.String("connection", cfg.Database.LogString()))
	return nil
}

// initTokens builds the issuer, verifier and refresher from the JWT config
func (d *Dependencies) initTokens(cfg *config.Config) error {
	tcfg := TokenConfig(cfg.JWT)

	issuer, err := token.NewIssuer(tcfg)
	if err != nil {
		return err
	}
	verifier, err := token.NewVerifier(tcfg)
	if err != nil {
		return err
	}

	d.Issuer = issuer
	d.Verifier = verifier
	d.Refresher = token.NewRefresher(verifier, issuer, cfg.JWT.ReissuePair)
	d.RoleAuthorizer = authz.NewRoleAuthorizer()
	d.OwnershipGuard = authz.NewOwnershipGuard(cfg.Auth.AdminRoles...)
	return nil
}

func (d *Dependencies) initAuth(ctx context.Context, cfg *config.Config) error {
	d.Credentials = credentials.NewService(d.Users, cfg.Auth.BcryptCost, d.Logger)
	if cfg.Auth.UserStore == config.UserStoreMemory {
		if err := d.Credentials.SeedDemoAccounts(ctx); err != nil {
			return fmt.Errorf("failed to seed demo accounts: %w", err)
		}
		d.Logger.Info("seeded demo accounts", zap.Int("count", len(credentials.DemoAccounts)))
	}

	d.AuthMiddleware = middleware.NewAuthMiddleware(d.Verifier, d.Logger,
		middleware.WithRoleAuthorizer(d.RoleAuthorizer),
		middleware.WithOwnershipGuard(d.OwnershipGuard),
		middleware.WithMetrics(d.Metrics),
	)
	d.AuthHandler = auth.NewHandler(d.Credentials, d.Issuer, d.Refresher, d.Metrics, d.Logger)

	var checker repositories.HealthChecker
	if d.DB != nil {
		checker = d.DB
	}
	d.HealthHandler = handlers.NewHealthHandler(checker, cfg.UsesDatabase(), d.Logger)
	d.DemoHandler = handlers.NewDemoHandler(d.Users, d.OwnershipGuard.AdminRoles(), d.Logger)

	if cfg.RateLimit.Enabled {
		d.GlobalLimiter = middleware.NewRateLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window, d.Logger)
		d.AuthLimiter = middleware.NewRateLimiter(cfg.RateLimit.AuthRequests, cfg.RateLimit.AuthWindow, d.Logger)
	}

	d.Logger.Info("auth initialized",
		zap.String("issuer", cfg.JWT.Issuer),
		zap.String("algorithm", cfg.JWT.Algorithm),
		zap.Duration("access_ttl", cfg.JWT.AccessTTL),
		zap.Duration("refresh_ttl", cfg.JWT.RefreshTTL))
	return nil
}

// TokenConfig converts the JWT settings into token service configuration
func TokenConfig(c config.JWTConfig) token.Config {
	return token.Config{
		AccessSecret:  c.AccessSecret,
		RefreshSecret: c.RefreshSecret,
		AccessTTL:     c.AccessTTL,
		RefreshTTL:    c.RefreshTTL,
		Issuer:        c.Issuer,
		Audience:      c.Audience,
		Algorithm:     c.Algorithm,
	}
}

func (d *Dependencies) closeStore() {
	if d.RepoFactory != nil {
		_ = d.RepoFactory.Close()
		d.RepoFactory = nil
		d.DB = nil
	}
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	// Close database connection
	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
		d.RepoFactory = nil
		d.DB = nil
	}

	// Sync logger
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	return errors.Join(errs...)
}
