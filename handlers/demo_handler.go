package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/upb/hotel-booking-api/middleware"
	"github.com/upb/hotel-booking-api/models"
	"github.com/upb/hotel-booking-api/repositories"
	"github.com/upb/hotel-booking-api/services"
	"github.com/upb/hotel-booking-api/services/authz"
	"github.com/upb/hotel-booking-api/services/token"
	"github.com/upb/hotel-booking-api/utils"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// ProfileUpdateRequest is the body of PUT /api/users/{userId}/profile.
// userId may be sent in the body when the route has no parameter.
type ProfileUpdateRequest struct {
	UserID   interface{} `json:"userId,omitempty"`
	Email    string      `json:"email" validate:"omitempty,email,max=254"`
	Username string      `json:"username" validate:"omitempty,alphanum,min=3,max=32"`
}

// DemoHandler serves the routes that exercise each authentication gate
type DemoHandler struct {
	users      repositories.UserRepository
	adminRoles []string
	logger     *zap.Logger
}

// NewDemoHandler creates a new DemoHandler. adminRoles defaults to authz.AdminRoles.
func NewDemoHandler(users repositories.UserRepository, adminRoles []string, logger *zap.Logger) *DemoHandler {
	if len(adminRoles) == 0 {
		adminRoles = authz.AdminRoles
	}
	return &DemoHandler{
		users:      users,
		adminRoles: adminRoles,
		logger:     logger,
	}
}

// HandleIndex handles GET /
func (h *DemoHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteMessage(w, "Hotel booking API", map[string]interface{}{
		"version": Version,
		"endpoints": map[string]string{
			"login":           "POST /api/auth/login",
			"register":        "POST /api/auth/register",
			"refresh":         "POST /api/auth/refresh",
			"public":          "GET /api/public",
			"profile":         "GET /api/profile",
			"update_profile":  "PUT /api/users/{userId}/profile",
			"admin_dashboard": "GET /api/admin/dashboard",
			"admin_users":     "GET /api/admin/users",
			"dashboard":       "GET /api/dashboard",
		},
	})
}

// HandlePublic handles GET /api/public. Callers with a valid token get a
// personalised greeting; everyone else is treated as a guest.
func (h *DemoHandler) HandlePublic(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipalFromContext(r.Context())
	if p == nil {
		_ = utils.WriteMessage(w, "Hello, guest", map[string]interface{}{
			"authenticated": false,
		})
		return
	}

	_ = utils.WriteMessage(w, "Hello, "+displayName(p), map[string]interface{}{
		"authenticated": true,
		"user":          p,
	})
}

// HandleProfile handles GET /api/profile
func (h *DemoHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipalFromContext(r.Context())
	_ = utils.WriteMessage(w, "Profile retrieved", map[string]interface{}{
		"user": p,
	})
}

// HandleUpdateProfile handles PUT /api/users/{userId}/profile.
// Ownership has already been enforced by middleware.
func (h *DemoHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req ProfileUpdateRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	target := token.CanonicalID(chi.URLParam(r, "userId"))
	if target == "" {
		target = token.CanonicalID(req.UserID)
	}
	id, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		HandleServiceError(w, services.ErrUserNotFound, h.logger)
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if req.Email != "" {
		user.Email = models.NormalizeEmail(req.Email)
	}
	if req.Username != "" {
		user.Username = req.Username
	}
	user.UpdatedAt = time.Now().UTC()

	if err := h.users.Update(r.Context(), user); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("profile updated",
		zap.Int64("user_id", user.ID),
		zap.String("updated_by", middleware.GetPrincipalFromContext(r.Context()).ID))
	_ = utils.WriteMessage(w, "Profile updated", map[string]interface{}{
		"user": user,
	})
}

// HandleAdminDashboard handles GET /api/admin/dashboard
func (h *DemoHandler) HandleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipalFromContext(r.Context())
	_ = utils.WriteMessage(w, "Welcome to the admin dashboard", map[string]interface{}{
		"user": p,
	})
}

// HandleAdminListUsers handles GET /api/admin/users
func (h *DemoHandler) HandleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultPageSize)
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	users, err := h.users.List(r.Context(), limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if users == nil {
		users = []*models.User{}
	}

	_ = utils.WriteOK(w, map[string]interface{}{
		"users":  users,
		"limit":  limit,
		"offset": offset,
	})
}

// HandleAdminDeleteUser handles DELETE /api/admin/users/{userId}
func (h *DemoHandler) HandleAdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(token.CanonicalID(chi.URLParam(r, "userId")), 10, 64)
	if err != nil {
		HandleServiceError(w, services.ErrUserNotFound, h.logger)
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("user deleted",
		zap.Int64("user_id", id),
		zap.String("deleted_by", middleware.GetPrincipalFromContext(r.Context()).ID))
	_ = utils.WriteMessage(w, "User deleted", map[string]interface{}{
		"id": id,
	})
}

// HandleDashboard handles GET /api/dashboard
func (h *DemoHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipalFromContext(r.Context())
	_ = utils.WriteMessage(w, "Welcome to your dashboard, "+displayName(p), map[string]interface{}{
		"user":     p,
		"is_admin": p.HasAnyRole(h.adminRoles...),
	})
}

func displayName(p *token.Principal) string {
	switch {
	case p.Username != "":
		return p.Username
	case p.Email != "":
		return p.Email
	default:
		return "user " + p.ID
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
