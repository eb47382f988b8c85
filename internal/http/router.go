package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/moviehub/theater-api/internal/auth"
	"github.com/moviehub/theater-api/internal/config"
	"github.com/moviehub/theater-api/internal/httputil"
	"github.com/moviehub/theater-api/internal/logging"
	"github.com/moviehub/theater-api/internal/profile"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	cfg *config.Config,
	accountHandler *auth.Handler,
	profileHandler *profile.Handler,
	authMiddleware *auth.Middleware,
	logger *logging.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Compress(5))

	r.Get("/health", handleHealth)

	// Swagger UI - only in development
	if cfg.Server.IsDevelopment() {
		logger.Info("swagger UI enabled", "path", "/swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	// Account routes (public)
	r.Route("/accounts", func(r chi.Router) {
		r.Post("/register/", accountHandler.Register)
		r.Post("/activate/", accountHandler.Activate)
		r.Post("/activate/resend/", accountHandler.ResendActivation)
		r.Post("/password-reset/request/", accountHandler.RequestPasswordReset)
		r.Post("/reset-password/complete/", accountHandler.CompletePasswordReset)
		r.Post("/login/", accountHandler.Login)
		r.Post("/refresh/", accountHandler.Refresh)
		r.Post("/logout/", accountHandler.Logout)

		// Protected account routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)
			r.Post("/change-password/", accountHandler.ChangePassword)
		})

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)
			r.Use(authMiddleware.RequireAdmin)
			r.Post("/admin/users/{userID}/activate/", accountHandler.AdminActivate)
			r.Post("/admin/users/{userID}/change-group/", accountHandler.ChangeGroup)
		})
	})

	// Profile routes (protected)
	r.Route("/profiles", func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)
		r.Get("/me/", profileHandler.Me)
		r.Post("/", profileHandler.Create)
	})

	return r
}

// handleHealth is a simple health check endpoint
// @Summary      Health check
// @Description  Check if the API is running
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /health [get]
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}
