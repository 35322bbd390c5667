package rest

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/bert0h-dev/busmanage-api/api"
	"github.com/bert0h-dev/busmanage-api/internal/auth"
	"github.com/bert0h-dev/busmanage-api/internal/permission"
	"github.com/bert0h-dev/busmanage-api/internal/transport/middleware"
	"github.com/bert0h-dev/busmanage-api/internal/transport/swagger"
	"github.com/bert0h-dev/busmanage-api/internal/user"
)

// RegisterAllRoutes wires the HTTP surface. Guarded routes declare their
// (module, action) requirements inline so the authorization matrix is
// readable from this one file.
func RegisterAllRoutes(
	router *chi.Mux,
	db *sql.DB,
	authHandler *auth.Handler,
	permissionHandler *permission.Handler,
	permissionService permission.ServiceAPI,
	userHandler *user.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.Timeout(cfg.RequestTimeout))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(api.OpenAPI)
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", authHandler.Login)
			sr.Post("/register", authHandler.Register)
			sr.Post("/refresh", authHandler.RefreshToken)
			sr.Post("/forgot-password", authHandler.ForgotPassword)
			sr.Post("/reset-password", authHandler.ResetPassword)

			sr.Group(func(ar chi.Router) {
				ar.Use(authHandler.AuthMiddleware)
				ar.Post("/logout", authHandler.Logout)
				ar.Post("/change-password", authHandler.ChangePassword)
			})
		})

		// Everything below requires a valid access token.
		r.Group(func(pr chi.Router) {
			pr.Use(authHandler.AuthMiddleware)

			pr.Get("/users/me", userHandler.GetMe)

			pr.Route("/permissions", func(mr chi.Router) {
				mr.Get("/modules", permissionHandler.GetMyModules)
				mr.Get("/modules/{moduleName}", permissionHandler.GetMyModulePermissions)
				mr.Get("/check/{moduleName}/{action}", permissionHandler.CheckPermission)

				// Grant administration needs the user-management module.
				mr.Group(func(gr chi.Router) {
					gr.Use(middleware.RequirePermissions(permissionService,
						middleware.Require("sm_users", permission.ActionManage)))
					gr.Post("/assign", permissionHandler.AssignPermission)
					gr.Delete("/remove", permissionHandler.RemovePermission)
				})
			})
		})
	})
}

// RouterConfig carries the transport-level knobs the router needs.
type RouterConfig struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
}
