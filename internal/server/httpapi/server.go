// Package httpapi exposes the account and media operations over REST.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/avolkovs/runbase/internal/logging"
	"github.com/avolkovs/runbase/internal/server/accounts"
	"github.com/avolkovs/runbase/internal/server/config"
	"github.com/avolkovs/runbase/internal/server/storage"
)

type Server struct {
	accounts *accounts.Service
	media    storage.Backend
	config   *config.Config
	logger   logging.Logger
}

func NewServer(svc *accounts.Service, media storage.Backend, cfg *config.Config, logger logging.Logger) *Server {
	return &Server{
		accounts: svc,
		media:    media,
		config:   cfg,
		logger:   logger,
	}
}

// Router assembles the middleware chain and all routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(recoverer(s.logger))
	r.Use(requestLogger(s.logger))
	r.Use(allowedHosts(s.config.AllowedHosts))
	if s.config.SSLRedirect {
		r.Use(sslRedirect)
	}
	if len(s.config.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
		}))
	}

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/accounts", func(r chi.Router) {
		r.Post("/auth/registration/", s.handleRegistration)
		r.Post("/auth/login/", s.handleLogin)
		r.Post("/auth/password/reset/", s.handlePasswordReset)
		r.Post("/auth/password/reset/confirm/", s.handlePasswordResetConfirm)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/auth/logout/", s.handleLogout)
			r.Get("/auth/user/", s.handleUserDetail)
			r.Patch("/auth/user/", s.handleUserUpdate)
			r.Get("/profile/", s.handleProfile)
			r.Post("/change-password/", s.handleChangePassword)
			r.Get("/stats/", s.handleStats)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Post("/api/media/uploads/", s.handleMediaUpload)
	})

	r.Get("/media/*", s.handleMediaGet)
	r.Put("/media/*", s.handleMediaPut)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
