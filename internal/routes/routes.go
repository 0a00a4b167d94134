package routes

import (
	"net/http"
	"strings"

	"github.com/BradenHooton/denuncias/internal/auth"
	"github.com/BradenHooton/denuncias/internal/handlers"
	"github.com/BradenHooton/denuncias/internal/middleware"
	"github.com/BradenHooton/denuncias/internal/models"
	"github.com/BradenHooton/denuncias/internal/storage"
	"github.com/go-chi/chi/v5"
)

// Handlers groups the HTTP handlers mounted by RegisterRoutes
type Handlers struct {
	Auth       *handlers.AuthHandler
	Users      *handlers.UserHandler
	Complaints *handlers.ComplaintHandler
	Statistics *handlers.StatisticsHandler
}

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	h Handlers,
	tokenManager *auth.TokenManager,
	userRepo auth.UserRepository,
	uploadDir string,
) {
	authLimit := middleware.DefaultAuthRateLimit()
	complaintLimit := middleware.DefaultComplaintRateLimit()

	authenticated := auth.AuthMiddleware(tokenManager)
	citizenOnly := auth.RequireRole(userRepo, models.RoleCitizen)
	authorityOnly := auth.RequireRole(userRepo, models.RoleAuthority)

	router.Handle(storage.URLPrefix+"*", photoFileServer(uploadDir))

	router.Route("/auth", func(r chi.Router) {
		// Public routes - no authentication required
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(authLimit))
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
			r.Post("/google", h.Auth.GoogleLogin)
		})

		// Any authenticated user
		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Get("/profile", h.Auth.GetProfile)
			r.Put("/profile", h.Auth.UpdateProfile)
			r.Post("/change-password", h.Auth.ChangePassword)
		})
	})

	router.Route("/complaints", func(r chi.Router) {
		// Public reads
		r.Get("/", h.Complaints.ListAll)
		r.Get("/search", h.Complaints.Search)
		r.Get("/categoria/{category}", h.Complaints.ListByCategory)
		r.Get("/estado/{state}", h.Complaints.ListByState)
		r.Get("/{id}", h.Complaints.Get)
		r.Get("/{id}/seguimiento", h.Complaints.FollowUps)
		r.Get("/{id}/qr", h.Complaints.QRCode)

		// Citizen-only routes
		r.Group(func(r chi.Router) {
			r.Use(authenticated, citizenOnly)
			r.With(middleware.RateLimitByUser(complaintLimit)).Post("/", h.Complaints.Create)
			r.Get("/usuario/mis-denuncias", h.Complaints.ListMine)
			r.Delete("/{id}", h.Complaints.Delete)
		})

		// Authority-only routes
		r.Group(func(r chi.Router) {
			r.Use(authenticated, authorityOnly)
			r.Put("/{id}/estado", h.Complaints.Transition)
			r.Patch("/{id}/estado", h.Complaints.Transition)
		})
	})

	// Authority-only directory and statistics
	router.Group(func(r chi.Router) {
		r.Use(authenticated, authorityOnly)
		h.Users.RegisterRoutes(r)
		h.Statistics.RegisterRoutes(r)
	})
}

// photoFileServer serves stored photos without directory listings
func photoFileServer(dir string) http.Handler {
	fs := http.StripPrefix(storage.URLPrefix, http.FileServer(http.Dir(dir)))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		fs.ServeHTTP(w, r)
	})
}
