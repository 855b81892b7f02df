package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	fileapp "github.com/jobboard-api/internal/application/file"
	jobapp "github.com/jobboard-api/internal/application/job"
	"github.com/jobboard-api/internal/application/notification"
	"github.com/jobboard-api/internal/application/user"
	"github.com/jobboard-api/internal/application/verification"
	"github.com/jobboard-api/internal/config"
	"github.com/jobboard-api/internal/domain"
	"github.com/jobboard-api/internal/transport/http/handler"
	appmiddleware "github.com/jobboard-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		// No signing keys: every protected route rejects.
		authMw = func(http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, `{"error":"authentication not configured"}`, http.StatusServiceUnavailable)
			})
		}
	}

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	userDeps := user.ServiceDeps{UserRepo: deps.UserRepo}
	if deps.JWTProvider != nil {
		userDeps.JWTProvider = deps.JWTProvider
	}
	userSvc := user.NewService(userDeps)
	verificationSvc := verification.NewService(verification.ServiceDeps{
		OTPRepo:  deps.OTPRepo,
		UserRepo: deps.UserRepo,
		Mailer:   deps.Mailer,
		Expiry:   cfg.OTPExpiry,
	})
	fileDeps := fileapp.ServiceDeps{
		FileRepo:  deps.FileRepo,
		MaxBytes:  cfg.MaxUploadBytes,
		URLExpiry: cfg.SignedURLExpiry,
	}
	if deps.S3Store != nil {
		fileDeps.Objects = deps.S3Store
	}
	fileSvc := fileapp.NewService(fileDeps)
	jobSvc := jobapp.NewService(jobapp.ServiceDeps{
		CompanyRepo:      deps.CompanyRepo,
		JobRepo:          deps.JobRepo,
		ApplicationRepo:  deps.ApplicationRepo,
		NotificationRepo: deps.NotificationRepo,
		Events:           deps.Events,
	})
	notifSvc := notification.NewService(deps.NotificationRepo)

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(userSvc)
	userH := handler.NewUserHandler(userSvc)
	verifyH := handler.NewEmailVerificationHandler(verificationSvc)
	fileH := handler.NewFileHandler(fileSvc, cfg.MaxUploadBytes)
	jobH := handler.NewJobHandler(jobSvc)
	notifH := handler.NewNotificationHandler(notifSvc)

	verifiedMw := appmiddleware.RequireVerified(deps.UserRepo)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health", healthH.Check)
		r.With(sensitiveRL.Limit).Post("/auth/register", authH.Register)
		r.With(sensitiveRL.Limit).Post("/auth/login", authH.Login)
		r.With(sensitiveRL.Limit).Post("/auth/send-otp", verifyH.Send)
		r.With(sensitiveRL.Limit).Post("/auth/verify-otp", verifyH.Verify)
		r.With(sensitiveRL.Limit).Post("/auth/resend-otp", verifyH.Resend)

		r.Get("/jobs", jobH.ListJobs)
		r.Get("/jobs/{id}", jobH.GetJob)
		r.Get("/companies", jobH.ListCompanies)
		r.Get("/companies/{id}", jobH.GetCompany)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/auth/me", authH.Me)
			r.Post("/auth/change-password", authH.ChangePassword)

			r.Get("/users/{id}", userH.Get)
			r.Put("/users/{id}", userH.Update)
			r.Delete("/users/{id}", userH.Delete)

			r.Get("/notifications", notifH.ListUnread)
			r.Put("/notifications/{id}", notifH.MarkAsRead)

			r.Put("/companies/{id}", jobH.UpdateCompany)
			r.Put("/jobs/{id}", jobH.UpdateJob)
			r.Delete("/jobs/{id}", jobH.DeleteJob)
			r.Get("/jobs/{id}/applications", jobH.ListJobApplications)
			r.Get("/applications/me", jobH.ListMyApplications)
			r.Put("/applications/{id}", jobH.UpdateApplication)

			// Company accounts (and admins) manage postings.
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleCompany, domain.RoleAdmin))

				r.Post("/companies", jobH.CreateCompany)
				r.Post("/jobs", jobH.CreateJob)
			})

			// Verified email required to apply and to manage files.
			r.Group(func(r chi.Router) {
				r.Use(verifiedMw)

				r.Post("/jobs/{id}/apply", jobH.Apply)
				r.Post("/files", fileH.Upload)
				r.Get("/files", fileH.List)
				r.Get("/files/{id}", fileH.Get)
				r.Get("/files/{id}/download", fileH.Download)
				r.Put("/files/{id}", fileH.Update)
				r.Delete("/files/{id}", fileH.Delete)
			})

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Get("/users", userH.List)
			})
		})
	})

	return r
}
