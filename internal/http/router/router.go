package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/agora-forum/agora/internal/config"
	"github.com/agora-forum/agora/internal/health"
	"github.com/agora-forum/agora/internal/http/handler"
	"github.com/agora-forum/agora/internal/http/middleware"
	"github.com/agora-forum/agora/internal/http/response"
	"github.com/agora-forum/agora/internal/service"
)

// CSRFExemptPaths are reachable before a session exists. They are exempt
// from the double-submit check because no csrf cookie has been minted yet.
var CSRFExemptPaths = []string{
	"/api/v1/auth/login",
	"/api/v1/auth/refresh",
	"/api/v1/users",
	"/health/live",
	"/health/ready",
}

type Dependencies struct {
	Config         *config.Config
	AuthHandler    *handler.AuthHandler
	UserHandler    *handler.UserHandler
	PostHandler    *handler.PostHandler
	Validator      service.CredentialValidator
	CSRFGuard      *middleware.CSRFGuard
	Limiter        middleware.Limiter
	Resolver       *middleware.ClientIPResolver
	Readiness      *health.ProbeRunner
	EnableOTelHTTP bool
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.Config.CORSAllowedOrigins))
	r.Use(middleware.BodyLimit(1 << 20))

	classLimiter := func(class string) func(http.Handler) http.Handler {
		lc := dep.Config.LimiterFor(class)
		return middleware.NewRateLimiter(dep.Limiter, dep.Resolver, class, lc.MaxRequests, lc.Window, middleware.FailOpen).Middleware()
	}
	apiLimiter := classLimiter(config.LimitClassAPI)
	loginLimiter := classLimiter(config.LimitClassLogin)
	registerLimiter := classLimiter(config.LimitClassRegister)
	passwordLimiter := classLimiter(config.LimitClassPassword)
	withdrawLimiter := classLimiter(config.LimitClassWithdraw)
	writeLimiter := classLimiter(config.LimitClassWrite)

	requireAuth := middleware.AuthMiddleware(dep.Validator)

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apiLimiter)
		r.Use(dep.CSRFGuard.Middleware)

		r.Route("/auth", func(r chi.Router) {
			r.With(loginLimiter).Post("/login", dep.AuthHandler.Login)
			r.With(loginLimiter).Post("/refresh", dep.AuthHandler.Refresh)
			r.With(requireAuth).Post("/logout", dep.AuthHandler.Logout)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(registerLimiter).Post("/", dep.UserHandler.Register)

			r.Route("/me", func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/", dep.UserHandler.Me)
				r.Patch("/", dep.UserHandler.UpdateProfile)
				r.Patch("/email", dep.UserHandler.ChangeEmail)
				r.With(passwordLimiter).Post("/password", dep.UserHandler.ChangePassword)
				r.With(withdrawLimiter).Post("/withdraw", dep.UserHandler.Withdraw)
				// Avatar uploads carry image payloads past the global body cap.
				r.With(middleware.BodyLimit(6 << 20)).Post("/avatar", dep.UserHandler.UploadAvatar)
				r.Delete("/avatar", dep.UserHandler.DeleteAvatar)
			})
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", dep.PostHandler.List)
			r.Get("/{id}", dep.PostHandler.Get)
			r.Get("/{id}/comments", dep.PostHandler.ListComments)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Use(writeLimiter)
				r.Post("/", dep.PostHandler.Create)
				r.Patch("/{id}", dep.PostHandler.Update)
				r.Delete("/{id}", dep.PostHandler.Delete)
				r.Post("/{id}/comments", dep.PostHandler.AddComment)
				r.Post("/{id}/like", dep.PostHandler.ToggleLike)
			})
		})

		r.With(requireAuth, writeLimiter).Delete("/comments/{commentID}", dep.PostHandler.DeleteComment)
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
