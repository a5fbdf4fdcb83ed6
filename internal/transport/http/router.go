package http

import (
	"net/http"

	"github.com/donkcry/B--Blog/internal/application/account"
	"github.com/donkcry/B--Blog/internal/application/blog"
	"github.com/donkcry/B--Blog/internal/application/credential"
	"github.com/donkcry/B--Blog/internal/application/profile"
	"github.com/donkcry/B--Blog/internal/application/session"
	"github.com/donkcry/B--Blog/internal/application/verification"
	"github.com/donkcry/B--Blog/internal/config"
	"github.com/donkcry/B--Blog/internal/infrastructure/dynamo"
	jwtinfra "github.com/donkcry/B--Blog/internal/infrastructure/jwt"
	s3infra "github.com/donkcry/B--Blog/internal/infrastructure/s3"
	"github.com/donkcry/B--Blog/internal/infrastructure/smtp"
	"github.com/donkcry/B--Blog/internal/infrastructure/sns"
	"github.com/donkcry/B--Blog/internal/transport/http/handler"
	appmiddleware "github.com/donkcry/B--Blog/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	AccountRepo  *dynamo.AccountRepo
	SessionRepo  *dynamo.SessionRepo
	CodeRepo     *dynamo.CodeRepo
	BlogRepo     *dynamo.BlogRepo
	CategoryRepo *dynamo.CategoryRepo
	CommentRepo  *dynamo.CommentRepo
	FileRepo     *dynamo.FileRepo
	S3Store      *s3infra.Store
	Mailer       smtp.Mailer
	Events       sns.EventPublisher
	JWTProvider  *jwtinfra.Provider
}

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

	var authMw, optionalAuthMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
		optionalAuthMw = appmiddleware.OptionalAuth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
		optionalAuthMw = authMw
	}

	// 5 requests/second, burst of 10, applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	verifySvc := verification.NewService(deps.CodeRepo, deps.Mailer)
	validator := credential.NewValidator(deps.AccountRepo, verifySvc, cfg.AllowedEmailDomains)
	accountSvc := account.NewService(account.ServiceDeps{
		AccountRepo: deps.AccountRepo,
		SessionRepo: deps.SessionRepo,
		Verifier:    verifySvc,
		Validator:   validator,
		Events:      deps.Events,
	})
	sessionSvc := session.NewService(deps.SessionRepo, deps.AccountRepo, deps.JWTProvider, cfg.SessionExpiry, cfg.RememberExpiry)
	blogSvc := blog.NewService(deps.BlogRepo, deps.CategoryRepo, deps.CommentRepo)
	profileSvc := profile.NewService(deps.BlogRepo, deps.CommentRepo, deps.FileRepo, deps.AccountRepo, deps.S3Store)

	healthH := handler.NewHealthHandler()
	codeH := handler.NewCodeHandler(accountSvc)
	accountH := handler.NewAccountHandler(accountSvc, sessionSvc)
	sessionH := handler.NewSessionHandler(accountSvc, sessionSvc)
	blogH := handler.NewBlogHandler(blogSvc)
	profileH := handler.NewProfileHandler(profileSvc, accountSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)
		r.With(optionalAuthMw, sensitiveRL.Limit).Post("/codes/send", codeH.Send)
		r.With(sensitiveRL.Limit).Post("/codes/verify", codeH.Verify)
		r.With(sensitiveRL.Limit).Post("/accounts", accountH.Register)
		r.With(sensitiveRL.Limit).Post("/accounts/reset-password", accountH.ResetPassword)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)
		r.Post("/sessions/refresh", sessionH.Refresh)

		r.Get("/blogs", blogH.List)
		r.Get("/blogs/search", blogH.Search)
		r.Get("/blogs/{id}", blogH.Get)
		r.Get("/categories", blogH.Categories)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/sessions", sessionH.GetCurrent)
			r.Post("/sessions/logout", sessionH.Logout)

			r.Post("/accounts/change-password", accountH.ChangePassword)
			r.Post("/accounts/change-email", accountH.ChangeEmail)
			r.Post("/accounts/delete", accountH.Delete)

			r.Post("/blogs", blogH.Create)
			r.Post("/blogs/{id}/comments", blogH.Comment)

			r.Get("/profile", profileH.Browse)
			r.Put("/profile", profileH.Update)
			r.Post("/profile/avatar", profileH.UploadAvatar)
		})
	})

	return r
}
