// Package courseplatform собирает HTTP API платформы: маршруты и запуск сервера.
package courseplatform

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/course-platform/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/course-platform/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/course-platform/internal/http/handlers/course/dashboard"
	"github.com/magabrotheeeer/course-platform/internal/http/handlers/course/lesson"
	"github.com/magabrotheeeer/course-platform/internal/http/handlers/course/list"
	"github.com/magabrotheeeer/course-platform/internal/http/handlers/course/progress"
	"github.com/magabrotheeeer/course-platform/internal/http/handlers/course/read"
	"github.com/magabrotheeeer/course-platform/internal/http/handlers/health"
	"github.com/magabrotheeeer/course-platform/internal/http/handlers/subscription/checkout"
	"github.com/magabrotheeeer/course-platform/internal/http/handlers/subscription/current"
	"github.com/magabrotheeeer/course-platform/internal/http/handlers/subscription/plans"
	"github.com/magabrotheeeer/course-platform/internal/http/handlers/subscription/webhook"
	"github.com/magabrotheeeer/course-platform/internal/http/middlewarectx"
	"github.com/magabrotheeeer/course-platform/internal/metrics"
	authservice "github.com/magabrotheeeer/course-platform/internal/services/auth"
	courseservice "github.com/magabrotheeeer/course-platform/internal/services/course"
	subservice "github.com/magabrotheeeer/course-platform/internal/services/subscription"
)

// Лимиты для чувствительных к перебору и платёжных маршрутов.
const (
	authRPS   rate.Limit = 1
	authBurst            = 5
)

// Deps зависимости обработчиков.
type Deps struct {
	Auth          *authservice.AuthService
	Subscriptions *subservice.SubscriptionService
	Courses       *courseservice.CourseService
	Tokens        middlewarectx.TokenParser
	Signatures    webhook.SignatureVerifier
	DB            health.Pinger
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		metrics.Middleware,
	)

	r.Get("/health", health.New(logger, deps.DB).ServeHTTP)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger, authRPS, authBurst))
			r.Post("/register", register.New(logger, deps.Auth).ServeHTTP)
			r.Post("/login", login.New(logger, deps.Auth).ServeHTTP)
		})
		r.Get("/plans", plans.New(logger, deps.Subscriptions).ServeHTTP)

		// Webhook шлюза (без JWT, опционально с проверкой подписи)
		r.Post("/payments/midtrans/notification",
			webhook.New(logger, deps.Subscriptions, deps.Signatures).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(deps.Tokens, logger))

			r.With(middlewarectx.RateLimitMiddleware(logger, authRPS, authBurst)).
				Post("/subscriptions", checkout.New(logger, deps.Subscriptions).ServeHTTP)
			r.Get("/subscription", current.New(logger, deps.Subscriptions).ServeHTTP)

			r.Get("/courses", list.New(logger, deps.Courses).ServeHTTP)
			r.Get("/courses/{slug}", read.New(logger, deps.Courses).ServeHTTP)
			r.Get("/courses/{slug}/lessons/{lessonSlug}", lesson.New(logger, deps.Courses).ServeHTTP)
			r.Put("/lessons/{id}/progress", progress.New(logger, deps.Courses).ServeHTTP)
			r.Get("/dashboard", dashboard.New(logger, deps.Courses).ServeHTTP)
		})
	})
}
