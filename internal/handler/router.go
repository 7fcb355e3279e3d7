package handler

import (
	"context"
	"net/http"

	"library-client/internal/devapi"
	"library-client/internal/middleware"
	"library-client/internal/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig configures the development API router
type RouterConfig struct {
	Version        string
	AllowedOrigins []string
	// Validator is optional; nil disables OpenAPI request validation
	Validator *middleware.ValidatorConfig
	// RateLimit and RateBurst bound requests per client IP; zero disables limiting
	RateLimit float64
	RateBurst int

	LogRequests bool
}

// NewRouter wires the library REST API, the analytics endpoints, health
// checks and metrics. Background work started here stops when ctx is done.
func NewRouter(ctx context.Context, lib *devapi.Library, cfg RouterConfig) http.Handler {
	auth := NewAuthHandler(lib)
	catalog := NewCatalogHandler(lib)
	borrows := NewBorrowHandler(lib)
	reviews := NewReviewHandler(lib)
	notifications := NewNotificationHandler(lib)
	admin := NewAdminHandler(lib)
	analytics := NewAnalyticsHandler(lib)

	r := chi.NewRouter()

	if cfg.LogRequests {
		r.Use(chimiddleware.Logger)
	}
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestContext)
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.Metrics())
	if cfg.Validator != nil {
		r.Use(middleware.OpenAPIValidator(cfg.Validator))
	}

	r.Get("/health", Health(cfg.Version))
	r.Get("/health/ready", Ready(lib))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/analytics", func(r chi.Router) {
		r.Get("/borrowed-per-month", analytics.BorrowedPerMonth)
		r.Get("/top-books-by-borrowings", analytics.TopByBorrowings)
		r.Get("/top-books-by-ratings", analytics.TopByRatings)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not found.")
	})

	r.Route("/api", func(r chi.Router) {
		if cfg.RateLimit > 0 && cfg.RateBurst > 0 {
			r.Use(middleware.NewRateLimiter(ctx, cfg.RateLimit, cfg.RateBurst).Middleware())
		}

		r.Group(func(r chi.Router) {
			r.Post("/login/", auth.Login)
			r.Post("/signup/", auth.Signup)

			r.Get("/books/", catalog.ListBooks)
			r.Get("/books/top-rated/", catalog.TopRated)
			r.Get("/books/most-popular/", catalog.MostPopular)
			r.Get("/books/category/{id}/", catalog.BooksByCategory)
			r.Get("/books/{id}/", catalog.GetBook)
			r.Get("/search/", catalog.Search)
			r.Get("/categories/", catalog.ListCategories)
			r.Get("/stats/", catalog.Stats)

			r.Get("/reviews/", reviews.List)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.TokenAuth(lib))

			r.Get("/profile/", auth.Profile)

			r.Post("/borrow/{id}/", borrows.Borrow)
			r.Post("/return/{id}/", borrows.Return)
			r.Get("/user_borrowings/", borrows.Mine)

			r.Post("/reviews/", reviews.Create)
			r.Put("/reviews/{id}/", reviews.Update)
			r.Delete("/reviews/{id}/delete/", reviews.Delete)

			r.Get("/notifications/", notifications.List)
			r.Post("/notifications/mark_all_read/", notifications.MarkAllRead)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.TokenAuth(lib))
			r.Use(middleware.RequireAdmin)

			r.Get("/dashboard/", admin.Dashboard)
			r.Get("/books/", admin.ListBooks)
			r.Post("/books/", admin.CreateBook)
			r.Put("/books/{id}/", admin.UpdateBook)
			r.Delete("/books/{id}/", admin.DeleteBook)
			r.Get("/categories/", admin.ListCategories)
			r.Post("/categories/", admin.CreateCategory)
			r.Put("/categories/{id}/", admin.UpdateCategory)
			r.Delete("/categories/{id}/", admin.DeleteCategory)
			r.Get("/borrowings/", admin.ListBorrowings)
			r.Post("/borrowings/action/", admin.BorrowAction)
			r.Get("/reviews/", admin.ListReviews)
			r.Delete("/reviews/{id}/delete/", admin.DeleteReview)
		})
	})

	return r
}

// requestContext copies chi's request id into the logging context and echoes it back.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := chimiddleware.GetReqID(r.Context())
		if reqID != "" {
			w.Header().Set("X-Request-ID", reqID)
			r = r.WithContext(observability.WithRequestID(r.Context(), reqID))
		}
		next.ServeHTTP(w, r)
	})
}
