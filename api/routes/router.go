package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/isolele/isolele-backend/api/controllers"
	"github.com/isolele/isolele-backend/api/middleware"
	"github.com/isolele/isolele-backend/internal/articles"
	"github.com/isolele/isolele-backend/internal/auth"
	"github.com/isolele/isolele-backend/internal/cart"
	"github.com/isolele/isolele-backend/internal/characters"
	"github.com/isolele/isolele-backend/internal/media"
	"github.com/isolele/isolele-backend/internal/newsletter"
	"github.com/isolele/isolele-backend/internal/orders"
	products "github.com/isolele/isolele-backend/internal/products"
	"github.com/isolele/isolele-backend/internal/profiles"
	"github.com/isolele/isolele-backend/internal/reindex"
	"github.com/isolele/isolele-backend/internal/settings"
	"github.com/isolele/isolele-backend/internal/stats"
	"github.com/isolele/isolele-backend/pkg/auth/session"
	"github.com/isolele/isolele-backend/pkg/config"
	"github.com/isolele/isolele-backend/pkg/enums"
	"github.com/isolele/isolele-backend/pkg/logger"
	pkgredis "github.com/isolele/isolele-backend/pkg/redis"
)

// RedisStore is the redis surface the HTTP layer needs.
type RedisStore interface {
	pkgredis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Ping(ctx context.Context) error
}

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    RedisStore
	Sessions session.AccessSessionChecker
	Metrics  prometheus.Gatherer

	Auth       auth.Service
	Profiles   profiles.Service
	Products   products.Service
	Articles   articles.Service
	Characters characters.Service
	Media      media.Service
	Orders     orders.Service
	Newsletter newsletter.Service
	Settings   settings.Service
	Stats      stats.Service
	Reindex    reindex.Service
	Cart       cart.Service
	Checkout   controllers.CheckoutMachines
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	authParams := middleware.AuthParams{
		JWT:        cfg.JWT,
		CookieName: cfg.Session.CookieName,
		Sessions:   d.Sessions,
		Logger:     logg,
	}
	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	idempotent := middleware.Idempotency(d.Redis, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    d.DB,
			"redis": d.Redis,
		}))
	})
	if d.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", controllers.PublicListProducts(d.Products, logg))
		r.Get("/products/{slug}", controllers.PublicGetProduct(d.Products, logg))
		r.Get("/articles", controllers.PublicListArticles(d.Articles, logg))
		r.Get("/articles/{slug}", controllers.PublicGetArticle(d.Articles, logg))
		r.Get("/characters", controllers.PublicListCharacters(d.Characters, logg))
		r.Get("/characters/{slug}", controllers.PublicGetCharacter(d.Characters, logg))
		r.Get("/settings/public", controllers.PublicSettings(d.Settings, logg))
		r.Post("/newsletter", controllers.NewsletterSubscribe(d.Newsletter, logg))

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, d.Redis, logg)).Post("/login", controllers.AuthLogin(d.Auth, cfg.Session, logg))
			r.With(middleware.OptionalAuth(authParams)).Post("/logout", controllers.AuthLogout(d.Auth, cfg.Session, logg))
			r.With(middleware.Auth(authParams)).Get("/me", controllers.AuthMe(d.Auth, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.CartToken(middleware.CartCookie{
				Name:   cfg.Cart.CookieName,
				TTL:    cfg.Cart.TTL,
				Domain: cfg.Session.CookieDomain,
				Secure: cfg.Session.CookieSecure,
			}, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(d.Cart, logg))
				r.Delete("/", controllers.CartClear(d.Cart, logg))
				r.Post("/items", controllers.CartAddItem(d.Cart, logg))
				r.Put("/items/{productId}", controllers.CartUpdateItem(d.Cart, logg))
				r.Delete("/items/{productId}", controllers.CartRemoveItem(d.Cart, logg))
				r.Post("/panel", controllers.CartSetPanel(d.Cart, logg))
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Get("/", controllers.CheckoutGet(d.Checkout, logg))
				r.Post("/open", controllers.CheckoutOpen(d.Checkout, logg))
				r.Post("/method", controllers.CheckoutSelectMethod(d.Checkout, logg))
				r.Put("/card", controllers.CheckoutUpdateCard(d.Checkout, logg))
				r.With(idempotent).Post("/submit", controllers.CheckoutSubmit(d.Checkout, logg))
				r.Post("/retry", controllers.CheckoutRetry(d.Checkout, logg))
				r.Post("/cancel", controllers.CheckoutCancel(d.Checkout, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(authParams))
		r.Use(middleware.RequireRole(logg, enums.ProfileRoleAdmin, enums.ProfileRoleEditor))

		r.Get("/stats", controllers.AdminDashboard(d.Stats, logg))
		r.Post("/reindex", controllers.AdminReindex(d.Reindex, logg))

		r.Route("/articles", func(r chi.Router) {
			r.Get("/", controllers.AdminListArticles(d.Articles, logg))
			r.Post("/", controllers.AdminCreateArticle(d.Articles, logg))
			r.Get("/{id}", controllers.AdminGetArticle(d.Articles, logg))
			r.Patch("/{id}", controllers.AdminUpdateArticle(d.Articles, logg))
			r.Delete("/{id}", controllers.AdminDeleteArticle(d.Articles, logg))
		})
		r.Route("/characters", func(r chi.Router) {
			r.Get("/", controllers.AdminListCharacters(d.Characters, logg))
			r.Post("/", controllers.AdminCreateCharacter(d.Characters, logg))
			r.Get("/{id}", controllers.AdminGetCharacter(d.Characters, logg))
			r.Patch("/{id}", controllers.AdminUpdateCharacter(d.Characters, logg))
			r.Delete("/{id}", controllers.AdminDeleteCharacter(d.Characters, logg))
		})
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminListProducts(d.Products, logg))
			r.Post("/", controllers.AdminCreateProduct(d.Products, logg))
			r.Get("/{id}", controllers.AdminGetProduct(d.Products, logg))
			r.Patch("/{id}", controllers.AdminUpdateProduct(d.Products, logg))
			r.Delete("/{id}", controllers.AdminDeleteProduct(d.Products, logg))
		})
		r.Route("/media", func(r chi.Router) {
			r.Get("/", controllers.AdminListMedia(d.Media, logg))
			r.Post("/", controllers.AdminCreateMedia(d.Media, logg))
			r.Get("/{id}", controllers.AdminGetMedia(d.Media, logg))
			r.Patch("/{id}", controllers.AdminUpdateMedia(d.Media, logg))
			r.Delete("/{id}", controllers.AdminDeleteMedia(d.Media, logg))
		})
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminListOrders(d.Orders, logg))
			r.With(idempotent).Post("/", controllers.AdminCreateOrder(d.Orders, logg))
			r.Get("/{id}", controllers.AdminGetOrder(d.Orders, logg))
			r.Patch("/{id}/status", controllers.AdminUpdateOrderStatus(d.Orders, logg))
		})
		r.Route("/newsletter", func(r chi.Router) {
			r.Get("/", controllers.AdminListSubscribers(d.Newsletter, logg))
			r.Get("/count", controllers.AdminCountSubscribers(d.Newsletter, logg))
			r.Delete("/{id}", controllers.AdminDeleteSubscriber(d.Newsletter, logg))
		})
		r.Route("/settings", func(r chi.Router) {
			r.Get("/", controllers.AdminListSettings(d.Settings, logg))
			r.Put("/{key}", controllers.AdminUpsertSetting(d.Settings, logg))
			r.Delete("/{key}", controllers.AdminDeleteSetting(d.Settings, logg))
		})
		r.Route("/profiles", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.ProfileRoleAdmin))
			r.Get("/", controllers.AdminListProfiles(d.Profiles, logg))
			r.Post("/", controllers.AdminCreateProfile(d.Profiles, logg))
			r.Get("/{id}", controllers.AdminGetProfile(d.Profiles, logg))
			r.Patch("/{id}", controllers.AdminUpdateProfile(d.Profiles, logg))
			r.Delete("/{id}", controllers.AdminDeleteProfile(d.Profiles, logg))
		})
	})

	return r
}
