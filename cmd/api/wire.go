package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/isolele/isolele-backend/api/routes"
	"github.com/isolele/isolele-backend/internal/articles"
	"github.com/isolele/isolele-backend/internal/auth"
	"github.com/isolele/isolele-backend/internal/cart"
	"github.com/isolele/isolele-backend/internal/characters"
	"github.com/isolele/isolele-backend/internal/checkout"
	"github.com/isolele/isolele-backend/internal/checkout/payment"
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
	"github.com/isolele/isolele-backend/pkg/db"
	"github.com/isolele/isolele-backend/pkg/enums"
	"github.com/isolele/isolele-backend/pkg/logger"
	"github.com/isolele/isolele-backend/pkg/metrics"
	"github.com/isolele/isolele-backend/pkg/redis"
)

type app struct {
	deps     routes.Deps
	checkout *checkout.Registry
}

func buildApp(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, sessions *session.Manager, reg *prometheus.Registry) (*app, error) {
	conn := dbClient.DB()
	policy := cart.PolicyFromConfig(cfg.Shipping)

	profileRepo := profiles.NewRepository(conn)
	productRepo := products.NewRepository(conn)
	articleRepo := articles.NewRepository(conn)
	characterRepo := characters.NewRepository(conn)
	mediaRepo := media.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)
	subscriberRepo := newsletter.NewRepository(conn)
	settingRepo := settings.NewRepository(conn)

	authSvc, err := auth.NewService(auth.ServiceParams{
		Profiles:       profileRepo,
		SessionManager: sessions,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}
	profileSvc, err := profiles.NewService(profileRepo, cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("profiles service: %w", err)
	}
	productSvc, err := products.NewService(productRepo)
	if err != nil {
		return nil, fmt.Errorf("products service: %w", err)
	}
	articleSvc, err := articles.NewService(articleRepo)
	if err != nil {
		return nil, fmt.Errorf("articles service: %w", err)
	}
	characterSvc, err := characters.NewService(characterRepo)
	if err != nil {
		return nil, fmt.Errorf("characters service: %w", err)
	}
	mediaSvc, err := media.NewService(mediaRepo)
	if err != nil {
		return nil, fmt.Errorf("media service: %w", err)
	}
	orderSvc, err := orders.NewService(orderRepo, policy)
	if err != nil {
		return nil, fmt.Errorf("orders service: %w", err)
	}
	newsletterSvc, err := newsletter.NewService(subscriberRepo)
	if err != nil {
		return nil, fmt.Errorf("newsletter service: %w", err)
	}
	settingsSvc, err := settings.NewService(settingRepo)
	if err != nil {
		return nil, fmt.Errorf("settings service: %w", err)
	}

	statsSvc, err := stats.NewService(
		stats.Total(productRepo),
		stats.Where("products_active", productRepo, map[string]any{"is_active": true}),
		stats.Total(articleRepo),
		stats.Where("articles_published", articleRepo, map[string]any{"status": enums.ArticleStatusPublished}),
		stats.Total(characterRepo),
		stats.Total(mediaRepo),
		stats.Total(orderRepo),
		stats.Where("orders_pending", orderRepo, map[string]any{"status": enums.OrderStatusPending}),
		stats.Total(subscriberRepo),
		stats.Total(profileRepo),
	)
	if err != nil {
		return nil, fmt.Errorf("stats service: %w", err)
	}

	reindexSvc, err := reindex.NewService(cfg.App, cfg.Reindex, logg, metrics.NewReindexMetrics(reg))
	if err != nil {
		return nil, fmt.Errorf("reindex service: %w", err)
	}

	cartStore, err := cart.NewRedisStore(redisClient, cfg.Cart.TTL)
	if err != nil {
		return nil, fmt.Errorf("cart store: %w", err)
	}
	cartSvc, err := cart.NewService(cart.ServiceParams{
		Store:    cartStore,
		Products: productSvc,
		Policy:   policy,
		Logger:   logg,
	})
	if err != nil {
		return nil, fmt.Errorf("cart service: %w", err)
	}

	registry, err := checkout.NewRegistry(checkout.MachineParams{
		Cart:           cartSvc,
		Processor:      payment.NewSimulator(cfg.Checkout),
		Scheduler:      checkout.SystemScheduler(),
		Logger:         logg,
		Metrics:        metrics.NewCheckoutMetrics(reg),
		ResetDelay:     cfg.Checkout.SuccessResetDelay,
		PaymentTimeout: cfg.Checkout.PaymentTimeout,
	}, checkout.WithIdleTTL(cfg.Cart.TTL))
	if err != nil {
		return nil, fmt.Errorf("checkout registry: %w", err)
	}

	return &app{
		deps: routes.Deps{
			Config:     cfg,
			Logger:     logg,
			DB:         dbClient,
			Redis:      redisClient,
			Sessions:   sessions,
			Metrics:    reg,
			Auth:       authSvc,
			Profiles:   profileSvc,
			Products:   productSvc,
			Articles:   articleSvc,
			Characters: characterSvc,
			Media:      mediaSvc,
			Orders:     orderSvc,
			Newsletter: newsletterSvc,
			Settings:   settingsSvc,
			Stats:      statsSvc,
			Reindex:    reindexSvc,
			Cart:       cartSvc,
			Checkout:   registry,
		},
		checkout: registry,
	}, nil
}
