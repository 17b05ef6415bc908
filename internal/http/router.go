package http

import (
	"context"
	"time"

	"github.com/adeolu/servicehub/internal/auth"
	"github.com/adeolu/servicehub/internal/cache"
	"github.com/adeolu/servicehub/internal/config"
	"github.com/adeolu/servicehub/internal/http/handlers"
	"github.com/adeolu/servicehub/internal/http/middlewares"
	"github.com/adeolu/servicehub/internal/observability"
	"github.com/adeolu/servicehub/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func NewRouter(
	cfg config.Config,
	pool *pgxpool.Pool,
	jwtManager *auth.Manager,
	store cache.Store,
	prom *observability.Prom,
	reg *prometheus.Registry,
) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("servicehub-api"))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(1 << 20))
	r.Use(middlewares.RequireJSON())

	if prom != nil {
		r.Use(prom.GinHandleMiddleware())
	}

	// health
	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	// wire up repositories
	usersRepo := postgres.NewUsersRepo(pool, prom)
	servicesRepo := postgres.NewServicesRepo(pool, prom)
	bookingsRepo := postgres.NewBookingsRepo(pool, prom)

	// wire up handlers
	health := handlers.NewHealthHandler(ping)
	authHandler := handlers.NewAuthHandler(usersRepo, jwtManager)
	servicesHandler := handlers.NewServicesHandler(servicesRepo, usersRepo, store, prom)
	bookingsHandler := handlers.NewBookingsHandler(bookingsRepo, usersRepo, servicesRepo)

	authMw := middlewares.NewAuthMiddleware(jwtManager)

	publicLimiter := middlewares.NewRateLimiter(30, time.Minute)
	authedLimiter := middlewares.NewRateLimiter(120, time.Minute)

	r.GET("/", health.Root)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if reg != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	// public surface
	r.POST("/register", publicLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Register)
	r.POST("/login", publicLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Login)
	r.GET("/allservices", servicesHandler.ListServices)
	r.GET("/featuredservices", servicesHandler.FeaturedServices)
	r.GET("/services/:id", servicesHandler.GetServiceByID)

	// everything below requires a verified bearer token
	protected := r.Group("/")
	protected.Use(authMw.RequireAuth())
	protected.Use(authedLimiter.RateLimiterMiddleware(middlewares.KeyByEmailOrIP))

	protected.GET("/me", authHandler.Me)
	protected.POST("/addservice", servicesHandler.AddService)
	protected.GET("/myservices", servicesHandler.MyServices)
	protected.PATCH("/services/:id", servicesHandler.UpdateService)
	protected.DELETE("/services/:id", servicesHandler.DeleteService)

	protected.POST("/bookservice", bookingsHandler.BookService)
	protected.GET("/mybookings", bookingsHandler.MyBookings)
	protected.GET("/servicetodo", bookingsHandler.ServiceTodo)
	protected.PUT("/updatestatus/:id", bookingsHandler.UpdateStatus)

	return r
}
