package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"

	"pos-dispatch/config"
	"pos-dispatch/internal/auth"
	"pos-dispatch/internal/board"
	"pos-dispatch/internal/dispatch"
	"pos-dispatch/internal/driver"
	"pos-dispatch/internal/geo"
	"pos-dispatch/internal/jwt"
	"pos-dispatch/internal/order"
	"pos-dispatch/internal/redis"
	pgmigrate "pos-dispatch/internal/repo/postgres"
)

type AppContext struct {
	DB     *sqlx.DB
	Config *config.Config
	Redis  *goredis.Client
	Router *gin.Engine

	// Infrastructure
	JWTService       *jwt.Service
	DriverCache      *redis.DriverPositionCache
	IdempotencyStore *redis.IdempotencyStore
	RateLimiter      *redis.RateLimiter

	AuthHandler     *auth.Handler
	DispatchHandler *dispatch.Handler
	DriverHandler   *driver.Handler
	BoardHandler    *board.Handler

	DispatchService dispatch.Service
	DriverService   driver.Service
	BoardService    board.Service

	OrderRepo  order.Repository
	DriverRepo driver.Repository
}

func wireApp(cfg *config.Config) (*AppContext, error) {
	// ── Postgres ──
	db, err := pgmigrate.Connect(cfg.Postgres.DSN(), pgmigrate.DefaultPoolConfig())
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	if err := pgmigrate.RunMigrationsUp(db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	// ── Redis ──
	var rdb *goredis.Client
	if cfg.Redis.URL != "" {
		opts, err := goredis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("redis parse url: %w", err)
		}
		rdb = goredis.NewClient(opts)
	} else {
		rdb = goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	// ── Infrastructure ──
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.ExpiryHours)
	driverCache := redis.NewDriverPositionCache(rdb, cfg.Tracking.LocationCacheTTLSec)
	idempotencyStore := redis.NewIdempotencyStore(rdb, cfg.Tracking.IdempotencyTTLSec)
	rateLimiter := redis.NewRateLimiter(rdb, cfg.RateLimiter.MaxRequests, cfg.RateLimiter.WindowSeconds)

	filter := geo.NewFilter(
		cfg.Tracking.AccuracyThresholdM,
		geo.NewPoint(cfg.Area.CenterLat, cfg.Area.CenterLng),
		cfg.Area.RadiusM,
	)

	// ── Repositories ──
	orderRepo := order.NewRepository()
	driverRepo := driver.NewRepository()

	// ── Services ──
	dispatchService := dispatch.NewService(orderRepo, db)
	driverService := driver.NewService(driverRepo, db, driverCache, filter)
	boardService := board.NewService(orderRepo, driverRepo, driverCache, db)
	authService := auth.NewAuthService(jwtService)

	// ── Handlers ──
	authHandler := auth.NewHandler(authService)
	dispatchHandler := dispatch.NewHandler(dispatchService)
	driverHandler := driver.NewHandler(driverService)
	boardHandler := board.NewHandler(boardService)

	return &AppContext{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		Router: gin.Default(),

		JWTService:       jwtService,
		DriverCache:      driverCache,
		IdempotencyStore: idempotencyStore,
		RateLimiter:      rateLimiter,

		OrderRepo:  orderRepo,
		DriverRepo: driverRepo,

		DispatchService: dispatchService,
		DriverService:   driverService,
		BoardService:    boardService,

		AuthHandler:     authHandler,
		DispatchHandler: dispatchHandler,
		DriverHandler:   driverHandler,
		BoardHandler:    boardHandler,
	}, nil
}

func (a *AppContext) Close() {
	a.DB.Close()
	a.Redis.Close()
}

func (a *AppContext) healthCheck(c *gin.Context) {
	ctx := c.Request.Context()
	checks := map[string]string{}
	healthy := true

	if err := a.DB.PingContext(ctx); err != nil {
		checks["postgres"] = err.Error()
		healthy = false
	} else {
		checks["postgres"] = "ok"
	}

	if err := a.Redis.Ping(ctx).Err(); err != nil {
		checks["redis"] = err.Error()
		healthy = false
	} else {
		checks["redis"] = "ok"
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status": checks,
		"pool":   pgmigrate.GetPoolMetrics(a.DB),
	})
}
