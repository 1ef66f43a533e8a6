package main

import (
	"pos-dispatch/internal/jwt"
	"pos-dispatch/internal/middleware"
)

func (a *AppContext) setupRoutes() {
	r := a.Router

	// ── Global Middleware (outermost → innermost) ──
	r.Use(middleware.Logger())                 // 1. Request logging
	r.Use(middleware.Recovery())               // 2. Panic recovery
	r.Use(middleware.RateLimit(a.RateLimiter)) // 3. Per-IP rate limiting
	r.Use(middleware.Auth(a.JWTService))       // 4. JWT auth (skips /session, /health)

	// ── Health (no auth) ──
	r.GET("/health", a.healthCheck)

	// ── Session (no role guard) ──
	r.POST("/session", a.AuthHandler.CreateSession)

	// ── Driver Routes (role: driver) ──
	driverGroup := r.Group("/driver")
	driverGroup.Use(middleware.RoleGuard(jwt.RoleDriver))
	{
		// Position reports get their own bulkhead pool (high frequency)
		location := driverGroup.Group("")
		location.Use(middleware.Bulkhead(a.Config.Bulkhead.LocationPool))
		{
			location.POST("/location", a.DriverHandler.ReportPosition)
			location.POST("/location/stopped", a.DriverHandler.StopTracking)
		}

		// Read-only views polled by the reconciler
		driverGroup.GET("/orders/available", a.DispatchHandler.ListAvailable)
		driverGroup.GET("/orders/mine", a.DispatchHandler.ListMine)

		// Mutations get the mutation pool
		mutations := driverGroup.Group("")
		mutations.Use(middleware.Bulkhead(a.Config.Bulkhead.MutationPool))
		mutations.Use(middleware.Idempotency(a.IdempotencyStore))
		{
			mutations.POST("/orders/:id/claim", a.DispatchHandler.Claim)
			mutations.PATCH("/orders/:id/status", a.DispatchHandler.SetStatus)
		}
	}

	// ── Board Routes (role: staff) ──
	boardGroup := r.Group("/board")
	boardGroup.Use(middleware.RoleGuard(jwt.RoleStaff))
	boardGroup.Use(middleware.Bulkhead(a.Config.Bulkhead.BoardPool))
	boardGroup.Use(middleware.CircuitBreaker(a.Config.CircuitBreaker.FailureThreshold, a.Config.CircuitBreaker.CooldownSeconds))
	{
		boardGroup.POST("/orders", a.BoardHandler.CreateOrder)
		boardGroup.GET("/orders", a.BoardHandler.ListOrders)
		boardGroup.GET("/drivers", a.BoardHandler.ListDrivers)
		boardGroup.GET("/drivers/:id/position", a.DriverHandler.GetPosition)
		boardGroup.PATCH("/orders/:id/complete", a.BoardHandler.CompleteOrder)
		boardGroup.PATCH("/orders/:id/cancel", a.BoardHandler.CancelOrder)
	}
}
