package http

import (
	"time"

	"ton_shooter/internal/http/handlers"
	"ton_shooter/internal/http/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Limit is a request budget per window.
type Limit struct {
	Max    int
	Window time.Duration
}

type RouteConfig struct {
	API  Limit // per IP, every /api route
	Auth Limit // per IP, on top of API
	Game Limit // per account, shot endpoints
}

// Deps is everything the router needs.
type Deps struct {
	Handler *handlers.Handler
	Health  *handlers.HealthHandler
	Limiter *middleware.RateLimiter
	Tokens  middleware.TokenParser
	Limits  RouteConfig
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.Use(middleware.RequestLog(), middleware.Metrics())

	// Health checks (no rate limiting)
	r.GET("/health", d.Health.Health)
	r.GET("/healthz", d.Health.Liveness)
	r.GET("/readyz", d.Health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	v1.Use(d.Limiter.ByIP("api", d.Limits.API.Max, d.Limits.API.Window))
	registerAPIRoutes(v1, d)

	// Legacy /api routes, same handlers as v1
	api := r.Group("/api")
	api.Use(d.Limiter.ByIP("api", d.Limits.API.Max, d.Limits.API.Window))
	api.GET("/health", d.Health.Health)
	registerAPIRoutes(api, d)
}

func registerAPIRoutes(api *gin.RouterGroup, d Deps) {
	h := d.Handler
	auth := middleware.JWT(d.Tokens)

	// Auth
	api.POST("/auth/telegram", d.Limiter.ByIP("auth", d.Limits.Auth.Max, d.Limits.Auth.Window), h.Auth)

	// Public economy constants for the client
	api.GET("/economy", h.EconomyInfo)

	me := api.Group("", auth)
	{
		me.GET("/me", h.Me)
		me.GET("/profile/referral", h.Referral)
		me.POST("/ton/wallet/set", h.SetWallet)

		// Shooting, limited per account
		shot := me.Group("/shot", d.Limiter.PerAccount("shot", d.Limits.Game.Max, d.Limits.Game.Window))
		shot.POST("/start", h.ShotStart)
		shot.POST("/fire", h.ShotFire)

		me.POST("/upgrade", h.Upgrade)
		me.POST("/exchange", h.Exchange)
		me.POST("/boost/buy", h.BuyBoost)

		me.GET("/tasks", h.ListTasks)
		me.POST("/tasks/open", h.OpenTask)
		me.POST("/tasks/claim", h.ClaimTask)

		me.POST("/withdraw", h.Withdraw)
		me.GET("/withdrawals", h.WithdrawHistory)

		ton := me.Group("/ton/purchase")
		ton.POST("/intent", h.PurchaseIntent)
		ton.POST("/confirm", h.PurchaseConfirm)
		ton.POST("/mock", h.PurchaseMock)
	}

	admin := api.Group("/admin", auth, middleware.Admin(h.Accounts.IsAdmin))
	{
		admin.POST("/energy/fill", h.AdminFillEnergy)
		admin.POST("/grant", h.AdminGrant)
		admin.GET("/tasks", h.AdminTasks)
		admin.POST("/tasks/create", h.AdminCreateTask)
		admin.POST("/tasks/deactivate", h.AdminSetTaskActive)
	}
}
