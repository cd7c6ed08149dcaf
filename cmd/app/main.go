package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ton_shooter/internal/bot"
	"ton_shooter/internal/config"
	"ton_shooter/internal/db"
	"ton_shooter/internal/domain"
	"ton_shooter/internal/game"
	httpServer "ton_shooter/internal/http"
	"ton_shooter/internal/http/handlers"
	"ton_shooter/internal/http/middleware"
	"ton_shooter/internal/logger"
	"ton_shooter/internal/repository"
	"ton_shooter/internal/service"
	"ton_shooter/internal/telegram"
	"ton_shooter/internal/ton"

	"github.com/gin-gonic/gin"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	dbPool := db.MustConnect(cfg.DatabaseURL)
	defer dbPool.Close()
	store := repository.NewStore(dbPool)

	rules := cfg.Rules()
	guard := service.NewGuard(store, cfg.AntibotPolicy())
	tokens := service.NewTokens(cfg.JWTSecret, cfg.JWTTTL)

	accounts := service.NewAccountService(store, tokens, rules, service.AuthConfig{
		BotToken:    cfg.BotToken,
		BotUsername: cfg.BotUsername,
		InitDataTTL: cfg.InitDataMaxAge,
		AdminTgIDs:  cfg.AdminTelegramIDs,
		DevBypass:   cfg.DevMode,
	})
	admin := service.NewAdminService(store, rules)
	withdrawals := service.NewWithdrawService(store, guard, rules)

	h := &handlers.Handler{
		Accounts: accounts,
		Game:     service.NewGameService(store, guard, rules, game.CryptoRand{}),
		Economy:  service.NewEconomyService(store, guard, rules),
		Tasks:    service.NewTaskService(store, guard, telegram.NewMemberChecker(cfg.BotToken), rules),
		Purchases: service.NewPurchaseService(store, guard, ton.NewClient(cfg.Network(), cfg.TonCenterAPIKey), rules, service.PurchaseConfig{
			Receiver:  cfg.TonReceiverAddress,
			Network:   cfg.Network(),
			AllowMock: cfg.AllowMockTon,
		}),
		Withdrawals: withdrawals,
		Admin:       admin,
	}

	limiter := middleware.NewRateLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer limiter.Close()

	var cache handlers.Pinger
	if rdb := limiter.Redis(); rdb != nil {
		cache = handlers.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	// Admin bot is optional
	var adminBot *bot.AdminBot
	if cfg.AdminBotEnabled {
		b, err := bot.NewAdminBot(cfg.BotToken, admin, cfg.AdminTelegramIDs)
		if err != nil {
			logger.Error("admin bot disabled", "error", err)
		} else {
			adminBot = b
			withdrawals.OnCreated = func(w domain.Withdrawal) { go adminBot.NotifyAdminsNewWithdrawal(w) }
			go adminBot.Start()
		}
	}

	if !cfg.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	// CORS for production (frontend on different domain)
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	httpServer.RegisterRoutes(r, httpServer.Deps{
		Handler: h,
		Health:  handlers.NewHealthHandler(store, cache, version),
		Limiter: limiter,
		Tokens:  tokens,
		Limits: httpServer.RouteConfig{
			API:  httpServer.Limit{Max: cfg.APIRateLimit, Window: cfg.APIWindow()},
			Auth: httpServer.Limit{Max: cfg.AuthRateLimit, Window: cfg.AuthWindow()},
			Game: httpServer.Limit{Max: cfg.GameRateLimit, Window: cfg.GameWindow()},
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "version", version, "network", cfg.TonNetwork)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	if adminBot != nil {
		adminBot.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
