package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/malwarebo/dealhub/api"
	"github.com/malwarebo/dealhub/cache"
	"github.com/malwarebo/dealhub/config"
	"github.com/malwarebo/dealhub/db"
	"github.com/malwarebo/dealhub/ids"
	"github.com/malwarebo/dealhub/lock"
	"github.com/malwarebo/dealhub/middleware"
	"github.com/malwarebo/dealhub/services"
	"github.com/malwarebo/dealhub/stores"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorPurple = "\033[35m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

func printBanner() {
	fmt.Printf("%s%s", colorCyan, colorBold)
	fmt.Println("╔══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                                                              ║")
	fmt.Println("║  🎟  DealHub Flash-Sale Platform                              ║")
	fmt.Println("║                                                              ║")
	fmt.Println("║  Cache-aside catalog + seckill order admission               ║")
	fmt.Println("║                                                              ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════╝")
	fmt.Printf("%s", colorReset)
}

func printStep(step, message string) {
	fmt.Printf("%s[%s]%s %s%s%s\n", colorBlue, step, colorReset, colorBold, message, colorReset)
}

func printSuccess(message string) {
	fmt.Printf("%s✓%s %s\n", colorGreen, colorReset, message)
}

func printWarning(message string) {
	fmt.Printf("%s⚠%s %s\n", colorYellow, colorReset, message)
}

func printError(message string) {
	fmt.Printf("%s✗%s %s\n", colorRed, colorReset, message)
}

func printInfo(message string) {
	fmt.Printf("%sℹ%s %s\n", colorCyan, colorReset, message)
}

func main() {
	printBanner()
	fmt.Println()

	printStep("1/8", "Loading configuration...")
	cfg, err := config.LoadConfig()
	if err != nil {
		printError(fmt.Sprintf("Failed to load configuration: %v", err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		printError(fmt.Sprintf("Configuration validation failed: %v", err))
		os.Exit(1)
	}
	printSuccess("Configuration loaded")

	printStep("2/8", "Connecting to database...")
	database, err := db.Connect(cfg.GetDatabaseURL(), db.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.MaxLifetime,
		ConnMaxIdleTime: cfg.Database.MaxIdleTime,
	})
	if err != nil {
		printError(fmt.Sprintf("Failed to connect to database: %v", err))
		os.Exit(1)
	}
	defer db.Close(database)
	printSuccess(fmt.Sprintf("Connected to PostgreSQL at %s:%d", cfg.Database.Host, cfg.Database.Port))

	printStep("3/8", "Running migrations...")
	if err := db.DefaultMigrator(database).Up(); err != nil {
		printError(fmt.Sprintf("Migrations failed: %v", err))
		os.Exit(1)
	}
	printSuccess("Schema up to date")

	printStep("4/8", "Connecting to Redis...")
	kv, err := cache.NewRedisCache(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		TTL:      cfg.Redis.TTL,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		printError(fmt.Sprintf("Failed to connect to Redis: %v", err))
		os.Exit(1)
	}
	defer kv.Close()
	printSuccess(fmt.Sprintf("Connected to Redis at %s:%d", cfg.Redis.Host, cfg.Redis.Port))

	printStep("5/8", "Initializing cache-aside layer...")
	locker := lock.NewRedisLock(kv.Client())
	rebuilds := cache.NewRebuildPool(cfg.Cache.RebuildWorkers, cfg.Cache.RebuildQueue)
	defer rebuilds.Close()
	cacheClient := cache.NewClient(kv, locker, rebuilds, cache.Options{
		NullTTL: cfg.Cache.NullTTL,
		LockTTL: cfg.Cache.LockTTL,
	})
	idWorker := ids.NewWorker(kv)
	printSuccess("Cache-aside layer ready")

	printStep("6/8", "Initializing stores and services...")
	shopStore := stores.NewShopStore(database)
	voucherStore := stores.NewVoucherStore(database)
	orderStore := stores.NewOrderStore(database)
	userStore := stores.NewUserStore(database)

	shopService := services.NewShopService(shopStore, cacheClient, kv, cfg.Cache.ShopTTL, cfg.Cache.ShopTypeTTL)
	voucherService := services.NewVoucherService(voucherStore, cacheClient, cfg.Cache.ShopTTL)
	seckillService := services.NewSeckillService(voucherStore, orderStore, locker, idWorker, services.SeckillConfig{
		GateTTL:     cfg.Seckill.GateTTL,
		GateRetries: cfg.Seckill.GateRetries,
		GateBackoff: cfg.Seckill.GateBackoff,
	})
	userService := services.NewUserService(userStore, kv, cfg.Security.TokenTTL, cfg.Security.CodeTTL)
	printSuccess("Services initialized")

	printStep("7/8", "Setting up HTTP server...")
	shopHandler := api.NewShopHandler(shopService)
	voucherHandler := api.NewVoucherHandler(voucherService)
	orderHandler := api.NewOrderHandler(seckillService)
	userHandler := api.NewUserHandler(userService)

	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.CORSMiddleware)
	router.Use(middleware.RecoveryMiddleware)
	if cfg.Security.RateLimitEnabled {
		router.Use(middleware.RateLimitMiddleware(cfg.Security.RateLimitRPS, cfg.Security.RateLimitBurst))
	}
	router.Use(middleware.TokenRefreshMiddleware(userService))

	apiRouter := router.PathPrefix("/api/v1").Subrouter()

	apiRouter.HandleFunc("/health", api.HealthCheckHandler).Methods("GET")
	apiRouter.HandleFunc("/stats/cache", api.CacheStatsHandler(cacheClient)).Methods("GET")

	apiRouter.HandleFunc("/users/code", userHandler.HandleSendCode).Methods("POST")
	apiRouter.HandleFunc("/users/login", userHandler.HandleLogin).Methods("POST")

	apiRouter.HandleFunc("/shops/{id:[0-9]+}", shopHandler.HandleGet).Methods("GET")
	apiRouter.HandleFunc("/shop-types", shopHandler.HandleListTypes).Methods("GET")
	apiRouter.HandleFunc("/vouchers/{id:[0-9]+}", voucherHandler.HandleGet).Methods("GET")
	apiRouter.HandleFunc("/vouchers/{id:[0-9]+}/seckill", voucherHandler.HandleGetSeckill).Methods("GET")

	authRouter := apiRouter.NewRoute().Subrouter()
	authRouter.Use(middleware.RequireLoginMiddleware)
	if cfg.Security.RateLimitEnabled {
		perClient := middleware.NewPerClientRateLimit(cfg.Security.RateLimitRPS, cfg.Security.RateLimitBurst)
		authRouter.Use(perClient.Middleware)
	}
	authRouter.HandleFunc("/users/me", userHandler.HandleMe).Methods("GET")
	authRouter.HandleFunc("/users/logout", userHandler.HandleLogout).Methods("POST")
	authRouter.HandleFunc("/shops/{id:[0-9]+}", shopHandler.HandleUpdate).Methods("PUT")
	authRouter.HandleFunc("/vouchers/seckill", voucherHandler.HandleCreateSeckill).Methods("POST")
	authRouter.HandleFunc("/vouchers/{id:[0-9]+}/orders", orderHandler.HandlePlaceSeckillOrder).Methods("POST")
	authRouter.HandleFunc("/orders", orderHandler.HandleList).Methods("GET")
	authRouter.HandleFunc("/orders/{id:[0-9]+}", orderHandler.HandleGet).Methods("GET")

	server := &http.Server{
		Addr:           ":" + cfg.Server.Port,
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}
	printSuccess("HTTP server configured")

	printStep("8/8", "Starting...")
	fmt.Println()
	fmt.Printf("%s%s🎉 DealHub is ready!%s\n", colorGreen, colorBold, colorReset)
	fmt.Println()
	fmt.Printf("%s%sAPI Endpoints:%s\n", colorPurple, colorBold, colorReset)
	fmt.Printf("  %s•%s Health:      %shttp://localhost:%s/api/v1/health%s\n", colorCyan, colorReset, colorYellow, cfg.Server.Port, colorReset)
	fmt.Printf("  %s•%s Login:       %shttp://localhost:%s/api/v1/users/login%s\n", colorCyan, colorReset, colorYellow, cfg.Server.Port, colorReset)
	fmt.Printf("  %s•%s Shops:       %shttp://localhost:%s/api/v1/shops/{id}%s\n", colorCyan, colorReset, colorYellow, cfg.Server.Port, colorReset)
	fmt.Printf("  %s•%s Seckill:     %shttp://localhost:%s/api/v1/vouchers/{id}/orders%s\n", colorCyan, colorReset, colorYellow, cfg.Server.Port, colorReset)
	fmt.Println()
	fmt.Printf("%s%sEnvironment:%s %s%s%s\n", colorPurple, colorBold, colorReset, colorYellow, cfg.Environment, colorReset)
	fmt.Printf("%s%sServer Port:%s %s%s%s\n", colorPurple, colorBold, colorReset, colorYellow, cfg.Server.Port, colorReset)
	fmt.Println()
	fmt.Printf("%s%sPress Ctrl+C to stop the server%s\n", colorYellow, colorBold, colorReset)
	fmt.Println()

	go func() {
		printInfo(fmt.Sprintf("Starting HTTP server on port %s...", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			printError(fmt.Sprintf("Server failed to start: %v", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println()
	printWarning("Shutting down DealHub server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		printError(fmt.Sprintf("Server forced to shutdown: %v", err))
		os.Exit(1)
	}

	printSuccess("Server stopped cleanly")
}
