package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aquaruse/laundrygo/internal/alerts"
	"github.com/aquaruse/laundrygo/internal/cache"
	"github.com/aquaruse/laundrygo/internal/config"
	"github.com/aquaruse/laundrygo/internal/database"
	"github.com/aquaruse/laundrygo/internal/gateway"
	"github.com/aquaruse/laundrygo/internal/handlers"
	"github.com/aquaruse/laundrygo/internal/inventory"
	"github.com/aquaruse/laundrygo/internal/notify"
	"github.com/aquaruse/laundrygo/internal/store"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize database (Detects Embedded vs External automatically)
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	// Note: db.Close() is called manually in shutdown handler below

	// 3. Durable store + schema
	log.Println("🚀 Synchronizing database schema...")
	st := store.New(db)
	if err := st.Migrate(); err != nil {
		log.Printf("⚠️ Migration warning: %v\n", err)
	} else {
		log.Println("✅ Schema synchronized successfully")
	}

	// 4. Remote gateway with connectivity monitoring and offline replay
	gw := gateway.New(cfg.Remote.BaseURL, st, cfg.Remote.HealthInterval, cfg.Remote.RequestTimeout)
	gw.Start()

	// Surface background supply push outcomes instead of dropping them
	go func() {
		for result := range gw.PushResults() {
			if result.Err != nil {
				log.Printf("⚠️ Supply push failed for %s: %v", result.Supply, result.Err)
			}
		}
	}()

	// 5. Hydrate the entity cache (remote first, local fallback)
	entityCache := cache.New(st, gw, gw)
	if err := entityCache.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize entity cache: %v", err)
	}
	log.Println("✅ Entity cache initialized")

	engine := inventory.NewEngine(entityCache)

	throttle := notify.NewThrottle(st)

	hub := alerts.NewHub()
	go hub.Run()

	// Periodic stock sweep so dashboards hear about drift without an order
	sweeper := notify.NewSweeper(entityCache, throttle, func(eventType, title, message string) {
		hub.Broadcast(alerts.NewEvent(eventType, title, message))
	}, 30*time.Minute)
	sweeper.Start()

	// 6. Set up HTTP router
	router := handlers.NewRouter(cfg, entityCache, engine, gw, throttle, hub)

	// 7. Start server with graceful shutdown
	port := cfg.Port
	if port == "" {
		port = "3310"
	}

	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		log.Printf("🚀 Server starting on port %s [env: %s, instance: %s]\n", port, cfg.NodeEnv, cfg.InstanceID)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	sig := <-shutdown
	log.Printf("\n⚠️  Received signal: %v. Shutting down gracefully...\n", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	sweeper.Stop()
	gw.Stop()

	// Best-effort final persist so nothing typed in the last moments is lost
	if err := entityCache.Persist(); err != nil {
		log.Printf("⚠️ Final persist failed: %v", err)
	}

	log.Println("🛑 Closing database connection...")
	if err := db.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
