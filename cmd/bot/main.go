package main

import (
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"media.share/config"
	"media.share/internal/access"
	"media.share/internal/api"
	"media.share/internal/bot"
	"media.share/internal/share"
	"media.share/internal/store"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("config error:", err)
	}

	st := initStore(cfg)
	defer st.Close()

	policy := access.New(cfg.Telegram.OwnerID, st)
	service := share.New(st, policy, cfg.Links.MaxTTL)

	b, err := bot.New(cfg.Telegram.Token, service)
	if err != nil {
		log.Fatal("bot error:", err)
	}

	router := api.SetupRouter(b)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Addr())
	log.Printf("Store: %s", cfg.Store.Type)
	log.Printf("Owner: %d", cfg.Telegram.OwnerID)

	if cfg.Telegram.WebhookURL != "" {
		if err := b.RegisterWebhook(cfg.Telegram.WebhookURL); err != nil {
			log.Fatal("webhook registration failed:", err)
		}
		log.Printf("Webhook registered at %s", cfg.Telegram.WebhookURL)
		log.Fatal(server.ListenAndServe())
	}

	// Long polling for local runs; the server still serves health and metrics.
	go func() {
		if err := server.ListenAndServe(); err != nil {
			log.Fatalf("Failed to start web server: %v", err)
		}
	}()
	b.Start()
}

func initStore(cfg *config.Config) store.Store {
	switch cfg.Store.Type {
	case "redis":
		st, err := store.NewRedisStore(&redis.Options{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		})
		if err != nil {
			log.Fatal("redis connection failed:", err)
		}
		return st
	case "postgres":
		st, err := store.NewPostgresStore(cfg.Store.Postgres.URL)
		if err != nil {
			log.Fatal("postgres connection failed:", err)
		}
		return st
	default:
		return store.NewMemoryStore(cfg.Links.CleanupInterval)
	}
}
