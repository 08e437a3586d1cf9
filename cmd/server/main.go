package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"blog/internal/config"
	"blog/internal/db"
	"blog/internal/events"
	"blog/internal/models"
	"blog/internal/ratelimit"
	"blog/internal/server"
	"blog/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracing(ctx, telemetry.TracingConfig{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.ServiceName,
		Env:         cfg.Env,
		SampleRatio: cfg.SampleRatio,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(c)
	}()

	database, err := db.Open(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close(database)
	if cfg.OTLPEndpoint != "" {
		if err := telemetry.TraceDB(database); err != nil {
			log.Fatalf("gorm tracing: %v", err)
		}
	}
	store := models.NewStore(database)

	var limiter *ratelimit.Limiter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis ping: %v", err)
		}
		defer rdb.Close()
		limiter = ratelimit.New(rdb, cfg.CommentRateLimit, cfg.CommentRateWindow)
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic)
	}
	defer publisher.Close()

	srv, err := server.New(store, server.Options{
		TemplateDir: cfg.TemplateDir,
		StaticDir:   cfg.StaticDir,
		SessionTTL:  cfg.SessionTTL,
		Limiter:     limiter,
		Events:      publisher,
		Metrics:     telemetry.NewMetrics(),
	})
	if err != nil {
		log.Fatal(err)
	}

	go purgeSessions(ctx, store)

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           otelhttp.NewHandler(srv, "http.server"),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}
	go func() {
		log.Printf("listening on %s", cfg.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Print("shutting down")
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(c); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func purgeSessions(ctx context.Context, store *models.Store) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.PurgeExpiredSessions(ctx, time.Now().UTC())
			if err != nil {
				log.Printf("purge sessions: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("purged %d sessions", n)
			}
		}
	}
}
