package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/growthbench/planforge/internal/agentapi"
	"github.com/growthbench/planforge/internal/api"
	"github.com/growthbench/planforge/internal/config"
	"github.com/growthbench/planforge/internal/domain"
	"github.com/growthbench/planforge/internal/gate"
	"github.com/growthbench/planforge/internal/generation"
	"github.com/growthbench/planforge/internal/jobs"
	"github.com/growthbench/planforge/internal/pkg/distlock"
	"github.com/growthbench/planforge/internal/pkg/logger"
	"github.com/growthbench/planforge/internal/repository/memory"
	"github.com/growthbench/planforge/internal/repository/postgres"
	"github.com/growthbench/planforge/internal/vendors"
)

// checkPortAvailable verifies that the target port is not already in use,
// so a stale process doesn't silently answer our traffic.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

func applyLogConfig(cfg config.LoggingConfig) {
	switch strings.ToLower(cfg.Level) {
	case "debug":
		logger.SetLevel(logger.DEBUG)
	case "warn":
		logger.SetLevel(logger.WARN)
	case "error":
		logger.SetLevel(logger.ERROR)
	}
	if cfg.RedactPII != nil {
		logger.SetRedactPII(*cfg.RedactPII)
	}
}

func main() {
	log.Println("planforge server starting (cmd/server/main.go)")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	applyLogConfig(cfg.Logging)

	host := cfg.Server.Host
	port := cfg.Server.GetPort()
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}
	log.Printf("Pre-flight check passed: port %d is available", port)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Persistence: Postgres when configured, in-memory otherwise.
	var (
		planStore generation.PlanStore
		leadSink  gate.LeadSink
		db        *sql.DB
	)
	if cfg.Database.URL != "" {
		db, err = sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := db.PingContext(pingCtx); err != nil {
			cancel()
			log.Fatalf("Database unreachable: %v", err)
		}
		cancel()
		planStore = postgres.NewPlanRepo(db)
		leadSink = postgres.NewLeadRepo(db)
		log.Println("Connected to PostgreSQL")
	} else {
		planStore = memory.NewPlanStore()
		log.Println("No database configured, plans held in memory")
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			log.Fatalf("Redis unreachable: %v", err)
		}
		cancel()
		log.Println("Connected to Redis")
	}

	// Generation backend: hosted agent service, or Bedrock when enabled.
	var backend agentapi.Backend
	if cfg.Bedrock.Enabled {
		b, err := agentapi.NewBedrockBackend(ctx, cfg.Bedrock.ModelID)
		if err != nil {
			log.Fatalf("Failed to initialize Bedrock backend: %v", err)
		}
		backend = b
	} else {
		backend = agentapi.NewClient(agentapi.Config{
			BaseURL:        cfg.Agent.BaseURL,
			APIKey:         cfg.Agent.APIKey,
			AgentID:        cfg.Agent.AgentID,
			RequestTimeout: time.Duration(cfg.Agent.RequestTimeout) * time.Second,
		})
	}

	orch := generation.New(generation.Config{
		PollInterval:     cfg.Generation.PollInterval(),
		MaxAttempts:      cfg.Generation.MaxAttempts,
		QuickMaxAttempts: cfg.Generation.QuickMaxAttempts,
	}, planStore, backend)
	if redisClient != nil {
		orch.SetLockFactory(func(key string) distlock.DistLock {
			return distlock.NewLock(redisClient, db, key, 15*time.Minute)
		})
	}

	var unlockStore gate.UnlockStore = gate.NewMemoryStore()
	if redisClient != nil {
		unlockStore = gate.NewRedisStore(redisClient, 30*24*time.Hour)
	}
	gateSvc := gate.NewService(gate.Config{
		Mode:               domain.GateMode(cfg.Gate.Mode),
		BlockFreeProviders: cfg.Gate.BlockFreeProviders,
	}, unlockStore, gate.NewCollector(cfg.Gate.CollectorURL, cfg.Gate.QueueLimit), leadSink)

	var jobStore jobs.Store = jobs.NewMemoryStore(0)
	if redisClient != nil {
		jobStore = jobs.NewRedisStore(redisClient, 0)
	}

	catalog, err := vendors.LoadCatalog()
	if err != nil {
		log.Fatalf("Failed to load vendor catalog: %v", err)
	}

	srv := api.NewServer(api.Config{
		APIKeys:        cfg.Server.APIKeyList(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      cfg.Server.RateLimit,
		RateWindow:     cfg.Server.RateWindow(),
		SyncWait:       cfg.Server.SyncWait(),
		PublicBaseURL:  cfg.Server.PublicBaseURL,
	}, gateSvc, orch, jobStore, catalog)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Listening on %s", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	if db != nil {
		db.Close()
	}
	if redisClient != nil {
		redisClient.Close()
	}
	log.Println("Server stopped")
}
