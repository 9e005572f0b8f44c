package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/ignite/campaign-sentinel/internal/api"
	"github.com/ignite/campaign-sentinel/internal/auth"
	"github.com/ignite/campaign-sentinel/internal/automation"
	"github.com/ignite/campaign-sentinel/internal/compliance"
	"github.com/ignite/campaign-sentinel/internal/config"
	"github.com/ignite/campaign-sentinel/internal/launch"
	"github.com/ignite/campaign-sentinel/internal/ledger"
	"github.com/ignite/campaign-sentinel/internal/pkg/distlock"
	"github.com/ignite/campaign-sentinel/internal/platform"
	"github.com/ignite/campaign-sentinel/internal/repository/postgres"
	"github.com/ignite/campaign-sentinel/internal/rules"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	configPath := "config/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		configPath = v
	}
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := checkPortAvailable(cfg.Server.Host, cfg.Server.Port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL
	if cfg.Database.URL == "" {
		log.Fatal("database url is required (database.url or DATABASE_URL)")
	}
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(3)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		pingCancel()
		log.Fatalf("Database ping failed: %v", err)
	}
	pingCancel()
	log.Println("PostgreSQL connected")

	// Redis: ledger atomics and distributed run locks live here. Locks fall
	// back to PG advisory locks when Redis is absent; the ledger cannot, so
	// automation runs fail closed without it.
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("Invalid redis url: %v", err)
		}
		redisClient = redis.NewClient(opts)
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			pingCancel()
			log.Fatalf("Redis ping failed: %v", err)
		}
		pingCancel()
		log.Printf("Redis connected: %s", cfg.Redis.URL)
	} else {
		log.Fatal("redis url is required (redis.url or REDIS_URL)")
	}

	// Compliance guard. A missing classifier is not fatal: the guard fails
	// closed and every check comes back BLOCKED_SOFT until Bedrock is up.
	var classifier compliance.Classifier
	if cfg.Bedrock.Enabled {
		bc, err := compliance.NewBedrockClassifier(ctx, cfg.Bedrock.ModelID, cfg.Compliance.PromptVersion, cfg.Bedrock.Region)
		if err != nil {
			log.Printf("Warning: Bedrock classifier init failed, compliance will fail closed: %v", err)
		} else {
			classifier = bc
			log.Printf("Bedrock classifier initialized (model: %s, region: %s)", cfg.Bedrock.ModelID, cfg.Bedrock.Region)
		}
	} else {
		log.Println("Bedrock classifier disabled, compliance will fail closed")
	}
	guard := compliance.NewGuard(classifier, cfg.Compliance, postgres.NewComplianceRepo(db))

	// Automation engine
	actionLedger := ledger.NewRedisLedger(redisClient)
	evaluator := rules.NewEvaluator(cfg.Automation.InefficiencyMultiplier)
	dispatcher := platform.NewDispatcher(cfg.Actuators)
	ruleRepo := postgres.NewRuleRepo(db)
	logRepo := postgres.NewLogRepo(db)
	engine := automation.NewEngine(actionLedger, evaluator, logRepo, dispatcher, ruleRepo, cfg.Automation)

	lockFactory := distlock.Factory(func(key string, ttl time.Duration) distlock.DistLock {
		return distlock.NewLock(redisClient, db, key, ttl)
	})
	runner := automation.NewRunner(engine, ruleRepo, postgres.NewSnapshotRepo(db), lockFactory, cfg.Automation)

	// Launch orchestrator
	launchRepo := postgres.NewLaunchRepo(db)
	orchestrator := launch.NewOrchestrator(
		launchRepo,
		guard,
		launch.NewPayloadTranslator(),
		postgres.NewPermissionRepo(db),
		nil,
		cfg.Launch,
	)

	// HTTP surface
	health := api.NewHealthChecker(db, redisClient)
	handlers := api.NewHandlers(runner, orchestrator, ruleRepo, logRepo, launchRepo, health)

	var authMW api.Middleware
	if cfg.Auth.Enabled {
		authMW = auth.NewMiddleware(cfg.Auth).Require
		log.Printf("Bearer auth enabled (%d tokens)", len(cfg.Auth.Tokens))
	} else {
		log.Println("Authentication disabled")
	}

	server := api.NewServer(cfg.Server, handlers, authMW)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	if cfg.Automation.KillSwitch {
		log.Println("NOTE: automation kill switch is ON, all automated actions are disabled")
	}
	log.Println("All services initialized, server is ready")

	<-done
	log.Println("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	redisClient.Close()
	db.Close()
	log.Println("Server stopped")
}
