package main // Entry point package

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/workshop-job-tracker/internal/config"
	"github.com/iliyamo/workshop-job-tracker/internal/database"
	"github.com/iliyamo/workshop-job-tracker/internal/handler"
	"github.com/iliyamo/workshop-job-tracker/internal/middleware"
	"github.com/iliyamo/workshop-job-tracker/internal/queue"
	"github.com/iliyamo/workshop-job-tracker/internal/repository"
	"github.com/iliyamo/workshop-job-tracker/internal/router"
	queuepub "github.com/iliyamo/workshop-job-tracker/internal/service"
	"github.com/iliyamo/workshop-job-tracker/internal/workflow"
)

func main() {
	// .env is a convenience for local runs; in deployment the variables
	// come from the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("schema: %v", err)
	}
	if err := database.Seed(ctx, db, cfg.BcryptCost, cfg.SeedDemoData); err != nil {
		log.Fatalf("seed: %v", err)
	}

	// Repositories over the shared pool.
	userRepo := repository.NewUserRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	customerRepo := repository.NewCustomerRepo(db)
	vehicleRepo := repository.NewVehicleRepo(db)
	statusRepo := repository.NewJobStatusRepo(db)
	jobRepo := repository.NewRepairJobRepo(db)
	noteRepo := repository.NewJobNoteRepo(db)
	dir := repository.NewDirectory(db)

	if n, err := tokenRepo.DeleteExpired(ctx, time.Now().UTC()); err != nil {
		log.Printf("token cleanup: %v", err)
	} else if n > 0 {
		log.Printf("purged %d expired refresh tokens", n)
	}

	jobs := workflow.NewController(jobRepo, noteRepo, dir, queuepub.Publisher{})

	authH := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
	userH := handler.NewUserHandler(cfg, userRepo, roleRepo)
	customerH := handler.NewCustomerHandler(customerRepo)
	vehicleH := handler.NewVehicleHandler(vehicleRepo, customerRepo)
	statusH := handler.NewJobStatusHandler(statusRepo)
	jobH := handler.NewJobHandler(jobs)
	noteH := handler.NewNoteHandler(jobs)

	e := echo.New()

	// Redis backs both the global token bucket rate limiter and the
	// response cache on hot read routes. Both degrade to pass-through
	// when Redis is unreachable.
	rdb := config.NewRedisClient()
	rlCfg := config.LoadRateLimitConfig()
	var cacheList echo.MiddlewareFunc
	if rdb != nil {
		cacheCfg := config.LoadCacheConfig()
		e.Use(middleware.NewTokenBucket(rlCfg, rdb))
		cacheList = middleware.NewRedisCache(cacheCfg, rdb)
		// Admin mutations to the catalogue drop the cached list so reads
		// never serve a stale status set for a full TTL.
		statusH.Invalidate = func(ctx context.Context) {
			if err := middleware.InvalidateCache(ctx, cacheCfg, rdb, http.MethodGet, "/v1/job-statuses", ""); err != nil {
				log.Printf("cache invalidate: %v", err)
			}
		}
	}

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterStaff(e, jobH, noteH, statusH, cfg.JWTSecret, cacheList)
	router.RegisterAdmin(e, userH, customerH, vehicleH, statusH, jobH, cfg.JWTSecret)

	// Status change events are consumed in-process and appended to the
	// job log file. The consumer reconnects on broker failure.
	go func() {
		if err := queue.StartStatusConsumer(); err != nil {
			log.Printf("queue consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
