package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"prof_match/internal/api"
	"prof_match/internal/app/service"
	"prof_match/internal/app/worker"
	"prof_match/internal/domain/repository"
	"prof_match/internal/platform/cache"
	"prof_match/internal/platform/config"
	"prof_match/internal/platform/database"
	"prof_match/internal/platform/lock"
	"prof_match/internal/platform/queue"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	fmt.Println("Configuration loaded.")

	// 2. Initialize Database
	db, err := database.Connect(cfg.DBConnStr)
	if err != nil {
		log.Fatalf("Database: %v", err)
	}
	defer database.Close(db)
	fmt.Println("Database connected.")

	if cfg.DBMigrateOnRun {
		if err := database.RunMigrations(context.Background(), db); err != nil {
			log.Fatalf("Migrations: %v", err)
		}
	}

	// 3. Initialize Redis
	rdb, err := queue.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Redis: %v", err)
	}
	defer queue.CloseRedis(rdb)
	fmt.Println("Redis connected.")

	var locker lock.Locker
	switch cfg.LockBackend {
	case config.LockBackendLocal:
		locker = lock.NewLocal(cfg.LockWaitTimeout)
	case config.LockBackendRedis:
		locker = lock.NewRedisLocker(rdb, cfg.LockWaitTimeout)
	default:
		log.Fatalf("Unknown LOCK_BACKEND %q (want %s or %s)", cfg.LockBackend, config.LockBackendRedis, config.LockBackendLocal)
	}

	var referenceCache cache.Cache = cache.Nop{}
	if cfg.ReferenceCacheTTL > 0 {
		referenceCache = cache.NewRedisCache(rdb, cfg.ReferenceCacheTTL)
	}

	// 4. Initialize Repositories
	applicantRepo := repository.NewPgApplicantRepository(db)
	referenceRepo := repository.NewPgReferenceRepository(db)
	importJobRepo := repository.NewPgImportJobRepository(db)
	transactor := database.NewTransactor(db)
	importQueue := queue.New(rdb, cfg.ImportQueueName)

	// 5. Initialize Services
	applicantLockTTL := time.Duration(cfg.ApplicantLockTTLSeconds) * time.Second
	applicantService := service.NewApplicantService(applicantRepo, referenceRepo, locker, transactor, applicantLockTTL)
	resultService := service.NewResultService(applicantRepo, referenceRepo, locker, transactor, applicantLockTTL)
	referenceService := service.NewReferenceService(referenceRepo, referenceCache)
	importJobService := service.NewImportJobService(importJobRepo, referenceRepo, referenceService, importQueue, transactor)

	// 6. Initialize Import Worker (as a goroutine, unless cmd/worker runs it)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	workerDone := make(chan struct{})
	if cfg.ImportWorkerInProc {
		importLockTTL := time.Duration(cfg.ImportLockTTLSeconds) * time.Second
		importWorker := worker.NewImportWorker(importQueue, importJobService, locker, cfg.ImportLockKey, importLockTTL)
		go func() {
			importWorker.Start(workerCtx)
			close(workerDone)
		}()
		fmt.Println("Import worker started.")
	} else {
		close(workerDone)
	}

	// 7. Initialize Router & HTTP Server
	router := api.NewRouter(applicantService, resultService, referenceService, importJobService)

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 8. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", cfg.APIPort, err)
		}
	}()
	log.Println("Server started successfully.")

	<-stop // Wait for interrupt signal

	log.Println("Shutting down server...")
	workerCancel() // Signal worker to stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: Server shutdown failed: %v", err)
	}

	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		log.Println("WARN: Import worker did not stop in time.")
	}

	log.Println("Server and worker stopped gracefully.")
}
