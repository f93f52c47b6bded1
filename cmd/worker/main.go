// Command worker runs the catalog import worker without the HTTP API, so imports
// can be scaled or restarted separately from the server.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

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
	log.Println("Import worker service starting...")
	cfg := config.Load()

	db, err := database.Connect(cfg.DBConnStr)
	if err != nil {
		log.Fatalf("Database: %v", err)
	}
	defer database.Close(db)

	rdb, err := queue.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Redis: %v", err)
	}
	defer queue.CloseRedis(rdb)

	// Imports must be exclusive across processes, so this binary always uses the Redis lock.
	locker := lock.NewRedisLocker(rdb, cfg.LockWaitTimeout)

	var referenceCache cache.Cache = cache.Nop{}
	if cfg.ReferenceCacheTTL > 0 {
		referenceCache = cache.NewRedisCache(rdb, cfg.ReferenceCacheTTL)
	}

	referenceRepo := repository.NewPgReferenceRepository(db)
	importQueue := queue.New(rdb, cfg.ImportQueueName)
	importJobService := service.NewImportJobService(
		repository.NewPgImportJobRepository(db),
		referenceRepo,
		service.NewReferenceService(referenceRepo, referenceCache),
		importQueue,
		database.NewTransactor(db),
	)
	importWorker := worker.NewImportWorker(importQueue, importJobService, locker, cfg.ImportLockKey,
		time.Duration(cfg.ImportLockTTLSeconds)*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	// Graceful shutdown on SIGINT or SIGTERM
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	wg.Add(1)
	go func() {
		defer wg.Done()
		importWorker.Start(ctx)
	}()

	<-sigs
	log.Println("Shutdown signal received.")
	cancel()

	// Wait for the current job to finish
	wg.Wait()
	log.Println("Worker exited cleanly.")
}
