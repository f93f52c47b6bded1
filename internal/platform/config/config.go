package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	LockBackendRedis = "redis"
	LockBackendLocal = "local"
)

type Config struct {
	APIPort string

	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBSslMode      string
	DBConnStr      string
	DBMigrateOnRun bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ImportQueueName      string
	ImportLockKey        string
	ImportLockTTLSeconds int
	ImportWorkerInProc   bool

	LockBackend             string
	ApplicantLockTTLSeconds int
	LockWaitTimeout         time.Duration

	ReferenceCacheTTL time.Duration
}

// Load reads .env (when present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		APIPort:                 getEnv("API_PORT", "8080"),
		DBHost:                  getEnv("DB_HOST", "localhost"),
		DBPort:                  getEnv("DB_PORT", "5432"),
		DBUser:                  getEnv("DB_USER", "user"),
		DBPassword:              getEnv("DB_PASSWORD", "password"),
		DBName:                  getEnv("DB_NAME", "prof_match_db"),
		DBSslMode:               getEnv("DB_SSLMODE", "disable"),
		DBMigrateOnRun:          getEnvAsBool("DB_MIGRATE_ON_START", true),
		RedisAddr:               getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:           getEnv("REDIS_PASSWORD", ""),
		RedisDB:                 getEnvAsInt("REDIS_DB", 0),
		ImportQueueName:         getEnv("IMPORT_QUEUE_NAME", "catalog_import_queue"),
		ImportLockKey:           getEnv("IMPORT_LOCK_KEY", "catalog_import_lock"),
		ImportLockTTLSeconds:    getEnvAsInt("IMPORT_LOCK_TTL_SECONDS", 300),
		ImportWorkerInProc:      getEnvAsBool("IMPORT_WORKER_IN_PROCESS", true),
		LockBackend:             getEnv("LOCK_BACKEND", LockBackendRedis),
		ApplicantLockTTLSeconds: getEnvAsInt("APPLICANT_LOCK_TTL_SECONDS", 30),
		LockWaitTimeout:         time.Duration(getEnvAsInt("LOCK_WAIT_TIMEOUT_MS", 5000)) * time.Millisecond,
		ReferenceCacheTTL:       time.Duration(getEnvAsInt("REFERENCE_CACHE_TTL_SECONDS", 600)) * time.Second,
	}

	cfg.DBConnStr = "host=" + cfg.DBHost +
		" port=" + cfg.DBPort +
		" user=" + cfg.DBUser +
		" password=" + cfg.DBPassword +
		" dbname=" + cfg.DBName +
		" sslmode=" + cfg.DBSslMode

	return cfg
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}
