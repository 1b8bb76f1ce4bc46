package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration, read from the environment. A .env
// file in the working directory is loaded first when present.
type Config struct {
	Port     string
	DBPath   string
	LogLevel string
	Env      string // dev|prod

	// Balance policy: gate current-period reporting behind a cleared prior
	// balance (the chore-oriented variant of the summary).
	RequirePriorBalanceCleared bool

	// Push notifications (disabled when keys are empty).
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	PushSubscriber  string

	// S3-compatible storage for chore proof photos (disabled when empty).
	S3Endpoint  string
	S3Bucket    string
	S3Region    string
	S3AccessKey string
	S3SecretKey string

	// Job scheduling.
	CarryOverInterval time.Duration
	ReportWeekday     time.Weekday
	ReportHour        int
}

func Load() (*Config, error) {
	// Ignore a missing .env; real deployments set the environment directly.
	_ = godotenv.Load()

	carryOver, err := getenvDuration("HOMEBASE_CARRYOVER_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	weekday, err := getenvInt("HOMEBASE_REPORT_WEEKDAY", int(time.Monday))
	if err != nil {
		return nil, err
	}
	hour, err := getenvInt("HOMEBASE_REPORT_HOUR", 8)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:                       getenv("HOMEBASE_PORT", "8080"),
		DBPath:                     getenv("HOMEBASE_DB_PATH", "homebase.db"),
		LogLevel:                   getenv("HOMEBASE_LOG_LEVEL", "info"),
		Env:                        getenv("HOMEBASE_ENV", "dev"),
		RequirePriorBalanceCleared: getenvBool("HOMEBASE_REQUIRE_PRIOR_BALANCE_CLEARED"),
		VAPIDPublicKey:             os.Getenv("HOMEBASE_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey:            os.Getenv("HOMEBASE_VAPID_PRIVATE_KEY"),
		PushSubscriber:             os.Getenv("HOMEBASE_PUSH_SUBSCRIBER"),
		S3Endpoint:                 os.Getenv("HOMEBASE_S3_ENDPOINT"),
		S3Bucket:                   os.Getenv("HOMEBASE_S3_BUCKET"),
		S3Region:                   getenv("HOMEBASE_S3_REGION", "auto"),
		S3AccessKey:                os.Getenv("HOMEBASE_S3_ACCESS_KEY"),
		S3SecretKey:                os.Getenv("HOMEBASE_S3_SECRET_KEY"),
		CarryOverInterval:          carryOver,
		ReportWeekday:              time.Weekday(weekday),
		ReportHour:                 hour,
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string) bool {
	v, _ := strconv.ParseBool(os.Getenv(key))
	return v
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
