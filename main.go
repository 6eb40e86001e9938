package main

import (
	"capture-engine/internal/browser"
	"capture-engine/internal/capture"
	"capture-engine/internal/retry"
	"capture-engine/internal/runnable"
	"capture-engine/internal/schedule"
	"capture-engine/internal/storage"
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

func envOrDefaultValue[T any](key string, defaultValue T) T {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	switch any(defaultValue).(type) {
	case string:
		return any(value).(T)
	case int:
		if intValue, err := strconv.Atoi(value); err == nil {
			return any(intValue).(T)
		}
	case int64:
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return any(intValue).(T)
		}
	case uint:
		if uintValue, err := strconv.ParseUint(value, 10, 0); err == nil {
			return any(uint(uintValue)).(T)
		}
	case uint64:
		if uintValue, err := strconv.ParseUint(value, 10, 64); err == nil {
			return any(uintValue).(T)
		}
	case float64:
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return any(floatValue).(T)
		}
	case bool:
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return any(boolValue).(T)
		}
	case time.Duration:
		if durationValue, err := time.ParseDuration(value); err == nil {
			return any(durationValue).(T)
		}
	}

	return defaultValue
}

func main() {
	_ = godotenv.Load()

	logLevel := slog.LevelInfo
	if v, ok := os.LookupEnv("GO_LOG"); ok {
		_ = logLevel.UnmarshalText([]byte(v))
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	ctx := context.Background()

	config := browser.DefaultPlaywrightConfig()
	config.ChromeDevtoolsProtocolURL = os.Getenv("CHROME_DEVTOOLS_PROTOCOL_URL")
	if userAgent := os.Getenv("USER_AGENT"); userAgent != "" {
		config.UserAgent = userAgent
	}
	if display := os.Getenv("DISPLAY"); display != "" {
		config.Headless = false
	}

	surface, err := browser.NewPlaywrightSurface(ctx, config)
	if err != nil {
		logger.Error("unable to create rendering surface", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = surface.Close()
	}()

	engineConfig := capture.DefaultEngineConfig()
	engineConfig.MaxWaitSeconds = envOrDefaultValue("MAX_WAIT_SECONDS", engineConfig.MaxWaitSeconds)
	engineConfig.Strategy = retry.NewExponentialBackOff(
		envOrDefaultValue("NAVIGATION_RETRY_BASE", 500*time.Millisecond),
		envOrDefaultValue("NAVIGATION_RETRY_MAX", 10*time.Second),
		envOrDefaultValue[uint]("NAVIGATION_RETRY_ATTEMPTS", 3),
		nil,
	)
	engine := capture.NewEngine(surface, engineConfig, logger)

	var storageClient storage.Storage
	switch backend := envOrDefaultValue("STORAGE_BACKEND", "file"); backend {
	case "s3":
		storageClient, err = storage.NewS3Storage(ctx, storage.S3Config{
			Bucket: os.Getenv("S3_BUCKET"),
		})
	default:
		storageClient, err = storage.NewFileStorage(ctx, storage.FileConfig{
			Directory: envOrDefaultValue("DIRECTORY", "/tmp"),
		})
	}
	if err != nil {
		logger.Error("unable to create storage backend", "error", err)
		os.Exit(1)
	}

	if configPath := os.Getenv("SCHEDULE_CONFIG"); configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			logger.Error("unable to read schedule config", "error", err)
			os.Exit(1)
		}
		entries, err := schedule.ParseConfig(data)
		if err != nil {
			logger.Error("unable to parse schedule config", "error", err)
			os.Exit(1)
		}

		scheduler := schedule.NewScheduler(engine, storageClient, entries, logger)
		go func() {
			if err := scheduler.Start(ctx); err != nil && ctx.Err() == nil {
				logger.Error("scheduler stopped", "error", err)
			}
		}()
	}

	if err := runnable.NewServer(engine, storageClient).Start(ctx); err != nil {
		logger.Error("problem running server", "error", err)
		os.Exit(1)
	}
}
