package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"dispatch/cmd"
	"dispatch/internal/metrics"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	httpin "dispatch/internal/adapters/in/http"
)

func main() {
	configs := getConfigs()

	gormDB := mustOpenDB(configs)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     configs.RedisAddr,
		Password: configs.RedisPassword,
	})

	metrics.MustRegister()

	app := cmd.NewCompositionRoot(configs, gormDB, redisClient)

	// Re-populate the hot-path position table from the durable tier.
	if loaded, err := app.LocationStore().Reload(context.Background()); err != nil {
		log.Warnf("Position reload failed, starting with an empty table: %v", err)
	} else {
		log.Infof("Reloaded %d agent positions", loaded)
	}

	jobManager := app.CreateJobManager()
	if err := jobManager.StartAll(); err != nil {
		log.Fatalf("Failed to start jobs: %v", err)
	}
	defer jobManager.StopAll()

	coordinator := app.CreateCoordinationService()
	server := app.CreateHTTPServer(coordinator)
	wsHandler := httpin.NewWSHandler(coordinator, app.Logger())

	e := echo.New()
	server.RegisterRoutes(e, wsHandler)
	e.Logger.Fatal(e.Start(fmt.Sprintf("0.0.0.0:%s", configs.HTTPPort)))
}

func getConfigs() cmd.Config {
	return cmd.Config{
		HTTPPort:       goDotEnvVariable("HTTP_PORT"),
		DBHost:         goDotEnvVariable("DB_HOST"),
		DBPort:         goDotEnvVariable("DB_PORT"),
		DBUser:         goDotEnvVariable("DB_USER"),
		DBPassword:     goDotEnvVariable("DB_PASSWORD"),
		DBName:         goDotEnvVariable("DB_NAME"),
		DBSslMode:      goDotEnvVariable("DB_SSLMODE"),
		RedisAddr:      goDotEnvVariable("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		PositionTTL:    durationEnv("POSITION_TTL", time.Hour),
		PositionMaxAge: durationEnv("POSITION_MAX_AGE", time.Hour),
		IdleTimeout:    durationEnv("WS_IDLE_TIMEOUT", 5*time.Minute),
		ReconnectGrace: durationEnv("WS_RECONNECT_GRACE", 30*time.Second),
	}
}

func goDotEnvVariable(key string) string {
	err := godotenv.Load(".env")
	if err != nil {
		log.Fatalf("Error loading .env file")
	}
	return os.Getenv(key)
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Fatalf("Invalid duration in %s: %v", key, err)
	}
	return d
}

func mustOpenDB(configs cmd.Config) *gorm.DB {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		configs.DBHost, configs.DBPort, configs.DBUser,
		configs.DBPassword, configs.DBName, configs.DBSslMode)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	return db
}
