package app

import (
	"database/sql"
	"fmt"
	"os"

	"go-employee-directory/internal/employee"
	"go-employee-directory/internal/messaging/kafka"
	"go-employee-directory/internal/middleware"
	"go-employee-directory/internal/migrations"
	"go-employee-directory/internal/photostore"
	"go-employee-directory/internal/secureid"
	"go-employee-directory/internal/shared/connection"
	"go-employee-directory/internal/shared/counter"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const identifierPurpose = "employee-id-route"

// BuildApp wires infrastructure and registers all module routes. With
// DB_HOST unset the service runs against a seeded in-memory store, which
// keeps local demos free of Postgres/Redis/Kafka.
func BuildApp(router *gin.Engine) error {
	logger := zap.L().Named("app")

	photoDir := os.Getenv("PHOTO_DIR")
	if photoDir == "" {
		photoDir = "photos"
	}
	fileStore, err := photostore.NewDiskStore(photoDir)
	if err != nil {
		return err
	}
	photos := photostore.NewManager(fileStore)

	key := os.Getenv("SECURE_ID_KEY")
	if key == "" {
		return fmt.Errorf("SECURE_ID_KEY is required")
	}
	protector, err := secureid.New([]byte(key), identifierPurpose)
	if err != nil {
		return err
	}

	var (
		gormDB       *gorm.DB
		sqlDB        *sql.DB
		rdb          *redis.Client
		outboxRepo   kafka.OutboxRepository
		employeeRepo employee.Repository
	)

	if os.Getenv("DB_HOST") == "" {
		logger.Warn("DB_HOST not set, using seeded in-memory store")
		employeeRepo = employee.NewMemoryRepository()
	} else {
		gormDB, err = connection.ConnectGORMWithRetry(
			os.Getenv("DB_HOST"),
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_NAME"),
			os.Getenv("DB_PORT"),
			os.Getenv("DB_SSLMODE"),
			5,
		)
		if err != nil {
			return err
		}

		if err := migrations.Run(databaseURLFromEnv()); err != nil {
			return err
		}

		sqlDB, err = gormDB.DB()
		if err != nil {
			return err
		}

		counterRepo := counter.NewRepository(gormDB)
		employeeRepo = employee.NewRepository(gormDB, counterRepo)
		outboxRepo = kafka.NewOutboxRepository(sqlDB)

		if addr := os.Getenv("REDIS_ADDR"); addr != "" {
			rdb, err = connection.ConnectRedisWithRetry(addr, 5)
			if err != nil {
				return err
			}
		}
	}

	router.Use(middleware.RequestID())
	router.Static("/photos", photoDir)

	return registerModules(router, registry{
		db:           sqlDB,
		gormDB:       gormDB,
		rdb:          rdb,
		employeeRepo: employeeRepo,
		outboxRepo:   outboxRepo,
		protector:    protector,
		photos:       photos,
	})
}

func databaseURLFromEnv() string {
	sslmode := os.Getenv("DB_SSLMODE")
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_NAME"),
		sslmode,
	)
}
