package app

import (
	"database/sql"
	"os"
	"path/filepath"

	"go-employee-directory/internal/auth"
	"go-employee-directory/internal/employee"
	"go-employee-directory/internal/messaging/kafka"
	"go-employee-directory/internal/photostore"
	"go-employee-directory/internal/rbac"
	"go-employee-directory/internal/secureid"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type registry struct {
	db           *sql.DB
	gormDB       *gorm.DB
	rdb          *redis.Client
	employeeRepo employee.Repository
	outboxRepo   kafka.OutboxRepository
	protector    *secureid.Protector
	photos       photostore.Manager
}

func registerModules(router *gin.Engine, reg registry) error {
	logger := zap.L()

	// --- RBAC Core ---
	modelPath := os.Getenv("RBAC_MODEL_PATH")
	if modelPath == "" {
		modelPath = filepath.Join("internal", "rbac", "model.conf")
	}
	policyPath := os.Getenv("RBAC_POLICY_PATH")
	if policyPath == "" {
		policyPath = filepath.Join("internal", "rbac", "policy.csv")
	}
	enforcer, err := rbac.NewEnforcer(modelPath, policyPath)
	if err != nil {
		return err
	}
	rbacService := rbac.NewService(enforcer)

	// --- Services ---
	employeeService := employee.NewServiceWithOutbox(
		reg.db,
		reg.employeeRepo,
		reg.protector,
		reg.photos,
		reg.outboxRepo,
		reg.rdb,
	)

	// --- Handlers ---
	employeeHandler := employee.NewHandler(employeeService)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		employee.RegisterRoutes(api, employeeHandler, rbacService, logger)

		// Accounts live in Postgres, so sign-in is unavailable against the
		// in-memory store.
		if reg.gormDB != nil {
			authRepo := auth.NewRepository(reg.gormDB)
			authService := auth.NewService(authRepo)
			authHandler := auth.NewHandler(authService)
			auth.RegisterRoutes(api, authHandler)
		} else {
			logger.Warn("auth routes disabled, no database configured")
		}
	}

	return nil
}
