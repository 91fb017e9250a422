package employee

import (
	"go-employee-directory/internal/middleware"
	"go-employee-directory/internal/rbac"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
	logger *zap.Logger,
) {
	employees := r.Group("/employees")
	employees.Use(middleware.ContextLogger(logger))
	{
		// Listing and details are readable without signing in.
		employees.GET("",
			middleware.RateLimitByIP(5, 20),
			handler.List,
		)
		employees.GET("/:id",
			middleware.RateLimitByIP(5, 20),
			handler.Details,
		)

		employees.GET("/:id/edit",
			middleware.AuthMiddleware(),
			middleware.RBACAuthorize(rbacService, "employee", "update"),
			handler.GetForEdit,
		)

		employees.POST("",
			middleware.AuthMiddleware(),
			middleware.RateLimitByUser(0.5, 2),
			middleware.RBACAuthorize(rbacService, "employee", "create"),
			handler.Create,
		)

		employees.PUT("/:id",
			middleware.AuthMiddleware(),
			middleware.RateLimitByUser(0.5, 2),
			middleware.RBACAuthorize(rbacService, "employee", "update"),
			handler.Update,
		)

		employees.DELETE("/:id",
			middleware.AuthMiddleware(),
			middleware.RateLimitByUser(0.1, 1),
			middleware.RBACAuthorize(rbacService, "employee", "delete"),
			handler.Delete,
		)
	}
}
