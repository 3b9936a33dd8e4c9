package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/taskflow-dev/taskflow/internal/auth"
	"github.com/taskflow-dev/taskflow/internal/config"
	"github.com/taskflow-dev/taskflow/internal/handlers"
	"github.com/taskflow-dev/taskflow/internal/middleware"
	"github.com/taskflow-dev/taskflow/internal/ws"
	"gorm.io/gorm"
)

func NewRouter(cfg *config.Config, conn *gorm.DB, tokens *auth.TokenManager, hub *ws.Hub) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	authHandler := &handlers.AuthHandler{DB: conn, Tokens: tokens, CookieDomain: cfg.CookieDomain}
	projectHandler := &handlers.ProjectHandler{DB: conn, Hub: hub}
	memberHandler := &handlers.MemberHandler{DB: conn, Hub: hub}
	taskHandler := &handlers.TaskHandler{DB: conn, Hub: hub}
	wsHandler := &handlers.WSHandler{DB: conn, Hub: hub, AllowedOrigins: cfg.AllowedOrigins}

	authRequired := middleware.AuthMiddleware(conn, tokens)

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)
		api.GET("/ws/:project_id", authRequired, wsHandler.Board)

		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)
		api.POST("/logout", authRequired, authHandler.Logout)
		api.GET("/me", authRequired, authHandler.Me)

		projects := api.Group("/projects", authRequired)
		{
			projects.GET("", projectHandler.List)
			projects.POST("", projectHandler.Create)
			projects.GET("/:project_id", projectHandler.Get)
			projects.PUT("/:project_id", projectHandler.Update)
			projects.DELETE("/:project_id", projectHandler.Delete)

			projects.POST("/:project_id/members", memberHandler.Add)
			projects.PUT("/:project_id/members/:user_id", memberHandler.UpdateRole)
			projects.DELETE("/:project_id/members/:user_id", memberHandler.Remove)

			projects.POST("/:project_id/tasks", taskHandler.Create)
		}

		tasks := api.Group("/tasks", authRequired)
		{
			tasks.PUT("/:task_id", taskHandler.Update)
			tasks.DELETE("/:task_id", taskHandler.Delete)
			tasks.PATCH("/:task_id/move", taskHandler.Move)
			tasks.POST("/:task_id/assign", taskHandler.Assign)
			tasks.DELETE("/:task_id/assign", taskHandler.Unassign)
		}
	}

	return r
}
