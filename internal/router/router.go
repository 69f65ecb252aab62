package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sihmvp/dropout-monitor/internal/config"
	"github.com/sihmvp/dropout-monitor/internal/handler"
	"github.com/sihmvp/dropout-monitor/internal/middleware"
	"github.com/sihmvp/dropout-monitor/internal/model"
	"github.com/sihmvp/dropout-monitor/internal/response"
	"github.com/sihmvp/dropout-monitor/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth    *handler.AuthHandler
	Student *handler.StudentHandler
	Upload  *handler.UploadHandler
	User    *handler.UserHandler
	WS      *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Metrics())
	router.Use(middleware.Brotli())

	router.GET("/health", handler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	staff := []gin.HandlerFunc{
		middleware.RequireAuth(authService),
		middleware.CheckSession(authService),
		middleware.RequireRole(model.RoleAdmin, model.RoleMentor),
	}

	// ─── 1. Auth (Public, Rate Limited) ────────────────────────────────
	api := router.Group("/api")
	api.Use(middleware.NoStore())

	login := api.Group("")
	if cfg.AuthRateLimit > 0 {
		login.Use(middleware.NewLoginLimiter(cfg.AuthRateLimit, time.Minute).Middleware())
	}
	{
		login.POST("/login", handlers.Auth.Login)
		login.POST("/student-login", handlers.Auth.StudentLogin)
	}

	authed := api.Group("")
	authed.Use(
		middleware.RequireAuth(authService),
		middleware.CheckSession(authService),
	)
	{
		authed.POST("/logout", handlers.Auth.Logout)
	}

	// ─── 2. Students (Staff, plus own trend for students) ──────────────
	{
		authed.GET("/student/me", middleware.RequireRole(model.RoleStudent), handlers.Student.GetOwnRecord)
		authed.GET("/student/trends/:id", middleware.RequireRole(model.RoleAdmin, model.RoleMentor, model.RoleStudent), handlers.Student.GetTrend)
	}

	staffAPI := api.Group("", staff...)
	{
		staffAPI.GET("/students", handlers.Student.ListStudents)
		staffAPI.GET("/student/:id", handlers.Student.GetStudent)
		staffAPI.GET("/subjects/scores", handlers.Student.GetSubjectScores)
	}

	// ─── 3. Admin ──────────────────────────────────────────────────────
	adminAPI := authed.Group("")
	adminAPI.Use(middleware.RequireRole(model.RoleAdmin))
	{
		adminAPI.POST("/student/update", handlers.Student.UpdateStudent)
		adminAPI.DELETE("/student/delete/:id", handlers.Student.DeleteStudent)
		adminAPI.POST("/upload", handlers.Upload.UploadRoster)

		adminAPI.GET("/users", handlers.User.ListUsers)
		adminAPI.POST("/register", handlers.User.Register)
		adminAPI.POST("/user/update", handlers.User.UpdateUser)
		adminAPI.DELETE("/user/delete/:username", handlers.User.DeleteUser)
	}

	// ─── 4. WebSocket (Staff, token in query) ──────────────────────────
	router.GET("/ws/roster", append(staff, handlers.WS.RosterStream)...)

	return router
}
