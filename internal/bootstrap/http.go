package bootstrap

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/sihmvp/dropout-monitor/internal/config"
	"github.com/sihmvp/dropout-monitor/internal/handler"
	"github.com/sihmvp/dropout-monitor/internal/router"
)

// Router builds the HTTP handlers over s and mounts them.
func (s *Services) Router(cfg *config.Config, log zerolog.Logger) *gin.Engine {
	handlers := &router.Handlers{
		Auth:    handler.NewAuthHandler(s.Auth, log),
		Student: handler.NewStudentHandler(s.Student, log),
		Upload:  handler.NewUploadHandler(s.Ingest, cfg.MaxUploadBytes, log),
		User:    handler.NewUserHandler(s.User, log),
		WS:      handler.NewWSHandler(s.Bus, log, cfg.AllowedOrigins),
	}
	return router.SetupRouter(s.Auth, handlers, cfg)
}
