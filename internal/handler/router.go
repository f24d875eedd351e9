package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dianehq/diane/internal/middleware"
)

type RouterDeps struct {
	Auth        *AuthHandler
	Transcripts *TranscriptHandler
	Query       *QueryHandler
	Files       *FileHandler
	JWTSecret   []byte
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/auth/token", middleware.RateLimit(time.Second), deps.Auth.Token)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))

	authGroup.POST("/transcripts/upload", deps.Transcripts.Upload)
	authGroup.GET("/transcripts", deps.Transcripts.List)
	authGroup.GET("/transcripts/:id", deps.Transcripts.Get)
	authGroup.GET("/transcripts/:id/keywords", deps.Transcripts.Keywords)
	authGroup.DELETE("/transcripts/:id", deps.Transcripts.Delete)

	authGroup.POST("/query", deps.Query.Query)
	authGroup.POST("/query/parse", deps.Query.Parse)

	authGroup.GET("/files/:key", deps.Files.Get)
}
