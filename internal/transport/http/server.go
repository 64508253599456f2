package http

import (
	_ "embed"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/colimarl/groupchat-server/internal/config"
	"github.com/colimarl/groupchat-server/internal/core"
	"github.com/colimarl/groupchat-server/internal/store"
)

//go:embed index.html
var indexHTML []byte

// NewServer builds the HTTP server fronting the coordinator.
func NewServer(coord *core.Coordinator, blobs store.BlobStore, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	h := NewHandlers(coord, blobs, cfg.MaxUploadBytes, logger)
	router.GET("/", h.Index)
	router.GET("/healthz", h.Health)
	router.GET("/history", h.History)
	router.POST("/upload", h.Upload)
	router.GET("/uploads/:name", h.Blob)
	router.GET("/ws", gin.WrapH(NewWSHandler(coord, cfg.MessageRateLimit, logger)))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
