package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ecomsync/internal/api/handlers"
	"ecomsync/internal/api/middleware"
	"ecomsync/internal/cofe"
	"ecomsync/internal/config"
	"ecomsync/internal/database"
	"ecomsync/internal/ecom"
	"ecomsync/internal/literal"
	"ecomsync/internal/logger"
)

// Dependencies are the collaborators the handlers need.
type Dependencies struct {
	DB         *database.Database
	Publisher  handlers.Publisher
	Catalog    handlers.CatalogSource
	Products   *ecom.ProductMapper
	CofeMapper *cofe.Mapper
	Serializer *literal.Serializer
}

type Server struct {
	config *config.Config
	logger *logger.Logger
	router *gin.Engine
	server *http.Server
}

func New(cfg *config.Config, logger *logger.Logger, deps Dependencies) *Server {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS())

	webhookHandler := handlers.NewWebhookHandler(deps.Publisher, cfg.WebhookSecret, logger)
	previewHandler := handlers.NewPreviewHandler(deps.Products, deps.CofeMapper, deps.Serializer, logger)
	issueHandler := handlers.NewIssueHandler(deps.DB, logger)
	syncRecordHandler := handlers.NewSyncRecordHandler(deps.DB.DB, logger)
	connectionHandler := handlers.NewConnectionHandler(deps.DB, deps.Catalog, deps.Publisher, logger)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/webhooks/woocommerce", webhookHandler.WooCommerce)

		preview := v1.Group("/preview")
		{
			preview.POST("/cart", previewHandler.Cart)
			preview.POST("/product", previewHandler.Product)
		}

		issues := v1.Group("/issues")
		{
			issues.GET("", issueHandler.List)
			issues.GET("/:id", issueHandler.Get)
			issues.POST("/:id/resolve", issueHandler.Resolve)
		}

		records := v1.Group("/sync-records")
		{
			records.GET("", syncRecordHandler.List)
			records.GET("/:id", syncRecordHandler.Get)
		}

		connections := v1.Group("/connections")
		{
			connections.GET("", connectionHandler.List)
			connections.GET("/:id", connectionHandler.Get)
			connections.POST("", connectionHandler.Create)
			connections.POST("/:id/sync", connectionHandler.Sync)
		}
	}

	return &Server{
		config: cfg,
		logger: logger,
		router: router,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

func (s *Server) Start() error {
	s.logger.Info("Starting server on %s", s.server.Addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	return s.server.Shutdown(ctx)
}

// Router exposes the handler tree, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
