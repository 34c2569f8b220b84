package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"dex-zone-scanner/internal/database"
	"dex-zone-scanner/internal/geckoterminal"
	"dex-zone-scanner/internal/notification"
	"dex-zone-scanner/internal/scanner"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int
	ProductionMode bool
}

// Server exposes the ops surface: health, scanner status, trending list,
// manual fetch, and the chat webhook.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	repo       *database.Repository
	client     *geckoterminal.Client
	scanner    *scanner.Scanner
	notifier   *notification.Manager
	config     ServerConfig
	logger     zerolog.Logger
}

// NewServer creates the API server and registers routes.
func NewServer(
	repo *database.Repository,
	client *geckoterminal.Client,
	sc *scanner.Scanner,
	notifier *notification.Manager,
	config ServerConfig,
	logger zerolog.Logger,
) *Server {
	if config.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type"}
	router.Use(cors.New(corsConfig))

	server := &Server{
		router:   router,
		repo:     repo,
		client:   client,
		scanner:  sc,
		notifier: notifier,
		config:   config,
		logger:   logger.With().Str("component", "api").Logger(),
	}
	server.setupRoutes()
	return server
}

// requestID tags each request with an id, echoed in the response header
// so a client report can be matched against the logs.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/scanner-status", s.handleScannerStatus)
	s.router.GET("/trending-list", s.handleTrendingList)
	s.router.POST("/fetch-tokens", s.handleFetchTokens)
	s.router.POST("/webhook/telegram", s.handleTelegramWebhook)
}

// Start runs the HTTP server in the background.
func (s *Server) Start() {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		s.logger.Info().Int("port", s.config.Port).Msg("API server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("API server failed")
		}
	}()
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
