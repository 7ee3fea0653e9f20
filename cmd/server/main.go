package main

import (
	"os"

	"github.com/Azhc/chat-backend/internal/api/handlers"
	"github.com/Azhc/chat-backend/internal/api/middleware"
	"github.com/Azhc/chat-backend/internal/auth"
	"github.com/Azhc/chat-backend/internal/config"
	"github.com/Azhc/chat-backend/internal/response"
	"github.com/Azhc/chat-backend/internal/upstream"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	config.LoadEnvFiles()

	cfg, err := config.Load(config.Overrides{})
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
		os.Exit(1)
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// Session-token codec; fatal on misconfiguration.
	codec, err := auth.NewTokenCodec(cfg.JWTSecret, cfg.JWTAlgorithm)
	if err != nil {
		log.Error().Err(err).Msg("failed to create token codec")
		os.Exit(1)
	}

	// Upstream collaborators, constructed once and shared read-only.
	wechatClient := upstream.NewClient(cfg.WorkWechatURL, cfg.UpstreamTimeout, nil)
	userCenterClient := upstream.NewClient(cfg.UserCenterURL, cfg.UpstreamTimeout, nil)
	identityClient := upstream.NewClient(cfg.IdentityLookupURL, cfg.UpstreamTimeout, nil)
	backendHeaders := map[string]string{"Authorization": "Bearer " + cfg.DifyAPIKey}
	backendClient := upstream.NewClient(cfg.DifyAPIURL, cfg.UpstreamTimeout, backendHeaders)
	backendRelay := upstream.NewRelay(cfg.DifyAPIURL, cfg.UpstreamTimeout, backendHeaders)

	resolver := auth.NewResolver(codec, identityClient, "/userinfo")
	issuer := auth.NewIssuer(codec, wechatClient, userCenterClient,
		cfg.WorkWechatAppID, cfg.WorkWechatSecret, cfg.JWTExpiry)

	router := gin.New()
	router.Use(response.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"*"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	router.Use(middleware.LoggingMiddleware())

	router.GET("/", func(c *gin.Context) {
		c.String(200, "Welcome to SCPG Chat Gateway!")
	})

	authHandler := handlers.NewAuthHandler(issuer)
	chatHandler := handlers.NewChatHandler(backendRelay, backendClient)
	conversationHandler := handlers.NewConversationHandler(backendClient)

	// Public routes (no auth required)
	authGroup := router.Group("/auth")
	{
		authGroup.GET("/getUserByCode", authHandler.GetUserByCode)
	}

	// Protected routes (auth required)
	chat := router.Group("/chat-messages")
	chat.Use(middleware.AuthGate(resolver))
	{
		chat.POST("/chat", chatHandler.Chat)
		chat.GET("/:message_id/suggested", chatHandler.Suggested)
		chat.POST("/:message_id/feedbacks", chatHandler.Feedback)
	}

	conversations := router.Group("/conversations")
	conversations.Use(middleware.AuthGate(resolver))
	{
		conversations.GET("/list", conversationHandler.List)
		conversations.POST("/:conversation_id/name", conversationHandler.Rename)
		conversations.GET("/:conversation_id/messages", conversationHandler.Messages)
		conversations.DELETE("/:conversation_id", conversationHandler.Delete)
	}

	log.Info().Str("addr", cfg.Addr).Msg("chat gateway starting")

	if err := router.Run(cfg.Addr); err != nil {
		log.Error().Err(err).Msg("failed to start server")
		os.Exit(1)
	}
}
