package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"anoa.com/storefront/internal/config"
	"anoa.com/storefront/internal/jobs"
	"anoa.com/storefront/internal/middleware"
	"anoa.com/storefront/pkg/lock"
	"anoa.com/storefront/pkg/storage"

	cartHttp "anoa.com/storefront/internal/modules/cart/delivery/http"
	cartRepo "anoa.com/storefront/internal/modules/cart/repository"
	cartService "anoa.com/storefront/internal/modules/cart/service"

	followHttp "anoa.com/storefront/internal/modules/follow/delivery/http"
	followRepo "anoa.com/storefront/internal/modules/follow/repository"
	followService "anoa.com/storefront/internal/modules/follow/service"

	notiHttp "anoa.com/storefront/internal/modules/notification/delivery/http"
	notifRepo "anoa.com/storefront/internal/modules/notification/repository"
	notifService "anoa.com/storefront/internal/modules/notification/service"

	rewardHttp "anoa.com/storefront/internal/modules/reward/delivery/http"
	rewardRepo "anoa.com/storefront/internal/modules/reward/repository"
	rewardService "anoa.com/storefront/internal/modules/reward/service"

	searchHttp "anoa.com/storefront/internal/modules/search/delivery/http"
	searchService "anoa.com/storefront/internal/modules/search/service"

	userHttp "anoa.com/storefront/internal/modules/user/delivery/http"
	userRepo "anoa.com/storefront/internal/modules/user/repository"
	userService "anoa.com/storefront/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	engine    *gin.Engine
	http      *http.Server
	scheduler *jobs.Scheduler
}

// NewServer wires every module. redisClient may be nil, which disables the
// redemption lock and live notifications.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	var images storage.ImageStorage
	if s, err := storage.NewCloudinaryStorage(cfg.CloudinaryUploadFolder); err != nil {
		slog.Warn("image storage disabled", "error", err)
	} else {
		images = s
	}

	meiliHost := cfg.MeiliSearchHost
	if !strings.HasPrefix(meiliHost, "http") {
		meiliHost = "http://" + meiliHost + ":7700"
	}
	meiliClient := meilisearch.New(meiliHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))

	userRepository := userRepo.NewUserRepository(db)
	authSvc := userService.NewAuthService(userRepository, cfg.JWTSecret, cfg.JWTTTL)
	authHandler := userHttp.NewAuthHandler(authSvc)

	notificationRepository := notifRepo.NewNotificationRepository(db)
	notificationSvc := notifService.NewNotificationService(notificationRepository, redisClient)
	notificationHandler := notiHttp.NewNotificationHandler(notificationSvc, redisClient, cfg.AllowedOrigins)

	rewardRepository := rewardRepo.NewRewardRepository(db)
	searchSvc := searchService.NewSearchService(meiliClient, rewardRepository)
	searchHandler := searchHttp.NewSearchHandler(searchSvc)

	redeemLocker := lock.NewRedisLocker(redisClient, cfg.RedeemLockTTL)
	rewardSvc := rewardService.NewRewardService(rewardRepository, redeemLocker, notificationSvc, searchSvc, images)
	rewardHandler := rewardHttp.NewRewardHandler(rewardSvc)

	cartRepository := cartRepo.NewCartRepository(db)
	cartSvc := cartService.NewCartService(cartRepository)
	cartHandler := cartHttp.NewCartHandler(cartSvc)

	followRepository := followRepo.NewFollowRepository(db)
	followSvc := followService.NewFollowService(followRepository, notificationSvc)
	followHandler := followHttp.NewFollowHandler(followSvc)

	scheduler, err := jobs.StartCatalogReindex(searchSvc, cfg.CatalogReindexInterval)
	if err != nil {
		return nil, err
	}

	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz"},
	}))

	router.GET("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	authMiddleware := middleware.NewAuthMiddleware(userRepository, cfg.JWTSecret)

	api := router.Group("/api")

	// Public routes
	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
	}

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireAdmin())
		{
			adminGroup.POST("/rewards", rewardHandler.CreateReward)
			adminGroup.POST("/rewards/points", rewardHandler.AwardPoints)
		}

		// Reward routes
		protected.GET("/rewards", rewardHandler.ListCatalog)
		protected.GET("/rewards/account", rewardHandler.GetAccount)
		protected.GET("/rewards/search", searchHandler.SearchRewards)
		protected.POST("/rewards/:reward_id/redeem", rewardHandler.Redeem)

		// Cart routes
		protected.GET("/products", cartHandler.ListProducts)
		protected.GET("/cart", cartHandler.GetCart)
		protected.POST("/cart/items", cartHandler.AddItem)
		protected.PUT("/cart/items/:product_id", cartHandler.UpdateItem)
		protected.DELETE("/cart/items/:product_id", cartHandler.RemoveItem)

		// Follow routes
		protected.GET("/follows/requests", followHandler.PendingRequests)
		protected.GET("/follows/:user_id", followHandler.GetRelationship)
		protected.POST("/follows/:user_id", followHandler.Send)
		protected.DELETE("/follows/:user_id", followHandler.Unfollow)
		protected.DELETE("/follows/:user_id/request", followHandler.Cancel)
		protected.POST("/follows/:user_id/accept", followHandler.Accept)

		// Notification routes
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)
	}

	return &Server{
		engine: router,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		scheduler: scheduler,
	}, nil
}

func (s *Server) Run() error {
	slog.Info("http server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops background jobs.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.scheduler.Shutdown(); err != nil {
		slog.Warn("scheduler shutdown", "error", err)
	}
	return s.http.Shutdown(ctx)
}

func setupCORS(router *gin.Engine, origins []string) {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
