package server

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rakarizky/habitlink/internal/config"
	"github.com/rakarizky/habitlink/internal/handler"
	"github.com/rakarizky/habitlink/internal/middleware"
	"github.com/rakarizky/habitlink/internal/repository"
	"github.com/rakarizky/habitlink/internal/scheduler"
	"github.com/rakarizky/habitlink/internal/service"
	"github.com/rakarizky/habitlink/pkg/clock"
	"github.com/rakarizky/habitlink/pkg/mailer"
	"github.com/rakarizky/habitlink/pkg/storage"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
	jobs        *scheduler.Scheduler
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	clk := clock.System()

	userRepo := repository.NewUserRepository(db)
	challengeRepo := repository.NewChallengeRepository(db)
	participationRepo := repository.NewParticipationRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	logRepo := repository.NewChallengeLogRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	resetRepo := repository.NewPasswordResetRepository(db)

	var imageStorage storage.ImageStorage
	if s, err := storage.NewCloudinaryStorage(); err != nil {
		log.Printf("cloudinary storage disabled: %v", err)
	} else {
		imageStorage = s
	}

	var mail mailer.Mailer
	if cfg.MailEnabled() {
		mail = mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	} else {
		log.Println("SMTP not configured, mail output goes to the log")
		mail = mailer.NewLogMailer()
	}

	notificationService := service.NewNotificationService(notificationRepo, redisClient)
	authService := service.NewAuthService(userRepo)
	userService := service.NewUserService(userRepo)
	resetService := service.NewPasswordResetService(userRepo, resetRepo, mail, clk)
	challengeService := service.NewChallengeService(db, challengeRepo, participationRepo, applicationRepo, notificationService, clk)
	logService := service.NewChallengeLogService(logRepo, challengeRepo, participationRepo, notificationService, challengeService)
	statsService := service.NewStatsService(challengeRepo, participationRepo, logRepo, challengeService, clk)

	authHandler := handler.NewAuthHandler(authService, resetService)
	userHandler := handler.NewUserHandler(userService)
	challengeHandler := handler.NewChallengeHandler(challengeService, statsService)
	logHandler := handler.NewChallengeLogHandler(logService)
	notificationHandler := handler.NewNotificationHandler(notificationService, redisClient)
	uploadHandler := handler.NewUploadHandler(imageStorage)
	healthHandler := handler.NewHealthHandler(db)

	jobs := scheduler.NewScheduler()
	for _, job := range scheduler.NewJobs(challengeRepo, participationRepo, logRepo, notificationService, clk) {
		if err := jobs.Register(job); err != nil {
			log.Fatalf("failed to register job: %v", err)
		}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	setupCORS(router, cfg)

	authMiddleware := middleware.NewAuthMiddleware()

	api := router.Group("/api")

	api.GET("/health", healthHandler.Check)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/password-reset/code", authHandler.SendResetCode)
		auth.POST("/password-reset/verify", authHandler.VerifyResetCode)
		auth.POST("/password-reset/confirm", authHandler.ConfirmReset)
	}

	// Read paths take OptionalAuth so anonymous callers still get
	// public-only results from the visibility filter.
	public := api.Group("")
	public.Use(authMiddleware.OptionalAuth())
	{
		public.GET("/challenges", challengeHandler.ListChallenges)
		public.GET("/challenges/invite/:code", challengeHandler.GetChallengeByInviteCode)
		public.GET("/challenges/:id", challengeHandler.GetChallenge)
		public.GET("/challenges/:id/members", challengeHandler.GetChallengeMembers)
		public.GET("/logs", logHandler.GetChallengeLogs)
		public.GET("/logs/:id", logHandler.GetChallengeLog)
	}

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.GET("/profile", userHandler.GetProfile)
		protected.PUT("/profile", userHandler.UpdateProfile)
		protected.PUT("/profile/password", userHandler.ChangePassword)

		protected.POST("/challenges", challengeHandler.CreateChallenge)
		protected.GET("/challenges/me", challengeHandler.GetMyChallenges)
		protected.PUT("/challenges/:id", challengeHandler.UpdateChallenge)
		protected.POST("/challenges/join", challengeHandler.JoinByInviteCode)
		protected.POST("/challenges/:id/join", challengeHandler.JoinChallenge)
		protected.POST("/challenges/:id/leave", challengeHandler.LeaveChallenge)
		protected.POST("/challenges/:id/applications", challengeHandler.ApplyToChallenge)
		protected.GET("/challenges/:id/applications", challengeHandler.GetChallengeApplications)
		protected.PUT("/challenges/:id/applications/:applicationId", challengeHandler.UpdateApplicationStatus)
		protected.GET("/applications/me", challengeHandler.GetMyApplications)

		protected.GET("/challenges/:id/stats", challengeHandler.GetMemberStats)
		protected.GET("/challenges/:id/participation", challengeHandler.GetParticipationSeries)

		protected.POST("/logs", logHandler.CreateChallengeLog)
		protected.PUT("/logs/:id/approve", logHandler.ApproveChallengeLog)
		protected.PUT("/logs/:id/reject", logHandler.RejectChallengeLog)

		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.DELETE("/notifications/:id", notificationHandler.DeleteNotification)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)

		protected.POST("/upload", uploadHandler.UploadImage)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
		jobs:        jobs,
	}
}

func (s *Server) Run(addr string) error {
	s.jobs.Start()
	defer s.jobs.Stop()
	return s.engine.Run(addr)
}

func setupCORS(router *gin.Engine, cfg *config.Config) {
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
