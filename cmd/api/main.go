package main

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/smartdoc-health/smartdoc-api/internal/config"
	"github.com/smartdoc-health/smartdoc-api/internal/handlers"
	"github.com/smartdoc-health/smartdoc-api/internal/middleware"
	"github.com/smartdoc-health/smartdoc-api/internal/models"
	"github.com/smartdoc-health/smartdoc-api/internal/reminders"
	"github.com/smartdoc-health/smartdoc-api/internal/services"
	"github.com/smartdoc-health/smartdoc-api/internal/utils"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		logger.Info().Msg("no .env file found, relying on environment variables")
	}
	cfg := config.Load()

	// --- Database ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	if err := client.Ping(ctx, nil); err != nil {
		logger.Fatal().Err(err).Msg("failed to reach MongoDB")
	}
	defer client.Disconnect(context.Background())
	db := client.Database(cfg.MongoDatabase)
	logger.Info().Str("database", cfg.MongoDatabase).Msg("connected to MongoDB")

	if err := models.SeedRoles(ctx, db); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed roles")
	}

	// --- Upload directories ---
	for _, sub := range []string{utils.AudioDir, utils.ImagesDir, utils.DocumentDir} {
		if err := utils.EnsureDirectoryExists(filepath.Join(cfg.UploadDir, sub)); err != nil {
			logger.Fatal().Err(err).Str("dir", sub).Msg("failed to create upload directory")
		}
	}

	// --- Services ---
	smtpPort, err := strconv.Atoi(cfg.SMTPPort)
	if err != nil {
		smtpPort = 587
	}
	emailSvc := services.NewEmailService(cfg.SMTPServer, smtpPort, cfg.SMTPUser, cfg.SMTPPass, cfg.FromAddress, logger)
	aiSvc := services.NewAIService(cfg.AIBaseURL, cfg.AIAPIKey)
	pushSvc, err := services.NewPushService(context.Background(), cfg.FirebaseCredentials, logger)
	if err != nil {
		logger.Error().Err(err).Msg("firebase init failed, push notifications disabled")
		pushSvc, _ = services.NewPushService(context.Background(), "", logger)
	}
	twilioSvc := services.NewTwilioService(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber, logger)
	chatSvc := services.NewChatService(db, aiSvc, pushSvc, logger)
	rosterSvc := services.NewRosterService(db, emailSvc, logger)

	store := reminders.NewMemoryStore()
	sessions := reminders.NewMemorySessions()
	scheduler := reminders.NewScheduler(store, twilioSvc, logger)
	if err := scheduler.Start(); err != nil {
		logger.Fatal().Err(err).Msg("failed to start reminder scheduler")
	}
	defer scheduler.Stop()

	botSvc := services.NewMessageService(aiSvc, scheduler, sessions, logger)

	h := handlers.NewHandler(handlers.Deps{
		DB:        db,
		Chat:      chatSvc,
		Email:     emailSvc,
		Twilio:    twilioSvc,
		Bot:       botSvc,
		Roster:    rosterSvc,
		Scheduler: scheduler,
		Store:     store,
		Sessions:  sessions,
		UploadDir: cfg.UploadDir,
		Log:       logger,
	})

	// --- Router ---
	r := gin.Default()
	r.MaxMultipartMemory = utils.MaxUploadSize

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.Static("/uploads", cfg.UploadDir)

	v1 := r.Group("/api/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/register/admin", h.RegisterAdmin)
		auth.POST("/register/hospital", h.RegisterHospital)
		auth.POST("/register/patient", h.RegisterPatient)
		auth.POST("/register/doctor", h.RegisterDoctor)
		auth.POST("/verify-otp", h.VerifyOTP)
		auth.POST("/resend-otp", h.ResendOTP)
		auth.POST("/forgotPassword", h.ForgotPassword)
		auth.POST("/resetPassword", h.ResetPassword)
		auth.POST("/signin", h.SignIn)
		auth.POST("/signout", middleware.AuthMiddleware(db), h.SignOut)
	}

	user := v1.Group("/user")
	user.Use(middleware.AuthMiddleware(db))
	{
		user.GET("/profile/get/SignedinUserProfile", h.GetSignedInProfile)
		user.GET("/profile/get/allProfiles", middleware.RequireRoles(models.TypeAdmin), h.GetAllProfiles)
		user.GET("/profile/get/:email", h.GetProfileByEmail)
		user.GET("/doctors", h.GetDoctors)
		user.GET("/hospitals", h.GetHospitals)
		user.GET("/patients", middleware.RequireRoles(models.TypeAdmin, models.TypeDoctor, models.TypeHospital), h.GetPatients)
		user.POST("/profile/update", h.UpdateProfile)
		user.POST("/fcm-token", h.UpdateFCMToken)
		user.GET("/role/:id", h.GetRole)
	}

	chat := v1.Group("/chat")
	chat.Use(middleware.AuthMiddleware(db))
	{
		chat.POST("/sessions", h.CreateSession)
		chat.GET("/users/:userId/sessions", h.GetUserSessions)
		chat.POST("/messages", h.SendMessage)
		chat.POST("/messages/audio", h.SendAudioMessage)
		chat.POST("/messages/image", h.SendImageMessage)
		chat.GET("/sessions/:sessionId/messages", h.GetChatHistory)
		chat.DELETE("/sessions/:sessionId", h.DeleteSession)
		chat.POST("/summaries", h.GenerateSummary)
		chat.GET("/users/:userId/summaries", h.GetUserSummaries)
		chat.POST("/summaries/:summaryId/send-to-doctor", h.SendSummaryToDoctor)
	}

	webhook := v1.Group("/webhook")
	{
		webhook.POST("/whatsapp", h.WhatsAppWebhook)
		webhook.GET("/status", h.WebhookStatus)
	}

	whatsapp := v1.Group("/whatsapp")
	whatsapp.Use(middleware.AuthMiddleware(db))
	{
		whatsapp.POST("/send-message", h.SendWhatsAppMessage)
		whatsapp.POST("/send-bulk", h.SendBulkWhatsAppMessages)
		whatsapp.POST("/send-template", h.SendTemplateMessage)
		whatsapp.POST("/schedule-reminder", h.ScheduleReminder)
		whatsapp.DELETE("/reminder/:reminderId", h.CancelReminder)
		whatsapp.GET("/reminders/:phoneNumber", h.GetUserReminders)
		whatsapp.GET("/stats", h.WhatsAppStats)
	}

	logger.Info().Str("port", cfg.Port).Msg("starting server")
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}
