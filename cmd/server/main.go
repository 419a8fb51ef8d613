package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "postpilot/configs"
	"postpilot/internal/api/handlers"
	"postpilot/internal/api/middleware"
	"postpilot/internal/models"
	"postpilot/internal/queue"
	"postpilot/internal/repository"
	"postpilot/internal/scheduler"
	"postpilot/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	postRepo := repository.NewPostRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	attemptRepo := repository.NewPublishAttemptRepository(db)
	apiKeyRepo := repository.NewApiKeyRepository(db)

	assetService, err := service.NewAssetService(*cfg)
	if err != nil {
		log.Fatalf("Failed to init asset storage: %v", err)
	}

	settingsService := service.NewSettingsService(*cfg, settingsRepo)
	instagramService := service.NewInstagramService(*cfg)
	cloudinaryService := service.NewCloudinaryService(*cfg)
	authService := service.NewAuthService(*cfg, instagramService, settingsService)
	postService := service.NewPostService(db, postRepo, assetService)
	scheduleService := service.NewScheduleService(scheduleRepo)
	captionService := service.NewCaptionService(*cfg)
	pinterestService := service.NewPinterestService(postRepo)
	apiKeyService := service.NewApiKeyService(apiKeyRepo)

	publisherService := service.NewPublisherService(postRepo, assetService, cloudinaryService, instagramService, settingsService)
	publishers := map[string]service.PublisherService{
		models.PlatformInstagram: publisherService,
	}

	authMiddleware := middleware.NewAuthMiddleware(*cfg, apiKeyService)

	auth := handlers.NewAuthHandler(*cfg, authService)
	app.Post("/login", auth.Login)
	app.Get("/connect/facebook", auth.ConnectFacebook)
	app.Get("/connect/facebook/callback", auth.FacebookCallbackHandler)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	settings := handlers.NewSettingsHandler(settingsService)
	api.Get("/settings/connection", settings.ConnectionInfo)
	api.Post("/settings/disconnect", settings.Disconnect)

	apiKeys := handlers.NewKeysHandler(apiKeyService)
	api.Post("/api_key/new", apiKeys.CreateKey)
	api.Get("/api_key/list", apiKeys.ListKeys)
	api.Post("/api_key/remove", apiKeys.RemoveKey)

	post := handlers.NewPostHandler(postService, pinterestService, client)
	api.Post("/posts/create", post.CreatePost)
	api.Get("/posts", post.ListPosts)
	api.Post("/posts/caption", post.UpdateCaption)
	api.Post("/posts/reorder", post.ReorderPosts)
	api.Post("/posts/publish", post.PublishPost)
	api.Get("/posts/pin", post.PreparePin)
	api.Post("/posts/remove", post.RemovePost)

	schedule := handlers.NewScheduleHandler(scheduleService)
	api.Get("/schedule", schedule.GetSchedule)
	api.Post("/schedule/play", schedule.PlaySchedule)
	api.Post("/schedule/pause", schedule.PauseSchedule)
	api.Post("/schedule/interval", schedule.SetInterval)

	captions := handlers.NewCaptionHandler(captionService)
	api.Post("/captions/generate", captions.GenerateCaptions)

	queueW := queue.NewQueue(postRepo, attemptRepo, publishers)

	sched := scheduler.New(postRepo, scheduleRepo, attemptRepo, publishers)
	sched.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishPost, queueW.HandlePublishPostTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db, sched)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB, sched *scheduler.Scheduler) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	sched.Stop()

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
