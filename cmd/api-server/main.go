package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"

	"reviewhub/database"
	"reviewhub/internal/config"
	"reviewhub/internal/email"
	"reviewhub/internal/http-api/handler"
	"reviewhub/internal/http-api/middleware"
	"reviewhub/internal/http-api/repository"
	"reviewhub/internal/http-api/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	db, err := database.ConnectDB(cfg, logger)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	ratingCache, err := repository.NewRatingCache(cfg.RedisURL, cfg.RedisPassword, cfg.RatingCacheTTL)
	if err != nil {
		// Ratings fall back to the database when redis is unreachable.
		logger.Warn("rating cache disabled", "error", err)
	}

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	genreRepo := repository.NewGenreRepository(db)
	titleRepo := repository.NewTitleRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	sender := email.NewSMTPSender(cfg)

	authService := service.NewAuthService(userRepo, sender, logger, cfg)
	userService := service.NewUserService(userRepo, reviewRepo, ratingCache)
	categoryService := service.NewCategoryService(categoryRepo)
	genreService := service.NewGenreService(genreRepo)
	titleService := service.NewTitleService(titleRepo, categoryRepo, genreRepo, reviewRepo, ratingCache)
	reviewService := service.NewReviewService(reviewRepo, titleRepo, ratingCache)
	commentService := service.NewCommentService(commentRepo, reviewRepo, titleRepo)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	api := r.Group("/api/v1")
	api.Use(middleware.Identify([]byte(cfg.JWTSecret)))

	handler.NewAuthHandler(authService).RegisterRoutes(api.Group("/auth"))
	handler.NewUserHandler(userService).RegisterRoutes(api.Group("/users"))
	handler.NewCategoryHandler(categoryService).RegisterRoutes(api.Group("/categories"))
	handler.NewGenreHandler(genreService).RegisterRoutes(api.Group("/genres"))

	titles := api.Group("/titles")
	handler.NewTitleHandler(titleService).RegisterRoutes(titles)
	handler.NewReviewHandler(reviewService).RegisterRoutes(titles)
	handler.NewCommentHandler(commentService).RegisterRoutes(titles)

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	logger.Info("server starting", "addr", addr, "env", cfg.GoEnv)
	if err := r.Run(addr); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
