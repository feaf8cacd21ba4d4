package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alcyxob/nutrition-app/internal/api"
	"alcyxob/nutrition-app/internal/config"
	"alcyxob/nutrition-app/internal/logger"
	"alcyxob/nutrition-app/internal/nutrition"
	"alcyxob/nutrition-app/internal/repository/mongo"
	"alcyxob/nutrition-app/internal/service"
	"alcyxob/nutrition-app/internal/storage"

	"github.com/gin-gonic/gin"
)

// @title Nutrition Planning API
// @version 1.0
// @description API for macro plans, day plan templates and weekly adherence tracking.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("could not load config", "error", err)
		os.Exit(1)
	}

	log := logger.Init(logger.Config{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		SentryDSN: cfg.Log.SentryDSN,
	})
	defer logger.Flush()
	log.Info("starting nutrition app server", "address", cfg.Server.Address)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		logger.Flush()
		os.Exit(1)
	}
	log.Info("server exiting")
}

func run(cfg config.Config, log *slog.Logger) error {
	if cfg.JWT.Secret == "" {
		return errors.New("jwt.secret is not set (JWT_SECRET)")
	}

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("disconnecting MongoDB")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Error("failed to disconnect MongoDB", "error", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Info("database connection established", "database", cfg.Database.Name)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		mongo.EnsureIndexes(ctx, appDB)
		log.Info("index creation completed")
	}()

	// --- Storage ---
	// Report export is optional; without a bucket the admin export answers 503.
	var fileStorage storage.FileStorage
	if cfg.S3.BucketName != "" {
		fileStorage, err = storage.NewS3Storage(context.Background(), cfg.S3)
		if err != nil {
			return err
		}
	} else {
		log.Warn("no S3 bucket configured, report export disabled")
	}

	// --- Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	profileRepo := mongo.NewMongoProfileRepository(appDB)
	planRepo := mongo.NewMongoPlanRepository(appDB)
	templateRepo := mongo.NewMongoTemplateRepository(appDB)
	mealRepo := mongo.NewMongoMealRepository(appDB)
	ingredientRepo := mongo.NewMongoIngredientRepository(appDB)
	restrictionRepo := mongo.NewMongoRestrictionRepository(appDB)

	// --- Services ---
	calc := nutrition.NewCalculator(cfg.NutritionConstants())
	planService := service.NewPlanService(profileRepo, planRepo, calc)
	mealService := service.NewMealService(mealRepo, ingredientRepo)
	services := api.Services{
		Auth:        service.NewAuthService(userRepo, cfg.Admin, cfg.JWT.Secret, cfg.JWT.Expiration),
		Plan:        planService,
		Meal:        mealService,
		DayPlan:     service.NewDayPlanService(templateRepo, planRepo, mealService, planService.PortionSizes()),
		Checklist:   service.NewChecklistService(templateRepo, planRepo, planService.PortionSizes()),
		Admin: service.NewAdminService(userRepo, profileRepo, planRepo, templateRepo,
			fileStorage, cfg.Adherence, cfg.S3.ReportExpiry),
		Restriction: service.NewRestrictionService(restrictionRepo),
	}

	// --- Router ---
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(api.RequestLogger(), gin.Recovery())
	api.SetupRoutes(router, cfg.JWT.Secret, services)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful Shutdown ---
	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "address", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return err
	case sig := <-quit:
		log.Info("shutting down server", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(ctx)
}
