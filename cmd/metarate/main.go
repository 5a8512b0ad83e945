package main

import (
	"flag"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BastienLeGuellec/PARROT-rating/internal/api"
	"github.com/BastienLeGuellec/PARROT-rating/internal/assignment"
	"github.com/BastienLeGuellec/PARROT-rating/internal/catalog"
	"github.com/BastienLeGuellec/PARROT-rating/internal/pkg/config"
	"github.com/BastienLeGuellec/PARROT-rating/internal/pkg/logger"
	"github.com/BastienLeGuellec/PARROT-rating/internal/pkg/redis"
	"github.com/BastienLeGuellec/PARROT-rating/internal/repository"
	"github.com/BastienLeGuellec/PARROT-rating/internal/service"
	"github.com/BastienLeGuellec/PARROT-rating/internal/session"
	"github.com/BastienLeGuellec/PARROT-rating/internal/users"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting PARROT rating service")

	db, err := repository.Open(cfg.Store.DatabasePath)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	policy, err := repository.ParsePolicy(cfg.Rating.ReratePolicy)
	if err != nil {
		zap.L().Fatal("Invalid rating config", zap.Error(err))
	}
	actionLog := repository.NewActionLog(db, policy)

	userStore, err := users.Load(cfg.Data.UsersFile)
	if err != nil {
		zap.L().Fatal("Failed to load users file", zap.Error(err))
	}

	cat := catalog.New(cfg.Data.CollectionsDir)
	assignments, err := assignment.Load(cfg.Data.AssignmentsFile, cat)
	if err != nil {
		zap.L().Fatal("Failed to load assignments", zap.Error(err))
	}

	var fence session.Fence
	if cfg.RedisService.Enabled {
		if err := redis.Init(cfg); err != nil {
			zap.L().Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer redis.Close()
		fence = &redis.Fence{
			TTL: time.Duration(cfg.Session.FenceTTLMinutes) * time.Minute,
		}
	}

	sessions := session.NewManager(assignments, cat, actionLog, fence)
	authService := service.NewAuth(userStore, actionLog)
	adminService := service.NewAdmin(userStore, actionLog)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	api.SetupRouter(r, api.Deps{
		Auth:     authService,
		Admin:    adminService,
		Sessions: sessions,
	})

	zap.L().Info("Listening",
		zap.String("addr", cfg.GetServerAddr()),
		zap.String("rerate_policy", string(policy)))

	if err := r.Run(cfg.GetServerAddr()); err != nil {
		zap.L().Fatal("Failed to start server", zap.Error(err))
	}
}
