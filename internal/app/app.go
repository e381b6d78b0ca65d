package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mkwa_fitness_backend/internal/config"
	"mkwa_fitness_backend/internal/controller"
	"mkwa_fitness_backend/internal/event"
	"mkwa_fitness_backend/internal/middleware"
	"mkwa_fitness_backend/internal/repository"
	"mkwa_fitness_backend/internal/service"
	"mkwa_fitness_backend/pkg/database"
	"mkwa_fitness_backend/pkg/logger"
	"mkwa_fitness_backend/pkg/monitoring"
	"mkwa_fitness_backend/pkg/security"
	"mkwa_fitness_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	Bus             *event.Bus
	Calculator      *service.PointsCalculator
	services        *services
	configCallbacks []func(*config.Config)
}

type repositories struct {
	member      *repository.MemberRepository
	ledger      *repository.LedgerRepository
	activity    *repository.ActivityRepository
	streak      *repository.StreakRepository
	achievement *repository.AchievementRepository
	goal        *repository.GoalRepository
	leaderboard *repository.LeaderboardRepository
}

type services struct {
	member      *service.MemberService
	ledger      *service.LedgerService
	streak      *service.StreakService
	achievement *service.AchievementService
	goal        *service.GoalService
	leaderboard *service.LeaderboardService
	activity    *service.ActivityService
	storage     *service.StorageService
}

type controllers struct {
	member      *controller.MemberController
	activity    *controller.ActivityController
	points      *controller.PointsController
	streak      *controller.StreakController
	achievement *controller.AchievementController
	goal        *controller.GoalController
	leaderboard *controller.LeaderboardController
	health      *controller.HealthController
}

// RegisterConfigCallback 配置热更新时回调，计分规则替换走这里
func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// OnConfigReload 供 configwatcher 调用
func (a *App) OnConfigReload(cfg *config.Config) {
	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		member:      repository.NewMemberRepository(db),
		ledger:      repository.NewLedgerRepository(db),
		activity:    repository.NewActivityRepository(db),
		streak:      repository.NewStreakRepository(db),
		achievement: repository.NewAchievementRepository(db),
		goal:        repository.NewGoalRepository(db),
		leaderboard: repository.NewLeaderboardRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client, bus *event.Bus) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.member = service.NewMemberService(repos.member, repos.ledger, repos.streak, repos.achievement, repos.goal, db)
	s.ledger = service.NewLedgerService(repos.member, repos.ledger, bus, db)
	s.streak = service.NewStreakService(repos.streak, bus, db)
	s.achievement = service.NewAchievementService(repos.achievement, repos.member, repos.ledger, repos.activity, repos.streak, repos.goal, bus, db)
	s.goal = service.NewGoalService(repos.goal, repos.member, repos.ledger, bus, db)
	s.leaderboard = service.NewLeaderboardService(repos.leaderboard, rdb, cfg.Leaderboard)

	s.activity = service.NewActivityService(
		a.Calculator,
		repos.member,
		repos.activity,
		repos.ledger,
		s.streak,
		s.achievement,
		s.goal,
		repos.goal,
		bus,
		db,
	)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		member:      controller.NewMemberController(s.member),
		activity:    controller.NewActivityController(s.activity),
		points:      controller.NewPointsController(s.ledger),
		streak:      controller.NewStreakController(s.streak),
		achievement: controller.NewAchievementController(s.achievement, s.storage),
		goal:        controller.NewGoalController(s.goal),
		leaderboard: controller.NewLeaderboardController(s.leaderboard),
		health:      controller.NewHealthController(db, rdb),
	}
}

// registerSubscribers 装配进程内事件订阅：领域指标、审计日志、
// eager 模式下的排行榜缓存失效。
func (a *App) registerSubscribers(bus *event.Bus, s *services, cfg *config.Config) {
	bus.Subscribe("points_awarded", func(ctx context.Context, evt event.Event) {
		e := evt.(event.PointsAwarded)
		monitoring.PointsAwarded.WithLabelValues(e.ActivityType).Inc()
		logger.Log.Info("points awarded",
			zap.Uint("member", e.MemberID),
			zap.Int64("points", e.Points),
			zap.String("activityType", e.ActivityType))
	})

	bus.Subscribe("achievement_awarded", func(ctx context.Context, evt event.Event) {
		e := evt.(event.AchievementAwarded)
		monitoring.AchievementsUnlocked.Inc()
		logger.Log.Info("achievement awarded",
			zap.Uint("member", e.MemberID),
			zap.String("achievement", e.Achievement))
	})

	bus.Subscribe("goal_completed", func(ctx context.Context, evt event.Event) {
		e := evt.(event.GoalCompleted)
		monitoring.GoalCompletions.Inc()
		logger.Log.Info("community goal completed",
			zap.Uint("goal", e.GoalID),
			zap.Int64("finalValue", e.FinalValue),
			zap.Int("participants", e.Participants))
	})

	if cfg.Leaderboard.Mode == "eager" {
		invalidate := func(ctx context.Context, evt event.Event) {
			s.leaderboard.Invalidate(ctx)
		}
		bus.Subscribe("points_awarded", invalidate)
		bus.Subscribe("streak_updated", invalidate)
		bus.Subscribe("goal_completed", invalidate)
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(func(c *gin.Context) {
		c.Set("config", cfg)
		c.Next()
	})
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	// 加锁事务继承这里的截止时间，锁等待超时映射为并发冲突
	router.Use(middleware.Timeout(time.Duration(cfg.Server.RequestTimeoutSeconds) * time.Second))

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		}
	}

	app := &App{
		Config:     cfg,
		DB:         db,
		Redis:      rdb,
		Bus:        event.NewBus(rdb),
		Calculator: service.NewPointsCalculator(cfg.Rules),
	}
	app.RegisterConfigCallback(func(newCfg *config.Config) {
		app.Calculator.UpdateRules(newCfg.Rules)
		logger.Log.Info("points calculation rules reloaded")
	})

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb, app.Bus)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	app.registerSubscribers(app.Bus, services, cfg)

	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("mkwa-fitness", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      time.Duration(a.Config.Server.RequestTimeoutSeconds+5) * time.Second,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
