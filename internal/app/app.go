package app

import (
	"context"
	"fmt"
	"net/http"
	"quizfunnel/internal/cache"
	"quizfunnel/internal/config"
	"quizfunnel/internal/logger"
	"quizfunnel/internal/repository"
	"quizfunnel/internal/service"
	"quizfunnel/internal/transport/rest"
	"quizfunnel/internal/transport/ws"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// App holds the wired repositories, caches and services
type App struct {
	QuizRepo    repository.QuizRepo
	StepRepo    repository.StepRepo
	SessionRepo repository.SessionRepo
	LeadRepo    repository.LeadRepo

	StepCache  cache.StepCache
	Funnel     cache.FunnelCache
	ScoreBoard cache.ScoreBoard

	AuthService    *service.AuthService
	QuizService    *service.QuizService
	SessionService *service.SessionService
	ReportService  *service.ReportService
	Hub            *ws.Hub

	cfg         *config.Config
	mongoClient *mongo.Client
	redisClient *redis.Client
	log         *logger.Logger
}

// New connects the configured stores and wires every service
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}

	if err := a.connectStore(ctx, cfg); err != nil {
		a.Close(ctx)
		return nil, err
	}
	if err := a.connectRedis(ctx, cfg); err != nil {
		a.Close(ctx)
		return nil, err
	}

	a.AuthService = service.NewAuthService(cfg)
	a.QuizService = service.NewQuizService(a.QuizRepo, a.StepRepo, log.With("component", "quiz"))
	a.SessionService = service.NewSessionService(a.QuizRepo, a.StepRepo, a.SessionRepo, a.LeadRepo, a.AuthService, log.With("component", "session"))
	a.ReportService = service.NewReportService(a.QuizService, a.SessionRepo, a.LeadRepo)

	if a.redisClient != nil {
		a.QuizService.SetStepCache(a.StepCache)
		a.SessionService.SetStepCache(a.StepCache)
		a.SessionService.SetFunnelCache(a.Funnel)
		a.SessionService.SetScoreBoard(a.ScoreBoard)
		a.ReportService.SetAnalytics(a.Funnel, a.ScoreBoard)
	}

	a.Hub = ws.NewHub(log.With("component", "ws"))
	a.SessionService.SetBroadcaster(a.Hub)
	return a, nil
}

// Router builds the HTTP handler over the wired services
func (a *App) Router() http.Handler {
	return rest.NewRouter(&rest.Container{
		AuthService:    a.AuthService,
		QuizService:    a.QuizService,
		SessionService: a.SessionService,
		ReportService:  a.ReportService,
		WSHub:          a.Hub,
		CORS:           a.cfg.CORS,
		Logger:         a.log,
	})
}

func (a *App) connectStore(ctx context.Context, cfg *config.Config) error {
	if cfg.Store == config.StoreMemory {
		store := repository.NewMemoryStore()
		a.QuizRepo = store.Quizzes
		a.StepRepo = store.Steps
		a.SessionRepo = store.Sessions
		a.LeadRepo = store.Leads
		a.log.Warn("using in-memory store, data is lost on restart")
		return nil
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	a.mongoClient = client

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(cfg.MongoDatabase)
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	a.QuizRepo = repository.NewQuizRepo(db)
	a.StepRepo = repository.NewStepRepo(db)
	a.SessionRepo = repository.NewSessionRepo(db)
	a.LeadRepo = repository.NewLeadRepo(db)
	a.log.Info("connected to MongoDB", "database", cfg.MongoDatabase)
	return nil
}

func (a *App) connectRedis(ctx context.Context, cfg *config.Config) error {
	if cfg.RedisAddr == "" {
		a.log.Warn("redis disabled, running without step cache and analytics")
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	a.redisClient = rdb

	a.StepCache = cache.NewStepCache(rdb, cfg.StepCacheTTL)
	a.Funnel = cache.NewFunnelCache(rdb)
	a.ScoreBoard = cache.NewScoreBoard(rdb)
	a.log.Info("connected to Redis", "addr", cfg.RedisAddr)
	return nil
}

// Close stops the hub and releases the store connections
func (a *App) Close(ctx context.Context) {
	if a.Hub != nil {
		a.Hub.Close()
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Warn("failed to close Redis", "error", err)
		}
	}
	if a.mongoClient != nil {
		if err := a.mongoClient.Disconnect(ctx); err != nil {
			a.log.Warn("failed to disconnect MongoDB", "error", err)
		}
	}
}
