package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
	"github.com/intervia/interview-api/internal/cache"
	"github.com/intervia/interview-api/internal/config"
	"github.com/intervia/interview-api/internal/database"
	"github.com/intervia/interview-api/internal/evaluation"
	"github.com/intervia/interview-api/internal/handler"
	"github.com/intervia/interview-api/internal/logger"
	"github.com/intervia/interview-api/internal/openai"
	"github.com/intervia/interview-api/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"
)

type application struct {
	DB      *pgxpool.Pool
	Logger  *zap.Logger
	Config  *config.Config
	Queue   *evaluation.Queue
	Handler *handler.Handler
}

func main() {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, _ := logger.NewLogger(cfg.Env)
	defer log.Sync()
	sugar := log.Sugar()
	sugar.Infof("config loaded, env=%s", cfg.Env)

	pool, err := database.Connect(ctx, cfg.DB)
	if err != nil {
		sugar.Fatal(err)
	}
	defer pool.Close()

	repo := repository.NewRepository(pool)

	openaiClient := openai.NewClient(openai.Options{
		APIKey:    cfg.OpenAI.APIKey,
		Model:     cfg.OpenAI.Model,
		BaseURL:   cfg.OpenAI.BaseURL,
		MaxTokens: cfg.OpenAI.MaxTokens,
	}, resty.New().SetTimeout(cfg.OpenAI.Timeout))

	queue := evaluation.NewQueue(log)
	evaluator := evaluation.NewEvaluator(repo, openaiClient, log)

	var invitationCache *cache.InvitationCache
	if cfg.CacheEnabled() {
		rdb := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := cache.Ping(ctx, rdb); err != nil {
			sugar.Warnw("redis unreachable, invitation cache disabled", "addr", cfg.Redis.Addr, "err", err)
		} else {
			invitationCache = cache.NewInvitationCache(rdb, cfg.Redis.TTL)
		}
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	app := &application{
		DB:     pool,
		Logger: log,
		Config: cfg,
		Queue:  queue,
		Handler: &handler.Handler{
			Logger:      log,
			Sessions:    repo,
			Invitations: repo,
			Evaluator:   evaluator,
			Queue:       queue,
			Cache:       invitationCache,
		},
	}

	if err := app.serve(); err != nil {
		sugar.Fatal(err)
	}
}
