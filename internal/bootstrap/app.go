package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"vision-router/internal/analyze"
	"vision-router/internal/capabilities"
	"vision-router/internal/classifier"
	"vision-router/internal/completion"
	"vision-router/internal/dispatch"
	"vision-router/internal/modelmetrics"
	"vision-router/internal/results"
	"vision-router/internal/services/health"
	"vision-router/internal/shared/config"
	"vision-router/internal/shared/server"
	"vision-router/internal/shared/storage/db"
	"vision-router/internal/shared/storage/object"
	localstore "vision-router/internal/shared/storage/object/local"
	s3store "vision-router/internal/shared/storage/object/s3"
)

// App holds shared dependencies.
type App struct {
	Config     config.Config
	Router     *gin.Engine
	DB         *sql.DB
	Redis      *redis.Client
	Store      object.Store
	Results    results.Repo
	Samples    modelmetrics.Store
	Cascade    *classifier.Cascade
	Dispatcher *dispatch.Dispatcher
	Analyze    *analyze.Service
	Health     *health.Service
	Gemini     *capabilities.GeminiEngine
}

// Build prepares every dependency and the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}

	app := &App{Config: cfg, Health: health.NewService()}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Store = store

	if err := buildPersistence(ctx, app); err != nil {
		app.Close()
		return nil, err
	}

	var engine capabilities.Engine
	if g := capabilities.NewGeminiEngine(cfg.GeminiAPIKey, cfg.GeminiModel); g != nil {
		app.Gemini = g
		engine = g
	} else {
		log.Printf("bootstrap: GEMINI_API_KEY empty; /task endpoints answer with degraded results")
	}

	app.Cascade = classifier.New(cfg.Classifier)

	handlers := capabilities.RemoteHandlers(cfg.HandlerBaseURL, cfg.HandlerTimeout)
	app.Dispatcher = &dispatch.Dispatcher{
		Table:    dispatch.NewTable(nil),
		Handlers: handlers,
		Results:  app.Results,
		Metrics:  app.Samples,
	}

	app.Analyze = &analyze.Service{
		Store:      app.Store,
		Classifier: app.Cascade,
		Dispatcher: app.Dispatcher,
	}
	if cfg.CaptionContext {
		app.Analyze.Captioner = handlers[dispatch.HandlerCaption]
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:     cfg,
		Health:     app.Health,
		Analyze:    analyze.NewHandler(app.Analyze),
		Results:    results.NewHandler(app.Results),
		Metrics:    modelmetrics.NewHandler(app.Samples),
		Classifier: classifier.NewHandler(app.Cascade, cfg.Classifier),
		Completion: completion.NewHandler(),
		Tasks:      capabilities.NewHandler(capabilities.LocalHandlers(engine, imageLoader(cfg, app.Store))),
	})

	return app, nil
}

// Close releases database, redis and Gemini connections.
func (a *App) Close() error {
	var errs []error
	if a.Gemini != nil {
		errs = append(errs, a.Gemini.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	return errors.Join(errs...)
}

// imageLoader confines raw image paths to the local upload directory; with
// s3 only object keys resolve.
func imageLoader(cfg config.Config, store object.Store) capabilities.ImageLoader {
	loader := capabilities.ImageLoader{Store: store}
	if cfg.ObjectStoreType != "s3" {
		loader.Root = cfg.LocalStoreDir
	}
	return loader
}

func buildStore(ctx context.Context, cfg config.Config) (object.Store, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

// buildPersistence picks the result log and latency sample stores. In dev,
// an unreachable backend falls back to memory.
func buildPersistence(ctx context.Context, app *App) error {
	cfg := app.Config
	app.Samples = modelmetrics.NewMemoryStore()

	switch cfg.ResultStore {
	case "file":
		app.Results = results.NewFileRepo(cfg.ResultLogFile)
		return nil
	case "postgres":
		sqlDB, err := buildDB(ctx, cfg)
		if err != nil {
			if isDevLike(cfg.Env) {
				log.Printf("bootstrap: database unavailable; using in-memory stores: %v", err)
				app.Results = results.NewMemoryRepo()
				return nil
			}
			return err
		}
		app.DB = sqlDB
		app.Results = &results.PGRepo{DB: sqlDB}
		app.Samples = &modelmetrics.PGStore{DB: sqlDB}
		app.Health.Register("postgres", sqlDB.PingContext)
		return nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			if isDevLike(cfg.Env) {
				log.Printf("bootstrap: redis unavailable; using in-memory stores: %v", err)
				app.Results = results.NewMemoryRepo()
				return nil
			}
			return fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		app.Redis = client
		app.Results = results.NewRedisRepo(client, cfg.RedisPrefix)
		app.Health.Register("redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		return nil
	default:
		app.Results = results.NewMemoryRepo()
		return nil
	}
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, fmt.Errorf("RESULT_STORE=postgres requires DATABASE_URL")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
