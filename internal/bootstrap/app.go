package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-workspace/internal/ai"
	"resume-workspace/internal/ai/openai"
	"resume-workspace/internal/collab"
	"resume-workspace/internal/editor"
	"resume-workspace/internal/export"
	"resume-workspace/internal/resumes"
	"resume-workspace/internal/scores"
	"resume-workspace/internal/services/health"
	"resume-workspace/internal/shared/auth"
	"resume-workspace/internal/shared/config"
	"resume-workspace/internal/shared/server"
	"resume-workspace/internal/shared/storage/db"
	"resume-workspace/internal/shared/storage/kv"
	"resume-workspace/internal/shared/storage/object"
	localstore "resume-workspace/internal/shared/storage/object/local"
	s3store "resume-workspace/internal/shared/storage/object/s3"
	"resume-workspace/internal/versions"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	KV     kv.Store
	Store  object.ObjectStore
	AI     ai.Gateway

	ResumesService  *resumes.Service
	VersionsService *versions.Service
	CollabService   *collab.Service
	ScoresService   *scores.Service
	ExportService   *export.Service
	Sessions        *editor.Manager
}

// Build wires storage, services, handlers and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	verifier, err := auth.VerifierFromEnv(cfg.Env, cfg.JWTSecret)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg}
	if err := buildKV(ctx, app); err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Store = store

	gateway, err := buildAI(cfg)
	if err != nil {
		return nil, err
	}
	app.AI = gateway

	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:         cfg,
		Verifier:       verifier,
		Health:         health.NewService(app.KV, cfg.StorageBackend, app.Sessions.Len),
		ResumeHandler:  resumes.NewHandler(app.ResumesService),
		VersionHandler: versions.NewHandler(app.VersionsService, app.ResumesService),
		EditorHandler:  editor.NewHandler(app.Sessions, app.ResumesService),
		CollabHandler:  collab.NewHandler(app.CollabService, app.ResumesService),
		ScoreHandler:   scores.NewHandler(app.ScoresService, app.ResumesService),
	})
	return app, nil
}

// Close releases open sessions and backend connections.
func (a *App) Close() {
	if a.Sessions != nil {
		a.Sessions.Shutdown()
	}
	if c, ok := a.KV.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Printf("bootstrap: close kv store: %v", err)
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

func buildKV(ctx context.Context, app *App) error {
	cfg := app.Config
	switch cfg.StorageBackend {
	case "redis":
		store, err := kv.NewRedisStore(cfg.RedisURL, cfg.RedisPrefix, cfg.StorageQuotaBytes)
		if err != nil {
			return fallbackOrFail(app, fmt.Errorf("redis store: %w", err))
		}
		if err := store.Ping(ctx); err != nil {
			store.Close()
			return fallbackOrFail(app, fmt.Errorf("redis ping: %w", err))
		}
		app.KV = store
	case "postgres":
		sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
		if err != nil {
			return fallbackOrFail(app, err)
		}
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			sqlDB.Close()
			return fallbackOrFail(app, fmt.Errorf("run migrations: %w", err))
		}
		app.DB = sqlDB
		app.KV = &kv.PGStore{DB: sqlDB, MaxValueBytes: cfg.StorageQuotaBytes}
	default:
		app.KV = kv.NewMemoryStore(cfg.StorageQuotaBytes)
	}
	return nil
}

// fallbackOrFail degrades to memory outside production.
func fallbackOrFail(app *App, err error) error {
	if !isDevLike(app.Config.Env) {
		return err
	}
	log.Printf("bootstrap: %v; using in-memory storage", err)
	app.Config.StorageBackend = "memory"
	app.KV = kv.NewMemoryStore(app.Config.StorageQuotaBytes)
	return nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

// buildAI returns the placeholder gateway when no key is configured so AI
// routes answer with a missing-credential error instead of failing startup.
func buildAI(cfg config.Config) (ai.Gateway, error) {
	if cfg.AIProvider != "openai" || cfg.AIAPIKey == "" {
		log.Printf("bootstrap: AI provider %q without credential; AI features disabled", cfg.AIProvider)
		return ai.PlaceholderGateway{}, nil
	}
	client, err := openai.NewClient(cfg.AIAPIKey, cfg.AIModel, cfg.AIBaseURL, cfg.AITimeout)
	if err != nil {
		return nil, err
	}
	return ai.WithRetry(client), nil
}

func buildServices(app *App) {
	cfg := app.Config
	versionSvc := versions.NewService(versions.NewKVRepo(app.KV), cfg.Editor.VersionLimit)
	resumeSvc := resumes.NewService(resumes.NewKVRepo(app.KV), versionSvc)
	scoreSvc := scores.NewService(scores.NewKVRepo(app.KV))
	exportSvc := export.NewService(app.Store)

	sessions := editor.NewManager(editor.Deps{
		Resumes:  resumeSvc,
		Versions: versionSvc,
		Scores:   scoreSvc,
		Exporter: exportSvc,
		AI:       app.AI,
		Options: editor.Options{
			HistoryLimit:  cfg.Editor.HistoryLimit,
			AutosaveDelay: cfg.Editor.AutosaveDelay,
			RedoEnabled:   cfg.Editor.RedoEnabled,
		},
	})
	resumeSvc.OnDelete = func(resumeID string) {
		sessions.Close(resumeID)
		versionSvc.Forget(resumeID)
	}

	app.VersionsService = versionSvc
	app.ResumesService = resumeSvc
	app.ScoresService = scoreSvc
	app.ExportService = exportSvc
	app.CollabService = collab.NewService(collab.NewKVRepo(app.KV))
	app.Sessions = sessions
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local", "test":
		return true
	default:
		return false
	}
}
