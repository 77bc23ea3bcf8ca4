package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"review-backend/internal/github"
	"review-backend/internal/llm"
	"review-backend/internal/llm/gemini"
	openai "review-backend/internal/llm/openai"
	"review-backend/internal/queue"
	"review-backend/internal/reviews"
	"review-backend/internal/shared/config"
	"review-backend/internal/shared/server"
	"review-backend/internal/shared/storage/db"
	"review-backend/internal/shared/storage/object"
	localstore "review-backend/internal/shared/storage/object/local"
	s3store "review-backend/internal/shared/storage/object/s3"
)

// App holds shared dependencies.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	DB              *sql.DB
	Store           object.ArchiveStore
	Queue           queue.Client
	GitHub          *github.Client
	LLM             llm.Client
	ReviewsRepo     reviews.Repo
	ReviewsService  *reviews.Service
	ReviewProcessor ReviewProcessor
	ReviewsHandler  *reviews.Handler
}

// ReviewProcessor allows callers to override review processing for tests.
type ReviewProcessor interface {
	Process(ctx context.Context, reviewID, githubToken string) error
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:         app.Config,
		ReviewsHandler: app.ReviewsHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ArchiveStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if cfg.QueueURL == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.QueueURL, cfg.AWSRegion)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) error {
	var repo reviews.Repo
	if app.DB != nil {
		repo = &reviews.PGRepo{DB: app.DB}
	} else {
		repo = reviews.NewMemoryRepo()
	}

	githubClient := github.NewClient(app.Config.GitHubAPIBaseURL, app.Config.GitHubToken)

	llmClient, err := buildLLM(app.Config)
	if err != nil {
		return err
	}

	reviewsSvc := &reviews.Service{
		Repo:     repo,
		GitHub:   githubClient,
		LLM:      llmClient,
		Store:    app.Store,
		Queue:    app.Queue,
		Provider: app.Config.LLMProvider,
		Model:    app.Config.LLMModel,
		Kinds: reviews.KindPolicy{
			Allowed:  app.Config.IssueKinds,
			Critical: app.Config.CriticalKinds,
		},
	}

	app.GitHub = githubClient
	app.LLM = llmClient
	app.ReviewsRepo = repo
	app.ReviewsService = reviewsSvc
	app.ReviewProcessor = reviewsSvc
	app.ReviewsHandler = reviews.NewHandler(reviewsSvc)
	return nil
}

func buildLLM(cfg config.Config) (llm.Client, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.LLMProvider)) {
	case "openai":
		return openai.NewClient(os.Getenv("OPENAI_API_KEY"), cfg.LLMModel)
	case "gemini":
		apiKey := os.Getenv("GEMINI_API_KEY")
		if strings.TrimSpace(apiKey) == "" {
			if isDevLike(cfg.Env) {
				log.Printf("bootstrap: GEMINI_API_KEY empty; using placeholder llm client")
				return llm.PlaceholderClient{}, nil
			}
			return nil, fmt.Errorf("GEMINI_API_KEY is required")
		}
		return gemini.NewClient(context.Background(), apiKey, cfg.LLMModel)
	default:
		return llm.PlaceholderClient{}, nil
	}
}
